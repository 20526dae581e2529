package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/log"
)

// DefaultInviteGrace is how long an invitation stays valid after being
// sent or resent.
const DefaultInviteGrace = 5 * 24 * time.Hour

type MembershipService struct {
	base

	grace time.Duration
	now   func() time.Time
}

func NewMembershipService(repos Repositories, notifier teams.Notifier, logger log.Logger, grace time.Duration) *MembershipService {
	if grace <= 0 {
		grace = DefaultInviteGrace
	}

	return &MembershipService{
		base: base{
			repos:    repos,
			notifier: notifier,
			logger:   logger,
		},
		grace: grace,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MembershipService) Get(ctx context.Context, id int) (teams.Membership, error) {
	return s.membership(ctx, id)
}

// Promote makes a member a manager.
func (s *MembershipService) Promote(ctx context.Context, id, by int) (bool, error) {
	return s.transition(ctx, id, by, teams.EventPromotedMember, func(m *teams.Membership) bool {
		if m.Role != teams.RoleMember {
			return false
		}
		m.Role = teams.RoleManager
		return true
	})
}

// Demote makes a manager a member.
func (s *MembershipService) Demote(ctx context.Context, id, by int) (bool, error) {
	return s.transition(ctx, id, by, teams.EventDemotedMember, func(m *teams.Membership) bool {
		if m.Role != teams.RoleManager {
			return false
		}
		m.Role = teams.RoleMember
		return true
	})
}

// Accept lets an applicant on the team.
func (s *MembershipService) Accept(ctx context.Context, id, by int) (bool, error) {
	return s.transition(ctx, id, by, teams.EventAcceptedMembership, func(m *teams.Membership) bool {
		if m.Status != teams.StatusApplied {
			return false
		}
		m.Status = teams.StatusAccepted
		return true
	})
}

// Reject turns an application down.
func (s *MembershipService) Reject(ctx context.Context, id, by int) (bool, error) {
	return s.transition(ctx, id, by, teams.EventRejectedMembership, func(m *teams.Membership) bool {
		if m.Status != teams.StatusApplied {
			return false
		}
		m.Status = teams.StatusRejected
		return true
	})
}

// transition applies fn to the membership if by is an owner or a manager
// of its team. It returns false, and changes nothing, when by is not
// allowed or when fn refuses the current state of the membership.
func (s *MembershipService) transition(ctx context.Context, id, by int, name teams.EventName, fn func(*teams.Membership) bool) (bool, error) {
	m, err := s.membership(ctx, id)
	if err != nil {
		return false, err
	}

	logger := s.logger.WithFields(log.Fields{"membership": m.ID, "team": m.TeamID, "by": by, "event": string(name)})

	allowed, err := s.canManage(ctx, m.TeamID, by)
	if err != nil {
		return false, err
	} else if !allowed {
		logger.Debugf("not allowed")
		return false, nil
	}

	m, ok, err := s.repos.Memberships.Update(ctx, id, fn)
	if err != nil {
		return false, err
	} else if !ok {
		logger.Debugf("wrong state: %s", m.Status)
		return false, nil
	}

	logger.Debugf("done: %s, %s", m.Role, m.Status)
	s.notify(ctx, teams.NewEvent(name, m))
	return true, nil
}

// Joined binds the membership to the user that claimed its invitation.
// The user is on the team right away if the team auto joins, and invited
// otherwise. Only an invited membership, unbound or already bound to that
// user, can be joined.
func (s *MembershipService) Joined(ctx context.Context, id int) (teams.Membership, error) {
	m, err := s.membership(ctx, id)
	if err != nil {
		return teams.Membership{}, err
	}

	if m.InviteID == 0 {
		return teams.Membership{}, errors.New(fmt.Sprintf("Membership %d has no invitation", id), errors.BadRequest())
	}

	inv, err := s.repos.Invitations.Get(ctx, m.InviteID)
	if err != nil {
		return teams.Membership{}, err
	} else if inv.ID == 0 || inv.ToUserID == 0 {
		return teams.Membership{}, errors.New(fmt.Sprintf("The invitation of membership %d has not been claimed", id), errors.BadRequest())
	}

	m, err = s.bind(ctx, m, inv.ToUserID)
	if err != nil {
		return teams.Membership{}, err
	}

	s.notify(ctx, teams.NewEvent(teams.EventJoinedTeam, m))
	return m, nil
}

// bind sets the user of an invited membership. It refuses memberships that
// left the invited status or belong to someone else.
func (s *MembershipService) bind(ctx context.Context, m teams.Membership, userID int) (teams.Membership, error) {
	team, err := s.team(ctx, m.TeamID)
	if err != nil {
		return teams.Membership{}, err
	}

	id := m.ID
	m, ok, err := s.repos.Memberships.Update(ctx, id, func(m *teams.Membership) bool {
		if m.Status != teams.StatusInvited || (m.UserID != 0 && m.UserID != userID) {
			return false
		}

		m.UserID = userID
		if teams.AutoJoins(team) {
			m.Status = teams.StatusAutoJoined
		}
		return true
	})
	if err != nil {
		return teams.Membership{}, err
	} else if m.ID == 0 {
		return teams.Membership{}, errMembershipNotFound(id)
	} else if !ok {
		return teams.Membership{}, errors.New(fmt.Sprintf("Membership %d can not be joined any more", id), errors.Conflict())
	}
	return m, nil
}

// Decline lets an invited user turn the invitation down.
func (s *MembershipService) Decline(ctx context.Context, id, userID int) (bool, error) {
	if _, err := s.membership(ctx, id); err != nil {
		return false, err
	}

	m, ok, err := s.repos.Memberships.Update(ctx, id, func(m *teams.Membership) bool {
		if m.UserID == 0 || m.UserID != userID || m.Status != teams.StatusInvited {
			return false
		}
		m.Status = teams.StatusDeclined
		return true
	})
	if err != nil || !ok {
		return false, err
	}

	s.notify(ctx, teams.NewEvent(teams.EventDeclinedInvitation, m))
	return true, nil
}

// Invite sends an invitation to join the team to the email. Only owners
// and managers can invite.
func (s *MembershipService) Invite(ctx context.Context, by, teamID int, email string, role teams.Role) (teams.Membership, teams.Invitation, error) {
	team, err := s.team(ctx, teamID)
	if err != nil {
		return teams.Membership{}, teams.Invitation{}, err
	}

	allowed, err := s.canManage(ctx, team.ID, by)
	if err != nil {
		return teams.Membership{}, teams.Invitation{}, err
	} else if !allowed {
		return teams.Membership{}, teams.Invitation{}, errNotTeamAdmin(team.ID)
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return teams.Membership{}, teams.Invitation{}, errors.New("An email is needed to send an invitation", errors.BadRequest())
	}

	inv := teams.Invitation{
		Token:     uuid.NewString(),
		Email:     email,
		ExpiresAt: s.now().Add(s.grace),
	}
	var m teams.Membership
	err = s.repos.Transactor.Do(ctx, func(ctx context.Context) error {
		if err := s.repos.Invitations.Upsert(ctx, &inv); err != nil {
			return err
		}

		m = teams.Membership{
			TeamID:   team.ID,
			InviteID: inv.ID,
			Role:     role,
			Status:   teams.StatusInvited,
		}
		return s.repos.Memberships.Insert(ctx, &m)
	})
	if err != nil {
		return teams.Membership{}, teams.Invitation{}, err
	}

	s.notify(ctx, teams.NewEvent(teams.EventInvitedUser, m))
	return m, inv, nil
}

// AcceptInvitation claims the invitation for the user and binds its
// membership to them. An invitation can be accepted once.
func (s *MembershipService) AcceptInvitation(ctx context.Context, token string, userID int) (teams.Membership, error) {
	var m teams.Membership
	err := s.repos.Transactor.Do(ctx, func(ctx context.Context) error {
		inv, err := s.repos.Invitations.GetByToken(ctx, token)
		if err != nil {
			return err
		} else if inv.ID == 0 {
			return errors.New("No invitation for this token", errors.NotFound())
		}

		if inv.Expired(s.now()) {
			return errors.New("This invitation has expired", errors.Gone())
		}

		if inv.ToUserID != 0 {
			return errors.New("This invitation has already been claimed", errors.Conflict())
		}

		m, err = s.repos.Memberships.ForInvite(ctx, inv.ID)
		if err != nil {
			return err
		} else if m.ID == 0 {
			return errors.New("No membership for this invitation", errors.NotFound())
		}

		// A user already on the team cannot get a second membership
		existing, err := s.repos.Memberships.ForUser(ctx, m.TeamID, userID)
		if err != nil {
			return err
		} else if existing.ID != 0 && existing.ID != m.ID {
			return errors.New(fmt.Sprintf("User %d already has a membership in team %d", userID, m.TeamID), errors.Conflict())
		}

		inv.ToUserID = userID
		if err := s.repos.Invitations.Upsert(ctx, &inv); err != nil {
			return err
		}

		m, err = s.bind(ctx, m, userID)
		return err
	})
	if err != nil {
		return teams.Membership{}, err
	}

	s.notify(ctx, teams.NewEvent(teams.EventJoinedTeam, m))
	return m, nil
}

// ResendInvite pushes the expiry of the invitation of the membership. It
// does nothing for memberships without invitation.
func (s *MembershipService) ResendInvite(ctx context.Context, id int) error {
	m, err := s.membership(ctx, id)
	if err != nil {
		return err
	}

	if m.InviteID == 0 {
		return nil
	}

	inv, err := s.repos.Invitations.Get(ctx, m.InviteID)
	if err != nil {
		return err
	} else if inv.ID == 0 {
		return nil
	}

	inv.ExpiresAt = s.now().Add(s.grace)
	if err := s.repos.Invitations.Upsert(ctx, &inv); err != nil {
		return err
	}

	s.notify(ctx, teams.NewEvent(teams.EventResentInvite, m))
	return nil
}

// Remove deletes the membership and its invitation.
func (s *MembershipService) Remove(ctx context.Context, id int) error {
	m, err := s.membership(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, m)
}

// Kick removes someone else from the team. Owners and managers can kick,
// but only an owner can kick another owner.
func (s *MembershipService) Kick(ctx context.Context, id, by int) (bool, error) {
	m, err := s.membership(ctx, id)
	if err != nil {
		return false, err
	}

	role, ok, err := s.roleFor(ctx, m.TeamID, by)
	if err != nil {
		return false, err
	} else if !ok || !role.CanManage() {
		return false, nil
	} else if m.Role == teams.RoleOwner && role != teams.RoleOwner {
		return false, nil
	}

	if err := s.remove(ctx, m); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired removes the memberships whose invitation expired before now
// without being claimed. It returns the number of removed memberships.
func (s *MembershipService) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repos.Invitations.Expired(ctx, now)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, inv := range expired {
		m, err := s.repos.Memberships.ForInvite(ctx, inv.ID)
		if err != nil {
			return removed, err
		}

		if m.ID == 0 {
			// Orphan invitation
			if err := s.repos.Invitations.Delete(ctx, inv.ID); err != nil {
				return removed, err
			}
			continue
		}

		if err := s.remove(ctx, m); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		s.logger.Infof("%d expired invitations purged", removed)
	}
	return removed, nil
}
