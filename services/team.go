package services

import (
	"context"
	"strings"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/log"
)

type TeamService struct {
	base

	blacklist teams.Blacklist
}

func NewTeamService(repos Repositories, blacklist teams.Blacklist, notifier teams.Notifier, logger log.Logger) *TeamService {
	if blacklist == nil {
		blacklist = teams.NewNameBlacklist()
	}

	return &TeamService{
		base: base{
			repos:    repos,
			notifier: notifier,
			logger:   logger,
		},
		blacklist: blacklist,
	}
}

// RoleFor returns the role of the user in the team. ok is false when the
// user has no membership or a declined or rejected one.
func (s *TeamService) RoleFor(ctx context.Context, teamID, userID int) (teams.Role, bool, error) {
	return s.roleFor(ctx, teamID, userID)
}

func (s *TeamService) StatusFor(ctx context.Context, teamID, userID int) (teams.Status, bool, error) {
	m, err := s.repos.Memberships.ForUser(ctx, teamID, userID)
	if err != nil {
		return teams.StatusApplied, false, err
	}

	if m.ID == 0 {
		return teams.StatusApplied, false, nil
	}
	return m.Status, true, nil
}

// ForUser returns the membership of the user in the team, or a zero
// Membership.
func (s *TeamService) ForUser(ctx context.Context, teamID, userID int) (teams.Membership, error) {
	return s.repos.Memberships.ForUser(ctx, teamID, userID)
}

func (s *TeamService) IsOwner(ctx context.Context, teamID, userID int) (bool, error) {
	return s.isOnTeam(ctx, teamID, userID, teams.RoleOwner)
}

func (s *TeamService) IsManager(ctx context.Context, teamID, userID int) (bool, error) {
	return s.isOnTeam(ctx, teamID, userID, teams.RoleManager)
}

func (s *TeamService) IsOwnerOrManager(ctx context.Context, teamID, userID int) (bool, error) {
	return s.isOnTeam(ctx, teamID, userID, teams.RoleOwner, teams.RoleManager)
}

func (s *TeamService) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	return s.isOnTeam(ctx, teamID, userID, teams.RoleMember)
}

// IsOnTeam is true for accepted and auto joined users, whatever their role.
func (s *TeamService) IsOnTeam(ctx context.Context, teamID, userID int) (bool, error) {
	return s.isOnTeam(ctx, teamID, userID)
}

func (s *TeamService) isOnTeam(ctx context.Context, teamID, userID int, roles ...teams.Role) (bool, error) {
	m, err := s.repos.Memberships.ForUser(ctx, teamID, userID)
	if err != nil {
		return false, err
	}

	if m.ID == 0 || !m.Status.OnTeam() {
		return false, nil
	}

	if len(roles) == 0 {
		return true, nil
	}
	for _, role := range roles {
		if m.Role == role {
			return true, nil
		}
	}
	return false, nil
}

var acceptedStatuses = []teams.Status{teams.StatusAccepted, teams.StatusAutoJoined}

func (s *TeamService) Applicants(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: []teams.Status{teams.StatusApplied}})
}

func (s *TeamService) Invitees(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: []teams.Status{teams.StatusInvited}})
}

func (s *TeamService) Declines(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: []teams.Status{teams.StatusDeclined}})
}

func (s *TeamService) Rejections(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: []teams.Status{teams.StatusRejected}})
}

// Acceptances lists the memberships of the users on the team.
func (s *TeamService) Acceptances(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: acceptedStatuses})
}

func (s *TeamService) Members(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: acceptedStatuses, Roles: []teams.Role{teams.RoleMember}})
}

func (s *TeamService) Managers(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: acceptedStatuses, Roles: []teams.Role{teams.RoleManager}})
}

func (s *TeamService) Owners(ctx context.Context, teamID int) ([]teams.Membership, error) {
	return s.list(ctx, teamID, teams.Filter{Statuses: acceptedStatuses, Roles: []teams.Role{teams.RoleOwner}})
}

func (s *TeamService) list(ctx context.Context, teamID int, filter teams.Filter) ([]teams.Membership, error) {
	return s.repos.Memberships.List(ctx, teamID, filter)
}

// AddUser returns the membership of the user in the team, creating an
// invited one with the given role if there is none. An existing membership
// is returned untouched.
func (s *TeamService) AddUser(ctx context.Context, teamID, userID int, role teams.Role) (teams.Membership, error) {
	m, err := s.repos.Memberships.ForUser(ctx, teamID, userID)
	if err != nil {
		return teams.Membership{}, err
	}

	if m.ID == 0 {
		m = teams.Membership{
			TeamID: teamID,
			UserID: userID,
			Role:   role,
			Status: teams.StatusInvited,
		}
		err = s.repos.Memberships.Insert(ctx, &m)
		if errors.Is(err, teams.ErrDuplicate) {
			// Someone else added the user in the meantime
			m, err = s.repos.Memberships.ForUser(ctx, teamID, userID)
		}
		if err != nil {
			return teams.Membership{}, err
		}
	}

	s.notify(ctx, teams.NewEvent(teams.EventAddedMember, m))
	return m, nil
}

// Create stores the team and makes its creator an accepted owner.
func (s *TeamService) Create(ctx context.Context, creatorID int, team teams.Team) (teams.Team, error) {
	if s.blacklist.Reserved(strings.TrimSpace(team.Name)) {
		return teams.Team{}, errReservedName
	}

	team.ID = 0
	team.CreatorID = creatorID

	var owner teams.Membership
	err := s.repos.Transactor.Do(ctx, func(ctx context.Context) error {
		if err := s.repos.Teams.Upsert(ctx, &team); err != nil {
			return err
		}

		owner = teams.Membership{
			TeamID: team.ID,
			UserID: creatorID,
			Role:   teams.RoleOwner,
			Status: teams.StatusAccepted,
		}
		return s.repos.Memberships.Insert(ctx, &owner)
	})
	if err != nil {
		return teams.Team{}, err
	}

	s.logger.WithFields(log.Fields{"team": team.ID, "user": creatorID}).Infof("team %q created", team.Name)
	return team, nil
}

func (s *TeamService) Get(ctx context.Context, teamID int) (teams.Team, error) {
	return s.team(ctx, teamID)
}

func (s *TeamService) List(ctx context.Context, publicOnly bool) ([]teams.Team, error) {
	return s.repos.Teams.List(ctx, publicOnly)
}

// Update changes the name, description, scope and visibility of the team.
// Only owners and managers can update a team.
func (s *TeamService) Update(ctx context.Context, by int, t teams.Team) (teams.Team, error) {
	team, err := s.team(ctx, t.ID)
	if err != nil {
		return teams.Team{}, err
	}

	ok, err := s.canManage(ctx, team.ID, by)
	if err != nil {
		return teams.Team{}, err
	} else if !ok {
		return teams.Team{}, errNotTeamAdmin(team.ID)
	}

	if !strings.EqualFold(team.Name, t.Name) && s.blacklist.Reserved(strings.TrimSpace(t.Name)) {
		return teams.Team{}, errReservedName
	}

	team.Name = t.Name
	team.Description = t.Description
	team.Scope = t.Scope
	team.PublicVisible = t.PublicVisible

	if err := s.repos.Teams.Upsert(ctx, &team); err != nil {
		return teams.Team{}, err
	}
	return team, nil
}

// Delete removes the team with all its memberships and invitations. Only
// owners can delete a team.
func (s *TeamService) Delete(ctx context.Context, by, teamID int) error {
	team, err := s.team(ctx, teamID)
	if err != nil {
		return err
	}

	role, ok, err := s.roleFor(ctx, team.ID, by)
	if err != nil {
		return err
	} else if !ok || role != teams.RoleOwner {
		return errNotTeamOwner(team.ID)
	}

	err = s.repos.Transactor.Do(ctx, func(ctx context.Context) error {
		memberships, err := s.repos.Memberships.List(ctx, team.ID, teams.Filter{})
		if err != nil {
			return err
		}

		for _, m := range memberships {
			if m.InviteID != 0 {
				if err := s.repos.Invitations.Delete(ctx, m.InviteID); err != nil {
					return err
				}
			}
			if err := s.repos.Memberships.Delete(ctx, m.ID); err != nil {
				return err
			}
		}

		return s.repos.Teams.Delete(ctx, team.ID)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{"team": team.ID, "user": by}).Infof("team %q deleted", team.Name)
	return nil
}

func (s *TeamService) CanApply(ctx context.Context, teamID, userID int) (bool, error) {
	team, m, err := s.teamAndMembership(ctx, teamID, userID)
	if err != nil {
		return false, err
	}
	return teams.CanApply(team, m), nil
}

func (s *TeamService) CanJoin(ctx context.Context, teamID, userID int) (bool, error) {
	team, m, err := s.teamAndMembership(ctx, teamID, userID)
	if err != nil {
		return false, err
	}
	return teams.CanJoin(team, m), nil
}

func (s *TeamService) CanLeave(ctx context.Context, teamID, userID int) (bool, error) {
	team, m, err := s.teamAndMembership(ctx, teamID, userID)
	if err != nil {
		return false, err
	}
	return teams.CanLeave(team, m), nil
}

func (s *TeamService) teamAndMembership(ctx context.Context, teamID, userID int) (teams.Team, teams.Membership, error) {
	team, err := s.team(ctx, teamID)
	if err != nil {
		return teams.Team{}, teams.Membership{}, err
	}

	m, err := s.repos.Memberships.ForUser(ctx, team.ID, userID)
	if err != nil {
		return teams.Team{}, teams.Membership{}, err
	}
	return team, m, nil
}

// Apply creates an application of the user to the team.
func (s *TeamService) Apply(ctx context.Context, teamID, userID int) (teams.Membership, error) {
	team, m, err := s.teamAndMembership(ctx, teamID, userID)
	if err != nil {
		return teams.Membership{}, err
	}

	if !teams.CanApply(team, m) {
		return teams.Membership{}, errors.New("You can not apply to this team", errors.Forbidden())
	}

	m = teams.Membership{
		TeamID: team.ID,
		UserID: userID,
		Role:   teams.RoleMember,
		Status: teams.StatusApplied,
	}
	err = s.repos.Memberships.Insert(ctx, &m)
	if errors.Is(err, teams.ErrDuplicate) {
		// A membership was created in the meantime
		return teams.Membership{}, errors.New("You can not apply to this team", errors.Forbidden())
	} else if err != nil {
		return teams.Membership{}, err
	}

	s.logger.WithFields(log.Fields{"team": team.ID, "user": userID}).Debugf("applied")
	return m, nil
}

// Join puts the user on the team. An invited user keeps the role they were
// invited with.
func (s *TeamService) Join(ctx context.Context, teamID, userID int) (teams.Membership, error) {
	team, m, err := s.teamAndMembership(ctx, teamID, userID)
	if err != nil {
		return teams.Membership{}, err
	}

	if !teams.CanJoin(team, m) {
		return teams.Membership{}, errors.New("You can not join this team", errors.Forbidden())
	}

	if m.ID == 0 {
		m = teams.Membership{
			TeamID: team.ID,
			UserID: userID,
			Role:   teams.RoleMember,
			Status: teams.StatusAutoJoined,
		}
		if err := s.repos.Memberships.Insert(ctx, &m); err != nil {
			return teams.Membership{}, err
		}
	} else {
		var ok bool
		m, ok, err = s.repos.Memberships.Update(ctx, m.ID, func(m *teams.Membership) bool {
			if m.Status != teams.StatusInvited {
				return false
			}
			m.Status = teams.StatusAutoJoined
			return true
		})
		if err != nil {
			return teams.Membership{}, err
		} else if !ok {
			return teams.Membership{}, errors.New("You can not join this team", errors.Forbidden())
		}
	}

	s.notify(ctx, teams.NewEvent(teams.EventJoinedTeam, m))
	return m, nil
}

// Leave removes the membership of the user, who must be a plain member.
func (s *TeamService) Leave(ctx context.Context, teamID, userID int) error {
	team, m, err := s.teamAndMembership(ctx, teamID, userID)
	if err != nil {
		return err
	}

	if !teams.CanLeave(team, m) {
		return errors.New("You can not leave this team", errors.Forbidden())
	}

	return s.remove(ctx, m)
}
