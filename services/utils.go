package services

import (
	"context"
	"fmt"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/log"
)

// Repositories groups the persistence ports used by the services. All of
// them must come from the same backend as the Transactor.
type Repositories struct {
	Teams       teams.TeamRepository
	Memberships teams.MembershipRepository
	Invitations teams.InvitationRepository
	Transactor  teams.Transactor
}

// errTeamNotFound returns a 404 for when a team could not be found.
func errTeamNotFound(id int) error {
	return errors.New(fmt.Sprintf("No team for id %d", id), errors.NotFound())
}

// errMembershipNotFound returns a 404 for when a membership could not be found.
func errMembershipNotFound(id int) error {
	return errors.New(fmt.Sprintf("No membership for id %d", id), errors.NotFound())
}

// errNotTeamAdmin returns a 403 for when owner or manager privilege is needed
func errNotTeamAdmin(id int) error {
	return errors.New(fmt.Sprintf("You are not an owner or a manager of team %d", id), errors.Forbidden())
}

func errNotTeamOwner(id int) error {
	return errors.New(fmt.Sprintf("You are not an owner of team %d", id), errors.Forbidden())
}

var errReservedName = errors.New("You can not create a team by this name", errors.BadRequest())

// base holds what both services need: reading memberships for
// authorization, removing memberships and notifying.
type base struct {
	repos    Repositories
	notifier teams.Notifier
	logger   log.Logger
}

func (b base) team(ctx context.Context, id int) (teams.Team, error) {
	team, err := b.repos.Teams.Get(ctx, id)
	if err != nil {
		return teams.Team{}, err
	}

	// team.ID == 0 means that there was no team in the database
	if team.ID == 0 {
		return teams.Team{}, errTeamNotFound(id)
	}
	return team, nil
}

func (b base) membership(ctx context.Context, id int) (teams.Membership, error) {
	m, err := b.repos.Memberships.Get(ctx, id)
	if err != nil {
		return teams.Membership{}, err
	}

	if m.ID == 0 {
		return teams.Membership{}, errMembershipNotFound(id)
	}
	return m, nil
}

func (b base) roleFor(ctx context.Context, teamID, userID int) (teams.Role, bool, error) {
	m, err := b.repos.Memberships.ForUser(ctx, teamID, userID)
	if err != nil {
		return teams.RoleMember, false, err
	}

	if m.ID == 0 || m.Status.Void() {
		return teams.RoleMember, false, nil
	}
	return m.Role, true, nil
}

// canManage tells whether userID is an owner or a manager of the team.
func (b base) canManage(ctx context.Context, teamID, userID int) (bool, error) {
	role, ok, err := b.roleFor(ctx, teamID, userID)
	if err != nil {
		return false, err
	}
	return ok && role.CanManage(), nil
}

// remove deletes the invitation of the membership, if any, then the
// membership. The last accepted owner of a team cannot be removed.
func (b base) remove(ctx context.Context, m teams.Membership) error {
	err := b.repos.Transactor.Do(ctx, func(ctx context.Context) error {
		if m.Role == teams.RoleOwner && m.Status.OnTeam() {
			// Owners are locked so that concurrent removals count them one
			// after the other
			owners, err := b.repos.Memberships.List(ctx, m.TeamID, teams.Filter{
				Roles:    []teams.Role{teams.RoleOwner},
				Statuses: []teams.Status{teams.StatusAccepted, teams.StatusAutoJoined},
				Lock:     true,
			})
			if err != nil {
				return err
			}

			if len(owners) <= 1 {
				return errors.New(fmt.Sprintf("Team %d needs at least one owner", m.TeamID), errors.BadRequest())
			}
		}

		if m.InviteID != 0 {
			if err := b.repos.Invitations.Delete(ctx, m.InviteID); err != nil {
				return err
			}
		}

		return b.repos.Memberships.Delete(ctx, m.ID)
	})
	if err != nil {
		return err
	}

	b.notify(ctx, teams.NewEvent(teams.EventRemovedMembership, m))
	return nil
}

// notify sends the event to the notifier. Failures, panics included, are
// logged and never returned.
func (b base) notify(ctx context.Context, event teams.Event) {
	logger := b.logger.WithFields(log.Fields{
		"event":      string(event.Name),
		"team":       event.TeamID,
		"user":       event.UserID,
		"membership": event.Membership.ID,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("notifier panicked: %v", r)
		}
	}()

	if b.notifier == nil {
		return
	}

	if err := b.notifier.Notify(ctx, event); err != nil {
		logger.Errorf("could not notify: %v", err)
	}
}
