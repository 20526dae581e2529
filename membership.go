package teams

import (
	"context"
	"fmt"
	"time"

	"github.com/bobinette/teams/errors"
)

// ErrDuplicate is returned by MembershipRepository.Insert when a membership
// already exists for the same (team, user, invite) triple.
var ErrDuplicate = errors.New("membership already exists", errors.Conflict())

// Membership binds a user, or a pending invitation, to a team. UserID and
// InviteID are 0 when unset, but never both.
type Membership struct {
	ID       int `json:"id"`
	TeamID   int `json:"teamId"`
	UserID   int `json:"userId"`
	InviteID int `json:"inviteId"`

	Role   Role   `json:"role"`
	Status Status `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
}

func (m Membership) String() string {
	if m.UserID == 0 {
		return fmt.Sprintf("invite %d in team %d", m.InviteID, m.TeamID)
	}
	return fmt.Sprintf("user %d in team %d", m.UserID, m.TeamID)
}

// Invitation is the token sent to someone that has not joined a team yet.
// ToUserID is set once the invitation is claimed by a user.
type Invitation struct {
	ID       int    `json:"id"`
	Token    string `json:"token"`
	Email    string `json:"email"`
	ToUserID int    `json:"toUserId"`

	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (inv Invitation) Expired(now time.Time) bool {
	return !inv.ExpiresAt.IsZero() && !now.Before(inv.ExpiresAt)
}

// Filter restricts the memberships returned by MembershipRepository.List.
// Empty fields do not filter.
type Filter struct {
	UserID   int
	Statuses []Status
	Roles    []Role

	// Lock keeps the matching memberships locked until the end of the
	// current transaction. Backends that serialize writers ignore it.
	Lock bool
}

func (f Filter) Match(m Membership) bool {
	if f.UserID != 0 && m.UserID != f.UserID {
		return false
	}

	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if m.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.Roles) > 0 {
		found := false
		for _, r := range f.Roles {
			if m.Role == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// MembershipRepository stores memberships. Getters return a zero
// Membership (ID == 0) when nothing matches.
type MembershipRepository interface {
	Get(ctx context.Context, id int) (Membership, error)

	// ForUser returns the oldest membership of the user in the team, be it
	// created for the user directly or from an invitation they claimed.
	ForUser(ctx context.Context, teamID, userID int) (Membership, error)
	ForInvite(ctx context.Context, inviteID int) (Membership, error)

	// List returns the memberships of a team matching the filter, ordered
	// by creation date then id.
	List(ctx context.Context, teamID int, filter Filter) ([]Membership, error)

	// Insert stores a new membership, setting its ID and CreatedAt. It
	// returns ErrDuplicate if the (team, user, invite) triple is taken.
	Insert(ctx context.Context, m *Membership) error

	// Update loads the membership and calls fn on it. The membership is
	// saved only if fn returns true. The load, fn and the save are one
	// atomic read-modify-write.
	Update(ctx context.Context, id int, fn func(m *Membership) bool) (Membership, bool, error)

	Delete(ctx context.Context, id int) error
}

// InvitationRepository stores invitations. Getters return a zero
// Invitation (ID == 0) when nothing matches.
type InvitationRepository interface {
	Get(ctx context.Context, id int) (Invitation, error)
	GetByToken(ctx context.Context, token string) (Invitation, error)

	// Expired lists the unclaimed invitations whose expiry is before t.
	Expired(ctx context.Context, t time.Time) ([]Invitation, error)

	Upsert(ctx context.Context, inv *Invitation) error
	Delete(ctx context.Context, id int) error
}
