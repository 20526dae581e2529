package mysql

import (
	"time"

	"github.com/bobinette/teams"
)

type Team struct {
	ID            int `gorm:"primaryKey"`
	Name          string
	Description   string
	Scope         int
	PublicVisible bool
	CreatorID     int
	CreatedAt     time.Time
}

func (Team) TableName() string {
	return "teams"
}

func newTeam(t teams.Team) Team {
	return Team{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		Scope:         int(t.Scope),
		PublicVisible: t.PublicVisible,
		CreatorID:     t.CreatorID,
		CreatedAt:     t.CreatedAt,
	}
}

func (t Team) format() teams.Team {
	return teams.Team{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		Scope:         teams.Scope(t.Scope),
		PublicVisible: t.PublicVisible,
		CreatorID:     t.CreatorID,
		CreatedAt:     t.CreatedAt,
	}
}

// Membership has no NULL columns: a missing user or invite is stored as 0
// so that the unique index on (team_id, user_id, invite_id) applies.
type Membership struct {
	ID        int `gorm:"primaryKey"`
	TeamID    int
	UserID    int
	InviteID  int
	Role      int
	Status    int
	CreatedAt time.Time
}

func (Membership) TableName() string {
	return "memberships"
}

func newMembership(m teams.Membership) Membership {
	return Membership{
		ID:        m.ID,
		TeamID:    m.TeamID,
		UserID:    m.UserID,
		InviteID:  m.InviteID,
		Role:      int(m.Role),
		Status:    int(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

func (m Membership) format() teams.Membership {
	return teams.Membership{
		ID:        m.ID,
		TeamID:    m.TeamID,
		UserID:    m.UserID,
		InviteID:  m.InviteID,
		Role:      teams.Role(m.Role),
		Status:    teams.Status(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

type Invitation struct {
	ID        int `gorm:"primaryKey"`
	Token     string
	Email     string
	ToUserID  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (Invitation) TableName() string {
	return "invitations"
}

func newInvitation(inv teams.Invitation) Invitation {
	return Invitation{
		ID:        inv.ID,
		Token:     inv.Token,
		Email:     inv.Email,
		ToUserID:  inv.ToUserID,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

func (inv Invitation) format() teams.Invitation {
	return teams.Invitation{
		ID:        inv.ID,
		Token:     inv.Token,
		Email:     inv.Email,
		ToUserID:  inv.ToUserID,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}
