package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinPolicy(t *testing.T) {
	open := Team{ID: 1, Scope: ScopeOpen}
	application := Team{ID: 1, Scope: ScopeApplication}
	invitation := Team{ID: 1, Scope: ScopeInvitation}

	none := Membership{}
	invited := Membership{ID: 3, TeamID: 1, UserID: 2, Status: StatusInvited}
	declined := Membership{ID: 3, TeamID: 1, UserID: 2, Status: StatusDeclined}
	rejected := Membership{ID: 3, TeamID: 1, UserID: 2, Status: StatusRejected}
	member := Membership{ID: 3, TeamID: 1, UserID: 2, Status: StatusAccepted}

	tts := map[string]struct {
		team       Team
		membership Membership
		canApply   bool
		canJoin    bool
	}{
		"open, no membership":           {open, none, false, true},
		"open, invited":                 {open, invited, false, true},
		"open, declined":                {open, declined, false, false},
		"open, member":                  {open, member, false, false},
		"application, no membership":    {application, none, true, false},
		"application, invited":          {application, invited, false, true},
		"application, declined":         {application, declined, false, false},
		"application, rejected":         {application, rejected, false, false},
		"application, member":           {application, member, false, false},
		"invitation, no membership":     {invitation, none, false, false},
		"invitation, invited":           {invitation, invited, false, true},
		"invitation, declined":          {invitation, declined, false, false},
		"invitation, already on a team": {invitation, member, false, false},
	}

	for name, tt := range tts {
		assert.Equal(t, tt.canApply, CanApply(tt.team, tt.membership), "%s - can apply", name)
		assert.Equal(t, tt.canJoin, CanJoin(tt.team, tt.membership), "%s - can join", name)
	}
}

func TestCanLeave(t *testing.T) {
	team := Team{ID: 1}

	tts := map[string]struct {
		membership Membership
		canLeave   bool
	}{
		"no membership":    {Membership{}, false},
		"member":           {Membership{ID: 1, TeamID: 1, Role: RoleMember, Status: StatusAccepted}, true},
		"invited member":   {Membership{ID: 1, TeamID: 1, Role: RoleMember, Status: StatusInvited}, true},
		"manager":          {Membership{ID: 1, TeamID: 1, Role: RoleManager, Status: StatusAccepted}, false},
		"owner":            {Membership{ID: 1, TeamID: 1, Role: RoleOwner, Status: StatusAccepted}, false},
		"rejected member":  {Membership{ID: 1, TeamID: 1, Role: RoleMember, Status: StatusRejected}, false},
		"other team":       {Membership{ID: 1, TeamID: 2, Role: RoleMember, Status: StatusAccepted}, false},
		"auto joined user": {Membership{ID: 1, TeamID: 1, Role: RoleMember, Status: StatusAutoJoined}, true},
	}

	for name, tt := range tts {
		assert.Equal(t, tt.canLeave, CanLeave(team, tt.membership), name)
	}
}

func TestAutoJoins(t *testing.T) {
	assert.True(t, AutoJoins(Team{Scope: ScopeOpen}))
	assert.False(t, AutoJoins(Team{Scope: ScopeApplication}))
	assert.False(t, AutoJoins(Team{Scope: ScopeInvitation}))
}

func TestFilterMatch(t *testing.T) {
	m := Membership{ID: 1, TeamID: 1, UserID: 4, Role: RoleManager, Status: StatusAccepted}

	tts := map[string]struct {
		filter Filter
		match  bool
	}{
		"empty filter":      {Filter{}, true},
		"same user":         {Filter{UserID: 4}, true},
		"other user":        {Filter{UserID: 5}, false},
		"status in list":    {Filter{Statuses: []Status{StatusAccepted, StatusAutoJoined}}, true},
		"status not listed": {Filter{Statuses: []Status{StatusApplied}}, false},
		"role in list":      {Filter{Roles: []Role{RoleOwner, RoleManager}}, true},
		"role not listed":   {Filter{Roles: []Role{RoleMember}}, false},
		"all fields":        {Filter{UserID: 4, Statuses: []Status{StatusAccepted}, Roles: []Role{RoleManager}}, true},
	}

	for name, tt := range tts {
		assert.Equal(t, tt.match, tt.filter.Match(m), name)
	}
}
