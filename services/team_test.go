package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/inmem"
	"github.com/bobinette/teams/log"
	"github.com/bobinette/teams/notify"
)

type fixture struct {
	repos       Repositories
	teams       *TeamService
	memberships *MembershipService
	recorder    *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	store := inmem.NewStore()
	repos := Repositories{
		Teams:       inmem.NewTeamRepository(store),
		Memberships: inmem.NewMembershipRepository(store),
		Invitations: inmem.NewInvitationRepository(store),
		Transactor:  store,
	}
	return newFixtureWith(t, repos)
}

func newFixtureWith(t *testing.T, repos Repositories) *fixture {
	recorder := &notify.Recorder{}
	blacklist := teams.NewNameBlacklist("admin", "teams")

	return &fixture{
		repos:       repos,
		teams:       NewTeamService(repos, blacklist, recorder, log.Discard()),
		memberships: NewMembershipService(repos, recorder, log.Discard(), 0),
		recorder:    recorder,
	}
}

func (f *fixture) createTeam(t *testing.T, creatorID int, scope teams.Scope) teams.Team {
	team, err := f.teams.Create(context.Background(), creatorID, teams.Team{Name: "Pizza", Scope: scope, PublicVisible: true})
	require.NoError(t, err, "create should not fail")
	return team
}

// insert stores a membership directly, bypassing the flows.
func (f *fixture) insert(t *testing.T, teamID, userID int, role teams.Role, status teams.Status) teams.Membership {
	m := teams.Membership{TeamID: teamID, UserID: userID, Role: role, Status: status}
	require.NoError(t, f.repos.Memberships.Insert(context.Background(), &m))
	return m
}

func (f *fixture) get(t *testing.T, id int) teams.Membership {
	m, err := f.repos.Memberships.Get(context.Background(), id)
	require.NoError(t, err)
	return m
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team := f.createTeam(t, 1, teams.ScopeApplication)
	assert.NotEqual(t, 0, team.ID)
	assert.Equal(t, 1, team.CreatorID)

	role, ok, err := f.teams.RoleFor(ctx, team.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok, "creator should have a role")
	assert.Equal(t, teams.RoleOwner, role)

	onTeam, err := f.teams.IsOnTeam(ctx, team.ID, 1)
	require.NoError(t, err)
	assert.True(t, onTeam, "creator should be on the team")

	status, ok, err := f.teams.StatusFor(ctx, team.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, teams.StatusAccepted, status)

	owners, err := f.teams.Owners(ctx, team.ID)
	require.NoError(t, err)
	if assert.Len(t, owners, 1) {
		assert.Equal(t, 1, owners[0].UserID)
	}
}

func TestCreateReservedName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"admin", "Admin", " TEAMS "} {
		_, err := f.teams.Create(ctx, 1, teams.Team{Name: name})
		if assert.Error(t, err, "%s should be reserved", name) {
			errors.AssertCode(t, err, 400)
			assert.Equal(t, "You can not create a team by this name", err.Error())
		}
	}

	list, err := f.teams.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, list, "no team should have been stored")
}

type failingInsert struct {
	teams.MembershipRepository
}

func (failingInsert) Insert(context.Context, *teams.Membership) error {
	return errors.New("disk full")
}

func TestCreateIsAtomic(t *testing.T) {
	store := inmem.NewStore()
	f := newFixtureWith(t, Repositories{
		Teams:       inmem.NewTeamRepository(store),
		Memberships: failingInsert{inmem.NewMembershipRepository(store)},
		Invitations: inmem.NewInvitationRepository(store),
		Transactor:  store,
	})

	_, err := f.teams.Create(context.Background(), 1, teams.Team{Name: "Pizza"})
	require.Error(t, err)

	list, err := f.teams.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, list, "team should not be stored without its owner")
}

func TestAddUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeInvitation)
	f.recorder.Reset()

	first, err := f.teams.AddUser(ctx, team.ID, 2, teams.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, teams.StatusInvited, first.Status)
	assert.Equal(t, teams.RoleManager, first.Role)

	second, err := f.teams.AddUser(ctx, team.ID, 2, teams.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "the same membership should be returned")
	assert.Equal(t, teams.RoleManager, second.Role, "an existing membership should not be altered")

	list, err := f.repos.Memberships.List(ctx, team.ID, teams.Filter{UserID: 2})
	require.NoError(t, err)
	assert.Len(t, list, 1, "no duplicate should be stored")

	assert.Equal(t, []teams.EventName{teams.EventAddedMember, teams.EventAddedMember}, f.recorder.Names())
}

func TestAddUserConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeInvitation)

	ids := make([]int, 10)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := f.teams.AddUser(ctx, team.ID, 2, teams.RoleMember)
			assert.NoError(t, err)
			ids[i] = m.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "every call should return the same membership")
	}

	list, err := f.repos.Memberships.List(ctx, team.ID, teams.Filter{UserID: 2})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// staleRead misses the first ForUser, like a read racing a concurrent
// insert.
type staleRead struct {
	teams.MembershipRepository
	once sync.Once
}

func (r *staleRead) ForUser(ctx context.Context, teamID, userID int) (teams.Membership, error) {
	stale := false
	r.once.Do(func() { stale = true })
	if stale {
		return teams.Membership{}, nil
	}
	return r.MembershipRepository.ForUser(ctx, teamID, userID)
}

func TestAddUserDuplicateResolved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeInvitation)
	existing := f.insert(t, team.ID, 2, teams.RoleMember, teams.StatusAccepted)

	repos := f.repos
	repos.Memberships = &staleRead{MembershipRepository: f.repos.Memberships}
	svc := NewTeamService(repos, nil, f.recorder, log.Discard())

	m, err := svc.AddUser(ctx, team.ID, 2, teams.RoleOwner)
	require.NoError(t, err, "the duplicate should be resolved")
	assert.Equal(t, existing.ID, m.ID)
	assert.Equal(t, teams.StatusAccepted, m.Status)
}

func TestApplyDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeApplication)
	existing := f.insert(t, team.ID, 2, teams.RoleMember, teams.StatusApplied)

	repos := f.repos
	repos.Memberships = &staleRead{MembershipRepository: f.repos.Memberships}
	svc := NewTeamService(repos, nil, f.recorder, log.Discard())

	_, err := svc.Apply(ctx, team.ID, 2)
	errors.AssertCode(t, err, 403)

	applicants, err := f.teams.Applicants(ctx, team.ID)
	require.NoError(t, err)
	if assert.Len(t, applicants, 1) {
		assert.Equal(t, existing.ID, applicants[0].ID)
	}
}

func TestPredicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeApplication)

	f.insert(t, team.ID, 2, teams.RoleManager, teams.StatusAccepted)
	f.insert(t, team.ID, 3, teams.RoleMember, teams.StatusAutoJoined)
	f.insert(t, team.ID, 4, teams.RoleManager, teams.StatusInvited)
	f.insert(t, team.ID, 5, teams.RoleManager, teams.StatusRejected)

	type predicate func(context.Context, int, int) (bool, error)
	preds := map[string]predicate{
		"owner":            f.teams.IsOwner,
		"manager":          f.teams.IsManager,
		"owner or manager": f.teams.IsOwnerOrManager,
		"member":           f.teams.IsMember,
		"on team":          f.teams.IsOnTeam,
	}

	tts := map[int]map[string]bool{
		1: {"owner": true, "owner or manager": true, "on team": true},
		2: {"manager": true, "owner or manager": true, "on team": true},
		3: {"member": true, "on team": true},
		4: {},
		5: {},
		6: {},
	}

	for userID, expected := range tts {
		for name, pred := range preds {
			got, err := pred(ctx, team.ID, userID)
			require.NoError(t, err)
			assert.Equal(t, expected[name], got, "user %d - %s", userID, name)
		}
	}

	// Invited managers already have a role, rejected ones do not
	role, ok, err := f.teams.RoleFor(ctx, team.ID, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, teams.RoleManager, role)

	_, ok, err = f.teams.RoleFor(ctx, team.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok, "a rejected membership gives no role")

	status, ok, err := f.teams.StatusFor(ctx, team.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok, "a rejected membership still has a status")
	assert.Equal(t, teams.StatusRejected, status)

	_, ok, err = f.teams.StatusFor(ctx, team.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeApplication)

	applied := f.insert(t, team.ID, 2, teams.RoleMember, teams.StatusApplied)
	invited := f.insert(t, team.ID, 3, teams.RoleMember, teams.StatusInvited)
	declined := f.insert(t, team.ID, 4, teams.RoleMember, teams.StatusDeclined)
	rejected := f.insert(t, team.ID, 5, teams.RoleMember, teams.StatusRejected)
	member := f.insert(t, team.ID, 6, teams.RoleMember, teams.StatusAutoJoined)
	manager := f.insert(t, team.ID, 7, teams.RoleManager, teams.StatusAccepted)
	owner, err := f.teams.ForUser(ctx, team.ID, 1)
	require.NoError(t, err)

	type query func(context.Context, int) ([]teams.Membership, error)
	tts := map[string]struct {
		query    query
		expected []teams.Membership
	}{
		"applicants":  {f.teams.Applicants, []teams.Membership{applied}},
		"invitees":    {f.teams.Invitees, []teams.Membership{invited}},
		"declines":    {f.teams.Declines, []teams.Membership{declined}},
		"rejections":  {f.teams.Rejections, []teams.Membership{rejected}},
		"acceptances": {f.teams.Acceptances, []teams.Membership{owner, member, manager}},
		"members":     {f.teams.Members, []teams.Membership{member}},
		"managers":    {f.teams.Managers, []teams.Membership{manager}},
		"owners":      {f.teams.Owners, []teams.Membership{owner}},
	}

	for name, tt := range tts {
		list, err := tt.query(ctx, team.ID)
		require.NoError(t, err, name)

		ids := make([]int, len(list))
		for i, m := range list {
			ids[i] = m.ID
		}
		expected := make([]int, len(tt.expected))
		for i, m := range tt.expected {
			expected[i] = m.ID
		}
		assert.Equal(t, expected, ids, name)
	}
}

func TestUpdateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeApplication)
	f.insert(t, team.ID, 2, teams.RoleManager, teams.StatusAccepted)
	f.insert(t, team.ID, 3, teams.RoleMember, teams.StatusAccepted)

	update := teams.Team{ID: team.ID, Name: "Pizza party", Scope: teams.ScopeOpen, PublicVisible: false}

	_, err := f.teams.Update(ctx, 3, update)
	errors.AssertCode(t, err, 403)

	updated, err := f.teams.Update(ctx, 2, update)
	require.NoError(t, err)
	assert.Equal(t, "Pizza party", updated.Name)
	assert.Equal(t, teams.ScopeOpen, updated.Scope)
	assert.False(t, updated.PublicVisible)
	assert.Equal(t, 1, updated.CreatorID, "creator should not change")

	update.Name = "Admin"
	_, err = f.teams.Update(ctx, 1, update)
	errors.AssertCode(t, err, 400)

	_, err = f.teams.Update(ctx, 1, teams.Team{ID: 1000})
	errors.AssertCode(t, err, 404)

	public, err := f.teams.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, public, "team is not public anymore")
}

func TestDeleteTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeInvitation)
	f.insert(t, team.ID, 2, teams.RoleManager, teams.StatusAccepted)

	invited, inv, err := f.memberships.Invite(ctx, 1, team.ID, "someone@example.com", teams.RoleMember)
	require.NoError(t, err)

	errors.AssertCode(t, f.teams.Delete(ctx, 2, team.ID), 403)
	errors.AssertCode(t, f.teams.Delete(ctx, 1, 1000), 404)

	require.NoError(t, f.teams.Delete(ctx, 1, team.ID))

	_, err = f.teams.Get(ctx, team.ID)
	errors.AssertCode(t, err, 404)

	list, err := f.repos.Memberships.List(ctx, team.ID, teams.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list, "memberships should be deleted with the team")

	assert.Equal(t, 0, f.get(t, invited.ID).ID)
	stored, err := f.repos.Invitations.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ID, "invitations should be deleted with the team")
}

func TestJoinPolicyFlows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.createTeam(t, 1, teams.ScopeOpen)
	application := f.createTeam(t, 1, teams.ScopeApplication)
	invitation := f.createTeam(t, 1, teams.ScopeInvitation)

	// Applications only on application teams
	_, err := f.teams.Apply(ctx, open.ID, 2)
	errors.AssertCode(t, err, 403)
	_, err = f.teams.Apply(ctx, invitation.ID, 2)
	errors.AssertCode(t, err, 403)

	m, err := f.teams.Apply(ctx, application.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, teams.StatusApplied, m.Status)
	assert.Equal(t, teams.RoleMember, m.Role)

	_, err = f.teams.Apply(ctx, application.ID, 2)
	errors.AssertCode(t, err, 403)

	// Anyone joins an open team
	canJoin, err := f.teams.CanJoin(ctx, open.ID, 3)
	require.NoError(t, err)
	assert.True(t, canJoin)

	m, err = f.teams.Join(ctx, open.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, teams.StatusAutoJoined, m.Status)
	assert.Equal(t, teams.RoleMember, m.Role)

	// Invitees join any team, keeping their role
	_, err = f.teams.Join(ctx, invitation.ID, 4)
	errors.AssertCode(t, err, 403)

	invited, err := f.teams.AddUser(ctx, invitation.ID, 4, teams.RoleManager)
	require.NoError(t, err)

	f.recorder.Reset()
	m, err = f.teams.Join(ctx, invitation.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, invited.ID, m.ID)
	assert.Equal(t, teams.StatusAutoJoined, m.Status)
	assert.Equal(t, teams.RoleManager, m.Role)
	assert.Equal(t, []teams.EventName{teams.EventJoinedTeam}, f.recorder.Names())

	// Already on the team
	_, err = f.teams.Join(ctx, invitation.ID, 4)
	errors.AssertCode(t, err, 403)

	// Unknown team
	_, err = f.teams.CanApply(ctx, 1000, 2)
	errors.AssertCode(t, err, 404)
}

func TestLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeOpen)
	member := f.insert(t, team.ID, 2, teams.RoleMember, teams.StatusAccepted)
	f.insert(t, team.ID, 3, teams.RoleManager, teams.StatusAccepted)

	tts := map[string]struct {
		userID   int
		canLeave bool
	}{
		"member":        {2, true},
		"manager":       {3, false},
		"owner":         {1, false},
		"no membership": {4, false},
	}
	for name, tt := range tts {
		canLeave, err := f.teams.CanLeave(ctx, team.ID, tt.userID)
		require.NoError(t, err, name)
		assert.Equal(t, tt.canLeave, canLeave, name)
	}

	errors.AssertCode(t, f.teams.Leave(ctx, team.ID, 3), 403)
	errors.AssertCode(t, f.teams.Leave(ctx, team.ID, 1), 403)

	f.recorder.Reset()
	require.NoError(t, f.teams.Leave(ctx, team.ID, 2))
	assert.Equal(t, 0, f.get(t, member.ID).ID)
	assert.Equal(t, []teams.EventName{teams.EventRemovedMembership}, f.recorder.Names())
}

func TestCreatedAtOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team := f.createTeam(t, 1, teams.ScopeApplication)

	var last time.Time
	for userID := 2; userID < 6; userID++ {
		_, err := f.teams.Apply(ctx, team.ID, userID)
		require.NoError(t, err)
	}

	applicants, err := f.teams.Applicants(ctx, team.ID)
	require.NoError(t, err)
	for i, m := range applicants {
		assert.False(t, m.CreatedAt.Before(last), "applicants should be ordered by creation")
		assert.Equal(t, i+2, m.UserID)
		last = m.CreatedAt
	}
}
