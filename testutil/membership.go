package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
)

// TestMembershipRepository runs the behaviour every MembershipRepository
// must have. The repository should be empty.
func TestMembershipRepository(t *testing.T, repo teams.MembershipRepository) {
	ctx := context.Background()

	owner := &teams.Membership{TeamID: 1, UserID: 1, Role: teams.RoleOwner, Status: teams.StatusAccepted}
	applicant := &teams.Membership{TeamID: 1, UserID: 2, Role: teams.RoleMember, Status: teams.StatusApplied}
	invite := &teams.Membership{TeamID: 1, InviteID: 5, Role: teams.RoleManager, Status: teams.StatusInvited}
	elsewhere := &teams.Membership{TeamID: 2, UserID: 1, Role: teams.RoleMember, Status: teams.StatusAutoJoined}

	for _, m := range []*teams.Membership{owner, applicant, invite, elsewhere} {
		err := repo.Insert(ctx, m)
		require.NoError(t, err, "insert %s should not fail", m)
		require.NotEqual(t, 0, m.ID, "id should be set by insert")
		assert.False(t, m.CreatedAt.IsZero(), "creation date should be set by insert")
	}

	// Get
	testGetMembership(t, repo, owner.ID, *owner, "get owner")
	testGetMembership(t, repo, invite.ID, *invite, "get invite")
	testGetMembership(t, repo, 1000, teams.Membership{}, "get missing")

	// ForUser and ForInvite
	m, err := repo.ForUser(ctx, 1, 1)
	require.NoError(t, err)
	assertMembership(t, *owner, m, "user 1 in team 1")

	m, err = repo.ForUser(ctx, 2, 1)
	require.NoError(t, err)
	assertMembership(t, *elsewhere, m, "user 1 in team 2")

	m, err = repo.ForUser(ctx, 1, 3)
	require.NoError(t, err)
	assertMembership(t, teams.Membership{}, m, "user 3 in team 1")

	m, err = repo.ForUser(ctx, 1, 0)
	require.NoError(t, err)
	assertMembership(t, teams.Membership{}, m, "no user never matches an invitation")

	m, err = repo.ForInvite(ctx, 5)
	require.NoError(t, err)
	assertMembership(t, *invite, m, "invite 5")

	// Uniqueness of (team, user, invite)
	tts := map[string]teams.Membership{
		"same user":   {TeamID: 1, UserID: 1, Status: teams.StatusApplied},
		"same invite": {TeamID: 1, InviteID: 5, Status: teams.StatusInvited},
	}
	for name, dup := range tts {
		dup := dup
		err := repo.Insert(ctx, &dup)
		if assert.Error(t, err, "%s - insert should fail", name) {
			assert.True(t, errors.Is(err, teams.ErrDuplicate), "%s - error should be ErrDuplicate, got %v", name, err)
		}
	}

	// List, ordered by creation
	testListMemberships(t, repo, 1, teams.Filter{}, []teams.Membership{*owner, *applicant, *invite}, "all of team 1")
	testListMemberships(t, repo, 1, teams.Filter{Statuses: []teams.Status{teams.StatusApplied}}, []teams.Membership{*applicant}, "applicants")
	testListMemberships(t, repo, 1, teams.Filter{Roles: []teams.Role{teams.RoleOwner, teams.RoleManager}}, []teams.Membership{*owner, *invite}, "admins")
	testListMemberships(t, repo, 1, teams.Filter{UserID: 2}, []teams.Membership{*applicant}, "user 2")
	testListMemberships(t, repo, 3, teams.Filter{}, []teams.Membership{}, "empty team")
	testListMemberships(t, repo, 1, teams.Filter{Roles: []teams.Role{teams.RoleOwner}, Lock: true}, []teams.Membership{*owner}, "locked owners")

	// Update that applies
	updated, ok, err := repo.Update(ctx, applicant.ID, func(m *teams.Membership) bool {
		if m.Status != teams.StatusApplied {
			return false
		}
		m.Status = teams.StatusAccepted
		return true
	})
	require.NoError(t, err, "update should not fail")
	assert.True(t, ok, "update should be applied")
	assert.Equal(t, teams.StatusAccepted, updated.Status)
	applicant.Status = teams.StatusAccepted
	testGetMembership(t, repo, applicant.ID, *applicant, "get after update")

	// Update that does not apply
	updated, ok, err = repo.Update(ctx, applicant.ID, func(m *teams.Membership) bool {
		m.Role = teams.RoleOwner
		return false
	})
	require.NoError(t, err, "update should not fail")
	assert.False(t, ok, "update should not be applied")
	assert.Equal(t, teams.RoleMember, updated.Role)
	testGetMembership(t, repo, applicant.ID, *applicant, "get after refused update")

	// Update of a missing membership
	updated, ok, err = repo.Update(ctx, 1000, func(m *teams.Membership) bool { return true })
	require.NoError(t, err, "update of a missing membership should not fail")
	assert.False(t, ok)
	assert.Equal(t, 0, updated.ID)

	// Concurrent updates: only one promotion goes through
	var applied int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.Update(ctx, applicant.ID, func(m *teams.Membership) bool {
				if m.Role != teams.RoleMember {
					return false
				}
				m.Role = teams.RoleManager
				return true
			})
			assert.NoError(t, err, "concurrent update should not fail")
			if ok {
				atomic.AddInt32(&applied, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), applied, "exactly one concurrent update should be applied")

	// Delete
	require.NoError(t, repo.Delete(ctx, invite.ID), "delete should not fail")
	testGetMembership(t, repo, invite.ID, teams.Membership{}, "get after delete")
	m, err = repo.ForInvite(ctx, 5)
	require.NoError(t, err)
	assertMembership(t, teams.Membership{}, m, "invite after delete")
	assert.NoError(t, repo.Delete(ctx, invite.ID), "delete of a missing membership should not fail")

	// The invite slot is free again
	again := &teams.Membership{TeamID: 1, InviteID: 5, Status: teams.StatusInvited}
	assert.NoError(t, repo.Insert(ctx, again), "insert after delete should not fail")
}

// TestConcurrentInsert checks that concurrent inserts for the same user and
// team store only one membership.
func TestConcurrentInsert(t *testing.T, repo teams.MembershipRepository) {
	ctx := context.Background()

	var inserted, duplicates int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Insert(ctx, &teams.Membership{TeamID: 42, UserID: 7, Status: teams.StatusInvited})
			switch {
			case err == nil:
				atomic.AddInt32(&inserted, 1)
			case errors.Is(err, teams.ErrDuplicate):
				atomic.AddInt32(&duplicates, 1)
			default:
				assert.NoError(t, err, "insert should only fail with ErrDuplicate")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inserted, "only one insert should succeed")
	assert.Equal(t, int32(7), duplicates, "other inserts should be duplicates")

	list, err := repo.List(ctx, 42, teams.Filter{UserID: 7})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testGetMembership(t *testing.T, repo teams.MembershipRepository, id int, expected teams.Membership, name string) {
	retrieved, err := repo.Get(context.Background(), id)
	if assert.NoError(t, err, "%s - get should not fail", name) {
		assertMembership(t, expected, retrieved, name)
	}
}

func testListMemberships(t *testing.T, repo teams.MembershipRepository, teamID int, filter teams.Filter, expected []teams.Membership, name string) {
	retrieved, err := repo.List(context.Background(), teamID, filter)
	if !assert.NoError(t, err, "%s - list should not fail", name) {
		return
	}

	if assert.Equal(t, len(expected), len(retrieved), "%s - incorrect number of memberships", name) {
		for i, m := range expected {
			assertMembership(t, m, retrieved[i], name)
		}
	}
}

func assertMembership(t *testing.T, expected, actual teams.Membership, name string) {
	assert.Equal(t, expected.ID, actual.ID, "%s - ids should be equal", name)
	assert.Equal(t, expected.TeamID, actual.TeamID, "%s - teams should be equal", name)
	assert.Equal(t, expected.UserID, actual.UserID, "%s - users should be equal", name)
	assert.Equal(t, expected.InviteID, actual.InviteID, "%s - invites should be equal", name)
	assert.Equal(t, expected.Role, actual.Role, "%s - roles should be equal", name)
	assert.Equal(t, expected.Status, actual.Status, "%s - statuses should be equal", name)
}
