package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
)

// TestTransactor checks that the writes made inside Transactor.Do are all
// dropped when the function fails, and all kept otherwise.
func TestTransactor(t *testing.T, tx teams.Transactor, teamRepo teams.TeamRepository, membershipRepo teams.MembershipRepository) {
	ctx := context.Background()
	failure := errors.New("rollback please", errors.BadRequest())

	var team teams.Team
	var m teams.Membership
	err := tx.Do(ctx, func(ctx context.Context) error {
		team = teams.Team{Name: "Rolled back", CreatorID: 9}
		if err := teamRepo.Upsert(ctx, &team); err != nil {
			return err
		}

		m = teams.Membership{TeamID: team.ID, UserID: 9, Role: teams.RoleOwner, Status: teams.StatusAccepted}
		if err := membershipRepo.Insert(ctx, &m); err != nil {
			return err
		}

		// Reads inside the transaction see its writes
		read, err := membershipRepo.ForUser(ctx, team.ID, 9)
		if err != nil {
			return err
		}
		assert.Equal(t, m.ID, read.ID, "writes should be visible inside the transaction")

		return failure
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure), "the error of the function should be returned")

	retrieved, err := teamRepo.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, retrieved.ID, "team should be rolled back")

	membership, err := membershipRepo.ForUser(ctx, team.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, membership.ID, "membership should be rolled back")

	// Committed
	err = tx.Do(ctx, func(ctx context.Context) error {
		team = teams.Team{Name: "Committed", CreatorID: 9}
		if err := teamRepo.Upsert(ctx, &team); err != nil {
			return err
		}

		m = teams.Membership{TeamID: team.ID, UserID: 9, Role: teams.RoleOwner, Status: teams.StatusAccepted}
		return membershipRepo.Insert(ctx, &m)
	})
	require.NoError(t, err)

	retrieved, err = teamRepo.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Committed", retrieved.Name)

	membership, err = membershipRepo.ForUser(ctx, team.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, m.ID, membership.ID, "membership should be committed")
}
