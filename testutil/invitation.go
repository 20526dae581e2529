package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/teams"
)

// TestInvitationRepository runs the behaviour every InvitationRepository
// must have. The repository should be empty.
func TestInvitationRepository(t *testing.T, repo teams.InvitationRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	stale := &teams.Invitation{Token: "stale", Email: "stale@example.com", ExpiresAt: now.Add(-time.Hour)}
	fresh := &teams.Invitation{Token: "fresh", Email: "fresh@example.com", ExpiresAt: now.Add(time.Hour)}
	claimed := &teams.Invitation{Token: "claimed", Email: "claimed@example.com", ToUserID: 3, ExpiresAt: now.Add(-time.Hour)}

	for _, inv := range []*teams.Invitation{stale, fresh, claimed} {
		require.NoError(t, repo.Upsert(ctx, inv), "insert %s should not fail", inv.Token)
		require.NotEqual(t, 0, inv.ID, "id should be set by insert")
		assert.False(t, inv.CreatedAt.IsZero(), "creation date should be set by insert")
	}

	// Get and GetByToken
	inv, err := repo.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assertInvitation(t, *fresh, inv, "get fresh")

	inv, err = repo.GetByToken(ctx, "stale")
	require.NoError(t, err)
	assertInvitation(t, *stale, inv, "get stale by token")

	inv, err = repo.GetByToken(ctx, "unknown")
	require.NoError(t, err)
	assertInvitation(t, teams.Invitation{}, inv, "unknown token")

	// Expired ignores fresh and claimed invitations
	expired, err := repo.Expired(ctx, now)
	require.NoError(t, err)
	if assert.Len(t, expired, 1, "only one invitation is expired and unclaimed") {
		assertInvitation(t, *stale, expired[0], "expired")
	}

	// Resend: push the expiry
	stale.ExpiresAt = now.Add(2 * time.Hour)
	id := stale.ID
	require.NoError(t, repo.Upsert(ctx, stale), "update should not fail")
	assert.Equal(t, id, stale.ID, "id should not change")

	expired, err = repo.Expired(ctx, now)
	require.NoError(t, err)
	assert.Len(t, expired, 0, "no invitation should be expired after resend")

	// Delete
	require.NoError(t, repo.Delete(ctx, stale.ID), "delete should not fail")
	inv, err = repo.Get(ctx, stale.ID)
	require.NoError(t, err)
	assertInvitation(t, teams.Invitation{}, inv, "get after delete")
}

func assertInvitation(t *testing.T, expected, actual teams.Invitation, name string) {
	assert.Equal(t, expected.ID, actual.ID, "%s - ids should be equal", name)
	assert.Equal(t, expected.Token, actual.Token, "%s - tokens should be equal", name)
	assert.Equal(t, expected.Email, actual.Email, "%s - emails should be equal", name)
	assert.Equal(t, expected.ToUserID, actual.ToUserID, "%s - users should be equal", name)
	assert.WithinDuration(t, expected.ExpiresAt, actual.ExpiresAt, time.Second, "%s - expiry should be equal", name)
}
