package testutil

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/teams"
)

// TestTeamRepository runs the behaviour every TeamRepository must have. The
// repository should be empty.
func TestTeamRepository(t *testing.T, repo teams.TeamRepository) {
	ctx := context.Background()

	list := []*teams.Team{
		{
			Name:          "Pizza",
			Description:   "Margherita only",
			Scope:         teams.ScopeOpen,
			PublicVisible: true,
			CreatorID:     1,
		},
		{
			Name:          "Yolo",
			Scope:         teams.ScopeInvitation,
			PublicVisible: false,
			CreatorID:     2,
		},
		{
			Name:          "Apply here",
			Scope:         teams.ScopeApplication,
			PublicVisible: true,
			CreatorID:     1,
		},
	}

	// Insert all the teams
	ids := make([]int, len(list))
	for i, team := range list {
		err := repo.Upsert(ctx, team)
		require.NoError(t, err, "insert %s should not fail", team.Name)
		require.NotEqual(t, 0, team.ID, "id should be set by insert")
		assert.False(t, team.CreatedAt.IsZero(), "creation date should be set by insert")
		ids[i] = team.ID
	}
	sort.Ints(ids)
	for i := 0; i < len(ids)-1; i++ {
		require.NotEqual(t, ids[i], ids[i+1], "all ids should be different")
	}

	// Get a team by its id
	for _, team := range list {
		testGetTeam(t, repo, team.ID, *team, "get "+team.Name)
	}

	// Get a team that does not exist
	testGetTeam(t, repo, 1000, teams.Team{}, "team does not exist")

	// List
	testListTeams(t, repo, false, []teams.Team{*list[0], *list[1], *list[2]}, "list all")
	testListTeams(t, repo, true, []teams.Team{*list[0], *list[2]}, "list public")

	// Update a team
	list[1].Name = "Yolo pizza"
	list[1].PublicVisible = true
	list[1].Scope = teams.ScopeOpen
	id := list[1].ID
	err := repo.Upsert(ctx, list[1])
	require.NoError(t, err, "update should not fail")
	assert.Equal(t, id, list[1].ID, "id should not change")
	testGetTeam(t, repo, id, *list[1], "get after update")
	testListTeams(t, repo, true, []teams.Team{*list[0], *list[1], *list[2]}, "list public after update")

	// Delete a team
	err = repo.Delete(ctx, list[0].ID)
	require.NoError(t, err, "delete should not fail")
	testGetTeam(t, repo, list[0].ID, teams.Team{}, "get after delete")
	testListTeams(t, repo, false, []teams.Team{*list[1], *list[2]}, "list after delete")

	// Deleting twice is not an error
	assert.NoError(t, repo.Delete(ctx, list[0].ID), "delete of a missing team should not fail")
}

func testGetTeam(t *testing.T, repo teams.TeamRepository, id int, expected teams.Team, name string) {
	retrieved, err := repo.Get(context.Background(), id)
	if assert.NoError(t, err, "%s - get should not fail", name) {
		assertTeam(t, expected, retrieved, name)
	}
}

func testListTeams(t *testing.T, repo teams.TeamRepository, publicOnly bool, expected []teams.Team, name string) {
	retrieved, err := repo.List(context.Background(), publicOnly)
	if !assert.NoError(t, err, "%s - list should not fail", name) {
		return
	}

	if assert.Equal(t, len(expected), len(retrieved), "%s - incorrect number of teams", name) {
		for i, team := range expected {
			assertTeam(t, team, retrieved[i], name)
		}
	}
}

func assertTeam(t *testing.T, expected, actual teams.Team, name string) {
	assert.Equal(t, expected.ID, actual.ID, "%s - ids should be equal", name)
	assert.Equal(t, expected.Name, actual.Name, "%s - names should be equal", name)
	assert.Equal(t, expected.Description, actual.Description, "%s - descriptions should be equal", name)
	assert.Equal(t, expected.Scope, actual.Scope, "%s - scopes should be equal", name)
	assert.Equal(t, expected.PublicVisible, actual.PublicVisible, "%s - visibility should be equal", name)
	assert.Equal(t, expected.CreatorID, actual.CreatorID, "%s - creators should be equal", name)
}
