package inmem

import (
	"testing"

	"github.com/bobinette/teams/testutil"
)

func TestTeamRepository(t *testing.T) {
	testutil.TestTeamRepository(t, NewTeamRepository(NewStore()))
}

func TestMembershipRepository(t *testing.T) {
	testutil.TestMembershipRepository(t, NewMembershipRepository(NewStore()))
}

func TestConcurrentInsert(t *testing.T) {
	testutil.TestConcurrentInsert(t, NewMembershipRepository(NewStore()))
}

func TestInvitationRepository(t *testing.T) {
	testutil.TestInvitationRepository(t, NewInvitationRepository(NewStore()))
}

func TestTransactor(t *testing.T) {
	store := NewStore()
	testutil.TestTransactor(t, store, NewTeamRepository(store), NewMembershipRepository(store))
}
