package bolt

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobinette/teams/testutil"
)

func createDriver(t *testing.T) (*Driver, func()) {
	tmpFile, err := os.CreateTemp("", "teams-*.db")
	if err != nil {
		t.Fatal("could not create tmp file:", err)
	}
	filename := tmpFile.Name()
	tmpFile.Close()

	driver := &Driver{}
	if err := driver.Open(filename); err != nil {
		os.Remove(filename)
		t.Fatalf("could not open bolt on file %s: %v", filename, err)
	}

	return driver, func() {
		driver.Close()
		os.Remove(filename)
	}
}

func TestTeamRepository(t *testing.T) {
	driver, f := createDriver(t)
	defer f()

	testutil.TestTeamRepository(t, &TeamRepository{Driver: driver})
}

func TestMembershipRepository(t *testing.T) {
	driver, f := createDriver(t)
	defer f()

	testutil.TestMembershipRepository(t, &MembershipRepository{Driver: driver})
}

func TestConcurrentInsert(t *testing.T) {
	driver, f := createDriver(t)
	defer f()

	testutil.TestConcurrentInsert(t, &MembershipRepository{Driver: driver})
}

func TestInvitationRepository(t *testing.T) {
	driver, f := createDriver(t)
	defer f()

	testutil.TestInvitationRepository(t, &InvitationRepository{Driver: driver})
}

func TestTransactor(t *testing.T) {
	driver, f := createDriver(t)
	defer f()

	testutil.TestTransactor(t, driver, &TeamRepository{Driver: driver}, &MembershipRepository{Driver: driver})
}

func TestOpenTwice(t *testing.T) {
	driver, f := createDriver(t)
	defer f()

	require.Error(t, driver.Open("whatever.db"), "an open driver cannot be opened again")
}
