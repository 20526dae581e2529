package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/bobinette/teams"
)

type txKey struct{}

// Store holds the teams, memberships and invitations of the in memory
// backend. All the repositories built from one Store share its lock, and
// Store.Do runs a function with the lock held, rolling the data back if
// the function fails.
type Store struct {
	mu sync.Mutex

	teams       map[int]teams.Team
	memberships map[int]teams.Membership
	invitations map[int]teams.Invitation

	teamSeq       int
	membershipSeq int
	invitationSeq int

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		teams:       make(map[int]teams.Team),
		memberships: make(map[int]teams.Membership),
		invitations: make(map[int]teams.Invitation),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	st, ok := ctx.Value(txKey{}).(*Store)
	return ok && st == s
}

// lock takes the store lock unless ctx comes from Store.Do, which already
// holds it.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	teams       map[int]teams.Team
	memberships map[int]teams.Membership
	invitations map[int]teams.Invitation

	teamSeq       int
	membershipSeq int
	invitationSeq int
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		teams:         make(map[int]teams.Team, len(s.teams)),
		memberships:   make(map[int]teams.Membership, len(s.memberships)),
		invitations:   make(map[int]teams.Invitation, len(s.invitations)),
		teamSeq:       s.teamSeq,
		membershipSeq: s.membershipSeq,
		invitationSeq: s.invitationSeq,
	}
	for id, t := range s.teams {
		snap.teams[id] = t
	}
	for id, m := range s.memberships {
		snap.memberships[id] = m
	}
	for id, inv := range s.invitations {
		snap.invitations[id] = inv
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.teams = snap.teams
	s.memberships = snap.memberships
	s.invitations = snap.invitations
	s.teamSeq = snap.teamSeq
	s.membershipSeq = snap.membershipSeq
	s.invitationSeq = snap.invitationSeq
}
