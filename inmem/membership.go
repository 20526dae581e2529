package inmem

import (
	"context"
	"sort"

	"github.com/bobinette/teams"
)

type MembershipRepository struct {
	store *Store
}

func NewMembershipRepository(store *Store) *MembershipRepository {
	return &MembershipRepository{store: store}
}

func (r *MembershipRepository) Get(ctx context.Context, id int) (teams.Membership, error) {
	defer r.store.lock(ctx)()

	return r.store.memberships[id], nil
}

func (r *MembershipRepository) ForUser(ctx context.Context, teamID, userID int) (teams.Membership, error) {
	if userID == 0 {
		return teams.Membership{}, nil
	}

	defer r.store.lock(ctx)()

	found := teams.Membership{}
	for _, m := range r.store.memberships {
		if m.TeamID == teamID && m.UserID == userID && (found.ID == 0 || m.ID < found.ID) {
			found = m
		}
	}
	return found, nil
}

func (r *MembershipRepository) ForInvite(ctx context.Context, inviteID int) (teams.Membership, error) {
	defer r.store.lock(ctx)()

	for _, m := range r.store.memberships {
		if m.InviteID == inviteID {
			return m, nil
		}
	}
	return teams.Membership{}, nil
}

func (r *MembershipRepository) List(ctx context.Context, teamID int, filter teams.Filter) ([]teams.Membership, error) {
	defer r.store.lock(ctx)()

	list := make([]teams.Membership, 0)
	for _, m := range r.store.memberships {
		if m.TeamID == teamID && filter.Match(m) {
			list = append(list, m)
		}
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *MembershipRepository) Insert(ctx context.Context, m *teams.Membership) error {
	defer r.store.lock(ctx)()

	for _, existing := range r.store.memberships {
		if existing.TeamID == m.TeamID && existing.UserID == m.UserID && existing.InviteID == m.InviteID {
			return teams.ErrDuplicate
		}
	}

	r.store.membershipSeq++
	m.ID = r.store.membershipSeq
	m.CreatedAt = r.store.now()
	r.store.memberships[m.ID] = *m
	return nil
}

func (r *MembershipRepository) Update(ctx context.Context, id int, fn func(m *teams.Membership) bool) (teams.Membership, bool, error) {
	defer r.store.lock(ctx)()

	m, ok := r.store.memberships[id]
	if !ok {
		return teams.Membership{}, false, nil
	}

	updated := m
	if !fn(&updated) {
		return m, false, nil
	}

	// Identity and creation date never change
	updated.ID = m.ID
	updated.TeamID = m.TeamID
	updated.CreatedAt = m.CreatedAt

	for _, existing := range r.store.memberships {
		if existing.ID != id && existing.TeamID == updated.TeamID && existing.UserID == updated.UserID && existing.InviteID == updated.InviteID {
			return m, false, teams.ErrDuplicate
		}
	}

	r.store.memberships[id] = updated
	return updated, true, nil
}

func (r *MembershipRepository) Delete(ctx context.Context, id int) error {
	defer r.store.lock(ctx)()

	delete(r.store.memberships, id)
	return nil
}
