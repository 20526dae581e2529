package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/bobinette/teams"
)

type InvitationRepository struct {
	store *Store
}

func NewInvitationRepository(store *Store) *InvitationRepository {
	return &InvitationRepository{store: store}
}

func (r *InvitationRepository) Get(ctx context.Context, id int) (teams.Invitation, error) {
	defer r.store.lock(ctx)()

	return r.store.invitations[id], nil
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (teams.Invitation, error) {
	defer r.store.lock(ctx)()

	for _, inv := range r.store.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return teams.Invitation{}, nil
}

func (r *InvitationRepository) Expired(ctx context.Context, t time.Time) ([]teams.Invitation, error) {
	defer r.store.lock(ctx)()

	list := make([]teams.Invitation, 0)
	for _, inv := range r.store.invitations {
		if inv.ToUserID == 0 && inv.ExpiresAt.Before(t) {
			list = append(list, inv)
		}
	}

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *InvitationRepository) Upsert(ctx context.Context, inv *teams.Invitation) error {
	defer r.store.lock(ctx)()

	if inv.ID <= 0 {
		r.store.invitationSeq++
		inv.ID = r.store.invitationSeq
		inv.CreatedAt = r.store.now()
	} else if inv.ID > r.store.invitationSeq {
		r.store.invitationSeq = inv.ID
	}

	r.store.invitations[inv.ID] = *inv
	return nil
}

func (r *InvitationRepository) Delete(ctx context.Context, id int) error {
	defer r.store.lock(ctx)()

	delete(r.store.invitations, id)
	return nil
}
