package inmem

import (
	"context"
	"sort"

	"github.com/bobinette/teams"
)

type TeamRepository struct {
	store *Store
}

func NewTeamRepository(store *Store) *TeamRepository {
	return &TeamRepository{store: store}
}

func (r *TeamRepository) Get(ctx context.Context, id int) (teams.Team, error) {
	defer r.store.lock(ctx)()

	return r.store.teams[id], nil
}

func (r *TeamRepository) List(ctx context.Context, publicOnly bool) ([]teams.Team, error) {
	defer r.store.lock(ctx)()

	list := make([]teams.Team, 0, len(r.store.teams))
	for _, team := range r.store.teams {
		if publicOnly && !team.PublicVisible {
			continue
		}
		list = append(list, team)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, team *teams.Team) error {
	defer r.store.lock(ctx)()

	if team.ID <= 0 {
		r.store.teamSeq++
		team.ID = r.store.teamSeq
		team.CreatedAt = r.store.now()
	} else if team.ID > r.store.teamSeq {
		r.store.teamSeq = team.ID
	}

	r.store.teams[team.ID] = *team
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, id int) error {
	defer r.store.lock(ctx)()

	delete(r.store.teams, id)
	return nil
}
