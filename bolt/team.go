package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/bobinette/teams"
)

type TeamRepository struct {
	Driver *Driver
}

func (r *TeamRepository) Get(ctx context.Context, id int) (teams.Team, error) {
	var team teams.Team
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket(teamBucket)

		data := bucket.Get(itob(id))
		if data == nil {
			return nil
		}

		return json.Unmarshal(data, &team)
	})
	if err != nil {
		return teams.Team{}, err
	}

	return team, nil
}

// List returns the teams ordered by id.
func (r *TeamRepository) List(ctx context.Context, publicOnly bool) ([]teams.Team, error) {
	list := make([]teams.Team, 0)

	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket(teamBucket)

		c := bucket.Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			var team teams.Team
			if err := json.Unmarshal(data, &team); err != nil {
				return err
			}

			if publicOnly && !team.PublicVisible {
				continue
			}
			list = append(list, team)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, team *teams.Team) error {
	return r.Driver.update(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket(teamBucket)

		if team.ID <= 0 {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("error incrementing id: %v", err)
			}
			team.ID = int(id)
			team.CreatedAt = now()
		}

		data, err := json.Marshal(team)
		if err != nil {
			return err
		}

		return bucket.Put(itob(team.ID), data)
	})
}

func (r *TeamRepository) Delete(ctx context.Context, id int) error {
	return r.Driver.update(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket(teamBucket)
		return bucket.Delete(itob(id))
	})
}
