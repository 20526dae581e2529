package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/bobinette/teams"
)

type InvitationRepository struct {
	Driver *Driver
}

func getInvitation(tx *bolt.Tx, id int) (teams.Invitation, error) {
	var inv teams.Invitation

	data := tx.Bucket(invitationBucket).Get(itob(id))
	if data == nil {
		return inv, nil
	}

	err := json.Unmarshal(data, &inv)
	return inv, err
}

func (r *InvitationRepository) Get(ctx context.Context, id int) (teams.Invitation, error) {
	var inv teams.Invitation
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		var err error
		inv, err = getInvitation(tx, id)
		return err
	})
	if err != nil {
		return teams.Invitation{}, err
	}
	return inv, nil
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (teams.Invitation, error) {
	var inv teams.Invitation
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		id := tx.Bucket(invitationTokenIndex).Get([]byte(token))
		if id == nil {
			return nil
		}

		var err error
		inv, err = getInvitation(tx, btoi(id))
		return err
	})
	if err != nil {
		return teams.Invitation{}, err
	}
	return inv, nil
}

func (r *InvitationRepository) Expired(ctx context.Context, t time.Time) ([]teams.Invitation, error) {
	list := make([]teams.Invitation, 0)
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		c := tx.Bucket(invitationBucket).Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			var inv teams.Invitation
			if err := json.Unmarshal(data, &inv); err != nil {
				return err
			}

			if inv.ToUserID == 0 && inv.ExpiresAt.Before(t) {
				list = append(list, inv)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *InvitationRepository) Upsert(ctx context.Context, inv *teams.Invitation) error {
	return r.Driver.update(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket(invitationBucket)
		tokens := tx.Bucket(invitationTokenIndex)

		if inv.ID <= 0 {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("error incrementing id: %v", err)
			}
			inv.ID = int(id)
			inv.CreatedAt = now()
		} else {
			previous, err := getInvitation(tx, inv.ID)
			if err != nil {
				return err
			}
			if previous.ID != 0 && previous.Token != inv.Token {
				if err := tokens.Delete([]byte(previous.Token)); err != nil {
					return err
				}
			}
		}

		data, err := json.Marshal(inv)
		if err != nil {
			return err
		}

		if err := bucket.Put(itob(inv.ID), data); err != nil {
			return err
		}
		return tokens.Put([]byte(inv.Token), itob(inv.ID))
	})
}

func (r *InvitationRepository) Delete(ctx context.Context, id int) error {
	return r.Driver.update(ctx, func(tx *bolt.Tx) error {
		inv, err := getInvitation(tx, id)
		if err != nil || inv.ID == 0 {
			return err
		}

		if err := tx.Bucket(invitationTokenIndex).Delete([]byte(inv.Token)); err != nil {
			return err
		}
		return tx.Bucket(invitationBucket).Delete(itob(id))
	})
}
