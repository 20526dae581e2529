package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/boltdb/bolt"
)

var (
	teamBucket            = []byte("teams")
	membershipBucket      = []byte("memberships")
	membershipKeyBucket   = []byte("membership_keys")
	membershipInviteIndex = []byte("membership_invites")
	invitationBucket      = []byte("invitations")
	invitationTokenIndex  = []byte("invitation_tokens")
)

type txKey struct{}

type Driver struct {
	store *bolt.DB
}

// Open opens the connection to the bolt database defined by path.
func (d *Driver) Open(path string) error {
	if d.store != nil {
		return errors.New("store already open")
	}

	store, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return err
	}

	err = store.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			teamBucket,
			membershipBucket,
			membershipKeyBucket,
			membershipInviteIndex,
			invitationBucket,
			invitationTokenIndex,
		}
		for _, bucket := range buckets {
			_, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		store.Close()
		return err
	}

	d.store = store
	return nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	if d.store != nil {
		err := d.store.Close()
		d.store = nil
		return err
	}
	return nil
}

// Do runs fn in one read-write transaction. The repositories use it when
// they are given the context fn receives.
func (d *Driver) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if d.tx(ctx) != nil {
		return fn(ctx)
	}

	return d.store.Update(func(tx *bolt.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (d *Driver) tx(ctx context.Context) *bolt.Tx {
	tx, ok := ctx.Value(txKey{}).(*bolt.Tx)
	if !ok || tx.DB() != d.store {
		return nil
	}
	return tx
}

func (d *Driver) view(ctx context.Context, fn func(*bolt.Tx) error) error {
	if tx := d.tx(ctx); tx != nil {
		return fn(tx)
	}
	return d.store.View(fn)
}

func (d *Driver) update(ctx context.Context, fn func(*bolt.Tx) error) error {
	if tx := d.tx(ctx); tx != nil {
		return fn(tx)
	}
	return d.store.Update(fn)
}

func itob(v int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int {
	return int(binary.BigEndian.Uint64(b))
}

func now() time.Time {
	return time.Now().UTC()
}
