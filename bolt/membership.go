package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/boltdb/bolt"

	"github.com/bobinette/teams"
)

// Memberships are stored by id. The membership_keys bucket maps
// team|user|invite to the id and makes the triple unique, its prefixes
// giving the memberships of a team and of a user in a team.
type MembershipRepository struct {
	Driver *Driver
}

func membershipKey(teamID, userID, inviteID int) []byte {
	key := make([]byte, 0, 24)
	key = append(key, itob(teamID)...)
	key = append(key, itob(userID)...)
	return append(key, itob(inviteID)...)
}

func getMembership(tx *bolt.Tx, id int) (teams.Membership, error) {
	var m teams.Membership

	data := tx.Bucket(membershipBucket).Get(itob(id))
	if data == nil {
		return m, nil
	}

	err := json.Unmarshal(data, &m)
	return m, err
}

func putMembership(tx *bolt.Tx, m teams.Membership) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return tx.Bucket(membershipBucket).Put(itob(m.ID), data)
}

// scan calls fn on every membership whose key starts with prefix.
func scan(tx *bolt.Tx, prefix []byte, fn func(teams.Membership) error) error {
	c := tx.Bucket(membershipKeyBucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		m, err := getMembership(tx, btoi(v))
		if err != nil {
			return err
		} else if m.ID == 0 {
			return fmt.Errorf("membership %d is indexed but not stored", btoi(v))
		}

		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *MembershipRepository) Get(ctx context.Context, id int) (teams.Membership, error) {
	var m teams.Membership
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		var err error
		m, err = getMembership(tx, id)
		return err
	})
	if err != nil {
		return teams.Membership{}, err
	}
	return m, nil
}

func (r *MembershipRepository) ForUser(ctx context.Context, teamID, userID int) (teams.Membership, error) {
	if userID == 0 {
		return teams.Membership{}, nil
	}

	var found teams.Membership
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		prefix := append(itob(teamID), itob(userID)...)
		return scan(tx, prefix, func(m teams.Membership) error {
			if found.ID == 0 || m.ID < found.ID {
				found = m
			}
			return nil
		})
	})
	if err != nil {
		return teams.Membership{}, err
	}
	return found, nil
}

func (r *MembershipRepository) ForInvite(ctx context.Context, inviteID int) (teams.Membership, error) {
	var m teams.Membership
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		id := tx.Bucket(membershipInviteIndex).Get(itob(inviteID))
		if id == nil {
			return nil
		}

		var err error
		m, err = getMembership(tx, btoi(id))
		return err
	})
	if err != nil {
		return teams.Membership{}, err
	}
	return m, nil
}

func (r *MembershipRepository) List(ctx context.Context, teamID int, filter teams.Filter) ([]teams.Membership, error) {
	list := make([]teams.Membership, 0)
	err := r.Driver.view(ctx, func(tx *bolt.Tx) error {
		return scan(tx, itob(teamID), func(m teams.Membership) error {
			if filter.Match(m) {
				list = append(list, m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
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
	return r.Driver.update(ctx, func(tx *bolt.Tx) error {
		keys := tx.Bucket(membershipKeyBucket)

		key := membershipKey(m.TeamID, m.UserID, m.InviteID)
		if keys.Get(key) != nil {
			return teams.ErrDuplicate
		}

		id, err := tx.Bucket(membershipBucket).NextSequence()
		if err != nil {
			return fmt.Errorf("error incrementing id: %v", err)
		}

		inserted := *m
		inserted.ID = int(id)
		inserted.CreatedAt = now()

		if err := putMembership(tx, inserted); err != nil {
			return err
		}
		if err := keys.Put(key, itob(inserted.ID)); err != nil {
			return err
		}
		if inserted.InviteID != 0 {
			if err := tx.Bucket(membershipInviteIndex).Put(itob(inserted.InviteID), itob(inserted.ID)); err != nil {
				return err
			}
		}

		*m = inserted
		return nil
	})
}

func (r *MembershipRepository) Update(ctx context.Context, id int, fn func(m *teams.Membership) bool) (teams.Membership, bool, error) {
	var result teams.Membership
	var applied bool

	err := r.Driver.update(ctx, func(tx *bolt.Tx) error {
		m, err := getMembership(tx, id)
		if err != nil || m.ID == 0 {
			return err
		}

		result = m
		updated := m
		if !fn(&updated) {
			return nil
		}

		// Identity and creation date never change
		updated.ID = m.ID
		updated.TeamID = m.TeamID
		updated.CreatedAt = m.CreatedAt

		oldKey := membershipKey(m.TeamID, m.UserID, m.InviteID)
		newKey := membershipKey(updated.TeamID, updated.UserID, updated.InviteID)
		if !bytes.Equal(oldKey, newKey) {
			keys := tx.Bucket(membershipKeyBucket)
			if keys.Get(newKey) != nil {
				return teams.ErrDuplicate
			}
			if err := keys.Delete(oldKey); err != nil {
				return err
			}
			if err := keys.Put(newKey, itob(id)); err != nil {
				return err
			}
		}

		if updated.InviteID != m.InviteID {
			invites := tx.Bucket(membershipInviteIndex)
			if m.InviteID != 0 {
				if err := invites.Delete(itob(m.InviteID)); err != nil {
					return err
				}
			}
			if updated.InviteID != 0 {
				if err := invites.Put(itob(updated.InviteID), itob(id)); err != nil {
					return err
				}
			}
		}

		if err := putMembership(tx, updated); err != nil {
			return err
		}

		result = updated
		applied = true
		return nil
	})
	if err != nil {
		return result, false, err
	}

	return result, applied, nil
}

func (r *MembershipRepository) Delete(ctx context.Context, id int) error {
	return r.Driver.update(ctx, func(tx *bolt.Tx) error {
		m, err := getMembership(tx, id)
		if err != nil || m.ID == 0 {
			return err
		}

		if err := tx.Bucket(membershipKeyBucket).Delete(membershipKey(m.TeamID, m.UserID, m.InviteID)); err != nil {
			return err
		}
		if m.InviteID != 0 {
			if err := tx.Bucket(membershipInviteIndex).Delete(itob(m.InviteID)); err != nil {
				return err
			}
		}
		return tx.Bucket(membershipBucket).Delete(itob(id))
	})
}
