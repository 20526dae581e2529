package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/errors"
)

type MembershipRepository struct {
	driver *Driver
}

func NewMembershipRepository(driver *Driver) *MembershipRepository {
	return &MembershipRepository{driver: driver}
}

// translate turns unique index violations into teams.ErrDuplicate.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return teams.ErrDuplicate
	}
	return err
}

func (r *MembershipRepository) first(query *gorm.DB) (teams.Membership, error) {
	var rows []Membership
	if err := query.Order("id").Limit(1).Find(&rows).Error; err != nil {
		return teams.Membership{}, err
	} else if len(rows) == 0 {
		return teams.Membership{}, nil
	}
	return rows[0].format(), nil
}

func (r *MembershipRepository) Get(ctx context.Context, id int) (teams.Membership, error) {
	return r.first(r.driver.conn(ctx).Where("id = ?", id))
}

func (r *MembershipRepository) ForUser(ctx context.Context, teamID, userID int) (teams.Membership, error) {
	if userID == 0 {
		return teams.Membership{}, nil
	}
	return r.first(r.driver.conn(ctx).Where("team_id = ? AND user_id = ?", teamID, userID))
}

func (r *MembershipRepository) ForInvite(ctx context.Context, inviteID int) (teams.Membership, error) {
	return r.first(r.driver.conn(ctx).Where("invite_id = ?", inviteID))
}

func (r *MembershipRepository) List(ctx context.Context, teamID int, filter teams.Filter) ([]teams.Membership, error) {
	query := r.driver.conn(ctx).Where("team_id = ?", teamID)
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]int, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = int(s)
		}
		query = query.Where("status IN ?", statuses)
	}
	if len(filter.Roles) > 0 {
		roles := make([]int, len(filter.Roles))
		for i, role := range filter.Roles {
			roles[i] = int(role)
		}
		query = query.Where("role IN ?", roles)
	}
	if filter.Lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []Membership
	if err := query.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	list := make([]teams.Membership, len(rows))
	for i, row := range rows {
		list[i] = row.format()
	}
	return list, nil
}

func (r *MembershipRepository) Insert(ctx context.Context, m *teams.Membership) error {
	row := newMembership(*m)
	row.ID = 0
	row.CreatedAt = r.driver.db.NowFunc()

	if err := r.driver.conn(ctx).Create(&row).Error; err != nil {
		return translate(err)
	}

	*m = row.format()
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE so that concurrent
// updates of the same membership run one after the other.
func (r *MembershipRepository) Update(ctx context.Context, id int, fn func(m *teams.Membership) bool) (teams.Membership, bool, error) {
	var result teams.Membership
	var applied bool

	err := r.driver.Do(ctx, func(ctx context.Context) error {
		m, err := r.first(r.driver.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
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

		row := newMembership(updated)
		err = r.driver.conn(ctx).
			Model(&Membership{ID: id}).
			Select("user_id", "invite_id", "role", "status").
			Updates(&row).
			Error
		if err != nil {
			return translate(err)
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
	return r.driver.conn(ctx).Delete(&Membership{}, id).Error
}
