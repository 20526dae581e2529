package mysql

import (
	"context"
	"time"

	"github.com/bobinette/teams"
)

type InvitationRepository struct {
	driver *Driver
}

func NewInvitationRepository(driver *Driver) *InvitationRepository {
	return &InvitationRepository{driver: driver}
}

func (r *InvitationRepository) find(ctx context.Context, query string, args ...interface{}) (teams.Invitation, error) {
	var rows []Invitation
	err := r.driver.conn(ctx).Where(query, args...).Limit(1).Find(&rows).Error
	if err != nil {
		return teams.Invitation{}, err
	} else if len(rows) == 0 {
		return teams.Invitation{}, nil
	}
	return rows[0].format(), nil
}

func (r *InvitationRepository) Get(ctx context.Context, id int) (teams.Invitation, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (teams.Invitation, error) {
	return r.find(ctx, "token = ?", token)
}

func (r *InvitationRepository) Expired(ctx context.Context, t time.Time) ([]teams.Invitation, error) {
	var rows []Invitation
	err := r.driver.conn(ctx).
		Where("to_user_id = 0 AND expires_at < ?", t.UTC()).
		Order("id").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	list := make([]teams.Invitation, len(rows))
	for i, row := range rows {
		list[i] = row.format()
	}
	return list, nil
}

func (r *InvitationRepository) Upsert(ctx context.Context, inv *teams.Invitation) error {
	row := newInvitation(*inv)
	row.ExpiresAt = row.ExpiresAt.UTC()

	if row.ID <= 0 {
		row.ID = 0
		row.CreatedAt = r.driver.db.NowFunc()
		if err := r.driver.conn(ctx).Create(&row).Error; err != nil {
			return err
		}

		*inv = row.format()
		return nil
	}

	return r.driver.conn(ctx).
		Model(&Invitation{ID: row.ID}).
		Select("token", "email", "to_user_id", "expires_at").
		Updates(&row).
		Error
}

func (r *InvitationRepository) Delete(ctx context.Context, id int) error {
	return r.driver.conn(ctx).Delete(&Invitation{}, id).Error
}
