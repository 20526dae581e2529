package mysql

import (
	"context"

	"github.com/bobinette/teams"
)

type TeamRepository struct {
	driver *Driver
}

func NewTeamRepository(driver *Driver) *TeamRepository {
	return &TeamRepository{driver: driver}
}

func (r *TeamRepository) Get(ctx context.Context, id int) (teams.Team, error) {
	var rows []Team
	err := r.driver.conn(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return teams.Team{}, err
	} else if len(rows) == 0 {
		return teams.Team{}, nil
	}
	return rows[0].format(), nil
}

func (r *TeamRepository) List(ctx context.Context, publicOnly bool) ([]teams.Team, error) {
	query := r.driver.conn(ctx).Order("id")
	if publicOnly {
		query = query.Where("public_visible = ?", true)
	}

	var rows []Team
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := make([]teams.Team, len(rows))
	for i, row := range rows {
		list[i] = row.format()
	}
	return list, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, team *teams.Team) error {
	row := newTeam(*team)

	if row.ID <= 0 {
		row.ID = 0
		row.CreatedAt = r.driver.db.NowFunc()
		if err := r.driver.conn(ctx).Create(&row).Error; err != nil {
			return err
		}

		*team = row.format()
		return nil
	}

	return r.driver.conn(ctx).
		Model(&Team{ID: row.ID}).
		Select("name", "description", "scope", "public_visible", "creator_id").
		Updates(&row).
		Error
}

func (r *TeamRepository) Delete(ctx context.Context, id int) error {
	return r.driver.conn(ctx).Delete(&Team{}, id).Error
}
