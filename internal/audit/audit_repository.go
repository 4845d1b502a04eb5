package audit

import (
	"context"
	"time"

	"github.com/duchm/foliogate/model"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.AdminActivity) error
	Recent(ctx context.Context, limit int, offset int) ([]*model.AdminActivity, error)
	Count(ctx context.Context) (int64, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	OldestOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.AdminActivity, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func (r *activityRepository) Create(ctx context.Context, activity *model.AdminActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) Recent(ctx context.Context, limit int, offset int) ([]*model.AdminActivity, error) {
	var activities []*model.AdminActivity
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AdminActivity{}).Count(&count).Error
	return count, err
}

func (r *activityRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AdminActivity{}).
		Where("created_at < ?", cutoff).
		Count(&count).Error
	return count, err
}

func (r *activityRepository) OldestOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.AdminActivity, error) {
	var activities []*model.AdminActivity
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.AdminActivity{})
	return ret.RowsAffected, ret.Error
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db}
}
