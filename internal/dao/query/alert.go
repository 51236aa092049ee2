package query

import (
	"alertflow/internal/dao"
	"alertflow/internal/model/entity"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type alertDao struct {
	db *gorm.DB
}

func NewAlertDao(db *gorm.DB) dao.AlertDao {
	return &alertDao{db: db}
}

func (d *alertDao) Create(ctx context.Context, alert *entity.AlertRecord) error {
	if alert.AlertID == 0 {
		return fmt.Errorf("alert id is required")
	}
	return d.db.WithContext(ctx).Create(alert).Error
}

func (d *alertDao) List(ctx context.Context, limit, offset int) ([]entity.AlertRecord, int64, error) {
	var (
		total  int64
		alerts []entity.AlertRecord
	)
	q := d.db.WithContext(ctx).Model(&entity.AlertRecord{}).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	if err := q.Order("alert_fire_time DESC").Limit(limit).Offset(offset).Find(&alerts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, total, nil
}
