package query

import (
	"alertflow/internal/dao"
	"alertflow/internal/model/entity"
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type executionDao struct {
	db *gorm.DB
}

func NewExecutionDao(db *gorm.DB) dao.ExecutionDao {
	return &executionDao{db: db}
}

// Save 同一个 client_order_id 只保留第一条
func (d *executionDao) Save(ctx context.Context, record *entity.ExecutionRecord) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "client_order_id"}}, DoNothing: true}).
		Create(record).Error
}

func (d *executionDao) List(ctx context.Context, strategyID string, limit, offset int) ([]entity.ExecutionRecord, int64, error) {
	var (
		total   int64
		records []entity.ExecutionRecord
	)
	q := d.db.WithContext(ctx).Model(&entity.ExecutionRecord{})
	if strategyID != "" {
		q = q.Where("strategy_id = ?", strategyID)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
	}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list executions: %w", err)
	}
	return records, total, nil
}
