package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ExecutionRecord 信号执行的终态记录（成功或重试耗尽）
type ExecutionRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderID       int64          `gorm:"column:order_id;index" json:"order_id"`
	ClientOrderID string         `gorm:"column:client_order_id;type:varchar(64);uniqueIndex" json:"client_order_id"`
	StrategyID    string         `gorm:"column:strategy_id;type:varchar(36);index" json:"strategy_id"`
	StrategyName  string         `gorm:"column:strategy_name;type:varchar(64)" json:"strategy_name"`
	Broker        string         `gorm:"column:broker;type:varchar(16)" json:"broker"`
	Ticker        string         `gorm:"column:ticker;type:varchar(32)" json:"ticker"`
	AlertType     string         `gorm:"column:alert_type;type:varchar(16)" json:"alert_type"`
	State         string         `gorm:"column:state;type:varchar(16)" json:"state"`
	Attempts      int            `gorm:"column:attempts" json:"attempts"`
	Error         string         `gorm:"column:error;type:text" json:"error"`
	Strategy      datatypes.JSON `gorm:"column:strategy;type:json" json:"strategy"` // 执行时的策略快照
	DurationMs    int64          `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ExecutionRecord) TableName() string {
	return "order_executions"
}
