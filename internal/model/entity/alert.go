package entity

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

// AlertRecord 原始告警表，价格以字符串保存原始精度
type AlertRecord struct {
	AlertID       int64                 `gorm:"column:alert_id;primaryKey;autoIncrement:false" json:"alert_id"`
	StrategyName  string                `gorm:"column:strategy_name;type:varchar(64)" json:"strategy_name"`
	Ticker        string                `gorm:"column:ticker;type:varchar(32);index:idx_ticker_fire" json:"ticker"`
	Timeframe     string                `gorm:"column:timeframe;type:varchar(16)" json:"timeframe"`
	Exchange      string                `gorm:"column:exchange;type:varchar(32)" json:"exchange"`
	AlertType     string                `gorm:"column:alert_type;type:varchar(16)" json:"alert_type"`
	BarTime       time.Time             `gorm:"column:bar_time" json:"bar_time"`
	BarOpen       string                `gorm:"column:bar_open;type:varchar(40)" json:"bar_open"`
	BarHigh       string                `gorm:"column:bar_high;type:varchar(40)" json:"bar_high"`
	BarLow        string                `gorm:"column:bar_low;type:varchar(40)" json:"bar_low"`
	BarClose      string                `gorm:"column:bar_close;type:varchar(40)" json:"bar_close"`
	BarVolume     string                `gorm:"column:bar_volume;type:varchar(40)" json:"bar_volume"`
	AlertFireTime time.Time             `gorm:"column:alert_fire_time;index:idx_ticker_fire" json:"alert_fire_time"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ModifiedAt    time.Time             `gorm:"column:modified_at;autoUpdateTime" json:"modified_at"`
	DeletedAt     time.Time             `gorm:"column:deleted_at" json:"-"`
	IsDel         soft_delete.DeletedAt `gorm:"column:is_del;softDelete:flag,DeletedAtField:DeletedAt" json:"-"`
}

func (AlertRecord) TableName() string {
	return "alerts"
}
