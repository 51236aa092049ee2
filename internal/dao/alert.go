package dao

import (
	"alertflow/internal/model/entity"
	"context"
	"time"
)

// AlertDao 原始告警数据访问接口
type AlertDao interface {
	// Create 保存一条告警
	Create(ctx context.Context, alert *entity.AlertRecord) error
	// List 按触发时间倒序分页查询，返回总数
	List(ctx context.Context, limit, offset int) ([]entity.AlertRecord, int64, error)
}

// ExecutionDao 信号执行结果数据访问接口
type ExecutionDao interface {
	// Save 保存终态；client_order_id 重复时忽略
	Save(ctx context.Context, record *entity.ExecutionRecord) error
	// List 可按策略过滤，按创建时间倒序
	List(ctx context.Context, strategyID string, limit, offset int) ([]entity.ExecutionRecord, int64, error)
}

// AlertDedup 重复告警过滤
type AlertDedup interface {
	// Seen 在 ttl 内首次出现返回 false，重复返回 true
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget 删除 key，告警未能投递时调用，允许重新发送
	Forget(ctx context.Context, key string) error
}
