package event

import "alertflow/internal/model"

type Kind string

const (
	KindSignal         Kind = "signal"
	KindAction         Kind = "action"
	KindStrategyUpdate Kind = "strategy_update"
)

// Event 总线上传递的事件，闭合集合：SignalEvent / ActionEvent / StrategyUpdateEvent
type Event interface {
	Kind() Kind
	sealed()
}

// SignalEvent 校验通过的交易信号
type SignalEvent struct {
	Signal model.TradeSignal
}

func (SignalEvent) Kind() Kind { return KindSignal }
func (SignalEvent) sealed()    {}

type Action string

const (
	ActionCancelOrder     Action = "cancel_order"
	ActionCancelAllOrders Action = "cancel_all_orders"
)

// ActionEvent 管理接口发起的券商操作
type ActionEvent struct {
	Broker  model.Broker
	Action  Action
	OrderID string // 仅 cancel_order 使用
}

func (ActionEvent) Kind() Kind { return KindAction }
func (ActionEvent) sealed()    {}

// StrategyUpdateEvent 预留：策略变更通知，当前只记录日志
type StrategyUpdateEvent struct {
	StrategyID string
}

func (StrategyUpdateEvent) Kind() Kind { return KindStrategyUpdate }
func (StrategyUpdateEvent) sealed()    {}
