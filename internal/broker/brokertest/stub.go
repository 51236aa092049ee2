// Package brokertest 提供可编程的券商桩，用于测试
package brokertest

import (
	"alertflow/internal/broker"
	"alertflow/internal/model"
	"context"
	"sync"
	"time"
)

// Attempt 一次下单调用
type Attempt struct {
	Order model.Order
	At    time.Time
}

// Stub 按调用序号决定下单结果；其他接口返回空结果
type Stub struct {
	// PlaceFunc 第 n 次调用(从1开始)的结果，nil 表示始终成功
	PlaceFunc func(n int, order model.Order) error
	// Orders 供 GetOrder / GetOrderByClientOrderID 查询
	Orders []model.BrokerOrder
	// Activities GetActivities 的返回
	Activities []model.Activity

	mu            sync.Mutex
	attempts      []Attempt
	canceled      []string
	activityQuery model.ActivityQuery
}

// AlwaysFail 每次下单都失败
func AlwaysFail(cause string) *Stub {
	return &Stub{PlaceFunc: func(int, model.Order) error {
		return &broker.Error{Broker: model.BrokerAlpaca, Cause: cause}
	}}
}

// FailTimes 前 n 次失败，之后成功
func FailTimes(n int) *Stub {
	return &Stub{PlaceFunc: func(i int, _ model.Order) error {
		if i <= n {
			return &broker.Error{Broker: model.BrokerAlpaca, Cause: "temporarily unavailable"}
		}
		return nil
	}}
}

func (s *Stub) PlaceOrder(ctx context.Context, order model.Order, _ model.Broker) error {
	s.mu.Lock()
	s.attempts = append(s.attempts, Attempt{Order: order, At: time.Now()})
	n := len(s.attempts)
	fn := s.PlaceFunc
	s.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(n, order)
}

// Attempts 已记录的下单调用
func (s *Stub) Attempts() []Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

func (s *Stub) Canceled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.canceled...)
}

func (s *Stub) GetAccount(ctx context.Context) (*model.Account, error) {
	return &model.Account{Broker: model.BrokerAlpaca, ID: "stub"}, nil
}

func (s *Stub) GetPositions(ctx context.Context) ([]model.Position, error) {
	return nil, nil
}

func (s *Stub) GetOrders(ctx context.Context, q model.OrderQuery) ([]model.BrokerOrder, error) {
	return nil, nil
}

func (s *Stub) GetOrder(ctx context.Context, orderID string) (*model.BrokerOrder, error) {
	return s.findOrder(func(o model.BrokerOrder) bool { return o.ID == orderID })
}

func (s *Stub) GetOrderByClientOrderID(ctx context.Context, clientOrderID string) (*model.BrokerOrder, error) {
	return s.findOrder(func(o model.BrokerOrder) bool { return o.ClientOrderID == clientOrderID })
}

func (s *Stub) findOrder(match func(model.BrokerOrder) bool) (*model.BrokerOrder, error) {
	for _, o := range s.Orders {
		if match(o) {
			return &o, nil
		}
	}
	return nil, &broker.Error{Broker: model.BrokerAlpaca, Cause: "order not found"}
}

func (s *Stub) GetActivities(ctx context.Context, q model.ActivityQuery) ([]model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activityQuery = q
	return s.Activities, nil
}

// ActivityQuery 最近一次 GetActivities 的参数
func (s *Stub) ActivityQuery() model.ActivityQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activityQuery
}

func (s *Stub) CancelOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canceled = append(s.canceled, orderID)
	return nil
}

func (s *Stub) CancelAllOrders(ctx context.Context) error {
	return s.CancelOrder(ctx, "*")
}

// Router 按 ticker 路由到不同的桩，用于多策略并发测试
type Router struct {
	ByTicker map[string]*Stub
}

func (r *Router) For(model.Broker) (broker.Client, error) {
	return routed{r}, nil
}

type routed struct{ r *Router }

func (c routed) stub(order model.Order) *Stub {
	return c.r.ByTicker[order.Ticker]
}

func (c routed) PlaceOrder(ctx context.Context, order model.Order, b model.Broker) error {
	return c.stub(order).PlaceOrder(ctx, order, b)
}
func (c routed) GetAccount(ctx context.Context) (*model.Account, error) {
	return nil, nil
}
func (c routed) GetPositions(ctx context.Context) ([]model.Position, error) {
	return nil, nil
}
func (c routed) GetOrders(ctx context.Context, q model.OrderQuery) ([]model.BrokerOrder, error) {
	return nil, nil
}
func (c routed) GetOrder(ctx context.Context, id string) (*model.BrokerOrder, error) {
	return nil, nil
}
func (c routed) GetOrderByClientOrderID(ctx context.Context, id string) (*model.BrokerOrder, error) {
	return nil, nil
}
func (c routed) GetActivities(ctx context.Context, q model.ActivityQuery) ([]model.Activity, error) {
	return nil, nil
}
func (c routed) CancelOrder(ctx context.Context, id string) error { return nil }
func (c routed) CancelAllOrders(ctx context.Context) error        { return nil }
