package broker

import (
	"alertflow/internal/model"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Simulated 本地模拟券商，立即成交，适合本地联调和测试
type Simulated struct {
	broker model.Broker
	mu     sync.Mutex
	// 订单id -> 订单
	orders map[string]*model.BrokerOrder
	// client_order_id -> 订单id，用于幂等
	byClientID map[string]string
	positions  map[string]decimal.Decimal
	activities []model.Activity
	cash       decimal.Decimal
}

func NewSimulated(b model.Broker, cash decimal.Decimal) *Simulated {
	return &Simulated{
		broker:     b,
		orders:     make(map[string]*model.BrokerOrder),
		byClientID: make(map[string]string),
		positions:  make(map[string]decimal.Decimal),
		cash:       cash,
	}
}

func (s *Simulated) GetAccount(ctx context.Context) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.Account{
		Broker:      s.broker,
		ID:          "simulated",
		Status:      "ACTIVE",
		Currency:    "USD",
		Cash:        s.cash,
		BuyingPower: s.cash,
		Equity:      s.cash,
	}, nil
}

func (s *Simulated) GetPositions(ctx context.Context) ([]model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]model.Position, 0, len(s.positions))
	for symbol, qty := range s.positions {
		if qty.IsZero() {
			continue
		}
		side := "long"
		if qty.IsNegative() {
			side = "short"
		}
		list = append(list, model.Position{Symbol: symbol, Side: side, Qty: qty.Abs()})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })
	return list, nil
}

func (s *Simulated) GetOrders(ctx context.Context, q model.OrderQuery) ([]model.BrokerOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]model.BrokerOrder, 0, len(s.orders))
	for _, o := range s.orders {
		if q.Status != "" && q.Status != "all" && !statusMatches(q.Status, o.Status) {
			continue
		}
		list = append(list, *o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	if q.Limit > 0 && len(list) > q.Limit {
		list = list[:q.Limit]
	}
	return list, nil
}

func statusMatches(query, status string) bool {
	switch query {
	case "open":
		return status == "new"
	case "closed":
		return status == "filled" || status == "canceled"
	default:
		return query == status
	}
}

func (s *Simulated) GetOrder(ctx context.Context, orderID string) (*model.BrokerOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, &Error{Broker: s.broker, Cause: "order not found"}
	}
	order := *o
	return &order, nil
}

func (s *Simulated) GetOrderByClientOrderID(ctx context.Context, clientOrderID string) (*model.BrokerOrder, error) {
	s.mu.Lock()
	id, ok := s.byClientID[clientOrderID]
	s.mu.Unlock()
	if !ok {
		return nil, &Error{Broker: s.broker, Cause: "order not found"}
	}
	return s.GetOrder(ctx, id)
}

// GetActivities 只有成交流水(FILL)，按时间先后返回
func (s *Simulated) GetActivities(ctx context.Context, q model.ActivityQuery) ([]model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]model.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		if len(q.Types) > 0 && !slices.Contains(q.Types, a.Type) {
			continue
		}
		if !q.After.IsZero() && !a.TransactionTime.After(q.After) {
			continue
		}
		if !q.Until.IsZero() && !a.TransactionTime.Before(q.Until) {
			continue
		}
		list = append(list, a)
		if q.Limit > 0 && len(list) == q.Limit {
			break
		}
	}
	return list, nil
}

// PlaceOrder 相同 client_order_id 只会成交一次
func (s *Simulated) PlaceOrder(ctx context.Context, order model.Order, b model.Broker) error {
	if b != s.broker {
		return &Error{Broker: s.broker, Cause: fmt.Sprintf("order routed to %s", b)}
	}
	side, ok := order.Side()
	if !ok {
		return &Error{Broker: s.broker, Cause: fmt.Sprintf("alert type %s is not placeable", order.AlertType)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byClientID[order.ClientOrderID]; dup && order.ClientOrderID != "" {
		return nil
	}

	// 创建订单id
	id := uuid.NewString()
	now := time.Now()
	s.orders[id] = &model.BrokerOrder{
		ID:            id,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Ticker,
		Side:          string(side),
		Type:          "market",
		Status:        "filled", // 模拟立即成交
		CreatedAt:     now,
	}
	s.activities = append(s.activities, model.Activity{
		ID:              uuid.NewString(),
		Type:            "FILL",
		Symbol:          order.Ticker,
		Side:            string(side),
		Qty:             order.Qty,
		OrderID:         id,
		TransactionTime: now,
	})
	if order.ClientOrderID != "" {
		s.byClientID[order.ClientOrderID] = id
	}

	qty := order.Qty
	if side == model.Sell {
		qty = qty.Neg()
	}
	s.positions[order.Ticker] = s.positions[order.Ticker].Add(qty)
	return nil
}

func (s *Simulated) CancelOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return &Error{Broker: s.broker, Cause: "order not found"}
	}
	if o.Status == "new" {
		o.Status = "canceled"
	}
	return nil
}

func (s *Simulated) CancelAllOrders(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.Status == "new" {
			o.Status = "canceled"
		}
	}
	return nil
}
