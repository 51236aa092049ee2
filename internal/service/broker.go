package service

import (
	"alertflow/internal/broker"
	"alertflow/internal/event"
	"alertflow/internal/model"
	"alertflow/pkg/errors"
	"alertflow/pkg/errors/ecode"
	"context"
)

// BrokerService 管理接口：查询直接调用券商，撤单通过总线异步执行
type BrokerService struct {
	clients broker.Selector
	bus     Sender
}

func NewBrokerService(clients broker.Selector, bus Sender) *BrokerService {
	return &BrokerService{clients: clients, bus: bus}
}

func (s *BrokerService) client(name string) (broker.Client, model.Broker, error) {
	if name == "" {
		name = string(model.BrokerAlpaca)
	}
	b, ok := model.ParseBroker(name)
	if !ok {
		return nil, "", errors.WithCode(ecode.ValidateErr, "unknown broker "+name)
	}
	c, err := s.clients.For(b)
	if err != nil {
		return nil, "", errors.Wrap(err, ecode.NotFoundErr, "broker not configured")
	}
	return c, b, nil
}

func (s *BrokerService) Account(ctx context.Context, name string) (*model.Account, error) {
	c, _, err := s.client(name)
	if err != nil {
		return nil, err
	}
	return c.GetAccount(ctx)
}

func (s *BrokerService) Positions(ctx context.Context, name string) ([]model.Position, error) {
	c, _, err := s.client(name)
	if err != nil {
		return nil, err
	}
	return c.GetPositions(ctx)
}

func (s *BrokerService) Orders(ctx context.Context, name string, q model.OrderQuery) ([]model.BrokerOrder, error) {
	c, _, err := s.client(name)
	if err != nil {
		return nil, err
	}
	return c.GetOrders(ctx, q)
}

// Order 查询单个订单，byClientID 为 true 时 id 视为 client_order_id
func (s *BrokerService) Order(ctx context.Context, name, id string, byClientID bool) (*model.BrokerOrder, error) {
	c, _, err := s.client(name)
	if err != nil {
		return nil, err
	}
	if byClientID {
		return c.GetOrderByClientOrderID(ctx, id)
	}
	return c.GetOrder(ctx, id)
}

func (s *BrokerService) Activities(ctx context.Context, name string, q model.ActivityQuery) ([]model.Activity, error) {
	c, _, err := s.client(name)
	if err != nil {
		return nil, err
	}
	return c.GetActivities(ctx, q)
}

// CancelOrder 投递撤单事件，orderID 为空表示全部撤单
func (s *BrokerService) CancelOrder(name, orderID string) error {
	_, b, err := s.client(name)
	if err != nil {
		return err
	}
	ev := event.ActionEvent{Broker: b, Action: event.ActionCancelAllOrders}
	if orderID != "" {
		ev.Action = event.ActionCancelOrder
		ev.OrderID = orderID
	}
	if err := s.bus.Send(ev); err != nil {
		return errors.Wrap(err, ecode.UnavailableErr, "service unavailable")
	}
	return nil
}
