package broker

import (
	"alertflow/internal/model"
	"context"
	"errors"
	"fmt"
)

// Client 券商能力接口，每个券商一个实现；实现必须并发安全
type Client interface {
	GetAccount(ctx context.Context) (*model.Account, error)
	GetPositions(ctx context.Context) ([]model.Position, error)
	GetOrders(ctx context.Context, q model.OrderQuery) ([]model.BrokerOrder, error)
	GetOrder(ctx context.Context, orderID string) (*model.BrokerOrder, error)
	// GetOrderByClientOrderID 按幂等键查单，可追溯 order_executions.client_order_id
	GetOrderByClientOrderID(ctx context.Context, clientOrderID string) (*model.BrokerOrder, error)
	GetActivities(ctx context.Context, q model.ActivityQuery) ([]model.Activity, error)
	// PlaceOrder 下单，order.ClientOrderID 作为幂等键随请求发送
	PlaceOrder(ctx context.Context, order model.Order, broker model.Broker) error
	CancelOrder(ctx context.Context, orderID string) error
	CancelAllOrders(ctx context.Context) error
}

// Selector 根据策略的券商标识选择客户端
type Selector interface {
	For(b model.Broker) (Client, error)
}

// Clients 每个券商共享一个客户端实例
type Clients struct {
	clients map[model.Broker]Client
}

func NewClients(clients map[model.Broker]Client) *Clients {
	m := make(map[model.Broker]Client, len(clients))
	for b, c := range clients {
		m[b] = c
	}
	return &Clients{clients: m}
}

func (c *Clients) For(b model.Broker) (Client, error) {
	cli, ok := c.clients[b]
	if !ok {
		return nil, fmt.Errorf("no client for broker %q", b)
	}
	return cli, nil
}

// Error 券商调用失败，Cause 为可读的原因
type Error struct {
	Broker model.Broker
	Cause  string
	// 资金不足，重试没有意义
	InsufficientFunds bool
	Err               error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Broker.DisplayName(), e.Cause)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(b model.Broker, err error) *Error {
	return &Error{Broker: b, Cause: err.Error(), Err: err}
}

// IsInsufficientFunds 判断是否为资金不足
func IsInsufficientFunds(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.InsufficientFunds
}
