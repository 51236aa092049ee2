package broker

import (
	"alertflow/conf"
	"alertflow/internal/model"
	"alertflow/pkg/utils"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// alpacaAPI SDK 中用到的部分，便于测试替换
type alpacaAPI interface {
	GetAccount() (*alpaca.Account, error)
	GetPositions() ([]alpaca.Position, error)
	GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error)
	GetOrder(orderID string) (*alpaca.Order, error)
	GetAccountActivities(req alpaca.GetAccountActivitiesRequest) ([]alpaca.AccountActivity, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetOrderByClientOrderID(clientOrderID string) (*alpaca.Order, error)
	CancelOrder(orderID string) error
	CancelAllOrders() error
}

// Alpaca 基于官方 SDK 的券商实现，SDK 客户端本身并发安全
type Alpaca struct {
	api alpacaAPI
}

// SDK 默认对 429 重试 3 次，每次等 1s；重试统一由执行器按策略间隔控制，这里关闭
const sdkRetryLimit = -1

func NewAlpaca(cfg conf.AlpacaConfig) *Alpaca {
	return &Alpaca{api: alpaca.NewClient(clientOpts(cfg))}
}

func clientOpts(cfg conf.AlpacaConfig) alpaca.ClientOpts {
	return alpaca.ClientOpts{
		APIKey:     cfg.KeyID,
		APISecret:  cfg.SecretKey,
		BaseURL:    cfg.BaseURL,
		RetryLimit: sdkRetryLimit,
	}
}

func newAlpacaWithAPI(api alpacaAPI) *Alpaca {
	return &Alpaca{api: api}
}

func (a *Alpaca) GetAccount(ctx context.Context) (*model.Account, error) {
	acct, err := call(ctx, a.api.GetAccount)
	if err != nil {
		return nil, alpacaError(err)
	}
	return &model.Account{
		Broker:      model.BrokerAlpaca,
		ID:          acct.ID,
		Status:      string(acct.Status),
		Currency:    acct.Currency,
		Cash:        acct.Cash,
		BuyingPower: acct.BuyingPower,
		Equity:      acct.Equity,
	}, nil
}

func (a *Alpaca) GetPositions(ctx context.Context) ([]model.Position, error) {
	positions, err := call(ctx, a.api.GetPositions)
	if err != nil {
		return nil, alpacaError(err)
	}
	list := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		list = append(list, model.Position{
			Symbol:        p.Symbol,
			Side:          string(p.Side),
			Qty:           p.Qty,
			AvgEntryPrice: p.AvgEntryPrice,
		})
	}
	return list, nil
}

func (a *Alpaca) GetOrders(ctx context.Context, q model.OrderQuery) ([]model.BrokerOrder, error) {
	req := alpaca.GetOrdersRequest{Status: q.Status, Limit: q.Limit}
	if req.Status == "" {
		req.Status = "open"
	}
	orders, err := call(ctx, func() ([]alpaca.Order, error) { return a.api.GetOrders(req) })
	if err != nil {
		return nil, alpacaError(err)
	}
	list := make([]model.BrokerOrder, 0, len(orders))
	for _, o := range orders {
		list = append(list, toBrokerOrder(o))
	}
	return list, nil
}

func (a *Alpaca) GetOrder(ctx context.Context, orderID string) (*model.BrokerOrder, error) {
	o, err := call(ctx, func() (*alpaca.Order, error) { return a.api.GetOrder(orderID) })
	if err != nil {
		return nil, alpacaError(err)
	}
	order := toBrokerOrder(*o)
	return &order, nil
}

func (a *Alpaca) GetOrderByClientOrderID(ctx context.Context, clientOrderID string) (*model.BrokerOrder, error) {
	o, err := call(ctx, func() (*alpaca.Order, error) { return a.api.GetOrderByClientOrderID(clientOrderID) })
	if err != nil {
		return nil, alpacaError(err)
	}
	order := toBrokerOrder(*o)
	return &order, nil
}

func (a *Alpaca) GetActivities(ctx context.Context, q model.ActivityQuery) ([]model.Activity, error) {
	req := alpaca.GetAccountActivitiesRequest{
		ActivityTypes: q.Types,
		After:         q.After,
		Until:         q.Until,
		PageSize:      q.Limit,
	}
	activities, err := call(ctx, func() ([]alpaca.AccountActivity, error) { return a.api.GetAccountActivities(req) })
	if err != nil {
		return nil, alpacaError(err)
	}
	list := make([]model.Activity, 0, len(activities))
	for _, act := range activities {
		list = append(list, model.Activity{
			ID:              act.ID,
			Type:            act.ActivityType,
			Symbol:          act.Symbol,
			Side:            string(act.Side),
			Qty:             act.Qty,
			Price:           act.Price,
			NetAmount:       act.NetAmount,
			OrderID:         act.OrderID,
			Description:     act.Description,
			TransactionTime: act.TransactionTime,
		})
	}
	return list, nil
}

// PlaceOrder 市价单；client_order_id 重复说明之前的请求已被券商接受，视为成功
func (a *Alpaca) PlaceOrder(ctx context.Context, order model.Order, b model.Broker) error {
	if b != model.BrokerAlpaca {
		return &Error{Broker: model.BrokerAlpaca, Cause: fmt.Sprintf("order routed to %s", b)}
	}
	side, ok := order.Side()
	if !ok {
		return &Error{Broker: model.BrokerAlpaca, Cause: fmt.Sprintf("alert type %s is not placeable", order.AlertType)}
	}

	qty := order.Qty
	symbol := order.Ticker
	if order.CurrencyType == model.CurrencyCrypto {
		symbol = utils.FormatSymbol(symbol)
	}
	req := alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &qty,
		Side:          alpaca.Side(side),
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: order.ClientOrderID,
	}
	if order.CurrencyType == model.CurrencyCrypto {
		req.TimeInForce = alpaca.GTC
	}

	_, err := call(ctx, func() (*alpaca.Order, error) { return a.api.PlaceOrder(req) })
	if err == nil {
		return nil
	}
	if isDuplicateClientOrderID(err) {
		if _, lookupErr := call(ctx, func() (*alpaca.Order, error) {
			return a.api.GetOrderByClientOrderID(order.ClientOrderID)
		}); lookupErr == nil {
			return nil
		}
	}
	return alpacaError(err)
}

func (a *Alpaca) CancelOrder(ctx context.Context, orderID string) error {
	_, err := call(ctx, func() (struct{}, error) { return struct{}{}, a.api.CancelOrder(orderID) })
	if err != nil {
		return alpacaError(err)
	}
	return nil
}

func (a *Alpaca) CancelAllOrders(ctx context.Context) error {
	_, err := call(ctx, func() (struct{}, error) { return struct{}{}, a.api.CancelAllOrders() })
	if err != nil {
		return alpacaError(err)
	}
	return nil
}

func toBrokerOrder(o alpaca.Order) model.BrokerOrder {
	return model.BrokerOrder{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          string(o.Side),
		Type:          string(o.Type),
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
	}
}

// call SDK 不接受 context，这里在 ctx 结束时提前返回
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func alpacaError(err error) *Error {
	be := newError(model.BrokerAlpaca, err)
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		be.Cause = fmt.Sprintf("%d %s", apiErr.StatusCode, apiErr.Message)
		be.InsufficientFunds = apiErr.StatusCode == http.StatusForbidden &&
			strings.Contains(strings.ToLower(apiErr.Message), "insufficient")
	}
	return be
}

func isDuplicateClientOrderID(err error) bool {
	var apiErr *alpaca.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnprocessableEntity &&
		strings.Contains(strings.ToLower(apiErr.Message), "client_order_id")
}
