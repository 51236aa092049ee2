package broker

import (
	"alertflow/conf"
	"alertflow/internal/model"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlpaca struct {
	mu       sync.Mutex
	placed   []alpaca.PlaceOrderRequest
	placeErr error
	lookup   *alpaca.Order
	orders   []alpaca.Order
	ordersRq alpaca.GetOrdersRequest
	canceled []string
	block    chan struct{}

	activities   []alpaca.AccountActivity
	activitiesRq alpaca.GetAccountActivitiesRequest
}

func (f *fakeAlpaca) GetAccount() (*alpaca.Account, error) {
	return &alpaca.Account{
		ID:          "acct-1",
		Currency:    "USD",
		Cash:        decimal.NewFromInt(1000),
		BuyingPower: decimal.NewFromInt(2000),
		Equity:      decimal.NewFromInt(1500),
	}, nil
}

func (f *fakeAlpaca) GetPositions() ([]alpaca.Position, error) {
	return []alpaca.Position{{Symbol: "AAPL", Side: "long", Qty: decimal.NewFromInt(3), AvgEntryPrice: decimal.RequireFromString("176.4")}}, nil
}

func (f *fakeAlpaca) GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error) {
	f.ordersRq = req
	return f.orders, nil
}

func (f *fakeAlpaca) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &alpaca.Order{ID: "o-1", ClientOrderID: req.ClientOrderID}, nil
}

func (f *fakeAlpaca) GetOrder(id string) (*alpaca.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, &alpaca.APIError{StatusCode: http.StatusNotFound, Message: "order not found"}
}

func (f *fakeAlpaca) GetAccountActivities(req alpaca.GetAccountActivitiesRequest) ([]alpaca.AccountActivity, error) {
	f.activitiesRq = req
	return f.activities, nil
}

func (f *fakeAlpaca) GetOrderByClientOrderID(id string) (*alpaca.Order, error) {
	if f.lookup == nil {
		return nil, errors.New("not found")
	}
	return f.lookup, nil
}

func (f *fakeAlpaca) CancelOrder(id string) error {
	f.canceled = append(f.canceled, id)
	return nil
}

func (f *fakeAlpaca) CancelAllOrders() error {
	f.canceled = append(f.canceled, "*")
	return nil
}

func testOrder(alert model.AlertType) model.Order {
	return model.Order{
		ID:            42,
		ClientOrderID: "af-42",
		Broker:        model.BrokerAlpaca,
		Ticker:        "AAPL",
		AlertType:     alert,
		Qty:           decimal.NewFromInt(2),
		CurrencyType:  model.CurrencyStock,
	}
}

func TestAlpaca_PlaceOrder(t *testing.T) {
	tests := []struct {
		name     string
		alert    model.AlertType
		currency model.CurrencyType
		side     alpaca.Side
		tif      alpaca.TimeInForce
	}{
		{name: "long buys", alert: model.AlertLong, currency: model.CurrencyStock, side: alpaca.Buy, tif: alpaca.Day},
		{name: "short sells", alert: model.AlertShort, currency: model.CurrencyStock, side: alpaca.Sell, tif: alpaca.Day},
		{name: "stop loss sells", alert: model.AlertStopLoss, currency: model.CurrencyStock, side: alpaca.Sell, tif: alpaca.Day},
		{name: "crypto uses gtc", alert: model.AlertLong, currency: model.CurrencyCrypto, side: alpaca.Buy, tif: alpaca.GTC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAlpaca{}
			order := testOrder(tt.alert)
			order.CurrencyType = tt.currency

			require.NoError(t, newAlpacaWithAPI(api).PlaceOrder(context.Background(), order, model.BrokerAlpaca))
			require.Len(t, api.placed, 1)

			req := api.placed[0]
			assert.Equal(t, "AAPL", req.Symbol)
			assert.Equal(t, tt.side, req.Side)
			assert.Equal(t, alpaca.Market, req.Type)
			assert.Equal(t, tt.tif, req.TimeInForce)
			assert.Equal(t, "af-42", req.ClientOrderID)
			require.NotNil(t, req.Qty)
			assert.True(t, decimal.NewFromInt(2).Equal(*req.Qty))
		})
	}
}

func TestAlpaca_PlaceOrder_CryptoSymbol(t *testing.T) {
	api := &fakeAlpaca{}
	order := testOrder(model.AlertShort)
	order.Ticker = "BTCUSD"
	order.CurrencyType = model.CurrencyCrypto

	require.NoError(t, newAlpacaWithAPI(api).PlaceOrder(context.Background(), order, model.BrokerAlpaca))
	require.Len(t, api.placed, 1)
	assert.Equal(t, "BTC/USD", api.placed[0].Symbol)
	assert.Equal(t, alpaca.GTC, api.placed[0].TimeInForce)
}

func TestAlpaca_PlaceOrder_UnknownAlert(t *testing.T) {
	api := &fakeAlpaca{}
	err := newAlpacaWithAPI(api).PlaceOrder(context.Background(), testOrder(model.AlertUnknown), model.BrokerAlpaca)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Contains(t, err.Error(), "Alpaca error:")
	assert.Empty(t, api.placed)
}

func TestAlpaca_PlaceOrder_DuplicateClientOrderID(t *testing.T) {
	api := &fakeAlpaca{
		placeErr: &alpaca.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "client_order_id must be unique"},
		lookup:   &alpaca.Order{ID: "o-1", ClientOrderID: "af-42"},
	}
	assert.NoError(t, newAlpacaWithAPI(api).PlaceOrder(context.Background(), testOrder(model.AlertLong), model.BrokerAlpaca))
}

func TestAlpaca_PlaceOrder_InsufficientFunds(t *testing.T) {
	api := &fakeAlpaca{
		placeErr: &alpaca.APIError{StatusCode: http.StatusForbidden, Message: "insufficient buying power"},
	}
	err := newAlpacaWithAPI(api).PlaceOrder(context.Background(), testOrder(model.AlertLong), model.BrokerAlpaca)
	require.Error(t, err)
	assert.True(t, IsInsufficientFunds(err))
	assert.Equal(t, "Alpaca error: 403 insufficient buying power", err.Error())
}

func TestAlpaca_PlaceOrder_GenericError(t *testing.T) {
	cause := errors.New("connection reset")
	api := &fakeAlpaca{placeErr: cause}
	err := newAlpacaWithAPI(api).PlaceOrder(context.Background(), testOrder(model.AlertLong), model.BrokerAlpaca)

	assert.Equal(t, "Alpaca error: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsInsufficientFunds(err))
}

func TestAlpaca_PlaceOrder_ContextCancel(t *testing.T) {
	api := &fakeAlpaca{block: make(chan struct{})}
	defer close(api.block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := newAlpacaWithAPI(api).PlaceOrder(ctx, testOrder(model.AlertLong), model.BrokerAlpaca)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAlpaca_Queries(t *testing.T) {
	api := &fakeAlpaca{orders: []alpaca.Order{{ID: "o-1", ClientOrderID: "af-1", Symbol: "AAPL", Side: alpaca.Buy, Type: alpaca.Market}}}
	a := newAlpacaWithAPI(api)
	ctx := context.Background()

	acct, err := a.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BrokerAlpaca, acct.Broker)
	assert.Equal(t, "acct-1", acct.ID)
	assert.True(t, decimal.NewFromInt(2000).Equal(acct.BuyingPower))

	positions, err := a.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Symbol)

	orders, err := a.GetOrders(ctx, model.OrderQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "buy", orders[0].Side)
	assert.Equal(t, "open", api.ordersRq.Status)
	assert.Equal(t, 10, api.ordersRq.Limit)

	require.NoError(t, a.CancelOrder(ctx, "o-1"))
	require.NoError(t, a.CancelAllOrders(ctx))
	assert.Equal(t, []string{"o-1", "*"}, api.canceled)
}

func TestAlpaca_GetOrder(t *testing.T) {
	api := &fakeAlpaca{
		orders: []alpaca.Order{{ID: "o-1", ClientOrderID: "alertflow-1", Symbol: "AAPL", Side: alpaca.Sell, Status: "filled"}},
		lookup: &alpaca.Order{ID: "o-1", ClientOrderID: "alertflow-1", Symbol: "AAPL", Side: alpaca.Sell, Status: "filled"},
	}
	a := newAlpacaWithAPI(api)
	ctx := context.Background()

	o, err := a.GetOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "alertflow-1", o.ClientOrderID)
	assert.Equal(t, "sell", o.Side)
	assert.Equal(t, "filled", o.Status)

	_, err = a.GetOrder(ctx, "missing")
	assert.EqualError(t, err, "Alpaca error: 404 order not found")

	o, err = a.GetOrderByClientOrderID(ctx, "alertflow-1")
	require.NoError(t, err)
	assert.Equal(t, "o-1", o.ID)

	api.lookup = nil
	_, err = a.GetOrderByClientOrderID(ctx, "alertflow-2")
	assert.Error(t, err)
}

func TestAlpaca_GetActivities(t *testing.T) {
	at := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	api := &fakeAlpaca{activities: []alpaca.AccountActivity{{
		ID:              "20240301::1",
		ActivityType:    "FILL",
		Symbol:          "AAPL",
		Side:            "buy",
		Qty:             decimal.NewFromInt(2),
		Price:           decimal.RequireFromString("176.4"),
		OrderID:         "o-1",
		TransactionTime: at,
	}}}
	after := at.Add(-time.Hour)

	list, err := newAlpacaWithAPI(api).GetActivities(context.Background(),
		model.ActivityQuery{Types: []string{"FILL"}, After: after, Limit: 50})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "FILL", list[0].Type)
	assert.Equal(t, "buy", list[0].Side)
	assert.Equal(t, "o-1", list[0].OrderID)
	assert.True(t, decimal.RequireFromString("176.4").Equal(list[0].Price))
	assert.Equal(t, at, list[0].TransactionTime)

	assert.Equal(t, []string{"FILL"}, api.activitiesRq.ActivityTypes)
	assert.Equal(t, after, api.activitiesRq.After)
	assert.Equal(t, 50, api.activitiesRq.PageSize)
}

func TestAlpaca_ClientOptsDisableSDKRetry(t *testing.T) {
	opts := clientOpts(conf.AlpacaConfig{KeyID: "k", SecretKey: "s", BaseURL: "https://paper-api.alpaca.markets"})
	assert.Equal(t, "k", opts.APIKey)
	assert.Equal(t, "s", opts.APISecret)
	assert.Less(t, opts.RetryLimit, 0)
}
