package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// Order 由重试执行器为每个信号创建一次，所有重试复用同一个 Order
type Order struct {
	ID            int64           `json:"id"`
	ClientOrderID string          `json:"client_order_id"` // 幂等键，券商按它去重
	Broker        Broker          `json:"broker"`
	Ticker        string          `json:"ticker"`
	AlertType     AlertType       `json:"order_type"`
	Qty           decimal.Decimal `json:"qty"`
	CurrencyType  CurrencyType    `json:"currency_type"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Side 根据告警类型推导下单方向，unknown 不可下单
func (o Order) Side() (OrderSide, bool) {
	switch o.AlertType {
	case AlertLong:
		return Buy, true
	case AlertShort, AlertStopLoss:
		return Sell, true
	default:
		return "", false
	}
}

func (o Order) String() string {
	return fmt.Sprintf("{ id: %d, ticker: %s, type: %s }", o.ID, o.Ticker, o.AlertType)
}

// OrderQuery 查询券商订单
type OrderQuery struct {
	Status string `form:"status"` // open / closed / all
	Limit  int    `form:"limit"`
}

// BrokerOrder 券商侧订单
type BrokerOrder struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ActivityQuery 查询账户流水
type ActivityQuery struct {
	Types []string  // FILL / DIV / TRANS ...，为空表示全部
	After time.Time // 不含
	Until time.Time // 不含
	Limit int
}

// Activity 账户流水：成交、分红、出入金等
type Activity struct {
	ID              string          `json:"id"`
	Type            string          `json:"activity_type"`
	Symbol          string          `json:"symbol,omitempty"`
	Side            string          `json:"side,omitempty"`
	Qty             decimal.Decimal `json:"qty"`
	Price           decimal.Decimal `json:"price"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	OrderID         string          `json:"order_id,omitempty"`
	Description     string          `json:"description,omitempty"`
	TransactionTime time.Time       `json:"transaction_time"`
}
