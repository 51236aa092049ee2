package model

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// AlertType 告警类型，线上格式为 snake_case，无法识别的值一律视为 unknown
type AlertType string

const (
	AlertLong     AlertType = "long"
	AlertShort    AlertType = "short"
	AlertStopLoss AlertType = "stop_loss"
	AlertUnknown  AlertType = "unknown"
)

// ParseAlertType 大小写不敏感
func ParseAlertType(s string) AlertType {
	switch t := AlertType(strings.ToLower(strings.TrimSpace(s))); t {
	case AlertLong, AlertShort, AlertStopLoss:
		return t
	default:
		return AlertUnknown
	}
}

func (t *AlertType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseAlertType(s)
	return nil
}

func (t AlertType) String() string {
	if t == "" {
		return string(AlertUnknown)
	}
	return string(t)
}

// BarData K线数据，价格使用定点小数
type BarData struct {
	Time   time.Time       `json:"time" binding:"required"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// RawAlert webhook 原始告警，webhook_key 即策略 id
//
//	{
//	  "webhook_key": "<strategy id>",
//	  "time": "{{timenow}}",
//	  "exchange": "{{exchange}}",
//	  "ticker": "{{ticker}}",
//	  "timeframe": "{{interval}}",
//	  "type": "long",
//	  "bar": {"time": "{{time}}", "open": "{{open}}", "high": "{{high}}",
//	          "low": "{{low}}", "close": "{{close}}", "volume": "{{volume}}"}
//	}
type RawAlert struct {
	StrategyID string    `json:"webhook_key" binding:"required"`
	Ticker     string    `json:"ticker" binding:"required"`
	Timeframe  string    `json:"timeframe"`
	Exchange   string    `json:"exchange"`
	AlertType  AlertType `json:"type" binding:"required"`
	Bar        BarData   `json:"bar"`
	Time       time.Time `json:"time" binding:"required"`
}

// TradeSignal 校验通过、绑定了策略快照的交易信号
type TradeSignal struct {
	Ticker    string    `json:"ticker"`
	Timeframe string    `json:"timeframe"`
	Exchange  string    `json:"exchange"`
	AlertType AlertType `json:"alert_type"`
	Bar       BarData   `json:"bar"`
	FireTime  time.Time `json:"fire_time"`
	Strategy  Strategy  `json:"strategy"`
}
