package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Broker 券商标识，新增券商时扩展这里
type Broker string

const (
	BrokerAlpaca Broker = "alpaca"
)

// Brokers 当前支持的全部券商
var Brokers = []Broker{BrokerAlpaca}

// ParseBroker 大小写不敏感
func ParseBroker(s string) (Broker, bool) {
	b := Broker(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Brokers {
		if b == known {
			return b, true
		}
	}
	return "", false
}

// DisplayName 用于错误信息
func (b Broker) DisplayName() string {
	switch b {
	case BrokerAlpaca:
		return "Alpaca"
	default:
		return string(b)
	}
}

type CurrencyType string

const (
	CurrencyStock  CurrencyType = "stock"
	CurrencyCrypto CurrencyType = "crypto"
)

// Strategy 策略配置，启动时加载，运行期只读
type Strategy struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Enabled      bool            `json:"enabled"`
	Broker       Broker          `json:"broker"`
	CurrencyType CurrencyType    `json:"currency_type"`
	MaxRetries   uint8           `json:"max_retries"`
	RetryDelay   float64         `json:"retry_delay"` // 秒
	OrderQty     decimal.Decimal `json:"order_qty"`
}

// RetryInterval 两次下单尝试之间的固定间隔
func (s Strategy) RetryInterval() time.Duration {
	if s.RetryDelay <= 0 {
		return 0
	}
	return time.Duration(s.RetryDelay * float64(time.Second))
}

// MaxAttempts 总尝试次数 = 首次 + 重试次数
func (s Strategy) MaxAttempts() int {
	return int(s.MaxRetries) + 1
}
