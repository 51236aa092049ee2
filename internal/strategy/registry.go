package strategy

import (
	"alertflow/conf"
	"alertflow/internal/model"
	"alertflow/utils/uuid"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Registry 策略注册表，构造后只读，可在多个协程间无锁共享
type Registry struct {
	strategies map[string]model.Strategy
}

// NewRegistry 注册全部策略，id 重复时报错
func NewRegistry(strategies ...model.Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[string]model.Strategy, len(strategies))}
	for _, s := range strategies {
		if _, ok := r.strategies[s.ID]; ok {
			return nil, fmt.Errorf("duplicate strategy id %s (%s)", s.ID, s.Name)
		}
		r.strategies[s.ID] = s
	}
	return r, nil
}

// Find 按 id 查找策略，返回值是副本
func (r *Registry) Find(id string) (model.Strategy, bool) {
	s, ok := r.strategies[id]
	return s, ok
}

// All 按名称排序返回全部策略
func (r *Registry) All() []model.Strategy {
	list := make([]model.Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func (r *Registry) Len() int {
	return len(r.strategies)
}

// FromConfig 把配置转换为策略模型
func FromConfig(cfgs []conf.StrategyConfig) ([]model.Strategy, error) {
	list := make([]model.Strategy, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := fromConfig(c)
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", c.Name, err)
		}
		list = append(list, s)
	}
	return list, nil
}

func fromConfig(c conf.StrategyConfig) (model.Strategy, error) {
	if !uuid.IsValid(c.ID) {
		return model.Strategy{}, fmt.Errorf("invalid id %q", c.ID)
	}
	broker, ok := model.ParseBroker(c.Broker)
	if !ok {
		return model.Strategy{}, fmt.Errorf("unsupported broker %q", c.Broker)
	}

	ct := model.CurrencyType(c.CurrencyType)
	switch ct {
	case "":
		ct = model.CurrencyStock
	case model.CurrencyStock, model.CurrencyCrypto:
	default:
		return model.Strategy{}, fmt.Errorf("unsupported currency_type %q", c.CurrencyType)
	}

	if c.OrderRetryDelay < 0 {
		return model.Strategy{}, fmt.Errorf("order_retry_delay must be >= 0")
	}

	qty := decimal.NewFromInt(1)
	if c.OrderQty != "" {
		var err error
		if qty, err = decimal.NewFromString(c.OrderQty); err != nil {
			return model.Strategy{}, fmt.Errorf("invalid order_qty %q: %w", c.OrderQty, err)
		}
	}
	if !qty.IsPositive() {
		return model.Strategy{}, fmt.Errorf("order_qty must be positive")
	}

	return model.Strategy{
		ID:           c.ID,
		Name:         c.Name,
		Enabled:      c.Enabled,
		Broker:       broker,
		CurrencyType: ct,
		MaxRetries:   c.MaxOrderRetries,
		RetryDelay:   c.OrderRetryDelay,
		OrderQty:     qty,
	}, nil
}
