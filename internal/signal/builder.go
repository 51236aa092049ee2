package signal

import "alertflow/internal/model"

// Finder 策略查找，由 strategy.Registry 实现
type Finder interface {
	Find(id string) (model.Strategy, bool)
}

// Build 校验原始告警并生成交易信号，同步执行，不做任何 I/O
func Build(raw model.RawAlert, finder Finder) (model.TradeSignal, error) {
	s, ok := finder.Find(raw.StrategyID)
	if !ok {
		return model.TradeSignal{}, &UnknownStrategyError{ID: raw.StrategyID}
	}
	if !s.Enabled {
		return model.TradeSignal{}, &StrategyDisabledError{Name: s.Name, ID: s.ID}
	}

	return model.TradeSignal{
		Ticker:    raw.Ticker,
		Timeframe: raw.Timeframe,
		Exchange:  raw.Exchange,
		AlertType: raw.AlertType,
		Bar:       raw.Bar,
		FireTime:  raw.Time,
		Strategy:  s,
	}, nil
}
