package dispatcher

import (
	"alertflow/internal/event"
	"alertflow/internal/executor"
	"alertflow/internal/model"
	"alertflow/pkg/logger"
	"context"
	"time"

	"go.uber.org/multierr"
)

// Outcome 一个事件处理完成后的结果
type Outcome struct {
	Kind      event.Kind
	Signal    model.TradeSignal  // 仅 signal 事件
	Action    *event.ActionEvent // 仅 action 事件
	Execution executor.Execution
	Err       error
	Duration  time.Duration
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Recorder 接收处理结果：日志、指标、落库、死信
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

type RecorderFunc func(ctx context.Context, o Outcome) error

func (f RecorderFunc) Record(ctx context.Context, o Outcome) error {
	return f(ctx, o)
}

// Recorders 依次调用所有 Recorder，合并错误
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, o Outcome) error {
	var err error
	for _, r := range rs {
		err = multierr.Append(err, r.Record(ctx, o))
	}
	return err
}

// LogRecorder 把结果写日志
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, o Outcome) error {
	switch o.Kind {
	case event.KindSignal:
		if o.Err != nil {
			logger.Error("signal execution failed",
				logger.Pair("strategy", o.Signal.Strategy.Name),
				logger.Pair("ticker", o.Signal.Ticker),
				logger.Pair("order", o.Execution.Order.String()),
				logger.Pair("attempts", o.Execution.Attempts),
				logger.Pair("cost", o.Duration.String()),
				logger.Pair("err", o.Err.Error()))
			return nil
		}
		logger.Info("signal executed",
			logger.Pair("strategy", o.Signal.Strategy.Name),
			logger.Pair("ticker", o.Signal.Ticker),
			logger.Pair("order", o.Execution.Order.String()),
			logger.Pair("attempts", o.Execution.Attempts),
			logger.Pair("cost", o.Duration.String()))
	case event.KindAction:
		if o.Action == nil {
			logger.Errorf("action failed: %v", o.Err)
			return nil
		}
		if o.Err != nil {
			logger.Errorf("action %s on %s failed: %v", o.Action.Action, o.Action.Broker, o.Err)
			return nil
		}
		logger.Infof("action %s on %s done", o.Action.Action, o.Action.Broker)
	}
	return nil
}
