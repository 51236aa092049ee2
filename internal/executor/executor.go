package executor

import (
	"alertflow/internal/broker"
	"alertflow/internal/model"
	"alertflow/pkg/logger"
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// State 单个信号的执行状态
// Pending -> Attempting -> Succeeded | Retrying -> Attempting | Failed
type State string

const (
	StatePending    State = "pending"
	StateAttempting State = "attempting"
	StateRetrying   State = "retrying"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Execution 一次信号执行的结果
type Execution struct {
	Order    model.Order
	Attempts int
	State    State
}

// Observer 每次下单尝试后回调，用于监控
type Observer interface {
	OnAttempt(order model.Order, attempt int, err error)
}

type Option func(*Executor)

// WithSleep 替换重试间隔的等待函数
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithNode 指定订单id生成节点
func WithNode(node *snowflake.Node) Option {
	return func(e *Executor) { e.node = node }
}

// Executor 带固定间隔重试的下单执行器，可被多个协程并发使用
type Executor struct {
	clients  broker.Selector
	node     *snowflake.Node
	sleep    func(ctx context.Context, d time.Duration) error
	observer Observer
	now      func() time.Time
}

func New(clients broker.Selector, opts ...Option) (*Executor, error) {
	e := &Executor{
		clients: clients,
		sleep:   sleepContext,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.node == nil {
		node, err := snowflake.NewNode(1)
		if err != nil {
			return nil, fmt.Errorf("create snowflake node: %w", err)
		}
		e.node = node
	}
	return e, nil
}

// NewOrder 为信号生成订单，重试期间复用
func (e *Executor) NewOrder(sig model.TradeSignal) model.Order {
	id := e.node.Generate()
	return model.Order{
		ID:            id.Int64(),
		ClientOrderID: "alertflow-" + id.String(),
		Broker:        sig.Strategy.Broker,
		Ticker:        sig.Ticker,
		AlertType:     sig.AlertType,
		Qty:           sig.Strategy.OrderQty,
		CurrencyType:  sig.Strategy.CurrencyType,
		CreatedAt:     e.now(),
	}
}

// Execute 下单，失败后按策略的 retry_delay 固定间隔重试，总次数为 max_retries+1。
// 没有总时限，调用方可以通过 ctx 控制。
func (e *Executor) Execute(ctx context.Context, sig model.TradeSignal) (Execution, error) {
	exec := Execution{Order: e.NewOrder(sig), State: StatePending}

	if _, ok := exec.Order.Side(); !ok {
		exec.State = StateFailed
		return exec, &UnsupportedAlertError{Order: exec.Order}
	}

	client, err := e.clients.For(sig.Strategy.Broker)
	if err != nil {
		exec.State = StateFailed
		return exec, err
	}

	maxRetries := int(sig.Strategy.MaxRetries)
	delay := sig.Strategy.RetryInterval()
	for {
		exec.State = StateAttempting
		exec.Attempts++
		err := client.PlaceOrder(ctx, exec.Order, sig.Strategy.Broker)
		if e.observer != nil {
			e.observer.OnAttempt(exec.Order, exec.Attempts, err)
		}
		if err == nil {
			exec.State = StateSucceeded
			logger.Infof("order %s placed on %s after %d attempt(s)", exec.Order, sig.Strategy.Broker, exec.Attempts)
			return exec, nil
		}

		if ctx.Err() != nil {
			exec.State = StateFailed
			return exec, fmt.Errorf("order %s aborted after %d attempt(s): %w", exec.Order, exec.Attempts, ctx.Err())
		}
		if exec.Attempts > maxRetries {
			exec.State = StateFailed
			return exec, &MaxRetriesReachedError{Order: exec.Order, Attempts: exec.Attempts, Last: err}
		}

		exec.State = StateRetrying
		logger.Warnf("order %s attempt %d/%d failed: %v, retry in %s",
			exec.Order, exec.Attempts, maxRetries+1, err, delay)
		if err := e.sleep(ctx, delay); err != nil {
			exec.State = StateFailed
			return exec, fmt.Errorf("order %s aborted after %d attempt(s): %w", exec.Order, exec.Attempts, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
