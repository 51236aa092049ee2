package dispatcher

import (
	"alertflow/internal/broker"
	"alertflow/internal/event"
	"alertflow/internal/executor"
	"alertflow/internal/model"
	"alertflow/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// 事件调度：从总线取事件，每个事件一个协程
// webhook ---> Bus ---> Dispatcher ---> Executor ---> broker.Client

// SignalExecutor 执行一个交易信号
type SignalExecutor interface {
	Execute(ctx context.Context, sig model.TradeSignal) (executor.Execution, error)
}

type Option func(*Dispatcher)

// WithSignalTimeout 单个信号(含所有重试)的时限，0 表示不限制
func WithSignalTimeout(d time.Duration) Option {
	return func(ds *Dispatcher) { ds.signalTimeout = d }
}

type Dispatcher struct {
	bus      *event.Bus
	executor SignalExecutor
	clients  broker.Selector
	recorder Recorder

	signalTimeout time.Duration

	// 在途事件使用的 ctx，Shutdown 超时后取消
	workCtx    context.Context
	cancelWork context.CancelFunc

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closing bool
	running chan struct{}
	stopped chan struct{}
}

func New(bus *event.Bus, exec SignalExecutor, clients broker.Selector, recorder Recorder, opts ...Option) *Dispatcher {
	if recorder == nil {
		recorder = LogRecorder{}
	}
	workCtx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		bus:        bus,
		executor:   exec,
		clients:    clients,
		recorder:   recorder,
		workCtx:    workCtx,
		cancelWork: cancel,
		running:    make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run 阻塞直到总线关闭且取空，或 ctx 被取消。
// 返回前不等待在途事件，等待由 Shutdown 负责。
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.started || d.closing {
		d.mu.Unlock()
		return errors.New("dispatcher already running or shut down")
	}
	d.started = true
	close(d.running)
	d.mu.Unlock()
	defer close(d.stopped)

	logger.Info("dispatcher started")
	for {
		ev, err := d.bus.Receive(ctx)
		if err != nil {
			if errors.Is(err, event.ErrBusClosed) {
				logger.Info("event bus closed, dispatcher stop receiving")
				return nil
			}
			return err
		}
		d.wg.Add(1)
		go d.handle(ev)
	}
}

// Shutdown 关闭总线，等待已接收的事件处理完。
// ctx 到期后取消在途事件并返回 ctx.Err()。
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closing = true
	started := d.started
	d.mu.Unlock()
	d.bus.Close()

	done := make(chan struct{})
	go func() {
		if started {
			<-d.stopped
		}
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancelWork()
		logger.Info("dispatcher drained")
		return nil
	case <-ctx.Done():
		d.cancelWork()
		logger.Warnf("dispatcher shutdown timeout, %d pending event(s) dropped", d.bus.Len())
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) handle(ev event.Event) {
	defer d.wg.Done()
	start := time.Now()
	var o Outcome
	defer func() {
		if r := recover(); r != nil {
			o = Outcome{Kind: ev.Kind(), Err: fmt.Errorf("panic: %v", r)}
			// 保留信号和动作，死信和执行记录仍能定位到来源
			switch e := ev.(type) {
			case event.SignalEvent:
				o.Signal = e.Signal
			case event.ActionEvent:
				o.Action = &e
			}
			logger.Errorf("dispatcher handle %s event panic: %v", ev.Kind(), r)
		}
		o.Duration = time.Since(start)
		// 处理失败不会重新投递到总线
		if err := d.recorder.Record(context.WithoutCancel(d.workCtx), o); err != nil {
			logger.Warnf("record %s outcome error: %v", o.Kind, err)
		}
	}()

	switch e := ev.(type) {
	case event.SignalEvent:
		o = d.handleSignal(e)
	case event.ActionEvent:
		o = d.handleAction(e)
	case event.StrategyUpdateEvent:
		logger.Infof("strategy %s updated, ignored", e.StrategyID)
		o = Outcome{Kind: e.Kind()}
	default:
		o = Outcome{Kind: ev.Kind(), Err: fmt.Errorf("unhandled event %T", ev)}
	}
}

func (d *Dispatcher) handleSignal(e event.SignalEvent) Outcome {
	ctx := d.workCtx
	if d.signalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.signalTimeout)
		defer cancel()
	}
	exec, err := d.executor.Execute(ctx, e.Signal)
	return Outcome{Kind: e.Kind(), Signal: e.Signal, Execution: exec, Err: err}
}

func (d *Dispatcher) handleAction(e event.ActionEvent) Outcome {
	o := Outcome{Kind: e.Kind(), Action: &e}
	client, err := d.clients.For(e.Broker)
	if err != nil {
		o.Err = err
		return o
	}
	switch e.Action {
	case event.ActionCancelOrder:
		o.Err = client.CancelOrder(d.workCtx, e.OrderID)
	case event.ActionCancelAllOrders:
		o.Err = client.CancelAllOrders(d.workCtx)
	default:
		o.Err = fmt.Errorf("unknown action %q", e.Action)
	}
	return o
}
