package dispatcher

import (
	"alertflow/internal/broker"
	"alertflow/internal/dao"
	"alertflow/internal/event"
	"alertflow/internal/executor"
	"alertflow/internal/model"
	"alertflow/internal/model/entity"
	"alertflow/pkg/kafka"
	"alertflow/pkg/metrics"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// ExecutionRecorder 把信号执行终态写入数据库
type ExecutionRecorder struct {
	dao     dao.ExecutionDao
	marshal func(v any) ([]byte, error)
}

func NewExecutionRecorder(d dao.ExecutionDao) *ExecutionRecorder {
	return &ExecutionRecorder{dao: d, marshal: json.Marshal}
}

func (r *ExecutionRecorder) Record(ctx context.Context, o Outcome) error {
	if o.Kind != event.KindSignal || o.Execution.Order.ID == 0 {
		return nil
	}
	snapshot, err := r.marshal(o.Signal.Strategy)
	if err != nil {
		return fmt.Errorf("marshal strategy snapshot of order %s: %w", o.Execution.Order, err)
	}
	return r.dao.Save(ctx, NewExecutionEntity(o, snapshot))
}

// NewExecutionEntity 结果转数据库记录，snapshot 为执行时的策略快照
func NewExecutionEntity(o Outcome, snapshot []byte) *entity.ExecutionRecord {
	order := o.Execution.Order
	rec := &entity.ExecutionRecord{
		OrderID:       order.ID,
		ClientOrderID: order.ClientOrderID,
		StrategyID:    o.Signal.Strategy.ID,
		StrategyName:  o.Signal.Strategy.Name,
		Broker:        string(o.Signal.Strategy.Broker),
		Ticker:        o.Signal.Ticker,
		AlertType:     o.Signal.AlertType.String(),
		State:         string(o.Execution.State),
		Attempts:      o.Execution.Attempts,
		Strategy:      datatypes.JSON(snapshot),
		DurationMs:    o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	return rec
}

// DeadLetter 执行失败的信号，写入死信 topic 供人工处理
type DeadLetter struct {
	Signal    model.TradeSignal `json:"signal"`
	Order     model.Order       `json:"order"`
	Attempts  int               `json:"attempts"`
	Error     string            `json:"error"`
	Retryable bool              `json:"retryable"`
	FailedAt  time.Time         `json:"failed_at"`
}

// DeadLetterRecorder 只处理失败的信号
type DeadLetterRecorder struct {
	producer kafka.ProducerService
	topic    string
	now      func() time.Time
}

func NewDeadLetterRecorder(p kafka.ProducerService, topic string) *DeadLetterRecorder {
	return &DeadLetterRecorder{producer: p, topic: topic, now: time.Now}
}

func (r *DeadLetterRecorder) Record(ctx context.Context, o Outcome) error {
	if o.Kind != event.KindSignal || o.Err == nil {
		return nil
	}
	var unsupported *executor.UnsupportedAlertError
	letter := DeadLetter{
		Signal:    o.Signal,
		Order:     o.Execution.Order,
		Attempts:  o.Execution.Attempts,
		Error:     o.Err.Error(),
		Retryable: !broker.IsInsufficientFunds(o.Err) && !errors.As(o.Err, &unsupported),
		FailedAt:  r.now(),
	}
	value, err := json.Marshal(letter)
	if err != nil {
		return err
	}
	key := []byte(strconv.FormatInt(o.Execution.Order.ID, 10))
	return r.producer.Produce(ctx, r.topic, key, value)
}

// MetricsRecorder 统计终态和耗时
type MetricsRecorder struct{}

func (MetricsRecorder) Record(_ context.Context, o Outcome) error {
	switch o.Kind {
	case event.KindSignal:
		state := string(o.Execution.State)
		if state == "" || (o.Err != nil && state != string(executor.StateFailed)) {
			state = string(executor.StateFailed)
		}
		metrics.SignalsTotal.WithLabelValues(o.Signal.Strategy.Name, state).Inc()
		metrics.SignalDuration.WithLabelValues(o.Signal.Strategy.Name).Observe(o.Duration.Seconds())
	case event.KindAction:
		action := "unknown"
		if o.Action != nil {
			action = string(o.Action.Action)
		}
		res := "ok"
		if o.Err != nil {
			res = "error"
		}
		metrics.ActionsTotal.WithLabelValues(action, res).Inc()
	}
	return nil
}

// JournalEntry 本地执行流水的一行
type JournalEntry struct {
	Kind       event.Kind `json:"kind"`
	Strategy   string     `json:"strategy,omitempty"`
	Ticker     string     `json:"ticker,omitempty"`
	AlertType  string     `json:"alert_type,omitempty"`
	Order      string     `json:"order,omitempty"`
	Attempts   int        `json:"attempts"`
	State      string     `json:"state,omitempty"`
	Action     string     `json:"action,omitempty"`
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	At         time.Time  `json:"at"`
}

// Journal 追加写 JSON 对象
type Journal interface {
	Record(v any) error
}

// JournalRecorder 把所有结果写入本地 JSON lines 文件
type JournalRecorder struct {
	journal Journal
	now     func() time.Time
}

func NewJournalRecorder(j Journal) *JournalRecorder {
	return &JournalRecorder{journal: j, now: time.Now}
}

func (r *JournalRecorder) Record(_ context.Context, o Outcome) error {
	entry := JournalEntry{
		Kind:       o.Kind,
		Attempts:   o.Execution.Attempts,
		DurationMs: o.Duration.Milliseconds(),
		At:         r.now(),
	}
	if o.Kind == event.KindSignal {
		entry.Strategy = o.Signal.Strategy.Name
		entry.Ticker = o.Signal.Ticker
		entry.AlertType = o.Signal.AlertType.String()
		entry.State = string(o.Execution.State)
		if o.Execution.Order.ID != 0 {
			entry.Order = o.Execution.Order.String()
		}
	}
	if o.Action != nil {
		entry.Action = string(o.Action.Action)
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
	}
	return r.journal.Record(entry)
}
