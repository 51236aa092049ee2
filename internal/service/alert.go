package service

import (
	"alertflow/internal/dao"
	"alertflow/internal/event"
	"alertflow/internal/model"
	"alertflow/internal/model/entity"
	"alertflow/internal/signal"
	"alertflow/pkg/errors"
	"alertflow/pkg/errors/ecode"
	"alertflow/pkg/logger"
	"alertflow/pkg/metrics"
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// 告警入库的时限，和派发无关
const persistTimeout = 5 * time.Second

// Sender 事件总线的发送端
type Sender interface {
	Send(ev event.Event) error
}

// AlertService 告警入口：校验 -> 去重 -> 投递 -> 入库
// webhook 和 kafka 消费者共用
type AlertService struct {
	finder   signal.Finder
	bus      Sender
	dao      dao.AlertDao
	dedup    dao.AlertDedup // 可为空
	dedupTTL time.Duration
	node     *snowflake.Node

	wg sync.WaitGroup
}

type AlertOption func(*AlertService)

// WithDedup 开启重复告警过滤
func WithDedup(d dao.AlertDedup, ttl time.Duration) AlertOption {
	return func(s *AlertService) {
		s.dedup = d
		s.dedupTTL = ttl
	}
}

func NewAlertService(finder signal.Finder, bus Sender, alertDao dao.AlertDao, node *snowflake.Node, opts ...AlertOption) *AlertService {
	s := &AlertService{
		finder: finder,
		bus:    bus,
		dao:    alertDao,
		node:   node,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept 同步校验并投递，返回后信号由调度器异步执行
func (s *AlertService) Accept(ctx context.Context, raw model.RawAlert) (model.TradeSignal, error) {
	sig, err := signal.Build(raw, s.finder)
	if err != nil {
		metrics.AlertsTotal.WithLabelValues("rejected").Inc()
		logger.Warnf("reject alert for %s: %v", raw.Ticker, err)
		return sig, errors.Wrap(err, ecode.ValidateErr, "invalid alert")
	}

	// 占用的去重 key，投递失败时释放
	var claimed string
	if s.dedup != nil && s.dedupTTL > 0 {
		key := DedupKey(raw)
		seen, err := s.dedup.Seen(ctx, key, s.dedupTTL)
		switch {
		case err != nil:
			// redis 不可用时不拦截
			logger.Warnf("alert dedup unavailable: %v", err)
		case seen:
			metrics.AlertsTotal.WithLabelValues("duplicate").Inc()
			return sig, errors.WithCode(ecode.DuplicateErr, "duplicate alert")
		default:
			claimed = key
		}
	}

	if err := s.bus.Send(event.SignalEvent{Signal: sig}); err != nil {
		if stderrors.Is(err, event.ErrBusClosed) {
			logger.Errorf("drop alert %s %s for strategy %s: %v", sig.Ticker, sig.AlertType, sig.Strategy.Name, err)
		}
		if claimed != "" {
			if ferr := s.dedup.Forget(context.WithoutCancel(ctx), claimed); ferr != nil {
				logger.Warnf("release dedup key for %s: %v", sig.Ticker, ferr)
			}
		}
		metrics.AlertsTotal.WithLabelValues("unavailable").Inc()
		return sig, errors.Wrap(err, ecode.UnavailableErr, "service unavailable")
	}
	metrics.AlertsTotal.WithLabelValues("accepted").Inc()
	logger.Infof("alert accepted: strategy=%s ticker=%s type=%s", sig.Strategy.Name, sig.Ticker, sig.AlertType)

	s.persist(sig)
	return sig, nil
}

// persist 异步入库，失败只记录日志
func (s *AlertService) persist(sig model.TradeSignal) {
	if s.dao == nil {
		return
	}
	record := NewAlertEntity(s.node.Generate().Int64(), sig)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.dao.Create(ctx, record); err != nil {
			logger.Errorf("save alert %d error: %v", record.AlertID, err)
		}
	}()
}

// Wait 等待未完成的入库
func (s *AlertService) Wait() {
	s.wg.Wait()
}

// List 分页查询已保存的告警
func (s *AlertService) List(ctx context.Context, limit, offset int) ([]entity.AlertRecord, int64, error) {
	if s.dao == nil {
		return nil, 0, errors.WithCode(ecode.UnavailableErr, "alert storage disabled")
	}
	return s.dao.List(ctx, limit, offset)
}

// DedupKey 同一策略、品种、类型、触发时间视为同一告警
func DedupKey(raw model.RawAlert) string {
	name := raw.StrategyID + "|" + raw.Ticker + "|" + raw.AlertType.String() + "|" + strconv.FormatInt(raw.Time.UnixMilli(), 10)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func NewAlertEntity(id int64, sig model.TradeSignal) *entity.AlertRecord {
	return &entity.AlertRecord{
		AlertID:       id,
		StrategyName:  sig.Strategy.Name,
		Ticker:        sig.Ticker,
		Timeframe:     sig.Timeframe,
		Exchange:      sig.Exchange,
		AlertType:     sig.AlertType.String(),
		BarTime:       sig.Bar.Time,
		BarOpen:       sig.Bar.Open.String(),
		BarHigh:       sig.Bar.High.String(),
		BarLow:        sig.Bar.Low.String(),
		BarClose:      sig.Bar.Close.String(),
		BarVolume:     sig.Bar.Volume.String(),
		AlertFireTime: sig.FireTime,
	}
}
