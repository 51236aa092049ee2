package service

import (
	"alertflow/internal/dao"
	"alertflow/internal/event"
	"alertflow/internal/model"
	"alertflow/internal/model/entity"
	"alertflow/internal/strategy"
	"alertflow/pkg/errors"
	"alertflow/pkg/errors/ecode"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	enabledID  = "3f1c2a4e-6b7d-4c8e-9f10-1a2b3c4d5e6f"
	disabledID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

func testRegistry(t *testing.T) *strategy.Registry {
	t.Helper()
	r, err := strategy.NewRegistry(
		model.Strategy{ID: enabledID, Name: "aapl-5m", Enabled: true, Broker: model.BrokerAlpaca, OrderQty: decimal.NewFromInt(1)},
		model.Strategy{ID: disabledID, Name: "paused", Enabled: false, Broker: model.BrokerAlpaca, OrderQty: decimal.NewFromInt(1)},
	)
	require.NoError(t, err)
	return r
}

func testRaw(id string) model.RawAlert {
	ts := time.Date(2023, 9, 14, 15, 55, 0, 0, time.UTC)
	return model.RawAlert{
		StrategyID: id,
		Ticker:     "AAPL",
		Timeframe:  "5m",
		Exchange:   "NASDAQ",
		AlertType:  model.AlertLong,
		Bar: model.BarData{
			Time:   ts,
			Open:   decimal.RequireFromString("176.55"),
			High:   decimal.RequireFromString("176.58"),
			Low:    decimal.RequireFromString("176.20"),
			Close:  decimal.RequireFromString("176.40"),
			Volume: decimal.RequireFromString("113.629"),
		},
		Time: ts,
	}
}

type memAlertDao struct {
	mu      sync.Mutex
	created []*entity.AlertRecord
	err     error
}

func (d *memAlertDao) Create(_ context.Context, a *entity.AlertRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.created = append(d.created, a)
	return nil
}

func (d *memAlertDao) List(_ context.Context, limit, offset int) ([]entity.AlertRecord, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []entity.AlertRecord
	for i := offset; i < len(d.created) && len(out) < limit; i++ {
		out = append(out, *d.created[i])
	}
	return out, int64(len(d.created)), nil
}

type memDedup struct {
	seen map[string]bool
	err  error
}

func (d *memDedup) Seen(_ context.Context, key string, _ time.Duration) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func (d *memDedup) Forget(_ context.Context, key string) error {
	delete(d.seen, key)
	return nil
}

var _ dao.AlertDedup = (*memDedup)(nil)

func newService(t *testing.T, bus Sender, d dao.AlertDao, opts ...AlertOption) *AlertService {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	return NewAlertService(testRegistry(t), bus, d, node, opts...)
}

func TestAccept_SendsAndPersists(t *testing.T) {
	bus := event.NewBus()
	d := &memAlertDao{}
	s := newService(t, bus, d)

	sig, err := s.Accept(context.Background(), testRaw(enabledID))
	require.NoError(t, err)
	assert.Equal(t, "aapl-5m", sig.Strategy.Name)
	assert.Equal(t, 1, bus.Len())

	ev, err := bus.Receive(context.Background())
	require.NoError(t, err)
	se, ok := ev.(event.SignalEvent)
	require.True(t, ok)
	assert.Equal(t, sig, se.Signal)

	s.Wait()
	require.Len(t, d.created, 1)
	rec := d.created[0]
	assert.NotZero(t, rec.AlertID)
	assert.Equal(t, "AAPL", rec.Ticker)
	assert.Equal(t, "long", rec.AlertType)
	assert.Equal(t, "176.4", rec.BarClose)
	assert.Equal(t, "113.629", rec.BarVolume)
}

func TestAccept_ValidationErrorsNeverReachBus(t *testing.T) {
	bus := event.NewBus()
	d := &memAlertDao{}
	s := newService(t, bus, d)

	for _, id := range []string{disabledID, "00000000-0000-0000-0000-000000000000"} {
		_, err := s.Accept(context.Background(), testRaw(id))
		require.Error(t, err)
		assert.Equal(t, ecode.ValidateErr, errors.Code(err))
	}
	assert.Equal(t, 0, bus.Len())
	s.Wait()
	assert.Empty(t, d.created)
}

func TestAccept_Duplicate(t *testing.T) {
	bus := event.NewBus()
	s := newService(t, bus, nil, WithDedup(&memDedup{seen: map[string]bool{}}, time.Minute))

	_, err := s.Accept(context.Background(), testRaw(enabledID))
	require.NoError(t, err)
	_, err = s.Accept(context.Background(), testRaw(enabledID))
	assert.Equal(t, ecode.DuplicateErr, errors.Code(err))

	other := testRaw(enabledID)
	other.AlertType = model.AlertShort
	_, err = s.Accept(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, bus.Len())
}

func TestAccept_DedupFailOpen(t *testing.T) {
	bus := event.NewBus()
	s := newService(t, bus, nil, WithDedup(&memDedup{err: stderrors.New("redis down")}, time.Minute))

	for i := 0; i < 2; i++ {
		_, err := s.Accept(context.Background(), testRaw(enabledID))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, bus.Len())
}

func TestAccept_BusClosed(t *testing.T) {
	bus := event.NewBus()
	bus.Close()
	d := &memAlertDao{}
	s := newService(t, bus, d)

	_, err := s.Accept(context.Background(), testRaw(enabledID))
	assert.Equal(t, ecode.UnavailableErr, errors.Code(err))
	assert.ErrorIs(t, err, event.ErrBusClosed)
	s.Wait()
	assert.Empty(t, d.created)
}

func TestAccept_BusClosedReleasesDedupKey(t *testing.T) {
	dedup := &memDedup{seen: map[string]bool{}}

	closed := event.NewBus()
	closed.Close()
	s := newService(t, closed, nil, WithDedup(dedup, time.Minute))
	_, err := s.Accept(context.Background(), testRaw(enabledID))
	assert.Equal(t, ecode.UnavailableErr, errors.Code(err))
	assert.Empty(t, dedup.seen)

	// 另一个实例共用同一个去重存储，重发的告警必须能被投递
	healthy := event.NewBus()
	s = newService(t, healthy, nil, WithDedup(dedup, time.Minute))
	_, err = s.Accept(context.Background(), testRaw(enabledID))
	require.NoError(t, err)
	assert.Equal(t, 1, healthy.Len())

	_, err = s.Accept(context.Background(), testRaw(enabledID))
	assert.Equal(t, ecode.DuplicateErr, errors.Code(err))
}

func TestAccept_PersistFailureDoesNotAffectDispatch(t *testing.T) {
	bus := event.NewBus()
	s := newService(t, bus, &memAlertDao{err: stderrors.New("db down")})

	_, err := s.Accept(context.Background(), testRaw(enabledID))
	require.NoError(t, err)
	s.Wait()
	assert.Equal(t, 1, bus.Len())
}

func TestDedupKey(t *testing.T) {
	a := testRaw(enabledID)
	b := testRaw(enabledID)
	assert.Equal(t, DedupKey(a), DedupKey(b))
	b.Time = b.Time.Add(time.Minute)
	assert.NotEqual(t, DedupKey(a), DedupKey(b))
}

func TestAlertConsumer_Handle(t *testing.T) {
	bus := event.NewBus()
	s := newService(t, bus, nil)
	c := NewAlertConsumer(s, nil, "alerts", "g")

	body := `{
		"webhook_key": "` + enabledID + `",
		"time": "2023-09-14T15:55:00Z",
		"exchange": "NASDAQ",
		"ticker": "AAPL",
		"timeframe": "5m",
		"type": "stop_loss",
		"bar": {"time": "2023-09-14T15:55:00Z", "open": "176.55", "high": 176.58, "low": "176.20", "close": "176.40", "volume": 113.629}
	}`
	require.NoError(t, c.Handle(context.Background(), kafkago.Message{Value: []byte(body)}))

	ev, err := bus.Receive(context.Background())
	require.NoError(t, err)
	sig := ev.(event.SignalEvent).Signal
	assert.Equal(t, model.AlertStopLoss, sig.AlertType)
	assert.True(t, decimal.RequireFromString("176.58").Equal(sig.Bar.High))

	assert.Error(t, c.Handle(context.Background(), kafkago.Message{Value: []byte(`{`)}))
	// 缺少 ticker
	assert.Error(t, c.Handle(context.Background(), kafkago.Message{Value: []byte(`{"webhook_key":"x","type":"long","time":"2023-09-14T15:55:00Z"}`)}))
	assert.Equal(t, 0, bus.Len())

	// 停用策略的告警被跳过，offset 照常提交
	skipped := strings.Replace(body, enabledID, disabledID, 1)
	require.NoError(t, c.Handle(context.Background(), kafkago.Message{Value: []byte(skipped)}))
	assert.Equal(t, 0, bus.Len())
}
