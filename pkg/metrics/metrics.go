package metrics

import (
	"alertflow/internal/model"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alertflow_alerts_total", Help: "Webhook alerts received, by result"},
		[]string{"result"},
	)
	OrderAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alertflow_order_attempts_total", Help: "Order placement attempts"},
		[]string{"broker", "result"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alertflow_signals_total", Help: "Signals executed, by terminal state"},
		[]string{"strategy", "state"},
	)
	SignalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alertflow_signal_duration_seconds",
			Help:    "Time from dispatch to terminal state, retries included",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"strategy"},
	)
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alertflow_actions_total", Help: "Broker management actions"},
		[]string{"action", "result"},
	)
)

func init() {
	prometheus.MustRegister(AlertsTotal, OrderAttemptsTotal, SignalsTotal, SignalDuration, ActionsTotal)
}

// RegisterBusPending 注册总线积压量
func RegisterBusPending(pending func() int) error {
	return prometheus.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "alertflow_bus_pending_events", Help: "Events waiting on the bus"},
		func() float64 { return float64(pending()) },
	))
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// AttemptObserver 统计每次下单尝试
type AttemptObserver struct{}

func (AttemptObserver) OnAttempt(order model.Order, _ int, err error) {
	OrderAttemptsTotal.WithLabelValues(string(order.Broker), result(err)).Inc()
}
