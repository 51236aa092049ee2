package api

import (
	"alertflow/conf"
	"alertflow/internal/broker"
	"alertflow/internal/dao/query"
	"alertflow/internal/dispatcher"
	"alertflow/internal/event"
	"alertflow/internal/executor"
	"alertflow/internal/handler/alert"
	brokerhandler "alertflow/internal/handler/broker"
	strategyhandler "alertflow/internal/handler/strategy"
	"alertflow/internal/handler/webhook"
	"alertflow/internal/middleware"
	"alertflow/internal/model"
	"alertflow/internal/model/entity"
	"alertflow/internal/router"
	"alertflow/internal/service"
	"alertflow/internal/strategy"
	"alertflow/pkg/cache"
	"alertflow/pkg/db"
	"alertflow/pkg/kafka"
	"alertflow/pkg/logger"
	"alertflow/pkg/metrics"
	"alertflow/pkg/recorder"
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 模拟盘初始资金
var simulatedCash = decimal.NewFromInt(100000)

// App 进程内所有组件
type App struct {
	Config     *conf.Config
	Registry   *strategy.Registry
	Bus        *event.Bus
	Dispatcher *dispatcher.Dispatcher
	Alerts     *service.AlertService
	Consumer   *service.AlertConsumer // kafka 未开启时为 nil
	Routers    []Router

	db       *gorm.DB
	producer kafka.ProducerService
	journal  *recorder.JSONFileRecorder
	redis    bool
}

// NewRegistry 从配置加载策略
func NewRegistry(cfg *conf.Config) (*strategy.Registry, error) {
	strategies, err := strategy.FromConfig(cfg.Strategies)
	if err != nil {
		return nil, err
	}
	return strategy.NewRegistry(strategies...)
}

func newBrokerClients(cfg conf.AlpacaConfig) *broker.Clients {
	var alpaca broker.Client
	if cfg.Simulated {
		logger.Warn("alpaca running in simulated mode, no order reaches the broker")
		alpaca = broker.NewSimulated(model.BrokerAlpaca, simulatedCash)
	} else {
		alpaca = broker.NewAlpaca(cfg)
	}
	return broker.NewClients(map[model.Broker]broker.Client{model.BrokerAlpaca: alpaca})
}

// InitApp 按配置组装组件，ctx 用于初始化阶段的外部连接
func InitApp(ctx context.Context, cfg *conf.Config) (*App, error) {
	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	node, err := snowflake.NewNode(cfg.Pipeline.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.Pipeline.WorkerID, err)
	}

	app := &App{Config: cfg, Registry: registry, Bus: event.NewBus()}
	if err := metrics.RegisterBusPending(app.Bus.Len); err != nil {
		logger.Warnf("register bus metrics: %v", err)
	}

	// 初始化数据库
	app.db, err = db.Init(db.NewConfig(cfg.Db))
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(app.db, &entity.AlertRecord{}, &entity.ExecutionRecord{}); err != nil {
		app.Close()
		return nil, err
	}

	clients := newBrokerClients(cfg.Alpaca)
	exec, err := executor.New(clients, executor.WithNode(node), executor.WithObserver(metrics.AttemptObserver{}))
	if err != nil {
		app.Close()
		return nil, err
	}

	recorders := dispatcher.Recorders{
		dispatcher.LogRecorder{},
		dispatcher.MetricsRecorder{},
		dispatcher.NewExecutionRecorder(query.NewExecutionDao(app.db)),
	}

	var alertOpts []service.AlertOption
	if cfg.Redis.Enabled {
		// 初始化redis缓存
		if err := cache.InitRedis(ctx, cfg.Redis); err != nil {
			app.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = true
		alertOpts = append(alertOpts, service.WithDedup(query.NewRedisDedup(cache.GetRedisClient()), cfg.Redis.DedupTTL))
	}

	if cfg.Pipeline.Journal != "" {
		app.journal = recorder.NewJSONFileRecorder(cfg.Pipeline.Journal)
		recorders = append(recorders, dispatcher.NewJournalRecorder(app.journal))
	}

	if cfg.Kafka.Enabled {
		app.producer = kafka.NewKafkaProducer(cfg.Kafka.Broker, cfg.Kafka.DeadLetterTopic)
		recorders = append(recorders, dispatcher.NewDeadLetterRecorder(app.producer, cfg.Kafka.DeadLetterTopic))
	}

	app.Dispatcher = dispatcher.New(app.Bus, exec, clients, recorders,
		dispatcher.WithSignalTimeout(cfg.Pipeline.SignalTimeout))
	app.Alerts = service.NewAlertService(registry, app.Bus, query.NewAlertDao(app.db), node, alertOpts...)

	if cfg.Kafka.Enabled {
		app.Consumer = service.NewAlertConsumer(app.Alerts,
			kafka.NewKafkaConsumer(cfg.Kafka.Broker), cfg.Kafka.AlertTopic, cfg.Kafka.GroupID)
	}

	apiRouter := router.NewApiRouter(
		webhook.NewHandler(app.Alerts),
		brokerhandler.NewHandler(service.NewBrokerService(clients, app.Bus)),
		alert.NewHandler(app.Alerts, service.NewExecutionService(query.NewExecutionDao(app.db))),
		strategyhandler.NewHandler(registry),
		cfg.ApiKey,
		cfg.Webhook.Secret,
		app.Bus.Len,
	)
	app.Routers = []Router{middleware.NewMiddleware(), apiRouter}
	return app, nil
}

// Close 释放外部连接，在调度器排空之后调用
func (a *App) Close() {
	if a.Alerts != nil {
		a.Alerts.Wait()
	}
	if a.producer != nil {
		a.producer.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warnf("close journal: %v", err)
		}
	}
	if a.redis {
		cache.CloseRedis()
	}
	if err := db.Close(a.db); err != nil {
		logger.Warnf("close database: %v", err)
	}
}
