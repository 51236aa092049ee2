package router

import (
	"alertflow/internal/handler/alert"
	"alertflow/internal/handler/broker"
	"alertflow/internal/handler/ping"
	"alertflow/internal/handler/strategy"
	"alertflow/internal/handler/webhook"
	"alertflow/internal/middleware"
	"alertflow/pkg/metrics"
	"time"

	"github.com/gin-gonic/gin"
)

type ApiRouter struct {
	webhookHandler  *webhook.Handler
	brokerHandler   *broker.Handler
	alertHandler    *alert.Handler
	strategyHandler *strategy.Handler

	apiKey        string
	webhookSecret string
	pending       func() int
}

func NewApiRouter(wh *webhook.Handler, bh *broker.Handler, ah *alert.Handler, sh *strategy.Handler,
	apiKey, webhookSecret string, pending func() int) *ApiRouter {
	return &ApiRouter{
		webhookHandler:  wh,
		brokerHandler:   bh,
		alertHandler:    ah,
		strategyHandler: sh,
		apiKey:          apiKey,
		webhookSecret:   webhookSecret,
		pending:         pending,
	}
}

func (api *ApiRouter) Load(g *gin.Engine) {
	g.GET("/ping", ping.Ping())
	g.GET("/health", ping.Health(api.pending))
	g.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 告警入口不走 api_key，策略 id 即密钥
	wh := g.Group("", middleware.WebhookSignature(api.webhookSecret))
	{
		wh.POST("/webhook", api.webhookHandler.HandlerWebhook())
		wh.POST("/alert", api.webhookHandler.HandlerWebhook())
	}

	base := g.Group("/api/v1", middleware.ApiKeyAuth(api.apiKey), middleware.AntiDuplicate(500, 200*time.Millisecond))
	{
		base.GET("/account", api.brokerHandler.AccountGet())
		base.GET("/positions", api.brokerHandler.PositionsGet())
		base.GET("/orders", api.brokerHandler.OrdersGet())
		base.GET("/orders/:id", api.brokerHandler.OrderGet())
		base.GET("/client-orders/:id", api.brokerHandler.ClientOrderGet())
		base.GET("/activities", api.brokerHandler.ActivitiesGet())
		base.DELETE("/orders/:id", api.brokerHandler.OrderCancel())
		base.DELETE("/orders", api.brokerHandler.OrderCancelAll())

		base.GET("/alerts", api.alertHandler.AlertGetList())
		base.GET("/executions", api.alertHandler.ExecutionGetList())
		base.GET("/strategies", api.strategyHandler.StrategyGetList())
	}
}
