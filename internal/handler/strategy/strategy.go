package strategy

import (
	"alertflow/internal/model"
	"alertflow/internal/strategy"
	"alertflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// StrategyView 对外展示的策略，不包含 id (webhook key)
type StrategyView struct {
	Name         string             `json:"name"`
	Enabled      bool               `json:"enabled"`
	Broker       model.Broker       `json:"broker"`
	CurrencyType model.CurrencyType `json:"currency_type"`
	MaxRetries   uint8              `json:"max_retries"`
	RetryDelay   float64            `json:"retry_delay"`
	OrderQty     decimal.Decimal    `json:"order_qty"`
}

type Handler struct {
	registry *strategy.Registry
}

func NewHandler(registry *strategy.Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) StrategyGetList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		all := h.registry.All()
		views := make([]StrategyView, 0, len(all))
		for _, s := range all {
			views = append(views, StrategyView{
				Name:         s.Name,
				Enabled:      s.Enabled,
				Broker:       s.Broker,
				CurrencyType: s.CurrencyType,
				MaxRetries:   s.MaxRetries,
				RetryDelay:   s.RetryDelay,
				OrderQty:     s.OrderQty,
			})
		}
		response.JSON(ctx, nil, views)
	}
}
