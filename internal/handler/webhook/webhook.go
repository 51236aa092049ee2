package webhook

import (
	"alertflow/internal/model"
	"alertflow/internal/service"
	"alertflow/pkg/errors"
	"alertflow/pkg/errors/ecode"
	"alertflow/pkg/response"
	"alertflow/pkg/validator"

	"github.com/gin-gonic/gin"
)

// TradingView Webhook 的接收器
type Handler struct {
	alerts *service.AlertService
}

func NewHandler(alerts *service.AlertService) *Handler {
	return &Handler{alerts: alerts}
}

// HandlerWebhook 校验告警并投递到总线，下单在后台执行
func (h *Handler) HandlerWebhook() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var raw model.RawAlert
		if err := ctx.ShouldBindJSON(&raw); err != nil {
			response.JSON(ctx, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		if _, err := h.alerts.Accept(ctx.Request.Context(), raw); err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, nil)
	}
}
