package alert

import (
	"alertflow/internal/consts"
	"alertflow/internal/service"
	"alertflow/pkg/errors"
	"alertflow/pkg/errors/ecode"
	"alertflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type Handler struct {
	alerts     *service.AlertService
	executions *service.ExecutionService
}

func NewHandler(alerts *service.AlertService, executions *service.ExecutionService) *Handler {
	return &Handler{alerts: alerts, executions: executions}
}

// AlertGetList 分页查询已保存的告警
func (h *Handler) AlertGetList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit, offset, err := PageParams(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		items, total, err := h.alerts.List(ctx, limit, offset)
		if err != nil {
			response.JSON(ctx, errors.Wrap(err, errors.Code(err), "接口调用失败"), nil)
			return
		}
		response.JSON(ctx, nil, response.Page{Items: items, Total: total, Limit: limit, Offset: offset})
	}
}

// ExecutionGetList 查询信号执行记录，可按 strategy_id 过滤
func (h *Handler) ExecutionGetList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit, offset, err := PageParams(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		items, total, err := h.executions.List(ctx, ctx.Query("strategy_id"), limit, offset)
		if err != nil {
			response.JSON(ctx, errors.Wrap(err, errors.Code(err), "接口调用失败"), nil)
			return
		}
		response.JSON(ctx, nil, response.Page{Items: items, Total: total, Limit: limit, Offset: offset})
	}
}

// PageParams 解析 limit/offset，limit 默认 20，最大 200
func PageParams(ctx *gin.Context) (limit, offset int, err error) {
	limit, offset = consts.DefaultPageLimit, 0
	if v := ctx.Query("limit"); v != "" {
		if limit, err = cast.ToIntE(v); err != nil || limit <= 0 {
			return 0, 0, errors.WithCode(ecode.ValidateErr, "limit must be a positive integer")
		}
	}
	if v := ctx.Query("offset"); v != "" {
		if offset, err = cast.ToIntE(v); err != nil || offset < 0 {
			return 0, 0, errors.WithCode(ecode.ValidateErr, "offset must be a non-negative integer")
		}
	}
	if limit > consts.MaxPageLimit {
		limit = consts.MaxPageLimit
	}
	return limit, offset, nil
}
