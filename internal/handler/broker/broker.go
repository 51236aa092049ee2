package broker

import (
	"alertflow/internal/consts"
	"alertflow/internal/model"
	"alertflow/internal/service"
	"alertflow/pkg/errors"
	"alertflow/pkg/errors/ecode"
	"alertflow/pkg/response"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// Handler 券商账户管理接口，?broker= 默认 alpaca
type Handler struct {
	svc *service.BrokerService
}

func NewHandler(svc *service.BrokerService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) AccountGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		acct, err := h.svc.Account(ctx, ctx.Query("broker"))
		if err != nil {
			response.JSON(ctx, wrap(err), nil)
			return
		}
		response.JSON(ctx, nil, acct)
	}
}

func (h *Handler) PositionsGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		positions, err := h.svc.Positions(ctx, ctx.Query("broker"))
		if err != nil {
			response.JSON(ctx, wrap(err), nil)
			return
		}
		if positions == nil {
			positions = []model.Position{}
		}
		response.JSON(ctx, nil, positions)
	}
}

func (h *Handler) OrdersGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var q model.OrderQuery
		if err := ctx.ShouldBindQuery(&q); err != nil {
			response.JSON(ctx, errors.WithCode(ecode.ValidateErr, err.Error()), nil)
			return
		}
		orders, err := h.svc.Orders(ctx, ctx.Query("broker"), q)
		if err != nil {
			response.JSON(ctx, wrap(err), nil)
			return
		}
		if orders == nil {
			orders = []model.BrokerOrder{}
		}
		response.JSON(ctx, nil, orders)
	}
}

// OrderGet 按券商订单id查询
func (h *Handler) OrderGet() gin.HandlerFunc {
	return h.orderGet(false)
}

// ClientOrderGet 按 client_order_id 查询，和 order_executions 记录对应
func (h *Handler) ClientOrderGet() gin.HandlerFunc {
	return h.orderGet(true)
}

func (h *Handler) orderGet(byClientID bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		order, err := h.svc.Order(ctx, ctx.Query("broker"), ctx.Param("id"), byClientID)
		if err != nil {
			response.JSON(ctx, wrap(err), nil)
			return
		}
		response.JSON(ctx, nil, order)
	}
}

// ActivitiesGet 账户流水，?types=FILL,DIV&after=&until=&limit=
func (h *Handler) ActivitiesGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		q, err := activityQuery(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		activities, err := h.svc.Activities(ctx, ctx.Query("broker"), q)
		if err != nil {
			response.JSON(ctx, wrap(err), nil)
			return
		}
		if activities == nil {
			activities = []model.Activity{}
		}
		response.JSON(ctx, nil, activities)
	}
}

func activityQuery(ctx *gin.Context) (model.ActivityQuery, error) {
	var q model.ActivityQuery
	if v := ctx.Query("types"); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				q.Types = append(q.Types, t)
			}
		}
	}
	var err error
	if v := ctx.Query("after"); v != "" {
		if q.After, err = cast.ToTimeE(v); err != nil {
			return q, errors.WithCode(ecode.ValidateErr, "invalid after time")
		}
	}
	if v := ctx.Query("until"); v != "" {
		if q.Until, err = cast.ToTimeE(v); err != nil {
			return q, errors.WithCode(ecode.ValidateErr, "invalid until time")
		}
	}
	if v := ctx.Query("limit"); v != "" {
		if q.Limit, err = cast.ToIntE(v); err != nil || q.Limit <= 0 {
			return q, errors.WithCode(ecode.ValidateErr, "limit must be a positive integer")
		}
		if q.Limit > consts.MaxPageLimit {
			q.Limit = consts.MaxPageLimit
		}
	}
	return q, nil
}

// OrderCancel 撤销单个订单，异步执行
func (h *Handler) OrderCancel() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.Param("id")
		if err := h.svc.CancelOrder(ctx.Query("broker"), id); err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.Accepted(ctx, gin.H{"order_id": id})
	}
}

// OrderCancelAll 撤销全部挂单，异步执行
func (h *Handler) OrderCancelAll() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := h.svc.CancelOrder(ctx.Query("broker"), ""); err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.Accepted(ctx, nil)
	}
}

// 券商错误没有错误码，统一按 Unknown 返回
func wrap(err error) error {
	if errors.Code(err) != ecode.Unknown {
		return err
	}
	return errors.Wrap(err, ecode.Unknown, "broker request failed")
}
