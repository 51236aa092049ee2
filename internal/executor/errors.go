package executor

import (
	"alertflow/internal/model"
	"errors"
	"fmt"
)

// MaxRetriesReachedError 重试次数耗尽
type MaxRetriesReachedError struct {
	Order    model.Order
	Attempts int
	Last     error
}

func (e *MaxRetriesReachedError) Error() string {
	return fmt.Sprintf("Order max retries reached. %s", e.Order)
}

func (e *MaxRetriesReachedError) Unwrap() error { return e.Last }

// UnsupportedAlertError 告警类型无法转换为订单方向
type UnsupportedAlertError struct {
	Order model.Order
}

func (e *UnsupportedAlertError) Error() string {
	return fmt.Sprintf("Alert type %s cannot be placed as an order. %s", e.Order.AlertType, e.Order)
}

// IsTradeError 是否为执行阶段的终态错误
func IsTradeError(err error) bool {
	var maxRetries *MaxRetriesReachedError
	var unsupported *UnsupportedAlertError
	return errors.As(err, &maxRetries) || errors.As(err, &unsupported)
}
