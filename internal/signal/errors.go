package signal

import (
	"errors"
	"fmt"
)

// UnknownStrategyError 告警引用了不存在的策略
type UnknownStrategyError struct {
	ID string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("Unknown strategy - %s", e.ID)
}

// StrategyDisabledError 策略存在但已停用
type StrategyDisabledError struct {
	Name string
	ID   string
}

func (e *StrategyDisabledError) Error() string {
	return fmt.Sprintf("Strategy %s with id %s is disabled", e.Name, e.ID)
}

// IsValidationError 是否为校验类错误，这类错误同步返回给调用方，不进入事件总线
func IsValidationError(err error) bool {
	var unknown *UnknownStrategyError
	var disabled *StrategyDisabledError
	return errors.As(err, &unknown) || errors.As(err, &disabled)
}
