package service

import (
	"alertflow/internal/dao"
	"alertflow/internal/model/entity"
	"alertflow/pkg/errors"
	"alertflow/pkg/errors/ecode"
	"context"
)

// ExecutionService 查询信号执行记录
type ExecutionService struct {
	dao dao.ExecutionDao
}

func NewExecutionService(d dao.ExecutionDao) *ExecutionService {
	return &ExecutionService{dao: d}
}

func (s *ExecutionService) List(ctx context.Context, strategyID string, limit, offset int) ([]entity.ExecutionRecord, int64, error) {
	if s.dao == nil {
		return nil, 0, errors.WithCode(ecode.UnavailableErr, "execution storage disabled")
	}
	return s.dao.List(ctx, strategyID, limit, offset)
}
