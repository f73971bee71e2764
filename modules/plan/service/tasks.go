package service

import (
	"context"

	"tablepick/core/logger"

	"github.com/hibiken/asynq"
)

// HandleSweepTask is the asynq handler behind the periodic plan:sweep task.
func (s *PlanService) HandleSweepTask(ctx context.Context, t *asynq.Task) error {
	asOf := s.clock.Now()
	logger.Debug("PlanService:HandleSweepTask:Start", "as_of", asOf)
	return s.SweepDeadlines(ctx, asOf)
}
