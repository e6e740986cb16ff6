// backend-go/internal/repository/plan_run_repository.go
package repository

import (
	"context"

	"github.com/foodbank-planner/backend-go/internal/domain"
)

// PlanRunRepository records planning executions per user.
type PlanRunRepository interface {
	Create(ctx context.Context, run *domain.PlanRun) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.PlanRun, error)
}
