package postgres

import (
	"context"
	"fmt"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

const defaultHistoryLimit = 20

type planRunRepository struct {
	db *DB
}

func NewPlanRunRepository(db *DB) *planRunRepository {
	return &planRunRepository{db: db}
}

func (r *planRunRepository) Create(ctx context.Context, run *domain.PlanRun) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO plan_runs (
				id, user_id, item_count, top_item, top_priority,
				duration_ms, export_key, created_at
			) VALUES (
				:id, :user_id, :item_count, :top_item, :top_priority,
				:duration_ms, :export_key, :created_at
			)
		`
		if _, err := tx.NamedExecContext(ctx, query, run); err != nil {
			return fmt.Errorf("failed to insert plan run: %w", err)
		}
		return nil
	})
}

func (r *planRunRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.PlanRun, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := r.db.Rebind(`
		SELECT id, user_id, item_count, top_item, top_priority,
			duration_ms, export_key, created_at
		FROM plan_runs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)

	runs := []domain.PlanRun{}
	if err := r.db.SelectContext(ctx, &runs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}
	return runs, nil
}
