// Package planner turns an inventory snapshot into a ranked distribution plan.
//
// A Planner owns exactly one ModelState. Training synthesizes priority and
// quantity labels from the raw records with the heuristic package, fits the
// encoder, scaler and regression engine, and swaps the new state in. Planning
// encodes a table with the stored state, predicts both outputs, sorts rows by
// predicted priority and assigns ranks.
package planner

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/foodbank-planner/backend-go/internal/forest"
	"github.com/foodbank-planner/backend-go/internal/heuristic"
	"github.com/foodbank-planner/backend-go/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Planner trains on one inventory snapshot and plans against its vocabulary.
// It is safe for concurrent use: training builds the new state without the
// lock and swaps it in under the write lock, predictions hold the read lock.
type Planner struct {
	cfg   forest.Config
	mu    sync.RWMutex
	state *ModelState
}

// New creates an untrained planner.
func New(cfg forest.Config) *Planner {
	return &Planner{cfg: cfg}
}

// Trained reports whether a model state is available.
func (p *Planner) Trained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state != nil
}

// Vocabulary returns the category values learned for field, ordered by code.
func (p *Planner) Vocabulary(field string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return nil
	}
	return p.state.encoder.Classes(field)
}

// Train fits a new model state on table and replaces the current one. A table
// with zero rows leaves the current state untouched.
func (p *Planner) Train(table domain.InventoryTable) error {
	records, err := prepare(table)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	_, err = p.train(records)
	return err
}

// train fits a state on records, swaps it in and returns it.
func (p *Planner) train(records []domain.InventoryRecord) (*ModelState, error) {
	start := time.Now()
	state, err := fitState(records, p.cfg)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	metrics.TrainDuration.Observe(elapsed.Seconds())

	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	log.Debug().
		Int("rows", len(records)).
		Int("trees", p.cfg.Trees).
		Dur("duration", elapsed).
		Msg("planner: model trained")
	return state, nil
}

// Predict returns predicted priority scores and recommended quantities for
// every row of table, in table order.
func (p *Planner) Predict(table domain.InventoryTable) ([]float64, []float64, error) {
	records, err := prepare(table)
	if err != nil {
		return nil, nil, err
	}
	return p.predict(records)
}

func (p *Planner) predict(records []domain.InventoryRecord) ([]float64, []float64, error) {
	p.mu.RLock()
	state := p.state
	p.mu.RUnlock()
	return predictWith(state, records)
}

// predictWith predicts against a fixed state. States are never mutated after
// fitState returns, so no lock is needed.
func predictWith(state *ModelState, records []domain.InventoryRecord) ([]float64, []float64, error) {
	if state == nil {
		return nil, nil, &domain.NotFittedError{Component: "distribution planner"}
	}
	if len(records) == 0 {
		return []float64{}, []float64{}, nil
	}
	x, err := state.features(records)
	if err != nil {
		return nil, nil, err
	}
	return state.engine.Predict(x)
}

// Plan ranks every row of table by predicted priority. Rank 1 is the highest
// priority; rows with equal scores keep their table order.
func (p *Planner) Plan(table domain.InventoryTable) ([]domain.PlanEntry, error) {
	records, err := prepare(table)
	if err != nil {
		return nil, err
	}
	priority, quantity, err := p.predict(records)
	if err != nil {
		return nil, err
	}
	return rank(records, priority, quantity), nil
}

// TrainAndPlan trains on table and plans the same table against the state it
// just built, so a concurrent Train cannot swap the model in between. An
// empty table yields an empty plan.
func (p *Planner) TrainAndPlan(table domain.InventoryTable) ([]domain.PlanEntry, error) {
	records, err := prepare(table)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []domain.PlanEntry{}, nil
	}
	state, err := p.train(records)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	priority, quantity, err := predictWith(state, records)
	if err != nil {
		return nil, err
	}
	return rank(records, priority, quantity), nil
}

// rank attaches predictions to records, sorts them by descending priority
// with ties in input order and assigns ranks from 1.
func rank(records []domain.InventoryRecord, priority, quantity []float64) []domain.PlanEntry {
	plan := make([]domain.PlanEntry, len(records))
	for i, r := range records {
		plan[i] = domain.PlanEntry{
			InventoryRecord:     r,
			PriorityScore:       priority[i],
			RecommendedQuantity: math.Max(quantity[i], heuristic.MinQuantity),
		}
	}
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].PriorityScore > plan[j].PriorityScore
	})
	for i := range plan {
		plan[i].Rank = i + 1
	}

	metrics.ItemsRanked.Add(float64(len(plan)))
	return plan
}

// prepare checks the schema, copies the records, re-derives their ratios and
// validates value ranges.
func prepare(table domain.InventoryTable) ([]domain.InventoryRecord, error) {
	if err := table.CheckSchema(); err != nil {
		return nil, err
	}
	records := make([]domain.InventoryRecord, len(table.Records))
	for i, r := range table.Records {
		r.Derive()
		if err := r.Validate(i); err != nil {
			return nil, err
		}
		records[i] = r
	}
	return records, nil
}
