// Package forest implements a multi-output random forest regressor: bagged
// regression trees whose leaves hold one mean per output, averaged across the
// ensemble.
package forest

import (
	"fmt"
	"math/rand"
	"runtime"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Config holds the tunable parameters of the ensemble.
type Config struct {
	Trees           int   // Number of trees in the ensemble
	Seed            int64 // Base seed; tree i uses Seed+i
	MaxDepth        int   // 0 grows trees until leaves are pure
	MinSamplesSplit int   // Minimum samples required to split a node
	MinSamplesLeaf  int   // Minimum samples required in each child
	MaxFeatures     int   // Features considered per split, 0 = all
	Workers         int   // Concurrent tree builders, 0 = GOMAXPROCS
	Bootstrap       bool  // Sample rows with replacement for each tree
}

// DefaultConfig returns the parameters the planner trains with.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		Seed:            42,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Workers:         0,
		Bootstrap:       true,
	}
}

func (c Config) normalized() Config {
	if c.Trees < 1 {
		c.Trees = 1
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	if c.Workers < 1 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Forest is a fitted or unfitted ensemble.
type Forest struct {
	cfg      Config
	trees    []*Tree
	features int
	outputs  int
}

// New creates an unfitted forest.
func New(cfg Config) *Forest {
	return &Forest{cfg: cfg.normalized()}
}

// Fitted reports whether Fit has completed.
func (f *Forest) Fitted() bool {
	return len(f.trees) > 0
}

// Trees returns the fitted trees.
func (f *Forest) Trees() []*Tree {
	return f.trees
}

// Fit trains the ensemble on rows x and targets y, where y[i] holds every
// output for row i. Trees are built concurrently; each tree draws from its own
// seeded source so the result does not depend on scheduling.
func (f *Forest) Fit(x, y [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("cannot fit forest on zero rows")
	}
	if len(x) != len(y) {
		return fmt.Errorf("feature rows (%d) and target rows (%d) differ", len(x), len(y))
	}
	features, outputs := len(x[0]), len(y[0])
	if features == 0 || outputs == 0 {
		return fmt.Errorf("forest needs at least one feature and one output")
	}
	for i := range x {
		if len(x[i]) != features {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(x[i]), features)
		}
		if len(y[i]) != outputs {
			return fmt.Errorf("row %d has %d targets, expected %d", i, len(y[i]), outputs)
		}
	}

	trees := make([]*Tree, f.cfg.Trees)
	var g errgroup.Group
	g.SetLimit(f.cfg.Workers)
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.cfg.Seed + int64(i)))
			trees[i] = buildTree(x, y, f.samples(len(x), rng), f.cfg, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees, f.features, f.outputs = trees, features, outputs
	return nil
}

func (f *Forest) samples(n int, rng *rand.Rand) []int {
	out := make([]int, n)
	for i := range out {
		if f.cfg.Bootstrap {
			out[i] = rng.Intn(n)
		} else {
			out[i] = i
		}
	}
	return out
}

// Predict returns, for every row, the per-output average of the trees.
func (f *Forest) Predict(x [][]float64) ([][]float64, error) {
	if !f.Fitted() {
		return nil, &domain.NotFittedError{Component: "random forest"}
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != f.features {
			return nil, fmt.Errorf("row %d has %d features, forest was fitted on %d", i, len(row), f.features)
		}
		sum := make([]float64, f.outputs)
		for _, t := range f.trees {
			for o, v := range t.Evaluate(row) {
				sum[o] += v
			}
		}
		for o := range sum {
			sum[o] /= float64(len(f.trees))
		}
		out[i] = sum
	}
	return out, nil
}
