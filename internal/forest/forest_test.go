package forest

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticData(n int) ([][]float64, [][]float64) {
	rng := rand.New(rand.NewSource(7))
	x := make([][]float64, n)
	y := make([][]float64, n)
	for i := range x {
		a, b := rng.Float64()*10, rng.Float64()*10
		x[i] = []float64{a, b}
		y[i] = []float64{3*a + b, a - 2*b}
	}
	return x, y
}

func TestForest_FitsTrainingData(t *testing.T) {
	x, y := syntheticData(60)
	f := New(Config{Trees: 30, Seed: 1, MinSamplesSplit: 2, MinSamplesLeaf: 1, Bootstrap: false})

	require.NoError(t, f.Fit(x, y))
	preds, err := f.Predict(x)
	require.NoError(t, err)

	// Without bootstrap fully grown trees reproduce the training targets.
	for i := range preds {
		assert.InDelta(t, y[i][0], preds[i][0], 1e-9)
		assert.InDelta(t, y[i][1], preds[i][1], 1e-9)
	}
}

func TestForest_DeterministicAcrossWorkerCounts(t *testing.T) {
	x, y := syntheticData(40)

	cfg := DefaultConfig()
	cfg.Trees = 20
	cfg.Workers = 1
	serial := New(cfg)
	require.NoError(t, serial.Fit(x, y))

	cfg.Workers = 8
	parallel := New(cfg)
	require.NoError(t, parallel.Fit(x, y))

	a, err := serial.Predict(x)
	require.NoError(t, err)
	b, err := parallel.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForest_MaxDepth(t *testing.T) {
	x, y := syntheticData(50)
	cfg := DefaultConfig()
	cfg.Trees = 5
	cfg.MaxDepth = 2
	f := New(cfg)

	require.NoError(t, f.Fit(x, y))
	for _, tree := range f.Trees() {
		assert.LessOrEqual(t, tree.Depth, 2)
	}
}

func TestForest_ConstantTargetsYieldSingleLeaf(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := [][]float64{{5, 1}, {5, 1}, {5, 1}}
	f := New(DefaultConfig())

	require.NoError(t, f.Fit(x, y))
	for _, tree := range f.Trees() {
		require.Len(t, tree.Nodes, 1)
		assert.True(t, tree.Nodes[0].Leaf)
	}
	preds, err := f.Predict([][]float64{{100}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 1}, preds[0], 1e-12)
}

func TestForest_Errors(t *testing.T) {
	f := New(DefaultConfig())

	_, err := f.Predict([][]float64{{1}})
	var notFitted *domain.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	assert.Error(t, f.Fit(nil, nil))
	assert.Error(t, f.Fit([][]float64{{1}}, [][]float64{{1}, {2}}))
	assert.Error(t, f.Fit([][]float64{{1}, {1, 2}}, [][]float64{{1}, {2}}))

	require.NoError(t, f.Fit([][]float64{{1, 2}, {3, 4}}, [][]float64{{1}, {2}}))
	_, err = f.Predict([][]float64{{1}})
	assert.Error(t, err)
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 1.5, midpoint(1, 2))
	b := 1.0000000000000002
	assert.Less(t, midpoint(1, b), b)
}
