package forest

import (
	"math"
	"math/rand"
	"sort"
)

// impurityEpsilon is the summed variance below which a node is treated as pure.
const impurityEpsilon = 1e-12

// Node is a split of the form "x[Feature] <= Threshold" or, when Leaf is
// set, a terminal node holding one mean per output.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Leaf      bool      `json:"leaf"`
	Value     []float64 `json:"value,omitempty"`
}

// Tree is a multi-output regression tree stored as a flat node list with the
// root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
	Depth int    `json:"depth"`
}

// Evaluate drops x down the tree and returns the outputs of the leaf it lands in.
func (t *Tree) Evaluate(x []float64) []float64 {
	cur := 0
	for {
		n := &t.Nodes[cur]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			cur = n.Left
		} else {
			cur = n.Right
		}
	}
}

// treeBuilder grows one CART tree whose split criterion is the squared error
// summed over all outputs.
type treeBuilder struct {
	x       [][]float64
	y       [][]float64
	cfg     Config
	rng     *rand.Rand
	outputs int
	nodes   []Node
	depth   int
}

func buildTree(x, y [][]float64, samples []int, cfg Config, rng *rand.Rand) *Tree {
	b := &treeBuilder{
		x:       x,
		y:       y,
		cfg:     cfg,
		rng:     rng,
		outputs: len(y[0]),
	}
	b.grow(samples, 0)
	return &Tree{Nodes: b.nodes, Depth: b.depth}
}

func (b *treeBuilder) grow(samples []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{})
	if depth > b.depth {
		b.depth = depth
	}

	mean, impurity := b.stats(samples)
	leaf := Node{Leaf: true, Value: mean}

	if len(samples) < b.cfg.MinSamplesSplit ||
		(b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) ||
		impurity <= impurityEpsilon {
		b.nodes[id] = leaf
		return id
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		b.nodes[id] = leaf
		return id
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return id
}

// stats returns the per-output mean and the summed population variance.
func (b *treeBuilder) stats(samples []int) ([]float64, float64) {
	n := float64(len(samples))
	mean := make([]float64, b.outputs)
	for _, s := range samples {
		for o := 0; o < b.outputs; o++ {
			mean[o] += b.y[s][o]
		}
	}
	for o := range mean {
		mean[o] /= n
	}
	var impurity float64
	for _, s := range samples {
		for o := 0; o < b.outputs; o++ {
			d := b.y[s][o] - mean[o]
			impurity += d * d
		}
	}
	return mean, impurity / n
}

// bestSplit scans candidate features in random order and returns the split
// maximizing the reduction of summed squared error. Features are considered
// in a per-tree random order so ties resolve differently across the ensemble.
func (b *treeBuilder) bestSplit(samples []int) (int, float64, bool) {
	n := len(samples)
	width := len(b.x[0])
	features := b.rng.Perm(width)
	if b.cfg.MaxFeatures > 0 && b.cfg.MaxFeatures < width {
		features = features[:b.cfg.MaxFeatures]
	}

	total := make([]float64, b.outputs)
	for _, s := range samples {
		for o := 0; o < b.outputs; o++ {
			total[o] += b.y[s][o]
		}
	}

	var (
		bestFeature   = -1
		bestThreshold float64
		bestScore     = math.Inf(-1)
		sorted        = make([]int, n)
		leftSum       = make([]float64, b.outputs)
	)

	for _, f := range features {
		copy(sorted, samples)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})
		if b.x[sorted[0]][f] == b.x[sorted[n-1]][f] {
			continue
		}

		for o := range leftSum {
			leftSum[o] = 0
		}
		for k := 0; k < n-1; k++ {
			s := sorted[k]
			for o := 0; o < b.outputs; o++ {
				leftSum[o] += b.y[s][o]
			}
			cur, next := b.x[s][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < b.cfg.MinSamplesLeaf || nr < b.cfg.MinSamplesLeaf {
				continue
			}

			// Minimizing SSE is equivalent to maximizing sum(L)^2/nl + sum(R)^2/nr.
			var score float64
			for o := 0; o < b.outputs; o++ {
				rs := total[o] - leftSum[o]
				score += leftSum[o]*leftSum[o]/float64(nl) + rs*rs/float64(nr)
			}
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = midpoint(cur, next)
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// midpoint returns a threshold strictly separating a < b.
func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}
