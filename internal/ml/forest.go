package ml

import (
	"math"
	"math/rand/v2"
)

// Forest defaults.
const (
	ForestTrees    = 100
	ForestMaxDepth = 10
	ForestSeed     = 42
)

// Forest is a bagged ensemble of CART trees.
type Forest struct {
	Trees   []*Tree `json:"trees"`
	Classes int     `json:"classes"`
}

// trainForest fits n bootstrap trees with a fixed seed. Classification trees
// inspect sqrt(features) per split; regression trees inspect all of them.
// It returns the forest and its normalised mean feature importance.
func trainForest(x [][]float64, y []float64, classes, n int, seed uint64) (*Forest, []float64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	nf := 0
	if len(x) > 0 {
		nf = len(x[0])
	}
	cfg := TreeConfig{MaxDepth: ForestMaxDepth, MinSplit: 2}
	if classes > 0 {
		cfg.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(nf)))))
	}

	f := &Forest{Classes: classes}
	importance := make([]float64, nf)
	rows := len(y)
	for t := 0; t < n; t++ {
		idx := make([]int, rows)
		for i := range idx {
			idx[i] = rng.IntN(rows)
		}
		tree, imp := growTree(x, y, idx, classes, cfg, rng)
		f.Trees = append(f.Trees, tree)
		for i, v := range imp {
			importance[i] += v
		}
	}
	var total float64
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return f, importance
}

// Proba averages the class distributions of every tree.
func (f *Forest) Proba(x []float64) []float64 {
	out := make([]float64, f.Classes)
	for _, t := range f.Trees {
		for i, p := range t.Proba(x) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(f.Trees))
	}
	return out
}

// Predict returns the most probable class index, or the mean of the tree
// predictions for regression.
func (f *Forest) Predict(x []float64) float64 {
	if f.Classes > 0 {
		return float64(argmax(f.Proba(x)))
	}
	var s float64
	for _, t := range f.Trees {
		s += t.Predict(x)
	}
	return s / float64(len(f.Trees))
}
