package ml

import (
	"math/rand/v2"
	"sort"
)

// Node is one node of a flattened CART tree. Leaves have Feature -1.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value"` // class counts, or the mean target for regression
	Samples   int       `json:"samples"`
}

// IsLeaf reports whether n has no children.
func (n Node) IsLeaf() bool { return n.Feature < 0 }

// Tree is a binary CART tree. Classes is 0 for regression trees.
type Tree struct {
	Nodes   []Node `json:"nodes"`
	Classes int    `json:"classes"`
}

// TreeConfig bounds tree growth.
type TreeConfig struct {
	MaxDepth int // 0 means unlimited
	MinSplit int
	// MaxFeatures is the number of non-constant features inspected per
	// split; 0 means all.
	MaxFeatures int
}

// Leaf returns the leaf reached by x.
func (t *Tree) Leaf(x []float64) Node {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Proba returns the class distribution at the leaf reached by x.
func (t *Tree) Proba(x []float64) []float64 {
	v := t.Leaf(x).Value
	out := make([]float64, len(v))
	var sum float64
	for _, c := range v {
		sum += c
	}
	for i, c := range v {
		if sum > 0 {
			out[i] = c / sum
		}
	}
	return out
}

// Predict returns the class index for classification trees and the mean
// target for regression trees.
func (t *Tree) Predict(x []float64) float64 {
	v := t.Leaf(x).Value
	if t.Classes == 0 {
		return v[0]
	}
	return float64(argmax(v))
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

type builder struct {
	x          [][]float64
	y          []float64
	classes    int
	cfg        TreeConfig
	rng        *rand.Rand
	nodes      []Node
	importance []float64
}

// growTree fits a tree on the rows listed in idx. rng is only consulted when
// cfg.MaxFeatures limits the features per split. The returned importance is
// the per-feature impurity decrease, normalised to sum to 1.
func growTree(x [][]float64, y []float64, idx []int, classes int, cfg TreeConfig, rng *rand.Rand) (*Tree, []float64) {
	nf := 0
	if len(x) > 0 {
		nf = len(x[0])
	}
	b := &builder{x: x, y: y, classes: classes, cfg: cfg, rng: rng, importance: make([]float64, nf)}
	b.grow(idx, 0)
	var total float64
	for _, v := range b.importance {
		total += v
	}
	if total > 0 {
		for i := range b.importance {
			b.importance[i] /= total
		}
	}
	return &Tree{Nodes: b.nodes, Classes: classes}, b.importance
}

func (b *builder) leafValue(idx []int) []float64 {
	if b.classes == 0 {
		var s float64
		for _, i := range idx {
			s += b.y[i]
		}
		return []float64{s / float64(len(idx))}
	}
	counts := make([]float64, b.classes)
	for _, i := range idx {
		counts[int(b.y[i])]++
	}
	return counts
}

func (b *builder) impurity(idx []int) float64 {
	n := float64(len(idx))
	if n == 0 {
		return 0
	}
	if b.classes == 0 {
		var s, ss float64
		for _, i := range idx {
			s += b.y[i]
			ss += b.y[i] * b.y[i]
		}
		mean := s / n
		return ss/n - mean*mean
	}
	counts := make([]float64, b.classes)
	for _, i := range idx {
		counts[int(b.y[i])]++
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func (b *builder) grow(idx []int, depth int) int {
	at := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: b.leafValue(idx), Samples: len(idx)})

	imp := b.impurity(idx)
	if (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) || len(idx) < b.cfg.MinSplit || len(idx) < 2 || imp <= 1e-12 {
		return at
	}
	sp, ok := b.bestSplit(idx, imp)
	if !ok {
		return at
	}
	left := make([]int, 0, sp.nLeft)
	right := make([]int, 0, len(idx)-sp.nLeft)
	for _, i := range idx {
		if b.x[i][sp.feature] <= sp.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	n := float64(len(idx))
	b.importance[sp.feature] += n*imp - float64(len(left))*b.impurity(left) - float64(len(right))*b.impurity(right)

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[at].Feature = sp.feature
	b.nodes[at].Threshold = sp.threshold
	b.nodes[at].Left = l
	b.nodes[at].Right = r
	return at
}

type split struct {
	feature   int
	threshold float64
	score     float64 // weighted child impurity
	nLeft     int
}

func (b *builder) features() []int {
	nf := len(b.importance)
	order := make([]int, nf)
	for i := range order {
		order[i] = i
	}
	if b.cfg.MaxFeatures > 0 && b.cfg.MaxFeatures < nf && b.rng != nil {
		b.rng.Shuffle(nf, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}

func (b *builder) bestSplit(idx []int, parent float64) (split, bool) {
	best := split{score: parent * float64(len(idx))}
	found := false
	visited := 0
	sorted := make([]int, len(idx))
	for _, f := range b.features() {
		if b.cfg.MaxFeatures > 0 && visited >= b.cfg.MaxFeatures {
			break
		}
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })
		if b.x[sorted[0]][f] == b.x[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++
		if sp, ok := b.scanFeature(f, sorted); ok && sp.score < best.score-1e-12 {
			best, found = sp, true
		}
	}
	return best, found
}

// scanFeature sweeps the thresholds of feature f over rows sorted by f and
// returns the split with the lowest weighted child impurity.
func (b *builder) scanFeature(f int, sorted []int) (split, bool) {
	n := len(sorted)
	best := split{feature: f}
	found := false
	if b.classes == 0 {
		var totalS, totalSS float64
		for _, i := range sorted {
			totalS += b.y[i]
			totalSS += b.y[i] * b.y[i]
		}
		var ls, lss float64
		for k := 0; k < n-1; k++ {
			v := b.y[sorted[k]]
			ls += v
			lss += v * v
			x0, x1 := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if x0 == x1 {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			rs, rss := totalS-ls, totalSS-lss
			score := (lss - ls*ls/nl) + (rss - rs*rs/nr)
			if !found || score < best.score {
				best.threshold, best.score, best.nLeft, found = (x0+x1)/2, score, k+1, true
			}
		}
		return best, found
	}

	total := make([]float64, b.classes)
	for _, i := range sorted {
		total[int(b.y[i])]++
	}
	left := make([]float64, b.classes)
	for k := 0; k < n-1; k++ {
		left[int(b.y[sorted[k]])]++
		x0, x1 := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
		if x0 == x1 {
			continue
		}
		nl, nr := float64(k+1), float64(n-k-1)
		var gl, gr float64 = 1, 1
		for c := range left {
			pl := left[c] / nl
			pr := (total[c] - left[c]) / nr
			gl -= pl * pl
			gr -= pr * pr
		}
		score := nl*gl + nr*gr
		if !found || score < best.score {
			best.threshold, best.score, best.nLeft, found = (x0+x1)/2, score, k+1, true
		}
	}
	return best, found
}
