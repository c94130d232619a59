package ml

import (
	"math"
	"math/rand"
)

type cartConfig struct {
	maxDepth        int // 0 = unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // features examined per split
}

// cartBuilder grows one gini classification tree over weighted samples.
// Samples with zero weight are out of bag and never reach a node.
type cartBuilder struct {
	data    *dataset
	y       []int
	k       int
	weights []float64
	cfg     cartConfig
	rng     *rand.Rand

	nodeOf []int
	t      *tree
}

type cartSplit struct {
	feature   int
	threshold float64
	gain      float64
}

func growCART(data *dataset, y []int, k int, weights []float64, cfg cartConfig, rng *rand.Rand) *tree {
	b := &cartBuilder{
		data:    data,
		y:       y,
		k:       k,
		weights: weights,
		cfg:     cfg,
		rng:     rng,
		nodeOf:  make([]int, data.rows),
		t:       &tree{},
	}

	var members []int
	for i, w := range weights {
		if w > 0 {
			members = append(members, i)
			b.nodeOf[i] = 0
		} else {
			b.nodeOf[i] = leafNode
		}
	}
	b.t.add(node{Left: leafNode, Right: leafNode})
	b.grow(0, members, 0)
	return b.t
}

func (b *cartBuilder) distribution(members []int) ([]float64, float64) {
	counts := make([]float64, b.k)
	var total float64
	for _, i := range members {
		counts[b.y[i]] += b.weights[i]
		total += b.weights[i]
	}
	return counts, total
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / total
		sum += p * p
	}
	return 1 - sum
}

func (b *cartBuilder) grow(id int, members []int, depth int) {
	counts, total := b.distribution(members)
	impurity := gini(counts, total)

	if impurity == 0 ||
		len(members) < b.cfg.minSamplesSplit ||
		len(members) < 2*b.cfg.minSamplesLeaf ||
		(b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) {
		b.makeLeaf(id, counts, total)
		return
	}

	split, ok := b.bestSplit(id, counts, total, impurity, len(members))
	if !ok {
		b.makeLeaf(id, counts, total)
		return
	}

	var left, right []int
	for _, i := range members {
		if b.data.X[i][split.feature] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	leftID := b.t.add(node{Left: leafNode, Right: leafNode})
	rightID := b.t.add(node{Left: leafNode, Right: leafNode})
	b.t.Nodes[id] = node{Feature: split.feature, Threshold: split.threshold, Left: leftID, Right: rightID}

	for _, i := range left {
		b.nodeOf[i] = leftID
	}
	for _, i := range right {
		b.nodeOf[i] = rightID
	}
	b.grow(leftID, left, depth+1)
	b.grow(rightID, right, depth+1)
}

func (b *cartBuilder) makeLeaf(id int, counts []float64, total float64) {
	dist := make([]float64, b.k)
	for c := range counts {
		dist[c] = counts[c] / total
	}
	b.t.Nodes[id] = node{Left: leafNode, Right: leafNode, Dist: dist}
}

// bestSplit scans a random subset of features for the largest weighted gini decrease
func (b *cartBuilder) bestSplit(id int, counts []float64, total, impurity float64, size int) (cartSplit, bool) {
	best := cartSplit{gain: 0}
	found := false

	features := b.rng.Perm(b.data.cols)[:b.cfg.maxFeatures]
	leftCounts := make([]float64, b.k)
	rightCounts := make([]float64, b.k)

	for _, f := range features {
		for c := range leftCounts {
			leftCounts[c] = 0
		}
		var leftTotal float64
		leftSize := 0
		prev := -1

		for _, i := range b.data.sorted[f] {
			if b.nodeOf[i] != id {
				continue
			}
			if prev >= 0 && leftSize >= b.cfg.minSamplesLeaf && size-leftSize >= b.cfg.minSamplesLeaf {
				lo, hi := b.data.X[prev][f], b.data.X[i][f]
				if lo < hi {
					for c := range rightCounts {
						rightCounts[c] = counts[c] - leftCounts[c]
					}
					rightTotal := total - leftTotal
					gain := impurity*total -
						gini(leftCounts, leftTotal)*leftTotal -
						gini(rightCounts, rightTotal)*rightTotal
					if gain > best.gain+1e-12 {
						best = cartSplit{feature: f, threshold: splitPoint(lo, hi), gain: gain}
						found = true
					}
				}
			}
			leftCounts[b.y[i]] += b.weights[i]
			leftTotal += b.weights[i]
			leftSize++
			prev = i
		}
	}
	return best, found
}

// sqrtFeatures is max(1, floor(sqrt(p)))
func sqrtFeatures(p int) int {
	m := int(math.Sqrt(float64(p)))
	if m < 1 {
		return 1
	}
	return m
}
