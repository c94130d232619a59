package ml

// GrowPolicy selects how a boosting tree is expanded
type GrowPolicy int

const (
	// GrowDepthwise splits every node level by level up to MaxDepth
	GrowDepthwise GrowPolicy = iota
	// GrowLeafwise always splits the leaf with the largest gain until MaxLeaves
	GrowLeafwise
	// GrowOblivious uses one shared split per level, giving a symmetric tree
	GrowOblivious
)

func (p GrowPolicy) String() string {
	switch p {
	case GrowDepthwise:
		return "depthwise"
	case GrowLeafwise:
		return "leafwise"
	case GrowOblivious:
		return "oblivious"
	default:
		return "unknown"
	}
}

// minHessian keeps Newton steps finite when lambda is zero
const minHessian = 1e-12

type gradTreeConfig struct {
	maxDepth       int // 0 = unlimited (leafwise only)
	maxLeaves      int
	minSamplesLeaf int
	minChildWeight float64
	lambda         float64
	gamma          float64
	policy         GrowPolicy
}

// gradBuilder fits one regression tree to gradient/hessian pairs
type gradBuilder struct {
	data *dataset
	grad []float64
	hess []float64
	cfg  gradTreeConfig

	nodeOf []int
	t      *tree
}

type gradLeaf struct {
	id      int
	depth   int
	members []int
	g, h    float64
}

type gradSplit struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *gradBuilder) score(g, h float64) float64 {
	return g * g / (h + b.cfg.lambda + minHessian)
}

func (b *gradBuilder) leafValue(g, h float64) float64 {
	return -g / (h + b.cfg.lambda + minHessian)
}

func growGradientTree(data *dataset, grad, hess []float64, cfg gradTreeConfig) *tree {
	b := &gradBuilder{
		data:   data,
		grad:   grad,
		hess:   hess,
		cfg:    cfg,
		nodeOf: make([]int, data.rows),
		t:      &tree{},
	}

	root := gradLeaf{id: b.t.add(node{Left: leafNode, Right: leafNode}), members: make([]int, data.rows)}
	for i := range root.members {
		root.members[i] = i
		root.g += grad[i]
		root.h += hess[i]
	}

	var leaves []gradLeaf
	switch cfg.policy {
	case GrowLeafwise:
		leaves = b.growLeafwise(root)
	case GrowOblivious:
		leaves = b.growOblivious(root)
	default:
		leaves = b.growDepthwise(root)
	}

	for _, l := range leaves {
		b.t.Nodes[l.id] = node{Left: leafNode, Right: leafNode, Value: b.leafValue(l.g, l.h)}
	}
	return b.t
}

func (b *gradBuilder) canSplit(l gradLeaf) bool {
	if len(l.members) < 2*b.cfg.minSamplesLeaf {
		return false
	}
	return b.cfg.maxDepth <= 0 || l.depth < b.cfg.maxDepth
}

// bestSplit finds the highest-gain threshold for one leaf
func (b *gradBuilder) bestSplit(l gradLeaf) (gradSplit, bool) {
	best := gradSplit{}
	found := false
	parent := b.score(l.g, l.h)
	size := len(l.members)

	for f := 0; f < b.data.cols; f++ {
		var gl, hl float64
		leftSize := 0
		prev := -1
		for _, i := range b.data.sorted[f] {
			if b.nodeOf[i] != l.id {
				continue
			}
			if prev >= 0 && leftSize >= b.cfg.minSamplesLeaf && size-leftSize >= b.cfg.minSamplesLeaf &&
				hl >= b.cfg.minChildWeight && l.h-hl >= b.cfg.minChildWeight {
				lo, hi := b.data.X[prev][f], b.data.X[i][f]
				if lo < hi {
					gain := 0.5*(b.score(gl, hl)+b.score(l.g-gl, l.h-hl)-parent) - b.cfg.gamma
					if gain > best.gain+1e-12 {
						best = gradSplit{feature: f, threshold: splitPoint(lo, hi), gain: gain}
						found = true
					}
				}
			}
			gl += b.grad[i]
			hl += b.hess[i]
			leftSize++
			prev = i
		}
	}
	return best, found
}

// apply splits l into two new leaves
func (b *gradBuilder) apply(l gradLeaf, s gradSplit) (gradLeaf, gradLeaf) {
	left := gradLeaf{id: b.t.add(node{Left: leafNode, Right: leafNode}), depth: l.depth + 1}
	right := gradLeaf{id: b.t.add(node{Left: leafNode, Right: leafNode}), depth: l.depth + 1}
	b.t.Nodes[l.id] = node{Feature: s.feature, Threshold: s.threshold, Left: left.id, Right: right.id}

	for _, i := range l.members {
		if b.data.X[i][s.feature] <= s.threshold {
			left.members = append(left.members, i)
			left.g += b.grad[i]
			left.h += b.hess[i]
			b.nodeOf[i] = left.id
		} else {
			right.members = append(right.members, i)
			right.g += b.grad[i]
			right.h += b.hess[i]
			b.nodeOf[i] = right.id
		}
	}
	return left, right
}

func (b *gradBuilder) growDepthwise(root gradLeaf) []gradLeaf {
	var done []gradLeaf
	level := []gradLeaf{root}
	for len(level) > 0 {
		var next []gradLeaf
		for _, l := range level {
			if !b.canSplit(l) {
				done = append(done, l)
				continue
			}
			s, ok := b.bestSplit(l)
			if !ok {
				done = append(done, l)
				continue
			}
			left, right := b.apply(l, s)
			next = append(next, left, right)
		}
		level = next
	}
	return done
}

func (b *gradBuilder) growLeafwise(root gradLeaf) []gradLeaf {
	type candidate struct {
		leaf  gradLeaf
		split gradSplit
		ok    bool
	}
	evaluate := func(l gradLeaf) candidate {
		if !b.canSplit(l) {
			return candidate{leaf: l}
		}
		s, ok := b.bestSplit(l)
		return candidate{leaf: l, split: s, ok: ok}
	}

	open := []candidate{evaluate(root)}
	for len(open) < max(b.cfg.maxLeaves, 2) {
		pick := -1
		for i, c := range open {
			if c.ok && (pick < 0 || c.split.gain > open[pick].split.gain) {
				pick = i
			}
		}
		if pick < 0 {
			break
		}
		chosen := open[pick]
		left, right := b.apply(chosen.leaf, chosen.split)
		open = append(open[:pick], open[pick+1:]...)
		open = append(open, evaluate(left), evaluate(right))
	}

	leaves := make([]gradLeaf, len(open))
	for i, c := range open {
		leaves[i] = c.leaf
	}
	return leaves
}

// growOblivious picks, per level, the single (feature, threshold) maximising the
// summed gain over all current leaves and applies it to each of them
func (b *gradBuilder) growOblivious(root gradLeaf) []gradLeaf {
	level := []gradLeaf{root}
	for depth := 0; depth < b.cfg.maxDepth; depth++ {
		s, ok := b.bestSharedSplit(level)
		if !ok {
			break
		}
		next := make([]gradLeaf, 0, 2*len(level))
		for _, l := range level {
			left, right := b.apply(l, s)
			next = append(next, left, right)
		}
		level = next
	}
	return level
}

func (b *gradBuilder) bestSharedSplit(level []gradLeaf) (gradSplit, bool) {
	slot := make(map[int]int, len(level))
	for i, l := range level {
		slot[l.id] = i
	}
	gl := make([]float64, len(level))
	hl := make([]float64, len(level))

	contribution := func(k int) float64 {
		l := level[k]
		return b.score(gl[k], hl[k]) + b.score(l.g-gl[k], l.h-hl[k]) - b.score(l.g, l.h)
	}

	best := gradSplit{}
	found := false
	for f := 0; f < b.data.cols; f++ {
		for k := range level {
			gl[k], hl[k] = 0, 0
		}
		var total float64
		order := b.data.sorted[f]
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			k := slot[b.nodeOf[i]]
			total -= contribution(k)
			gl[k] += b.grad[i]
			hl[k] += b.hess[i]
			total += contribution(k)

			lo, hi := b.data.X[i][f], b.data.X[order[pos+1]][f]
			if lo < hi && total*0.5 > best.gain+1e-12 {
				best = gradSplit{feature: f, threshold: splitPoint(lo, hi), gain: total * 0.5}
				found = true
			}
		}
	}
	return best, found
}
