package ml

import (
	"sort"
)

const leafNode = -1

// node is either an internal split (Left/Right >= 0) or a leaf
type node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Dist      []float64 `json:"dist,omitempty"`  // class distribution for classification leaves
	Value     float64   `json:"value,omitempty"` // raw score for regression leaves
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (t *tree) add(n node) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

func (t *tree) leaf(x []float64) *node {
	i := 0
	for t.Nodes[i].Left != leafNode {
		n := &t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return &t.Nodes[i]
}

func (t *tree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Left == leafNode {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return walk(0)
}

func (t *tree) leaves() int {
	count := 0
	for _, n := range t.Nodes {
		if n.Left == leafNode {
			count++
		}
	}
	return count
}

// dataset keeps the training matrix together with one ascending sample order per feature,
// so split search scans instead of sorting at every node
type dataset struct {
	X      [][]float64
	rows   int
	cols   int
	sorted [][]int
}

func newDataset(X [][]float64) *dataset {
	d := &dataset{X: X, rows: len(X), cols: len(X[0]), sorted: make([][]int, len(X[0]))}
	for j := 0; j < d.cols; j++ {
		order := make([]int, d.rows)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return X[order[a]][j] < X[order[b]][j]
		})
		d.sorted[j] = order
	}
	return d
}

// splitPoint is the midpoint between two adjacent distinct values
func splitPoint(lo, hi float64) float64 {
	mid := lo + (hi-lo)/2
	if mid >= hi {
		return lo
	}
	return mid
}
