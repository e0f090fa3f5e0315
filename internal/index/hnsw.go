package index

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"

	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/vectormath"
)

const (
	defaultM              = 16
	defaultEfConstruction = 200
	defaultEfSearch       = 50
)

type hnswNode struct {
	id        string
	vector    []float64
	level     int
	neighbors [][]int // neighbors[layer] = neighbor handles at that layer
}

// HierarchicalIndex is a simplified HNSW-style multi-layer proximity graph.
// Nodes are assigned a level by geometric sampling; higher layers hold
// strict subsets of lower ones, giving expected O(log N) search depth.
type HierarchicalIndex struct {
	m              int
	efConstruction int
	efSearch       int
	seed           int64

	nodes      []*hnswNode
	idToHandle map[string]int
	entryPoint int
	topLevel   int
}

// BuildHierarchical inserts items one at a time: each is assigned a level,
// greedy-descended to from the current entry point down to its own level,
// then linked into every layer from its level down to 0 via a bounded beam
// search plus the heuristic neighbor selector.
func BuildHierarchical(items []Item, params Params) (*HierarchicalIndex, error) {
	m := params.M
	if m <= 0 {
		m = defaultM
	}
	efConstruction := params.EfConstruction
	if efConstruction <= 0 {
		efConstruction = defaultEfConstruction
	}
	efSearch := params.EfSearch
	if efSearch <= 0 {
		efSearch = defaultEfSearch
	}
	seed := params.Seed
	if seed == 0 {
		seed = 1
	}

	h := &HierarchicalIndex{
		m: m, efConstruction: efConstruction, efSearch: efSearch, seed: seed,
		idToHandle: make(map[string]int, len(items)),
		entryPoint: -1,
		topLevel:   -1,
	}
	if len(items) == 0 {
		return h, nil
	}

	mL := 1.0 / math.Log(float64(m))
	rng := rand.New(rand.NewSource(seed))

	for _, it := range items {
		if err := vectormath.Validate(it.Vector); err != nil {
			return nil, err
		}
		level := sampleLevel(rng, mL)
		if err := h.insert(it.ChunkID, it.Vector, level); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func sampleLevel(rng *rand.Rand, mL float64) int {
	u := rng.Float64()
	if u <= 0 {
		u = 1e-12
	}
	return int(math.Floor(-math.Log(u) * mL))
}

func (h *HierarchicalIndex) budgetForLayer(layer int) int {
	if layer == 0 {
		return h.m * 2
	}
	return h.m
}

func (h *HierarchicalIndex) insert(id string, vector []float64, level int) error {
	handle := len(h.nodes)
	node := &hnswNode{id: id, vector: vector, level: level, neighbors: make([][]int, level+1)}
	h.nodes = append(h.nodes, node)
	h.idToHandle[id] = handle

	if h.entryPoint == -1 {
		h.entryPoint = handle
		h.topLevel = level
		return nil
	}

	entry := h.entryPoint
	// Greedy descent (beam width 1) from the top down to level+1.
	for layer := h.topLevel; layer > level; layer-- {
		cands, err := h.searchLayer(vector, []int{entry}, 1, layer)
		if err != nil {
			return err
		}
		if len(cands) > 0 {
			entry = cands[0].handle
		}
	}

	entryPoints := []int{entry}
	for layer := min(level, h.topLevel); layer >= 0; layer-- {
		cands, err := h.searchLayer(vector, entryPoints, h.efConstruction, layer)
		if err != nil {
			return err
		}
		budget := h.budgetForLayer(layer)
		selected := h.selectHeuristic(vector, cands, budget)

		node.neighbors[layer] = selected
		for _, nb := range selected {
			h.addEdge(nb, handle, layer)
			h.pruneIfNeeded(nb, layer)
		}
		entryPoints = handlesOf(cands)
	}

	if level > h.topLevel {
		h.entryPoint = handle
		h.topLevel = level
	}
	return nil
}

func handlesOf(c []candidate) []int {
	out := make([]int, len(c))
	for i, x := range c {
		out[i] = x.handle
	}
	return out
}

func (h *HierarchicalIndex) addEdge(a, b, layer int) {
	na := h.nodes[a]
	for layer >= len(na.neighbors) {
		na.neighbors = append(na.neighbors, nil)
	}
	na.neighbors[layer] = append(na.neighbors[layer], b)
}

func (h *HierarchicalIndex) pruneIfNeeded(handle, layer int) {
	node := h.nodes[handle]
	budget := h.budgetForLayer(layer)
	if len(node.neighbors[layer]) <= budget {
		return
	}
	cands := make([]candidate, 0, len(node.neighbors[layer]))
	for _, nb := range node.neighbors[layer] {
		score, _ := vectormath.Cosine(node.vector, h.nodes[nb].vector)
		cands = append(cands, candidate{handle: nb, score: score, id: h.nodes[nb].id})
	}
	sortCandidatesDesc(cands)
	node.neighbors[layer] = h.selectHeuristic(node.vector, cands, budget)
}

// candidate pairs a node handle with its score against some reference
// vector, plus its id for deterministic tie-breaking.
type candidate struct {
	handle int
	score  float64
	id     string
}

func sortCandidatesDesc(c []candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].score != c[j].score {
			return c[i].score > c[j].score
		}
		return c[i].id < c[j].id
	})
}

// selectHeuristic implements the classic HNSW "select-heuristic": walking
// candidates best-first, a candidate is kept only if it is closer to the
// reference vector than to every neighbor already kept. This favors diverse
// neighbors over a naive top-m-by-score selection.
func (h *HierarchicalIndex) selectHeuristic(ref []float64, cands []candidate, m int) []int {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sortCandidatesDesc(sorted)

	selected := make([]int, 0, m)
	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		keep := true
		for _, s := range selected {
			simToSelected, _ := vectormath.Cosine(h.nodes[c.handle].vector, h.nodes[s].vector)
			if simToSelected >= c.score {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c.handle)
		}
	}
	return selected
}

// frontierHeap is a max-heap (by score, ties ascending id) used to explore
// the highest-scoring unvisited frontier node next during a layer search.
type frontierHeap []candidate

func (f frontierHeap) Len() int { return len(f) }
func (f frontierHeap) Less(i, j int) bool {
	if f[i].score != f[j].score {
		return f[i].score > f[j].score
	}
	return f[i].id < f[j].id
}
func (f frontierHeap) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *frontierHeap) Push(x any)        { *f = append(*f, x.(candidate)) }
func (f *frontierHeap) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// resultHeap is a bounded min-heap (worst-first) used to track the ef best
// candidates seen so far, analogous to topKCollector but keyed on handle.
type resultHeap []candidate

func (r resultHeap) Len() int { return len(r) }
func (r resultHeap) Less(i, j int) bool {
	if r[i].score != r[j].score {
		return r[i].score < r[j].score
	}
	return r[i].id > r[j].id
}
func (r resultHeap) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
func (r *resultHeap) Push(x any)   { *r = append(*r, x.(candidate)) }
func (r *resultHeap) Pop() any {
	old := *r
	n := len(old)
	item := old[n-1]
	*r = old[:n-1]
	return item
}

// searchLayer runs a bounded beam search of width ef at the given layer,
// starting from entryPoints, and returns up to ef candidates sorted
// descending by score (ties ascending id).
func (h *HierarchicalIndex) searchLayer(query []float64, entryPoints []int, ef int, layer int) ([]candidate, error) {
	visited := make(map[int]bool, ef*2)
	frontier := &frontierHeap{}
	results := &resultHeap{}

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		visited[ep] = true
		score, err := vectormath.Cosine(query, h.nodes[ep].vector)
		if err != nil {
			return nil, corverr.Wrap(corverr.Internal, "hierarchical search cosine computation failed", err)
		}
		c := candidate{handle: ep, score: score, id: h.nodes[ep].id}
		heap.Push(frontier, c)
		heap.Push(results, c)
	}
	for results.Len() > ef {
		heap.Pop(results)
	}

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(candidate)
		if results.Len() >= ef && cur.score < (*results)[0].score {
			break // worst kept result already beats every unexplored frontier candidate
		}
		for _, nb := range h.neighborsAt(cur.handle, layer) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			score, err := vectormath.Cosine(query, h.nodes[nb].vector)
			if err != nil {
				return nil, corverr.Wrap(corverr.Internal, "hierarchical search cosine computation failed", err)
			}
			nc := candidate{handle: nb, score: score, id: h.nodes[nb].id}
			if results.Len() < ef {
				heap.Push(results, nc)
				heap.Push(frontier, nc)
			} else if score > (*results)[0].score {
				heap.Push(results, nc)
				heap.Pop(results)
				heap.Push(frontier, nc)
			}
		}
	}

	out := make([]candidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(candidate)
	}
	return out, nil
}

func (h *HierarchicalIndex) neighborsAt(handle, layer int) []int {
	node := h.nodes[handle]
	if layer >= len(node.neighbors) {
		return nil
	}
	return node.neighbors[layer]
}

// Search descends greedily (beam width 1) from the entry point through
// layers top…1, then runs a beam search of width max(k, efSearch) on layer
// 0 and returns the top-k.
func (h *HierarchicalIndex) Search(query []float64, k int, filter Filter) ([]Result, error) {
	if k <= 0 || h.entryPoint == -1 {
		return nil, nil
	}
	filter = normalizeFilter(filter)

	entry := h.entryPoint
	for layer := h.topLevel; layer > 0; layer-- {
		cands, err := h.searchLayer(query, []int{entry}, 1, layer)
		if err != nil {
			return nil, err
		}
		if len(cands) > 0 {
			entry = cands[0].handle
		}
	}

	ef := h.efSearch
	if k > ef {
		ef = k
	}
	cands, err := h.searchLayer(query, []int{entry}, ef, 0)
	if err != nil {
		return nil, err
	}

	collector := newTopKCollector(k)
	for _, c := range cands {
		if !filter(c.id) {
			continue
		}
		collector.offer(Result{ChunkID: c.id, Score: c.score})
	}
	return collector.results(), nil
}

func (h *HierarchicalIndex) Type() Type { return Hierarchical }

func (h *HierarchicalIndex) Len() int { return len(h.nodes) }
