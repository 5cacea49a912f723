package graph

import (
	"container/heap"

	"github.com/roach88/tickerflow/internal/ir"
)

// Graph is a validated, immutable dependency graph of tasks.
//
// It is safe for concurrent read access.
type Graph struct {
	tasks      []ir.Task      // insertion order
	index      map[string]int // task ID -> insertion index
	deps       [][]int        // by index, deduplicated, ascending
	dependents [][]int        // by index, ascending
	order      []int          // memoized topological order
}

// New builds and validates a graph.
//
// Validation runs immediately and rejects:
//   - tasks with an empty ID
//   - duplicate IDs
//   - dependencies on IDs outside the set
//   - any cycle, including a task depending on itself
//
// Duplicate entries in a task's Deps collapse to one edge.
func New(tasks []ir.Task) (*Graph, error) {
	g := &Graph{
		tasks: make([]ir.Task, len(tasks)),
		index: make(map[string]int, len(tasks)),
	}
	copy(g.tasks, tasks)

	for i, t := range g.tasks {
		if t.ID == "" {
			return nil, &ConstructionError{Code: ErrCodeEmptyID, Message: "task ID is required"}
		}
		if _, exists := g.index[t.ID]; exists {
			return nil, &ConstructionError{Code: ErrCodeDuplicateTask, Message: "duplicate task ID", TaskID: t.ID}
		}
		g.index[t.ID] = i
	}

	g.deps = make([][]int, len(g.tasks))
	g.dependents = make([][]int, len(g.tasks))
	for i, t := range g.tasks {
		seen := make(map[int]bool, len(t.Deps))
		for _, dep := range t.Deps {
			j, ok := g.index[dep]
			if !ok {
				return nil, &ConstructionError{
					Code:       ErrCodeDanglingDependency,
					Message:    "dependency does not name a task in the graph",
					TaskID:     t.ID,
					Dependency: dep,
				}
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.deps[i] = append(g.deps[i], j)
			// i is visited in ascending order, so each dependents list stays sorted.
			g.dependents[j] = append(g.dependents[j], i)
		}
	}

	order := g.kahn()
	if len(order) < len(g.tasks) {
		return nil, newCycleError(g.findCycle(order), len(g.tasks)-len(order))
	}
	g.order = order

	return g, nil
}

// kahn computes the topological order. Ties go to the lowest insertion index.
func (g *Graph) kahn() []int {
	indeg := make([]int, len(g.tasks))
	for i := range g.tasks {
		indeg[i] = len(g.deps[i])
	}

	ready := &indexHeap{}
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]int, 0, len(g.tasks))
	for ready.Len() > 0 {
		cur := heap.Pop(ready).(int)
		order = append(order, cur)
		for _, next := range g.dependents[cur] {
			indeg[next]--
			if indeg[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}
	return order
}

// TopologicalOrder returns the tasks in dependency-resolved order.
//
// The order is computed once at construction. Every call returns a fresh
// slice holding the identical sequence.
func (g *Graph) TopologicalOrder() []ir.Task {
	out := make([]ir.Task, len(g.order))
	for i, idx := range g.order {
		out[i] = g.tasks[idx]
	}
	return out
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// Task returns a task by ID.
func (g *Graph) Task(id string) (ir.Task, bool) {
	i, ok := g.index[id]
	if !ok {
		return ir.Task{}, false
	}
	return g.tasks[i], true
}

// Tasks returns the tasks in insertion order.
func (g *Graph) Tasks() []ir.Task {
	out := make([]ir.Task, len(g.tasks))
	copy(out, g.tasks)
	return out
}

// Dependents returns the IDs of tasks that depend directly on id, in
// insertion order.
func (g *Graph) Dependents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.dependents[i]))
	for _, j := range g.dependents[i] {
		out = append(out, g.tasks[j].ID)
	}
	return out
}

// CrossesEntities reports whether any dependency edge joins tasks owned by
// different entities.
func (g *Graph) CrossesEntities() bool {
	for i, t := range g.tasks {
		for _, j := range g.deps[i] {
			if g.tasks[j].Entity() != t.Entity() {
				return true
			}
		}
	}
	return false
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
