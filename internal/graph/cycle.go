package graph

// findCycle returns one cycle among the tasks that Kahn's algorithm could
// not order. The path starts and ends on the same task ID and follows
// "depends on" edges: [a, b, a] means a depends on b and b depends on a.
//
// The algorithm:
//  1. Restrict the graph to the unresolved tasks
//  2. Find strongly connected components with Tarjan's algorithm, visiting
//     tasks in insertion order so the reported cycle is deterministic
//  3. Take the first component with more than one task, or a self-loop,
//     and walk a shortest path from its lowest-index task back to itself
func (g *Graph) findCycle(resolved []int) []string {
	done := make([]bool, len(g.tasks))
	for _, i := range resolved {
		done[i] = true
	}

	edges := make(map[int][]int)
	var nodes []int
	for i := range g.tasks {
		if done[i] {
			continue
		}
		nodes = append(nodes, i)
		for _, j := range g.deps[i] {
			if !done[j] {
				edges[i] = append(edges[i], j)
			}
		}
	}

	for _, scc := range tarjanSCC(nodes, edges) {
		if len(scc) > 1 || hasSelfLoop(scc[0], edges) {
			return g.ids(shortestLoop(scc, edges))
		}
	}
	// Unreachable for a graph Kahn rejected; keep the error informative anyway.
	return g.ids(nodes)
}

func (g *Graph) ids(idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = g.tasks[n].ID
	}
	return out
}

func hasSelfLoop(node int, edges map[int][]int) bool {
	for _, n := range edges[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
func tarjanSCC(nodes []int, edges map[int][]int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// shortestLoop returns a closed path through the component, starting and
// ending at its lowest-index member. Breadth-first search inside the
// component guarantees the walk closes.
func shortestLoop(scc []int, edges map[int][]int) []int {
	start := scc[0]
	member := make(map[int]bool, len(scc))
	for _, n := range scc {
		member[n] = true
		if n < start {
			start = n
		}
	}

	parent := map[int]int{}
	queue := []int{start}
	seen := map[int]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range edges[cur] {
			if !member[next] {
				continue
			}
			if next == start {
				path := []int{start}
				for n := cur; n != start; n = parent[n] {
					path = append(path, n)
				}
				path = append(path, start)
				// path was built backwards from the closing edge
				reverse(path[1 : len(path)-1])
				return path
			}
			if !seen[next] {
				seen[next] = true
				parent[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return []int{start, start}
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
