package graph

// HasPath reports whether to is reachable from from.
func (g *Graph) HasPath(from, to string) bool {
	return g.ShortestPath(from, to) != nil
}

// ShortestPath returns the hop-shortest path from -> to, both included, or nil.
// Neighbours are expanded in sorted order so equal length paths resolve the same way.
func (g *Graph) ShortestPath(from, to string) []string {
	if !g.HasNode(from) || !g.HasNode(to) {
		return nil
	}
	if from == to {
		return []string{from}
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				return unwind(prev, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func unwind(prev map[string]string, from, to string) []string {
	var path []string
	for cur := to; cur != from; cur = prev[cur] {
		path = append(path, cur)
	}
	path = append(path, from)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindCycle returns one simple cycle of the graph, or nil. The search visits nodes
// and successors in sorted order and the cycle is rotated to start at its smallest
// member, so the same graph always reports the same cycle.
func (g *Graph) FindCycle() []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(n string) bool
	visit = func(n string) bool {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range g.Successors(n) {
			switch color[next] {
			case grey:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycle = append([]string(nil), stack[i:]...)
						return true
					}
				}
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for _, n := range g.Nodes() {
		if color[n] == white && visit(n) {
			return rotate(cycle)
		}
	}
	return nil
}

func rotate(cycle []string) []string {
	first := 0
	for i, n := range cycle {
		if n < cycle[first] {
			first = i
		}
	}
	return append(append([]string(nil), cycle[first:]...), cycle[:first]...)
}

// ChaseResult is where a pointer chase ended.
type ChaseResult struct {
	// Last is the final node reached before stopping.
	Last string
	// Broken is set when Last has nowhere to go.
	Broken bool
	// Looped is set when the chase came back to a node it already visited.
	Looped bool
	Visited []string
}

// Chase follows the first successor of each node starting at start. It ends at a
// node without successors, at stop, or when a node repeats.
func (g *Graph) Chase(start, stop string) ChaseResult {
	return g.ChaseFunc(start, func(n string) bool { return n == stop })
}

// ChaseFunc is Chase ending at the first node satisfying stop.
func (g *Graph) ChaseFunc(start string, stop func(string) bool) ChaseResult {
	seen := make(map[string]bool)
	cur := start
	res := ChaseResult{}
	for {
		res.Visited = append(res.Visited, cur)
		seen[cur] = true
		res.Last = cur
		if stop(cur) {
			return res
		}
		succ := g.Successors(cur)
		if len(succ) == 0 {
			res.Broken = true
			return res
		}
		next := succ[0]
		if seen[next] {
			res.Looped = true
			return res
		}
		cur = next
	}
}
