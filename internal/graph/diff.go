package graph

// Changes lists the edges that appeared or vanished between two graphs.
type Changes struct {
	Added   []Edge `json:"added"`
	Removed []Edge `json:"removed"`
}

func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Diff compares edges by node pair; attribute changes alone are not reported.
func Diff(initial, current *Graph) Changes {
	var c Changes
	for _, e := range current.Edges() {
		if !initial.HasEdge(e.From, e.To) {
			c.Added = append(c.Added, e)
		}
	}
	for _, e := range initial.Edges() {
		if !current.HasEdge(e.From, e.To) {
			c.Removed = append(c.Removed, e)
		}
	}
	return c
}
