// Package graph holds the directed reachability graphs inferred from static routes.
package graph

import (
	"sort"
)

// Synthetic endpoints standing for the hosts behind the source and destination networks.
const (
	SourceTerminal      = "PC-S"
	DestinationTerminal = "PC-D"
)

// Attrs only drive rendering.
type Attrs struct {
	Color  string `json:"color"`
	Weight int    `json:"weight"`
	Style  string `json:"style"`
}

var (
	routeAttrs    = Attrs{Color: "black", Weight: 2, Style: "solid"}
	terminalAttrs = Attrs{Color: "green", Weight: 1, Style: "dashed"}
)

type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Attrs Attrs  `json:"attrs"`
}

type Graph struct {
	nodes map[string]struct{}
	out   map[string]map[string]Attrs
	in    map[string]map[string]struct{}
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		out:   make(map[string]map[string]Attrs),
		in:    make(map[string]map[string]struct{}),
	}
}

func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = struct{}{}
	g.out[id] = make(map[string]Attrs)
	g.in[id] = make(map[string]struct{})
}

// AddEdge adds from -> to. A second edge between the same pair replaces the attributes of the first.
func (g *Graph) AddEdge(from, to string, attrs Attrs) {
	g.AddNode(from)
	g.AddNode(to)
	g.out[from][to] = attrs
	g.in[to][from] = struct{}{}
}

func (g *Graph) RemoveEdge(from, to string) {
	if succ, ok := g.out[from]; ok {
		delete(succ, to)
	}
	if pred, ok := g.in[to]; ok {
		delete(pred, from)
	}
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.out[from][to]
	return ok
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

// Edges are sorted by (From, To).
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.Nodes() {
		for _, to := range g.Successors(from) {
			edges = append(edges, Edge{From: from, To: to, Attrs: g.out[from][to]})
		}
	}
	return edges
}

func (g *Graph) Successors(id string) []string {
	succ := make([]string, 0, len(g.out[id]))
	for to := range g.out[id] {
		succ = append(succ, to)
	}
	sort.Strings(succ)
	return succ
}

func (g *Graph) Predecessors(id string) []string {
	pred := make([]string, 0, len(g.in[id]))
	for from := range g.in[id] {
		pred = append(pred, from)
	}
	sort.Strings(pred)
	return pred
}

func (g *Graph) Clone() *Graph {
	c := New()
	for id := range g.nodes {
		c.AddNode(id)
	}
	for from, succ := range g.out {
		for to, attrs := range succ {
			c.AddEdge(from, to, attrs)
		}
	}
	return c
}

// Transpose returns a copy with every edge reversed.
func (g *Graph) Transpose() *Graph {
	t := New()
	for id := range g.nodes {
		t.AddNode(id)
	}
	for from, succ := range g.out {
		for to, attrs := range succ {
			t.AddEdge(to, from, attrs)
		}
	}
	return t
}
