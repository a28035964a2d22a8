package graph

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/lab"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

func chain(nodes ...string) *Graph {
	g := New()
	for i := 0; i+1 < len(nodes); i++ {
		g.AddEdge(nodes[i], nodes[i+1], routeAttrs)
	}
	return g
}

func build(t *testing.T, snapshot func() map[string]facts.DeviceFacts, dst netip.Prefix) Pair {
	t.Helper()
	topo, err := topology.Build(snapshot())
	require.NoError(t, err)
	pair, err := Build(topo, lab.SourceNetwork, dst)
	require.NoError(t, err)
	return pair
}

func pairs(edges []Edge) [][2]string {
	out := make([][2]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, [2]string{e.From, e.To})
	}
	return out
}

func TestGraph(t *testing.T) {
	t.Run("duplicate edges collapse", func(t *testing.T) {
		g := New()
		g.AddEdge("R1", "R2", routeAttrs)
		g.AddEdge("R1", "R2", terminalAttrs)
		require.Len(t, g.Edges(), 1)
		assert.Equal(t, terminalAttrs, g.Edges()[0].Attrs)
	})

	t.Run("sorted accessors", func(t *testing.T) {
		g := New()
		g.AddEdge("R3", "R1", routeAttrs)
		g.AddEdge("R1", "R3", routeAttrs)
		g.AddEdge("R1", "R2", routeAttrs)
		assert.Equal(t, []string{"R1", "R2", "R3"}, g.Nodes())
		assert.Equal(t, []string{"R2", "R3"}, g.Successors("R1"))
		assert.Equal(t, []string{"R3"}, g.Predecessors("R1"))
		assert.Equal(t, [][2]string{{"R1", "R2"}, {"R1", "R3"}, {"R3", "R1"}}, pairs(g.Edges()))
	})

	t.Run("transpose and clone", func(t *testing.T) {
		g := chain("A", "B", "C")
		tr := g.Transpose()
		assert.True(t, tr.HasEdge("C", "B"))
		assert.False(t, tr.HasEdge("B", "C"))

		c := g.Clone()
		c.RemoveEdge("A", "B")
		assert.True(t, g.HasEdge("A", "B"))
		assert.False(t, c.HasEdge("A", "B"))
	})
}

func TestPaths(t *testing.T) {
	g := chain("A", "B", "C", "D")
	g.AddEdge("A", "C", routeAttrs)

	assert.True(t, g.HasPath("A", "D"))
	assert.False(t, g.HasPath("D", "A"))
	assert.False(t, g.HasPath("A", "missing"))
	assert.Equal(t, []string{"A", "C", "D"}, g.ShortestPath("A", "D"))
	assert.Equal(t, []string{"B"}, g.ShortestPath("B", "B"))
}

func TestFindCycle(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		assert.Nil(t, chain("A", "B", "C").FindCycle())
	})

	t.Run("rotated to smallest member", func(t *testing.T) {
		g := chain("X", "R3", "R1", "R2", "R3")
		assert.Equal(t, []string{"R1", "R2", "R3"}, g.FindCycle())
	})

	t.Run("deterministic with several cycles", func(t *testing.T) {
		g := chain("A", "B", "A")
		g.AddEdge("C", "D", routeAttrs)
		g.AddEdge("D", "C", routeAttrs)
		for i := 0; i < 5; i++ {
			assert.Equal(t, []string{"A", "B"}, g.Clone().FindCycle())
		}
	})

	t.Run("self loop", func(t *testing.T) {
		g := New()
		g.AddEdge("A", "A", routeAttrs)
		assert.Equal(t, []string{"A"}, g.FindCycle())
	})
}

func TestChase(t *testing.T) {
	t.Run("reaches stop", func(t *testing.T) {
		res := chain("S", "A", "B", "D").Chase("S", "D")
		assert.False(t, res.Broken)
		assert.False(t, res.Looped)
		assert.Equal(t, "D", res.Last)
	})

	t.Run("dead end", func(t *testing.T) {
		res := chain("S", "A", "B").Chase("S", "D")
		assert.True(t, res.Broken)
		assert.Equal(t, "B", res.Last)
		assert.Equal(t, []string{"S", "A", "B"}, res.Visited)
	})

	t.Run("terminates on loops", func(t *testing.T) {
		res := chain("S", "A", "B", "A").Chase("S", "D")
		assert.True(t, res.Looped)
		assert.Equal(t, "B", res.Last)
	})
}

func TestBuild(t *testing.T) {
	t.Run("healthy line", func(t *testing.T) {
		pair := build(t, lab.Line, lab.DestinationNetwork)
		assert.Equal(t, topology.Roles{Source: "R1", Destination: "R3"}, pair.Roles)
		assert.Equal(t, [][2]string{
			{"PC-S", "R1"}, {"R1", "R2"}, {"R2", "R3"}, {"R3", "PC-D"},
		}, pairs(pair.Forward.Edges()))
		assert.Equal(t, [][2]string{
			{"PC-D", "R3"}, {"R1", "PC-S"}, {"R2", "R1"}, {"R3", "R2"},
		}, pairs(pair.Reverse.Edges()))
	})

	t.Run("edge attributes", func(t *testing.T) {
		pair := build(t, lab.Line, lab.DestinationNetwork)
		for _, e := range pair.Forward.Edges() {
			if e.From == SourceTerminal || e.To == DestinationTerminal {
				assert.Equal(t, Attrs{Color: "green", Weight: 1, Style: "dashed"}, e.Attrs)
			} else {
				assert.Equal(t, Attrs{Color: "black", Weight: 2, Style: "solid"}, e.Attrs)
			}
		}
	})

	t.Run("disabled interface drops the hop", func(t *testing.T) {
		pair := build(t, lab.DisabledLink, lab.DestinationNetwork)
		assert.False(t, pair.Forward.HasEdge("R2", "R3"))
		assert.False(t, pair.Reverse.HasEdge("R3", "R2"))
		assert.True(t, pair.Forward.HasEdge("R1", "R2"))
	})

	t.Run("summary route counts", func(t *testing.T) {
		pair := build(t, lab.Triangle, lab.DestinationNetwork)
		assert.True(t, pair.Forward.HasEdge("R3", "R1"))
		assert.True(t, pair.Reverse.HasEdge("R3", "R1"))
	})

	t.Run("default route is never an edge", func(t *testing.T) {
		snapshot := lab.Snapshot(
			lab.Router("R1").Iface("Gi0/0", "10.0.1.1/24", true, "").Iface("Gi0/1", "10.0.12.1/30", true, "").
				Route("0.0.0.0/0", "10.0.12.2"),
			lab.Router("R2").Iface("Gi0/0", "10.0.12.2/30", true, "").Iface("Gi0/1", "10.0.3.1/24", true, "").
				Route("0.0.0.0/0", "10.0.12.1"),
		)
		topo, err := topology.Build(snapshot)
		require.NoError(t, err)
		pair, err := Build(topo, lab.SourceNetwork, lab.DestinationNetwork)
		require.NoError(t, err)
		assert.False(t, pair.Forward.HasEdge("R1", "R2"))
		assert.False(t, pair.Reverse.HasEdge("R2", "R1"))
	})

	t.Run("dangling next hop is skipped", func(t *testing.T) {
		pair := build(t, lab.Unreachable, lab.DestinationNetwork)
		assert.Empty(t, pair.Reverse.Successors("R3"))
	})

	t.Run("unresolved endpoint", func(t *testing.T) {
		topo, err := topology.Build(lab.Line())
		require.NoError(t, err)
		_, err = Build(topo, lab.SourceNetwork, lab.FarNetwork)
		var notFound *topology.EndpointNotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("is idempotent", func(t *testing.T) {
		a := build(t, lab.MisroutedLoop, lab.FarNetwork)
		b := build(t, lab.MisroutedLoop, lab.FarNetwork)
		assert.Equal(t, a.Forward.Edges(), b.Forward.Edges())
		assert.Equal(t, a.Reverse.Edges(), b.Reverse.Edges())
	})
}

func TestDiff(t *testing.T) {
	initial := chain("PC-S", "R1", "R2")
	current := chain("PC-S", "R1", "R2", "R3", "PC-D")
	current.RemoveEdge("PC-S", "R1")

	c := Diff(initial, current)
	assert.Equal(t, [][2]string{{"R2", "R3"}, {"R3", "PC-D"}}, pairs(c.Added))
	assert.Equal(t, [][2]string{{"PC-S", "R1"}}, pairs(c.Removed))
	assert.True(t, Diff(current, current.Clone()).Empty())
}
