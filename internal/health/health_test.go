package health

import (
	"encoding/json"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/graph"
	"github.com/David-Antunes/gone-analyzer/internal/lab"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

func edges(pairs ...[2]string) *graph.Graph {
	g := graph.New()
	for _, p := range pairs {
		g.AddEdge(p[0], p[1], graph.Attrs{})
	}
	return g
}

func check(t *testing.T, snapshot map[string]facts.DeviceFacts, dst netip.Prefix) Report {
	t.Helper()
	topo, err := topology.Build(snapshot)
	require.NoError(t, err)
	pair, err := graph.Build(topo, lab.SourceNetwork, dst)
	require.NoError(t, err)
	return Check(pair)
}

func TestClassify(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		g := edges([2]string{"A", "B"}, [2]string{"B", "C"})
		res := Classify(g, "A", "C")
		assert.Equal(t, Healthy, res.State())
		assert.Empty(t, res.Members)
	})

	t.Run("rupture when the only path goes", func(t *testing.T) {
		g := edges([2]string{"A", "B"}, [2]string{"B", "C"})
		g.RemoveEdge("B", "C")
		assert.Equal(t, Result{Affected: true}, Classify(g, "A", "C"))
		assert.Equal(t, Rupture, Classify(g, "A", "C").State())
	})

	t.Run("cycle off the path", func(t *testing.T) {
		g := edges(
			[2]string{"A", "B"}, [2]string{"B", "C"},
			[2]string{"X", "Y"}, [2]string{"Y", "Z"}, [2]string{"Z", "X"},
		)
		res := Classify(g, "A", "C")
		assert.Equal(t, LoopUnaffected, res.State())
		assert.ElementsMatch(t, []string{"X", "Y", "Z"}, res.Members)
	})

	t.Run("cycle breaking the path", func(t *testing.T) {
		g := edges([2]string{"A", "B"}, [2]string{"B", "A"}, [2]string{"C", "D"})
		res := Classify(g, "A", "D")
		assert.Equal(t, LoopAffected, res.State())
		assert.True(t, res.Loop)
		assert.True(t, res.Affected)
	})
}

func TestState(t *testing.T) {
	assert.Equal(t, "loop-unaffected", LoopUnaffected.String())
	assert.Equal(t, "unknown", State(42).String())

	raw, err := json.Marshal(Rupture)
	require.NoError(t, err)
	assert.Equal(t, `"rupture"`, string(raw))
}

func TestCheck(t *testing.T) {
	t.Run("line is healthy both ways", func(t *testing.T) {
		report := check(t, lab.Line(), lab.DestinationNetwork)
		assert.True(t, report.Healthy())
	})

	t.Run("disabled link ruptures", func(t *testing.T) {
		report := check(t, lab.DisabledLink(), lab.DestinationNetwork)
		assert.Equal(t, Rupture, report.Forward.State())
		assert.Equal(t, Rupture, report.Reverse.State())
		assert.False(t, report.Healthy())
	})

	t.Run("triangle loop leaves the path alone", func(t *testing.T) {
		report := check(t, lab.Triangle(), lab.DestinationNetwork)
		assert.Equal(t, LoopUnaffected, report.Forward.State())
		assert.ElementsMatch(t, []string{"R1", "R2", "R3"}, report.Forward.Members)
		assert.Equal(t, Healthy, report.Reverse.State())
	})

	t.Run("misrouted loop cuts the path", func(t *testing.T) {
		report := check(t, lab.MisroutedLoop(), lab.FarNetwork)
		assert.Equal(t, LoopAffected, report.Forward.State())
		assert.Equal(t, []string{"R1", "R2", "R3"}, report.Forward.Members)
		assert.Equal(t, Healthy, report.Reverse.State())
	})
}
