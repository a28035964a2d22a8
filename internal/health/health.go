// Package health classifies reachability graphs.
package health

import (
	"encoding/json"

	"github.com/David-Antunes/gone-analyzer/internal/graph"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var healthLog = logger.New("health")

type State int

const (
	Healthy State = iota
	Rupture
	LoopUnaffected
	LoopAffected
)

var stateNames = map[State]string{
	Healthy:        "healthy",
	Rupture:        "rupture",
	LoopUnaffected: "loop-unaffected",
	LoopAffected:   "loop-affected",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type Result struct {
	Loop     bool     `json:"loop"`
	Affected bool     `json:"affected"`
	Members  []string `json:"members,omitempty"`
}

func (r Result) State() State {
	switch {
	case r.Loop && r.Affected:
		return LoopAffected
	case r.Loop:
		return LoopUnaffected
	case r.Affected:
		return Rupture
	default:
		return Healthy
	}
}

// Classify looks for a cycle anywhere in g, then for a path start -> end.
func Classify(g *graph.Graph, start, end string) Result {
	cycle := g.FindCycle()
	reachable := g.HasPath(start, end)
	return Result{
		Loop:     cycle != nil,
		Affected: !reachable,
		Members:  cycle,
	}
}

// Report holds the classification of both directions of a pair.
type Report struct {
	Forward Result `json:"forward"`
	Reverse Result `json:"reverse"`
}

func (r Report) Healthy() bool {
	return r.Forward.State() == Healthy && r.Reverse.State() == Healthy
}

func Check(pair graph.Pair) Report {
	report := Report{
		Forward: Classify(pair.Forward, pair.Roles.Source, pair.Roles.Destination),
		Reverse: Classify(pair.Reverse, pair.Roles.Destination, pair.Roles.Source),
	}
	healthLog.Info("network classified",
		"forward", report.Forward.State().String(), "reverse", report.Reverse.State().String())
	return report
}
