package analyzer

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/graph"
	"github.com/David-Antunes/gone-analyzer/internal/remediation"
)

type Engine struct {
	source  facts.Source
	planner *remediation.Planner
}

func NewEngine(source facts.Source, planner *remediation.Planner) *Engine {
	return &Engine{
		source:  source,
		planner: planner,
	}
}

// Diagnose gathers facts and starts a session that can be refreshed through the same source.
func (e *Engine) Diagnose(ctx context.Context, source, destination netip.Prefix) (*Session, error) {
	snapshot, err := e.source.GatherFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather facts: %w", err)
	}
	return newSession(snapshot, source, destination, e.source)
}

// Remediate runs the planner on s when autofix is set. Without autofix the
// current state is reported as is.
func (e *Engine) Remediate(ctx context.Context, s *Session, autofix bool) (remediation.Outcome, error) {
	if !autofix || s.Report().Healthy() {
		if !autofix {
			analyzerLog.Info("auto fix disabled", "session", s.ID)
		}
		return remediation.Outcome{Fixed: s.Report().Healthy(), Report: s.Report()}, nil
	}
	if s.facts == nil {
		return remediation.Outcome{Report: s.Report()}, ErrNoSource
	}
	out, err := e.planner.Remediate(ctx, s)
	if err != nil {
		return out, err
	}
	if out.Fixed {
		analyzerLog.Info("problems fixed", "session", s.ID, "attempts", len(out.Attempts))
	} else {
		analyzerLog.Warn("problems cannot be fixed automatically", "session", s.ID, "attempts", len(out.Attempts))
	}
	return out, nil
}

// DirectionSnapshot is one graph of a session with its changes since the start.
type DirectionSnapshot struct {
	graph.Changes
	Current *graph.Graph
}

type Snapshot struct {
	Forward DirectionSnapshot
	Reverse DirectionSnapshot
}

func GraphSnapshot(s *Session) Snapshot {
	initial, current := s.Initial(), s.Graphs()
	return Snapshot{
		Forward: DirectionSnapshot{Changes: graph.Diff(initial.Forward, current.Forward), Current: current.Forward},
		Reverse: DirectionSnapshot{Changes: graph.Diff(initial.Reverse, current.Reverse), Current: current.Reverse},
	}
}
