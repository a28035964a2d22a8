// Package remediation plans and applies configuration changes that restore
// reachability between the source and destination networks.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/multierr"

	"github.com/David-Antunes/gone-analyzer/internal/executor"
	"github.com/David-Antunes/gone-analyzer/internal/graph"
	"github.com/David-Antunes/gone-analyzer/internal/health"
	"github.com/David-Antunes/gone-analyzer/internal/iputil"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
	"github.com/David-Antunes/gone-analyzer/internal/metrics"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

var plannerLog = logger.New("remediation")

const (
	InterfaceRepair = "interface-repair"
	RouteRepair     = "route-repair"
	LoopRepair      = "loop-repair"
)

// Session is the state the planner reads and refreshes between attempts.
type Session interface {
	Topology() *topology.Topology
	Graphs() graph.Pair
	Report() health.Report
	Networks() (source netip.Prefix, destination netip.Prefix)
	// Attempted holds the keys of every change issued so far.
	Attempted() mapset.Set[string]
	Refresh(ctx context.Context) error
}

type Attempt struct {
	Strategy string
	Changes  []executor.Change
	Err      error
	Fixed    bool
}

type Outcome struct {
	Fixed    bool
	Attempts []Attempt
	Report   health.Report
}

type Planner struct {
	executor   executor.Executor
	management netip.Prefix
}

// NewPlanner creates a planner pushing changes through exec. Links inside
// management are never used as a repair path.
func NewPlanner(exec executor.Executor, management netip.Prefix) *Planner {
	return &Planner{
		executor:   exec,
		management: management.Masked(),
	}
}

type strategy struct {
	name    string
	applies func(health.Report) bool
	plan    func(Session) [][]executor.Change
}

func ruptured(r health.Report) bool {
	return r.Forward.State() == health.Rupture || r.Reverse.State() == health.Rupture
}

func looped(r health.Report) bool {
	return r.Forward.Loop || r.Reverse.Loop
}

// Remediate tries every strategy in order until the session reports both
// directions healthy. Running out of strategies is not an error.
func (p *Planner) Remediate(ctx context.Context, s Session) (Outcome, error) {
	out := Outcome{Report: s.Report()}
	if out.Report.Healthy() {
		out.Fixed = true
		return out, nil
	}

	strategies := []strategy{
		{name: InterfaceRepair, applies: ruptured, plan: p.interfaceRepair},
		{name: RouteRepair, applies: ruptured, plan: p.routeRepair},
		{name: LoopRepair, applies: looped, plan: p.loopRepair},
	}
	for _, st := range strategies {
		if !st.applies(s.Report()) {
			plannerLog.Debug("strategy not applicable", "strategy", st.name)
			continue
		}
		candidates := st.plan(s)
		if len(candidates) == 0 {
			plannerLog.Info("no candidate found", "strategy", st.name)
		}
		for _, changes := range candidates {
			attempt, err := p.try(ctx, s, st.name, changes)
			if attempt != nil {
				out.Attempts = append(out.Attempts, *attempt)
			}
			if err != nil {
				out.Report = s.Report()
				return out, err
			}
			if attempt != nil && attempt.Fixed {
				out.Fixed = true
				out.Report = s.Report()
				plannerLog.Info("network fixed", "strategy", st.name)
				return out, nil
			}
		}
	}

	out.Report = s.Report()
	plannerLog.Warn("remediation exhausted", "attempts", len(out.Attempts))
	return out, nil
}

// try issues the changes not seen before in this session and verifies the result.
func (p *Planner) try(ctx context.Context, s Session, name string, changes []executor.Change) (*Attempt, error) {
	seen := s.Attempted()
	var fresh []executor.Change
	for _, c := range changes {
		if seen.Contains(c.Key()) {
			plannerLog.Debug("change already attempted", "change", c.Key())
			continue
		}
		seen.Add(c.Key())
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	attempt := &Attempt{Strategy: name, Changes: fresh}
	plannerLog.Info("applying changes", "strategy", name, "changes", len(fresh))
	if err := executor.RunAll(ctx, p.executor, fresh); err != nil {
		attempt.Err = err
		failed := 0
		for _, e := range multierr.Errors(err) {
			var cmdErr *executor.CommandExecutionError
			if errors.As(e, &cmdErr) {
				failed++
				metrics.ObserveCommandFailure(string(cmdErr.Kind))
			}
		}
		plannerLog.Warn("changes not applied", "strategy", name, "failed", failed, "err", err)
		if ctx.Err() != nil {
			metrics.ObserveAttempt(name, false)
			return attempt, ctx.Err()
		}
		// a partly applied batch is refreshed like a complete one
		if failed == len(fresh) {
			metrics.ObserveAttempt(name, false)
			return attempt, nil
		}
	}

	if err := s.Refresh(ctx); err != nil {
		return attempt, fmt.Errorf("refresh after %s: %w", name, err)
	}
	attempt.Fixed = s.Report().Healthy()
	metrics.ObserveAttempt(name, attempt.Fixed)
	return attempt, nil
}

func (p *Planner) isManagement(network netip.Prefix) bool {
	return p.management.IsValid() && iputil.Overlaps(network, p.management)
}

// direction is one of the two graphs of a session with the bits needed to walk it.
type direction struct {
	name     string
	g        *graph.Graph
	start    string
	stop     string
	endpoint string
	target   netip.Prefix
	result   health.Result
}

func directions(s Session) []direction {
	source, destination := s.Networks()
	pair := s.Graphs()
	report := s.Report()
	return []direction{
		{
			name: "forward", g: pair.Forward,
			start: graph.SourceTerminal, stop: graph.DestinationTerminal,
			endpoint: pair.Roles.Destination, target: destination, result: report.Forward,
		},
		{
			name: "reverse", g: pair.Reverse,
			start: graph.DestinationTerminal, stop: graph.SourceTerminal,
			endpoint: pair.Roles.Source, target: source, result: report.Reverse,
		},
	}
}

func isTerminal(node string) bool {
	return node == graph.SourceTerminal || node == graph.DestinationTerminal
}

// live reports whether d can forward to addr over enabled interfaces on both ends.
func live(topo *topology.Topology, d *topology.Device, addr netip.Addr) bool {
	local, ok := d.Egress(addr)
	if !ok || !local.Enabled {
		return false
	}
	peer, far, err := topo.Locate(addr)
	return err == nil && peer.Hostname != d.Hostname && far.Enabled
}
