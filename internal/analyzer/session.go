// Package analyzer ties the fact source, the graphs, the classifier and the
// planner into diagnostic sessions.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/graph"
	"github.com/David-Antunes/gone-analyzer/internal/health"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
	"github.com/David-Antunes/gone-analyzer/internal/metrics"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

var analyzerLog = logger.New("analyzer")

var ErrNoSource = errors.New("session has no fact source")

// Session owns every structure of one diagnosis. Refresh replaces them wholesale,
// only the initial graphs survive for the whole session.
type Session struct {
	ID          string
	source      netip.Prefix
	destination netip.Prefix
	facts       facts.Source

	topo      *topology.Topology
	pair      graph.Pair
	report    health.Report
	initial   graph.Pair
	attempted mapset.Set[string]
}

// Diagnose classifies a snapshot without any collaborator attached. The returned
// session cannot be refreshed.
func Diagnose(snapshot map[string]facts.DeviceFacts, source, destination netip.Prefix) (*Session, error) {
	return newSession(snapshot, source, destination, nil)
}

func newSession(snapshot map[string]facts.DeviceFacts, source, destination netip.Prefix, src facts.Source) (*Session, error) {
	s := &Session{
		ID:          uuid.NewString(),
		source:      source.Masked(),
		destination: destination.Masked(),
		facts:       src,
		attempted:   mapset.NewSet[string](),
	}
	if err := s.load(snapshot); err != nil {
		return nil, err
	}
	s.initial = s.pair.Clone()
	analyzerLog.Info("session started", "session", s.ID, "source", s.source.String(), "destination", s.destination.String())
	return s, nil
}

func (s *Session) load(snapshot map[string]facts.DeviceFacts) error {
	if err := facts.Validate(snapshot); err != nil {
		return err
	}
	topo, err := topology.Build(snapshot)
	if err != nil {
		return err
	}
	pair, err := graph.Build(topo, s.source, s.destination)
	if err != nil {
		return err
	}
	report := health.Check(pair)
	metrics.ObserveDiagnosis("forward", report.Forward.State().String())
	metrics.ObserveDiagnosis("reverse", report.Reverse.State().String())

	s.topo, s.pair, s.report = topo, pair, report
	return nil
}

// Refresh gathers new facts and rebuilds the topology, graphs and report.
func (s *Session) Refresh(ctx context.Context) error {
	if s.facts == nil {
		return ErrNoSource
	}
	start := time.Now()
	defer metrics.ObserveRefresh(start)

	snapshot, err := s.facts.GatherFacts(ctx)
	if err != nil {
		return fmt.Errorf("gather facts: %w", err)
	}
	if err := s.load(snapshot); err != nil {
		return err
	}
	analyzerLog.Debug("session refreshed", "session", s.ID,
		"forward", s.report.Forward.State().String(), "reverse", s.report.Reverse.State().String())
	return nil
}

func (s *Session) Topology() *topology.Topology {
	return s.topo
}

func (s *Session) Graphs() graph.Pair {
	return s.pair
}

// Initial returns the graphs built when the session started.
func (s *Session) Initial() graph.Pair {
	return s.initial
}

func (s *Session) Report() health.Report {
	return s.report
}

func (s *Session) Networks() (netip.Prefix, netip.Prefix) {
	return s.source, s.destination
}

func (s *Session) Attempted() mapset.Set[string] {
	return s.attempted
}

func (s *Session) Roles() topology.Roles {
	return s.pair.Roles
}

// ShortestPath is the current forward route between the endpoint devices.
func (s *Session) ShortestPath() []string {
	return s.pair.Forward.ShortestPath(s.pair.Roles.Source, s.pair.Roles.Destination)
}

// DownInterfaces lists disabled interfaces per host.
func (s *Session) DownInterfaces() map[string][]string {
	down := make(map[string][]string)
	for _, d := range s.topo.Devices() {
		for _, iface := range d.DownInterfaces() {
			down[d.Hostname] = append(down[d.Hostname], iface.Name)
		}
	}
	return down
}
