package server

import (
	"github.com/David-Antunes/gone-analyzer/api"
	"github.com/David-Antunes/gone-analyzer/internal/analyzer"
	"github.com/David-Antunes/gone-analyzer/internal/graph"
	"github.com/David-Antunes/gone-analyzer/internal/health"
	"github.com/David-Antunes/gone-analyzer/internal/remediation"
)

func toResult(r health.Result) api.Result {
	return api.Result{
		State:    r.State().String(),
		Loop:     r.Loop,
		Affected: r.Affected,
		Members:  r.Members,
	}
}

func toEdges(edges []graph.Edge) []api.Edge {
	out := make([]api.Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, api.Edge{
			From:   e.From,
			To:     e.To,
			Color:  e.Attrs.Color,
			Weight: e.Attrs.Weight,
			Style:  e.Attrs.Style,
		})
	}
	return out
}

func toGraph(snap analyzer.DirectionSnapshot) api.Graph {
	return api.Graph{
		Nodes:   snap.Current.Nodes(),
		Edges:   toEdges(snap.Current.Edges()),
		Added:   toEdges(snap.Added),
		Removed: toEdges(snap.Removed),
	}
}

func toAttempts(attempts []remediation.Attempt) []api.Attempt {
	out := make([]api.Attempt, 0, len(attempts))
	for _, a := range attempts {
		attempt := api.Attempt{
			Strategy: a.Strategy,
			Fixed:    a.Fixed,
		}
		if a.Err != nil {
			attempt.Err = a.Err.Error()
		}
		for _, c := range a.Changes {
			change := api.Change{Kind: string(c.Kind), Hosts: c.Hosts}
			for _, i := range c.Interfaces {
				change.Interfaces = append(change.Interfaces, api.InterfaceChange{Name: i.Name, Description: i.Description})
			}
			for _, r := range c.Routes {
				change.Routes = append(change.Routes, api.RouteChange{
					DestinationAddress: r.DestinationAddress,
					NextHop:            r.NextHop,
					State:              string(r.State),
				})
			}
			attempt.Changes = append(attempt.Changes, change)
		}
		out = append(out, attempt)
	}
	return out
}
