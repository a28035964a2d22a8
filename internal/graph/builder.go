package graph

import (
	"errors"
	"net/netip"

	"github.com/David-Antunes/gone-analyzer/internal/iputil"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

var graphLog = logger.New("graph")

// Pair holds the graphs of one diagnosis. Forward follows the routes towards the
// destination network starting at PC-S, Reverse the routes towards the source
// network starting at PC-D.
type Pair struct {
	Forward *Graph
	Reverse *Graph
	Roles   topology.Roles
}

func (p Pair) Clone() Pair {
	return Pair{Forward: p.Forward.Clone(), Reverse: p.Reverse.Clone(), Roles: p.Roles}
}

func Build(topo *topology.Topology, source, destination netip.Prefix) (Pair, error) {
	roles, err := topo.ResolveRoles(source, destination)
	if err != nil {
		return Pair{}, err
	}

	forward := New()
	reverse := New()
	for _, host := range topo.Hostnames() {
		forward.AddNode(host)
		reverse.AddNode(host)
	}

	forward.AddEdge(SourceTerminal, roles.Source, terminalAttrs)
	forward.AddEdge(roles.Destination, DestinationTerminal, terminalAttrs)
	reverse.AddEdge(DestinationTerminal, roles.Destination, terminalAttrs)
	reverse.AddEdge(roles.Source, SourceTerminal, terminalAttrs)

	for _, d := range topo.Devices() {
		for _, r := range d.Routes() {
			toDestination := iputil.ContainsNetwork(destination, r.Destination)
			toSource := iputil.ContainsNetwork(source, r.Destination)
			if !toDestination && !toSource {
				continue
			}
			peer, err := hop(topo, d, r)
			if err != nil {
				var unresolved *topology.AddressResolutionError
				if errors.As(err, &unresolved) {
					graphLog.Warn("skipping route", "host", d.Hostname, "route", r.String(), "err", err)
				}
				continue
			}
			if peer == "" {
				continue
			}
			if toDestination {
				forward.AddEdge(d.Hostname, peer, routeAttrs)
			}
			if toSource {
				reverse.AddEdge(d.Hostname, peer, routeAttrs)
			}
		}
	}

	graphLog.Debug("graphs built", "source", roles.Source, "destination", roles.Destination,
		"forward", len(forward.Edges()), "reverse", len(reverse.Edges()))
	return Pair{Forward: forward, Reverse: reverse, Roles: roles}, nil
}

// hop returns the device a route forwards to, or "" when the hop is not live.
func hop(topo *topology.Topology, d *topology.Device, r topology.Route) (string, error) {
	peer, far, err := topo.Locate(r.NextHop)
	if err != nil {
		return "", err
	}
	if peer.Hostname == d.Hostname {
		return "", nil
	}
	local, ok := d.Egress(r.NextHop)
	if !ok {
		graphLog.Debug("no egress interface", "host", d.Hostname, "route", r.String())
		return "", nil
	}
	if !local.Enabled || !far.Enabled {
		graphLog.Debug("link down", "host", d.Hostname, "route", r.String(), "local", local.String(), "far", far.String())
		return "", nil
	}
	return peer.Hostname, nil
}
