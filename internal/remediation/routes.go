package remediation

import (
	"net/netip"
	"sort"

	"github.com/David-Antunes/gone-analyzer/internal/executor"
	"github.com/David-Antunes/gone-analyzer/internal/iputil"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

func inserted(target netip.Prefix, nextHop netip.Addr) executor.RouteItem {
	return executor.RouteItem{DestinationAddress: target.String(), NextHop: nextHop.String(), State: executor.Inserted}
}

func deleted(r topology.Route) executor.RouteItem {
	return executor.RouteItem{DestinationAddress: r.Destination.String(), NextHop: r.NextHop.String(), State: executor.Deleted}
}

// routeRepair finds where each ruptured direction stops and patches the routes of
// that device: wrong prefixes are replaced and a missing route is added towards a
// neighbour that still reaches the far terminal.
func (p *Planner) routeRepair(s Session) [][]executor.Change {
	topo := s.Topology()
	byHost := make(map[string][]executor.RouteItem)

	for _, dir := range directions(s) {
		if dir.result.Loop || !dir.result.Affected {
			continue
		}
		res := dir.g.Chase(dir.start, dir.stop)
		if !res.Broken || isTerminal(res.Last) {
			continue
		}
		near, ok := topo.GetDevice(res.Last)
		if !ok {
			continue
		}
		plannerLog.Info("rupture located", "direction", dir.name, "host", near.Hostname, "path", res.Visited)
		items := p.repairRoutes(topo, dir, near)
		for _, item := range items {
			if !containsItem(byHost[near.Hostname], item) {
				byHost[near.Hostname] = append(byHost[near.Hostname], item)
			}
		}
	}
	if len(byHost) == 0 {
		return nil
	}

	hosts := make([]string, 0, len(byHost))
	for host := range byHost {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	changes := make([]executor.Change, 0, len(hosts))
	for _, host := range hosts {
		changes = append(changes, executor.RoutesOn(host, byHost[host]...))
	}
	return [][]executor.Change{changes}
}

func (p *Planner) repairRoutes(topo *topology.Topology, dir direction, near *topology.Device) []executor.RouteItem {
	var items []executor.RouteItem
	replaced := false

	for _, r := range near.Routes() {
		switch {
		case iputil.ContainsNetwork(dir.target, r.Destination):
			if _, _, err := topo.Locate(r.NextHop); err == nil {
				continue
			}
			// next hop is not configured anywhere, most likely a typo
			items = append(items, deleted(r))
		case r.Destination.Addr() == dir.target.Addr() || iputil.InSupernet(r.Destination, dir.target):
			plannerLog.Info("wrong prefix length", "host", near.Hostname, "route", r.String(), "want", dir.target.String())
			items = append(items, deleted(r))
			if live(topo, near, r.NextHop) {
				items = append(items, inserted(dir.target, r.NextHop))
				replaced = true
			}
		}
	}

	if !replaced {
		hop, ok := p.farSide(topo, dir, near)
		if !ok {
			plannerLog.Info("no next hop available", "direction", dir.name, "host", near.Hostname)
			return nil
		}
		items = append(items, inserted(dir.target, hop))
	}
	return items
}

// farSide picks the neighbour of near that reaches the stop terminal, preferring
// the endpoint device itself.
func (p *Planner) farSide(topo *topology.Topology, dir direction, near *topology.Device) (netip.Addr, bool) {
	var options []topology.Link
	for _, l := range topo.Neighbors(near) {
		if !l.Local.Enabled || !l.Remote.Enabled || p.isManagement(l.Local.Network()) {
			continue
		}
		if !dir.g.HasPath(l.Peer, dir.stop) {
			continue
		}
		options = append(options, l)
	}
	if len(options) == 0 {
		return netip.Addr{}, false
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Peer == dir.endpoint && options[j].Peer != dir.endpoint
	})
	return options[0].Remote.Address.Addr(), true
}

func containsItem(items []executor.RouteItem, item executor.RouteItem) bool {
	for _, i := range items {
		if i == item {
			return true
		}
	}
	return false
}
