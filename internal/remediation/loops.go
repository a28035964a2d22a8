package remediation

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/David-Antunes/gone-analyzer/internal/executor"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

// loopRepair walks back from the far terminal to the last device outside the
// loop, then offers one candidate per loop member able to reach that device
// directly: its routes towards the target are replaced by one through the shared link.
func (p *Planner) loopRepair(s Session) [][]executor.Change {
	topo := s.Topology()
	var candidates [][]executor.Change

	for _, dir := range directions(s) {
		if !dir.result.Loop || len(dir.result.Members) == 0 {
			continue
		}
		members := mapset.NewSet(dir.result.Members...)
		res := dir.g.Transpose().ChaseFunc(dir.stop, func(n string) bool { return members.Contains(n) })

		last := res.Last
		if members.Contains(last) {
			if len(res.Visited) < 2 {
				continue
			}
			last = res.Visited[len(res.Visited)-2]
		}
		if isTerminal(last) {
			plannerLog.Info("loop borders the terminal", "direction", dir.name, "members", dir.result.Members)
			continue
		}
		exit, ok := topo.GetDevice(last)
		if !ok {
			continue
		}
		plannerLog.Info("loop located", "direction", dir.name, "members", dir.result.Members, "exit", exit.Hostname)

		for i := len(dir.result.Members) - 1; i >= 0; i-- {
			member, ok := topo.GetDevice(dir.result.Members[i])
			if !ok || member.Hostname == exit.Hostname {
				continue
			}
			link, ok := p.dataLink(member, exit)
			if !ok {
				continue
			}
			var items []executor.RouteItem
			for _, r := range member.RoutesCovering(dir.target) {
				items = append(items, deleted(r))
			}
			items = append(items, inserted(dir.target, link.Remote.Address.Addr()))
			candidates = append(candidates, []executor.Change{executor.RoutesOn(member.Hostname, items...)})
		}
	}
	return candidates
}

// dataLink returns the first link between a and b outside the management network.
func (p *Planner) dataLink(a, b *topology.Device) (topology.Link, bool) {
	for _, l := range topology.SharedSubnets(a, b) {
		if p.isManagement(l.Local.Network()) {
			continue
		}
		return l, true
	}
	return topology.Link{}, false
}
