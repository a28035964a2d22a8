package remediation

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/David-Antunes/gone-analyzer/internal/executor"
	"github.com/David-Antunes/gone-analyzer/internal/iputil"
	"github.com/David-Antunes/gone-analyzer/internal/topology"
)

// interfaceRepair enables the disabled interfaces at either end of every route
// towards the source or destination network, one change per device.
func (p *Planner) interfaceRepair(s Session) [][]executor.Change {
	source, destination := s.Networks()
	topo := s.Topology()

	down := make(map[string]mapset.Set[string])
	mark := func(d *topology.Device, iface topology.Interface) {
		if iface.Enabled {
			return
		}
		if _, ok := down[d.Hostname]; !ok {
			down[d.Hostname] = mapset.NewSet[string]()
		}
		down[d.Hostname].Add(iface.Name)
	}

	for _, d := range topo.Devices() {
		for _, r := range d.Routes() {
			if !iputil.ContainsNetwork(source, r.Destination) && !iputil.ContainsNetwork(destination, r.Destination) {
				continue
			}
			if local, ok := d.Egress(r.NextHop); ok {
				mark(d, local)
			}
			if peer, far, err := topo.Locate(r.NextHop); err == nil {
				mark(peer, far)
			}
		}
	}
	if len(down) == 0 {
		return nil
	}

	hosts := make([]string, 0, len(down))
	for host := range down {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	changes := make([]executor.Change, 0, len(hosts))
	for _, host := range hosts {
		d, _ := topo.GetDevice(host)
		names := down[host].ToSlice()
		sort.Strings(names)
		items := make([]executor.InterfaceItem, 0, len(names))
		for _, name := range names {
			iface, _ := d.Interface(name)
			items = append(items, executor.InterfaceItem{Name: name, Description: iface.Description})
		}
		plannerLog.Info("disabled interfaces found", "host", host, "interfaces", names)
		changes = append(changes, executor.EnableOn(host, items...))
	}
	return [][]executor.Change{changes}
}
