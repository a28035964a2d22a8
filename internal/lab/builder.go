package lab

import (
	"github.com/David-Antunes/gone-analyzer/internal/facts"
)

// DeviceBuilder assembles DeviceFacts the way the IOS resource modules report them.
type DeviceBuilder struct {
	df facts.DeviceFacts
}

func Router(hostname string) *DeviceBuilder {
	return &DeviceBuilder{df: facts.DeviceFacts{Hostname: hostname}}
}

// Iface adds an addressed interface to all three interface categories.
func (b *DeviceBuilder) Iface(name string, cidr string, enabled bool, description string) *DeviceBuilder {
	b.df.Interfaces = append(b.df.Interfaces, facts.InterfaceFacts{Name: name, Enabled: enabled, Description: description})
	b.df.L2Interfaces = append(b.df.L2Interfaces, facts.L2InterfaceFacts{Name: name})
	l3 := facts.L3InterfaceFacts{Name: name}
	if cidr != "" {
		l3.IPv4 = []facts.AddressFacts{{Address: cidr}}
	}
	b.df.L3Interfaces = append(b.df.L3Interfaces, l3)
	return b
}

func (b *DeviceBuilder) Route(dest string, nextHop string) *DeviceBuilder {
	return b.route("", dest, nextHop)
}

// VRFRoute adds a route to a management VRF table.
func (b *DeviceBuilder) VRFRoute(vrf string, dest string, nextHop string) *DeviceBuilder {
	return b.route(vrf, dest, nextHop)
}

func (b *DeviceBuilder) route(vrf string, dest string, nextHop string) *DeviceBuilder {
	idx := -1
	for i, table := range b.df.StaticRoutes {
		if table.VRF == vrf {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.df.StaticRoutes = append(b.df.StaticRoutes, facts.RouteTableFacts{
			VRF:             vrf,
			AddressFamilies: []facts.AddressFamilyFacts{{AFI: "ipv4"}},
		})
		idx = len(b.df.StaticRoutes) - 1
	}
	af := &b.df.StaticRoutes[idx].AddressFamilies[0]
	af.Routes = append(af.Routes, facts.RouteFacts{
		Dest:     dest,
		NextHops: []facts.NextHopFacts{{ForwardRouterAddress: nextHop}},
	})
	return b
}

func (b *DeviceBuilder) Facts() facts.DeviceFacts {
	return b.df.Clone()
}

// Snapshot indexes devices by hostname.
func Snapshot(devices ...*DeviceBuilder) map[string]facts.DeviceFacts {
	snapshot := make(map[string]facts.DeviceFacts, len(devices))
	for _, d := range devices {
		snapshot[d.df.Hostname] = d.Facts()
	}
	return snapshot
}
