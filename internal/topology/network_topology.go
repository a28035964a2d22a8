package topology

import (
	"net/netip"
	"sort"

	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/iputil"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var topologyLog = logger.New("topology")

// Topology is the set of devices of one fact snapshot. It is never mutated after Build.
type Topology struct {
	devices map[string]*Device
	order   []string
}

// Link is a pair of interfaces of two devices that share a subnet.
type Link struct {
	Local  Interface
	Remote Interface
	Peer   string
}

// Roles holds the hostnames owning the source and destination networks.
type Roles struct {
	Source      string
	Destination string
}

func (r Roles) Of(hostname string) []Role {
	var roles []Role
	if r.Source == hostname {
		roles = append(roles, Source)
	}
	if r.Destination == hostname {
		roles = append(roles, Destination)
	}
	return roles
}

func Build(snapshot map[string]facts.DeviceFacts) (*Topology, error) {
	topo := &Topology{
		devices: make(map[string]*Device, len(snapshot)),
		order:   make([]string, 0, len(snapshot)),
	}
	for host := range snapshot {
		topo.order = append(topo.order, host)
	}
	sort.Strings(topo.order)

	for _, host := range topo.order {
		df := snapshot[host]
		if df.Hostname == "" {
			df.Hostname = host
		}
		d, err := buildDevice(df)
		if err != nil {
			return nil, err
		}
		topo.devices[host] = d
		topologyLog.Debug("host loaded", "host", host, "interfaces", len(d.Interfaces), "routes", len(d.Routes()))
	}
	return topo, nil
}

func buildDevice(df facts.DeviceFacts) (*Device, error) {
	d := &Device{Hostname: df.Hostname}

	l2 := make(map[string]bool, len(df.L2Interfaces))
	for _, iface := range df.L2Interfaces {
		l2[iface.Name] = true
	}
	generic := make(map[string]bool, len(df.Interfaces))
	for _, iface := range df.Interfaces {
		generic[iface.Name] = true
	}

	addresses := make(map[string]netip.Prefix, len(df.L3Interfaces))
	for _, l3 := range df.L3Interfaces {
		if !generic[l3.Name] {
			return nil, &facts.MalformedFactsError{Hostname: df.Hostname, Interface: l3.Name, Category: "interfaces"}
		}
		if !l2[l3.Name] {
			return nil, &facts.MalformedFactsError{Hostname: df.Hostname, Interface: l3.Name, Category: "l2_interfaces"}
		}
		if len(l3.IPv4) == 0 {
			continue
		}
		addr, err := iputil.ParseCIDR(l3.IPv4[0].Address)
		if err != nil {
			return nil, &facts.MalformedFactsError{Hostname: df.Hostname, Interface: l3.Name, Reason: err.Error()}
		}
		addresses[l3.Name] = addr
	}

	for _, iface := range df.Interfaces {
		d.Interfaces = append(d.Interfaces, Interface{
			Name:        iface.Name,
			Address:     addresses[iface.Name],
			Enabled:     iface.Enabled,
			Description: iface.Description,
		})
	}
	// l2 only records still describe a port, just without state or address
	for _, iface := range df.L2Interfaces {
		if !generic[iface.Name] {
			d.Interfaces = append(d.Interfaces, Interface{Name: iface.Name})
		}
	}

	for _, table := range df.StaticRoutes {
		rt := RouteTable{VRF: table.VRF}
		for _, af := range table.AddressFamilies {
			family := AddressFamily{AFI: af.AFI}
			for _, route := range af.Routes {
				dest, err := iputil.ParseNetwork(route.Dest)
				if err != nil {
					return nil, &facts.MalformedFactsError{Hostname: df.Hostname, Reason: "route " + route.Dest + ": " + err.Error()}
				}
				for _, nh := range route.NextHops {
					if nh.ForwardRouterAddress == "" {
						topologyLog.Debug("skipping interface next hop", "host", df.Hostname, "dest", route.Dest, "interface", nh.Interface)
						continue
					}
					hop, err := iputil.ParseAddr(nh.ForwardRouterAddress)
					if err != nil {
						return nil, &facts.MalformedFactsError{Hostname: df.Hostname, Reason: "next hop " + nh.ForwardRouterAddress + ": " + err.Error()}
					}
					family.Routes = append(family.Routes, Route{Destination: dest, NextHop: hop})
				}
			}
			rt.AddressFamilies = append(rt.AddressFamilies, family)
		}
		d.RouteTables = append(d.RouteTables, rt)
	}
	return d, nil
}

func (topo *Topology) GetDevice(hostname string) (*Device, bool) {
	d, ok := topo.devices[hostname]
	return d, ok
}

// Devices returns every device sorted by hostname.
func (topo *Topology) Devices() []*Device {
	devices := make([]*Device, 0, len(topo.order))
	for _, host := range topo.order {
		devices = append(devices, topo.devices[host])
	}
	return devices
}

func (topo *Topology) Hostnames() []string {
	return append([]string(nil), topo.order...)
}

// Locate returns the device and interface configured with addr.
func (topo *Topology) Locate(addr netip.Addr) (*Device, Interface, error) {
	for _, d := range topo.Devices() {
		if iface, ok := d.InterfaceWithAddress(addr); ok {
			return d, iface, nil
		}
	}
	return nil, Interface{}, &AddressResolutionError{Address: addr}
}

// ResolveRoles finds the single device attached to each endpoint network.
func (topo *Topology) ResolveRoles(source, destination netip.Prefix) (Roles, error) {
	src, err := topo.resolve(Source, source)
	if err != nil {
		return Roles{}, err
	}
	dst, err := topo.resolve(Destination, destination)
	if err != nil {
		return Roles{}, err
	}
	return Roles{Source: src, Destination: dst}, nil
}

func (topo *Topology) resolve(role Role, network netip.Prefix) (string, error) {
	var hosts []string
	for _, d := range topo.Devices() {
		if d.Connected(network) {
			hosts = append(hosts, d.Hostname)
		}
	}
	switch len(hosts) {
	case 0:
		return "", &EndpointNotFoundError{Role: role, Network: network.Masked()}
	case 1:
		return hosts[0], nil
	default:
		return "", &EndpointAmbiguousError{Role: role, Network: network.Masked(), Hosts: hosts}
	}
}

// Neighbors lists the links from d to every other device sharing a subnet with it.
func (topo *Topology) Neighbors(d *Device) []Link {
	var links []Link
	for _, peer := range topo.Devices() {
		if peer.Hostname == d.Hostname {
			continue
		}
		links = append(links, SharedSubnets(d, peer)...)
	}
	return links
}

// SharedSubnets returns the interface pairs of a and b that sit in the same subnet.
func SharedSubnets(a, b *Device) []Link {
	var links []Link
	for _, local := range a.Interfaces {
		if !local.HasAddress() {
			continue
		}
		for _, remote := range b.Interfaces {
			if !remote.HasAddress() || remote.Address.Addr() == local.Address.Addr() {
				continue
			}
			if iputil.SameNetwork(local.Address, remote.Address) {
				links = append(links, Link{Local: local, Remote: remote, Peer: b.Hostname})
			}
		}
	}
	return links
}
