package topology

import (
	"fmt"
	"net/netip"

	"github.com/David-Antunes/gone-analyzer/internal/iputil"
)

type Interface struct {
	Name        string
	Address     netip.Prefix
	Enabled     bool
	Description string
}

func (i Interface) HasAddress() bool {
	return i.Address.IsValid()
}

func (i Interface) Network() netip.Prefix {
	return i.Address.Masked()
}

func (i Interface) String() string {
	if !i.HasAddress() {
		return i.Name
	}
	return fmt.Sprintf("%s(%s)", i.Name, i.Address)
}

type Route struct {
	Destination netip.Prefix
	NextHop     netip.Addr
}

func (r Route) String() string {
	return fmt.Sprintf("%s via %s", r.Destination, r.NextHop)
}

type AddressFamily struct {
	AFI    string
	Routes []Route
}

type RouteTable struct {
	VRF             string
	AddressFamilies []AddressFamily
}

// IsVRF marks management tables that are not part of the data network.
func (t RouteTable) IsVRF() bool {
	return t.VRF != ""
}

type Device struct {
	Hostname    string
	Interfaces  []Interface
	RouteTables []RouteTable
}

func (d *Device) ID() string {
	return d.Hostname
}

// Routes returns every route of the non VRF tables.
func (d *Device) Routes() []Route {
	var routes []Route
	for _, table := range d.RouteTables {
		if table.IsVRF() {
			continue
		}
		for _, af := range table.AddressFamilies {
			routes = append(routes, af.Routes...)
		}
	}
	return routes
}

// RoutesCovering returns the routes whose destination contains network.
func (d *Device) RoutesCovering(network netip.Prefix) []Route {
	var routes []Route
	for _, r := range d.Routes() {
		if iputil.ContainsNetwork(network, r.Destination) {
			routes = append(routes, r)
		}
	}
	return routes
}

// Egress finds the local interface whose network contains addr.
func (d *Device) Egress(addr netip.Addr) (Interface, bool) {
	for _, iface := range d.Interfaces {
		if iface.HasAddress() && iputil.ContainsAddr(iface.Address, addr) {
			return iface, true
		}
	}
	return Interface{}, false
}

// InterfaceWithAddress finds the interface configured with exactly addr.
func (d *Device) InterfaceWithAddress(addr netip.Addr) (Interface, bool) {
	for _, iface := range d.Interfaces {
		if iputil.SameAddress(iface.Address, addr) {
			return iface, true
		}
	}
	return Interface{}, false
}

func (d *Device) Interface(name string) (Interface, bool) {
	for _, iface := range d.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// DownInterfaces lists administratively disabled interfaces that carry an address.
func (d *Device) DownInterfaces() []Interface {
	var down []Interface
	for _, iface := range d.Interfaces {
		if iface.HasAddress() && !iface.Enabled {
			down = append(down, iface)
		}
	}
	return down
}

// Connected reports whether network is directly attached to the device.
func (d *Device) Connected(network netip.Prefix) bool {
	for _, iface := range d.Interfaces {
		if iface.HasAddress() && iputil.SameNetwork(iface.Address, network) {
			return true
		}
	}
	return false
}
