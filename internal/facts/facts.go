package facts

import (
	"context"
	"fmt"
)

// DeviceFacts is what a fact source reports for a single router.
type DeviceFacts struct {
	Hostname     string             `json:"hostname" yaml:"hostname" validate:"required"`
	Interfaces   []InterfaceFacts   `json:"interfaces" yaml:"interfaces" validate:"dive"`
	L2Interfaces []L2InterfaceFacts `json:"l2_interfaces" yaml:"l2_interfaces" validate:"dive"`
	L3Interfaces []L3InterfaceFacts `json:"l3_interfaces" yaml:"l3_interfaces" validate:"dive"`
	StaticRoutes []RouteTableFacts  `json:"static_routes" yaml:"static_routes" validate:"dive"`
}

type InterfaceFacts struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type L2InterfaceFacts struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

type L3InterfaceFacts struct {
	Name string         `json:"name" yaml:"name" validate:"required"`
	IPv4 []AddressFacts `json:"ipv4,omitempty" yaml:"ipv4,omitempty" validate:"dive"`
}

type AddressFacts struct {
	Address string `json:"address" yaml:"address" validate:"required"`
}

type RouteTableFacts struct {
	VRF             string               `json:"vrf,omitempty" yaml:"vrf,omitempty"`
	AddressFamilies []AddressFamilyFacts `json:"address_families" yaml:"address_families" validate:"dive"`
}

type AddressFamilyFacts struct {
	AFI    string       `json:"afi,omitempty" yaml:"afi,omitempty"`
	Routes []RouteFacts `json:"routes" yaml:"routes" validate:"dive"`
}

type RouteFacts struct {
	Dest     string         `json:"dest" yaml:"dest" validate:"required,cidrv4"`
	NextHops []NextHopFacts `json:"next_hops" yaml:"next_hops" validate:"dive"`
}

type NextHopFacts struct {
	ForwardRouterAddress string `json:"forward_router_address,omitempty" yaml:"forward_router_address,omitempty" validate:"omitempty,ipv4"`
	Interface            string `json:"interface,omitempty" yaml:"interface,omitempty"`
}

// Source gathers a fresh snapshot of every device.
type Source interface {
	GatherFacts(ctx context.Context) (map[string]DeviceFacts, error)
}

// MalformedFactsError means a snapshot cannot be turned into a topology.
type MalformedFactsError struct {
	Hostname  string
	Interface string
	Category  string
	Reason    string
}

func (e *MalformedFactsError) Error() string {
	switch {
	case e.Interface != "" && e.Category != "":
		return fmt.Sprintf("malformed facts for %s: interface %s has no %s record", e.Hostname, e.Interface, e.Category)
	case e.Interface != "":
		return fmt.Sprintf("malformed facts for %s: interface %s: %s", e.Hostname, e.Interface, e.Reason)
	default:
		return fmt.Sprintf("malformed facts for %s: %s", e.Hostname, e.Reason)
	}
}

// Clone deep copies a snapshot so callers can mutate it freely.
func Clone(in map[string]DeviceFacts) map[string]DeviceFacts {
	out := make(map[string]DeviceFacts, len(in))
	for host, df := range in {
		out[host] = df.Clone()
	}
	return out
}

func (df DeviceFacts) Clone() DeviceFacts {
	c := DeviceFacts{Hostname: df.Hostname}
	c.Interfaces = append([]InterfaceFacts(nil), df.Interfaces...)
	c.L2Interfaces = append([]L2InterfaceFacts(nil), df.L2Interfaces...)
	for _, l3 := range df.L3Interfaces {
		c.L3Interfaces = append(c.L3Interfaces, L3InterfaceFacts{
			Name: l3.Name,
			IPv4: append([]AddressFacts(nil), l3.IPv4...),
		})
	}
	for _, table := range df.StaticRoutes {
		t := RouteTableFacts{VRF: table.VRF}
		for _, af := range table.AddressFamilies {
			a := AddressFamilyFacts{AFI: af.AFI}
			for _, route := range af.Routes {
				a.Routes = append(a.Routes, RouteFacts{
					Dest:     route.Dest,
					NextHops: append([]NextHopFacts(nil), route.NextHops...),
				})
			}
			t.AddressFamilies = append(t.AddressFamilies, a)
		}
		c.StaticRoutes = append(c.StaticRoutes, t)
	}
	return c
}
