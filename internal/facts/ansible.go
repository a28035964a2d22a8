package facts

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ParseAnsible converts a Cisco IOS fact cache document into DeviceFacts.
// Both the raw cache layout and the {"ansible_facts": {...}} envelope are accepted.
func ParseAnsible(raw []byte) (DeviceFacts, error) {
	if !gjson.ValidBytes(raw) {
		return DeviceFacts{}, errors.New("fact cache is not valid json")
	}
	doc := gjson.ParseBytes(raw)
	if inner := doc.Get("ansible_facts"); inner.IsObject() {
		doc = inner
	}

	df := DeviceFacts{Hostname: doc.Get("ansible_net_hostname").String()}
	resources := doc.Get("ansible_network_resources")

	resources.Get("interfaces").ForEach(func(_, v gjson.Result) bool {
		enabled := true
		if e := v.Get("enabled"); e.Exists() {
			enabled = e.Bool()
		}
		df.Interfaces = append(df.Interfaces, InterfaceFacts{
			Name:        v.Get("name").String(),
			Enabled:     enabled,
			Description: v.Get("description").String(),
		})
		return true
	})

	resources.Get("l2_interfaces").ForEach(func(_, v gjson.Result) bool {
		df.L2Interfaces = append(df.L2Interfaces, L2InterfaceFacts{
			Name: v.Get("name").String(),
			Mode: v.Get("mode").String(),
		})
		return true
	})

	resources.Get("l3_interfaces").ForEach(func(_, v gjson.Result) bool {
		l3 := L3InterfaceFacts{Name: v.Get("name").String()}
		v.Get("ipv4").ForEach(func(_, a gjson.Result) bool {
			// dhcp assigned interfaces carry no static address
			if addr := a.Get("address").String(); addr != "" && a.Get("dhcp").Type == gjson.Null {
				l3.IPv4 = append(l3.IPv4, AddressFacts{Address: addr})
			}
			return true
		})
		df.L3Interfaces = append(df.L3Interfaces, l3)
		return true
	})

	resources.Get("static_routes").ForEach(func(_, v gjson.Result) bool {
		table := RouteTableFacts{VRF: v.Get("vrf").String()}
		v.Get("address_families").ForEach(func(_, af gjson.Result) bool {
			family := AddressFamilyFacts{AFI: af.Get("afi").String()}
			af.Get("routes").ForEach(func(_, r gjson.Result) bool {
				route := RouteFacts{Dest: r.Get("dest").String()}
				r.Get("next_hops").ForEach(func(_, nh gjson.Result) bool {
					route.NextHops = append(route.NextHops, NextHopFacts{
						ForwardRouterAddress: nh.Get("forward_router_address").String(),
						Interface:            nh.Get("interface").String(),
					})
					return true
				})
				family.Routes = append(family.Routes, route)
				return true
			})
			table.AddressFamilies = append(table.AddressFamilies, family)
			return true
		})
		df.StaticRoutes = append(df.StaticRoutes, table)
		return true
	})

	return df, nil
}
