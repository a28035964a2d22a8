package lab

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/David-Antunes/gone-analyzer/internal/executor"
	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var labLog = logger.New("lab")

// Network is an in-memory set of devices. It serves facts and applies changes,
// so a diagnosis can be exercised end to end without touching real routers.
type Network struct {
	sync.Mutex
	devices    map[string]facts.DeviceFacts
	applied    []executor.Change
	failOn     map[string]error
	gatherErr  error
	gathers    int
	ignoreKind map[executor.Kind]bool
}

func NewNetwork(snapshot map[string]facts.DeviceFacts) *Network {
	return &Network{
		devices:    facts.Clone(snapshot),
		failOn:     make(map[string]error),
		ignoreKind: make(map[executor.Kind]bool),
	}
}

// FailOn makes every change touching host return err.
func (n *Network) FailOn(host string, err error) *Network {
	n.Lock()
	defer n.Unlock()
	n.failOn[host] = err
	return n
}

// FailGather makes every following GatherFacts call return err.
func (n *Network) FailGather(err error) *Network {
	n.Lock()
	defer n.Unlock()
	n.gatherErr = err
	return n
}

// Ignore accepts changes of kind without applying them, like a device that
// acknowledges a push but keeps its old state.
func (n *Network) Ignore(kind executor.Kind) *Network {
	n.Lock()
	defer n.Unlock()
	n.ignoreKind[kind] = true
	return n
}

// Applied lists the changes that took effect, ignored ones included.
func (n *Network) Applied() []executor.Change {
	n.Lock()
	defer n.Unlock()
	return append([]executor.Change(nil), n.applied...)
}

func (n *Network) Gathers() int {
	n.Lock()
	defer n.Unlock()
	return n.gathers
}

func (n *Network) GatherFacts(_ context.Context) (map[string]facts.DeviceFacts, error) {
	n.Lock()
	defer n.Unlock()
	n.gathers++
	if n.gatherErr != nil {
		return nil, n.gatherErr
	}
	return facts.Clone(n.devices), nil
}

func (n *Network) Run(_ context.Context, c executor.Change) error {
	n.Lock()
	defer n.Unlock()

	for _, host := range c.Hosts {
		if err, ok := n.failOn[host]; ok {
			return err
		}
		if _, ok := n.devices[host]; !ok {
			return fmt.Errorf("unknown host %s", host)
		}
	}
	if n.ignoreKind[c.Kind] {
		n.applied = append(n.applied, c)
		labLog.Debug("change ignored", "change", c.Key())
		return nil
	}

	// hosts are edited on copies and committed together
	updated := make(map[string]facts.DeviceFacts, len(c.Hosts))
	for _, host := range c.Hosts {
		df := n.devices[host].Clone()
		var err error
		switch c.Kind {
		case executor.EnableInterfaces:
			err = enable(&df, c.Interfaces)
		case executor.StaticRoutes:
			err = applyRoutes(&df, c.Routes)
		default:
			err = fmt.Errorf("unsupported change kind %q", c.Kind)
		}
		if err != nil {
			return err
		}
		updated[host] = df
	}
	for host, df := range updated {
		n.devices[host] = df
	}
	n.applied = append(n.applied, c)
	labLog.Debug("change applied", "change", c.Key())
	return nil
}

func enable(df *facts.DeviceFacts, items []executor.InterfaceItem) error {
	for _, item := range items {
		found := false
		for i := range df.Interfaces {
			if df.Interfaces[i].Name == item.Name {
				df.Interfaces[i].Enabled = true
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%s has no interface %s", df.Hostname, item.Name)
		}
	}
	return nil
}

func applyRoutes(df *facts.DeviceFacts, items []executor.RouteItem) error {
	table := dataTable(df)
	for _, item := range items {
		switch item.State {
		case executor.Deleted:
			if !deleteRoute(table, item) {
				return fmt.Errorf("%s has no route %s via %s", df.Hostname, item.DestinationAddress, item.NextHop)
			}
		case executor.Inserted:
			af := &table.AddressFamilies[0]
			af.Routes = append(af.Routes, facts.RouteFacts{
				Dest:     item.DestinationAddress,
				NextHops: []facts.NextHopFacts{{ForwardRouterAddress: item.NextHop}},
			})
		default:
			return errors.New("route state must be inserted or deleted")
		}
	}
	return nil
}

// dataTable returns the global routing table, creating it when missing.
func dataTable(df *facts.DeviceFacts) *facts.RouteTableFacts {
	for i := range df.StaticRoutes {
		if df.StaticRoutes[i].VRF == "" {
			if len(df.StaticRoutes[i].AddressFamilies) == 0 {
				df.StaticRoutes[i].AddressFamilies = []facts.AddressFamilyFacts{{AFI: "ipv4"}}
			}
			return &df.StaticRoutes[i]
		}
	}
	df.StaticRoutes = append(df.StaticRoutes, facts.RouteTableFacts{
		AddressFamilies: []facts.AddressFamilyFacts{{AFI: "ipv4"}},
	})
	return &df.StaticRoutes[len(df.StaticRoutes)-1]
}

func deleteRoute(table *facts.RouteTableFacts, item executor.RouteItem) bool {
	for a := range table.AddressFamilies {
		af := &table.AddressFamilies[a]
		for r := range af.Routes {
			route := &af.Routes[r]
			if route.Dest != item.DestinationAddress {
				continue
			}
			for h, nh := range route.NextHops {
				if nh.ForwardRouterAddress != item.NextHop {
					continue
				}
				route.NextHops = append(route.NextHops[:h], route.NextHops[h+1:]...)
				if len(route.NextHops) == 0 {
					af.Routes = append(af.Routes[:r], af.Routes[r+1:]...)
				}
				return true
			}
		}
	}
	return false
}
