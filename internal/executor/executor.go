package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

type Kind string

const (
	EnableInterfaces Kind = "enable-interfaces"
	StaticRoutes     Kind = "static-routes"
)

type RouteState string

const (
	Inserted RouteState = "inserted"
	Deleted  RouteState = "deleted"
)

type InterfaceItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RouteItem struct {
	DestinationAddress string     `json:"destination_address"`
	NextHop            string     `json:"next_hop"`
	State              RouteState `json:"state"`
}

// Change is one configuration push to a set of hosts.
type Change struct {
	Kind       Kind
	Hosts      []string
	Interfaces []InterfaceItem
	Routes     []RouteItem
}

func EnableOn(host string, items ...InterfaceItem) Change {
	return Change{Kind: EnableInterfaces, Hosts: []string{host}, Interfaces: items}
}

func RoutesOn(host string, items ...RouteItem) Change {
	return Change{Kind: StaticRoutes, Hosts: []string{host}, Routes: items}
}

// Vars renders the variables handed to the role.
func (c Change) Vars() map[string]any {
	switch c.Kind {
	case EnableInterfaces:
		return map[string]any{"interfaces": c.Interfaces}
	case StaticRoutes:
		return map[string]any{"routes": c.Routes}
	}
	return map[string]any{}
}

// Key identifies a change independently of item order.
func (c Change) Key() string {
	hosts := append([]string(nil), c.Hosts...)
	sort.Strings(hosts)
	items := make([]string, 0, len(c.Interfaces)+len(c.Routes))
	for _, i := range c.Interfaces {
		items = append(items, i.Name)
	}
	for _, r := range c.Routes {
		items = append(items, fmt.Sprintf("%s>%s:%s", r.DestinationAddress, r.NextHop, r.State))
	}
	sort.Strings(items)
	return fmt.Sprintf("%s|%s|%s", c.Kind, strings.Join(hosts, ","), strings.Join(items, ","))
}

func (c Change) String() string {
	return c.Key()
}

// Executor pushes configuration changes to devices.
type Executor interface {
	Run(ctx context.Context, c Change) error
}

// CommandExecutionError wraps any failure of an executor run.
type CommandExecutionError struct {
	Kind  Kind
	Hosts []string
	Err   error
}

func (e *CommandExecutionError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Kind, strings.Join(e.Hosts, ","), e.Err)
}

func (e *CommandExecutionError) Unwrap() error {
	return e.Err
}

// RunAll applies changes in order and returns every failure combined.
// A failing change does not stop the following ones.
func RunAll(ctx context.Context, exec Executor, changes []Change) error {
	var errs error
	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := exec.Run(ctx, c); err != nil {
			errs = multierr.Append(errs, wrap(c, err))
		}
	}
	return errs
}

func wrap(c Change, err error) error {
	var cmdErr *CommandExecutionError
	if errors.As(err, &cmdErr) {
		return err
	}
	return &CommandExecutionError{Kind: c.Kind, Hosts: c.Hosts, Err: err}
}
