package topology

import (
	"fmt"
	"net/netip"
	"strings"
)

type Role int

const (
	Source Role = iota
	Destination
)

func (r Role) String() string {
	if r == Source {
		return "source"
	}
	return "destination"
}

type EndpointNotFoundError struct {
	Role    Role
	Network netip.Prefix
}

func (e *EndpointNotFoundError) Error() string {
	return fmt.Sprintf("no device has an interface in the %s network %s", e.Role, e.Network)
}

type EndpointAmbiguousError struct {
	Role    Role
	Network netip.Prefix
	Hosts   []string
}

func (e *EndpointAmbiguousError) Error() string {
	return fmt.Sprintf("%s network %s is defined on more than one device: %s", e.Role, e.Network, strings.Join(e.Hosts, ", "))
}

// AddressResolutionError means no interface in the topology owns an address.
type AddressResolutionError struct {
	Address netip.Addr
}

func (e *AddressResolutionError) Error() string {
	return fmt.Sprintf("not found %s", e.Address)
}
