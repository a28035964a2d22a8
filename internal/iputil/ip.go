package iputil

import (
	"fmt"
	"net/netip"
)

var defaultRoute = netip.MustParsePrefix("0.0.0.0/0")

var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// ParseCIDR parses an interface address such as 192.168.30.1/30. Host bits are kept.
func ParseCIDR(s string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("%s is not an ipv4 prefix", s)
	}
	return p, nil
}

// ParseNetwork parses s and masks it to its network address.
func ParseNetwork(s string) (netip.Prefix, error) {
	p, err := ParseCIDR(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return p.Masked(), nil
}

func ParseAddr(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}
	if !a.Is4() {
		return netip.Addr{}, fmt.Errorf("%s is not an ipv4 address", s)
	}
	return a, nil
}

func IsDefault(p netip.Prefix) bool {
	return p.Masked() == defaultRoute
}

// SameAddress compares an interface address (192.168.30.1/30) with a bare address (192.168.30.1).
func SameAddress(cidr netip.Prefix, addr netip.Addr) bool {
	return cidr.IsValid() && cidr.Addr() == addr
}

func ContainsAddr(network netip.Prefix, addr netip.Addr) bool {
	return network.IsValid() && addr.IsValid() && network.Masked().Contains(addr)
}

// ContainsNetwork reports whether every address of contained is in containing.
// The default route never contains anything.
func ContainsNetwork(contained, containing netip.Prefix) bool {
	if !contained.IsValid() || !containing.IsValid() {
		return false
	}
	if IsDefault(containing) {
		return false
	}
	return containing.Bits() <= contained.Bits() && containing.Masked().Contains(contained.Addr())
}

// StrictlyContains is ContainsNetwork without equality.
func StrictlyContains(contained, containing netip.Prefix) bool {
	return ContainsNetwork(contained, containing) && containing.Bits() < contained.Bits()
}

// InSupernet reports whether containing is one of the supernets of contained.
// Private networks are only matched against private supernets.
func InSupernet(contained, containing netip.Prefix) bool {
	if !contained.IsValid() || !containing.IsValid() {
		return false
	}
	private := IsPrivate(contained)
	target := containing.Masked()
	for bits := contained.Bits() - 1; bits >= 0; bits-- {
		super, err := contained.Addr().Prefix(bits)
		if err != nil {
			return false
		}
		if private && !IsPrivate(super) {
			continue
		}
		if super == target {
			return true
		}
	}
	return false
}

func SameNetwork(a, b netip.Prefix) bool {
	return a.IsValid() && b.IsValid() && a.Masked() == b.Masked()
}

func Overlaps(a, b netip.Prefix) bool {
	return a.IsValid() && b.IsValid() && a.Masked().Overlaps(b.Masked())
}

// IsPrivate reports whether the whole network lies inside an RFC 1918 range.
func IsPrivate(p netip.Prefix) bool {
	for _, r := range privateRanges {
		if p.Bits() >= r.Bits() && r.Contains(p.Addr()) {
			return true
		}
	}
	return false
}
