package lab

import (
	"net/netip"

	"github.com/David-Antunes/gone-analyzer/internal/facts"
)

// Networks used by the reference labs.
var (
	SourceNetwork      = netip.MustParsePrefix("10.0.1.0/24")
	DestinationNetwork = netip.MustParsePrefix("10.0.3.0/24")
	FarNetwork         = netip.MustParsePrefix("10.0.4.0/24")
	ManagementNetwork  = netip.MustParsePrefix("192.168.122.0/24")
)

func withManagement(b *DeviceBuilder, mgmtAddr string) *DeviceBuilder {
	return b.Iface("GigabitEthernet0/3", mgmtAddr, true, "management").
		VRFRoute("MGMT", "0.0.0.0/0", "192.168.122.1")
}

func r1() *DeviceBuilder {
	return withManagement(Router("R1").
		Iface("GigabitEthernet0/0", "10.0.1.1/24", true, "LAN source").
		Iface("GigabitEthernet0/1", "10.0.12.1/30", true, "to R2"), "192.168.122.11/24")
}

func r2(towardsR3 bool) *DeviceBuilder {
	return withManagement(Router("R2").
		Iface("GigabitEthernet0/0", "10.0.12.2/30", true, "to R1").
		Iface("GigabitEthernet0/1", "10.0.23.1/30", towardsR3, "to R3"), "192.168.122.12/24")
}

func r3() *DeviceBuilder {
	return withManagement(Router("R3").
		Iface("GigabitEthernet0/0", "10.0.3.1/24", true, "LAN destination").
		Iface("GigabitEthernet0/1", "10.0.23.2/30", true, "to R2"), "192.168.122.13/24")
}

// Line is R1 - R2 - R3 with the source behind R1 and the destination behind R3.
func Line() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Route("10.0.3.0/24", "10.0.12.2"),
		r2(true).Route("10.0.3.0/24", "10.0.23.2").Route("10.0.1.0/24", "10.0.12.1"),
		r3().Route("10.0.1.0/24", "10.0.23.1"),
	)
}

// DisabledLink is Line with the R2 interface facing R3 shut down.
func DisabledLink() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Route("10.0.3.0/24", "10.0.12.2"),
		r2(false).Route("10.0.3.0/24", "10.0.23.2").Route("10.0.1.0/24", "10.0.12.1"),
		r3().Route("10.0.1.0/24", "10.0.23.1"),
	)
}

// MissingRoute is Line without the R2 route towards the destination.
func MissingRoute() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Route("10.0.3.0/24", "10.0.12.2"),
		r2(true).Route("10.0.1.0/24", "10.0.12.1"),
		r3().Route("10.0.1.0/24", "10.0.23.1"),
	)
}

// WrongNetmask is Line with the R2 route towards the destination using a /25.
func WrongNetmask() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Route("10.0.3.0/24", "10.0.12.2"),
		r2(true).Route("10.0.3.0/25", "10.0.23.2").Route("10.0.1.0/24", "10.0.12.1"),
		r3().Route("10.0.1.0/24", "10.0.23.1"),
	)
}

// Triangle adds an R1 - R3 link and a summary route on R3 pointing back to R1,
// which loops R1 -> R2 -> R3 -> R1 without breaking R1 -> R3.
func Triangle() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Iface("GigabitEthernet0/2", "10.0.13.1/30", true, "to R3").
			Route("10.0.3.0/24", "10.0.12.2"),
		r2(true).Route("10.0.3.0/24", "10.0.23.2").Route("10.0.1.0/24", "10.0.12.1"),
		r3().Iface("GigabitEthernet0/2", "10.0.13.2/30", true, "to R1").
			Route("10.0.1.0/24", "10.0.23.1").
			Route("10.0.0.0/16", "10.0.13.1"),
	)
}

func r3Square(linkToR4 bool) *DeviceBuilder {
	b := Router("R3").
		Iface("GigabitEthernet0/1", "10.0.23.2/30", true, "to R2").
		Iface("GigabitEthernet0/2", "10.0.13.2/30", true, "to R1")
	if linkToR4 {
		b = b.Iface("GigabitEthernet0/0", "10.0.34.1/30", true, "to R4")
	}
	return withManagement(b, "192.168.122.13/24")
}

func r4(linkToR3 bool) *DeviceBuilder {
	b := Router("R4").Iface("GigabitEthernet0/0", "10.0.4.1/24", true, "LAN far")
	if linkToR3 {
		b = b.Iface("GigabitEthernet0/1", "10.0.34.2/30", true, "to R3").Route("10.0.1.0/24", "10.0.34.1")
	}
	return withManagement(b, "192.168.122.14/24")
}

// MisroutedLoop is R1 - R2 - R3 - R4 with an extra R1 - R3 link. R3 sends the far
// network back to R1 instead of R4, so traffic circles R1 -> R2 -> R3 -> R1.
func MisroutedLoop() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Iface("GigabitEthernet0/2", "10.0.13.1/30", true, "to R3").
			Route("10.0.4.0/24", "10.0.12.2"),
		r2(true).Route("10.0.4.0/24", "10.0.23.2").Route("10.0.1.0/24", "10.0.12.1"),
		r3Square(true).Route("10.0.4.0/24", "10.0.13.1").Route("10.0.1.0/24", "10.0.23.1"),
		r4(true),
	)
}

// StrandedLoop is MisroutedLoop where R3 and R4 only share the management network.
func StrandedLoop() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Iface("GigabitEthernet0/2", "10.0.13.1/30", true, "to R3").
			Route("10.0.4.0/24", "10.0.12.2"),
		r2(true).Route("10.0.4.0/24", "10.0.23.2").Route("10.0.1.0/24", "10.0.12.1"),
		r3Square(false).Route("10.0.4.0/24", "10.0.13.1").Route("10.0.1.0/24", "10.0.23.1"),
		r4(false),
	)
}

// Unreachable is Line where R3 sits on a different subnet than the R2 link, so no
// repair can bridge the gap.
func Unreachable() map[string]facts.DeviceFacts {
	return Snapshot(
		r1().Route("10.0.3.0/24", "10.0.12.2"),
		r2(true).Route("10.0.1.0/24", "10.0.12.1"),
		withManagement(Router("R3").
			Iface("GigabitEthernet0/0", "10.0.3.1/24", true, "LAN destination").
			Iface("GigabitEthernet0/1", "10.0.99.2/30", true, "to R2"), "192.168.122.13/24").
			Route("10.0.1.0/24", "10.0.99.1"),
	)
}
