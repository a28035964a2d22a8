package lab

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Antunes/gone-analyzer/internal/executor"
	"github.com/David-Antunes/gone-analyzer/internal/facts"
)

func routesOf(df facts.DeviceFacts) map[string]string {
	out := make(map[string]string)
	for _, table := range df.StaticRoutes {
		if table.VRF != "" {
			continue
		}
		for _, af := range table.AddressFamilies {
			for _, r := range af.Routes {
				for _, nh := range r.NextHops {
					out[r.Dest] = nh.ForwardRouterAddress
				}
			}
		}
	}
	return out
}

func TestSnapshotValid(t *testing.T) {
	for name, snapshot := range map[string]func() map[string]facts.DeviceFacts{
		"line":           Line,
		"disabled link":  DisabledLink,
		"missing route":  MissingRoute,
		"wrong netmask":  WrongNetmask,
		"triangle":       Triangle,
		"misrouted loop": MisroutedLoop,
		"stranded loop":  StrandedLoop,
		"unreachable":    Unreachable,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, facts.Validate(snapshot()))
		})
	}
}

func TestGatherIsolated(t *testing.T) {
	n := NewNetwork(Line())
	first, err := n.GatherFacts(context.Background())
	require.NoError(t, err)

	r2 := first["R2"]
	r2.Interfaces[0].Enabled = false
	first["R2"] = r2

	second, err := n.GatherFacts(context.Background())
	require.NoError(t, err)
	assert.True(t, second["R2"].Interfaces[0].Enabled)
	assert.Equal(t, 2, n.Gathers())
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("enable interface", func(t *testing.T) {
		n := NewNetwork(DisabledLink())
		require.NoError(t, n.Run(ctx, executor.EnableOn("R2", executor.InterfaceItem{Name: "GigabitEthernet0/1"})))
		snapshot, err := n.GatherFacts(ctx)
		require.NoError(t, err)
		for _, iface := range snapshot["R2"].Interfaces {
			assert.True(t, iface.Enabled, iface.Name)
		}
		assert.Len(t, n.Applied(), 1)
	})

	t.Run("replace route", func(t *testing.T) {
		n := NewNetwork(WrongNetmask())
		require.NoError(t, n.Run(ctx, executor.RoutesOn("R2",
			executor.RouteItem{DestinationAddress: "10.0.3.0/25", NextHop: "10.0.23.2", State: executor.Deleted},
			executor.RouteItem{DestinationAddress: "10.0.3.0/24", NextHop: "10.0.23.2", State: executor.Inserted},
		)))
		snapshot, err := n.GatherFacts(ctx)
		require.NoError(t, err)
		routes := routesOf(snapshot["R2"])
		assert.NotContains(t, routes, "10.0.3.0/25")
		assert.Equal(t, "10.0.23.2", routes["10.0.3.0/24"])
	})

	t.Run("management table untouched", func(t *testing.T) {
		n := NewNetwork(MissingRoute())
		require.NoError(t, n.Run(ctx, executor.RoutesOn("R2",
			executor.RouteItem{DestinationAddress: "10.0.3.0/24", NextHop: "10.0.23.2", State: executor.Inserted},
		)))
		snapshot, err := n.GatherFacts(ctx)
		require.NoError(t, err)
		for _, table := range snapshot["R2"].StaticRoutes {
			if table.VRF == "MGMT" {
				require.Len(t, table.AddressFamilies[0].Routes, 1)
				assert.Equal(t, "0.0.0.0/0", table.AddressFamilies[0].Routes[0].Dest)
			}
		}
	})

	t.Run("delete missing route", func(t *testing.T) {
		n := NewNetwork(Line())
		err := n.Run(ctx, executor.RoutesOn("R2",
			executor.RouteItem{DestinationAddress: "10.0.9.0/24", NextHop: "10.0.23.2", State: executor.Deleted},
		))
		assert.ErrorContains(t, err, "has no route")
	})

	t.Run("unknown interface", func(t *testing.T) {
		n := NewNetwork(Line())
		err := n.Run(ctx, executor.EnableOn("R2", executor.InterfaceItem{Name: "Loopback9"}))
		assert.ErrorContains(t, err, "no interface Loopback9")
	})

	t.Run("failed change leaves the device untouched", func(t *testing.T) {
		n := NewNetwork(DisabledLink())
		err := n.Run(ctx, executor.EnableOn("R2",
			executor.InterfaceItem{Name: "GigabitEthernet0/1"},
			executor.InterfaceItem{Name: "Nope0/0"},
		))
		require.Error(t, err)
		snapshot, err := n.GatherFacts(ctx)
		require.NoError(t, err)
		assert.False(t, snapshot["R2"].Interfaces[1].Enabled)
		assert.Empty(t, n.Applied())
	})

	t.Run("failed host keeps the others untouched", func(t *testing.T) {
		n := NewNetwork(Line())
		err := n.Run(ctx, executor.Change{
			Kind:  executor.StaticRoutes,
			Hosts: []string{"R1", "R2"},
			Routes: []executor.RouteItem{
				{DestinationAddress: "10.0.3.0/24", NextHop: "10.0.12.2", State: executor.Deleted},
			},
		})
		assert.ErrorContains(t, err, "R2 has no route")
		snapshot, err := n.GatherFacts(ctx)
		require.NoError(t, err)
		assert.Equal(t, "10.0.12.2", routesOf(snapshot["R1"])["10.0.3.0/24"])
		assert.Empty(t, n.Applied())
	})

	t.Run("unknown host", func(t *testing.T) {
		n := NewNetwork(Line())
		assert.Error(t, n.Run(ctx, executor.EnableOn("R9")))
		assert.Empty(t, n.Applied())
	})
}

func TestFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("unreachable")

	n := NewNetwork(DisabledLink()).FailOn("R2", boom)
	assert.ErrorIs(t, n.Run(ctx, executor.EnableOn("R2", executor.InterfaceItem{Name: "GigabitEthernet0/1"})), boom)
	assert.Empty(t, n.Applied())

	n = NewNetwork(DisabledLink()).Ignore(executor.EnableInterfaces)
	require.NoError(t, n.Run(ctx, executor.EnableOn("R2", executor.InterfaceItem{Name: "GigabitEthernet0/1"})))
	assert.Len(t, n.Applied(), 1)
	snapshot, err := n.GatherFacts(ctx)
	require.NoError(t, err)
	assert.False(t, snapshot["R2"].Interfaces[1].Enabled)

	n = NewNetwork(Line()).FailGather(boom)
	_, err = n.GatherFacts(ctx)
	assert.ErrorIs(t, err, boom)
}
