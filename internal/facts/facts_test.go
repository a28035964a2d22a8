package facts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Antunes/gone-analyzer/internal/ansible"
)

const r1Cache = `{
  "ansible_net_hostname": "R1",
  "ansible_network_resources": {
    "interfaces": [
      {"name": "GigabitEthernet0/0", "enabled": true, "description": "LAN"},
      {"name": "GigabitEthernet0/1", "enabled": false, "description": "to R2"},
      {"name": "GigabitEthernet0/2"}
    ],
    "l2_interfaces": [
      {"name": "GigabitEthernet0/0"},
      {"name": "GigabitEthernet0/1"},
      {"name": "GigabitEthernet0/2"}
    ],
    "l3_interfaces": [
      {"name": "GigabitEthernet0/0", "ipv4": [{"address": "10.0.1.1/24"}]},
      {"name": "GigabitEthernet0/1", "ipv4": [{"address": "10.0.12.1/30"}]},
      {"name": "GigabitEthernet0/2", "ipv4": [{"dhcp": {"enable": true}}]}
    ],
    "static_routes": [
      {"address_families": [{"afi": "ipv4", "routes": [
        {"dest": "10.0.3.0/24", "next_hops": [{"forward_router_address": "10.0.12.2"}]}
      ]}]},
      {"vrf": "MGMT", "address_families": [{"afi": "ipv4", "routes": [
        {"dest": "0.0.0.0/0", "next_hops": [{"forward_router_address": "192.168.122.1"}]}
      ]}]}
    ]
  }
}`

func TestParseAnsible(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		df, err := ParseAnsible([]byte(r1Cache))
		require.NoError(t, err)

		assert.Equal(t, "R1", df.Hostname)
		require.Len(t, df.Interfaces, 3)
		assert.True(t, df.Interfaces[0].Enabled)
		assert.False(t, df.Interfaces[1].Enabled)
		assert.True(t, df.Interfaces[2].Enabled, "enabled defaults to true")
		assert.Equal(t, "to R2", df.Interfaces[1].Description)
		assert.Len(t, df.L2Interfaces, 3)

		require.Len(t, df.L3Interfaces, 3)
		assert.Equal(t, "10.0.12.1/30", df.L3Interfaces[1].IPv4[0].Address)
		assert.Empty(t, df.L3Interfaces[2].IPv4, "dhcp has no static address")

		require.Len(t, df.StaticRoutes, 2)
		assert.Empty(t, df.StaticRoutes[0].VRF)
		assert.Equal(t, "MGMT", df.StaticRoutes[1].VRF)
		route := df.StaticRoutes[0].AddressFamilies[0].Routes[0]
		assert.Equal(t, "10.0.3.0/24", route.Dest)
		assert.Equal(t, "10.0.12.2", route.NextHops[0].ForwardRouterAddress)
	})

	t.Run("ansible_facts envelope", func(t *testing.T) {
		df, err := ParseAnsible([]byte(`{"ansible_facts": {"ansible_net_hostname": "R9"}}`))
		require.NoError(t, err)
		assert.Equal(t, "R9", df.Hostname)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseAnsible([]byte(`{"ansible_net_hostname":`))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() DeviceFacts {
		return DeviceFacts{
			Hostname:     "R1",
			Interfaces:   []InterfaceFacts{{Name: "Gi0/0", Enabled: true}},
			L3Interfaces: []L3InterfaceFacts{{Name: "Gi0/0", IPv4: []AddressFacts{{Address: "10.0.1.1/24"}}}},
			StaticRoutes: []RouteTableFacts{{AddressFamilies: []AddressFamilyFacts{{Routes: []RouteFacts{
				{Dest: "10.0.3.0/24", NextHops: []NextHopFacts{{ForwardRouterAddress: "10.0.12.2"}}},
			}}}}},
		}
	}

	t.Run("valid snapshot", func(t *testing.T) {
		assert.NoError(t, Validate(map[string]DeviceFacts{"R1": valid()}))
	})

	t.Run("hostname mismatch", func(t *testing.T) {
		err := Validate(map[string]DeviceFacts{"R2": valid()})
		var malformed *MalformedFactsError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "R2", malformed.Hostname)
	})

	t.Run("bad route destination", func(t *testing.T) {
		df := valid()
		df.StaticRoutes[0].AddressFamilies[0].Routes[0].Dest = "10.0.3.0/33"
		err := Validate(map[string]DeviceFacts{"R1": df})
		var malformed *MalformedFactsError
		require.True(t, errors.As(err, &malformed))
		assert.Contains(t, malformed.Reason, "Dest")
	})

	t.Run("bad next hop", func(t *testing.T) {
		df := valid()
		df.StaticRoutes[0].AddressFamilies[0].Routes[0].NextHops[0].ForwardRouterAddress = "R2"
		assert.Error(t, Validate(map[string]DeviceFacts{"R1": df}))
	})

	t.Run("missing interface name", func(t *testing.T) {
		df := valid()
		df.Interfaces = append(df.Interfaces, InterfaceFacts{Enabled: true})
		assert.Error(t, Validate(map[string]DeviceFacts{"R1": df}))
	})
}

func TestClone(t *testing.T) {
	in := map[string]DeviceFacts{"R1": {
		Hostname:     "R1",
		Interfaces:   []InterfaceFacts{{Name: "Gi0/0", Enabled: false}},
		StaticRoutes: []RouteTableFacts{{AddressFamilies: []AddressFamilyFacts{{Routes: []RouteFacts{{Dest: "10.0.3.0/24"}}}}}},
	}}
	out := Clone(in)
	out["R1"].Interfaces[0].Enabled = true
	out["R1"].StaticRoutes[0].AddressFamilies[0].Routes[0].Dest = "10.9.9.0/24"

	assert.False(t, in["R1"].Interfaces[0].Enabled)
	assert.Equal(t, "10.0.3.0/24", in["R1"].StaticRoutes[0].AddressFamilies[0].Routes[0].Dest)
}

func TestLoadSnapshot(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lab.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
R1:
  interfaces:
    - name: Gi0/0
      enabled: true
  l2_interfaces:
    - name: Gi0/0
  l3_interfaces:
    - name: Gi0/0
      ipv4:
        - address: 10.0.1.1/24
`), 0o644))

		snapshot, err := LoadSnapshot(path)
		require.NoError(t, err)
		require.Contains(t, snapshot, "R1")
		assert.Equal(t, "R1", snapshot["R1"].Hostname, "hostname falls back to the key")
		assert.Equal(t, "10.0.1.1/24", snapshot["R1"].L3Interfaces[0].IPv4[0].Address)

		source := &SnapshotSource{Path: path}
		again, err := source.GatherFacts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, snapshot, again)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lab.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"R1": {"hostname": "R1", "interfaces": [{"name": "Gi0/0", "enabled": true}]}}`), 0o644))

		snapshot, err := LoadSnapshot(path)
		require.NoError(t, err)
		assert.True(t, snapshot["R1"].Interfaces[0].Enabled)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestFactCacheSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r1.lab"), []byte(r1Cache), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r2.lab"), []byte(`{"ansible_network_resources": {}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lock"), []byte(`x`), 0o644))

	source := &FactCacheSource{Dir: dir}
	snapshot, err := source.GatherFacts(context.Background())
	require.NoError(t, err)

	assert.Len(t, snapshot, 2)
	assert.Contains(t, snapshot, "R1")
	assert.Contains(t, snapshot, "r2.lab", "file name is used when the hostname is missing")
}

func TestRunnerSource(t *testing.T) {
	dataDir := t.TempDir()
	var playbooks []string

	runner := ansible.NewRunner("", dataDir).WithCommand(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		playbooks = append(playbooks, filepath.Base(args[3]))
		ident := args[5]
		cache := filepath.Join(dataDir, "artifacts", ident, "fact_cache")
		if err := os.MkdirAll(cache, 0o755); err != nil {
			return nil, err
		}
		return nil, os.WriteFile(filepath.Join(cache, "R1"), []byte(r1Cache), 0o644)
	})

	source := &RunnerSource{Runner: runner, Playbook: "gather-ios-facts.yml", Prerequisite: "setup-loop.yml"}
	for i := 0; i < 2; i++ {
		snapshot, err := source.GatherFacts(context.Background())
		require.NoError(t, err)
		assert.Contains(t, snapshot, "R1")
	}
	assert.Equal(t, []string{"setup-loop.yml", "gather-ios-facts.yml", "gather-ios-facts.yml"}, playbooks)
}
