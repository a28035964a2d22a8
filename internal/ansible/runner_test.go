package ansible

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	name string
	args []string
	vars map[string]any
}

func recorder(calls *[]recorded, err error) CommandFunc {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		c := recorded{name: name, args: args}
		for i, a := range args {
			if a == "--cmdline" && i+1 < len(args) {
				data, rerr := os.ReadFile(strings.TrimPrefix(args[i+1], "-e @"))
				if rerr == nil {
					_ = json.Unmarshal(data, &c.vars)
				}
			}
		}
		*calls = append(*calls, c)
		return []byte("PLAY RECAP"), err
	}
}

func TestRunPlaybook(t *testing.T) {
	var calls []recorded
	r := NewRunner("", "/srv/ansible").WithCommand(recorder(&calls, nil))

	require.NoError(t, r.RunPlaybook(context.Background(), "/srv/ansible/project/gather-ios-facts.yml", "facts-1"))
	require.Len(t, calls, 1)
	assert.Equal(t, "ansible-runner", calls[0].name)
	assert.Equal(t, []string{"run", "/srv/ansible", "-p", "/srv/ansible/project/gather-ios-facts.yml", "--ident", "facts-1"}, calls[0].args)
	assert.Equal(t, "/srv/ansible/artifacts/facts-1/fact_cache", r.FactCacheDir("facts-1"))
}

func TestRunRole(t *testing.T) {
	t.Run("passes hosts and vars", func(t *testing.T) {
		var calls []recorded
		r := NewRunner("runner", "/srv/ansible").WithCommand(recorder(&calls, nil))

		vars := map[string]any{"interfaces": []map[string]string{{"name": "GigabitEthernet0/1", "description": "to R3"}}}
		require.NoError(t, r.RunRole(context.Background(), "enable-interfaces", []string{"R2", "R3"}, vars, "change-1"))

		require.Len(t, calls, 1)
		assert.Equal(t, "runner", calls[0].name)
		assert.Contains(t, calls[0].args, "R2,R3")
		assert.Contains(t, calls[0].args, "enable-interfaces")
		assert.Contains(t, calls[0].args, "--role-skip-facts")
		require.NotNil(t, calls[0].vars)
		assert.Contains(t, calls[0].vars, "interfaces")
	})

	t.Run("wraps failures", func(t *testing.T) {
		var calls []recorded
		r := NewRunner("", "/srv/ansible").WithCommand(recorder(&calls, errors.New("exit status 2")))

		err := r.RunRole(context.Background(), "static-routes", []string{"R1"}, map[string]any{}, "change-2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exit status 2")
	})
}
