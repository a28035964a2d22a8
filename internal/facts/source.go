package facts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/David-Antunes/gone-analyzer/internal/ansible"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var factsLog = logger.New("facts")

// LoadSnapshot reads a map of hostname to DeviceFacts from a YAML or JSON file.
func LoadSnapshot(path string) (map[string]DeviceFacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snapshot := map[string]DeviceFacts{}
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	for host, df := range snapshot {
		if df.Hostname == "" {
			df.Hostname = host
			snapshot[host] = df
		}
	}
	if err := Validate(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SnapshotSource serves a snapshot file, re-reading it on every gather.
type SnapshotSource struct {
	Path string
}

func (s *SnapshotSource) GatherFacts(_ context.Context) (map[string]DeviceFacts, error) {
	return LoadSnapshot(s.Path)
}

// FactCacheSource reads an ansible jsonfile fact cache, one file per host.
type FactCacheSource struct {
	Dir string
}

func (s *FactCacheSource) GatherFacts(_ context.Context) (map[string]DeviceFacts, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]DeviceFacts, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		df, err := ParseAnsible(raw)
		if err != nil {
			return nil, &MalformedFactsError{Hostname: entry.Name(), Reason: err.Error()}
		}
		if df.Hostname == "" {
			df.Hostname = entry.Name()
		}
		if _, dup := snapshot[df.Hostname]; dup {
			return nil, &MalformedFactsError{Hostname: df.Hostname, Reason: "reported by more than one inventory host"}
		}
		snapshot[df.Hostname] = df
		factsLog.Debug("host loaded", "host", df.Hostname, "file", entry.Name())
	}
	if err := Validate(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RunnerSource gathers facts by running a playbook through ansible-runner.
// Prerequisite, when set, is run once before the first gather.
type RunnerSource struct {
	Runner       *ansible.Runner
	Playbook     string
	Prerequisite string

	once sync.Once
	err  error
}

func (s *RunnerSource) GatherFacts(ctx context.Context) (map[string]DeviceFacts, error) {
	s.once.Do(func() {
		if s.Prerequisite == "" {
			return
		}
		factsLog.Info("running supplied playbook", "playbook", filepath.Base(s.Prerequisite))
		s.err = s.Runner.RunPlaybook(ctx, s.Prerequisite, "setup-"+uuid.NewString()[:8])
	})
	if s.err != nil {
		return nil, s.err
	}

	ident := "facts-" + uuid.NewString()[:8]
	if err := s.Runner.RunPlaybook(ctx, s.Playbook, ident); err != nil {
		return nil, err
	}
	factsLog.Debug("facts gathered", "ident", ident)
	cache := &FactCacheSource{Dir: s.Runner.FactCacheDir(ident)}
	return cache.GatherFacts(ctx)
}
