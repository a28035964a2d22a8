package ansible

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var runnerLog = logger.New("ansible")

// CommandFunc runs an external program and returns its combined output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Runner drives ansible-runner against a private data directory.
type Runner struct {
	binary  string
	dataDir string
	command CommandFunc
}

func NewRunner(binary string, dataDir string) *Runner {
	if binary == "" {
		binary = "ansible-runner"
	}
	return &Runner{
		binary:  binary,
		dataDir: dataDir,
		command: execCommand,
	}
}

// WithCommand replaces the process launcher.
func (r *Runner) WithCommand(cmd CommandFunc) *Runner {
	r.command = cmd
	return r
}

func (r *Runner) DataDir() string {
	return r.dataDir
}

// FactCacheDir is where ansible-runner stores the fact cache of a run.
func (r *Runner) FactCacheDir(ident string) string {
	return filepath.Join(r.dataDir, "artifacts", ident, "fact_cache")
}

func (r *Runner) RunPlaybook(ctx context.Context, playbook string, ident string) error {
	args := []string{"run", r.dataDir, "-p", playbook, "--ident", ident}
	runnerLog.Info("running playbook", "playbook", filepath.Base(playbook), "data_dir", filepath.Base(r.dataDir))
	return r.run(ctx, args)
}

// RunRole applies a role to hosts with vars passed as extra vars.
func (r *Runner) RunRole(ctx context.Context, role string, hosts []string, vars map[string]any, ident string) error {
	varsFile, err := writeVars(vars)
	if err != nil {
		return err
	}
	defer os.Remove(varsFile)

	args := []string{
		"run", r.dataDir,
		"-r", role,
		"--hosts", strings.Join(hosts, ","),
		"--role-skip-facts",
		"--ident", ident,
		"--cmdline", "-e @" + varsFile,
	}
	runnerLog.Info("running role", "role", filepath.Base(role), "hosts", hosts)
	return r.run(ctx, args)
}

func (r *Runner) run(ctx context.Context, args []string) error {
	out, err := r.command(ctx, r.binary, args...)
	if err != nil {
		runnerLog.Debug("ansible-runner output", "output", string(out))
		return fmt.Errorf("%s %s: %w", r.binary, args[0], err)
	}
	runnerLog.Debug("ansible-runner finished", "output", string(out))
	return nil
}

func writeVars(vars map[string]any) (string, error) {
	f, err := os.CreateTemp("", "analyzer-vars-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(vars); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
