package executor

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/David-Antunes/gone-analyzer/internal/ansible"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var executorLog = logger.New("executor")

// Runner applies changes by running the ansible role bound to each kind.
type Runner struct {
	runner *ansible.Runner
	roles  map[Kind]string
}

func NewRunner(runner *ansible.Runner, interfaceRole string, routeRole string) *Runner {
	return &Runner{
		runner: runner,
		roles: map[Kind]string{
			EnableInterfaces: interfaceRole,
			StaticRoutes:     routeRole,
		},
	}
}

func (r *Runner) Run(ctx context.Context, c Change) error {
	role, ok := r.roles[c.Kind]
	if !ok || role == "" {
		return &CommandExecutionError{Kind: c.Kind, Hosts: c.Hosts, Err: errors.New("no role configured")}
	}
	ident := "change-" + uuid.NewString()[:8]
	executorLog.Info("applying change", "role", filepath.Base(role), "hosts", c.Hosts, "ident", ident)
	if err := r.runner.RunRole(ctx, role, c.Hosts, c.Vars(), ident); err != nil {
		return &CommandExecutionError{Kind: c.Kind, Hosts: c.Hosts, Err: err}
	}
	return nil
}

// Paced spaces successive changes so devices get time to converge.
type Paced struct {
	next    Executor
	limiter *rate.Limiter
}

func NewPaced(next Executor, limit rate.Limit) *Paced {
	return &Paced{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (p *Paced) Run(ctx context.Context, c Change) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return &CommandExecutionError{Kind: c.Kind, Hosts: c.Hosts, Err: err}
	}
	return p.next.Run(ctx, c)
}
