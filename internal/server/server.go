package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/net/netutil"

	"github.com/David-Antunes/gone-analyzer/internal/analyzer"
	"github.com/David-Antunes/gone-analyzer/internal/graphDB"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
	"github.com/David-Antunes/gone-analyzer/internal/metrics"
)

var daemonLog = logger.New("server")

type Daemon struct {
	httpServer *http.Server
	socket     net.Listener
	engine     *analyzer.Engine
	store      *graphDB.Store

	sessions *expirable.LRU[string, *analyzer.Session]

	// one remediation at a time, devices are shared by every session
	remediating sync.Mutex
}

const (
	DefaultMaxSessions = 256
	DefaultSessionTTL  = time.Hour
)

// CreateDaemon binds ipAddr. maxConnections <= 0 leaves the listener unbounded.
// store may be nil when no graph database is configured. The oldest sessions are
// dropped past maxSessions, and any session is dropped sessionTTL after its last use.
func CreateDaemon(engine *analyzer.Engine, store *graphDB.Store, ipAddr string, maxConnections int, maxSessions int, sessionTTL time.Duration) (*Daemon, error) {
	socket, err := net.Listen("tcp", ipAddr)
	if err != nil {
		return nil, err
	}
	if maxConnections > 0 {
		socket = netutil.LimitListener(socket, maxConnections)
	}

	d := newDaemon(engine, store, maxSessions, sessionTTL)
	d.socket = socket
	d.httpServer = &http.Server{
		Handler: d.Handler(),
	}
	return d, nil
}

func newDaemon(engine *analyzer.Engine, store *graphDB.Store, maxSessions int, sessionTTL time.Duration) *Daemon {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	sessions := expirable.NewLRU[string, *analyzer.Session](maxSessions, func(id string, _ *analyzer.Session) {
		daemonLog.Debug("session dropped", "session", id)
	}, sessionTTL)
	return &Daemon{
		engine:   engine,
		store:    store,
		sessions: sessions,
	}
}

func (d *Daemon) Handler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/ping", ping)

	m.HandleFunc("/diagnose", d.diagnose)
	m.HandleFunc("/remediate", d.remediate)
	m.HandleFunc("/graph", d.graph)

	m.Handle("/metrics", metrics.Handler())
	return m
}

func (d *Daemon) Addr() net.Addr {
	return d.socket.Addr()
}

func (d *Daemon) Serve() error {
	daemonLog.Info("serving", "addr", d.socket.Addr().String())
	if err := d.httpServer.Serve(d.socket); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (d *Daemon) Shutdown(ctx context.Context) error {
	return d.httpServer.Shutdown(ctx)
}

func (d *Daemon) session(id string) (*analyzer.Session, bool) {
	s, ok := d.sessions.Get(id)
	if ok {
		// refresh the expiry of a session still in use
		d.sessions.Add(id, s)
	}
	return s, ok
}

func (d *Daemon) keep(s *analyzer.Session) {
	d.sessions.Add(s.ID, s)
}

func ping(w http.ResponseWriter, r *http.Request) {
	return
}
