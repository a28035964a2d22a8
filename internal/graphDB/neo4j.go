package graphDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/David-Antunes/gone-analyzer/internal/analyzer"
	"github.com/David-Antunes/gone-analyzer/internal/graph"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
)

var graphDBLog = logger.New("graphDB")

type queryFunc func(ctx context.Context, cypher string, args map[string]any) (*neo4j.EagerResult, error)

// Store keeps the graphs of every exported session in neo4j.
type Store struct {
	sync.Mutex
	driver neo4j.DriverWithContext
	query  queryFunc
}

func StartConnection(ctx context.Context, uri string, user string, password string) (*Store, error) {
	// URI examples: "neo4j://localhost", "neo4j+s://xxx.databases.neo4j.io"
	auth := neo4j.NoAuth()
	if user != "" {
		auth = neo4j.BasicAuth(user, password, "")
	}
	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, errors.Join(err, driver.Close(ctx))
	}

	s := newStore(func(ctx context.Context, cypher string, args map[string]any) (*neo4j.EagerResult, error) {
		return neo4j.ExecuteQuery(ctx, driver, cypher, args, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase("neo4j"))
	})
	s.driver = driver
	if err := s.prepareDatabase(ctx); err != nil {
		return nil, errors.Join(err, driver.Close(ctx))
	}
	graphDBLog.Info("connected", "uri", uri)
	return s, nil
}

func newStore(query queryFunc) *Store {
	return &Store{query: query}
}

func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

func (s *Store) prepareDatabase(ctx context.Context) error {
	_, err := s.query(ctx,
		`CREATE CONSTRAINT uniq_device IF NOT EXISTS
		FOR (n:Device)
		REQUIRE (n.session, n.direction, n.id) IS UNIQUE`,
		map[string]any{})
	return err
}

// Export replaces the stored graphs of session with the current ones. Edges added
// or removed since the session started are flagged on the relationship.
func (s *Store) Export(ctx context.Context, session string, snap analyzer.Snapshot) error {
	s.Lock()
	defer s.Unlock()

	if _, err := s.query(ctx,
		`MATCH (n:Device {session: $session}) DETACH DELETE n`,
		map[string]any{"session": session}); err != nil {
		return fmt.Errorf("clear session %s: %w", session, err)
	}

	for _, dir := range []struct {
		name string
		snap analyzer.DirectionSnapshot
	}{{"forward", snap.Forward}, {"reverse", snap.Reverse}} {
		if err := s.exportDirection(ctx, session, dir.name, dir.snap); err != nil {
			return fmt.Errorf("export %s graph: %w", dir.name, err)
		}
	}
	graphDBLog.Debug("session exported", "session", session)
	return nil
}

func (s *Store) exportDirection(ctx context.Context, session string, direction string, snap analyzer.DirectionSnapshot) error {
	_, err := s.query(ctx,
		`UNWIND $nodes AS id
		CREATE (:Device {id: id, session: $session, direction: $direction})`,
		map[string]any{
			"nodes":     toAny(snap.Current.Nodes()),
			"session":   session,
			"direction": direction,
		})
	if err != nil {
		return err
	}

	added := make(map[[2]string]bool, len(snap.Added))
	for _, e := range snap.Added {
		added[[2]string{e.From, e.To}] = true
	}
	edges := make([]any, 0)
	for _, e := range snap.Current.Edges() {
		edges = append(edges, edgeRow(e, added[[2]string{e.From, e.To}], false))
	}
	for _, e := range snap.Removed {
		edges = append(edges, edgeRow(e, false, true))
	}

	_, err = s.query(ctx,
		`UNWIND $edges AS e
		MATCH (n:Device {id: e.from, session: $session, direction: $direction})
		MATCH (m:Device {id: e.to, session: $session, direction: $direction})
		CREATE (n)-[:ROUTES {color: e.color, weight: e.weight, style: e.style, added: e.added, removed: e.removed}]->(m)`,
		map[string]any{
			"edges":     edges,
			"session":   session,
			"direction": direction,
		})
	return err
}

func edgeRow(e graph.Edge, added bool, removed bool) map[string]any {
	return map[string]any{
		"from":    e.From,
		"to":      e.To,
		"color":   e.Attrs.Color,
		"weight":  e.Attrs.Weight,
		"style":   e.Attrs.Style,
		"added":   added,
		"removed": removed,
	}
}

// FindPath returns the stored route from -> to of a session direction, skipping removed edges.
func (s *Store) FindPath(ctx context.Context, session string, direction string, from string, to string) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	result, err := s.query(ctx,
		`MATCH (from:Device {id: $from, session: $session, direction: $direction}),
		(to:Device {id: $to, session: $session, direction: $direction}),
		path = shortestPath((from)-[:ROUTES*]->(to))
		WHERE all(r IN relationships(path) WHERE NOT r.removed)
		RETURN [n IN nodes(path) | n.id] AS path`,
		map[string]any{
			"from":      from,
			"to":        to,
			"session":   session,
			"direction": direction,
		})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return []string{}, nil
	}

	raw, ok := result.Records[0].AsMap()["path"].([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected path type %T", result.Records[0].AsMap()["path"])
	}
	path := make([]string, 0, len(raw))
	for _, node := range raw {
		id, ok := node.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected node id type %T", node)
		}
		path = append(path, id)
	}
	return path, nil
}

func toAny(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
