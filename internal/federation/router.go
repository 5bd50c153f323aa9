package federation

import (
	"container/list"
	"fmt"
	"sync"

	"bombe/internal/guards"
	"bombe/internal/logging"
	"bombe/internal/storage"
)

// DefaultMaxConnections is the router's default per-process cap on
// open shard connections.
const DefaultMaxConnections = 8

// Router is a connection pool over per-shard stores, LRU-evicting the
// least recently used connection once maxConnections is exceeded.
type Router struct {
	mu             sync.Mutex
	catalog        *Catalog
	logger         *logging.Logger
	maxConnections int
	order          *list.List // front = most recently used
	elements       map[string]*list.Element
	conns          map[string]*storage.DB
}

type routerEntry struct {
	repoID string
}

func NewRouter(catalog *Catalog, maxConnections int, logger *logging.Logger) *Router {
	if maxConnections <= 0 {
		maxConnections = DefaultMaxConnections
	}
	return &Router{
		catalog:        catalog,
		logger:         logger,
		maxConnections: maxConnections,
		order:          list.New(),
		elements:       make(map[string]*list.Element),
		conns:          make(map[string]*storage.DB),
	}
}

// Connection returns an open store for shard, opening and pooling it
// if not already connected, and evicting the least recently used
// connection if the pool is full.
func (r *Router) Connection(shard Shard) (*storage.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.elements[shard.RepoID]; ok {
		r.order.MoveToFront(el)
		return r.conns[shard.RepoID], nil
	}

	db, err := storage.Open(shard.DBPath, r.logger)
	if err != nil {
		return nil, fmt.Errorf("federation: open shard %s: %w", shard.RepoID, err)
	}

	el := r.order.PushFront(routerEntry{repoID: shard.RepoID})
	r.elements[shard.RepoID] = el
	r.conns[shard.RepoID] = db

	for r.order.Len() > r.maxConnections {
		back := r.order.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(routerEntry).repoID
		if evicted == shard.RepoID {
			break
		}
		if conn, ok := r.conns[evicted]; ok {
			conn.Close()
		}
		delete(r.conns, evicted)
		delete(r.elements, evicted)
		r.order.Remove(back)
	}

	return db, nil
}

// Close closes every pooled connection.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, conn := range r.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.conns = make(map[string]*storage.DB)
	r.elements = make(map[string]*list.Element)
	r.order = list.New()
	return firstErr
}

// RouteSymbolQuery returns shard repo_ids whose exported symbols
// match name, capped at MAX_SHARDS_PER_QUERY. When nothing matches,
// it falls back to every enabled shard.
func (r *Router) RouteSymbolQuery(name string) ([]string, error) {
	hits, err := r.catalog.SymbolsByName(name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var repoIDs []string
	for _, h := range hits {
		if seen[h.RepoID] {
			continue
		}
		seen[h.RepoID] = true
		repoIDs = append(repoIDs, h.RepoID)
		if len(repoIDs) >= guards.MaxShardsPerQuery {
			break
		}
	}

	if len(repoIDs) > 0 {
		return repoIDs, nil
	}

	enabled, err := r.catalog.EnabledShards()
	if err != nil {
		return nil, err
	}
	var fallback []string
	for _, s := range enabled {
		fallback = append(fallback, s.RepoID)
	}
	return fallback, nil
}

// RouteReferenceQuery unions the source repo, every repo whose
// exported symbols match name by symbol routing, and every repo
// connected to (sourceRepoID, qualifiedName) via a cross-repo edge in
// either direction.
func (r *Router) RouteReferenceQuery(sourceRepoID, name, qualifiedName string) ([]string, error) {
	seen := map[string]bool{sourceRepoID: true}
	repoIDs := []string{sourceRepoID}

	symbolRouted, err := r.RouteSymbolQuery(name)
	if err != nil {
		return nil, err
	}
	for _, id := range symbolRouted {
		if !seen[id] {
			seen[id] = true
			repoIDs = append(repoIDs, id)
		}
	}

	edges, err := r.catalog.CrossRepoEdgesForSymbol(sourceRepoID, qualifiedName)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		for _, id := range []string{e.SourceRepoID, e.TargetRepoID} {
			if !seen[id] {
				seen[id] = true
				repoIDs = append(repoIDs, id)
			}
		}
	}

	return repoIDs, nil
}
