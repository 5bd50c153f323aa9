package federation

import (
	"fmt"

	"bombe/internal/logging"
	"bombe/internal/paths"
)

// Federation is a named group of shards: its persisted shard list
// (Config), the catalog mirroring their exported symbols and
// cross-repo edges, and a connection router over their stores.
type Federation struct {
	config  *Config
	catalog *Catalog
	router  *Router
	logger  *logging.Logger
}

// Open opens an existing federation by name.
func Open(name string, logger *logging.Logger) (*Federation, error) {
	exists, err := paths.FederationExists(name)
	if err != nil {
		return nil, fmt.Errorf("federation: check existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("federation %q does not exist", name)
	}

	config, err := LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("federation: load config: %w", err)
	}

	catalogPath, err := paths.FederationCatalogPath(name)
	if err != nil {
		return nil, fmt.Errorf("federation: resolve catalog path: %w", err)
	}
	catalog, err := OpenCatalog(catalogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("federation: open catalog: %w", err)
	}

	return &Federation{
		config:  config,
		catalog: catalog,
		router:  NewRouter(catalog, DefaultMaxConnections, logger),
		logger:  logger,
	}, nil
}

// Create creates a new federation.
func Create(name, description string, logger *logging.Logger) (*Federation, error) {
	exists, err := paths.FederationExists(name)
	if err != nil {
		return nil, fmt.Errorf("federation: check existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("federation %q already exists", name)
	}

	config := NewConfig(name, description)
	if err := config.Save(); err != nil {
		return nil, fmt.Errorf("federation: save config: %w", err)
	}

	catalogPath, err := paths.FederationCatalogPath(name)
	if err != nil {
		_ = config.Delete()
		return nil, fmt.Errorf("federation: resolve catalog path: %w", err)
	}
	catalog, err := OpenCatalog(catalogPath, logger)
	if err != nil {
		_ = config.Delete()
		return nil, fmt.Errorf("federation: open catalog: %w", err)
	}

	if logger != nil {
		logger.Info("created federation", logging.Fields{"name": name})
	}

	return &Federation{
		config:  config,
		catalog: catalog,
		router:  NewRouter(catalog, DefaultMaxConnections, logger),
		logger:  logger,
	}, nil
}

func (f *Federation) Close() error {
	_ = f.router.Close()
	return f.catalog.Close()
}

func (f *Federation) Name() string        { return f.config.Name }
func (f *Federation) Description() string { return f.config.Description }
func (f *Federation) Config() *Config     { return f.config }
func (f *Federation) Catalog() *Catalog   { return f.catalog }
func (f *Federation) Router() *Router     { return f.router }

// AddShard registers a repository in both the persisted config and
// the catalog.
func (f *Federation) AddShard(repoID, repoPath, dbPath string, tags []string) (*ShardEntry, error) {
	entry, err := f.config.AddShard(repoID, repoPath, tags)
	if err != nil {
		return nil, err
	}
	if err := f.config.Save(); err != nil {
		return nil, fmt.Errorf("federation: save config: %w", err)
	}
	if err := f.catalog.RegisterShard(repoID, repoPath, dbPath); err != nil {
		return nil, fmt.Errorf("federation: register shard in catalog: %w", err)
	}

	if f.logger != nil {
		f.logger.Info("added shard to federation", logging.Fields{
			"federation": f.config.Name, "repo_id": repoID, "path": repoPath,
		})
	}
	return entry, nil
}

// RemoveShard unregisters a repository from both the config and the
// catalog.
func (f *Federation) RemoveShard(repoID string) error {
	entry := f.config.GetShard(repoID)
	if entry == nil {
		return fmt.Errorf("shard %q not found", repoID)
	}
	if err := f.catalog.UnregisterShard(repoID); err != nil {
		return fmt.Errorf("federation: unregister shard in catalog: %w", err)
	}
	if err := f.config.RemoveShard(repoID); err != nil {
		return err
	}
	if err := f.config.Save(); err != nil {
		return fmt.Errorf("federation: save config: %w", err)
	}

	if f.logger != nil {
		f.logger.Info("removed shard from federation", logging.Fields{
			"federation": f.config.Name, "repo_id": repoID,
		})
	}
	return nil
}

func (f *Federation) ListShards() ([]Shard, error) { return f.catalog.ListShards() }

// Delete removes the federation's config, catalog, and shard index.
func (f *Federation) Delete() error {
	if err := f.Close(); err != nil {
		return fmt.Errorf("federation: close: %w", err)
	}
	if err := f.config.Delete(); err != nil {
		return fmt.Errorf("federation: delete: %w", err)
	}
	if f.logger != nil {
		f.logger.Info("deleted federation", logging.Fields{"name": f.config.Name})
	}
	return nil
}

// List returns the names of every existing federation.
func List() ([]string, error) { return paths.ListFederations() }

// Exists checks whether a federation exists.
func Exists(name string) (bool, error) { return paths.FederationExists(name) }
