package federation

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"bombe/internal/paths"
)

// Config is a named federation's persisted shard list, round-tripped
// through federation.toml.
type Config struct {
	Name        string       `toml:"name"`
	Description string       `toml:"description,omitempty"`
	CreatedAt   time.Time    `toml:"created_at"`
	UpdatedAt   time.Time    `toml:"updated_at"`
	Shards      []ShardEntry `toml:"shards"`
}

// ShardEntry is one repository's persisted federation membership.
type ShardEntry struct {
	RepoUID string    `toml:"repo_uid"`
	RepoID  string    `toml:"repo_id"`
	Path    string    `toml:"path"`
	Tags    []string  `toml:"tags,omitempty"`
	AddedAt time.Time `toml:"added_at"`
}

func NewConfig(name, description string) *Config {
	now := time.Now().UTC()
	return &Config{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
}

// AddShard registers a repository under this federation's config,
// issuing it an immutable repo_uid distinct from the content-derived
// repo_id used to key catalog rows.
func (c *Config) AddShard(repoID, path string, tags []string) (*ShardEntry, error) {
	for _, s := range c.Shards {
		if s.RepoID == repoID {
			return nil, fmt.Errorf("shard with repo_id %q already exists", repoID)
		}
		if s.Path == path {
			return nil, fmt.Errorf("shard at path %q already exists (as %q)", path, s.RepoID)
		}
	}

	entry := ShardEntry{RepoUID: uuid.New().String(), RepoID: repoID, Path: path, Tags: tags, AddedAt: time.Now().UTC()}
	c.Shards = append(c.Shards, entry)
	c.UpdatedAt = time.Now().UTC()
	return &entry, nil
}

func (c *Config) RemoveShard(repoID string) error {
	for i, s := range c.Shards {
		if s.RepoID == repoID {
			c.Shards = append(c.Shards[:i], c.Shards[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("shard %q not found", repoID)
}

// RenameShard changes a shard's repo_id alias in the config. The
// repo_uid, and the catalog row keyed by repo_id, are unaffected by
// this call; callers that rename a shard must re-register it with the
// catalog under the new id themselves.
func (c *Config) RenameShard(oldID, newID string) error {
	for _, s := range c.Shards {
		if s.RepoID == newID {
			return fmt.Errorf("shard with repo_id %q already exists", newID)
		}
	}
	for i, s := range c.Shards {
		if s.RepoID == oldID {
			c.Shards[i].RepoID = newID
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("shard %q not found", oldID)
}

func (c *Config) GetShard(repoID string) *ShardEntry {
	for i := range c.Shards {
		if c.Shards[i].RepoID == repoID {
			return &c.Shards[i]
		}
	}
	return nil
}

func (c *Config) GetShardByUID(repoUID string) *ShardEntry {
	for i := range c.Shards {
		if c.Shards[i].RepoUID == repoUID {
			return &c.Shards[i]
		}
	}
	return nil
}

// LoadConfig loads a named federation's configuration from disk.
func LoadConfig(name string) (*Config, error) {
	configPath, err := paths.FederationConfigPath(name)
	if err != nil {
		return nil, fmt.Errorf("federation: resolve config path: %w", err)
	}
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("federation: parse config: %w", err)
	}
	return &config, nil
}

// Save writes the federation configuration to disk, creating the
// federation directory if needed.
func (c *Config) Save() error {
	if _, err := paths.EnsureFederationDir(c.Name); err != nil {
		return fmt.Errorf("federation: create federation dir: %w", err)
	}
	configPath, err := paths.FederationConfigPath(c.Name)
	if err != nil {
		return fmt.Errorf("federation: resolve config path: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("federation: create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("federation: encode config: %w", err)
	}
	return nil
}

// Delete removes the federation's configuration and catalog.
func (c *Config) Delete() error {
	return paths.DeleteFederationDir(c.Name)
}
