package federation

import (
	"context"
	"errors"
	"testing"
	"time"

	"bombe/internal/storage"
)

func TestExecuteIsolatesShardFailures(t *testing.T) {
	c := newTestCatalog(t)
	mustRegister(t, c, "repo-ok")
	mustRegister(t, c, "repo-fail")

	shards := map[string]Shard{}
	for _, s := range mustList(t, c) {
		shards[s.RepoID] = s
	}
	for repoID, shard := range shards {
		shard.DBPath = newTestShardDB(t)
		shards[repoID] = shard
	}

	plan := &ShardQueryPlan{ShardIDs: []string{"repo-ok", "repo-fail"}, FanOutStrategy: FanOutParallel, MergeStrategy: MergeConcat}
	router := NewRouter(c, 8, nil)

	result := Execute(context.Background(), router, plan, shards, time.Second, func(ctx context.Context, db *storage.DB) (int, interface{}, error) {
		return 0, nil, nil
	})

	if result.ShardsQueried != 2 {
		t.Fatalf("expected 2 shards queried, got %d", result.ShardsQueried)
	}

	plan2 := &ShardQueryPlan{ShardIDs: []string{"repo-ok", "repo-fail"}}
	result2 := Execute(context.Background(), router, plan2, shards, time.Second, func(ctx context.Context, db *storage.DB) (int, interface{}, error) {
		return 0, nil, errors.New("boom")
	})
	if result2.ShardsFailed != 2 {
		t.Fatalf("expected both shards to report failure, got %d", result2.ShardsFailed)
	}
}

func TestExecuteAggregatesMatches(t *testing.T) {
	c := newTestCatalog(t)
	mustRegister(t, c, "repo-a")
	shards := map[string]Shard{}
	for _, s := range mustList(t, c) {
		s.DBPath = newTestShardDB(t)
		shards[s.RepoID] = s
	}

	router := NewRouter(c, 8, nil)
	plan := &ShardQueryPlan{ShardIDs: []string{"repo-a"}}
	result := Execute(context.Background(), router, plan, shards, time.Second, func(ctx context.Context, db *storage.DB) (int, interface{}, error) {
		return 5, "ok", nil
	})
	if result.TotalMatches != 5 || result.ShardsFailed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func mustList(t *testing.T, c *Catalog) []Shard {
	t.Helper()
	shards, err := c.ListShards()
	if err != nil {
		t.Fatalf("list shards: %v", err)
	}
	return shards
}
