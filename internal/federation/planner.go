package federation

import "bombe/internal/guards"

// ShardQueryPlan describes how a federated query fans out: which
// shards to hit, which cross-repo edges justify following a result
// into another shard, and how results combine.
type ShardQueryPlan struct {
	ShardIDs       []string
	CrossRepoEdges []CrossRepoEdge
	FanOutStrategy string
	MergeStrategy  string
}

const (
	FanOutParallel = "parallel"
	MergeConcat    = "concat"
)

// BuildPlan caps shardIDs at MAX_SHARDS_PER_QUERY and attaches the
// cross-repo edges (capped at MAX_CROSS_REPO_EDGES_PER_QUERY) relevant
// to qualifiedName in sourceRepoID, if given.
func BuildPlan(catalog *Catalog, shardIDs []string, sourceRepoID, qualifiedName string) (*ShardQueryPlan, error) {
	capped := shardIDs
	if len(capped) > guards.MaxShardsPerQuery {
		capped = capped[:guards.MaxShardsPerQuery]
	}

	var edges []CrossRepoEdge
	if sourceRepoID != "" && qualifiedName != "" {
		found, err := catalog.CrossRepoEdgesForSymbol(sourceRepoID, qualifiedName)
		if err != nil {
			return nil, err
		}
		if len(found) > guards.MaxCrossRepoEdgesPerQuery {
			found = found[:guards.MaxCrossRepoEdgesPerQuery]
		}
		edges = found
	}

	return &ShardQueryPlan{
		ShardIDs:       capped,
		CrossRepoEdges: edges,
		FanOutStrategy: FanOutParallel,
		MergeStrategy:  MergeConcat,
	}, nil
}
