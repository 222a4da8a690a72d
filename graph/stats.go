package graph

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/cache"
)

// Statistics summarizes a version's collection.
type Statistics struct {
	Version        string           `json:"version"`
	TotalNodes     int64            `json:"totalNodes"`
	TotalProjects  int64            `json:"totalProjects"`
	TotalSolutions int64            `json:"totalSolutions"`
	NodesByKind    map[string]int64 `json:"nodesByKind"`
}

// Statistics returns totals by kind and distinct project/solution counts.
func (s *Service) Statistics(ctx context.Context, version string) (*Statistics, error) {
	return cache.Wrap(ctx, s.cache, "statistics", version, nil, cache.DefaultTTL, func(ctx context.Context) (*Statistics, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		total, err := s.store.Count(ctx, coll, bson.M{})
		if err != nil {
			return nil, err
		}

		byKind, err := groupCounts(ctx, s, coll, "kind")
		if err != nil {
			return nil, err
		}
		projects, err := distinctCount(ctx, s, coll, "project")
		if err != nil {
			return nil, err
		}
		solutions, err := distinctCount(ctx, s, coll, "solution")
		if err != nil {
			return nil, err
		}

		return &Statistics{
			Version: version, TotalNodes: total,
			TotalProjects: projects, TotalSolutions: solutions, NodesByKind: byKind,
		}, nil
	})
}

// groupCounts runs a $group/$sum aggregation over field and returns a
// value -> count map, skipping empty/absent values.
func groupCounts(ctx context.Context, s *Service, coll *mongo.Collection, field string) (map[string]int64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{field: bson.M{"$nin": bson.A{"", nil}}}},
		bson.M{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
	}
	docs, err := s.store.Aggregate(ctx, coll, pipeline)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(docs))
	for _, d := range docs {
		key, _ := d["_id"].(string)
		out[key] = toInt64(d["count"])
	}
	return out, nil
}

// distinctCount counts the number of distinct non-empty values of field.
func distinctCount(ctx context.Context, s *Service, coll *mongo.Collection, field string) (int64, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{field: bson.M{"$nin": bson.A{"", nil}}}},
		bson.M{"$group": bson.M{"_id": "$" + field}},
		bson.M{"$count": "total"},
	}
	docs, err := s.store.Aggregate(ctx, coll, pipeline)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	return toInt64(docs[0]["total"]), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// SemanticStats reports edge counts by relationship kind plus class/
// interface totals, computed by projecting array sizes and summing.
// classCount/interfaceCount ride alongside the per-relationship totals.
type SemanticStats struct {
	Version        string `json:"version"`
	Calls          int64  `json:"calls"`
	CallsVia       int64  `json:"callsVia"`
	Implements     int64  `json:"implements"`
	Inherits       int64  `json:"inherits"`
	Uses           int64  `json:"uses"`
	Contains       int64  `json:"contains"`
	ClassCount     int64  `json:"classCount"`
	InterfaceCount int64  `json:"interfaceCount"`
}

// SemanticStats sums the size of every relationship array across the
// version's collection via a single aggregation pipeline.
func (s *Service) SemanticStats(ctx context.Context, version string) (*SemanticStats, error) {
	return cache.Wrap(ctx, s.cache, "semantic_stats", version, nil, cache.DefaultTTL, func(ctx context.Context) (*SemanticStats, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		pipeline := bson.A{
			bson.M{"$group": bson.M{
				"_id":        nil,
				"calls":      bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$calls", bson.A{}}}}},
				"callsVia":   bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$callsVia", bson.A{}}}}},
				"implements": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$implements", bson.A{}}}}},
				"inherits":   bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$inherits", bson.A{}}}}},
				"uses":       bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$uses", bson.A{}}}}},
				"contains":   bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$contains", bson.A{}}}}},
			}},
		}
		docs, err := s.store.Aggregate(ctx, coll, pipeline)
		if err != nil {
			return nil, err
		}

		stats := &SemanticStats{Version: version}
		if len(docs) > 0 {
			d := docs[0]
			stats.Calls = toInt64(d["calls"])
			stats.CallsVia = toInt64(d["callsVia"])
			stats.Implements = toInt64(d["implements"])
			stats.Inherits = toInt64(d["inherits"])
			stats.Uses = toInt64(d["uses"])
			stats.Contains = toInt64(d["contains"])
		}

		classCount, err := s.store.Count(ctx, coll, bson.M{"kind": string(KindClass)})
		if err != nil {
			return nil, err
		}
		ifaceCount, err := s.store.Count(ctx, coll, bson.M{"kind": string(KindInterface)})
		if err != nil {
			return nil, err
		}
		stats.ClassCount = classCount
		stats.InterfaceCount = ifaceCount

		return stats, nil
	})
}

// GetNodesBySolution returns nodes belonging to a solution, optionally
// filtered by kind.
func (s *Service) GetNodesBySolution(ctx context.Context, version, solution, kind string, limit int64) ([]*Node, error) {
	return s.GetBySolution(ctx, version, solution, kind, limit)
}

// ProjectsByLayer groups a version's distinct projects by their (best-effort)
// layer classification; backs the get_project_structure tool's project
// catalog.
type ProjectsByLayer struct {
	Version string              `json:"version"`
	Layers  map[string][]string `json:"layers"`
}

// GetProjectsByLayer groups known projects by layer.
func (s *Service) GetProjectsByLayer(ctx context.Context, version string) (*ProjectsByLayer, error) {
	return cache.Wrap(ctx, s.cache, "projects_by_layer", version, nil, cache.DefaultTTL, func(ctx context.Context) (*ProjectsByLayer, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		pipeline := bson.A{
			bson.M{"$match": bson.M{"project": bson.M{"$nin": bson.A{"", nil}}}},
			bson.M{"$group": bson.M{"_id": bson.M{"project": "$project", "layer": "$layer"}}},
		}
		docs, err := s.store.Aggregate(ctx, coll, pipeline)
		if err != nil {
			return nil, err
		}

		layers := map[string][]string{}
		for _, d := range docs {
			group, _ := d["_id"].(bson.M)
			project, _ := group["project"].(string)
			layer, _ := group["layer"].(string)
			if layer == "" {
				layer = inferLayer(project, "")
			}
			if layer == "" {
				layer = "unknown"
			}
			layers[layer] = append(layers[layer], project)
		}

		return &ProjectsByLayer{Version: version, Layers: layers}, nil
	})
}

// SolutionDependency is a cross-project edge aggregated at solution
// granularity.
type SolutionDependency struct {
	FromProject string `json:"fromProject"`
	ToProject   string `json:"toProject"`
	EdgeCount   int64  `json:"edgeCount"`
}

// GetSolutionDependencies aggregates cross-project `uses`/`calls` edges at
// the solution granularity, describing inter-project coupling for
// get_project_structure.
func (s *Service) GetSolutionDependencies(ctx context.Context, version, solution string) ([]SolutionDependency, error) {
	args := map[string]any{"solution": solution}
	return cache.Wrap(ctx, s.cache, "solution_dependencies", version, args, cache.DefaultTTL, func(ctx context.Context) ([]SolutionDependency, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		filter := bson.M{}
		if solution != "" {
			filter["solution"] = solution
		}
		docs, err := s.store.Find(ctx, coll, filter, 0)
		if err != nil {
			return nil, err
		}
		nodes, err := decodeNodes(docs)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode solution nodes", err)
		}

		byID := make(map[string]*Node, len(nodes))
		for _, n := range nodes {
			byID[n.ID] = n
		}

		counts := map[[2]string]int64{}
		for _, n := range nodes {
			targets := append(append([]string{}, n.Uses...), n.Calls...)
			for _, t := range targets {
				target, ok := byID[t]
				if !ok || target.Project == "" || n.Project == "" || target.Project == n.Project {
					continue
				}
				counts[[2]string{n.Project, target.Project}]++
			}
		}

		out := make([]SolutionDependency, 0, len(counts))
		for k, c := range counts {
			out = append(out, SolutionDependency{FromProject: k[0], ToProject: k[1], EdgeCount: c})
		}
		return out, nil
	})
}
