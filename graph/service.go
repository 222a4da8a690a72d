package graph

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/cache"
	"github.com/evalgo-org/grafo-query/store"
)

// Service is the Node Query Service: per-version reads over the
// document store, with every result run through the cache-aside adapter.
type Service struct {
	store *store.Client
	cache *cache.Client
	log   *logrus.Logger
}

// New wires a Service to its store and cache. cache may be nil, in which
// case every operation falls through to the store on every call.
func New(storeClient *store.Client, cacheClient *cache.Client, log *logrus.Logger) *Service {
	return &Service{store: storeClient, cache: cacheClient, log: log}
}

// SearchOptions carries Search's optional arguments. A negative Limit
// falls back to 50, mirroring the Python default; Limit 0 yields an empty
// result.
type SearchOptions struct {
	Kind            string
	Solution        string
	Project         string
	Limit           int64
	ExactFirst      bool
	ContainingClass string
	Layer           string
}

// SearchResult reports whether the query text was rewritten; any
// modification made to reach a match is reported back in the response.
type SearchResult struct {
	Nodes          []*Node `json:"nodes"`
	Query          string  `json:"query"`
	QueryModified  bool    `json:"queryModified"`
	EffectiveQuery string  `json:"effectiveQuery"`
	ExactMatch     bool    `json:"exactMatch"`
}

// Search implements the two-phase exact-then-partial ranker. A
// multi-word query is reduced to its first token before either phase runs.
func (s *Service) Search(ctx context.Context, version, query string, opts SearchOptions) (*SearchResult, error) {
	if opts.Limit < 0 {
		opts.Limit = 50
	}

	effectiveQuery := query
	modified := false
	if fields := strings.Fields(query); len(fields) > 1 {
		effectiveQuery = fields[0]
		modified = true
	}

	args := map[string]any{
		"query": effectiveQuery, "kind": opts.Kind, "solution": opts.Solution,
		"project": opts.Project, "limit": opts.Limit, "exactFirst": opts.ExactFirst,
		"containingClass": opts.ContainingClass, "layer": opts.Layer,
	}

	return cache.Wrap(ctx, s.cache, "search_nodes", version, args, cache.DefaultTTL, func(ctx context.Context) (*SearchResult, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}
		if opts.Limit == 0 {
			return &SearchResult{Nodes: []*Node{}, Query: query, QueryModified: modified, EffectiveQuery: effectiveQuery}, nil
		}

		base := baseFilters(opts.Kind, opts.Solution, opts.Project)

		exact := false
		var nodes []*Node
		if effectiveQuery != "" {
			filter := append(append(bson.A{}, base...), bson.M{"name": bson.M{"$regex": "^" + regexp.QuoteMeta(effectiveQuery) + "$", "$options": "i"}})
			docs, err := s.store.Find(ctx, coll, andFilter(filter), opts.Limit)
			if err != nil {
				return nil, err
			}
			nodes, err = decodeNodes(docs)
			if err != nil {
				return nil, apperr.Wrap(apperr.Internal, "decode search results", err)
			}
			exact = len(nodes) > 0
		}

		if !exact && opts.ExactFirst && effectiveQuery != "" {
			filter := append(append(bson.A{}, base...), bson.M{"$or": bson.A{
				bson.M{"name": bson.M{"$regex": effectiveQuery, "$options": "i"}},
				bson.M{"fullName": bson.M{"$regex": effectiveQuery, "$options": "i"}},
			}})
			docs, err := s.store.Find(ctx, coll, andFilter(filter), opts.Limit)
			if err != nil {
				return nil, err
			}
			nodes, err = decodeNodes(docs)
			if err != nil {
				return nil, apperr.Wrap(apperr.Internal, "decode search results", err)
			}
		}

		nodes = applyPostFilters(nodes, opts.ContainingClass, opts.Layer)

		return &SearchResult{
			Nodes: nodes, Query: query, QueryModified: modified,
			EffectiveQuery: effectiveQuery, ExactMatch: exact,
		}, nil
	})
}

func baseFilters(kind, solution, project string) bson.A {
	var conds bson.A
	if kind != "" {
		conds = append(conds, bson.M{"kind": strings.ToLower(kind)})
	}
	if solution != "" {
		conds = append(conds, bson.M{"solution": bson.M{"$regex": solution, "$options": "i"}})
	}
	if project != "" {
		conds = append(conds, bson.M{"project": bson.M{"$regex": project, "$options": "i"}})
	}
	return conds
}

func andFilter(conds bson.A) bson.M {
	if len(conds) == 0 {
		return bson.M{}
	}
	if len(conds) == 1 {
		if m, ok := conds[0].(bson.M); ok {
			return m
		}
	}
	return bson.M{"$and": conds}
}

// applyPostFilters narrows an already-fetched result set by containingClass
// and layer, Search's two optional post-filters.
func applyPostFilters(nodes []*Node, containingClassFilter, layer string) []*Node {
	if containingClassFilter == "" && layer == "" {
		return nodes
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if containingClassFilter != "" && !strings.EqualFold(containingClass(n.FullName), containingClassFilter) {
			continue
		}
		if layer != "" && !nodeMatchesLayer(n, layer) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func nodeMatchesLayer(n *Node, layer string) bool {
	if strings.EqualFold(n.Layer, layer) {
		return true
	}
	l := strings.ToLower(layer)
	return strings.Contains(strings.ToLower(n.Namespace), l) || strings.Contains(strings.ToLower(n.Project), l)
}

// GetByID returns a single node by exact _id, or nil if it doesn't exist.
func (s *Service) GetByID(ctx context.Context, version, id string) (*Node, error) {
	args := map[string]any{"id": id}
	return cache.Wrap(ctx, s.cache, "node_by_id", version, args, cache.DefaultTTL, func(ctx context.Context) (*Node, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}
		doc, err := s.store.GetByID(ctx, coll, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, nil
		}
		return decodeNode(doc)
	})
}

// GetByProject returns nodes whose project matches a case-insensitive
// substring, optionally filtered by kind.
func (s *Service) GetByProject(ctx context.Context, version, project, kind string, limit int64) ([]*Node, error) {
	if limit <= 0 {
		limit = 1000
	}
	args := map[string]any{"project": project, "kind": kind, "limit": limit}
	return cache.Wrap(ctx, s.cache, "nodes_by_project", version, args, cache.DefaultTTL, func(ctx context.Context) ([]*Node, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}
		filter := bson.M{"project": bson.M{"$regex": project, "$options": "i"}}
		if kind != "" {
			filter["kind"] = strings.ToLower(kind)
		}
		docs, err := s.store.Find(ctx, coll, filter, limit)
		if err != nil {
			return nil, err
		}
		return decodeNodes(docs)
	})
}

// GetBySolution returns nodes belonging exactly to a solution, grounded on
// get_nodes_by_solution.
func (s *Service) GetBySolution(ctx context.Context, version, solution, kind string, limit int64) ([]*Node, error) {
	if limit <= 0 {
		limit = 1000
	}
	args := map[string]any{"solution": solution, "kind": kind, "limit": limit}
	return cache.Wrap(ctx, s.cache, "nodes_by_solution", version, args, cache.DefaultTTL, func(ctx context.Context) ([]*Node, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}
		filter := bson.M{"solution": solution}
		if kind != "" {
			filter["kind"] = strings.ToLower(kind)
		}
		docs, err := s.store.Find(ctx, coll, filter, limit)
		if err != nil {
			return nil, err
		}
		return decodeNodes(docs)
	})
}

// ClassMembers groups a class's hasMember targets by kind.
type ClassMembers struct {
	Found      bool    `json:"found"`
	Reason     string  `json:"reason,omitempty"`
	Class      *Node   `json:"class,omitempty"`
	Members    []*Node `json:"members"`
	Methods    []*Node `json:"methods"`
	Properties []*Node `json:"properties"`
	Fields     []*Node `json:"fields"`
	Count      int     `json:"count"`
}

// GetClassMembers resolves a class's hasMember IDs in one batch and groups
// the result by kind.
func (s *Service) GetClassMembers(ctx context.Context, version, classID string, kinds []string) (*ClassMembers, error) {
	coll, err := s.store.Resolve(ctx, version)
	if err != nil {
		return nil, err
	}

	classDoc, err := s.store.GetByID(ctx, coll, classID)
	if err != nil {
		return nil, err
	}
	if classDoc == nil {
		return &ClassMembers{Found: false, Reason: "class " + classID + " not found"}, nil
	}
	class, err := decodeNode(classDoc)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode class node", err)
	}

	if len(class.HasMember) == 0 {
		return &ClassMembers{Found: true, Class: class, Members: []*Node{}}, nil
	}

	byID, err := s.store.FetchByIDs(ctx, coll, class.HasMember)
	if err != nil {
		return nil, err
	}

	allowed := map[string]bool{}
	for _, k := range kinds {
		allowed[strings.ToLower(k)] = true
	}

	var members, methods, properties, fields []*Node
	for _, id := range class.HasMember {
		doc, ok := byID[id]
		if !ok {
			continue
		}
		n, err := decodeNode(doc)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode member node", err)
		}
		if len(allowed) > 0 && !allowed[string(n.Kind)] {
			continue
		}
		members = append(members, n)
		switch n.Kind {
		case KindMethod:
			methods = append(methods, n)
		case KindProperty:
			properties = append(properties, n)
		case KindField:
			fields = append(fields, n)
		}
	}

	return &ClassMembers{
		Found: true, Class: class, Members: members,
		Methods: methods, Properties: properties, Fields: fields,
		Count: len(members),
	}, nil
}
