package graph

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/cache"
)

// CodeContext is get_code_context's response shape: a resolved target node
// plus its directly embedded relationships, resolved to full nodes where
// possible. Grounded on nodes_query_service.py's get_code_context,
// which likewise only resolves one hop of each relationship rather than
// traversing further — deeper exploration is left to the dedicated
// find_callers/find_callees/find_inheritance_chain tools.
type CodeContext struct {
	Found      bool    `json:"found"`
	Reason     string  `json:"reason,omitempty"`
	Target     *Node   `json:"target,omitempty"`
	Callers    []*Node `json:"callers"`
	Callees    []*Node `json:"callees"`
	Implements []*Node `json:"implements"`
	Inherits   []*Node `json:"inherits"`
	Uses       []*Node `json:"uses"`
	Members    []*Node `json:"members"`
}

const codeContextRelationLimit = 10

// GetCodeContext resolves className/methodName (optionally narrowed by
// namespace/project) to a single node via the search ranker, then attaches
// its direct relationships: inbound callers, outbound calls, implements,
// inherits, uses, and (for classes) members.
func (s *Service) GetCodeContext(ctx context.Context, version, className, methodName, namespace, project string, includeRelated bool) (*CodeContext, error) {
	searchQuery := className
	kind := string(KindClass)
	if methodName != "" {
		searchQuery = methodName
		kind = string(KindMethod)
	}

	result, err := s.Search(ctx, version, searchQuery, SearchOptions{
		Kind: kind, Project: project, Limit: 50, ExactFirst: true,
	})
	if err != nil {
		return nil, err
	}

	nodes := result.Nodes
	if namespace != "" && len(nodes) > 0 {
		if filtered := filterByNamespace(nodes, namespace); len(filtered) > 0 {
			nodes = filtered
		}
	}

	if len(nodes) == 0 {
		return &CodeContext{Found: false, Reason: "no node matching " + searchQuery + " in v" + version}, nil
	}

	target := nodes[0]
	cc := &CodeContext{
		Found: true, Target: target,
		Callers: []*Node{}, Callees: []*Node{}, Implements: []*Node{},
		Inherits: []*Node{}, Uses: []*Node{}, Members: []*Node{},
	}
	if !includeRelated {
		return cc, nil
	}

	coll, err := s.store.Resolve(ctx, version)
	if err != nil {
		return nil, err
	}

	callerDocs, err := s.store.Find(ctx, coll, bsonM("calls", target.ID), codeContextRelationLimit*2)
	if err != nil {
		return nil, err
	}
	if cc.Callers, err = decodeNodes(callerDocs); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode callers", err)
	}

	resolve := func(ids []string) ([]*Node, error) {
		capped := ids
		if len(capped) > codeContextRelationLimit {
			capped = capped[:codeContextRelationLimit]
		}
		byID, err := s.store.FetchByIDs(ctx, coll, capped)
		if err != nil {
			return nil, err
		}
		out := make([]*Node, 0, len(capped))
		for _, id := range capped {
			doc, ok := byID[id]
			if !ok {
				continue
			}
			n, err := decodeNode(doc)
			if err != nil {
				return nil, apperr.Wrap(apperr.Internal, "decode resolved relation", err)
			}
			out = append(out, n)
		}
		return out, nil
	}

	if cc.Callees, err = resolve(target.Calls); err != nil {
		return nil, err
	}
	if cc.Implements, err = resolve(target.Implements); err != nil {
		return nil, err
	}
	if cc.Inherits, err = resolve(target.Inherits); err != nil {
		return nil, err
	}
	if cc.Uses, err = resolve(target.Uses); err != nil {
		return nil, err
	}
	if target.Kind == KindClass {
		if cc.Members, err = resolve(target.HasMember); err != nil {
			return nil, err
		}
	}

	return cc, nil
}

func filterByNamespace(nodes []*Node, namespace string) []*Node {
	needle := strings.ToLower(namespace)
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if strings.Contains(strings.ToLower(n.Namespace), needle) {
			out = append(out, n)
		}
	}
	return out
}

// ListProjects returns the project-kind nodes in a version, optionally
// narrowed by a name substring. Backs the list_projects tool.
func (s *Service) ListProjects(ctx context.Context, version, query string, limit int64) ([]*Node, error) {
	if limit <= 0 {
		limit = 50
	}
	args := map[string]any{"query": query, "limit": limit}
	return cache.Wrap(ctx, s.cache, "list_projects", version, args, cache.DefaultTTL, func(ctx context.Context) ([]*Node, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}
		filter := bson.M{"kind": string(KindProject)}
		if query != "" {
			filter["$or"] = bson.A{
				bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
				bson.M{"fullName": bson.M{"$regex": query, "$options": "i"}},
			}
		}
		docs, err := s.store.Find(ctx, coll, filter, limit)
		if err != nil {
			return nil, err
		}
		return decodeNodes(docs)
	})
}

// ProjectDetail groups one project's members by kind. Backs the
// get_project_structure tool.
type ProjectDetail struct {
	Found   bool               `json:"found"`
	Reason  string             `json:"reason,omitempty"`
	Project string             `json:"project"`
	ByKind  map[string][]*Node `json:"byKind"`
	Count   int                `json:"count"`
}

// GetProjectStructure fetches every node belonging to project, optionally
// filtered by kind, and groups the result by kind.
func (s *Service) GetProjectStructure(ctx context.Context, version, project, kind string) (*ProjectDetail, error) {
	nodes, err := s.GetByProject(ctx, version, project, kind, 1000)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return &ProjectDetail{Found: false, Reason: "no nodes found for project " + project + " in v" + version, Project: project}, nil
	}
	byKind := map[string][]*Node{}
	for _, n := range nodes {
		byKind[string(n.Kind)] = append(byKind[string(n.Kind)], n)
	}
	return &ProjectDetail{Found: true, Project: project, ByKind: byKind, Count: len(nodes)}, nil
}

// ResolveNode finds the single best-matching node for a human-given name,
// used at the gateway boundary to translate tool arguments like className
// or interface_or_class into a concrete node id before traversal.
func (s *Service) ResolveNode(ctx context.Context, version, name, kind, namespace, project string) (*Node, error) {
	result, err := s.Search(ctx, version, name, SearchOptions{Kind: kind, Project: project, Limit: 50, ExactFirst: true})
	if err != nil {
		return nil, err
	}
	nodes := result.Nodes
	if namespace != "" && len(nodes) > 0 {
		if filtered := filterByNamespace(nodes, namespace); len(filtered) > 0 {
			nodes = filtered
		}
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}
