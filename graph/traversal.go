package graph

import (
	"context"
	"sort"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/cache"
)

// DepthNode pairs a node with the hop count at which a traversal found it.
type DepthNode struct {
	Node  *Node `json:"node"`
	Depth int   `json:"depth"`
}

func depthNodes(docsWithDepth []*Node, depths []int) []DepthNode {
	out := make([]DepthNode, len(docsWithDepth))
	for i, n := range docsWithDepth {
		out[i] = DepthNode{Node: n, Depth: depths[i]}
	}
	return out
}

// CallersResult is FindCallers' response shape.
type CallersResult struct {
	Found           bool        `json:"found"`
	Reason          string      `json:"reason,omitempty"`
	Target          *Node       `json:"target,omitempty"`
	Callers         []DepthNode `json:"callers"`
	IndirectCallers []DepthNode `json:"indirectCallers"`
	TotalCallers    int         `json:"totalCallers"`
}

// FindCallers walks the `calls` edge in reverse (who calls target), then
// the `indirectCall` edge in reverse if requested.
func (s *Service) FindCallers(ctx context.Context, version, targetID string, maxDepth int, includeIndirect bool) (*CallersResult, error) {
	if maxDepth < 0 {
		maxDepth = 3
	}
	if maxDepth > 10 {
		maxDepth = 10
	}

	args := map[string]any{"targetId": targetID, "maxDepth": maxDepth, "includeIndirect": includeIndirect}
	return cache.Wrap(ctx, s.cache, "find_callers", version, args, cache.DefaultTTL, func(ctx context.Context) (*CallersResult, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		target, err := s.GetByID(ctx, version, targetID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return &CallersResult{Found: false, Reason: "node " + targetID + " not found in v" + version}, nil
		}
		if maxDepth == 0 {
			return &CallersResult{Found: true, Target: target, Callers: []DepthNode{}, IndirectCallers: []DepthNode{}}, nil
		}

		docs, err := s.store.GraphLookup(ctx, coll, targetID, "_id", "_id", "calls", maxDepth-1)
		if err != nil {
			return nil, err
		}
		callers, depths, err := decodeWithDepth(docs)
		if err != nil {
			return nil, err
		}

		var indirect []DepthNode
		if includeIndirect {
			idocs, err := s.store.GraphLookup(ctx, coll, targetID, "_id", "_id", "indirectCall", maxDepth-1)
			if err != nil {
				return nil, err
			}
			indirectNodes, indirectDepths, err := decodeWithDepth(idocs)
			if err != nil {
				return nil, err
			}
			indirect = depthNodes(indirectNodes, indirectDepths)
		}

		result := depthNodes(callers, depths)
		return &CallersResult{
			Found: true, Target: target, Callers: result,
			IndirectCallers: indirect, TotalCallers: len(result) + len(indirect),
		}, nil
	})
}

// CalleesResult is FindCallees' response shape.
type CalleesResult struct {
	Found        bool        `json:"found"`
	Reason       string      `json:"reason,omitempty"`
	Source       *Node       `json:"source,omitempty"`
	Callees      []DepthNode `json:"callees"`
	ViaInterface []DepthNode `json:"viaInterface"`
	TotalCallees int         `json:"totalCallees"`
}

// FindCallees walks the `calls` edge forward (who target calls), then the
// `callsVia` edge forward if requested.
func (s *Service) FindCallees(ctx context.Context, version, sourceID string, maxDepth int, includeViaInterface bool) (*CalleesResult, error) {
	if maxDepth < 0 {
		maxDepth = 3
	}
	if maxDepth > 10 {
		maxDepth = 10
	}

	args := map[string]any{"sourceId": sourceID, "maxDepth": maxDepth, "includeViaInterface": includeViaInterface}
	return cache.Wrap(ctx, s.cache, "find_callees", version, args, cache.DefaultTTL, func(ctx context.Context) (*CalleesResult, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		source, err := s.GetByID(ctx, version, sourceID)
		if err != nil {
			return nil, err
		}
		if source == nil {
			return &CalleesResult{Found: false, Reason: "node " + sourceID + " not found in v" + version}, nil
		}
		if maxDepth == 0 {
			return &CalleesResult{Found: true, Source: source, Callees: []DepthNode{}, ViaInterface: []DepthNode{}}, nil
		}

		docs, err := s.store.GraphLookup(ctx, coll, sourceID, "calls", "calls", "_id", maxDepth-1)
		if err != nil {
			return nil, err
		}
		callees, depths, err := decodeWithDepth(docs)
		if err != nil {
			return nil, err
		}

		var via []DepthNode
		if includeViaInterface {
			vdocs, err := s.store.GraphLookup(ctx, coll, sourceID, "callsVia", "callsVia", "_id", maxDepth-1)
			if err != nil {
				return nil, err
			}
			viaNodes, viaDepths, err := decodeWithDepth(vdocs)
			if err != nil {
				return nil, err
			}
			via = depthNodes(viaNodes, viaDepths)
		}

		result := depthNodes(callees, depths)
		return &CalleesResult{
			Found: true, Source: source, Callees: result,
			ViaInterface: via, TotalCallees: len(result) + len(via),
		}, nil
	})
}

// ImplementationsResult is FindImplementations' response shape.
type ImplementationsResult struct {
	Found           bool    `json:"found"`
	Reason          string  `json:"reason,omitempty"`
	Interface       *Node   `json:"interface,omitempty"`
	Implementations []*Node `json:"implementations"`
	Count           int     `json:"count"`
}

// FindImplementations returns the flat list of classes implementing
// interfaceID — a single-hop reverse `implements` lookup.
func (s *Service) FindImplementations(ctx context.Context, version, interfaceID string) (*ImplementationsResult, error) {
	args := map[string]any{"interfaceId": interfaceID}
	return cache.Wrap(ctx, s.cache, "find_implementations", version, args, cache.DefaultTTL, func(ctx context.Context) (*ImplementationsResult, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		iface, err := s.GetByID(ctx, version, interfaceID)
		if err != nil {
			return nil, err
		}
		if iface == nil {
			return &ImplementationsResult{Found: false, Reason: "interface " + interfaceID + " not found in v" + version}, nil
		}

		docs, err := s.store.Find(ctx, coll, bsonM("implements", interfaceID), 0)
		if err != nil {
			return nil, err
		}
		nodes, err := decodeNodes(docs)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode implementations", err)
		}

		return &ImplementationsResult{Found: true, Interface: iface, Implementations: nodes, Count: len(nodes)}, nil
	})
}

// InheritanceResult is FindInheritanceChain's response shape.
type InheritanceResult struct {
	Found          bool        `json:"found"`
	Reason         string      `json:"reason,omitempty"`
	Class          *Node       `json:"class,omitempty"`
	Ancestors      []DepthNode `json:"ancestors"`
	Descendants    []DepthNode `json:"descendants"`
	HierarchyDepth int         `json:"hierarchyDepth"`
}

// FindInheritanceChain returns both the ancestor chain (forward `inherits`)
// and the descendant chain (reverse `inherits`), each sorted by depth.
func (s *Service) FindInheritanceChain(ctx context.Context, version, classID string, maxDepth int) (*InheritanceResult, error) {
	if maxDepth < 0 {
		maxDepth = 10
	}

	args := map[string]any{"classId": classID, "maxDepth": maxDepth}
	return cache.Wrap(ctx, s.cache, "inheritance_chain", version, args, cache.DefaultTTL, func(ctx context.Context) (*InheritanceResult, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		class, err := s.GetByID(ctx, version, classID)
		if err != nil {
			return nil, err
		}
		if class == nil {
			return &InheritanceResult{Found: false, Reason: "class " + classID + " not found in v" + version}, nil
		}
		if maxDepth == 0 {
			return &InheritanceResult{Found: true, Class: class, Ancestors: []DepthNode{}, Descendants: []DepthNode{}}, nil
		}

		adocs, err := s.store.GraphLookup(ctx, coll, classID, "inherits", "inherits", "_id", maxDepth-1)
		if err != nil {
			return nil, err
		}
		ancestorNodes, ancestorDepths, err := decodeWithDepth(adocs)
		if err != nil {
			return nil, err
		}
		ancestors := depthNodes(ancestorNodes, ancestorDepths)
		sort.Slice(ancestors, func(i, j int) bool { return ancestors[i].Depth < ancestors[j].Depth })

		ddocs, err := s.store.GraphLookup(ctx, coll, classID, "_id", "_id", "inherits", maxDepth-1)
		if err != nil {
			return nil, err
		}
		descendantNodes, descendantDepths, err := decodeWithDepth(ddocs)
		if err != nil {
			return nil, err
		}
		descendants := depthNodes(descendantNodes, descendantDepths)
		sort.Slice(descendants, func(i, j int) bool { return descendants[i].Depth < descendants[j].Depth })

		hierarchyDepth := 0
		for _, a := range ancestors {
			if a.Depth > hierarchyDepth {
				hierarchyDepth = a.Depth
			}
		}

		return &InheritanceResult{
			Found: true, Class: class, Ancestors: ancestors,
			Descendants: descendants, HierarchyDepth: hierarchyDepth,
		}, nil
	})
}
