package graph

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/cache"
)

// RiskLevel is the coarse-grained impact rating driven by flow counting.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// CallerInfo is one node discovered while walking callers upward during
// impact analysis, annotated with how it was reached.
type CallerInfo struct {
	Node         *Node  `json:"node"`
	ViaInterface string `json:"viaInterface,omitempty"`
	Depth        int    `json:"depth"`
}

// ImpactResult is analyze_impact's response shape.
type ImpactResult struct {
	Found            bool         `json:"found"`
	Reason           string       `json:"reason,omitempty"`
	Target           *Node        `json:"target,omitempty"`
	DirectCallers    []CallerInfo `json:"directCallers"`
	UpstreamCallers  []CallerInfo `json:"upstreamCallers"`
	Implementers     []*Node      `json:"implementers"`
	Inheritors       []*Node      `json:"inheritors"`
	FlowsAffected    int          `json:"flowsAffected"`
	PresentationHit  bool         `json:"presentationReached"`
	RiskLevel        RiskLevel    `json:"riskLevel"`
}

const impactMaxDepth = 6

// flowKey identifies a distinct (project, containingClass) pair, a single
// "flow" among upstream callers.
type flowKey struct {
	project string
	class   string
}

// AnalyzeImpact answers "what breaks if this changes?" for a method node,
// by BFS-walking direct callers and interface-dispatch callers up through
// containing classes, stopping at maxDepth or a presentation-layer class.
// Grounded on nodes_query_service.py's impact-analysis routine, translated
// into Go's visited-set BFS idiom.
func (s *Service) AnalyzeImpact(ctx context.Context, version, nodeID string) (*ImpactResult, error) {
	args := map[string]any{"nodeId": nodeID}
	return cache.Wrap(ctx, s.cache, "analyze_impact", version, args, cache.DefaultTTL, func(ctx context.Context) (*ImpactResult, error) {
		coll, err := s.store.Resolve(ctx, version)
		if err != nil {
			return nil, err
		}

		target, err := s.GetByID(ctx, version, nodeID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return &ImpactResult{Found: false, Reason: "node " + nodeID + " not found in v" + version}, nil
		}

		seenClassIDs := map[string]bool{}
		seenMethodIDs := map[string]bool{target.ID: true}

		var direct, upstream []CallerInfo
		presentationHit := false
		flows := map[flowKey]bool{}

		classOf := func(n *Node) (*Node, error) {
			cls := containingClass(n.FullName)
			if cls == "" {
				return nil, nil
			}
			docs, err := s.store.Find(ctx, coll, bson.M{
				"fullName": bson.M{"$regex": "\\." + regexpEscapeDot(cls) + "$", "$options": "i"},
				"kind":     bson.M{"$in": bson.A{string(KindClass), string(KindInterface)}},
			}, 1)
			if err != nil {
				return nil, err
			}
			nodes, err := decodeNodes(docs)
			if err != nil {
				return nil, apperr.Wrap(apperr.Internal, "decode containing class", err)
			}
			if len(nodes) == 0 {
				return nil, nil
			}
			return nodes[0], nil
		}

		classify := func(info CallerInfo) {
			cls := info.Node
			if cls.Layer == "services" || cls.Layer == "presentation" {
				upstream = append(upstream, info)
				if cls.Layer == "presentation" {
					presentationHit = true
				}
				if cls.Project != "" {
					flows[flowKey{project: cls.Project, class: cls.Name}] = true
				}
			} else {
				direct = append(direct, info)
			}
		}

		// Step 1: direct callers of the target method.
		callerDocs, err := s.store.Find(ctx, coll, bsonM("calls", target.ID), 0)
		if err != nil {
			return nil, err
		}
		callerNodes, err := decodeNodes(callerDocs)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode direct callers", err)
		}

		type frontierEntry struct {
			class *Node
			depth int
			via   string
		}
		var frontier []frontierEntry

		for _, caller := range callerNodes {
			if seenMethodIDs[caller.ID] {
				continue
			}
			seenMethodIDs[caller.ID] = true
			cls, err := classOf(caller)
			if err != nil {
				return nil, err
			}
			if cls == nil || seenClassIDs[cls.ID] {
				continue
			}
			seenClassIDs[cls.ID] = true
			classify(CallerInfo{Node: cls, Depth: 1})
			frontier = append(frontier, frontierEntry{class: cls, depth: 1})
		}

		// Step 2: indirect callers via the target's containing class's
		// implemented interfaces.
		targetClass, err := classOf(target)
		if err != nil {
			return nil, err
		}

		var implementers, inheritors []*Node
		implDocs, err := s.store.Find(ctx, coll, bsonM("implements", target.ID), 0)
		if err != nil {
			return nil, err
		}
		if implementers, err = decodeNodes(implDocs); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode implementers", err)
		}

		inhDocs, err := s.store.Find(ctx, coll, bsonM("inherits", target.ID), 0)
		if err != nil {
			return nil, err
		}
		if inheritors, err = decodeNodes(inhDocs); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode inheritors", err)
		}

		if targetClass != nil {
			for _, iface := range targetClass.Implements {
				viaDocs, err := s.store.Find(ctx, coll, bsonM("callsVia", iface), 0)
				if err != nil {
					return nil, err
				}
				viaNodes, err := decodeNodes(viaDocs)
				if err != nil {
					return nil, apperr.Wrap(apperr.Internal, "decode via-interface callers", err)
				}
				for _, vn := range viaNodes {
					if seenMethodIDs[vn.ID] {
						continue
					}
					seenMethodIDs[vn.ID] = true
					cls, err := classOf(vn)
					if err != nil {
						return nil, err
					}
					if cls == nil || seenClassIDs[cls.ID] {
						continue
					}
					seenClassIDs[cls.ID] = true
					classify(CallerInfo{Node: cls, ViaInterface: iface, Depth: 1})
					frontier = append(frontier, frontierEntry{class: cls, depth: 1, via: iface})
				}
			}
		}

		// Step 3: BFS upward through each discovered class's own
		// interfaces and its own direct callers, stopping at maxDepth or
		// a presentation-layer terminal.
		for len(frontier) > 0 {
			entry := frontier[0]
			frontier = frontier[1:]

			if entry.depth >= impactMaxDepth || entry.class.Layer == "presentation" {
				continue
			}

			for _, iface := range entry.class.Implements {
				viaDocs, err := s.store.Find(ctx, coll, bsonM("callsVia", iface), 0)
				if err != nil {
					return nil, err
				}
				viaNodes, err := decodeNodes(viaDocs)
				if err != nil {
					return nil, apperr.Wrap(apperr.Internal, "decode via-interface callers", err)
				}
				for _, vn := range viaNodes {
					if seenMethodIDs[vn.ID] {
						continue
					}
					seenMethodIDs[vn.ID] = true
					cls, err := classOf(vn)
					if err != nil {
						return nil, err
					}
					if cls == nil || seenClassIDs[cls.ID] {
						continue
					}
					seenClassIDs[cls.ID] = true
					classify(CallerInfo{Node: cls, ViaInterface: iface, Depth: entry.depth + 1})
					frontier = append(frontier, frontierEntry{class: cls, depth: entry.depth + 1, via: iface})
				}
			}

			for _, memberID := range entry.class.HasMember {
				memberCallerDocs, err := s.store.Find(ctx, coll, bsonM("calls", memberID), 0)
				if err != nil {
					return nil, err
				}
				memberCallers, err := decodeNodes(memberCallerDocs)
				if err != nil {
					return nil, apperr.Wrap(apperr.Internal, "decode member callers", err)
				}
				for _, mc := range memberCallers {
					if seenMethodIDs[mc.ID] {
						continue
					}
					seenMethodIDs[mc.ID] = true
					cls, err := classOf(mc)
					if err != nil {
						return nil, err
					}
					if cls == nil || seenClassIDs[cls.ID] {
						continue
					}
					seenClassIDs[cls.ID] = true
					classify(CallerInfo{Node: cls, Depth: entry.depth + 1})
					frontier = append(frontier, frontierEntry{class: cls, depth: entry.depth + 1})
				}
			}
		}

		flowsAffected := len(flows)
		level := riskLevel(flowsAffected, presentationHit, len(implementers), len(inheritors))

		return &ImpactResult{
			Found: true, Target: target,
			DirectCallers: nonNilCallers(direct), UpstreamCallers: nonNilCallers(upstream),
			Implementers: implementers, Inheritors: inheritors,
			FlowsAffected: flowsAffected, PresentationHit: presentationHit, RiskLevel: level,
		}, nil
	})
}

func nonNilCallers(c []CallerInfo) []CallerInfo {
	if c == nil {
		return []CallerInfo{}
	}
	return c
}

// riskLevel implements its flow-count-driven risk table.
func riskLevel(flows int, presentationHit bool, implementerCount, inheritorCount int) RiskLevel {
	switch {
	case flows > 3:
		return RiskCritical
	case flows >= 2:
		return RiskHigh
	case presentationHit || implementerCount > 0 || inheritorCount > 0:
		return RiskMedium
	default:
		return RiskLow
	}
}

func regexpEscapeDot(s string) string {
	return strings.ReplaceAll(s, ".", "\\.")
}
