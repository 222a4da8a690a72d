// Package graph implements the Node Query Service and the Impact
// Analyzer: per-version reads, the exact-first search ranker,
// bounded graph traversals, statistics, and multi-hop impact analysis.
// Grounded on original_source/.../services/nodes_query_service.py,
// translated into Go's result-sum style.
package graph

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Kind enumerates the node kinds recognized by the data model.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindMethod    Kind = "method"
	KindProperty  Kind = "property"
	KindField     Kind = "field"
	KindEnum      Kind = "enum"
	KindStruct    Kind = "struct"
	KindFile      Kind = "file"
	KindProject   Kind = "project"
)

// SourceRange locates a node within its file.
type SourceRange struct {
	Start int `json:"start" bson:"start"`
	End   int `json:"end" bson:"end"`
}

// Source is the optional file/range a node was extracted from.
type Source struct {
	File  string       `json:"file" bson:"file"`
	Range *SourceRange `json:"range,omitempty" bson:"range,omitempty"`
}

// Node is the sole persisted entity. Relationship fields hold target
// IDs only — the graph is represented as an id-keyed map with array-valued
// edges, never owning references, so cycles and dead edges are uniform to
// handle.
type Node struct {
	ID            string   `json:"id" bson:"_id"`
	Name          string   `json:"name" bson:"name"`
	FullName      string   `json:"fullName" bson:"fullName"`
	Kind          Kind     `json:"kind" bson:"kind"`
	Language      string   `json:"language" bson:"language"`
	Namespace     string   `json:"namespace" bson:"namespace"`
	Project       string   `json:"project" bson:"project"`
	Solution      string   `json:"solution" bson:"solution"`
	Layer         string   `json:"layer" bson:"layer"`
	Source        *Source  `json:"source,omitempty" bson:"source,omitempty"`
	IsAbstract    bool     `json:"isAbstract" bson:"isAbstract"`
	IsStatic      bool     `json:"isStatic" bson:"isStatic"`
	IsSealed      bool     `json:"isSealed" bson:"isSealed"`
	Accessibility string   `json:"accessibility" bson:"accessibility"`
	Contains      []string `json:"contains,omitempty" bson:"contains,omitempty"`
	ContainedIn   []string `json:"containedIn,omitempty" bson:"containedIn,omitempty"`
	HasMember     []string `json:"hasMember,omitempty" bson:"hasMember,omitempty"`
	Inherits      []string `json:"inherits,omitempty" bson:"inherits,omitempty"`
	Implements    []string `json:"implements,omitempty" bson:"implements,omitempty"`
	Calls         []string `json:"calls,omitempty" bson:"calls,omitempty"`
	CallsVia      []string `json:"callsVia,omitempty" bson:"callsVia,omitempty"`
	IndirectCall  []string `json:"indirectCall,omitempty" bson:"indirectCall,omitempty"`
	Uses          []string `json:"uses,omitempty" bson:"uses,omitempty"`
}

// decodeNode converts a raw bson.M document into a normalized Node. An
// absent accessibility becomes "public" and an absent layer is inferred from
// the project/namespace name, mirroring the Python original's
// _normalize_node.
func decodeNode(doc bson.M) (*Node, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var n Node
	if err := bson.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	normalizeNode(&n)
	return &n, nil
}

func normalizeNode(n *Node) {
	if n.Accessibility == "" {
		n.Accessibility = "public"
	}
	if n.Layer == "" {
		n.Layer = inferLayer(n.Project, n.Namespace)
	}
}

// inferLayer derives a best-effort layer by substring-matching the project
// or namespace name. Layer classification must never fail a query outright
// when it comes up empty.
func inferLayer(project, namespace string) string {
	haystack := strings.ToLower(project + " " + namespace)
	for _, candidate := range []string{
		"presentation", "services", "interfaces", "businessentities",
		"businesscomponents", "dataaccess", "serviceagents",
	} {
		if strings.Contains(haystack, candidate) {
			return candidate
		}
	}
	return ""
}

// containingClass extracts parts[-2] from a dotted fullName; used both as
// the search ranker's containingClass post-filter and impact analysis's
// "derive containing class" step.
func containingClass(fullName string) string {
	parts := strings.Split(fullName, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

func decodeNodes(docs []bson.M) ([]*Node, error) {
	out := make([]*Node, 0, len(docs))
	for _, d := range docs {
		n, err := decodeNode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// decodeWithDepth decodes graphLookup expansion documents alongside the
// "_depth" hop counter mongo attaches to each one, converting it from
// mongo's 0-indexed hop count to the 1-indexed depth traversal operations
// report: a direct caller is at depth 1, not depth 0.
func decodeWithDepth(docs []bson.M) ([]*Node, []int, error) {
	nodes := make([]*Node, 0, len(docs))
	depths := make([]int, 0, len(docs))
	for _, d := range docs {
		n, err := decodeNode(d)
		if err != nil {
			return nil, nil, err
		}
		depth := 0
		switch v := d["_depth"].(type) {
		case int32:
			depth = int(v)
		case int64:
			depth = int(v)
		case int:
			depth = v
		}
		nodes = append(nodes, n)
		depths = append(depths, depth+1)
	}
	return nodes, depths, nil
}

func bsonM(key string, value any) bson.M {
	return bson.M{key: value}
}
