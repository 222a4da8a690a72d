// Package gateway implements the Tool Gateway: a fixed catalog of
// named tools, each schema-described for the JSON-RPC/SSE surface, wired to
// the Node Query Service and Impact Analyzer and rendered through the
// renderer. Grounded on mcp_tools.py's get_tools/execute_tool pair,
// translated from its opaque-dict dispatch into typed per-tool argument
// structs materialized at this boundary.
package gateway

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/graph"
	"github.com/evalgo-org/grafo-query/render"
	"github.com/evalgo-org/grafo-query/store"
)

// Stable tool names.
const (
	ToolSearchCode            = "search_code"
	ToolGetCodeContext        = "get_code_context"
	ToolListProjects          = "list_projects"
	ToolGetProjectStructure   = "get_project_structure"
	ToolFindImplementations   = "find_implementations"
	ToolAnalyzeImpact         = "analyze_impact"
	ToolGetStatistics         = "get_statistics"
	ToolGetTailoredGuidance   = "get_tailored_guidance"
	ToolFindCallers           = "find_callers"
	ToolFindCallees           = "find_callees"
	ToolFindInheritanceChain  = "find_inheritance_chain"
)

// Tool describes one catalog entry for tools/list.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Guidance is the external collaborator backing get_tailored_guidance.
// A nil Guidance makes the tool always answer with an error block; the rest
// of the system is unaffected.
type Guidance interface {
	Guidance(ctx context.Context, taskType, componentName, layer, step, version string) (string, bool, error)
}

// Gateway binds the fixed tool catalog to a Node Query Service/Impact
// Analyzer and an optional guidance subsystem. One Gateway is constructed
// at startup and shared by every session; it holds no per-call mutable
// state.
type Gateway struct {
	graph    *graph.Service
	guidance Guidance
	log      *logrus.Logger
}

// New builds a Gateway. guidance may be nil.
func New(svc *graph.Service, guidance Guidance, log *logrus.Logger) *Gateway {
	return &Gateway{graph: svc, guidance: guidance, log: log}
}

// Tools returns the immutable catalog for tools/list.
func (g *Gateway) Tools() []Tool {
	return catalog
}

// Call looks up name, materializes args into a typed structure, invokes the
// handler, and renders any error as a Markdown block — raw errors never
// reach the client.
func (g *Gateway) Call(ctx context.Context, version, name string, args map[string]any) string {
	handler, ok := handlers[name]
	if !ok {
		return render.Error(version, string(apperr.InvalidArgument), "unknown tool: "+name)
	}
	return handler(ctx, g, version, args)
}

type handlerFunc func(ctx context.Context, g *Gateway, version string, args map[string]any) string

var handlers = map[string]handlerFunc{
	ToolSearchCode:           handleSearchCode,
	ToolGetCodeContext:       handleGetCodeContext,
	ToolListProjects:         handleListProjects,
	ToolGetProjectStructure:  handleGetProjectStructure,
	ToolFindImplementations:  handleFindImplementations,
	ToolAnalyzeImpact:        handleAnalyzeImpact,
	ToolGetStatistics:        handleGetStatistics,
	ToolGetTailoredGuidance:  handleGetTailoredGuidance,
	ToolFindCallers:          handleFindCallers,
	ToolFindCallees:          handleFindCallees,
	ToolFindInheritanceChain: handleFindInheritanceChain,
}

// renderErr maps an error to the Markdown block a failing handler returns,
// translating VersionUnavailable specially so clients see the available
// versions instead of an opaque message.
func renderErr(version string, err error) string {
	if verr, ok := err.(*store.VersionUnavailableError); ok {
		return render.FromVersionUnavailable(verr)
	}
	return render.Error(version, string(apperr.KindOf(err)), err.Error())
}
