package gateway

import (
	"context"
	"fmt"

	"github.com/evalgo-org/grafo-query/apperr"
	"github.com/evalgo-org/grafo-query/graph"
	"github.com/evalgo-org/grafo-query/render"
)

func handleSearchCode(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	query := argString(args, "query", "")
	opts := graph.SearchOptions{
		Kind:            argString(args, "node_type", ""),
		ContainingClass: argString(args, "class_name", ""),
		Layer:           argString(args, "layer", ""),
		Project:         argString(args, "project", ""),
		Limit:           int64(argInt(args, "limit", 20)),
		ExactFirst:      true,
	}
	result, err := g.graph.Search(ctx, version, query, opts)
	if err != nil {
		return renderErr(version, err)
	}
	return render.Search(version, result)
}

func handleGetCodeContext(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	className := argString(args, "className", "")
	methodName := argString(args, "methodName", "")
	namespace := argString(args, "namespace", "")
	project := argString(args, "project", "")
	includeRelated := argBool(args, "includeRelated", true)

	cc, err := g.graph.GetCodeContext(ctx, version, className, methodName, namespace, project, includeRelated)
	if err != nil {
		return renderErr(version, err)
	}
	out := render.CodeContext(version, cc)
	if includeRelated && cc.Found && cc.Target.Kind == graph.KindClass {
		members, err := g.graph.GetClassMembers(ctx, version, cc.Target.ID, nil)
		if err == nil && members.Found && members.Count > 0 {
			out += "\n" + render.ClassMembers(version, members)
		}
	}
	return out
}

func handleListProjects(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	query := argString(args, "query", "")
	limit := int64(argInt(args, "limit", 50))

	projects, err := g.graph.ListProjects(ctx, version, query, limit)
	if err != nil {
		return renderErr(version, err)
	}
	return render.Projects(version, projects)
}

func handleGetProjectStructure(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	projectID := argString(args, "project_id", "")
	if projectID == "" {
		solution := argString(args, "solution", "")
		grouped, err := g.graph.GetProjectsByLayer(ctx, version)
		if err != nil {
			return renderErr(version, err)
		}
		deps, err := g.graph.GetSolutionDependencies(ctx, version, solution)
		if err != nil {
			return renderErr(version, err)
		}
		return render.ProjectStructure(version, grouped, deps)
	}
	nodeType := argString(args, "node_type", "")

	detail, err := g.graph.GetProjectStructure(ctx, version, projectID, nodeType)
	if err != nil {
		return renderErr(version, err)
	}
	return render.ProjectDetail(version, detail)
}

func handleFindImplementations(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	name := argString(args, "interface_or_class", "")
	if name == "" {
		return render.Error(version, string(apperr.InvalidArgument), "interface_or_class is required")
	}
	namespace := argString(args, "namespace", "")

	node, err := g.graph.ResolveNode(ctx, version, name, "", namespace, "")
	if err != nil {
		return renderErr(version, err)
	}
	if node == nil {
		return render.Error(version, string(apperr.NodeNotFound), "no interface or class named "+name)
	}

	if node.Kind == graph.KindInterface {
		result, err := g.graph.FindImplementations(ctx, version, node.ID)
		if err != nil {
			return renderErr(version, err)
		}
		return render.Implementations(version, result)
	}

	result, err := g.graph.FindInheritanceChain(ctx, version, node.ID, 10)
	if err != nil {
		return renderErr(version, err)
	}
	return render.InheritanceChain(version, result)
}

func handleAnalyzeImpact(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	className := argString(args, "className", "")
	if className == "" {
		return render.Error(version, string(apperr.InvalidArgument), "className is required")
	}
	methodName := argString(args, "methodName", "")
	namespace := argString(args, "namespace", "")
	project := argString(args, "project", "")

	searchName, kind := className, string(graph.KindClass)
	if methodName != "" {
		searchName, kind = methodName, string(graph.KindMethod)
	}

	node, err := g.graph.ResolveNode(ctx, version, searchName, kind, namespace, project)
	if err != nil {
		return renderErr(version, err)
	}
	if node == nil && methodName != "" {
		// Fall back to the class itself if the method couldn't be resolved.
		node, err = g.graph.ResolveNode(ctx, version, className, string(graph.KindClass), namespace, project)
		if err != nil {
			return renderErr(version, err)
		}
	}
	if node == nil {
		return render.Error(version, string(apperr.NodeNotFound), "no node resolved for "+className)
	}

	result, err := g.graph.AnalyzeImpact(ctx, version, node.ID)
	if err != nil {
		return renderErr(version, err)
	}
	return render.Impact(version, result)
}

func handleGetStatistics(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	stats, err := g.graph.Statistics(ctx, version)
	if err != nil {
		return renderErr(version, err)
	}
	semantic, err := g.graph.SemanticStats(ctx, version)
	if err != nil {
		return renderErr(version, err)
	}
	return render.Statistics(version, stats) + "\n" + render.SemanticStats(version, semantic)
}

func handleGetTailoredGuidance(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	taskType := argString(args, "task_type", "")
	if taskType == "" {
		return render.Error(version, string(apperr.InvalidArgument), "task_type is required")
	}
	componentName := argString(args, "component_name", "")
	layer := argString(args, "layer", "")
	step := stepArg(args)

	if g.guidance == nil {
		return render.Error(version, string(apperr.Internal), "guidance subsystem unavailable")
	}

	text, ok, err := g.guidance.Guidance(ctx, taskType, componentName, layer, step, version)
	if err != nil {
		return renderErr(version, err)
	}
	if !ok {
		return render.Error(version, string(apperr.NodeNotFound), "no guidance for "+taskType+" step "+step)
	}
	return text
}

// stepArg normalizes the tool's oneOf{string,integer} "step" field into a
// canonical string key ("overview" or a decimal step number).
func stepArg(args map[string]any) string {
	v, ok := args["step"]
	if !ok {
		return "overview"
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return "overview"
		}
		return s
	case int:
		return fmt.Sprintf("%d", s)
	case int64:
		return fmt.Sprintf("%d", s)
	case float64:
		return fmt.Sprintf("%d", int(s))
	}
	return "overview"
}

func handleFindCallers(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	targetID := argString(args, "target_id", "")
	if targetID == "" {
		return render.Error(version, string(apperr.InvalidArgument), "target_id is required")
	}
	maxDepth := argInt(args, "max_depth", 3)
	includeIndirect := argBool(args, "include_indirect", true)

	result, err := g.graph.FindCallers(ctx, version, targetID, maxDepth, includeIndirect)
	if err != nil {
		return renderErr(version, err)
	}
	return render.Callers(version, result)
}

func handleFindCallees(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	sourceID := argString(args, "source_id", "")
	if sourceID == "" {
		return render.Error(version, string(apperr.InvalidArgument), "source_id is required")
	}
	maxDepth := argInt(args, "max_depth", 3)
	includeViaInterface := argBool(args, "include_via_interface", true)

	result, err := g.graph.FindCallees(ctx, version, sourceID, maxDepth, includeViaInterface)
	if err != nil {
		return renderErr(version, err)
	}
	return render.Callees(version, result)
}

func handleFindInheritanceChain(ctx context.Context, g *Gateway, version string, args map[string]any) string {
	classID := argString(args, "class_id", "")
	if classID == "" {
		return render.Error(version, string(apperr.InvalidArgument), "class_id is required")
	}
	maxDepth := argInt(args, "max_depth", 10)

	result, err := g.graph.FindInheritanceChain(ctx, version, classID, maxDepth)
	if err != nil {
		return renderErr(version, err)
	}
	return render.InheritanceChain(version, result)
}
