// Package render implements the pure, side-effect-free Markdown-producing
// functions backing the tool gateway: one function per tool, turning Node
// Query Service and Impact Analyzer results into the Markdown the gateway
// returns to clients. Grounded on nodes_query_service.py's
// _generate_impact_description for section ordering and icon/heading
// conventions, translated from its Spanish prose into English per this
// codebase's own idiom.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/evalgo-org/grafo-query/graph"
	"github.com/evalgo-org/grafo-query/store"
)

const truncateAt = 20

// versionHeader writes the first non-title line every rendered tool
// result carries.
func versionHeader(sb *strings.Builder, version string) {
	sb.WriteString("_version: ")
	sb.WriteString(version)
	sb.WriteString("_\n\n")
}

func fileRef(n *graph.Node) string {
	if n.Source == nil || n.Source.File == "" {
		return ""
	}
	line := 0
	if n.Source.Range != nil {
		line = n.Source.Range.Start
	}
	label := fmt.Sprintf("%s:%d", n.Source.File, line)
	return fmt.Sprintf("[%s](%s:%d)", label, n.Source.File, line)
}

func nodeLine(n *graph.Node) string {
	ref := fileRef(n)
	if ref == "" {
		return fmt.Sprintf("`%s` (%s) — `%s`", n.FullName, n.Kind, n.ID)
	}
	return fmt.Sprintf("`%s` (%s) — `%s` — %s", n.FullName, n.Kind, n.ID, ref)
}

func truncated(sb *strings.Builder, lines []string) {
	if len(lines) > truncateAt {
		for _, l := range lines[:truncateAt] {
			sb.WriteString("- ")
			sb.WriteString(l)
			sb.WriteByte('\n')
		}
		fmt.Fprintf(sb, "- … and %s more\n", humanize.Comma(int64(len(lines)-truncateAt)))
		return
	}
	for _, l := range lines {
		sb.WriteString("- ")
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
}

// Error renders any failure as a Markdown error block, never disclosing
// internals beyond the kind and a short message.
func Error(version string, kind, message string) string {
	var sb strings.Builder
	sb.WriteString("## Error\n\n")
	versionHeader(&sb, version)
	fmt.Fprintf(&sb, "**%s** — %s\n", kind, message)
	return sb.String()
}

// VersionUnavailable renders a structured "unavailable" result, never a
// silent empty list.
func VersionUnavailable(requested string, available []string) string {
	var sb strings.Builder
	sb.WriteString("## Version unavailable\n\n")
	fmt.Fprintf(&sb, "Version `%s` has no graph data.\n\n", requested)
	if len(available) == 0 {
		sb.WriteString("No versions are currently available.\n")
		return sb.String()
	}
	sb.WriteString("**Available versions:**\n\n")
	available = append([]string(nil), available...)
	sort.Strings(available)
	for _, v := range available {
		sb.WriteString("- `")
		sb.WriteString(v)
		sb.WriteString("`\n")
	}
	return sb.String()
}

// FromVersionUnavailable adapts a store.VersionUnavailableError into the
// same Markdown block VersionUnavailable produces.
func FromVersionUnavailable(err *store.VersionUnavailableError) string {
	return VersionUnavailable(err.Version, err.Available)
}

// Search renders a search_code result.
func Search(version string, result *graph.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("## Search results\n\n")
	versionHeader(&sb, version)

	if result.QueryModified {
		fmt.Fprintf(&sb, "_query `%s` reduced to first token `%s`_\n\n", result.Query, result.EffectiveQuery)
	}

	matchKind := "partial"
	if result.ExactMatch {
		matchKind = "exact"
	}
	fmt.Fprintf(&sb, "**%d** result(s) — %s match\n\n", len(result.Nodes), matchKind)

	if len(result.Nodes) == 0 {
		sb.WriteString("No matches.\n")
		return sb.String()
	}

	lines := make([]string, len(result.Nodes))
	for i, n := range result.Nodes {
		lines[i] = nodeLine(n)
	}
	truncated(&sb, lines)
	return sb.String()
}

// ClassMembers renders get_code_context's member listing.
func ClassMembers(version string, m *graph.ClassMembers) string {
	var sb strings.Builder
	sb.WriteString("## Class members\n\n")
	versionHeader(&sb, version)

	if !m.Found {
		sb.WriteString(m.Reason + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "### %s\n\n", m.Class.FullName)
	sb.WriteString(nodeLine(m.Class) + "\n\n")

	renderGroup(&sb, "Methods", m.Methods)
	renderGroup(&sb, "Properties", m.Properties)
	renderGroup(&sb, "Fields", m.Fields)
	return sb.String()
}

func renderGroup(sb *strings.Builder, title string, nodes []*graph.Node) {
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s** (%d)\n\n", title, len(nodes))
	lines := make([]string, len(nodes))
	for i, n := range nodes {
		lines[i] = nodeLine(n)
	}
	truncated(sb, lines)
	sb.WriteByte('\n')
}

// CodeContext renders a get_code_context result: the resolved target plus
// its directly embedded relationships.
func CodeContext(version string, c *graph.CodeContext) string {
	var sb strings.Builder
	sb.WriteString("## Code context\n\n")
	versionHeader(&sb, version)

	if !c.Found {
		sb.WriteString(c.Reason + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "### %s\n\n", c.Target.FullName)
	sb.WriteString(nodeLine(c.Target) + "\n\n")

	attrs := []string{c.Target.Accessibility}
	if c.Target.IsAbstract {
		attrs = append(attrs, "abstract")
	}
	if c.Target.IsStatic {
		attrs = append(attrs, "static")
	}
	if c.Target.IsSealed {
		attrs = append(attrs, "sealed")
	}
	fmt.Fprintf(&sb, "Attributes: %s\n\n", strings.Join(attrs, ", "))

	renderGroup(&sb, "Inherits", c.Inherits)
	renderGroup(&sb, "Implements", c.Implements)
	renderGroup(&sb, "Members", c.Members)
	renderGroup(&sb, "Calls", c.Callees)
	renderGroup(&sb, "Uses", c.Uses)
	renderGroup(&sb, "Called by", c.Callers)
	return sb.String()
}

// Callers renders a find_callers result.
func Callers(version string, r *graph.CallersResult) string {
	var sb strings.Builder
	sb.WriteString("## Callers\n\n")
	versionHeader(&sb, version)

	if !r.Found {
		sb.WriteString(r.Reason + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Target: %s\n\n", nodeLine(r.Target))
	fmt.Fprintf(&sb, "**%d** caller(s)\n\n", r.TotalCallers)

	renderDepthNodes(&sb, "Direct callers", r.Callers)
	renderDepthNodes(&sb, "Indirect callers (dispatch)", r.IndirectCallers)
	return sb.String()
}

// Callees renders a find_callees result.
func Callees(version string, r *graph.CalleesResult) string {
	var sb strings.Builder
	sb.WriteString("## Callees\n\n")
	versionHeader(&sb, version)

	if !r.Found {
		sb.WriteString(r.Reason + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Source: %s\n\n", nodeLine(r.Source))
	fmt.Fprintf(&sb, "**%d** callee(s)\n\n", r.TotalCallees)

	renderDepthNodes(&sb, "Direct calls", r.Callees)
	renderDepthNodes(&sb, "Via interface", r.ViaInterface)
	return sb.String()
}

func renderDepthNodes(sb *strings.Builder, title string, nodes []graph.DepthNode) {
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintf(sb, "### %s (%d)\n\n", title, len(nodes))
	lines := make([]string, len(nodes))
	for i, dn := range nodes {
		lines[i] = fmt.Sprintf("(depth %d) %s", dn.Depth, nodeLine(dn.Node))
	}
	truncated(sb, lines)
	sb.WriteByte('\n')
}

// Implementations renders a find_implementations result.
func Implementations(version string, r *graph.ImplementationsResult) string {
	var sb strings.Builder
	sb.WriteString("## Implementations\n\n")
	versionHeader(&sb, version)

	if !r.Found {
		sb.WriteString(r.Reason + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Interface: %s\n\n", nodeLine(r.Interface))
	fmt.Fprintf(&sb, "**%d** implementation(s)\n\n", r.Count)

	lines := make([]string, len(r.Implementations))
	for i, n := range r.Implementations {
		lines[i] = nodeLine(n)
	}
	truncated(&sb, lines)
	return sb.String()
}

// InheritanceChain renders a find_inheritance_chain result.
func InheritanceChain(version string, r *graph.InheritanceResult) string {
	var sb strings.Builder
	sb.WriteString("## Inheritance chain\n\n")
	versionHeader(&sb, version)

	if !r.Found {
		sb.WriteString(r.Reason + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Class: %s\n\n", nodeLine(r.Class))
	fmt.Fprintf(&sb, "Hierarchy depth: **%d**\n\n", r.HierarchyDepth)

	renderDepthNodes(&sb, "Ancestors", r.Ancestors)
	renderDepthNodes(&sb, "Descendants", r.Descendants)
	return sb.String()
}

// Statistics renders a get_statistics result.
func Statistics(version string, s *graph.Statistics) string {
	var sb strings.Builder
	sb.WriteString("## Statistics\n\n")
	versionHeader(&sb, version)

	fmt.Fprintf(&sb, "- **Total nodes:** %s\n", humanize.Comma(s.TotalNodes))
	fmt.Fprintf(&sb, "- **Projects:** %s\n", humanize.Comma(s.TotalProjects))
	fmt.Fprintf(&sb, "- **Solutions:** %s\n\n", humanize.Comma(s.TotalSolutions))

	if len(s.NodesByKind) == 0 {
		return sb.String()
	}
	sb.WriteString("### By kind\n\n")
	kinds := make([]string, 0, len(s.NodesByKind))
	for k := range s.NodesByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&sb, "- **%s:** %s\n", k, humanize.Comma(s.NodesByKind[k]))
	}
	return sb.String()
}

// SemanticStats renders a get_statistics "semantic" variant.
func SemanticStats(version string, s *graph.SemanticStats) string {
	var sb strings.Builder
	sb.WriteString("## Semantic statistics\n\n")
	versionHeader(&sb, version)

	fmt.Fprintf(&sb, "- **Calls:** %s\n", humanize.Comma(s.Calls))
	fmt.Fprintf(&sb, "- **CallsVia:** %s\n", humanize.Comma(s.CallsVia))
	fmt.Fprintf(&sb, "- **Implements:** %s\n", humanize.Comma(s.Implements))
	fmt.Fprintf(&sb, "- **Inherits:** %s\n", humanize.Comma(s.Inherits))
	fmt.Fprintf(&sb, "- **Uses:** %s\n", humanize.Comma(s.Uses))
	fmt.Fprintf(&sb, "- **Contains:** %s\n\n", humanize.Comma(s.Contains))
	fmt.Fprintf(&sb, "- **Classes:** %s\n", humanize.Comma(s.ClassCount))
	fmt.Fprintf(&sb, "- **Interfaces:** %s\n", humanize.Comma(s.InterfaceCount))
	return sb.String()
}

// Projects renders a list_projects result.
func Projects(version string, projects []*graph.Node) string {
	var sb strings.Builder
	sb.WriteString("## Projects\n\n")
	versionHeader(&sb, version)
	fmt.Fprintf(&sb, "**%d** project(s)\n\n", len(projects))
	lines := make([]string, len(projects))
	for i, p := range projects {
		lines[i] = nodeLine(p)
	}
	truncated(&sb, lines)
	return sb.String()
}

// ProjectDetail renders a get_project_structure result for a single project:
// its members grouped by kind.
func ProjectDetail(version string, p *graph.ProjectDetail) string {
	var sb strings.Builder
	sb.WriteString("## Project structure\n\n")
	versionHeader(&sb, version)

	if !p.Found {
		sb.WriteString(p.Reason + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "### %s\n\n**%d** member(s)\n\n", p.Project, p.Count)

	kinds := make([]string, 0, len(p.ByKind))
	for k := range p.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		renderGroup(&sb, k, p.ByKind[k])
	}
	return sb.String()
}

// ProjectStructure renders a get_project_structure result: projects grouped
// by layer, plus cross-project dependency edges.
func ProjectStructure(version string, grouped *graph.ProjectsByLayer, deps []graph.SolutionDependency) string {
	var sb strings.Builder
	sb.WriteString("## Project structure\n\n")
	versionHeader(&sb, version)

	layers := make([]string, 0, len(grouped.Layers))
	for l := range grouped.Layers {
		layers = append(layers, l)
	}
	sort.Strings(layers)
	for _, l := range layers {
		projects := append([]string(nil), grouped.Layers[l]...)
		sort.Strings(projects)
		fmt.Fprintf(&sb, "### %s (%d)\n\n", l, len(projects))
		for _, p := range projects {
			sb.WriteString("- " + p + "\n")
		}
		sb.WriteByte('\n')
	}

	if len(deps) == 0 {
		return sb.String()
	}
	sb.WriteString("### Cross-project dependencies\n\n")
	deps = append([]graph.SolutionDependency(nil), deps...)
	sort.Slice(deps, func(i, j int) bool { return deps[i].EdgeCount > deps[j].EdgeCount })
	lines := make([]string, len(deps))
	for i, d := range deps {
		lines[i] = fmt.Sprintf("%s → %s (%s edges)", d.FromProject, d.ToProject, humanize.Comma(d.EdgeCount))
	}
	truncated(&sb, lines)
	return sb.String()
}

var riskIcon = map[graph.RiskLevel]string{
	graph.RiskCritical: "🟣",
	graph.RiskHigh:      "🔴",
	graph.RiskMedium:    "🟡",
	graph.RiskLow:       "🟢",
}

// Impact renders an analyze_impact result: header with risk icon, summary
// counts, risk factors, callers grouped by layer, via-interface detail, and
// recommendations keyed to the level.
func Impact(version string, r *graph.ImpactResult) string {
	var sb strings.Builder

	if !r.Found {
		sb.WriteString("## Impact analysis\n\n")
		versionHeader(&sb, version)
		sb.WriteString(r.Reason + "\n")
		return sb.String()
	}

	totalIncoming := len(r.DirectCallers) + len(r.UpstreamCallers)
	fmt.Fprintf(&sb, "## Impact analysis: %s\n\n", r.Target.Name)
	versionHeader(&sb, version)
	fmt.Fprintf(&sb, "**Risk level:** %s %s\n\n", riskIcon[r.RiskLevel], strings.ToUpper(string(r.RiskLevel)))

	sb.WriteString("### Summary\n\n")
	fmt.Fprintf(&sb, "- **Kind:** %s\n", r.Target.Kind)
	fmt.Fprintf(&sb, "- **Incoming dependencies:** %d\n", totalIncoming)
	fmt.Fprintf(&sb, "- **Flows affected:** %d\n", r.FlowsAffected)
	fmt.Fprintf(&sb, "- **Implementers:** %d\n", len(r.Implementers))
	fmt.Fprintf(&sb, "- **Inheritors:** %d\n\n", len(r.Inheritors))

	var factors []string
	if r.PresentationHit {
		factors = append(factors, "reaches the presentation layer")
	}
	if len(r.Implementers) > 0 {
		factors = append(factors, fmt.Sprintf("%d class(es) implement this interface", len(r.Implementers)))
	}
	if len(r.Inheritors) > 0 {
		factors = append(factors, fmt.Sprintf("%d class(es) inherit from this element", len(r.Inheritors)))
	}
	if totalIncoming > 10 {
		factors = append(factors, fmt.Sprintf("high number of dependencies (%d)", totalIncoming))
	}
	if len(factors) > 0 {
		sb.WriteString("### Risk factors\n\n")
		for _, f := range factors {
			sb.WriteString("- ⚠️ " + f + "\n")
		}
		sb.WriteByte('\n')
	}

	all := append(append([]graph.CallerInfo{}, r.DirectCallers...), r.UpstreamCallers...)
	if len(all) > 0 {
		byLayer := map[string]int{}
		for _, c := range all {
			layer := c.Node.Layer
			if layer == "" {
				layer = "other"
			}
			byLayer[layer]++
		}
		sb.WriteString("### Callers by layer\n\n")
		layers := make([]string, 0, len(byLayer))
		for l := range byLayer {
			layers = append(layers, l)
		}
		sort.Strings(layers)
		for _, l := range layers {
			fmt.Fprintf(&sb, "- **%s:** %d caller(s)\n", strings.ToUpper(l), byLayer[l])
		}
		sb.WriteByte('\n')
	}

	var viaInterface []graph.CallerInfo
	for _, c := range all {
		if c.ViaInterface != "" {
			viaInterface = append(viaInterface, c)
		}
	}
	if len(viaInterface) > 0 {
		sb.WriteString("### Callers via interface\n\n")
		lines := make([]string, len(viaInterface))
		for i, c := range viaInterface {
			lines[i] = fmt.Sprintf("%s (%s) via `%s`", c.Node.Name, c.Node.Project, c.ViaInterface)
		}
		truncated(&sb, lines)
		sb.WriteByte('\n')
	}

	sb.WriteString("### Recommendations\n\n")
	switch r.RiskLevel {
	case graph.RiskCritical, graph.RiskHigh:
		sb.WriteString("- ✅ Review ALL dependencies before modifying\n")
		sb.WriteString("- ✅ Coordinate with the teams owning the affected projects\n")
		if len(r.Implementers) > 0 || len(r.Inheritors) > 0 {
			sb.WriteString("- ✅ Signature changes will be breaking changes\n")
		}
		if r.PresentationHit {
			sb.WriteString("- ✅ Validate impact on the user-facing surface\n")
		}
	case graph.RiskMedium:
		sb.WriteString("- ✅ Review the main dependencies\n")
		sb.WriteString("- ✅ Consider regression tests\n")
	default:
		sb.WriteString("- ✅ Low-risk change; standard review should suffice\n")
	}

	return sb.String()
}
