package gateway

// catalog is the immutable tool registry, populated once at startup.
// Descriptions are terse English paraphrases of the originating tool set's
// guidance; schemas are grounded on the same set's inputSchema definitions.
var catalog = []Tool{
	{
		Name:        ToolSearchCode,
		Description: "Search the versioned code graph by name, with optional node kind, containing class, layer and project filters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":      map[string]any{"type": "string", "description": "Name of the element to search for."},
				"node_type":  map[string]any{"type": "string", "enum": []string{"method", "class", "interface", "property", "field", "enum", "struct"}},
				"class_name": map[string]any{"type": "string", "description": "Containing class name."},
				"layer":      map[string]any{"type": "string", "description": "Architecture layer."},
				"project":    map[string]any{"type": "string", "description": "Full project name."},
				"limit":      map[string]any{"type": "integer", "default": 20},
			},
			"required": []string{"query", "node_type"},
		},
	},
	{
		Name:        ToolGetCodeContext,
		Description: "Fetch the full context of an element located via search_code: its attributes plus directly embedded relationships.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"className":      map[string]any{"type": "string"},
				"methodName":     map[string]any{"type": "string"},
				"namespace":      map[string]any{"type": "string"},
				"project":        map[string]any{"type": "string"},
				"includeRelated": map[string]any{"type": "boolean", "default": true},
				"maxDepth":       map[string]any{"type": "integer", "default": 2},
			},
			"required": []string{"className"},
		},
	},
	{
		Name:        ToolListProjects,
		Description: "List projects indexed in the code graph, optionally filtered by name.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
				"limit": map[string]any{"type": "integer", "default": 50},
			},
		},
	},
	{
		Name:        ToolGetProjectStructure,
		Description: "Return a project's members grouped by kind, or, when project_id is omitted, every project grouped by layer with cross-project dependency edges.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id": map[string]any{"type": "string"},
				"node_type":  map[string]any{"type": "string", "enum": []string{"class", "interface", "method", "property", "field", "enum"}},
				"solution":   map[string]any{"type": "string"},
			},
		},
	},
	{
		Name:        ToolFindImplementations,
		Description: "Find every class implementing an interface, or every class descending from a base class.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"interface_or_class": map[string]any{"type": "string"},
				"namespace":          map[string]any{"type": "string"},
			},
			"required": []string{"interface_or_class"},
		},
	},
	{
		Name:        ToolAnalyzeImpact,
		Description: "Produce an impact report for changes to a class or method: upstream callers, implementers, inheritors, and a risk level.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"className":  map[string]any{"type": "string", "description": "Exact containing class name, not a namespace segment."},
				"methodName": map[string]any{"type": "string"},
				"namespace":  map[string]any{"type": "string"},
				"project":    map[string]any{"type": "string"},
			},
			"required": []string{"className"},
		},
	},
	{
		Name:        ToolGetStatistics,
		Description: "Report totals for the indexed code graph: projects, classes, methods, interfaces, relationships.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        ToolGetTailoredGuidance,
		Description: "Stepwise authoring guidance for extending, creating, or modifying code in a downstream customization layer.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_type": map[string]any{
					"type": "string",
					"enum": []string{
						"extend_business_component", "create_data_access", "create_service_agent",
						"extend_api", "configure_unity", "understand_architecture",
						"add_method_override", "create_new_component",
					},
				},
				"component_name": map[string]any{"type": "string"},
				"layer": map[string]any{
					"type": "string",
					"enum": []string{"BusinessComponents", "DataAccess", "ServiceAgents", "AppServerApi", "WebServerApi", "BusinessEntities", "Common"},
				},
				"details": map[string]any{"type": "string"},
				"step":    map[string]any{"description": "'overview' or a step number.", "default": "overview"},
			},
			"required": []string{"task_type"},
		},
	},
	{
		Name:        ToolFindCallers,
		Description: "Find every method that calls a given method, via a bounded graph traversal.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"target_id":        map[string]any{"type": "string"},
				"max_depth":        map[string]any{"type": "integer", "default": 3},
				"include_indirect": map[string]any{"type": "boolean", "default": true},
			},
			"required": []string{"target_id"},
		},
	},
	{
		Name:        ToolFindCallees,
		Description: "Find every method called by a given method, via a bounded graph traversal.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"source_id":             map[string]any{"type": "string"},
				"max_depth":             map[string]any{"type": "integer", "default": 3},
				"include_via_interface": map[string]any{"type": "boolean", "default": true},
			},
			"required": []string{"source_id"},
		},
	},
	{
		Name:        ToolFindInheritanceChain,
		Description: "Return a class's full inheritance chain: ancestors and descendants, with depth.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"class_id":  map[string]any{"type": "string"},
				"max_depth": map[string]any{"type": "integer", "default": 10},
			},
			"required": []string{"class_id"},
		},
	},
}
