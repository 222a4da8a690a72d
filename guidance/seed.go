package guidance

import bolt "go.etcd.io/bbolt"

// taskCatalog is the fixed (taskType -> step -> Markdown) table seeded into
// a fresh database. "overview" always lists the remaining numbered steps;
// content is deliberately generic (it is authoring guidance, not derived
// from any one version's graph) but concrete enough to be actionable.
var taskCatalog = map[string]map[string]string{
	"extend_business_component": {
		"overview": "# Guidance: extend a business component\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Locate the base component and its interface with `search_code` / `get_code_context`.\n" +
			"2. Create the extension class, inheriting from the base and implementing its interface.\n" +
			"3. Register the extension in the container configuration.\n",
		"1": "## Step 1 — locate the base component\n\nUse `search_code{query:\"{{component}}\", node_type:\"class\"}` " +
			"then `get_code_context` to confirm its namespace, interfaces, and members before extending it.\n",
		"2": "## Step 2 — create the extension\n\nDerive a new class from `{{component}}` in `{{layer}}`, " +
			"override only the members that change behavior, and keep the base constructor chain intact.\n",
		"3": "## Step 3 — register the extension\n\nUpdate the container configuration so the extension resolves " +
			"in place of the base component, then verify the original interface's consumers pick it up unmodified.\n",
	},
	"create_data_access": {
		"overview": "# Guidance: create a data access component\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Identify the entity and its existing repository interface, if any.\n" +
			"2. Implement the data access class against that interface.\n" +
			"3. Wire the new repository into the service layer that will consume it.\n",
		"1": "## Step 1 — identify the entity\n\nSearch for `{{component}}`'s entity and any `IRepository`-style " +
			"interface it should satisfy; reuse it instead of introducing a parallel one.\n",
		"2": "## Step 2 — implement the repository\n\nImplement the interface in `{{layer}}`, keeping query shape and " +
			"transaction boundaries consistent with sibling repositories in the same project.\n",
		"3": "## Step 3 — wire it up\n\nRegister the new repository for injection and update the consuming service " +
			"to depend on the interface, not the concrete type.\n",
	},
	"create_service_agent": {
		"overview": "# Guidance: create a service agent\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Confirm the external service contract the agent will wrap.\n" +
			"2. Implement the agent against that contract.\n" +
			"3. Register and configure the agent's endpoint.\n",
		"1": "## Step 1 — confirm the contract\n\nUse `get_code_context` on `{{component}}` to see any existing " +
			"service-agent interface it should implement.\n",
		"2": "## Step 2 — implement the agent\n\nImplement the call in `{{layer}}`, translating the external " +
			"response into the domain's own entities rather than leaking the wire format upward.\n",
		"3": "## Step 3 — configure the endpoint\n\nAdd the agent's endpoint/configuration entry and register it " +
			"for injection alongside the other service agents in the same project.\n",
	},
	"extend_api": {
		"overview": "# Guidance: extend an API surface\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Locate the existing controller/endpoint group to extend.\n" +
			"2. Add the new operation, delegating to the business layer.\n" +
			"3. Check impact on existing consumers with `analyze_impact`.\n",
		"1": "## Step 1 — locate the endpoint group\n\nFind `{{component}}`'s controller with `search_code` and " +
			"review its existing routes before adding a new one.\n",
		"2": "## Step 2 — add the operation\n\nAdd the new route in `{{layer}}`; keep request/response shapes " +
			"consistent with the controller's existing operations.\n",
		"3": "## Step 3 — check impact\n\nRun `analyze_impact` on the controller class to confirm the change " +
			"doesn't affect callers you didn't intend to touch.\n",
	},
	"configure_unity": {
		"overview": "# Guidance: configure container registrations\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Identify the interface(s) `{{component}}` should be registered against.\n" +
			"2. Add the registration entry.\n" +
			"3. Verify no other registration for the same interface now conflicts.\n",
		"1": "## Step 1 — identify the interfaces\n\nUse `find_implementations` on the candidate interface to see " +
			"what else is already registered against it.\n",
		"2": "## Step 2 — add the registration\n\nRegister `{{component}}` in `{{layer}}`'s container configuration, " +
			"matching the lifetime (singleton/transient) of sibling registrations.\n",
		"3": "## Step 3 — verify\n\nConfirm the registration resolves uniquely; two registrations for the same " +
			"interface silently shadow one another.\n",
	},
	"understand_architecture": {
		"overview": "# Guidance: understand the architecture around a component\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Get the component's context and statistics.\n" +
			"2. Walk its callers/callees and inheritance chain.\n" +
			"3. Review the layer's other projects for established conventions.\n",
		"1": "## Step 1 — get context\n\nRun `get_code_context` on `{{component}}`, then `get_statistics` for the " +
			"whole graph to see how large a surface you're working with.\n",
		"2": "## Step 2 — walk the graph\n\nUse `find_callers`, `find_callees`, and `find_inheritance_chain` to map " +
			"`{{component}}`'s place in the dependency graph before changing it.\n",
		"3": "## Step 3 — survey the layer\n\nUse `get_project_structure` on sibling projects in `{{layer}}` to see " +
			"naming and structuring conventions already in use.\n",
	},
	"add_method_override": {
		"overview": "# Guidance: add a method override\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Confirm the base method is virtual/overridable.\n" +
			"2. Add the override, calling the base implementation where behavior should be preserved.\n" +
			"3. Run `analyze_impact` on the base method to see who else depends on its default behavior.\n",
		"1": "## Step 1 — confirm overridability\n\nUse `get_code_context` on `{{component}}` to confirm the target " +
			"method isn't sealed or static.\n",
		"2": "## Step 2 — add the override\n\nOverride the method in `{{layer}}`; call the base implementation " +
			"unless the whole behavior is meant to change.\n",
		"3": "## Step 3 — check impact\n\nRun `analyze_impact` on the base method to confirm other callers still " +
			"get the behavior they expect.\n",
	},
	"create_new_component": {
		"overview": "# Guidance: create a new component from scratch\n\n" +
			"Task: `{{task}}` — component `{{component}}`, layer `{{layer}}`.\n\n" +
			"Steps:\n\n1. Survey `{{layer}}` for the closest existing analog.\n" +
			"2. Create the component following that analog's shape.\n" +
			"3. Register and wire it into its consumers.\n",
		"1": "## Step 1 — survey analogs\n\nUse `get_project_structure` on a project in `{{layer}}` to find a " +
			"component shaped like the one you're about to add.\n",
		"2": "## Step 2 — create the component\n\nFollow the analog's namespace, interface, and naming conventions " +
			"for `{{component}}`.\n",
		"3": "## Step 3 — wire it in\n\nRegister the new component and update its intended consumer to depend on " +
			"its interface.\n",
	},
}

// seedIfEmpty populates the bucket from taskCatalog exactly once — a
// non-empty bucket is left untouched so an operator's edits survive
// restarts.
func (s *Store) seedIfEmpty() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Stats().KeyN > 0 {
			return nil
		}
		for taskType, steps := range taskCatalog {
			for step, md := range steps {
				if err := b.Put(key(taskType, step), []byte(md)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
