//go:build integration

package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evalgo-org/grafo-query/store"
)

// newTestService spins up a disposable MongoDB container seeded with the
// collection fixtures and returns a cache-less Service bound to it. Opt-in
// via the "integration" build tag, mirroring store's own container test.
func newTestService(t *testing.T, version string, docs []bson.M) *Service {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	uri := "mongodb://" + host + ":" + port.Port()
	const database = "grafo_query_it"

	if len(docs) > 0 {
		seed, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		require.NoError(t, err)
		raw := make([]any, len(docs))
		for i, d := range docs {
			raw[i] = d
		}
		_, err = seed.Database(database).Collection(store.CollectionName(version)).InsertMany(ctx, raw)
		require.NoError(t, err)
		require.NoError(t, seed.Disconnect(ctx))
	}

	client, err := store.Connect(ctx, store.Config{URI: uri, Database: database}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(ctx) })

	return New(client, nil, nil)
}

func method(id, fullName string, calls, callsVia []string) bson.M {
	return bson.M{
		"_id": id, "name": lastSegment(fullName), "fullName": fullName,
		"kind": "method", "calls": calls, "callsVia": callsVia,
	}
}

func class(id, fullName, layer, project string, implements []string) bson.M {
	return bson.M{
		"_id": id, "name": lastSegment(fullName), "fullName": fullName,
		"kind": "class", "layer": layer, "project": project, "implements": implements,
	}
}

func lastSegment(fullName string) string {
	parts := strings.Split(fullName, ".")
	return parts[len(parts)-1]
}

func TestSearchExactPrecedenceOverPartial(t *testing.T) {
	docs := []bson.M{
		method("graph:method/X/Ns.C.ProcessMessage", "Ns.C.ProcessMessage", nil, nil),
		method("graph:method/X/Ns.C.ProcessMessageHandlerA", "Ns.C.ProcessMessageHandlerA", nil, nil),
		method("graph:method/X/Ns.C.ProcessMessageHandlerB", "Ns.C.ProcessMessageHandlerB", nil, nil),
		method("graph:method/X/Ns.C.ProcessMessageHandlerC", "Ns.C.ProcessMessageHandlerC", nil, nil),
	}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.Search(context.Background(), "7.10.2", "ProcessMessage", SearchOptions{Kind: "method", ExactFirst: true, Limit: 50})
	require.NoError(t, err)
	require.True(t, result.ExactMatch)
	require.Len(t, result.Nodes, 1)
	require.Equal(t, "Ns.C.ProcessMessage", result.Nodes[0].FullName)
}

func TestSearchVersionUnavailableListsAvailable(t *testing.T) {
	docs := []bson.M{method("graph:method/X/Ns.C.M", "Ns.C.M", nil, nil)}
	svc := newTestService(t, "7.10.2", docs)

	_, err := svc.Search(context.Background(), "9.0.0", "ProcessMessage", SearchOptions{Limit: 50})
	require.Error(t, err)
	verr, ok := err.(*store.VersionUnavailableError)
	require.True(t, ok)
	require.Equal(t, []string{"7.10.2"}, verr.Available)
}

func TestSearchContainingClassPostFilter(t *testing.T) {
	docs := []bson.M{
		method("graph:method/X/Ns.Communication.InsertMessage", "Ns.Communication.InsertMessage", nil, nil),
		method("graph:method/X/Ns.CommunicationService.InsertMessage", "Ns.CommunicationService.InsertMessage", nil, nil),
	}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.Search(context.Background(), "7.10.2", "InsertMessage", SearchOptions{
		Kind: "method", ExactFirst: true, Limit: 50, ContainingClass: "Communication",
	})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	require.Equal(t, "Ns.Communication.InsertMessage", result.Nodes[0].FullName)
}

func TestFindCallersBoundedDepth(t *testing.T) {
	// C -> B -> A -> M, maxDepth=2 should surface A@1, B@2, never C.
	docs := []bson.M{
		method("graph:method/X/Ns.C.M", "Ns.C.M", nil, nil),
		method("graph:method/X/Ns.C.A", "Ns.C.A", []string{"graph:method/X/Ns.C.M"}, nil),
		method("graph:method/X/Ns.C.B", "Ns.C.B", []string{"graph:method/X/Ns.C.A"}, nil),
		method("graph:method/X/Ns.C.C", "Ns.C.C", []string{"graph:method/X/Ns.C.B"}, nil),
	}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.FindCallers(context.Background(), "7.10.2", "graph:method/X/Ns.C.M", 2, false)
	require.NoError(t, err)
	require.True(t, result.Found)

	found := map[string]int{}
	for _, c := range result.Callers {
		found[c.Node.ID] = c.Depth
	}
	require.Equal(t, 1, found["graph:method/X/Ns.C.A"])
	require.Equal(t, 2, found["graph:method/X/Ns.C.B"])
	require.NotContains(t, found, "graph:method/X/Ns.C.C")
}

func TestFindCalleesSkipsDeadEdges(t *testing.T) {
	docs := []bson.M{
		method("graph:method/X/Ns.C.S", "Ns.C.S", []string{"graph:method/X/Ns.C.T1", "graph:method/X/Ns.C.T2"}, nil),
		method("graph:method/X/Ns.C.T1", "Ns.C.T1", nil, nil),
	}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.FindCallees(context.Background(), "7.10.2", "graph:method/X/Ns.C.S", 3, false)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Len(t, result.Callees, 1)
	require.Equal(t, "graph:method/X/Ns.C.T1", result.Callees[0].Node.ID)
}

func TestFindCallersZeroDepthReturnsEmptyFoundTrue(t *testing.T) {
	docs := []bson.M{
		method("graph:method/X/Ns.C.M", "Ns.C.M", nil, nil),
		method("graph:method/X/Ns.C.A", "Ns.C.A", []string{"graph:method/X/Ns.C.M"}, nil),
	}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.FindCallers(context.Background(), "7.10.2", "graph:method/X/Ns.C.M", 0, true)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Empty(t, result.Callers)
	require.Equal(t, 0, result.TotalCallers)
}

func TestSearchLimitZeroReturnsEmptyNotError(t *testing.T) {
	docs := []bson.M{method("graph:method/X/Ns.C.M", "Ns.C.M", nil, nil)}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.Search(context.Background(), "7.10.2", "M", SearchOptions{Limit: 0, ExactFirst: true})
	require.NoError(t, err)
	require.Empty(t, result.Nodes)
}

func TestGetCodeContextResolvesDirectRelations(t *testing.T) {
	docs := []bson.M{
		method("graph:method/X/Ns.Core.Save", "Ns.Core.Save", []string{"graph:method/X/Ns.Core.Validate"}, nil),
		method("graph:method/X/Ns.Core.Validate", "Ns.Core.Validate", nil, nil),
		method("graph:method/X/Ns.Caller.Invoke", "Ns.Caller.Invoke", []string{"graph:method/X/Ns.Core.Save"}, nil),
	}
	svc := newTestService(t, "7.10.2", docs)

	cc, err := svc.GetCodeContext(context.Background(), "7.10.2", "", "Save", "", "", true)
	require.NoError(t, err)
	require.True(t, cc.Found)
	require.Equal(t, "Ns.Core.Save", cc.Target.FullName)
	require.Len(t, cc.Callees, 1)
	require.Equal(t, "graph:method/X/Ns.Core.Validate", cc.Callees[0].ID)
	require.Len(t, cc.Callers, 1)
	require.Equal(t, "graph:method/X/Ns.Caller.Invoke", cc.Callers[0].ID)
}

func TestGetCodeContextNotFound(t *testing.T) {
	svc := newTestService(t, "7.10.2", []bson.M{method("graph:method/X/Ns.C.M", "Ns.C.M", nil, nil)})

	cc, err := svc.GetCodeContext(context.Background(), "7.10.2", "NoSuchClass", "", "", "", false)
	require.NoError(t, err)
	require.False(t, cc.Found)
}

func TestGetClassMembersGroupsByKind(t *testing.T) {
	prop := bson.M{"_id": "graph:property/X/Ns.C.Name", "name": "Name", "fullName": "Ns.C.Name", "kind": "property"}
	meth := method("graph:method/X/Ns.C.Do", "Ns.C.Do", nil, nil)
	docs := []bson.M{
		{"_id": "graph:class/X/Ns.C", "name": "C", "fullName": "Ns.C", "kind": "class",
			"hasMember": []string{"graph:property/X/Ns.C.Name", "graph:method/X/Ns.C.Do"}},
		prop, meth,
	}
	svc := newTestService(t, "7.10.2", docs)

	members, err := svc.GetClassMembers(context.Background(), "7.10.2", "graph:class/X/Ns.C", nil)
	require.NoError(t, err)
	require.True(t, members.Found)
	assert.Len(t, members.Members, 2)
	assert.Len(t, members.Properties, 1)
	assert.Len(t, members.Methods, 1)
}

func TestGetClassMembersClassNotFound(t *testing.T) {
	svc := newTestService(t, "7.10.2", []bson.M{method("graph:method/X/Ns.C.M", "Ns.C.M", nil, nil)})

	members, err := svc.GetClassMembers(context.Background(), "7.10.2", "graph:class/X/Ns.Missing", nil)
	require.NoError(t, err)
	assert.False(t, members.Found)
}

func TestListProjectsFiltersByNameSubstring(t *testing.T) {
	docs := []bson.M{
		{"_id": "graph:project/Billing", "name": "Billing", "fullName": "Billing", "kind": "project"},
		{"_id": "graph:project/Shipping", "name": "Shipping", "fullName": "Shipping", "kind": "project"},
	}
	svc := newTestService(t, "7.10.2", docs)

	nodes, err := svc.ListProjects(context.Background(), "7.10.2", "Bill", 50)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Billing", nodes[0].Name)
}

func TestGetProjectStructureGroupsNodesByKind(t *testing.T) {
	docs := []bson.M{
		class("graph:class/X/Ns.C", "Ns.C", "services", "Billing", nil),
		method("graph:method/X/Ns.C.Do", "Ns.C.Do", nil, nil),
	}
	docs[1]["project"] = "Billing"
	svc := newTestService(t, "7.10.2", docs)

	detail, err := svc.GetProjectStructure(context.Background(), "7.10.2", "Billing", "")
	require.NoError(t, err)
	require.True(t, detail.Found)
	assert.Equal(t, 2, detail.Count)
	assert.Len(t, detail.ByKind["class"], 1)
	assert.Len(t, detail.ByKind["method"], 1)
}

func TestGetProjectStructureNotFound(t *testing.T) {
	svc := newTestService(t, "7.10.2", []bson.M{method("graph:method/X/Ns.C.M", "Ns.C.M", nil, nil)})

	detail, err := svc.GetProjectStructure(context.Background(), "7.10.2", "NoSuchProject", "")
	require.NoError(t, err)
	assert.False(t, detail.Found)
}

func TestResolveNodeReturnsBestMatch(t *testing.T) {
	docs := []bson.M{method("graph:method/X/Ns.C.Save", "Ns.C.Save", nil, nil)}
	svc := newTestService(t, "7.10.2", docs)

	n, err := svc.ResolveNode(context.Background(), "7.10.2", "Save", "method", "", "")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "graph:method/X/Ns.C.Save", n.ID)
}

func TestResolveNodeReturnsNilWhenNoMatch(t *testing.T) {
	docs := []bson.M{method("graph:method/X/Ns.C.Save", "Ns.C.Save", nil, nil)}
	svc := newTestService(t, "7.10.2", docs)

	n, err := svc.ResolveNode(context.Background(), "7.10.2", "NoSuchMethod", "method", "", "")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestStatisticsCountsNodesByKind(t *testing.T) {
	docs := []bson.M{
		class("graph:class/X/Ns.C", "Ns.C", "services", "Billing", nil),
		method("graph:method/X/Ns.C.Do", "Ns.C.Do", nil, nil),
	}
	docs[1]["project"] = "Billing"
	svc := newTestService(t, "7.10.2", docs)

	stats, err := svc.Statistics(context.Background(), "7.10.2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalNodes)
	assert.Equal(t, int64(1), stats.TotalProjects)
	assert.Equal(t, int64(1), stats.NodesByKind["class"])
	assert.Equal(t, int64(1), stats.NodesByKind["method"])
}

func TestSemanticStatsSumsRelationshipArrays(t *testing.T) {
	docs := []bson.M{
		method("graph:method/X/Ns.C.A", "Ns.C.A", []string{"graph:method/X/Ns.C.B", "graph:method/X/Ns.C.C"}, nil),
		method("graph:method/X/Ns.C.B", "Ns.C.B", nil, nil),
		method("graph:method/X/Ns.C.C", "Ns.C.C", nil, nil),
		class("graph:class/X/Ns.C", "Ns.C", "services", "Billing", nil),
	}
	svc := newTestService(t, "7.10.2", docs)

	stats, err := svc.SemanticStats(context.Background(), "7.10.2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Calls)
	assert.Equal(t, int64(1), stats.ClassCount)
}

func TestFindImplementationsListsImplementers(t *testing.T) {
	docs := []bson.M{
		{"_id": "graph:interface/X/Ns.IRepo", "name": "IRepo", "fullName": "Ns.IRepo", "kind": "interface"},
		class("graph:class/X/Ns.Repo", "Ns.Repo", "dataaccess", "Billing", []string{"graph:interface/X/Ns.IRepo"}),
	}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.FindImplementations(context.Background(), "7.10.2", "graph:interface/X/Ns.IRepo")
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Len(t, result.Implementations, 1)
	assert.Equal(t, "graph:class/X/Ns.Repo", result.Implementations[0].ID)
}

func TestFindInheritanceChainOrdersByDepth(t *testing.T) {
	docs := []bson.M{
		class("graph:class/X/Ns.Base", "Ns.Base", "services", "Billing", nil),
		{"_id": "graph:class/X/Ns.Mid", "name": "Mid", "fullName": "Ns.Mid", "kind": "class", "inherits": []string{"graph:class/X/Ns.Base"}},
		{"_id": "graph:class/X/Ns.Leaf", "name": "Leaf", "fullName": "Ns.Leaf", "kind": "class", "inherits": []string{"graph:class/X/Ns.Mid"}},
	}
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.FindInheritanceChain(context.Background(), "7.10.2", "graph:class/X/Ns.Leaf", 10)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Len(t, result.Ancestors, 2)
	assert.Equal(t, 1, result.Ancestors[0].Depth)
	assert.Equal(t, "graph:class/X/Ns.Mid", result.Ancestors[0].Node.ID)
	assert.Equal(t, 2, result.Ancestors[1].Depth)
	assert.Equal(t, "graph:class/X/Ns.Base", result.Ancestors[1].Node.ID)
}

func TestGetBySolutionFiltersBySolutionExactly(t *testing.T) {
	docs := []bson.M{
		{"_id": "graph:class/X/Ns.A", "name": "A", "fullName": "Ns.A", "kind": "class", "solution": "Acme.sln"},
		{"_id": "graph:class/X/Ns.B", "name": "B", "fullName": "Ns.B", "kind": "class", "solution": "Other.sln"},
	}
	svc := newTestService(t, "7.10.2", docs)

	nodes, err := svc.GetBySolution(context.Background(), "7.10.2", "Acme.sln", "", 50)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "graph:class/X/Ns.A", nodes[0].ID)
}

func TestAnalyzeImpactCriticalForFourFlows(t *testing.T) {
	target := method("graph:method/X/Ns.Core.Save", "Ns.Core.Save", nil, nil)
	callers := []bson.M{}
	for _, proj := range []string{"P1", "P2", "P3", "P4"} {
		callerID := "graph:method/X/Ns.Caller" + proj + ".Do"
		callers = append(callers, method(callerID, "Ns.Caller"+proj+".Do", []string{"graph:method/X/Ns.Core.Save"}, nil))
		callers = append(callers, class("graph:class/X/Ns.Caller"+proj, "Ns.Caller"+proj, "services", proj, nil))
	}
	docs := append([]bson.M{target}, callers...)
	svc := newTestService(t, "7.10.2", docs)

	result, err := svc.AnalyzeImpact(context.Background(), "7.10.2", "graph:method/X/Ns.Core.Save")
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, 4, result.FlowsAffected)
	require.Equal(t, RiskCritical, result.RiskLevel)
}
