package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBaseFilters(t *testing.T) {
	assert.Empty(t, baseFilters("", "", ""))

	conds := baseFilters("Method", "SolutionA", "ProjectB")
	assert.Len(t, conds, 3)
	assert.Equal(t, bson.M{"kind": "method"}, conds[0])
}

func TestAndFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, andFilter(nil))

	single := bson.A{bson.M{"kind": "method"}}
	assert.Equal(t, bson.M{"kind": "method"}, andFilter(single))

	multi := bson.A{bson.M{"kind": "method"}, bson.M{"project": "x"}}
	assert.Equal(t, bson.M{"$and": multi}, andFilter(multi))
}

func TestApplyPostFiltersContainingClass(t *testing.T) {
	nodes := []*Node{
		{FullName: "Ns.Communication.InsertMessage"},
		{FullName: "Ns.CommunicationService.InsertMessage"},
	}
	out := applyPostFilters(nodes, "Communication", "")
	assert.Len(t, out, 1)
	assert.Equal(t, "Ns.Communication.InsertMessage", out[0].FullName)
}

func TestApplyPostFiltersLayer(t *testing.T) {
	nodes := []*Node{
		{Layer: "services"},
		{Layer: "dataaccess"},
		{Layer: "", Namespace: "Acme.Services.Billing"},
	}
	out := applyPostFilters(nodes, "", "services")
	assert.Len(t, out, 2)
}

func TestApplyPostFiltersNoop(t *testing.T) {
	nodes := []*Node{{FullName: "A.B.C"}}
	out := applyPostFilters(nodes, "", "")
	assert.Equal(t, nodes, out)
}

func TestNodeMatchesLayer(t *testing.T) {
	assert.True(t, nodeMatchesLayer(&Node{Layer: "Services"}, "services"))
	assert.True(t, nodeMatchesLayer(&Node{Project: "Acme.ServiceAgents"}, "serviceagents"))
	assert.False(t, nodeMatchesLayer(&Node{Layer: "dataaccess", Project: "Acme"}, "services"))
}
