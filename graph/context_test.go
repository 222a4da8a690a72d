package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterByNamespaceKeepsMatchingSubstring(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Namespace: "Acme.Services"},
		{ID: "b", Namespace: "Acme.DataAccess"},
	}
	out := filterByNamespace(nodes, "services")
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestFilterByNamespaceNoMatchesReturnsEmpty(t *testing.T) {
	nodes := []*Node{{ID: "a", Namespace: "Acme.Services"}}
	out := filterByNamespace(nodes, "nope")
	assert.Empty(t, out)
}
