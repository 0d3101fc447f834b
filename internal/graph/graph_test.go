package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func TestTopologicalSortOrdersEdges(t *testing.T) {
	g := New[string]()
	g.AddEdge("source", "map")
	g.AddEdge("map", "sink")
	g.AddEdge("source", "sink")

	order, err := g.TopologicalSort()
	assert.NoError(t, err)
	assert.Len(t, order, 3)
	assert.Less(t, indexOf(order, "source"), indexOf(order, "map"))
	assert.Less(t, indexOf(order, "map"), indexOf(order, "sink"))
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	g := New[string]()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	_, err := g.TopologicalSort()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestIsolatedNodeIncluded(t *testing.T) {
	g := New[string]()
	g.AddNode("lonely")
	order, err := g.TopologicalSort()
	assert.NoError(t, err)
	assert.Equal(t, []string{"lonely"}, order)
}
