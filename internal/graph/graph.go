// Package graph implements topological sort over a small opaque-id DAG
// using Kahn's algorithm, replacing the NetworkX dependency the original
// implementation used: the specification explicitly calls for adjacency
// lists and Kahn's algorithm instead of pulling in a graph library for a
// job this size.
package graph

import "errors"

// ErrCycle is returned when the adjacency map does not describe a DAG.
var ErrCycle = errors.New("graph: cycle detected")

// DAG is a directed acyclic graph over comparable node ids, represented as
// an adjacency list of outgoing edges.
type DAG[ID comparable] struct {
	nodes []ID
	edges map[ID][]ID
	seen  map[ID]bool
}

// New creates an empty DAG.
func New[ID comparable]() *DAG[ID] {
	return &DAG[ID]{
		edges: make(map[ID][]ID),
		seen:  make(map[ID]bool),
	}
}

// AddNode registers a node with no edges if it isn't already present.
func (g *DAG[ID]) AddNode(id ID) {
	if !g.seen[id] {
		g.seen[id] = true
		g.nodes = append(g.nodes, id)
	}
}

// AddEdge records a directed edge from -> to. Both ids are registered as
// nodes if not already present.
func (g *DAG[ID]) AddEdge(from, to ID) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from] = append(g.edges[from], to)
}

// TopologicalSort returns the nodes in an order where every edge points
// from an earlier node to a later one. Returns ErrCycle if the graph is not
// acyclic, or if some node is unreachable from the sort because it
// participates in a cycle.
func (g *DAG[ID]) TopologicalSort() (order []ID, err error) {
	indegree := make(map[ID]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = 0
	}
	for _, dsts := range g.edges {
		for _, d := range dsts {
			indegree[d]++
		}
	}

	var queue []ID
	for _, n := range g.nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order = make([]ID, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		for _, d := range g.edges[n] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}

	return order, nil
}
