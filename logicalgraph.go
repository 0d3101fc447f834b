package flow

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreflow/flow/internal/graph"
)

var errInvalidDag = errors.New("flow: logical graph has no operators")

// LogicalGraph is the acyclic graph of Operators an Environment builds up
// through its DataStream handles: a node for every Source/Map/Filter/...
// call, an edge for every producer -> consumer relationship, and exactly
// one PartitionSpec per edge. It mirrors the teacher's topology type, but
// edges now carry the routing scheme instead of being plain successor
// pointers.
type LogicalGraph struct {
	operators map[int]*Operator
	order     []int
	dag       *graph.DAG[int]
	frozen    bool
}

func newLogicalGraph() *LogicalGraph {
	return &LogicalGraph{
		operators: make(map[int]*Operator),
		dag:       graph.New[int](),
	}
}

func (g *LogicalGraph) addOperator(op *Operator) {
	g.operators[op.ID] = op
	g.order = append(g.order, op.ID)
	g.dag.AddNode(op.ID)
}

func (g *LogicalGraph) addEdge(src, dst int, spec PartitionSpec) {
	g.dag.AddEdge(src, dst)
	g.operators[src].setPartition(dst, spec)
}

func (g *LogicalGraph) operator(id int) (op *Operator, ok bool) {
	op, ok = g.operators[id]
	return op, ok
}

// successors returns the downstream operator ids of src in the order their
// edges were added; PartitionSpec lookups key off the same id.
func (g *LogicalGraph) successors(src int) (dsts []int) {
	op := g.operators[src]
	for _, dst := range g.order {
		if _, ok := op.partitions[dst]; ok {
			dsts = append(dsts, dst)
		}
	}
	return dsts
}

// freeze marks the graph read-only; called once by Environment.Execute
// before compilation. Idempotent.
func (g *LogicalGraph) freeze() {
	g.frozen = true
}

// topoOrder returns operator ids such that every edge points from an
// earlier id to a later one, using Kahn's algorithm (see internal/graph).
func (g *LogicalGraph) topoOrder() (order []int, err error) {
	return g.dag.TopologicalSort()
}

// validate checks the structural invariants that don't depend on
// parallelism: the graph has at least one operator and is acyclic. It does
// not check that every non-source operator has an incoming edge, nor that
// every operator is connected to a source or a sink, nor the operator
// kinds; compile separately rejects unsupported kinds and a sink with no
// upstream producer.
func (g *LogicalGraph) validate() error {
	if len(g.operators) == 0 {
		return errInvalidDag
	}
	if _, err := g.topoOrder(); err != nil {
		return err
	}
	return nil
}

// dotGraph renders the logical graph as a DOT document, for the admin
// /graph endpoint.
func (g *LogicalGraph) dotGraph() string {
	sb := &strings.Builder{}
	sb.WriteString("digraph LogicalGraph {\nrankdir=LR;\n")
	for _, id := range g.order {
		op := g.operators[id]
		for _, dst := range g.successors(id) {
			spec := op.partitions[dst]
			sb.WriteString(fmt.Sprintf(
				`"%s" -> "%s" [label=%q]`,
				op.Name, g.operators[dst].Name, spec.Strategy.String()))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
