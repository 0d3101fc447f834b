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
	"testing"

	"github.com/coreflow/flow/partition"
	"github.com/stretchr/testify/assert"
)

func TestLogicalGraphEmptyIsInvalid(t *testing.T) {
	g := newLogicalGraph()
	assert.Equal(t, errInvalidDag, g.validate())
}

func TestLogicalGraphAddOperatorAndEdge(t *testing.T) {
	g := newLogicalGraph()
	src := newOperator(1, "source", KindSource, nil, 1)
	dst := newOperator(2, "map", KindMap, nil, 1)
	g.addOperator(src)
	g.addOperator(dst)
	g.addEdge(1, 2, PartitionSpec{Strategy: partition.Forward})

	assert.NoError(t, g.validate())
	assert.Equal(t, []int{2}, g.successors(1))

	op, ok := g.operator(2)
	assert.True(t, ok)
	assert.Equal(t, "map", op.Name)
}

func TestLogicalGraphTopoOrderRejectsCycle(t *testing.T) {
	g := newLogicalGraph()
	g.addOperator(newOperator(1, "a", KindSource, nil, 1))
	g.addOperator(newOperator(2, "b", KindMap, nil, 1))
	g.addEdge(1, 2, PartitionSpec{Strategy: partition.Forward})
	g.addEdge(2, 1, PartitionSpec{Strategy: partition.Forward})

	_, err := g.topoOrder()
	assert.Error(t, err)
}

func TestLogicalGraphDotGraph(t *testing.T) {
	g := newLogicalGraph()
	g.addOperator(newOperator(1, "source", KindSource, nil, 1))
	g.addOperator(newOperator(2, "sink", KindSink, nil, 1))
	g.addEdge(1, 2, PartitionSpec{Strategy: partition.Shuffle})

	dot := g.dotGraph()
	assert.Contains(t, dot, `"source" -> "sink"`)
	assert.Contains(t, dot, "shuffle")
}

func TestLogicalGraphFreezeIsIdempotent(t *testing.T) {
	g := newLogicalGraph()
	g.freeze()
	g.freeze()
	assert.True(t, g.frozen)
}
