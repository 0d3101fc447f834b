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

func buildGraph(srcParallelism, dstParallelism int, spec PartitionSpec) *LogicalGraph {
	g := newLogicalGraph()
	src := newOperator(1, "src", KindSource, nil, srcParallelism)
	dst := newOperator(2, "dst", KindSink, SinkFunc(func(Record) error { return nil }), dstParallelism)
	g.addOperator(src)
	g.addOperator(dst)
	g.addEdge(1, 2, spec)
	return g
}

func TestCompileForwardChannelCount(t *testing.T) {
	g := buildGraph(2, 2, PartitionSpec{Strategy: partition.Forward})
	pg, err := compile(g, compileConfig{bufferSize: 4})
	assert.NoError(t, err)
	assert.Len(t, pg.Tasks, 4)

	total := 0
	for _, task := range pg.Tasks {
		for _, group := range pg.outputs[task.TaskID] {
			total += len(group.channels)
		}
	}
	assert.Equal(t, 2, total, "forward allocates exactly one channel per source instance")
}

func TestCompileShuffleChannelCount(t *testing.T) {
	g := buildGraph(2, 3, PartitionSpec{Strategy: partition.Shuffle})
	pg, err := compile(g, compileConfig{bufferSize: 4})
	assert.NoError(t, err)

	total := 0
	for _, task := range pg.Tasks {
		for _, group := range pg.outputs[task.TaskID] {
			total += len(group.channels)
		}
	}
	assert.Equal(t, 2*3, total, "shuffle-family allocates N*M channels")
}

func TestCompileRescaleContiguousGroups(t *testing.T) {
	g := buildGraph(2, 4, PartitionSpec{Strategy: partition.Rescale})
	pg, err := compile(g, compileConfig{bufferSize: 4})
	assert.NoError(t, err)

	total := 0
	for _, task := range pg.Tasks {
		for _, group := range pg.outputs[task.TaskID] {
			total += len(group.channels)
		}
	}
	assert.Equal(t, 4, total, "rescale still covers every downstream instance exactly once")
}

func TestCompileRejectsUnsupportedKind(t *testing.T) {
	g := newLogicalGraph()
	src := newOperator(1, "src", KindSource, nil, 1)
	win := newOperator(2, "win", KindTimeWindow, nil, 1)
	g.addOperator(src)
	g.addOperator(win)
	g.addEdge(1, 2, PartitionSpec{Strategy: partition.Forward})

	_, err := compile(g, compileConfig{bufferSize: 4})
	assert.Error(t, err)
}

func TestCompileRejectsZeroParallelism(t *testing.T) {
	g := newLogicalGraph()
	src := newOperator(1, "src", KindSource, nil, 0)
	g.addOperator(src)

	_, err := compile(g, compileConfig{bufferSize: 4})
	assert.Error(t, err)
}

func TestCompileEachInstanceOwnsDistinctChannels(t *testing.T) {
	g := buildGraph(2, 2, PartitionSpec{Strategy: partition.Shuffle})
	pg, err := compile(g, compileConfig{bufferSize: 4})
	assert.NoError(t, err)

	seen := make(map[interface{}]bool)
	for _, task := range pg.Tasks {
		for _, group := range pg.outputs[task.TaskID] {
			for _, ch := range group.channels {
				assert.False(t, seen[ch], "no channel should be shared across producer instances")
				seen[ch] = true
			}
		}
	}
}
