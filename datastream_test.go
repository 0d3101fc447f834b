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

func noopSource(ctx *TaskContext, emit func(payload interface{})) error {
	return nil
}

func TestDataStreamDefaultSchemeIsForward(t *testing.T) {
	env := NewEnvironment("test")
	src, err := env.Source("source", noopSource)
	assert.NoError(t, err)
	assert.Equal(t, partition.Forward, src.scheme().Strategy)
}

func TestDataStreamKeyByDefaultsToShuffleByKey(t *testing.T) {
	env := NewEnvironment("test")
	src, err := env.Source("source", noopSource)
	assert.NoError(t, err)

	keyed, err := src.KeyBy("key", func(interface{}) (interface{}, error) { return "k", nil })
	assert.NoError(t, err)
	assert.Equal(t, partition.ShuffleByKey, keyed.scheme().Strategy)
}

func TestDataStreamPartitionerSelectorOverridesScheme(t *testing.T) {
	env := NewEnvironment("test")
	src, err := env.Source("source", noopSource)
	assert.NoError(t, err)

	assert.Equal(t, partition.Broadcast, src.Broadcast().scheme().Strategy)
	assert.Equal(t, partition.Shuffle, src.Shuffle().scheme().Strategy)
	assert.Equal(t, partition.Rescale, src.Rescale().scheme().Strategy)
	assert.Equal(t, partition.RoundRobin, src.RoundRobin().scheme().Strategy)
}

func TestDataStreamSinkRejectsFurtherTransform(t *testing.T) {
	env := NewEnvironment("test")
	src, err := env.Source("source", noopSource)
	assert.NoError(t, err)

	sink, err := src.Sink("sink", func(Record) error { return nil })
	assert.NoError(t, err)

	_, err = sink.Map("after-sink", func(v interface{}) (interface{}, error) { return v, nil })
	assert.Error(t, err)
}

func TestDataStreamEmptyNameRejected(t *testing.T) {
	env := NewEnvironment("test")
	src, err := env.Source("source", noopSource)
	assert.NoError(t, err)

	_, err = src.Map("", func(v interface{}) (interface{}, error) { return v, nil })
	assert.Error(t, err)
}

func TestDataStreamSetParallelismRejectsNonPositive(t *testing.T) {
	env := NewEnvironment("test")
	src, err := env.Source("source", noopSource)
	assert.NoError(t, err)

	_, err = src.SetParallelism(0)
	assert.Error(t, err)

	out, err := src.SetParallelism(4)
	assert.NoError(t, err)
	op, _ := env.graph.operator(out.opID)
	assert.Equal(t, 4, op.NumInstances)
}

func TestDataStreamReduceAttachesStateHook(t *testing.T) {
	env := NewEnvironment("test")
	src, err := env.Source("source", noopSource)
	assert.NoError(t, err)

	keyed, err := src.KeyBy("key", func(interface{}) (interface{}, error) { return "k", nil })
	assert.NoError(t, err)

	hook := newMockStore()
	reduced, err := keyed.Reduce("reduce", func(acc, v interface{}) (interface{}, error) { return v, nil }, hook)
	assert.NoError(t, err)

	op, _ := env.graph.operator(reduced.opID)
	assert.Equal(t, hook, op.StateHook)
}
