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
	"github.com/coreflow/flow/partition"
)

// OperatorKind identifies what an Operator does. TimeWindow and WindowJoin
// are accepted by the LogicalGraph builder (so a chain can be described end
// to end) but are rejected by the compiler with a CompileError: neither has
// a physical execution strategy in this runtime.
type OperatorKind uint8

const (
	KindSource OperatorKind = iota
	KindReadTextFile
	KindMap
	KindFlatMap
	KindFilter
	KindKeyBy
	KindReduce
	KindSum
	KindInspect
	KindSink
	KindTimeWindow
	KindWindowJoin
)

func (k OperatorKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindReadTextFile:
		return "read_text_file"
	case KindMap:
		return "map"
	case KindFlatMap:
		return "flat_map"
	case KindFilter:
		return "filter"
	case KindKeyBy:
		return "key_by"
	case KindReduce:
		return "reduce"
	case KindSum:
		return "sum"
	case KindInspect:
		return "inspect"
	case KindSink:
		return "sink"
	case KindTimeWindow:
		return "time_window"
	case KindWindowJoin:
		return "window_join"
	default:
		return "unknown"
	}
}

// unsupported reports whether the compiler must reject this kind.
func (k OperatorKind) unsupported() bool {
	return k == KindTimeWindow || k == KindWindowJoin
}

// PartitionSpec is the scheme attached to one outgoing edge of an Operator.
// Every edge carries exactly one, defaulted by the builder at the moment
// the edge is created and overridable by the partitioner selector methods
// on DataStream (Shuffle, ShuffleByKey, Broadcast, Rescale, RoundRobin,
// Partition).
type PartitionSpec struct {
	Strategy   partition.Strategy
	Fn         partition.CustomFunc
	Descriptor *partition.Descriptor
}

// Operator is one node of the LogicalGraph: a named, typed unit of work
// with a fixed requested parallelism and the user function it wraps.
type Operator struct {
	ID           int
	Name         string
	Kind         OperatorKind
	Fn           interface{} // one of the *Func types in functions.go, type-asserted by the worker for every record
	NumInstances int
	Aux          interface{} // kind-specific payload: file path, window width, window-join parameters, ...
	StateHook    Store       // optional external collaborator for Reduce/Sum accumulator state

	partitions map[int]PartitionSpec // downstream operator id -> scheme for that edge
}

func newOperator(id int, name string, kind OperatorKind, fn interface{}, parallelism int) *Operator {
	return &Operator{
		ID:           id,
		Name:         name,
		Kind:         kind,
		Fn:           fn,
		NumInstances: parallelism,
		partitions:   make(map[int]PartitionSpec),
	}
}

func (op *Operator) setPartition(dst int, spec PartitionSpec) {
	op.partitions[dst] = spec
}

func (op *Operator) partitionFor(dst int) (spec PartitionSpec, ok bool) {
	spec, ok = op.partitions[dst]
	return spec, ok
}

// defaultPartitionFor returns the scheme a freshly created edge gets before
// any partitioner selector is applied: KeyBy always feeds a ShuffleByKey
// edge since its whole purpose is co-locating a key on one instance; every
// other producer defaults to Forward, mirroring the 1:1 pipe a Processor
// chain uses when no fan-out is requested.
func defaultPartitionFor(srcKind OperatorKind) PartitionSpec {
	if srcKind == KindKeyBy {
		return PartitionSpec{Strategy: partition.ShuffleByKey}
	}
	return PartitionSpec{Strategy: partition.Forward}
}
