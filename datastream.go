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

// DataStream is a handle on one producing Operator of an Environment's
// LogicalGraph. It is a half-open edge: calling a partitioner selector
// (Shuffle, ShuffleByKey, Broadcast, Rescale, RoundRobin, Partition) only
// records the scheme the *next* transform's edge should use; the edge
// itself, and the downstream Operator it points at, only come into
// existence once that next transform call runs. A DataStream with no
// pending scheme defaults to Forward (or ShuffleByKey, if it is rooted at
// a KeyBy), matching the teacher's one-parent-per-processor wiring.
type DataStream struct {
	env     *Environment
	opID    int
	pending *PartitionSpec
	sink    bool
}

func (s *DataStream) scheme() PartitionSpec {
	if s.pending != nil {
		return *s.pending
	}
	op, _ := s.env.graph.operator(s.opID)
	return defaultPartitionFor(op.Kind)
}

func (s *DataStream) withScheme(spec PartitionSpec) *DataStream {
	return &DataStream{env: s.env, opID: s.opID, pending: &spec, sink: s.sink}
}

// Shuffle hashes the record payload across the downstream instances.
func (s *DataStream) Shuffle() *DataStream {
	return s.withScheme(PartitionSpec{Strategy: partition.Shuffle})
}

// ShuffleByKey hashes the record key across the downstream instances,
// guaranteeing records with the same key reach the same instance. The
// record must have been produced by KeyBy upstream of this call.
func (s *DataStream) ShuffleByKey() *DataStream {
	return s.withScheme(PartitionSpec{Strategy: partition.ShuffleByKey})
}

// Broadcast sends every record to all downstream instances.
func (s *DataStream) Broadcast() *DataStream {
	return s.withScheme(PartitionSpec{Strategy: partition.Broadcast})
}

// Rescale fans out only within a contiguous group of downstream instances
// assigned to each upstream instance, avoiding the full shuffle a Shuffle
// edge would require when both sides just need a rebalance.
func (s *DataStream) Rescale() *DataStream {
	return s.withScheme(PartitionSpec{Strategy: partition.Rescale})
}

// RoundRobin advances a thread-confined counter over the downstream
// instances.
func (s *DataStream) RoundRobin() *DataStream {
	return s.withScheme(PartitionSpec{Strategy: partition.RoundRobin})
}

// Partition delegates routing to fn.
func (s *DataStream) Partition(fn partition.CustomFunc) *DataStream {
	return s.withScheme(PartitionSpec{Strategy: partition.Custom, Fn: fn})
}

func (s *DataStream) transform(name string, kind OperatorKind, fn interface{}, aux interface{}) (*DataStream, error) {
	if s.env.closed {
		return nil, newBuilderError(name, errEnvClosed)
	}
	if s.sink {
		return nil, newBuilderError(name, errTerminatedStream)
	}
	if name == "" {
		return nil, newBuilderError(name, errEmptyName)
	}

	op := s.env.newOperator(name, kind, fn, aux)
	s.env.graph.addEdge(s.opID, op.ID, s.scheme())

	return &DataStream{env: s.env, opID: op.ID}, nil
}

// Map applies fn to every record, producing exactly one output record per
// input.
func (s *DataStream) Map(name string, fn MapFunc) (*DataStream, error) {
	return s.transform(name, KindMap, fn, nil)
}

// FlatMap applies fn to every record, producing zero or more output
// records per input.
func (s *DataStream) FlatMap(name string, fn FlatMapFunc) (*DataStream, error) {
	return s.transform(name, KindFlatMap, fn, nil)
}

// Filter keeps only the records for which fn returns true.
func (s *DataStream) Filter(name string, fn FilterFunc) (*DataStream, error) {
	return s.transform(name, KindFilter, fn, nil)
}

// KeyBy projects a routing key onto every record with sel. The returned
// stream defaults to a ShuffleByKey edge on its next transform, so co-
// located keys land on one downstream instance.
func (s *DataStream) KeyBy(name string, sel KeySelector) (*DataStream, error) {
	return s.transform(name, KindKeyBy, sel, nil)
}

// Reduce folds every record sharing a key into a running accumulator via
// fn, emitting the updated accumulator as a keyed record. hook, if
// non-nil, is registered as the operator's StateHook for external
// checkpointing. The upstream edge must be keyed (i.e. come from KeyBy).
func (s *DataStream) Reduce(name string, fn ReduceFunc, hook Store) (*DataStream, error) {
	next, err := s.transform(name, KindReduce, fn, nil)
	if err != nil {
		return nil, err
	}
	if hook != nil {
		op, _ := s.env.graph.operator(next.opID)
		op.StateHook = hook
	}
	return next, nil
}

// Sum accumulates the numeric field sel extracts, per key, emitting the
// running total as a keyed record. hook, if non-nil, is registered as the
// operator's StateHook.
func (s *DataStream) Sum(name string, sel AttrSelector, hook Store) (*DataStream, error) {
	next, err := s.transform(name, KindSum, sel, nil)
	if err != nil {
		return nil, err
	}
	if hook != nil {
		op, _ := s.env.graph.operator(next.opID)
		op.StateHook = hook
	}
	return next, nil
}

// TimeWindow groups records into non-overlapping windows of the given
// width. Accepted by the builder so a pipeline description can name it end
// to end, but rejected by the compiler: see CompileError.
func (s *DataStream) TimeWindow(name string, widthMillis int64) (*DataStream, error) {
	return s.transform(name, KindTimeWindow, nil, widthMillis)
}

// WindowJoin joins this stream with other over a shared key within the
// given window width. Accepted by the builder, rejected by the compiler.
func (s *DataStream) WindowJoin(name string, other *DataStream, widthMillis int64) (*DataStream, error) {
	return s.transform(name, KindWindowJoin, nil, windowJoinAux{other: other.opID, widthMillis: widthMillis})
}

type windowJoinAux struct {
	other       int
	widthMillis int64
}

// Inspect observes every record without transforming it and forwards it
// unchanged; useful for metrics or debug logging hung off the middle of a
// pipeline.
func (s *DataStream) Inspect(name string, fn InspectFunc) (*DataStream, error) {
	return s.transform(name, KindInspect, fn, nil)
}

// Sink terminates the stream at fn. The returned DataStream is rooted at a
// sink and rejects any further transform.
func (s *DataStream) Sink(name string, fn SinkFunc) (*DataStream, error) {
	next, err := s.transform(name, KindSink, fn, nil)
	if err != nil {
		return nil, err
	}
	next.sink = true
	return next, nil
}

// SetParallelism sets the number of instances the operator this stream is
// currently rooted at will be compiled into. Must be called before
// Environment.Execute.
func (s *DataStream) SetParallelism(n int) (*DataStream, error) {
	if n < 1 {
		return nil, newBuilderError("SetParallelism", errInvalidScale)
	}
	op, _ := s.env.graph.operator(s.opID)
	op.NumInstances = n
	return s, nil
}
