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

// Initializer is implemented by a user function or a Store that needs to
// run setup logic, given the TaskContext of the worker it is bound to,
// before the two-phase rollout reaches Start.
type Initializer interface {
	Init(ctx *TaskContext) (err error)
}

// Starter is implemented by a user function that has to run logic only
// after every task in the graph has finished Init, e.g. because it needs
// its peers already initialized. Start is not called on a StateHook.
type Starter interface {
	Start() (err error)
}

// Closer is implemented by a user function or a Store that holds resources
// that must be released on graph shutdown.
type Closer interface {
	Close() (err error)
}

// Registrable is implemented by a StateHook that wants to track which
// tasks are writing through it, e.g. for external checkpointing.
type Registrable interface {
	Register(taskID int) (err error)
}

// SourceFunc generates records for a source operator. emit is safe to call
// any number of times; the function returns when the source is exhausted
// or ctx.Done() fires. A blocking SourceFunc that never returns runs until
// Environment.Stop cancels ctx.
type SourceFunc func(ctx *TaskContext, emit func(payload interface{})) (err error)

// MapFunc transforms one record into exactly one record.
type MapFunc func(payload interface{}) (result interface{}, err error)

// FlatMapFunc transforms one record into zero or more records.
type FlatMapFunc func(payload interface{}) (results []interface{}, err error)

// FilterFunc reports whether a record should be kept.
type FilterFunc func(payload interface{}) (keep bool, err error)

// KeySelector extracts the routing key used by KeyBy and, downstream of it,
// by ShuffleByKey and Reduce/Sum state partitioning.
type KeySelector func(payload interface{}) (key interface{}, err error)

// ReduceFunc folds an incoming value into the running accumulator for its
// key. acc is nil the first time a key is seen.
type ReduceFunc func(acc, payload interface{}) (next interface{}, err error)

// AttrSelector extracts the numeric field that Sum accumulates.
type AttrSelector func(payload interface{}) (value interface{}, err error)

// InspectFunc observes a record without transforming it, e.g. for metrics
// or debug logging. It receives the full Record, not just its payload, so
// it can recover the routing key a preceding KeyBy attached — the running
// accumulator Reduce/Sum emits as payload is otherwise indistinguishable
// from any other key's.
type InspectFunc func(record Record)

// SinkFunc consumes a record at the end of the graph. Like InspectFunc, it
// receives the full Record so a Sink downstream of KeyBy/Reduce/Sum can
// recover the key the payload belongs to, matching the original
// Processor.Process(pc, record) shape.
type SinkFunc func(record Record) (err error)
