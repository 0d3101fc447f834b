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
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"reflect"

	"github.com/coreflow/flow/channel"
	"github.com/coreflow/flow/partition"
)

var errRecordNotKeyed = errors.New("flow: operator requires a keyed record; is it downstream of KeyBy?")

func init() {
	// Reduce/Sum accumulators are encoded as interface{} values; gob needs
	// every concrete type that can appear there registered up front.
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(string(""))
}

// worker is the runtime loop for exactly one Task. It owns its input and
// output DataChannels and the accumulator state of a Reduce or Sum
// operator; none of that is shared with any other worker, so nothing here
// needs a lock (everything that looks stateful is thread-confined to the
// one goroutine run() executes on).
type worker struct {
	env  *Environment
	task *Task
	ctx  *TaskContext

	inputs  []*channel.DataChannel[Record]
	outputs []*outputGroup

	liveInputs []*channel.DataChannel[Record]
	state      map[interface{}]interface{}
}

func newWorker(env *Environment, task *Task, pg *PhysicalGraph) *worker {
	return &worker{
		env:     env,
		task:    task,
		ctx:     newTaskContext(env, task),
		inputs:  pg.inputs[task.TaskID],
		outputs: pg.outputs[task.TaskID],
		state:   make(map[interface{}]interface{}),
	}
}

// init runs every Initializer hook this task's operator depends on: its
// StateHook, if any, and its user function, if it implements Initializer.
// The Environment runs init on every task before Start-ing any of them.
func (w *worker) init() error {
	w.liveInputs = append([]*channel.DataChannel[Record](nil), w.inputs...)

	if hook := w.task.Operator.StateHook; hook != nil {
		if initializer, ok := hook.(Initializer); ok {
			if err := initializer.Init(w.ctx); err != nil {
				return err
			}
		}
		if registrable, ok := hook.(Registrable); ok {
			if err := registrable.Register(w.task.TaskID); err != nil {
				return err
			}
		}
	}

	if initializer, ok := w.task.Operator.Fn.(Initializer); ok {
		if err := initializer.Init(w.ctx); err != nil {
			return err
		}
	}

	return nil
}

// run is the Start phase of the two-phase rollout: it drives the task
// until its inputs (or, for a source, its generator) are exhausted or the
// environment cancels it, then closes every output channel so downstream
// tasks observe EOS.
func (w *worker) run() (err error) {
	defer w.closeOutputs()

	if starter, ok := w.task.Operator.Fn.(Starter); ok {
		if err := starter.Start(); err != nil {
			return err
		}
	}

	switch w.task.Operator.Kind {
	case KindSource, KindReadTextFile:
		err = w.runSource()
	default:
		err = w.runLoop()
	}

	if closer, ok := w.task.Operator.Fn.(Closer); ok {
		if closeErr := closer.Close(); err == nil {
			err = closeErr
		}
	}

	return err
}

func (w *worker) closeOutputs() {
	for _, group := range w.outputs {
		for _, ch := range group.channels {
			ch.Close()
		}
	}
}

func (w *worker) runSource() error {
	gen, ok := w.task.Operator.Fn.(SourceFunc)
	if !ok {
		return newCompileError("operator %q is a source with no SourceFunc attached", w.task.Operator.Name)
	}

	var routeErr error
	emit := func(payload interface{}) {
		if routeErr != nil {
			return
		}
		routeErr = w.route(NewRecord(payload))
	}

	if err := gen(w.ctx, emit); err != nil {
		return err
	}
	return routeErr
}

// runLoop is the kind-agnostic step() dispatch for every non-source
// operator: fairly pull one record from whichever input is ready, run it
// through the operator's step function, and route every resulting record.
func (w *worker) runLoop() error {
	for {
		rec, ok, err := w.pull()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		out, err := w.step(rec)
		if err != nil {
			return err
		}
		for _, o := range out {
			if err := w.route(o); err != nil {
				return err
			}
		}
	}
}

// pull fairly multiplexes across every live input channel using
// reflect.Select, since the fan-in arity is only known at compile time:
// Go's select (and reflect.Select, which implements the same semantics for
// a dynamic case list) picks uniformly at random among the ready cases,
// which is enough to satisfy a fair scheduling discipline across inputs.
// Case 0 is always the task's cancellation signal, so a worker blocked
// waiting on empty inputs still reacts to Environment.Stop.
func (w *worker) pull() (rec Record, ok bool, err error) {
	for len(w.liveInputs) > 0 {
		cases := make([]reflect.SelectCase, len(w.liveInputs)+1)
		cases[0] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(w.ctx.Done())}
		for i, ch := range w.liveInputs {
			cases[i+1] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch.Chan())}
		}

		chosen, value, recvOK := reflect.Select(cases)
		if chosen == 0 {
			return Record{}, false, nil
		}

		if !recvOK {
			idx := chosen - 1
			w.liveInputs = append(w.liveInputs[:idx], w.liveInputs[idx+1:]...)
			continue
		}

		return value.Interface().(Record), true, nil
	}

	return Record{}, false, nil
}

// step applies the operator's user function to one input record, yielding
// zero or more output records. Kind dispatch is table-free by design: each
// case type-asserts the Fn stored in the Operator and calls it directly. A
// panic raised while applying the function is returned as a UserError.
func (w *worker) step(rec Record) (out []Record, err error) {
	op := w.task.Operator

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch op.Kind {
	case KindMap:
		fn := op.Fn.(MapFunc)
		v, err := fn(rec.Payload())
		if err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		return []Record{rec.WithPayload(v)}, nil

	case KindFlatMap:
		fn := op.Fn.(FlatMapFunc)
		vs, err := fn(rec.Payload())
		if err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		out := make([]Record, len(vs))
		for i, v := range vs {
			out[i] = rec.WithPayload(v)
		}
		return out, nil

	case KindFilter:
		fn := op.Fn.(FilterFunc)
		keep, err := fn(rec.Payload())
		if err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		if !keep {
			return nil, nil
		}
		return []Record{rec}, nil

	case KindKeyBy:
		sel := op.Fn.(KeySelector)
		key, err := sel(rec.Payload())
		if err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		return []Record{rec.WithKey(key)}, nil

	case KindReduce:
		key, keyed := rec.Key()
		if !keyed {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: errRecordNotKeyed}
		}
		fn := op.Fn.(ReduceFunc)
		next, err := fn(w.state[key], rec.Payload())
		if err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		w.state[key] = next
		if err := w.persistState(op, key, next); err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		return []Record{rec.WithPayload(next)}, nil

	case KindSum:
		key, keyed := rec.Key()
		if !keyed {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: errRecordNotKeyed}
		}
		sel := op.Fn.(AttrSelector)
		delta, err := sel(rec.Payload())
		if err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		sum, err := addNumeric(w.state[key], delta)
		if err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		w.state[key] = sum
		if err := w.persistState(op, key, sum); err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		return []Record{rec.WithPayload(sum)}, nil

	case KindInspect:
		fn := op.Fn.(InspectFunc)
		fn(rec)
		return []Record{rec}, nil

	case KindSink:
		fn := op.Fn.(SinkFunc)
		if err := fn(rec); err != nil {
			return nil, &UserError{TaskID: w.task.TaskID, OpName: op.Name, Record: rec, Err: err}
		}
		return nil, nil

	default:
		return nil, newCompileError("operator %q has kind %s, which has no worker step", op.Name, op.Kind)
	}
}

// route applies the Partitioner of every downstream edge to rec and sends
// it on the selected channels. A Partitioner returning an empty or
// out-of-range index set is a RoutingError; a Send on an already-closed
// channel (which should never happen before this task's own shutdown) is
// a ChannelError. Either fails the task and is escalated by the
// Environment.
func (w *worker) route(rec Record) error {
	for _, group := range w.outputs {
		n := len(group.channels)
		idxs, err := group.partitioner.Partition(rec, n)
		if err != nil {
			return &RoutingError{TaskID: w.task.TaskID, OpName: w.task.Operator.Name, Err: err}
		}
		if len(idxs) == 0 {
			return &RoutingError{TaskID: w.task.TaskID, OpName: w.task.Operator.Name, Err: partition.ErrInvalidResult}
		}
		for _, idx := range idxs {
			if idx < 0 || idx >= n {
				return &RoutingError{TaskID: w.task.TaskID, OpName: w.task.Operator.Name, Err: partition.ErrInvalidResult}
			}
			if err := group.channels[idx].Send(rec); err != nil {
				return &ChannelError{TaskID: w.task.TaskID, Err: err}
			}
		}
	}
	return nil
}

// persistState writes a Reduce/Sum accumulator update through the
// operator's StateHook, if one is attached, so it survives outside this
// process's memory. Values are gob-encoded, the same encoding
// descriptor.go already uses for custom partitioner registration. Keys
// are encoded via Encoder when the KeySelector produced one (so the same
// byte form the caller chose is what lands in the Store), falling back to
// their string form otherwise.
func (w *worker) persistState(op *Operator, key, value interface{}) error {
	if op.StateHook == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&value); err != nil {
		return err
	}
	return op.StateHook.Set(encodeKey(key), buf.Bytes())
}

// encodeKey renders a Reduce/Sum routing key to bytes for use as a Store
// key, preferring the key's own Encoder when it implements one.
func encodeKey(key interface{}) []byte {
	if enc, ok := key.(Encoder); ok {
		if b, err := enc.Encode(); err == nil {
			return b
		}
	}
	return []byte(fmt.Sprintf("%v", key))
}

func addNumeric(acc, delta interface{}) (interface{}, error) {
	if acc == nil {
		return delta, nil
	}

	switch a := acc.(type) {
	case int:
		d, ok := delta.(int)
		if !ok {
			return nil, fmt.Errorf("flow: Sum accumulator is int, got %T", delta)
		}
		return a + d, nil
	case int64:
		d, ok := delta.(int64)
		if !ok {
			return nil, fmt.Errorf("flow: Sum accumulator is int64, got %T", delta)
		}
		return a + d, nil
	case float64:
		d, ok := delta.(float64)
		if !ok {
			return nil, fmt.Errorf("flow: Sum accumulator is float64, got %T", delta)
		}
		return a + d, nil
	default:
		return nil, fmt.Errorf("flow: Sum does not support accumulator type %T", acc)
	}
}
