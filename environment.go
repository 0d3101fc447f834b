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
	"bufio"
	"os"
	"sync"
	"time"

	"github.com/coreflow/flow/log"
)

const (
	// DefaultBufferSize is the capacity of every DataChannel the compiler
	// creates, unless Environment.SetBufferSize (or the "buffer_size" key
	// read by NewEnvironmentFromConfig) overrides it.
	DefaultBufferSize = 1024
	// DefaultParallelism is the instance count a newly created operator
	// gets unless SetParallelism or Environment.SetParallelism says
	// otherwise.
	DefaultParallelism = 1
	// DefaultCloseTimeout bounds how long Stop waits for in-flight records
	// to drain before giving up on a graceful shutdown.
	DefaultCloseTimeout = 10 * time.Second
)

// Environment is the coordinator: it owns the LogicalGraph being built by
// DataStream, compiles it into a PhysicalGraph on Execute, and supervises
// the worker goroutines that graph spawns. It mirrors the teacher's
// Builder+Stream split collapsed into a single type, since the logical
// graph and the running job share one owner for this runtime's lifetime.
type Environment struct {
	mu sync.Mutex

	name               string
	defaultParallelism int
	bufferSize         int
	closeTimeout       time.Duration
	logger             log.Logger

	graph      *LogicalGraph
	operatorID int

	stores map[string]Store

	compiled bool
	physical *PhysicalGraph
	workers  []*worker
	handles  []*ExecHandle
	closed   bool
}

// NewEnvironment creates an Environment ready to accept Source/ReadTextFile
// calls.
func NewEnvironment(name string) *Environment {
	return &Environment{
		name:               name,
		defaultParallelism: DefaultParallelism,
		bufferSize:         DefaultBufferSize,
		closeTimeout:       DefaultCloseTimeout,
		logger:             log.New("env", name),
		graph:              newLogicalGraph(),
		stores:             make(map[string]Store),
	}
}

// NewEnvironmentFromConfig builds an Environment the same way NewEnvironment
// does, then applies any of the "parallelism", "buffer_size" and
// "close_timeout" dot-path keys cfg carries over the defaults. Keys cfg
// doesn't set are left at their DefaultParallelism/DefaultBufferSize/
// DefaultCloseTimeout values.
func NewEnvironmentFromConfig(name string, cfg Config) *Environment {
	e := NewEnvironment(name)
	e.SetParallelism(cfg.Get("parallelism").Int(e.defaultParallelism))
	e.SetBufferSize(cfg.Get("buffer_size").Int(e.bufferSize))
	e.SetCloseTimeout(cfg.Get("close_timeout").Duration(e.closeTimeout))
	return e
}

// SetParallelism sets the default instance count for operators created
// after this call.
func (e *Environment) SetParallelism(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n > 0 {
		e.defaultParallelism = n
	}
}

// SetBufferSize sets the default DataChannel capacity used at compile
// time.
func (e *Environment) SetBufferSize(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n > 0 {
		e.bufferSize = n
	}
}

// SetCloseTimeout sets how long Stop waits for in-flight records to drain.
func (e *Environment) SetCloseTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeTimeout = d
}

// AddStore registers a named Store, reachable from any TaskContext via
// ctx.Store(name) and attachable to Reduce/Sum as a StateHook.
func (e *Environment) AddStore(store Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.stores[store.Name()]; exists {
		return newBuilderError("AddStore", errStoreExists)
	}
	e.stores[store.Name()] = store
	return nil
}

func (e *Environment) store(name string) (Store, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	store, ok := e.stores[name]
	if !ok {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

func (e *Environment) newOperator(name string, kind OperatorKind, fn interface{}, aux interface{}) *Operator {
	e.operatorID++
	op := newOperator(e.operatorID, name, kind, fn, e.defaultParallelism)
	op.Aux = aux
	e.graph.addOperator(op)
	return op
}

// Source adds a root operator driven by gen to the graph.
func (e *Environment) Source(name string, gen SourceFunc) (*DataStream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, newBuilderError("Source", errEnvClosed)
	}
	if name == "" {
		return nil, newBuilderError("Source", errEmptyName)
	}
	op := e.newOperator(name, KindSource, gen, nil)
	return &DataStream{env: e, opID: op.ID}, nil
}

// ReadTextFile adds a root operator that emits one record per line of
// path, as a string.
func (e *Environment) ReadTextFile(name, path string) (*DataStream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, newBuilderError("ReadTextFile", errEnvClosed)
	}
	if name == "" {
		return nil, newBuilderError("ReadTextFile", errEmptyName)
	}
	op := e.newOperator(name, KindReadTextFile, SourceFunc(readTextFileSource(path)), path)
	return &DataStream{env: e, opID: op.ID}, nil
}

func readTextFileSource(path string) SourceFunc {
	return func(ctx *TaskContext, emit func(payload interface{})) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			emit(scanner.Text())
		}
		return scanner.Err()
	}
}

// ExecHandle is a handle on one running worker, returned by Execute.
type ExecHandle struct {
	TaskID   int
	OpName   string
	Instance int

	donech chan struct{}
	err    error
}

// Done returns a channel closed when this task's worker returns.
func (h *ExecHandle) Done() <-chan struct{} {
	return h.donech
}

// Wait blocks until the worker returns and reports its terminal error, if
// any.
func (h *ExecHandle) Wait() error {
	<-h.donech
	return h.err
}

// Execute freezes the LogicalGraph, compiles it into a PhysicalGraph and
// runs the two-phase init-then-start rollout over every task, in that
// order: no task's Start runs before every task has returned from Init, so
// a worker can assume its peers are already allocated (channels, stores,
// state) by the time it begins producing or consuming records.
func (e *Environment) Execute() ([]*ExecHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, newBuilderError("Execute", errEnvClosed)
	}
	if e.compiled {
		return nil, newBuilderError("Execute", errAlreadyCompiled)
	}

	e.graph.freeze()
	if err := e.graph.validate(); err != nil {
		return nil, newCompileError("%w", err)
	}

	physical, err := compile(e.graph, compileConfig{bufferSize: e.bufferSize})
	if err != nil {
		return nil, err
	}
	e.physical = physical
	e.compiled = true

	workers := make([]*worker, 0, len(physical.Tasks))
	handles := make([]*ExecHandle, 0, len(physical.Tasks))
	for _, task := range physical.Tasks {
		w := newWorker(e, task, physical)
		handle := &ExecHandle{
			TaskID:   task.TaskID,
			OpName:   task.Operator.Name,
			Instance: task.Instance,
			donech:   make(chan struct{}),
		}
		workers = append(workers, w)
		handles = append(handles, handle)
	}
	e.workers = workers
	e.handles = handles

	// Phase 1: Init every task before any task Starts, so no worker
	// observes a peer that hasn't allocated its channels or state yet.
	for _, w := range workers {
		if err := w.init(); err != nil {
			e.logger.Errorw("task init failed", "operator", w.task.Operator.Name, "error", err)
			return nil, err
		}
	}

	// Phase 2: Start every task. Callers observe completion per task via
	// ExecHandle.Wait/Done, not by waiting on the whole batch here.
	for i, w := range workers {
		go func(w *worker, handle *ExecHandle) {
			handle.err = w.run()
			close(handle.donech)
		}(w, handles[i])
	}

	return handles, nil
}

// Stop signals every running task to stop cooperatively and waits up to
// closeTimeout for them to drain.
func (e *Environment) Stop() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	workers := e.workers
	handles := e.handles
	e.mu.Unlock()

	for _, w := range workers {
		w.ctx.cancel()
	}

	done := make(chan struct{})
	go func() {
		for _, h := range handles {
			<-h.Done()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(e.closeTimeout):
		e.logger.Debugw("stop timed out waiting for tasks to drain", "timeout", e.closeTimeout)
	}

	for _, store := range e.stores {
		if c, ok := store.(Closer); ok {
			if err := c.Close(); err != nil {
				return err
			}
		}
	}

	return nil
}

// DotGraph renders the logical graph as a DOT document for the admin
// /graph endpoint.
func (e *Environment) DotGraph() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.dotGraph()
}
