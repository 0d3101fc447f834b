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
	"github.com/coreflow/flow/log"
)

// TaskContext is the execution context handed to a worker's user function.
// It exposes read-only task identity, the environment's stores, contextual
// logging and a cancellation signal. A TaskContext is owned by exactly one
// worker goroutine and must not be shared across tasks.
type TaskContext struct {
	env    *Environment
	task   *Task
	logger log.Logger
	donech chan struct{}
}

func newTaskContext(env *Environment, task *Task) *TaskContext {
	return &TaskContext{
		env:  env,
		task: task,
		logger: log.New(
			"env", env.name,
			"operator", task.Operator.Name,
			"task_id", task.TaskID,
			"instance", task.Instance),
		donech: make(chan struct{}),
	}
}

// TaskID returns the dense, topologically ordered id assigned to this task
// by the compiler.
func (c *TaskContext) TaskID() (id int) {
	return c.task.TaskID
}

// OperatorName returns the name of the operator this task instantiates.
func (c *TaskContext) OperatorName() (name string) {
	return c.task.Operator.Name
}

// Instance returns this task's instance index within its operator, in
// [0, Parallelism).
func (c *TaskContext) Instance() (index int) {
	return c.task.Instance
}

// Parallelism returns the number of instances configured for this task's
// operator.
func (c *TaskContext) Parallelism() (n int) {
	return c.task.Operator.NumInstances
}

// Store returns the named store registered on the owning Environment.
func (c *TaskContext) Store(name string) (store Store, err error) {
	return c.env.store(name)
}

// Logger returns this task's contextual logger.
func (c *TaskContext) Logger() (logger log.Logger) {
	return c.logger
}

// Done returns a channel closed when the environment begins a cooperative
// shutdown. Long-running SourceFunc implementations must select on it.
func (c *TaskContext) Done() (done <-chan struct{}) {
	return c.donech
}

func (c *TaskContext) cancel() {
	select {
	case <-c.donech:
	default:
		close(c.donech)
	}
}

// NewTestContext builds a standalone TaskContext for unit-testing a
// SourceFunc, Map/Reduce/Sum function or Store outside of a compiled
// Environment. The returned context is not attached to any running worker;
// callers own its lifecycle and may call Cancel to close Done.
func NewTestContext(envName, operatorName string, instance int) *TaskContext {
	env := NewEnvironment(envName)
	op := &Operator{ID: 0, Name: operatorName, NumInstances: instance + 1}
	task := &Task{TaskID: 0, OpID: 0, Instance: instance, Operator: op}
	return newTaskContext(env, task)
}

// Cancel closes ctx's Done channel, as Environment.Stop would.
func (c *TaskContext) Cancel() {
	c.cancel()
}
