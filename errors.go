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
)

// Sentinel errors used by the builder and environment lifecycle.
var (
	errEmptyName          = errors.New("flow: name cannot be empty")
	errParentNotFound     = errors.New("flow: parent operator not found")
	errStreamClosed       = errors.New("flow: stream already terminated")
	errTerminatedStream   = errors.New("flow: cannot transform a terminated or sink-rooted stream")
	errInvalidScale       = errors.New("flow: parallelism must be > 0")
	errEnvClosed          = errors.New("flow: environment already executing or stopped")
	errAlreadyCompiled    = errors.New("flow: environment already compiled")
	errNotCompiled        = errors.New("flow: environment not yet compiled")
	errStoreExists        = errors.New("flow: store already registered under this name")
	ErrStoreNotFound      = errors.New("flow: store not found")
	ErrKeyNotFound        = errors.New("flow: key not found")
)

// BuilderError wraps a failure raised synchronously from a builder call
// (DataStream/Environment methods). The LogicalGraph is left unmutated
// when this is returned.
type BuilderError struct {
	Op  string
	Err error
}

func (e *BuilderError) Error() string {
	return fmt.Sprintf("flow: builder error in %s: %v", e.Op, e.Err)
}

func (e *BuilderError) Unwrap() error { return e.Err }

func newBuilderError(op string, err error) *BuilderError {
	return &BuilderError{Op: op, Err: err}
}

// CompileError is returned by Environment.Execute before any worker starts:
// unknown operator kind, unsupported partition strategy, zero-parallelism
// operator, or a disconnected sink.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("flow: compile error: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

func newCompileError(format string, args ...interface{}) *CompileError {
	return &CompileError{Err: fmt.Errorf(format, args...)}
}

// RoutingError is a runtime failure: a partitioner returned an empty or
// out-of-range index set. Fatal to the offending task; escalated to the
// coordinator, which fails the whole job.
type RoutingError struct {
	TaskID int
	OpName string
	Err    error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("flow: routing error in task %d (%s): %v", e.TaskID, e.OpName, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// UserError wraps a panic or error raised by a user-supplied map/filter/
// reduce/etc. function, carrying task and record context.
type UserError struct {
	TaskID int
	OpName string
	Record Record
	Err    error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("flow: user function error in task %d (%s): %v", e.TaskID, e.OpName, e.Err)
}

func (e *UserError) Unwrap() error { return e.Err }

// ChannelError wraps a transport failure from the external queue
// collaborator (see package queue); treated as a worker failure.
type ChannelError struct {
	TaskID int
	Err    error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("flow: channel error in task %d: %v", e.TaskID, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }
