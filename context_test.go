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

	"github.com/stretchr/testify/assert"
)

func TestTaskContextIdentity(t *testing.T) {
	ctx := NewTestContext("env1", "my-op", 2)
	assert.Equal(t, "my-op", ctx.OperatorName())
	assert.Equal(t, 0, ctx.TaskID())
	assert.Equal(t, 2, ctx.Instance())
	assert.Equal(t, 3, ctx.Parallelism())
}

func TestTaskContextStoreNotFound(t *testing.T) {
	ctx := NewTestContext("env1", "my-op", 0)
	_, err := ctx.Store("missing")
	assert.Equal(t, ErrStoreNotFound, err)
}

func TestTaskContextStoreFound(t *testing.T) {
	env := NewEnvironment("env1")
	hook := newMockStore()
	hook.name = "hook"
	assert.NoError(t, env.AddStore(hook))

	task := &Task{TaskID: 0, OpID: 0, Instance: 0, Operator: &Operator{Name: "op"}}
	ctx := newTaskContext(env, task)

	s, err := ctx.Store("hook")
	assert.NoError(t, err)
	assert.Equal(t, hook, s)
}

func TestTaskContextCancelIsIdempotent(t *testing.T) {
	ctx := NewTestContext("env1", "op", 0)

	select {
	case <-ctx.Done():
		t.Fatal("context should not be done yet")
	default:
	}

	ctx.Cancel()
	ctx.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should be done after Cancel")
	}
}
