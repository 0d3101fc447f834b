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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderErrorUnwraps(t *testing.T) {
	err := newBuilderError("Map", errEmptyName)
	assert.True(t, errors.Is(err, errEmptyName))
	assert.Contains(t, err.Error(), "Map")
}

func TestCompileErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := newCompileError("wrapped: %w", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestRoutingErrorMessage(t *testing.T) {
	err := &RoutingError{TaskID: 3, OpName: "shuffle", Err: errors.New("bad index")}
	assert.Contains(t, err.Error(), "task 3")
	assert.Contains(t, err.Error(), "shuffle")
	assert.True(t, errors.Is(err, err.Err))
}

func TestUserErrorCarriesRecord(t *testing.T) {
	rec := NewRecord("payload")
	err := &UserError{TaskID: 1, OpName: "map", Record: rec, Err: errors.New("user fn failed")}
	assert.Equal(t, rec, err.Record)
	assert.Contains(t, err.Error(), "map")
}
