package moss

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

	"github.com/coreflow/flow"
	"github.com/coreflow/flow/store"
	"github.com/stretchr/testify/assert"
)

func TestDBConformance(t *testing.T) {
	ctx := flow.NewTestContext("test", "checkpoint", 0)
	store.TestStore(t, func() flow.Store { return New() }, ctx)
}

func TestDBNameDerivedFromOperator(t *testing.T) {
	ctx := flow.NewTestContext("test", "my-sum-state", 0)
	db := New()
	assert.NoError(t, db.(flow.Initializer).Init(ctx))
	assert.Equal(t, "my-sum-state", db.Name())
	assert.NoError(t, db.(flow.Closer).Close())
}
