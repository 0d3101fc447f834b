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

func TestNewRecordUnkeyed(t *testing.T) {
	r := NewRecord("hello")
	assert.Equal(t, "hello", r.Payload())
	assert.False(t, r.IsKeyed())

	_, ok := r.Key()
	assert.False(t, ok)
	assert.NoError(t, r.Ack())
}

func TestRecordWithKey(t *testing.T) {
	r := NewRecord("hello")
	k := r.WithKey("k1")

	assert.True(t, k.IsKeyed())
	key, ok := k.Key()
	assert.True(t, ok)
	assert.Equal(t, "k1", key)

	// the original record is untouched
	assert.False(t, r.IsKeyed())
}

func TestRecordWithPayloadPreservesKeyAndAck(t *testing.T) {
	r := NewRecord("hello").WithKey("k1")
	called := false
	r.Ack = func() error { called = true; return nil }

	out := r.WithPayload("world")
	assert.Equal(t, "world", out.Payload())

	key, ok := out.Key()
	assert.True(t, ok)
	assert.Equal(t, "k1", key)

	assert.NoError(t, out.Ack())
	assert.True(t, called)
}

func TestRecordIDStableForEqualPayload(t *testing.T) {
	a := NewRecord("same-value")
	b := NewRecord("same-value")
	assert.Equal(t, a.ID(), b.ID())

	c := NewRecord("different-value")
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestRecordIDHashesBytesAndStructsConsistently(t *testing.T) {
	byteRec := NewRecord([]byte("payload"))
	strRec := NewRecord("payload")
	// []byte and string hash through different xxhash entry points; they
	// are not required to agree, only to be individually stable.
	assert.Equal(t, byteRec.ID(), NewRecord([]byte("payload")).ID())
	assert.Equal(t, strRec.ID(), NewRecord("payload").ID())

	type point struct{ X, Y int }
	p1 := NewRecord(point{1, 2})
	p2 := NewRecord(point{1, 2})
	assert.Equal(t, p1.ID(), p2.ID())
}
