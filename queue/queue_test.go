package queue

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
	"time"

	"github.com/stretchr/testify/assert"
)

type strItem struct {
	body []byte
	ts   time.Time
	id   string
}

func (s strItem) Body() []byte        { return s.body }
func (s strItem) Timestamp() time.Time { return s.ts }
func (s strItem) QueueID() string      { return s.id }

func TestProduceAndPull(t *testing.T) {
	reg := NewRegistry(4)

	p, err := RegisterProducer(reg, []string{"q1"}, Config{OperatorType: Source})
	assert.NoError(t, err)

	c, err := RegisterConsumer(reg, []string{"q1"}, Config{OperatorType: Sink})
	assert.NoError(t, err)

	assert.NoError(t, p.Produce("q1", strItem{body: []byte("hello"), id: "q1"}))

	item, ok := c.Pull(time.Second)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), item.Body())
}

func TestPullTimeout(t *testing.T) {
	reg := NewRegistry(4)
	c, err := RegisterConsumer(reg, []string{"empty"}, Config{})
	assert.NoError(t, err)

	_, ok := c.Pull(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestProduceAfterStop(t *testing.T) {
	reg := NewRegistry(4)
	p, err := RegisterProducer(reg, []string{"q2"}, Config{})
	assert.NoError(t, err)

	assert.NoError(t, p.Stop())
	err = p.Produce("q2", strItem{body: []byte("x"), id: "q2"})
	assert.Equal(t, ErrClosed, err)
}

func TestFanInMultipleQueues(t *testing.T) {
	reg := NewRegistry(4)
	p, err := RegisterProducer(reg, []string{"a", "b"}, Config{})
	assert.NoError(t, err)

	c, err := RegisterConsumer(reg, []string{"a", "b"}, Config{})
	assert.NoError(t, err)

	assert.NoError(t, p.Produce("a", strItem{body: []byte("from-a"), id: "a"}))
	assert.NoError(t, p.Produce("b", strItem{body: []byte("from-b"), id: "b"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		item, ok := c.Pull(time.Second)
		assert.True(t, ok)
		seen[string(item.Body())] = true
	}
	assert.True(t, seen["from-a"])
	assert.True(t, seen["from-b"])
}
