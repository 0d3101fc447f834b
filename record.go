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
	"fmt"
	"time"

	"github.com/cespare/xxhash"
)

// Record is the unit of data flowing along every edge of the graph. A
// Record is either unkeyed (produced by a source, a Map, a Filter, ...) or
// keyed (produced by KeyBy, Reduce or Sum), in which case Key returns ok ==
// true. Record satisfies partition.Record so package partition never needs
// to import this one.
type Record struct {
	id      uint64
	payload interface{}
	key     interface{}
	keyed   bool
	Time    time.Time    // Record time, set once at source.
	Ack     func() error // Ack acknowledges the originating source record. Initially no-op.
}

// NewRecord wraps payload emitted by a source into an unkeyed Record.
func NewRecord(payload interface{}) (record Record) {
	record.payload = payload
	record.Time = time.Now()
	record.Ack = defaultAck
	record.id = hashPayload(payload)
	return record
}

// Payload returns the carried value. Satisfies partition.Record.
func (r Record) Payload() interface{} {
	return r.payload
}

// Key returns the routing key and whether the record is keyed. Satisfies
// partition.Record.
func (r Record) Key() (key interface{}, ok bool) {
	return r.key, r.keyed
}

// IsKeyed reports whether KeyBy has been applied to this record.
func (r Record) IsKeyed() bool {
	return r.keyed
}

// ID is a hash computed over the record payload, useful for logging and
// for de-duplication downstream.
func (r Record) ID() uint64 {
	return r.id
}

// WithPayload returns a copy of r carrying a new payload, preserving the
// key and Ack. Used by Map, FlatMap, Reduce and Sum to build their output
// record without losing the upstream Ack.
func (r Record) WithPayload(payload interface{}) (out Record) {
	out = r
	out.payload = payload
	out.id = hashPayload(payload)
	return out
}

// WithKey returns a copy of r tagged with the given routing key. Used by
// KeyBy; the partitioner attached to a KeyBy -> ShuffleByKey edge requires
// IsKeyed to be true afterwards.
func (r Record) WithKey(key interface{}) (out Record) {
	out = r
	out.key = key
	out.keyed = true
	return out
}

func hashPayload(payload interface{}) uint64 {
	if b, ok := payload.([]byte); ok {
		return xxhash.Sum64(b)
	}
	if s, ok := payload.(string); ok {
		return xxhash.Sum64String(s)
	}
	return xxhash.Sum64String(fmt.Sprintf("%v", payload))
}

func defaultAck() (err error) {
	return nil
}
