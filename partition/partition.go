// Package partition implements the routing strategies that turn one
// upstream record into the set of downstream instance indexes that should
// receive it.
//
// A Partitioner is always thread-confined to the worker goroutine that owns
// it: round-robin counters and custom state are never shared across
// upstream instances, even when they share the same partitioning spec.
package partition

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

import "errors"

// ErrInvalidResult is returned when a Partitioner yields an empty set of
// indexes or an index outside [0,N). Custom partitioners are the only ones
// that can trigger this from user code; the built-ins never do.
var ErrInvalidResult = errors.New("partition: result empty or out of range")

// Strategy identifies one of the built-in partitioning schemes, or Custom
// for a user-supplied function.
type Strategy uint8

const (
	// Forward routes instance i to downstream instance i mod N. Resolved
	// at channel-construction time: the runtime Partitioner for a Forward
	// edge always sees exactly one channel and trivially selects it.
	Forward Strategy = iota
	// Shuffle hashes the record payload and distributes it across N
	// buckets.
	Shuffle
	// ShuffleByKey hashes a KeyedRecord's key with a stable 64-bit hash
	// and reduces modulo N.
	ShuffleByKey
	// Broadcast sends every record to all N downstream instances.
	Broadcast
	// Rescale fans out only within a contiguous group of downstream
	// instances assigned to the owning upstream instance.
	Rescale
	// RoundRobin advances a thread-confined counter modulo N.
	RoundRobin
	// Custom delegates to a user-supplied function.
	Custom
)

// String renders the strategy name.
func (s Strategy) String() (name string) {
	switch s {
	case Forward:
		return "forward"
	case Shuffle:
		return "shuffle"
	case ShuffleByKey:
		return "shuffle_by_key"
	case Broadcast:
		return "broadcast"
	case Rescale:
		return "rescale"
	case RoundRobin:
		return "round_robin"
	case Custom:
		return "custom"
	}
	return "unknown"
}

// Record is the minimal view a Partitioner needs of a routed record. The
// flow package's Record type satisfies this without partition importing
// flow, keeping the dependency one-directional.
type Record interface {
	// Payload returns the record's opaque user data, used by Shuffle.
	Payload() interface{}
	// Key returns the projected key and whether the record is keyed,
	// used by ShuffleByKey.
	Key() (key interface{}, ok bool)
}

// CustomFunc is a user-supplied partitioning function.
type CustomFunc func(record Record, n int) (indexes []int, err error)

// Partitioner routes a record to one or more of N downstream instances.
type Partitioner interface {
	// Partition returns the indexes in [0,N) that should receive record.
	// Must return a non-empty slice for valid strategies; Custom may
	// return ErrInvalidResult wrapped in an error if the user func
	// misbehaves.
	Partition(record Record, n int) (indexes []int, err error)
}

// New constructs the Partitioner for the given strategy. fn is only used
// for Custom and is otherwise ignored.
func New(strategy Strategy, fn CustomFunc) (p Partitioner) {
	switch strategy {
	case Forward:
		return &forwardPartitioner{}
	case Shuffle:
		return &shufflePartitioner{}
	case ShuffleByKey:
		return &shuffleByKeyPartitioner{}
	case Broadcast:
		return &broadcastPartitioner{}
	case Rescale:
		return &rescalePartitioner{}
	case RoundRobin:
		return &roundRobinPartitioner{}
	case Custom:
		return &customPartitioner{fn: fn}
	}
	return &forwardPartitioner{}
}
