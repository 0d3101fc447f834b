// Package queue defines the record-transport contract the runtime expects
// from an external queue (delivering bytes between a producer on one host
// and a consumer on another), plus an in-memory reference implementation
// exercised by this package's own tests. Package flow does not use it: its
// workers exchange records over channel.DataChannel. A real deployment
// backs this with a broker; that transport is explicitly out of scope for
// this module (spec §1) and is never imported here.
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
	"errors"
	"time"
)

// ErrClosed is returned by Producer.Produce after Close.
var ErrClosed = errors.New("queue: send on closed producer")

// OperatorType classifies which end of a DataChannel a queue transport is
// standing in for.
type OperatorType uint8

const (
	Source OperatorType = iota
	Transform
	Sink
)

// ReliabilityLevel is the delivery guarantee a queue transport is
// configured for. The in-memory reference implementation only ever
// provides AtLeastOnce (nothing is persisted across a process restart);
// it still carries the field through so a real broker-backed
// implementation can be swapped in without changing caller code.
type ReliabilityLevel uint8

const (
	AtLeastOnce ReliabilityLevel = iota
	ExactlyOnce
	ExactlySame
)

// Item is one unit handed to a queue transport. Body is the opaque,
// already-serialized record; Timestamp and QueueID are transport metadata a
// consumer can use for ordering or dedup, not framework semantics.
type Item interface {
	Body() []byte
	Timestamp() time.Time
	QueueID() string
}

// Producer is registered for a set of output queue ids and delivers items
// to them. Produce blocks under back-pressure the same way DataChannel.Send
// does; it never drops an item silently.
type Producer interface {
	Produce(queueID string, item Item) error
	Stop() error
	Close() error
}

// Consumer is registered for a set of input queue ids and pulls items from
// them. Pull returns ok == false if no item arrived within timeout; it does
// not distinguish "queue empty" from "queue drained" (callers that need EOS
// encode it as a sentinel Item; the in-memory Queue defines no such
// sentinel).
type Consumer interface {
	Pull(timeout time.Duration) (item Item, ok bool)
	Stop() error
	Close() error
}

// Config parameterizes a queue registration.
type Config struct {
	OperatorType     OperatorType
	ReliabilityLevel ReliabilityLevel
}

// RegisterProducer returns a Producer capable of delivering to every id in
// outputQueueIDs, backed by the in-memory Queues in reg.
func RegisterProducer(reg *Registry, outputQueueIDs []string, cfg Config) (Producer, error) {
	queues := make(map[string]*Queue, len(outputQueueIDs))
	for _, id := range outputQueueIDs {
		queues[id] = reg.queue(id)
	}
	return &producer{queues: queues, cfg: cfg}, nil
}

// RegisterConsumer returns a Consumer capable of pulling from every id in
// inputQueueIDs, backed by the in-memory Queues in reg.
func RegisterConsumer(reg *Registry, inputQueueIDs []string, cfg Config) (Consumer, error) {
	queues := make([]*Queue, len(inputQueueIDs))
	for i, id := range inputQueueIDs {
		queues[i] = reg.queue(id)
	}
	return &consumer{queues: queues, cfg: cfg}, nil
}
