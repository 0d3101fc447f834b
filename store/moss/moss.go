// Package moss implements an in-memory flow.Store backed by couchbase/moss,
// suitable as the StateHook of a Reduce or Sum operator when durability
// across restarts is not required.
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
	"bytes"

	"github.com/coreflow/flow"
	"github.com/couchbase/moss"
)

var (
	ropts    = moss.ReadOptions{}
	wopts    = moss.WriteOptions{}
	iteropts = moss.IteratorOptions{}
)

// make sure we implement the needed interfaces
var _ flow.Initializer = (*DB)(nil)
var _ flow.Closer = (*DB)(nil)
var _ flow.Remover = (*DB)(nil)
var _ flow.Store = (*DB)(nil)

// DB is an in-memory moss-backed key/value state store.
type DB struct {
	name string
	db   moss.Collection
}

// New creates an empty in-memory store.
func New() flow.Store {
	return &DB{}
}

// Init starts the underlying collection, naming the store after this
// task's operator.
func (d *DB) Init(ctx *flow.TaskContext) (err error) {
	d.name = ctx.OperatorName()
	d.db, err = moss.NewCollection(moss.DefaultCollectionOptions)
	if err != nil {
		return err
	}
	return d.db.Start()
}

// Remove closes the store and erases its contents.
func (d *DB) Remove() (err error) {
	return d.Close()
}

// Close releases the store's resources.
func (d *DB) Close() (err error) {
	err = d.db.Close()
	d.db = nil
	return err
}

// Name returns this store's name.
func (d *DB) Name() (name string) {
	return d.name
}

// Get the value for the given key.
func (d *DB) Get(key []byte) (value []byte, err error) {
	value, err = d.db.Get(key, ropts)
	if value == nil && err == nil {
		return nil, flow.ErrKeyNotFound
	}
	return value, err
}

// Set the value for the given key.
func (d *DB) Set(key, value []byte) (err error) {
	batch, err := d.db.NewBatch(1, len(key)+len(value))
	if err != nil {
		return err
	}
	defer batch.Close()

	if err = batch.Set(key, value); err != nil {
		return err
	}
	return d.db.ExecuteBatch(batch, wopts)
}

// Delete the value for the given key. Moss returns a nil error on a
// non-existent key.
func (d *DB) Delete(key []byte) (err error) {
	batch, err := d.db.NewBatch(1, 0)
	if err != nil {
		return err
	}
	defer batch.Close()

	if err = batch.Del(key); err != nil {
		return err
	}
	return d.db.ExecuteBatch(batch, wopts)
}

// Range iterates the store within the given key range, applying callback
// to each pair. A nil from or to bounds the iterator to the beginning or
// end of the store.
func (d *DB) Range(from, to []byte, cb func(key, value []byte) error) (err error) {
	ss, err := d.db.Snapshot()
	if err != nil {
		return err
	}

	iter, err := ss.StartIterator(from, to, iteropts)
	if err != nil {
		return err
	}
	defer iter.Close()

	for {
		key, val, err := iter.Current()
		if err != nil {
			if err == moss.ErrIteratorDone {
				return nil
			}
			return err
		}

		if err = cb(key, val); err != nil {
			return err
		}

		iter.Next()
	}
}

// RangePrefix iterates the store over a key prefix, applying callback to
// each pair.
func (d *DB) RangePrefix(prefix []byte, cb func(key, value []byte) error) (err error) {
	return d.Range(nil, nil, func(key, value []byte) error {
		if bytes.HasPrefix(key, prefix) {
			return cb(key, value)
		}
		return nil
	})
}
