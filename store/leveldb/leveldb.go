// Package leveldb implements a durable, on-disk flow.Store backed by
// goleveldb, suitable as the StateHook of a Reduce or Sum operator.
package leveldb

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
	"os"
	"path/filepath"

	"github.com/coreflow/flow"
	ldb "github.com/syndtr/goleveldb/leveldb"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

var (
	dopt *ldbopt.Options
	wopt *ldbopt.WriteOptions
	ropt *ldbopt.ReadOptions
)

// make sure we implement the needed interfaces
var _ flow.Initializer = (*DB)(nil)
var _ flow.Closer = (*DB)(nil)
var _ flow.Remover = (*DB)(nil)
var _ flow.Store = (*DB)(nil)

// DB is a durable leveldb key/value state store. dir, if empty, defaults to
// "./state/<operator name>" on Init.
type DB struct {
	dir  string
	name string
	db   *ldb.DB
}

// New creates a store rooted at dir. A relative or empty dir is resolved
// under the current working directory at Init time.
func New(dir string) flow.Store {
	return &DB{dir: dir}
}

// Init opens the database file for this task's operator name.
func (d *DB) Init(ctx *flow.TaskContext) (err error) {
	d.name = ctx.OperatorName()

	dir := d.dir
	if dir == "" {
		dir = filepath.Join("state", d.name)
	}

	d.db, err = ldb.OpenFile(dir, dopt)
	if err != nil {
		return err
	}
	d.dir = dir
	return nil
}

// Remove closes the store and erases its contents.
func (d *DB) Remove() (err error) {
	if err = d.Close(); err != nil {
		return err
	}
	return os.RemoveAll(d.dir)
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
	value, err = d.db.Get(key, ropt)
	if err == ldb.ErrNotFound {
		return nil, flow.ErrKeyNotFound
	}
	return value, err
}

// Set the value for the given key.
func (d *DB) Set(key, value []byte) (err error) {
	return d.db.Put(key, value, wopt)
}

// Delete the value for the given key.
func (d *DB) Delete(key []byte) (err error) {
	return d.db.Delete(key, wopt)
}

// Range iterates the store within the given key range, applying callback
// to each pair. A nil from or to bounds the iterator to the beginning or
// end of the store.
func (d *DB) Range(from, to []byte, cb func(key, value []byte) error) (err error) {
	rng := &ldbutil.Range{Start: from, Limit: to}
	iter := d.db.NewIterator(rng, ropt)
	defer iter.Release()

	for iter.Next() {
		if err = cb(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// RangePrefix iterates the store over a key prefix, applying callback to
// each pair.
func (d *DB) RangePrefix(prefix []byte, cb func(key, value []byte) error) (err error) {
	iter := d.db.NewIterator(ldbutil.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if err = cb(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}
