package mock

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
	"github.com/coreflow/flow"
)

// NewContext builds a flow.TaskContext suitable for unit-testing a
// SourceFunc, Map/Reduce/Sum function or Store implementation in isolation,
// without compiling and running a full Environment.
func NewContext(operatorName string, instance int) *flow.TaskContext {
	return flow.NewTestContext("mock", operatorName, instance)
}

// Store is an in-memory flow.Store for tests that need a StateHook without
// pulling in a real backend such as leveldb or moss.
type Store struct {
	name string
	data map[string][]byte
}

// NewStore returns an empty in-memory store named name.
func NewStore(name string) *Store {
	return &Store{name: name, data: make(map[string][]byte)}
}

// Name returns this store's name.
func (s *Store) Name() (name string) {
	return s.name
}

// Get the value for the given key.
func (s *Store) Get(key []byte) (value []byte, err error) {
	v, ok := s.data[string(key)]
	if !ok {
		return nil, flow.ErrKeyNotFound
	}
	return v, nil
}

// Set the value for the given key.
func (s *Store) Set(key, value []byte) (err error) {
	s.data[string(key)] = value
	return nil
}

// Delete the value for the given key.
func (s *Store) Delete(key []byte) (err error) {
	delete(s.data, string(key))
	return nil
}

// Range iterates the store within the given key range, applying callback to
// each pair. Keys are visited in no particular order; this mock is meant for
// functional tests, not for exercising the lexicographic Range contract real
// backends provide (use store.leveldb or store.moss for that).
func (s *Store) Range(from, to []byte, cb func(key, value []byte) error) (err error) {
	for k, v := range s.data {
		if from != nil && k < string(from) {
			continue
		}
		if to != nil && k >= string(to) {
			continue
		}
		if err := cb([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

// RangePrefix iterates the store over a key prefix, applying callback to
// each pair.
func (s *Store) RangePrefix(prefix []byte, cb func(key, value []byte) error) (err error) {
	for k, v := range s.data {
		if len(k) < len(prefix) || k[:len(prefix)] != string(prefix) {
			continue
		}
		if err := cb([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}
