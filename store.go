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

// Remover is implemented by any Store that must clear its data or state.
// Remove must release and close resources.
type Remover interface {
	Remove() (err error)
}

// StoreSupplier instantiates a Store used as the StateHook collaborator of
// a Reduce or Sum operator. If further configuration is needed the Store
// must implement Initializer to access the TaskContext before the graph
// starts.
type StoreSupplier func() Store

// ROStore is a read-only key/value store.
type ROStore interface {
	// Name returns this store's name.
	Name() (name string)

	// Get the value for the given key.
	Get(key []byte) (value []byte, err error)

	// Range iterates the store in byte-wise lexicographical order within
	// the given key range, applying callback to each pair. Returning an
	// error stops the iteration. A nil from or to bounds the iterator to
	// the beginning or end of the store respectively.
	Range(from, to []byte, callback func(key, value []byte) error) (err error)

	// RangePrefix iterates the store over a key prefix, applying callback
	// to each pair. Returning an error stops the iteration.
	RangePrefix(prefix []byte, callback func(key, value []byte) error) (err error)
}

// Store is a read-write key/value store, used as the external collaborator
// that Sum and Reduce register with (via their StateHook field) for
// checkpointing accumulator state outside process memory.
type Store interface {
	ROStore

	// Set the value for the given key.
	Set(key, value []byte) (err error)

	// Delete the given key and its associated value.
	Delete(key []byte) (err error)
}
