package partition

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
)

// Descriptor is the wire format for carrying a partitioner across a
// serialization boundary: a 4-tuple of (blob, module, class, function).
// Exactly one of Blob, Class or Function must be set.
type Descriptor struct {
	Blob     []byte // serialized closure, decoded if present
	Module   string
	Class    string // zero-arg constructor, instantiated via the registry
	Function string // wrapped as a Custom partitioner via the registry
}

var (
	// ErrAmbiguousDescriptor is returned when more than one of
	// Blob/Class/Function is set.
	ErrAmbiguousDescriptor = errors.New("partition: exactly one of blob, class or function must be set")
	// ErrUnknownSymbol is returned when Class or Function names a symbol
	// that was never registered.
	ErrUnknownSymbol = errors.New("partition: unknown module symbol")
)

// classFactory builds a fresh, stateful Partitioner instance (used for
// Class symbols, mirroring a zero-arg constructor).
type classFactory func() Partitioner

var (
	registryMu sync.RWMutex
	classes    = map[string]classFactory{}
	functions  = map[string]CustomFunc{}
)

// Register binds a (module, class) pair to a zero-arg Partitioner
// constructor, used to resolve Descriptor.Class on Decode.
func Register(module, class string, factory func() Partitioner) {
	registryMu.Lock()
	defer registryMu.Unlock()
	classes[module+"."+class] = factory
}

// RegisterFunc binds a (module, function) pair to a CustomFunc, used to
// resolve Descriptor.Function on Decode.
func RegisterFunc(module, function string, fn CustomFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	functions[module+"."+function] = fn
}

// Encode serializes a stateless Custom function as a Descriptor carrying an
// inline blob. Go has no portable closure serialization, so the blob
// encodes only the (module, function) reference via gob; the function
// itself must already be registered with RegisterFunc for Decode to
// resolve it. This mirrors cloudpickle's role in the reference
// implementation without inventing a bytecode serializer.
func Encode(module, function string) (d Descriptor, err error) {
	buf := &bytes.Buffer{}
	if err = gob.NewEncoder(buf).Encode(module + "." + function); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Blob: buf.Bytes(), Module: module}, nil
}

// Decode resolves a Descriptor into a live Partitioner following the exact
// precedence specified: blob first, then class, then function.
func Decode(d Descriptor) (p Partitioner, err error) {
	set := 0
	if len(d.Blob) > 0 {
		set++
	}
	if d.Class != "" {
		set++
	}
	if d.Function != "" {
		set++
	}
	if set != 1 {
		return nil, ErrAmbiguousDescriptor
	}

	if len(d.Blob) > 0 {
		var symbol string
		if err = gob.NewDecoder(bytes.NewReader(d.Blob)).Decode(&symbol); err != nil {
			return nil, fmt.Errorf("partition: decoding blob: %w", err)
		}
		registryMu.RLock()
		fn, ok := functions[symbol]
		registryMu.RUnlock()
		if !ok {
			return nil, ErrUnknownSymbol
		}
		return &customPartitioner{fn: fn}, nil
	}

	if d.Class != "" {
		registryMu.RLock()
		factory, ok := classes[d.Module+"."+d.Class]
		registryMu.RUnlock()
		if !ok {
			return nil, ErrUnknownSymbol
		}
		return factory(), nil
	}

	registryMu.RLock()
	fn, ok := functions[d.Module+"."+d.Function]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return &customPartitioner{fn: fn}, nil
}
