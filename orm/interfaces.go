/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary key, chosen by the caller (an address for example).
* It may possess one or more secondary indexes (1:1 or 1:N)
* Easy queries for one and iteration.
*/
package orm

import (
	"github.com/iov-one/swapchain"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	swapchain.Persistent
	// Validate returns error if the object is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	Validate() error
}

// ModelSlicePtr is a pointer to a slice of models. Either a slice of
// pointers or values is accepted, eg. *[]*escrow.Record or *[]escrow.Record.
type ModelSlicePtr interface{}

// Indexer calculates the secondary index keys for a given model.
// Returning no keys leaves the model out of the index.
type Indexer func(Model) ([][]byte, error)

// IndexerOne is the common case of an Indexer producing at most one key.
func IndexerOne(fn func(Model) ([]byte, error)) Indexer {
	return func(m Model) ([][]byte, error) {
		key, err := fn(m)
		switch {
		case err != nil:
			return nil, err
		case key == nil:
			return nil, nil
		}
		return [][]byte{key}, nil
	}
}
