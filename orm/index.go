package orm

import (
	"bytes"
	"math"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

const nativeIdxPrefix = "_x."

// nativeIndex is an index implementation that is using a database native
// storage and query in order to maintain and provide access to an index.
//
// Index key is in format:
//    <prefix>#<index name>#<value>#<entity id>
// where # is a serialization specific data, irrelevant for the algorithm.
type nativeIndex struct {
	name    string
	unique  bool
	indexer Indexer
	// dbKey is a function that for given entity ID returns that entity
	// database key.
	dbKey func([]byte) []byte
}

var _ swapchain.QueryHandler = (*nativeIndex)(nil)

func newNativeIndex(name string, indexer Indexer, unique bool, dbKey func([]byte) []byte) *nativeIndex {
	return &nativeIndex{
		name:    name,
		unique:  unique,
		indexer: indexer,
		dbKey:   dbKey,
	}
}

// Update updates the index. It should be called when any of the bucket
// entities has changed in the store.
//
// prev == nil means insert
// next == nil means delete
// both == nil is error
func (ix *nativeIndex) Update(db swapchain.KVStore, pk []byte, prev, next Model) error {
	if next == nil && prev == nil {
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	}

	// Delete.
	if prev != nil {
		values, err := ix.indexer(prev)
		if err != nil {
			return errors.Wrap(err, "indexer")
		}
		for _, v := range values {
			idxKey, err := packNativeIdxKey([][]byte{[]byte(ix.name), v, pk})
			if err != nil {
				return errors.Wrap(err, "build index key")
			}
			if err := db.Delete(idxKey); err != nil {
				return errors.Wrap(err, "db delete")
			}
		}
	}

	// Insert.
	if next != nil {
		values, err := ix.indexer(next)
		if err != nil {
			return errors.Wrap(err, "indexer")
		}
		for _, v := range values {
			if ix.unique {
				keys, err := ix.Keys(db, v)
				if err != nil {
					return err
				}
				for _, k := range keys {
					if !bytes.Equal(k, pk) {
						return errors.Wrapf(errors.ErrDuplicate, "unique index %s", ix.name)
					}
				}
			}
			idxKey, err := packNativeIdxKey([][]byte{[]byte(ix.name), v, pk})
			if err != nil {
				return errors.Wrap(err, "build index key")
			}
			if err := db.Set(idxKey, []byte{}); err != nil {
				return errors.Wrap(err, "db set")
			}
		}
	}

	return nil
}

// Keys returns the primary keys of all entities indexed under given value,
// in ascending order.
func (ix *nativeIndex) Keys(db swapchain.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	lookupKey, err := packNativeIdxKey([][]byte{[]byte(ix.name), value})
	if err != nil {
		return nil, errors.Wrap(err, "build index key")
	}

	// To iterate over all values matching given index, iterate over all
	// keys between:
	//    <prefix>#<index name>#<value> and <prefix>#<index name>#<value>{255}
	// Value 255 is reserved to make sure no indexed key is matching it
	// (see packNativeIdxKey function).
	start := lookupKey
	end := make([]byte, len(lookupKey)+1)
	copy(end, lookupKey)
	end[len(end)-1] = math.MaxUint8

	it, err := db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var keys [][]byte
	for ; it.Valid(); it.Next() {
		chunks, err := unpackNativeIdxKey(it.Key())
		if err != nil {
			return nil, errors.Wrap(err, "unpack native index key")
		}
		if len(chunks) != 3 {
			return nil, errors.Wrapf(errors.ErrDatabase, "index key with %d chunks", len(chunks))
		}
		keys = append(keys, chunks[2])
	}
	return keys, nil
}

// Query returns all entities indexed under the value given as data.
func (ix *nativeIndex) Query(db swapchain.ReadOnlyKVStore, mod string, data []byte) ([]swapchain.Model, error) {
	if mod != swapchain.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "not implemented: %q", mod)
	}
	keys, err := ix.Keys(db, data)
	if err != nil {
		return nil, err
	}
	models := make([]swapchain.Model, 0, len(keys))
	for _, key := range keys {
		dbKey := ix.dbKey(key)
		value, err := db.Get(dbKey)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot get %X value", key)
		}
		if value == nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "index %s points to missing %X", ix.name, key)
		}
		models = append(models, swapchain.Pair(dbKey, value))
	}
	return models, nil
}

// packNativeIdxKey serialize a native index key from a set of values to a
// single key. This process can be reversed using unpackNativeIdxKey function.
//
// Native index key is a byte array. After the same for every native index
// prefix, a collection of bytes is serialized in order. Each element of the
// collection must be at most 254 bytes long.
//
// When serialized, each chunk is prefixed with its length, encoded as a uint8
// value.  If a key is created from 3 chunks, "aaa", "" and "c", that key
// representation is:
//
//   _x.<3>aaa<0><1>c
//
// where <3>, <0> and <1> are that number values in bytes.
func packNativeIdxKey(chunks [][]byte) ([]byte, error) {
	var size int
	for _, b := range chunks {
		size += len(b) + 1
	}
	res := make([]byte, 0, size+len(nativeIdxPrefix))
	res = append(res, nativeIdxPrefix...)

	for _, b := range chunks {
		// MaxUint8 is reserved for the search purpose. MaxUint8 - 1 is
		// the greatest allowed length.
		if len(b) > math.MaxUint8-1 {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "no chunk can be bigger than %d bytes", math.MaxUint8-1)
		}
		res = append(res, uint8(len(b)))
		res = append(res, b...)
	}
	return res, nil
}

// unpackNativeIdxKey decodes native index key and extracts all chunks that
// compose that key.
func unpackNativeIdxKey(b []byte) ([][]byte, error) {
	if !bytes.HasPrefix(b, []byte(nativeIdxPrefix)) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "not a native index key")
	}
	b = b[len(nativeIdxPrefix):]
	res := make([][]byte, 0, 3)
	for len(b) > 0 {
		size := int(b[0])
		if len(b) < 1+size {
			return nil, errors.Wrap(errors.ErrInvalidInput, "malformed offset")
		}
		res = append(res, b[1:1+size])
		b = b[1+size:]
	}
	return res, nil
}
