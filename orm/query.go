package orm

import (
	"github.com/iov-one/swapchain"
)

// ConsumeIterator will read all remaining data into an
// array and close the iterator
func ConsumeIterator(itr swapchain.Iterator) []swapchain.Model {
	defer itr.Close()

	res := []swapchain.Model{}
	for ; itr.Valid(); itr.Next() {
		res = append(res, swapchain.Pair(itr.Key(), itr.Value()))
	}
	return res
}

// queryPrefix returns all models whose key starts with the prefix.
func queryPrefix(db swapchain.ReadOnlyKVStore, prefix []byte) ([]swapchain.Model, error) {
	itr, err := db.Iterator(prefix, prefixRangeEnd(prefix))
	if err != nil {
		return nil, err
	}
	return ConsumeIterator(itr), nil
}

// prefixRangeEnd returns the first key after all keys with the prefix,
// or nil when no such key exists.
func prefixRangeEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
