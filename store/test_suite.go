package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/swapchain/chaintest/assert"
)

/*
TestSuite checks a CacheableKVStore implementation with the key layout of the
escrow state: records under "escrow:", token balances (vaults and holding
accounts) under "cash:" and the maker index under "escrow_maker:". Both the
btree and the iavl stores run it.
*/
type TestSuite struct {
	makeBase TestStoreConstructor
}

type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

const addressLen = 32

var (
	recordPrefix  = []byte("escrow:")
	balancePrefix = []byte("cash:")
	makerPrefix   = []byte("escrow_maker:")
)

func prefixed(prefix []byte, parts ...[]byte) []byte {
	key := append([]byte{}, prefix...)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// GetSet follows an offer through the store: opened in one transaction,
// taken in a failed one and then in a successful one.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	maker, record, vault := randBytes(addressLen), randBytes(addressLen), randBytes(addressLen)
	recordKey := prefixed(recordPrefix, record)
	vaultKey := prefixed(balancePrefix, vault)
	makerKey := prefixed(balancePrefix, maker)
	indexKey := prefixed(makerPrefix, maker, record)

	s.AssertGetHas(t, base, recordKey, nil, false)

	open := base.CacheWrap()
	assert.Nil(t, open.Set(recordKey, []byte("offer")))
	assert.Nil(t, open.Set(indexKey, record))
	assert.Nil(t, open.Set(vaultKey, []byte("200")))
	s.AssertGetHas(t, open, recordKey, []byte("offer"), true)
	s.AssertGetHas(t, base, recordKey, nil, false)
	assert.Nil(t, open.Write())
	s.AssertGetHas(t, base, recordKey, []byte("offer"), true)
	s.AssertGetHas(t, base, indexKey, record, true)
	s.AssertGetHas(t, base, vaultKey, []byte("200"), true)

	failed := base.CacheWrap()
	assert.Nil(t, failed.Delete(recordKey))
	assert.Nil(t, failed.Delete(vaultKey))
	assert.Nil(t, failed.Set(makerKey, []byte("300")))
	s.AssertGetHas(t, failed, recordKey, nil, false)
	failed.Discard()
	s.AssertGetHas(t, base, recordKey, []byte("offer"), true)
	s.AssertGetHas(t, base, vaultKey, []byte("200"), true)
	s.AssertGetHas(t, base, makerKey, nil, false)

	take := base.CacheWrap()
	assert.Nil(t, take.Delete(recordKey))
	assert.Nil(t, take.Delete(indexKey))
	assert.Nil(t, take.Delete(vaultKey))
	assert.Nil(t, take.Set(makerKey, []byte("300")))
	assert.Nil(t, take.Write())
	s.AssertGetHas(t, base, recordKey, nil, false)
	s.AssertGetHas(t, base, indexKey, nil, false)
	s.AssertGetHas(t, base, vaultKey, nil, false)
	s.AssertGetHas(t, base, makerKey, []byte("300"), true)
}

// CacheConflicts checks that a cache wrap can overwrite and delete what its
// parent holds.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	first := prefixed(recordPrefix, randBytes(addressLen))
	second := prefixed(recordPrefix, randBytes(addressLen))
	holding := prefixed(balancePrefix, randBytes(addressLen))

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model
	}{
		"refund one offer and open another": {
			parentOps:     []Op{SetOp(first, []byte("offer 1")), SetOp(holding, []byte("100"))},
			childOps:      []Op{SetOp(holding, []byte("300")), SetOp(second, []byte("offer 2")), DelOp(first)},
			parentQueries: []Model{Pair(first, []byte("offer 1")), Pair(holding, []byte("100")), Pair(second, nil)},
			childQueries:  []Model{Pair(first, nil), Pair(holding, []byte("300")), Pair(second, []byte("offer 2"))},
		},
		"close and reopen the same record": {
			parentOps:     []Op{SetOp(first, []byte("seed 1"))},
			childOps:      []Op{DelOp(first), SetOp(first, []byte("seed 1 again"))},
			parentQueries: []Model{Pair(first, []byte("seed 1"))},
			childQueries:  []Model{Pair(first, []byte("seed 1 again"))},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// FuzzIterator iterates over random records and balances, split between a
// cache wrap and its parent. Listing all offers is a range over the record
// prefix.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 50
	const deleted = 20

	toSet := append(randModels(recordPrefix, size/2), randModels(balancePrefix, size/2)...)
	toDel := randModels(recordPrefix, deleted)
	expect := sortModels(toSet)
	ops := append(makeSetOps(toSet...), makeDelOps(toDel...)...)

	parentSet := append(randModels(recordPrefix, size/2), randModels(balancePrefix, size/2)...)
	parentDel := randModels(balancePrefix, deleted)
	parentOps := append(makeSetOps(parentSet...), makeDelOps(parentDel...)...)

	both := sortModels(append(toSet, parentSet...))

	recordEnd := prefixRangeEnd(recordPrefix)

	cases := map[string]iterCase{
		"child over an empty parent": {
			child: ops,
			queries: []rangeQuery{
				{nil, nil, false, expect},
				{expect[10].Key, nil, false, expect[10:]},
				{nil, expect[size-8].Key, false, expect[:size-8]},
				{expect[17].Key, expect[28].Key, false, expect[17:28]},
				{recordPrefix, recordEnd, false, withPrefix(expect, recordPrefix)},

				{nil, nil, true, reverse(expect)},
				{expect[34].Key, nil, true, reverse(expect[34:])},
				{nil, expect[19].Key, true, reverse(expect[:19])},
				{expect[6].Key, expect[26].Key, true, reverse(expect[6:26])},
				{recordPrefix, recordEnd, true, reverse(withPrefix(expect, recordPrefix))},
			},
		},
		"child and parent are merged": {
			pre:   parentOps,
			child: ops,
			queries: []rangeQuery{
				{nil, nil, false, both},
				{both[10].Key, nil, false, both[10:]},
				{nil, both[size-8].Key, false, both[:size-8]},
				{both[17].Key, both[28].Key, false, both[17:28]},
				{recordPrefix, recordEnd, false, withPrefix(both, recordPrefix)},

				{nil, nil, true, reverse(both)},
				{both[34].Key, nil, true, reverse(both[34:])},
				{nil, both[19].Key, true, reverse(both[:19])},
				{both[6].Key, both[26].Key, true, reverse(both[6:26])},
				{balancePrefix, prefixRangeEnd(balancePrefix), true, reverse(withPrefix(both, balancePrefix))},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// IteratorWithConflicts lists offers while a cache wrap overwrites or
// deletes records of its parent.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	ms := randModels(recordPrefix, 6)
	a, a2, b, b2, c, d := ms[0], ms[1], ms[2], ms[3], ms[4], ms[5]
	a2.Key = a.Key
	b2.Key = b.Key

	expect0 := sortModels([]Model{a, b, c})
	expect1 := sortModels([]Model{a2, b2, c, d})
	expect2 := []Model{c}

	cases := map[string]iterCase{
		"records in child only": {
			child: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, expect0},
				{expect0[1].Key, expect0[2].Key, false, expect0[1:2]},
				{nil, nil, true, reverse(expect0)},
			},
		},
		"records in parent only": {
			pre: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, expect0},
				{expect0[1].Key, expect0[2].Key, false, expect0[1:2]},
				{nil, nil, true, reverse(expect0)},
			},
		},
		"records split between both": {
			pre:   makeSetOps(a, b),
			child: makeSetOps(c),
			queries: []rangeQuery{
				{nil, nil, false, expect0},
				{expect0[1].Key, expect0[2].Key, false, expect0[1:2]},
				{nil, nil, true, reverse(expect0)},
			},
		},
		"child overwrites parent records": {
			pre:   makeSetOps(a, b, c),
			child: makeSetOps(a2, b2, d),
			queries: []rangeQuery{
				{nil, nil, false, expect1},
				{expect1[1].Key, expect1[3].Key, false, expect1[1:3]},
				{nil, nil, true, reverse(expect1)},
			},
		},
		"child closes parent records": {
			pre:   makeSetOps(a, c, d),
			child: makeDelOps(a, b, d),
			queries: []rangeQuery{
				{nil, nil, false, expect2},
				{nil, c.Key, false, nil},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	_, _ = rand.Read(res)
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(size)
	}
	return res
}

// randModels returns count models keyed by prefix and a random address.
func randModels(prefix []byte, count int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(prefixed(prefix, randBytes(addressLen)), randBytes(40))
	}
	return models
}

type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

func (i iterCase) verify(t testing.TB, base CacheableKVStore) {
	for _, op := range i.pre {
		assert.Nil(t, op.Apply(base))
	}

	child := base.CacheWrap()
	for _, op := range i.child {
		assert.Nil(t, op.Apply(child))
	}

	for _, q := range i.queries {
		var iter Iterator
		var err error
		if q.reverse {
			iter, err = child.ReverseIterator(q.start, q.end)
		} else {
			iter, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		for i := 0; i < len(q.expected); i++ {
			if !iter.Valid() {
				t.Fatalf("iterator done after %d of %d items", i, len(q.expected))
			}
			if !bytes.Equal(q.expected[i].Key, iter.Key()) {
				t.Fatalf("want key %d: %X\ngot %X", i, q.expected[i].Key, iter.Key())
			}
			assert.Equal(t, q.expected[i].Value, iter.Value())
			iter.Next()
		}
		if iter.Valid() {
			t.Fatalf("iterator not done, got key %X", iter.Key())
		}
		iter.Close()
	}
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

// sortModels returns a sorted copy.
func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func withPrefix(models []Model, prefix []byte) []Model {
	var res []Model
	for _, m := range models {
		if bytes.HasPrefix(m.Key, prefix) {
			res = append(res, m)
		}
	}
	return res
}

// prefixRangeEnd returns the first key after every key starting with prefix.
func prefixRangeEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	end[len(end)-1]++
	return end
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
