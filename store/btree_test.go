package store

import (
	"testing"

	"github.com/iov-one/swapchain/chaintest/assert"
)

func memSuite() *TestSuite {
	return NewTestSuite(func() (CacheableKVStore, func()) {
		return MemStore(), func() {}
	})
}

func TestBTreeCacheGetSet(t *testing.T) {
	memSuite().GetSet(t)
}

func TestBTreeCacheConflicts(t *testing.T) {
	memSuite().CacheConflicts(t)
}

func TestBTreeCacheFuzzIterator(t *testing.T) {
	memSuite().FuzzIterator(t)
}

func TestBTreeCacheIteratorWithConflicts(t *testing.T) {
	memSuite().IteratorWithConflicts(t)
}

// TestDiscardLeavesNoTrace checks that a discarded cache wrap (a failed tx)
// does not change what the parent store sees.
func TestDiscardLeavesNoTrace(t *testing.T) {
	base := MemStore()
	assert.Nil(t, base.Set([]byte("vault"), []byte("100")))

	tx := base.CacheWrap()
	assert.Nil(t, tx.Set([]byte("vault"), []byte("0")))
	assert.Nil(t, tx.Set([]byte("holding"), []byte("100")))
	assert.Nil(t, tx.Delete([]byte("escrow")))
	tx.Discard()

	got, err := base.Get([]byte("vault"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("100"), got)
	has, err := base.Has([]byte("holding"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)
}

func TestLogableStore(t *testing.T) {
	kv, ops := LogableStore()
	assert.Nil(t, kv.Set([]byte("a"), []byte("1")))
	assert.Nil(t, kv.Delete([]byte("b")))

	got := ops.ShowOps()
	if len(got) != 2 {
		t.Fatalf("want 2 operations, got %d", len(got))
	}
	assert.Equal(t, true, got[0].IsSetOp())
	assert.Equal(t, false, got[1].IsSetOp())
}

func TestNilKeyRejected(t *testing.T) {
	kv := MemStore()
	if err := kv.Set(nil, []byte("x")); err == nil {
		t.Fatal("nil key must be rejected")
	}
	if err := kv.Delete(nil); err == nil {
		t.Fatal("nil key must be rejected")
	}
}
