package app

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

// CommitStore holds the committed ledger and two pending views over it.
//
// deliver collects the writes of the block being executed. check is where
// mempool transactions are validated; it starts from the state the next
// block will see and is rebuilt on every commit.
type CommitStore struct {
	committed swapchain.CommitKVStore
	deliver   swapchain.KVCacheWrap
	check     swapchain.KVCacheWrap
}

// NewCommitStore loads the latest version of the ledger. It panics when the
// store cannot be loaded.
func NewCommitStore(store swapchain.CommitKVStore) *CommitStore {
	if err := store.LoadLatestVersion(); err != nil {
		panic(err)
	}
	return &CommitStore{
		committed: store,
		deliver:   store.CacheWrap(),
		check:     store.CacheWrap(),
	}
}

// CommitInfo returns the last committed height and app hash.
func (cs *CommitStore) CommitInfo() (swapchain.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Genesis points the check view at the genesis state written to the
// deliver view. Offers can be checked before the first block commits,
// when the mints and configuration exist only in deliver.
func (cs *CommitStore) Genesis() {
	cs.check.Discard()
	cs.check = cs.deliver.CacheWrap()
}

// Commit writes the block to the ledger. Both views restart from the new
// version. Whatever check accumulated is dropped.
func (cs *CommitStore) Commit() (swapchain.CommitID, error) {
	cs.check.Discard()
	if err := cs.deliver.Write(); err != nil {
		return swapchain.CommitID{}, errors.Wrap(err, "write block")
	}
	id, err := cs.committed.Commit()
	if err != nil {
		return id, errors.Wrap(err, "commit ledger")
	}
	cs.deliver = cs.committed.CacheWrap()
	cs.check = cs.committed.CacheWrap()
	return id, nil
}

// CheckStore returns the view used by CheckTx.
func (cs *CommitStore) CheckStore() swapchain.CacheableKVStore {
	return cs.check
}

// DeliverStore returns the view used by DeliverTx.
func (cs *CommitStore) DeliverStore() swapchain.CacheableKVStore {
	return cs.deliver
}

// Internal keys use the _sc: prefix, which no bucket name can produce.
const chainIDKey = "_sc:chainID"

// mustLoadChainID returns the stored chain id or "" before genesis.
func mustLoadChainID(kv swapchain.ReadOnlyKVStore) string {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		panic(err)
	}
	return string(v)
}

// saveChainID stores the chain id once. Signatures commit to it, so it can
// never change after genesis.
func saveChainID(kv swapchain.KVStore, chainID string) error {
	if !swapchain.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	switch exists, err := kv.Has(k); {
	case err != nil:
		return errors.Wrap(err, "load chain id")
	case exists:
		return errors.Wrap(errors.ErrUnauthorized, "chain id is set at genesis")
	}
	return errors.Wrap(kv.Set(k, []byte(chainID)), "save chain id")
}
