package app

import (
	"sync"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp adds DeliverTx, CheckTx, and BeginBlock
// handlers to the storage and query functionality of StoreApp
//
// Instructions touching the same records must never interleave, so
// DeliverTx, CheckTx and Commit are serialized.
type BaseApp struct {
	*StoreApp
	decoder swapchain.TxDecoder
	handler swapchain.Handler
	debug   bool

	mu *sync.Mutex
}

var _ abci.Application = BaseApp{}

// NewBaseApp constructs a basic abci application
func NewBaseApp(
	store *StoreApp,
	decoder swapchain.TxDecoder,
	handler swapchain.Handler,
	debug bool,
) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
		mu:       &sync.Mutex{},
	}
}

// DeliverTx - ABCI - dispatches to the handler
func (b BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return swapchain.DeliverTxError(err, b.debug)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := swapchain.WithLogInfo(b.BlockContext(),
		"call", "deliver_tx",
		"path", swapchain.GetPath(tx))

	// A failed transaction must not leave partial writes behind.
	cache := b.DeliverStore().CacheWrap()
	res, err := b.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return swapchain.DeliverTxError(err, b.debug)
	}
	if err := cache.Write(); err != nil {
		return swapchain.DeliverTxError(errors.Wrap(err, "write state"), b.debug)
	}
	return res.ToABCI()
}

// CheckTx - ABCI - dispatches to the handler
func (b BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return swapchain.CheckTxError(err, b.debug)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := swapchain.WithLogInfo(b.BlockContext(),
		"call", "check_tx",
		"path", swapchain.GetPath(tx))

	cache := b.CheckStore().CacheWrap()
	res, err := b.handler.Check(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return swapchain.CheckTxError(err, b.debug)
	}
	if err := cache.Write(); err != nil {
		return swapchain.CheckTxError(errors.Wrap(err, "write state"), b.debug)
	}
	return res.ToABCI()
}

// BeginBlock - ABCI
func (b BaseApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.StoreApp.BeginBlock(req)
}

// Commit - ABCI
func (b BaseApp) Commit() abci.ResponseCommit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.StoreApp.Commit()
}

// loadTx calls the decoder, and capture any panics
func (b BaseApp) loadTx(txBytes []byte) (tx swapchain.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	return
}

// Query - ABCI
func (b BaseApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.StoreApp.Query(req)
}
