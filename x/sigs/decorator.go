/*
Package sigs provides basic authentication
middleware to verify the signatures on the transaction,
and to reject transactions that were already processed.
*/
package sigs

import (
	"context"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

// RegisterQuery will register this bucket as "/sigs"
func RegisterQuery(qr swapchain.QueryRouter) {
	NewBucket().Register("sigs", qr)
}

// Decorator verifies the signatures and adds them to the context
type Decorator struct {
	allowMissingSigs bool
}

var _ swapchain.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator,
// which appends the chainID before checking the signature,
// and requires at least one signature to be present
func NewDecorator() Decorator {
	return Decorator{
		allowMissingSigs: false,
	}
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

// Check verifies signatures before calling down the stack.
func (d Decorator) Check(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx, next swapchain.Checker) (*swapchain.CheckResult, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return next.Check(ctx, store, tx)
	}
	ctx, err := d.authenticate(ctx, store, stx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver verifies signatures before calling down the stack.
func (d Decorator) Deliver(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx, next swapchain.Deliverer) (*swapchain.DeliverResult, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return next.Deliver(ctx, store, tx)
	}
	ctx, err := d.authenticate(ctx, store, stx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

// authenticate verifies all signatures and records the transaction id.
// The record is written to the same store as the message execution, so it
// is discarded together with it if the transaction fails.
func (d Decorator) authenticate(ctx context.Context, store swapchain.KVStore, tx SignedTx) (context.Context, error) {
	chainID := swapchain.GetChainID(ctx)
	signers, err := VerifyTxSignatures(tx, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 {
		if !d.allowMissingSigs {
			return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
		}
		return withSigners(ctx, signers), nil
	}
	if err := markProcessed(ctx, store, TxID(tx), signers[0]); err != nil {
		return nil, err
	}
	return withSigners(ctx, signers), nil
}
