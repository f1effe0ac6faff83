package utils

import (
	"context"
	"runtime/debug"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

// Recovery turns a panicking handler into a failed transaction. The panic
// is logged together with the message path and the stack.
type Recovery struct{}

var _ swapchain.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (r Recovery) Check(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx, next swapchain.Checker) (_ *swapchain.CheckResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = recovered(ctx, "check", tx, p)
		}
	}()
	return next.Check(ctx, store, tx)
}

func (r Recovery) Deliver(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx, next swapchain.Deliverer) (_ *swapchain.DeliverResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = recovered(ctx, "deliver", tx, p)
		}
	}()
	return next.Deliver(ctx, store, tx)
}

func recovered(ctx context.Context, stage string, tx swapchain.Tx, p interface{}) error {
	path := "(missing)"
	if tx != nil {
		path = swapchain.GetPath(tx)
	}
	swapchain.GetLogger(ctx).Error("handler panic",
		"stage", stage,
		"path", path,
		"panic", p,
		"stack", string(debug.Stack()))
	return errors.Wrapf(errors.ErrPanic, "%s %s: %v", stage, path, p)
}
