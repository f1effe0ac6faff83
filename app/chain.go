package app

import (
	"context"
	"reflect"

	"github.com/iov-one/swapchain"
)

// Decorators is an ordered list of decorators waiting for the handler they
// will wrap. The first decorator sees the transaction first.
type Decorators struct {
	chain []swapchain.Decorator
}

/*
ChainDecorators starts a list of decorators. Nil decorators, like disabled
metrics, are skipped.

	app.ChainDecorators(
	  utils.NewLogging(),
	  utils.NewRecovery(),
	  metrics,
	  utils.NewActionTagger(),
	  utils.NewSavepoint().OnCheck(),
	  sigs.NewDecorator(),
	).WithHandler(escrowd.Router(auth))
*/
func ChainDecorators(chain ...swapchain.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a copy of d extended with the given decorators. d itself
// and the argument slice are not modified.
func (d Decorators) Chain(chain ...swapchain.Decorator) Decorators {
	all := make([]swapchain.Decorator, 0, len(d.chain)+len(chain))
	all = append(all, d.chain...)
	for _, dec := range chain {
		if !isNil(dec) {
			all = append(all, dec)
		}
	}
	return Decorators{chain: all}
}

// Len returns the number of non nil decorators.
func (d Decorators) Len() int {
	return len(d.chain)
}

// isNil is true for a nil interface and for a typed nil pointer.
func isNil(d swapchain.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler closes the list with h.
func (d Decorators) WithHandler(h swapchain.Handler) swapchain.Handler {
	if len(d.chain) == 0 {
		return h
	}
	return stack{chain: d.chain, handler: h}
}

// stack runs chain[0] with the rest of the stack as its next handler.
type stack struct {
	chain   []swapchain.Decorator
	handler swapchain.Handler
}

var _ swapchain.Handler = stack{}

func (s stack) next() swapchain.Handler {
	if len(s.chain) == 1 {
		return s.handler
	}
	return stack{chain: s.chain[1:], handler: s.handler}
}

func (s stack) Check(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx) (*swapchain.CheckResult, error) {
	return s.chain[0].Check(ctx, store, tx, s.next())
}

func (s stack) Deliver(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx) (*swapchain.DeliverResult, error) {
	return s.chain[0].Deliver(ctx, store, tx, s.next())
}
