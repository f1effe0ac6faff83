package app

import (
	"context"
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/chaintest"
	"github.com/iov-one/swapchain/chaintest/assert"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/store"
)

func TestChain(t *testing.T) {
	c1 := &chaintest.Decorator{}
	c2 := &chaintest.Decorator{}
	c3 := &chaintest.Decorator{}
	var nilDecorator *chaintest.Decorator
	h := &chaintest.Handler{}

	stack := ChainDecorators(c1, nilDecorator, c2).Chain(nil, c3).WithHandler(h)

	ctx := context.Background()
	db := store.MemStore()
	_, err := stack.Check(ctx, db, nil)
	assert.Nil(t, err)
	_, err = stack.Deliver(ctx, db, nil)
	assert.Nil(t, err)

	for _, d := range []*chaintest.Decorator{c1, c2, c3} {
		assert.Equal(t, 2, d.CallCount())
	}
	assert.Equal(t, 2, h.CallCount())
}

func TestChainStopsOnError(t *testing.T) {
	c1 := &chaintest.Decorator{}
	c2 := &chaintest.Decorator{DeliverErr: errors.ErrUnauthorized}
	h := &chaintest.Handler{}

	var stack swapchain.Handler = ChainDecorators(c1, c2).WithHandler(h)
	_, err := stack.Deliver(context.Background(), store.MemStore(), nil)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, 1, c1.DeliverCallCount())
	assert.Equal(t, 1, c2.DeliverCallCount())
	assert.Equal(t, 0, h.DeliverCallCount())
}

type orderDecorator struct {
	name string
	seen *[]string
}

func (o orderDecorator) Check(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx, next swapchain.Checker) (*swapchain.CheckResult, error) {
	*o.seen = append(*o.seen, o.name)
	return next.Check(ctx, db, tx)
}

func (o orderDecorator) Deliver(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx, next swapchain.Deliverer) (*swapchain.DeliverResult, error) {
	*o.seen = append(*o.seen, o.name)
	return next.Deliver(ctx, db, tx)
}

func TestChainOrder(t *testing.T) {
	var seen []string
	var metrics *chaintest.Decorator
	ds := []swapchain.Decorator{
		orderDecorator{name: "logging", seen: &seen},
		metrics,
		orderDecorator{name: "sigs", seen: &seen},
	}
	base := ChainDecorators(ds...)
	assert.Equal(t, 2, base.Len())
	// the argument keeps its nil entry
	assert.Equal(t, true, ds[1] == swapchain.Decorator(metrics))

	extended := base.Chain(orderDecorator{name: "savepoint", seen: &seen})
	assert.Equal(t, 2, base.Len())
	assert.Equal(t, 3, extended.Len())

	h := &chaintest.Handler{}
	_, err := extended.WithHandler(h).Deliver(context.Background(), store.MemStore(), nil)
	assert.Nil(t, err)
	assert.Equal(t, []string{"logging", "sigs", "savepoint"}, seen)
	assert.Equal(t, 1, h.DeliverCallCount())

	assert.Equal(t, swapchain.Handler(h), Decorators{}.WithHandler(h))
}
