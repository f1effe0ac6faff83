package app

import (
	"context"
	"testing"

	"github.com/iov-one/swapchain/chaintest"
	"github.com/iov-one/swapchain/chaintest/assert"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/store"
)

func TestRouter(t *testing.T) {
	r := NewRouter()
	ok := &chaintest.Handler{}
	failing := &chaintest.Handler{DeliverErr: errors.ErrUnauthorized}
	r.Handle(&chaintest.Msg{RoutePath: "escrow/make"}, ok)
	r.Handle(&chaintest.Msg{RoutePath: "escrow/take"}, failing)

	ctx := context.Background()
	db := store.MemStore()

	_, err := r.Deliver(ctx, db, &chaintest.Tx{Msg: &chaintest.Msg{RoutePath: "escrow/make"}})
	assert.Nil(t, err)
	assert.Equal(t, 1, ok.DeliverCallCount())

	_, err = r.Deliver(ctx, db, &chaintest.Tx{Msg: &chaintest.Msg{RoutePath: "escrow/take"}})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = r.Check(ctx, db, &chaintest.Tx{Msg: &chaintest.Msg{RoutePath: "escrow/refund"}})
	assert.IsErr(t, errors.ErrNotFound, err)

	_, err = r.Check(ctx, db, &chaintest.Tx{})
	assert.IsErr(t, errors.ErrInvalidMsg, err)

	_, err = r.Check(ctx, db, &chaintest.Tx{Err: errors.ErrInvalidInput})
	assert.IsErr(t, errors.ErrInvalidInput, err)
}

func TestRouterRegistration(t *testing.T) {
	r := NewRouter()
	h := &chaintest.Handler{}
	r.Handle(&chaintest.Msg{RoutePath: "escrow/make"}, h)

	assert.Panics(t, func() {
		r.Handle(&chaintest.Msg{RoutePath: "escrow/make"}, h)
	})
	assert.Panics(t, func() {
		r.Handle(&chaintest.Msg{RoutePath: "Escrow Make"}, h)
	})
	assert.Panics(t, func() {
		r.Handle(&chaintest.Msg{RoutePath: "escrow/"}, h)
	})
}
