package utils

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/chaintest"
	"github.com/iov-one/swapchain/chaintest/assert"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/store"
	"github.com/tendermint/tendermint/libs/log"
)

type panicHandler struct{}

var _ swapchain.Handler = panicHandler{}

func (panicHandler) Check(context.Context, swapchain.KVStore, swapchain.Tx) (*swapchain.CheckResult, error) {
	panic("check panic")
}

func (panicHandler) Deliver(context.Context, swapchain.KVStore, swapchain.Tx) (*swapchain.DeliverResult, error) {
	panic("deliver panic")
}

func TestRecovery(t *testing.T) {
	var h panicHandler
	r := NewRecovery()
	ctx := context.Background()
	db := store.MemStore()

	assert.Panics(t, func() { _, _ = h.Check(ctx, db, nil) })

	_, err := r.Check(ctx, db, nil, h)
	assert.IsErr(t, errors.ErrPanic, err)
	_, err = r.Deliver(ctx, db, nil, h)
	assert.IsErr(t, errors.ErrPanic, err)

	var buf bytes.Buffer
	ctx = swapchain.WithLogger(ctx, log.NewTMLogger(&buf))
	tx := &chaintest.Tx{Msg: &chaintest.Msg{RoutePath: "escrow/refund"}}
	_, err = r.Deliver(ctx, db, tx, h)
	assert.IsErr(t, errors.ErrPanic, err)
	if !strings.Contains(err.Error(), "deliver escrow/refund: deliver panic") {
		t.Fatalf("unexpected error message: %s", err)
	}
	if !strings.Contains(buf.String(), "path=escrow/refund") {
		t.Fatalf("panic not logged with the message path: %s", buf.String())
	}
}

func TestSavepoint(t *testing.T) {
	key, value := []byte("key"), []byte("value")

	cases := map[string]struct {
		save    Savepoint
		err     error
		check   bool
		written bool
	}{
		"disabled keeps writes of a failure": {
			save:    NewSavepoint(),
			err:     errors.ErrNotFound,
			written: true,
		},
		"deliver savepoint drops writes of a failure": {
			save:    NewSavepoint().OnDeliver(),
			err:     errors.ErrNotFound,
			written: false,
		},
		"check savepoint does not affect deliver": {
			save:    NewSavepoint().OnCheck(),
			err:     errors.ErrNotFound,
			written: true,
		},
		"success is written": {
			save:    NewSavepoint().OnCheck().OnDeliver(),
			written: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			h := &chaintest.Handler{Key: key, Value: value, DeliverErr: tc.err}
			_, err := chaintest.Decorate(h, tc.save).Deliver(context.Background(), db, &chaintest.Tx{})
			if tc.err != nil {
				assert.IsErr(t, tc.err, err)
			} else {
				assert.Nil(t, err)
			}
			has, err := db.Has(key)
			assert.Nil(t, err)
			assert.Equal(t, tc.written, has)
		})
	}
}

func TestActionTagger(t *testing.T) {
	h := &chaintest.Handler{}
	tx := &chaintest.Tx{Msg: &chaintest.Msg{RoutePath: "escrow/take"}}
	res, err := chaintest.Decorate(h, NewActionTagger()).Deliver(context.Background(), store.MemStore(), tx)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res.Tags))
	assert.Equal(t, []byte(ActionKey), res.Tags[0].Key)
	assert.Equal(t, []byte("escrow/take"), res.Tags[0].Value)

	h.DeliverErr = errors.ErrUnauthorized
	_, err = chaintest.Decorate(h, NewActionTagger()).Deliver(context.Background(), store.MemStore(), tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestLogging(t *testing.T) {
	h := &chaintest.Handler{DeliverErr: errors.ErrNotFound}
	d := chaintest.Decorate(h, NewLogging())
	_, err := d.Check(context.Background(), store.MemStore(), &chaintest.Tx{})
	assert.Nil(t, err)
	_, err = d.Deliver(context.Background(), store.MemStore(), &chaintest.Tx{})
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, 2, h.CallCount())
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	tx := &chaintest.Tx{Msg: &chaintest.Msg{RoutePath: "escrow/make"}}
	ok := chaintest.Decorate(&chaintest.Handler{}, m)
	failing := chaintest.Decorate(&chaintest.Handler{DeliverErr: errors.ErrDuplicate}, m)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := ok.Deliver(ctx, store.MemStore(), tx)
		assert.Nil(t, err)
	}
	_, err := failing.Deliver(ctx, store.MemStore(), tx)
	assert.IsErr(t, errors.ErrDuplicate, err)
	_, err = ok.Check(ctx, store.MemStore(), tx)
	assert.Nil(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`swapchain_delivered_txs_total{code="0",path="escrow/make"} 2`,
		`swapchain_delivered_txs_total{code="6",path="escrow/make"} 1`,
		`swapchain_checked_txs_total{code="0",path="escrow/make"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in\n%s", want, body)
		}
	}
}
