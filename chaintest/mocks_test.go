package chaintest

import (
	"context"
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/store"
)

func TestHandlerWithError(t *testing.T) {
	h := Handler{
		CheckErr:   errors.ErrUnauthorized,
		DeliverErr: errors.ErrNotFound,
	}

	_, err := h.Check(nil, nil, nil)
	if want := errors.ErrUnauthorized; !want.Is(err) {
		t.Errorf("want %q, got %q", want, err)
	}

	_, err = h.Deliver(nil, nil, nil)
	if want := errors.ErrNotFound; !want.Is(err) {
		t.Errorf("want %q, got %q", want, err)
	}
}

//nolint
func TestHandlerCallCount(t *testing.T) {
	var h Handler

	assertHCounts(t, &h, 0, 0)

	h.Check(nil, nil, nil)
	assertHCounts(t, &h, 1, 0)

	h.Deliver(nil, nil, nil)
	assertHCounts(t, &h, 1, 1)

	// Failing counter must increment as well.
	h.CheckErr = errors.ErrNotFound
	h.DeliverErr = errors.ErrNotFound

	h.Check(nil, nil, nil)
	assertHCounts(t, &h, 2, 1)

	h.Deliver(nil, nil, nil)
	assertHCounts(t, &h, 2, 2)
}

func TestHandlerWrites(t *testing.T) {
	db := store.MemStore()
	h := Handler{Key: []byte("k"), Value: []byte("v"), DeliverErr: errors.ErrDomain}
	if _, err := h.Deliver(nil, db, nil); !errors.ErrDomain.Is(err) {
		t.Fatalf("unexpected error: %s", err)
	}
	if v, _ := db.Get([]byte("k")); string(v) != "v" {
		t.Fatalf("unexpected value: %q", v)
	}
}

func TestSuccessfulDecorator(t *testing.T) {
	var (
		d Decorator
		h Handler
	)

	_, _ = d.Check(nil, nil, nil, &h)
	assertHCounts(t, &h, 1, 0)

	_, _ = d.Deliver(nil, nil, nil, &h)
	assertHCounts(t, &h, 1, 1)

	hn := Decorate(&h, &d)
	_, _ = hn.Deliver(nil, nil, nil)
	assertHCounts(t, &h, 1, 2)
	if d.CallCount() != 3 {
		t.Fatalf("want 3 decorator calls, got %d", d.CallCount())
	}
}

func TestDecoratorWithError(t *testing.T) {
	d := Decorator{
		CheckErr:   errors.ErrUnauthorized,
		DeliverErr: errors.ErrNotFound,
	}

	// When using an error returning decorator, handler is never called.
	// Otherwise using nil would panic.
	var handler swapchain.Handler

	_, err := d.Check(nil, nil, nil, handler)
	if want := errors.ErrUnauthorized; !want.Is(err) {
		t.Errorf("want %q, got %q", want, err)
	}

	_, err = d.Deliver(nil, nil, nil, handler)
	if want := errors.ErrNotFound; !want.Is(err) {
		t.Errorf("want %q, got %q", want, err)
	}
}

func TestCtxAuth(t *testing.T) {
	a := NewAddress()
	auth := &CtxAuth{Key: "k"}
	ctx := auth.SetSigners(context.Background(), a)
	if !auth.HasAddress(ctx, a) {
		t.Fatal("signer not found")
	}
	if auth.HasAddress(ctx, NewAddress()) {
		t.Fatal("unexpected signer")
	}
}

type counter interface {
	CheckCallCount() int
	DeliverCallCount() int
}

func assertHCounts(t testing.TB, c counter, wantCheck, wantDeliver int) {
	t.Helper()
	if got := c.CheckCallCount(); got != wantCheck {
		t.Errorf("want %d check calls, got %d", wantCheck, got)
	}
	if got := c.DeliverCallCount(); got != wantDeliver {
		t.Errorf("want %d deliver calls, got %d", wantDeliver, got)
	}
}
