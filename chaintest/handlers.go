package chaintest

import (
	"context"

	"github.com/iov-one/swapchain"
)

// Handler is a mock implementation of the swapchain.Handler interface.
//
// Each method call is counted. When Key is set, Deliver writes Key/Value to
// the store before returning DeliverErr, which lets callers check that a
// failed transaction leaves no trace.
type Handler struct {
	checkCall   int
	CheckResult swapchain.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult swapchain.DeliverResult
	DeliverErr    error

	Key   []byte
	Value []byte
}

var _ swapchain.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.DeliverResult, error) {
	h.deliverCall++
	if h.Key != nil {
		if err := db.Set(h.Key, h.Value); err != nil {
			return nil, err
		}
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
