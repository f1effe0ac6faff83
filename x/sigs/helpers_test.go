package sigs

import (
	"context"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/chaintest"
)

// StdTx is a minimal signed transaction used in tests.
type StdTx struct {
	swapchain.Tx
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ swapchain.Tx = (*StdTx)(nil)

func NewStdTx(payload []byte) *StdTx {
	msg := &chaintest.Msg{RoutePath: "test/mock", Serialized: payload}
	return &StdTx{Tx: &chaintest.Tx{Msg: msg}}
}

func (tx StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx StdTx) GetSignBytes() ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	return msg.Marshal()
}

// SigCheckHandler stores the seen signers on each call
type SigCheckHandler struct {
	Signers []swapchain.Address
	Err     error
}

var _ swapchain.Handler = (*SigCheckHandler)(nil)

func (s *SigCheckHandler) Check(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx) (*swapchain.CheckResult, error) {
	s.Signers = Authenticate{}.GetSigners(ctx)
	if s.Err != nil {
		return nil, s.Err
	}
	return &swapchain.CheckResult{}, nil
}

func (s *SigCheckHandler) Deliver(ctx context.Context, store swapchain.KVStore, tx swapchain.Tx) (*swapchain.DeliverResult, error) {
	s.Signers = Authenticate{}.GetSigners(ctx)
	if s.Err != nil {
		return nil, s.Err
	}
	return &swapchain.DeliverResult{}, nil
}
