package client

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/token"
)

// NewMakeMsg derives every account of a make instruction from the maker,
// the mints and the seed.
func NewMakeMsg(program, maker, mintA, mintB swapchain.Address, seed, amount, receive uint64) (*escrow.MakeMsg, error) {
	record, _, err := escrow.RecordAddress(program, maker, seed)
	if err != nil {
		return nil, errors.Wrap(err, "escrow address")
	}
	vault, err := escrow.VaultAddress(record, mintA)
	if err != nil {
		return nil, errors.Wrap(err, "vault address")
	}
	makerAtaA, err := token.HoldingAddress(maker, mintA)
	if err != nil {
		return nil, errors.Wrap(err, "maker mint a account")
	}
	return &escrow.MakeMsg{
		Seed:          seed,
		ReceiveAmount: receive,
		Amount:        amount,
		Maker:         maker,
		MintA:         mintA,
		MintB:         mintB,
		MakerAtaA:     makerAtaA,
		Escrow:        record,
		Vault:         vault,
		Programs:      escrow.DefaultPrograms(),
	}, nil
}

// NewTakeMsg builds a take instruction for an open offer.
func NewTakeMsg(taker swapchain.Address, offer *Offer) (*escrow.TakeMsg, error) {
	holding := func(owner, mint swapchain.Address) (swapchain.Address, error) {
		addr, err := token.HoldingAddress(owner, mint)
		return addr, errors.Wrap(err, "holding account")
	}
	takerAtaA, err := holding(taker, offer.MintA)
	if err != nil {
		return nil, err
	}
	takerAtaB, err := holding(taker, offer.MintB)
	if err != nil {
		return nil, err
	}
	makerAtaB, err := holding(offer.Maker, offer.MintB)
	if err != nil {
		return nil, err
	}
	return &escrow.TakeMsg{
		Taker:     taker,
		Maker:     offer.Maker,
		MintA:     offer.MintA,
		MintB:     offer.MintB,
		TakerAtaA: takerAtaA,
		TakerAtaB: takerAtaB,
		MakerAtaB: makerAtaB,
		Escrow:    offer.Address,
		Vault:     offer.Vault,
		Programs:  escrow.DefaultPrograms(),
	}, nil
}

// NewRefundMsg builds a refund instruction for an open offer.
func NewRefundMsg(offer *Offer) (*escrow.RefundMsg, error) {
	makerAtaA, err := token.HoldingAddress(offer.Maker, offer.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "maker mint a account")
	}
	return &escrow.RefundMsg{
		Maker:     offer.Maker,
		MintA:     offer.MintA,
		MakerAtaA: makerAtaA,
		Escrow:    offer.Address,
		Vault:     offer.Vault,
		Programs:  escrow.DefaultPrograms(),
	}, nil
}
