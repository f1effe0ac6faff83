package app

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/commands"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/token"
)

// fixed keys give reproducible output; they are not secret at all
var (
	exampleMaker = deterministicKey("maker")
	exampleTaker = deterministicKey("taker")
)

const exampleChainID = "escrow-example"

// Examples generates some example structs to dump out with testgen
func Examples() []commands.Example {
	maker := exampleMaker.PublicKey().Address()
	taker := exampleTaker.PublicKey().Address()
	mintA, mintB := DevMints[0], DevMints[1]
	program := escrow.DevnetProgramID

	const seed = 42
	record, bump, err := escrow.RecordAddress(program, maker, seed)
	if err != nil {
		panic(err)
	}
	vault := mustAddr(escrow.VaultAddress(record, mintA))

	makeMsg := &escrow.MakeMsg{
		Seed:          seed,
		ReceiveAmount: 250,
		Amount:        100,
		Maker:         maker,
		MintA:         mintA,
		MintB:         mintB,
		MakerAtaA:     mustAddr(token.HoldingAddress(maker, mintA)),
		Escrow:        record,
		Vault:         vault,
		Programs:      escrow.DefaultPrograms(),
	}
	takeMsg := &escrow.TakeMsg{
		Taker:     taker,
		Maker:     maker,
		MintA:     mintA,
		MintB:     mintB,
		TakerAtaA: mustAddr(token.HoldingAddress(taker, mintA)),
		TakerAtaB: mustAddr(token.HoldingAddress(taker, mintB)),
		MakerAtaB: mustAddr(token.HoldingAddress(maker, mintB)),
		Escrow:    record,
		Vault:     vault,
		Programs:  escrow.DefaultPrograms(),
	}
	refundMsg := &escrow.RefundMsg{
		Maker:     maker,
		MintA:     mintA,
		MakerAtaA: makeMsg.MakerAtaA,
		Escrow:    record,
		Vault:     vault,
		Programs:  escrow.DefaultPrograms(),
	}
	rec := &escrow.Escrow{
		Seed:          seed,
		Bump:          bump,
		MintA:         mintA,
		MintB:         mintB,
		ReceiveAmount: 250,
		Maker:         maker,
	}

	tx, err := NewTx(makeMsg)
	if err != nil {
		panic(err)
	}
	if err := tx.Sign(exampleMaker, exampleChainID, 1); err != nil {
		panic(err)
	}

	return []commands.Example{
		{Filename: "escrow_record", Obj: rec},
		{Filename: "make_msg", Obj: makeMsg},
		{Filename: "take_msg", Obj: takeMsg},
		{Filename: "refund_msg", Obj: refundMsg},
		{Filename: "escrow_conf", Obj: &escrow.Configuration{Owner: maker, ProgramID: program, CloseRecipient: escrow.CloseToMaker}},
		{Filename: "make_tx", Obj: tx},
	}
}

func mustAddr(a swapchain.Address, err error) swapchain.Address {
	if err != nil {
		panic(err)
	}
	return a
}
