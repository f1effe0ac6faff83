package escrow

import (
	"context"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/gconf"
	"github.com/iov-one/swapchain/x"
	"github.com/iov-one/swapchain/x/cash"
	"github.com/iov-one/swapchain/x/token"
	"github.com/tendermint/tendermint/libs/common"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r swapchain.Registry, auth x.Authenticator, tokens token.Controller, cashctrl cash.Controller) {
	custodian := NewCustodian(tokens, cashctrl)
	r.Handle(&MakeMsg{}, MakeHandler{auth: auth, tokens: tokens, custodian: custodian})
	r.Handle(&TakeMsg{}, TakeHandler{auth: auth, tokens: tokens, custodian: custodian})
	r.Handle(&RefundMsg{}, RefundHandler{auth: auth, tokens: tokens, custodian: custodian})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(packageName, &Configuration{}, auth))
}

// resultTags reports the record address. The action tag is added by the
// application for every message.
func resultTags(record swapchain.Address, action string) *swapchain.DeliverResult {
	return &swapchain.DeliverResult{
		Data: record,
		Log:  action,
		Tags: []common.KVPair{swapchain.Tag("escrow", []byte(record.String()))},
	}
}

// requireAccount checks that addr is the canonical holding account of the
// owner for the mint.
func requireAccount(name string, addr, owner, mint swapchain.Address) error {
	want, err := token.HoldingAddress(owner, mint)
	if err != nil {
		return err
	}
	if !addr.Equals(want) {
		return errors.Wrapf(errors.ErrConstraint, "%s is not the holding account of %s", name, owner)
	}
	return nil
}

// available returns the balance of an account that may not exist yet.
func available(db swapchain.ReadOnlyKVStore, tokens token.Controller, acct swapchain.Address) (uint64, error) {
	n, err := token.Balance(db, tokens, acct)
	if errors.ErrNotFound.Is(err) {
		return 0, nil
	}
	return n, err
}

// MakeHandler opens an offer.
type MakeHandler struct {
	auth      x.Authenticator
	tokens    token.Controller
	custodian *Custodian
}

var _ swapchain.Handler = MakeHandler{}

func (h MakeHandler) Check(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &swapchain.CheckResult{}, nil
}

func (h MakeHandler) Deliver(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.DeliverResult, error) {
	msg, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if _, err := h.custodian.Open(db, conf, msg.Escrow, record, msg.MakerAtaA, msg.Amount); err != nil {
		return nil, err
	}
	swapchain.GetLogger(ctx).Info("escrow made",
		"escrow", msg.Escrow,
		"maker", msg.Maker,
		"seed", msg.Seed,
		"amount", msg.Amount,
		"receive", msg.ReceiveAmount)
	return resultTags(msg.Escrow, "make"), nil
}

func (h MakeHandler) validate(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*MakeMsg, *Escrow, error) {
	var msg MakeMsg
	if err := swapchain.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "maker signature required")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if conf.RejectSameMint && msg.MintA.Equals(msg.MintB) {
		return nil, nil, errors.Wrap(errors.ErrInvalidInput, "offer exchanges a mint for itself")
	}
	if _, err := h.tokens.Mint(db, msg.MintA); err != nil {
		return nil, nil, errors.Wrap(err, "mint a")
	}
	if _, err := h.tokens.Mint(db, msg.MintB); err != nil {
		return nil, nil, errors.Wrap(err, "mint b")
	}

	addr, bump, err := RecordAddress(conf.program(), msg.Maker, msg.Seed)
	if err != nil {
		return nil, nil, err
	}
	if !addr.Equals(msg.Escrow) {
		return nil, nil, errors.Wrap(errors.ErrConstraint, "escrow address does not match seeds")
	}
	vault, err := VaultAddress(addr, msg.MintA)
	if err != nil {
		return nil, nil, err
	}
	if !vault.Equals(msg.Vault) {
		return nil, nil, errors.Wrap(errors.ErrConstraint, "vault address does not match escrow")
	}
	if err := requireAccount("maker mint a account", msg.MakerAtaA, msg.Maker, msg.MintA); err != nil {
		return nil, nil, err
	}

	switch err := h.custodian.records.Has(db, addr); {
	case err == nil:
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "escrow %s", addr)
	case !errors.ErrNotFound.Is(err):
		return nil, nil, err
	}

	held, err := available(db, h.tokens, msg.MakerAtaA)
	if err != nil {
		return nil, nil, err
	}
	if held < msg.Amount {
		return nil, nil, errors.Wrapf(errors.ErrInsufficientAmount, "maker holds %d, deposit is %d", held, msg.Amount)
	}

	record := &Escrow{
		Seed:          msg.Seed,
		Bump:          bump,
		MintA:         msg.MintA,
		MintB:         msg.MintB,
		ReceiveAmount: msg.ReceiveAmount,
		Maker:         msg.Maker,
	}
	return &msg, record, nil
}

// TakeHandler settles an offer. The taker pays the requested amount to the
// maker and receives the whole vault.
type TakeHandler struct {
	auth      x.Authenticator
	tokens    token.Controller
	custodian *Custodian
}

var _ swapchain.Handler = TakeHandler{}

func (h TakeHandler) Check(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &swapchain.CheckResult{}, nil
}

func (h TakeHandler) Deliver(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.DeliverResult, error) {
	msg, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}

	if record.ReceiveAmount > 0 {
		makerAta, err := h.tokens.EnsureHoldingAccount(db, msg.Taker, record.Maker, record.MintB)
		if err != nil {
			return nil, errors.Wrap(err, "maker mint b account")
		}
		if err := h.tokens.Transfer(db, msg.Taker, msg.TakerAtaB, makerAta, record.ReceiveAmount); err != nil {
			return nil, errors.Wrap(err, "pay maker")
		}
	}
	takerAta, err := h.tokens.EnsureHoldingAccount(db, msg.Taker, msg.Taker, record.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "taker mint a account")
	}

	recipient := record.Maker
	if conf.closeToTaker() {
		recipient = msg.Taker
	}
	released, err := h.custodian.Release(db, msg.Escrow, record, takerAta, recipient)
	if err != nil {
		return nil, err
	}
	swapchain.GetLogger(ctx).Info("escrow taken",
		"escrow", msg.Escrow,
		"taker", msg.Taker,
		"released", released,
		"paid", record.ReceiveAmount)
	return resultTags(msg.Escrow, "take"), nil
}

func (h TakeHandler) validate(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*TakeMsg, *Escrow, error) {
	var msg TakeMsg
	if err := swapchain.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Taker) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "taker signature required")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	record, err := h.custodian.Record(db, msg.Escrow)
	if err != nil {
		return nil, nil, err
	}
	if err := checkRecord(conf, msg.Escrow, record, msg.Maker, msg.MintA, msg.Vault); err != nil {
		return nil, nil, err
	}
	if !record.MintB.Equals(msg.MintB) {
		return nil, nil, errors.Wrap(errors.ErrConstraint, "mint b does not match escrow")
	}
	if err := requireAccount("taker mint a account", msg.TakerAtaA, msg.Taker, record.MintA); err != nil {
		return nil, nil, err
	}
	if err := requireAccount("taker mint b account", msg.TakerAtaB, msg.Taker, record.MintB); err != nil {
		return nil, nil, err
	}
	if err := requireAccount("maker mint b account", msg.MakerAtaB, record.Maker, record.MintB); err != nil {
		return nil, nil, err
	}

	if record.ReceiveAmount > 0 {
		held, err := available(db, h.tokens, msg.TakerAtaB)
		if err != nil {
			return nil, nil, err
		}
		if held < record.ReceiveAmount {
			return nil, nil, errors.Wrapf(errors.ErrInsufficientAmount, "taker holds %d, offer asks %d", held, record.ReceiveAmount)
		}
	}
	return &msg, record, nil
}

// RefundHandler cancels an offer and returns the deposit to the maker.
type RefundHandler struct {
	auth      x.Authenticator
	tokens    token.Controller
	custodian *Custodian
}

var _ swapchain.Handler = RefundHandler{}

func (h RefundHandler) Check(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &swapchain.CheckResult{}, nil
}

func (h RefundHandler) Deliver(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*swapchain.DeliverResult, error) {
	msg, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// The maker may have closed the original account since.
	makerAta, err := h.tokens.EnsureHoldingAccount(db, msg.Maker, msg.Maker, record.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "maker mint a account")
	}
	refunded, err := h.custodian.Release(db, msg.Escrow, record, makerAta, record.Maker)
	if err != nil {
		return nil, err
	}
	swapchain.GetLogger(ctx).Info("escrow refunded",
		"escrow", msg.Escrow,
		"maker", msg.Maker,
		"refunded", refunded)
	return resultTags(msg.Escrow, "refund"), nil
}

func (h RefundHandler) validate(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx) (*RefundMsg, *Escrow, error) {
	var msg RefundMsg
	if err := swapchain.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "maker signature required")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	record, err := h.custodian.Record(db, msg.Escrow)
	if err != nil {
		return nil, nil, err
	}
	if err := checkRecord(conf, msg.Escrow, record, msg.Maker, msg.MintA, msg.Vault); err != nil {
		return nil, nil, err
	}
	if err := requireAccount("maker mint a account", msg.MakerAtaA, record.Maker, record.MintA); err != nil {
		return nil, nil, err
	}
	return &msg, record, nil
}

// checkRecord verifies that the accounts passed with an instruction are
// the ones the stored record refers to.
func checkRecord(conf *Configuration, addr swapchain.Address, record *Escrow, maker, mintA, vault swapchain.Address) error {
	if !record.Maker.Equals(maker) {
		return errors.Wrap(errors.ErrConstraint, "maker does not match escrow")
	}
	if !record.MintA.Equals(mintA) {
		return errors.Wrap(errors.ErrConstraint, "mint a does not match escrow")
	}
	want, err := recordAddressWithBump(conf.program(), record.Maker, record.Seed, record.Bump)
	if err != nil {
		return err
	}
	if !want.Equals(addr) {
		return errors.Wrap(errors.ErrConstraint, "escrow address does not match seeds")
	}
	wantVault, err := VaultAddress(addr, record.MintA)
	if err != nil {
		return err
	}
	if !wantVault.Equals(vault) {
		return errors.Wrap(errors.ErrConstraint, "vault address does not match escrow")
	}
	return nil
}
