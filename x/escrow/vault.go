package escrow

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/orm"
	"github.com/iov-one/swapchain/x/cash"
	"github.com/iov-one/swapchain/x/token"
)

// Custodian holds the deposits of open offers. A vault is the holding
// account of the record address for mint A, so only the program acting
// for the record can move its tokens.
type Custodian struct {
	records orm.ModelBucket
	tokens  token.Controller
	cash    cash.Controller
}

// NewCustodian returns a custodian moving tokens with given controllers.
func NewCustodian(tokens token.Controller, cashctrl cash.Controller) *Custodian {
	return &Custodian{
		records: NewBucket(),
		tokens:  tokens,
		cash:    cashctrl,
	}
}

// Record loads the record stored under given address.
func (c *Custodian) Record(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (*Escrow, error) {
	var e Escrow
	if err := c.records.One(db, addr, &e); err != nil {
		return nil, errors.Wrap(err, "escrow")
	}
	return &e, nil
}

// Open stores the record, creates its vault and moves the deposit from the
// maker account into it. The maker pays both reserves.
func (c *Custodian) Open(db swapchain.KVStore, conf *Configuration, addr swapchain.Address, e *Escrow, makerAta swapchain.Address, amount uint64) (swapchain.Address, error) {
	if err := c.records.Create(db, addr, e); err != nil {
		return nil, err
	}
	if conf.RecordReserve > 0 {
		if err := c.cash.MoveCoins(db, e.Maker, addr, conf.RecordReserve); err != nil {
			return nil, errors.Wrap(err, "record reserve")
		}
	}
	vault, err := c.tokens.EnsureHoldingAccount(db, e.Maker, addr, e.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	if err := c.tokens.Transfer(db, e.Maker, makerAta, vault, amount); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	return vault, nil
}

// Release drains the whole vault into dest, closes the vault and deletes
// the record. Both reserves go to the recipient.
func (c *Custodian) Release(db swapchain.KVStore, addr swapchain.Address, e *Escrow, dest, recipient swapchain.Address) (uint64, error) {
	vault, err := VaultAddress(addr, e.MintA)
	if err != nil {
		return 0, err
	}
	held, err := token.Balance(db, c.tokens, vault)
	switch {
	case errors.ErrNotFound.Is(err):
		return 0, errors.Wrap(errors.ErrDomain, "vault is missing")
	case err != nil:
		return 0, err
	case held == 0:
		return 0, errors.Wrap(errors.ErrDomain, "vault is empty")
	}

	if err := c.tokens.Transfer(db, addr, vault, dest, held); err != nil {
		return 0, errors.Wrap(err, "release deposit")
	}
	if err := c.tokens.Close(db, addr, vault, recipient); err != nil {
		return 0, errors.Wrap(err, "close vault")
	}
	if err := c.records.Delete(db, addr); err != nil {
		return 0, errors.Wrap(err, "close record")
	}
	reserve, err := c.cash.Balance(db, addr)
	if err != nil {
		return 0, err
	}
	if reserve > 0 {
		if err := c.cash.MoveCoins(db, addr, recipient, reserve); err != nil {
			return 0, errors.Wrap(err, "record reserve")
		}
	}
	return held, nil
}
