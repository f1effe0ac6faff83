package token

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/orm"
	"github.com/iov-one/swapchain/x/cash"
)

// Controller is the functionality other extensions use to hold and move
// tokens.
type Controller interface {
	// Mint returns the mint stored under given address.
	Mint(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (*Mint, error)

	// Account returns the holding account stored under given address.
	Account(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (*Account, error)

	// EnsureHoldingAccount returns the address of the canonical holding
	// account of the owner for the mint, creating it if needed. The payer
	// funds the account reserve of a created account.
	EnsureHoldingAccount(db swapchain.KVStore, payer, owner, mint swapchain.Address) (swapchain.Address, error)

	// Transfer moves amount between two accounts of the same mint. The
	// authority must own the source account.
	Transfer(db swapchain.KVStore, authority, src, dest swapchain.Address, amount uint64) error

	// Close removes an empty account owned by the authority and returns
	// its reserve to the recipient.
	Close(db swapchain.KVStore, authority, acct, recipient swapchain.Address) error
}

// BaseController is the default Controller implementation.
type BaseController struct {
	mints    orm.ModelBucket
	accounts orm.ModelBucket
	cash     cash.Controller
}

var _ Controller = BaseController{}

// NewController returns a controller that keeps account reserves with
// given cash controller.
func NewController(cashctrl cash.Controller) BaseController {
	return BaseController{
		mints:    NewMintBucket(),
		accounts: NewAccountBucket(),
		cash:     cashctrl,
	}
}

func (c BaseController) Mint(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (*Mint, error) {
	var m Mint
	if err := c.mints.One(db, addr, &m); err != nil {
		return nil, errors.Wrap(err, "mint")
	}
	return &m, nil
}

func (c BaseController) Account(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (*Account, error) {
	var a Account
	if err := c.accounts.One(db, addr, &a); err != nil {
		return nil, errors.Wrap(err, "holding account")
	}
	return &a, nil
}

func (c BaseController) EnsureHoldingAccount(db swapchain.KVStore, payer, owner, mint swapchain.Address) (swapchain.Address, error) {
	if _, err := c.Mint(db, mint); err != nil {
		return nil, err
	}
	addr, err := HoldingAddress(owner, mint)
	if err != nil {
		return nil, errors.Wrap(err, "holding address")
	}
	switch err := c.accounts.Has(db, addr); {
	case err == nil:
		return addr, nil
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if conf.AccountReserve > 0 {
		if err := c.cash.MoveCoins(db, payer, addr, conf.AccountReserve); err != nil {
			return nil, errors.Wrap(err, "account reserve")
		}
	}
	acct := Account{Mint: mint, Owner: owner}
	if err := c.accounts.Create(db, addr, &acct); err != nil {
		return nil, errors.Wrap(err, "create account")
	}
	return addr, nil
}

func (c BaseController) Transfer(db swapchain.KVStore, authority, src, dest swapchain.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero value")
	}
	from, err := c.Account(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if !from.Owner.Equals(authority) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s does not own %s", authority, src)
	}
	to, err := c.Account(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !from.Mint.Equals(to.Mint) {
		return errors.Wrap(errors.ErrConstraint, "mint mismatch")
	}
	if from.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %d, needs %d", src, from.Amount, amount)
	}
	if src.Equals(dest) {
		return nil
	}
	if to.Amount+amount < to.Amount {
		return errors.Wrapf(errors.ErrOverflow, "account %s", dest)
	}
	from.Amount -= amount
	to.Amount += amount
	if err := c.accounts.Put(db, src, from); err != nil {
		return errors.Wrap(err, "save source")
	}
	if err := c.accounts.Put(db, dest, to); err != nil {
		return errors.Wrap(err, "save destination")
	}
	return nil
}

func (c BaseController) Close(db swapchain.KVStore, authority, acct, recipient swapchain.Address) error {
	a, err := c.Account(db, acct)
	if err != nil {
		return err
	}
	if !a.Owner.Equals(authority) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s does not own %s", authority, acct)
	}
	if a.Amount != 0 {
		return errors.Wrapf(errors.ErrInvalidState, "account %s holds %d", acct, a.Amount)
	}
	if err := c.accounts.Delete(db, acct); err != nil {
		return errors.Wrap(err, "delete account")
	}
	reserve, err := c.cash.Balance(db, acct)
	if err != nil {
		return err
	}
	if reserve == 0 {
		return nil
	}
	return c.cash.MoveCoins(db, acct, recipient, reserve)
}

// Balance returns the amount held by given account.
func Balance(db swapchain.ReadOnlyKVStore, ctrl Controller, acct swapchain.Address) (uint64, error) {
	a, err := ctrl.Account(db, acct)
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}
