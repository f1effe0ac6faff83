package cash

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/orm"
)

// Controller is the functionality needed by other extensions to use the
// reserve balances.
type Controller interface {
	// Balance returns the reserve held by given address. A missing
	// wallet holds nothing.
	Balance(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (uint64, error)

	// MoveCoins moves the given amount from src to dest.
	// If src doesn't exist, or doesn't have sufficient
	// coins, it fails.
	MoveCoins(db swapchain.KVStore, src, dest swapchain.Address, amount uint64) error

	// IssueCoins adds the given amount to the destination address.
	IssueCoins(db swapchain.KVStore, dest swapchain.Address, amount uint64) error
}

// BaseController is a simple implementation of Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the default bucket.
func NewController() BaseController {
	return BaseController{bucket: NewBucket()}
}

func (c BaseController) Balance(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (uint64, error) {
	w, err := c.wallet(db, addr)
	if err != nil {
		return 0, err
	}
	return w.Amount, nil
}

func (c BaseController) MoveCoins(db swapchain.KVStore, src, dest swapchain.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero value")
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	sender, err := c.wallet(db, src)
	if err != nil {
		return err
	}
	if sender.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %d, needs %d", src, sender.Amount, amount)
	}
	if src.Equals(dest) {
		return nil
	}
	sender.Amount -= amount
	if err := c.save(db, src, sender); err != nil {
		return err
	}
	return c.IssueCoins(db, dest, amount)
}

func (c BaseController) IssueCoins(db swapchain.KVStore, dest swapchain.Address, amount uint64) error {
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	w, err := c.wallet(db, dest)
	if err != nil {
		return err
	}
	if w.Amount+amount < w.Amount {
		return errors.Wrapf(errors.ErrOverflow, "wallet %s", dest)
	}
	w.Amount += amount
	return c.save(db, dest, w)
}

func (c BaseController) wallet(db swapchain.ReadOnlyKVStore, addr swapchain.Address) (*Wallet, error) {
	var w Wallet
	switch err := c.bucket.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{}, nil
	default:
		return nil, errors.Wrap(err, "cannot load wallet")
	}
}

// save stores the wallet, removing it when it is empty.
func (c BaseController) save(db swapchain.KVStore, addr swapchain.Address, w *Wallet) error {
	if w.Amount == 0 {
		err := c.bucket.Delete(db, addr)
		if errors.ErrNotFound.Is(err) {
			return nil
		}
		return err
	}
	return c.bucket.Put(db, addr, w)
}

// RegisterQuery will register this bucket as "/cash"
func RegisterQuery(qr swapchain.QueryRouter) {
	NewBucket().Register("cash", qr)
}
