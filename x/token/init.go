package token

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/gconf"
	"github.com/iov-one/swapchain/x/cash"
)

const optKey = "token"

// GenesisMint declares a mint in the genesis file.
type GenesisMint struct {
	Address   swapchain.Address `json:"address"`
	Decimals  uint8             `json:"decimals"`
	Authority swapchain.Address `json:"authority"`
}

// GenesisAccount declares the balance of an owner. The account is created
// at its canonical holding address.
type GenesisAccount struct {
	Owner  swapchain.Address `json:"owner"`
	Mint   swapchain.Address `json:"mint"`
	Amount uint64            `json:"amount"`
}

type genesis struct {
	Mints    []GenesisMint    `json:"mints"`
	Accounts []GenesisAccount `json:"accounts"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ swapchain.Initializer = Initializer{}

// FromGenesis stores the configuration, the mints and the accounts
// declared in the genesis file. Account reserves are issued, not paid.
func (Initializer) FromGenesis(opts swapchain.Options, db swapchain.KVStore) error {
	var conf Configuration
	if err := gconf.InitConfig(db, opts, packageName, &conf); err != nil {
		return errors.Wrap(err, "init config")
	}

	var gen genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return errors.Wrap(err, "cannot read token genesis")
	}

	mints := NewMintBucket()
	for i, m := range gen.Mints {
		if err := m.Address.Validate(); err != nil {
			return errors.Wrapf(err, "mint %d", i)
		}
		mint := Mint{Decimals: m.Decimals, Authority: m.Authority}
		if err := mints.Create(db, m.Address, &mint); err != nil {
			return errors.Wrapf(err, "mint %d", i)
		}
	}

	accounts := NewAccountBucket()
	cashctrl := cash.NewController()
	for i, a := range gen.Accounts {
		if err := a.Owner.Validate(); err != nil {
			return errors.Wrapf(err, "account %d owner", i)
		}
		var mint Mint
		if err := mints.One(db, a.Mint, &mint); err != nil {
			return errors.Wrapf(err, "account %d mint", i)
		}
		if mint.Supply+a.Amount < mint.Supply {
			return errors.Wrapf(errors.ErrOverflow, "account %d supply", i)
		}
		mint.Supply += a.Amount
		if err := mints.Put(db, a.Mint, &mint); err != nil {
			return errors.Wrapf(err, "account %d mint", i)
		}

		addr, err := HoldingAddress(a.Owner, a.Mint)
		if err != nil {
			return errors.Wrapf(err, "account %d address", i)
		}
		acct := Account{Mint: a.Mint, Owner: a.Owner, Amount: a.Amount}
		if err := accounts.Create(db, addr, &acct); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if conf.AccountReserve > 0 {
			if err := cashctrl.IssueCoins(db, addr, conf.AccountReserve); err != nil {
				return errors.Wrapf(err, "account %d reserve", i)
			}
		}
	}
	return nil
}
