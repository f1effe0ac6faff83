package cash

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file.
// Address is in base58.
type GenesisAccount struct {
	Address swapchain.Address `json:"address"`
	Amount  uint64            `json:"amount"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ swapchain.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts swapchain.Options, kv swapchain.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(err, "cannot read cash genesis")
	}
	ctrl := NewController()
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if err := ctrl.IssueCoins(kv, acct.Address, acct.Amount); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}
	return nil
}
