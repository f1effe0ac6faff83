package escrow

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/gconf"
)

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ swapchain.Initializer = Initializer{}

// FromGenesis stores the escrow configuration. Without one the defaults
// apply and the configuration cannot be updated.
func (Initializer) FromGenesis(opts swapchain.Options, db swapchain.KVStore) error {
	var conf Configuration
	switch err := gconf.InitConfig(db, opts, packageName, &conf); {
	case err == nil, errors.ErrNotFound.Is(err):
		return nil
	default:
		return errors.Wrap(err, "init config")
	}
}
