package token

import (
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/gconf"
	amino "github.com/tendermint/go-amino"
)

const packageName = "token"

// Configuration is stored as JSON. A zero configuration must not
// serialize to an empty value.
var cdc = amino.NewCodec()

// Configuration of the token extension.
type Configuration struct {
	// AccountReserve is the deposit paid by the payer when a holding
	// account is created. It is returned when the account is closed.
	AccountReserve uint64 `json:"account_reserve"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return cdc.MarshalJSON(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return cdc.UnmarshalJSON(raw, c)
}

func (c *Configuration) Validate() error {
	return nil
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load token configuration")
	}
	return &conf, nil
}
