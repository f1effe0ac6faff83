package escrow

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/gconf"
	amino "github.com/tendermint/go-amino"
)

const packageName = "escrow"

// Close recipient policies.
const (
	CloseToMaker = "maker"
	CloseToTaker = "taker"
)

var cdc = amino.NewCodec()

// Configuration of the escrow extension.
type Configuration struct {
	// Owner may update this configuration.
	Owner swapchain.Address `json:"owner"`
	// ProgramID is the identity records and vaults are derived from. It
	// defaults to MainnetProgramID.
	ProgramID swapchain.Address `json:"program_id"`
	// CloseRecipient receives the vault and record reserves when an offer
	// is taken. Either "maker" (default) or "taker".
	CloseRecipient string `json:"close_recipient"`
	// RecordReserve is paid by the maker when a record is created and
	// returned when it is closed.
	RecordReserve uint64 `json:"record_reserve"`
	// RejectSameMint forbids offers exchanging a mint for itself.
	RejectSameMint bool `json:"reject_same_mint"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return cdc.MarshalJSON(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return cdc.UnmarshalJSON(raw, c)
}

func (c *Configuration) GetOwner() swapchain.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	if len(c.Owner) != 0 {
		if err := c.Owner.Validate(); err != nil {
			return errors.Wrap(err, "owner")
		}
	}
	if len(c.ProgramID) != 0 {
		if err := c.ProgramID.Validate(); err != nil {
			return errors.Wrap(err, "program id")
		}
	}
	switch c.CloseRecipient {
	case "", CloseToMaker, CloseToTaker:
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "close recipient %q", c.CloseRecipient)
	}
	return nil
}

// validatePatch accepts a partial configuration.
func (c *Configuration) validatePatch() error {
	return c.Validate()
}

func (c *Configuration) program() swapchain.Address {
	if len(c.ProgramID) == 0 {
		return MainnetProgramID
	}
	return c.ProgramID
}

func (c *Configuration) closeToTaker() bool {
	return c.CloseRecipient == CloseToTaker
}

// loadConf returns the stored configuration, or the defaults when none was
// set in genesis.
func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.LoadOrDefault(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load escrow configuration")
	}
	return &conf, nil
}
