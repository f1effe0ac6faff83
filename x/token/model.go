package token

import (
	"encoding/binary"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/orm"
)

const (
	mintLen    = 1 + 8 + swapchain.AddressLength
	accountLen = 2*swapchain.AddressLength + 8
)

// Mint describes a token type.
type Mint struct {
	Decimals  uint8
	Supply    uint64
	Authority swapchain.Address
}

var _ orm.Model = (*Mint)(nil)

func (m *Mint) Marshal() ([]byte, error) {
	raw := make([]byte, mintLen)
	raw[0] = m.Decimals
	binary.LittleEndian.PutUint64(raw[1:], m.Supply)
	copy(raw[9:], m.Authority)
	return raw, nil
}

func (m *Mint) Unmarshal(raw []byte) error {
	if len(raw) != mintLen {
		return errors.Wrapf(errors.ErrInvalidInput, "mint length %d", len(raw))
	}
	m.Decimals = raw[0]
	m.Supply = binary.LittleEndian.Uint64(raw[1:])
	m.Authority = swapchain.Address(append([]byte{}, raw[9:]...))
	return nil
}

func (m *Mint) Validate() error {
	if err := m.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if m.Decimals > 18 {
		return errors.Wrapf(errors.ErrInvalidModel, "decimals %d", m.Decimals)
	}
	return nil
}

// Account holds a balance of a single mint.
type Account struct {
	Mint   swapchain.Address
	Owner  swapchain.Address
	Amount uint64
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Marshal() ([]byte, error) {
	raw := make([]byte, accountLen)
	copy(raw, a.Mint)
	copy(raw[swapchain.AddressLength:], a.Owner)
	binary.LittleEndian.PutUint64(raw[2*swapchain.AddressLength:], a.Amount)
	return raw, nil
}

func (a *Account) Unmarshal(raw []byte) error {
	if len(raw) != accountLen {
		return errors.Wrapf(errors.ErrInvalidInput, "account length %d", len(raw))
	}
	a.Mint = swapchain.Address(append([]byte{}, raw[:swapchain.AddressLength]...))
	a.Owner = swapchain.Address(append([]byte{}, raw[swapchain.AddressLength:2*swapchain.AddressLength]...))
	a.Amount = binary.LittleEndian.Uint64(raw[2*swapchain.AddressLength:])
	return nil
}

func (a *Account) Validate() error {
	if err := a.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if err := a.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}

func accountOwner(m orm.Model) ([]byte, error) {
	a, ok := m.(*Account)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", m)
	}
	return a.Owner, nil
}

// NewMintBucket returns the bucket of all mints keyed by mint address.
func NewMintBucket() orm.ModelBucket {
	return orm.NewModelBucket("mints", &Mint{})
}

// NewAccountBucket returns the bucket of all holding accounts keyed by
// their address and indexed by owner.
func NewAccountBucket() orm.ModelBucket {
	return orm.NewModelBucket("accounts", &Account{},
		orm.WithIndex("owner", orm.IndexerOne(accountOwner), false))
}

// RegisterQuery registers "/mints", "/accounts" and "/accounts/owner".
func RegisterQuery(qr swapchain.QueryRouter) {
	NewMintBucket().Register("mints", qr)
	NewAccountBucket().Register("accounts", qr)
}
