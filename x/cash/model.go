package cash

import (
	"encoding/binary"

	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet is the reserve balance of a single address.
type Wallet struct {
	Amount uint64
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Marshal() ([]byte, error) {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, w.Amount)
	return raw, nil
}

func (w *Wallet) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrapf(errors.ErrInvalidInput, "wallet length %d", len(raw))
	}
	w.Amount = binary.BigEndian.Uint64(raw)
	return nil
}

func (w *Wallet) Validate() error {
	return nil
}

// NewBucket returns the bucket of all wallets keyed by their address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Wallet{})
}
