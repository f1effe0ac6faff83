package sigs

import (
	"context"
	"encoding/binary"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/orm"
)

// Processed records that a transaction was applied. It is stored under the
// transaction id.
type Processed struct {
	Height int64
	Signer swapchain.Address
}

var _ orm.Model = (*Processed)(nil)

func (p *Processed) Marshal() ([]byte, error) {
	raw := make([]byte, 8+len(p.Signer))
	binary.BigEndian.PutUint64(raw, uint64(p.Height))
	copy(raw[8:], p.Signer)
	return raw, nil
}

func (p *Processed) Unmarshal(raw []byte) error {
	if len(raw) != 8+swapchain.AddressLength {
		return errors.Wrapf(errors.ErrInvalidInput, "processed record length %d", len(raw))
	}
	p.Height = int64(binary.BigEndian.Uint64(raw))
	p.Signer = swapchain.Address(append([]byte{}, raw[8:]...))
	return nil
}

func (p *Processed) Validate() error {
	if p.Height < 0 {
		return errors.Wrap(errors.ErrInvalidModel, "negative height")
	}
	return errors.Wrap(p.Signer.Validate(), "signer")
}

func processedSigner(m orm.Model) ([]byte, error) {
	p, ok := m.(*Processed)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", m)
	}
	return p.Signer, nil
}

// NewBucket returns a bucket of processed transactions, indexed by the
// main signer.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("sigs", &Processed{},
		orm.WithIndex("signer", orm.IndexerOne(processedSigner), false))
}

// ErrAlreadyProcessed is returned for a transaction whose id was recorded
// by an earlier block.
var ErrAlreadyProcessed = errors.Register(21, "already processed")

// markProcessed records tx id as applied. It fails with ErrAlreadyProcessed
// if the id was already recorded.
func markProcessed(ctx context.Context, db swapchain.KVStore, id []byte, signer swapchain.Address) error {
	height, _ := swapchain.GetHeight(ctx)
	err := NewBucket().Create(db, id, &Processed{Height: height, Signer: signer})
	if errors.ErrDuplicate.Is(err) {
		return errors.Wrapf(ErrAlreadyProcessed, "tx %X", id)
	}
	return err
}
