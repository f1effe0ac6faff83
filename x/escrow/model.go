package escrow

import (
	"bytes"
	"encoding/binary"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/orm"
)

// RecordDiscriminator prefixes every serialized Escrow.
var RecordDiscriminator = [8]byte{19, 90, 148, 111, 55, 130, 229, 108}

// RecordSize is the length of a serialized Escrow.
const RecordSize = 8 + 8 + 1 + 3*swapchain.AddressLength + 8

// Escrow is an open offer. All fields are set when the offer is made and
// never change.
type Escrow struct {
	Seed          uint64
	Bump          uint8
	MintA         swapchain.Address
	MintB         swapchain.Address
	ReceiveAmount uint64
	Maker         swapchain.Address
}

var _ orm.Model = (*Escrow)(nil)

// Marshal serializes the record as
//
//	discriminator | seed u64 LE | bump u8 | mintA | mintB | receiveAmount u64 LE | maker
func (e *Escrow) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	raw := make([]byte, 0, RecordSize)
	raw = append(raw, RecordDiscriminator[:]...)
	raw = appendUint64(raw, e.Seed)
	raw = append(raw, e.Bump)
	raw = append(raw, e.MintA...)
	raw = append(raw, e.MintB...)
	raw = appendUint64(raw, e.ReceiveAmount)
	raw = append(raw, e.Maker...)
	return raw, nil
}

func (e *Escrow) Unmarshal(raw []byte) error {
	if len(raw) != RecordSize {
		return errors.Wrapf(errors.ErrInvalidInput, "record length %d", len(raw))
	}
	if !bytes.Equal(raw[:8], RecordDiscriminator[:]) {
		return errors.Wrap(errors.ErrInvalidInput, "not an escrow record")
	}
	r := reader{raw: raw[8:]}
	e.Seed = r.u64()
	e.Bump = r.u8()
	e.MintA = r.addr()
	e.MintB = r.addr()
	e.ReceiveAmount = r.u64()
	e.Maker = r.addr()
	return nil
}

func (e *Escrow) Validate() error {
	if err := e.MintA.Validate(); err != nil {
		return errors.Wrap(err, "mint a")
	}
	if err := e.MintB.Validate(); err != nil {
		return errors.Wrap(err, "mint b")
	}
	if err := e.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	return nil
}

func appendUint64(raw []byte, n uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return append(raw, b[:]...)
}

// reader consumes fixed size fields. Callers check the total length first.
type reader struct {
	raw []byte
}

func (r *reader) u64() uint64 {
	n := binary.LittleEndian.Uint64(r.raw)
	r.raw = r.raw[8:]
	return n
}

func (r *reader) u8() byte {
	b := r.raw[0]
	r.raw = r.raw[1:]
	return b
}

func (r *reader) addr() swapchain.Address {
	a := swapchain.Address(append([]byte{}, r.raw[:swapchain.AddressLength]...))
	r.raw = r.raw[swapchain.AddressLength:]
	return a
}

func escrowMaker(m orm.Model) ([]byte, error) {
	e, ok := m.(*Escrow)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", m)
	}
	return e.Maker, nil
}

// NewBucket returns the bucket of open records keyed by record address and
// indexed by maker.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("escrow", &Escrow{},
		orm.WithIndex("maker", orm.IndexerOne(escrowMaker), false))
}

// RegisterQuery will register this bucket as "/escrows" and its maker
// index as "/escrows/maker".
func RegisterQuery(qr swapchain.QueryRouter) {
	NewBucket().Register("escrows", qr)
}
