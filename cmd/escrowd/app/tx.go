package app

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/crypto"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/sigs"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

// Tx is the envelope submitted to escrowd. Payload holds the encoded
// message, Path tells which message it is.
type Tx struct {
	Path       string
	Payload    []byte
	Signatures []*sigs.StdSignature
}

// make sure tx fulfills all interfaces
var _ swapchain.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx wraps a message into an unsigned transaction.
func NewTx(msg swapchain.Msg) (*Tx, error) {
	payload, err := msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize message")
	}
	return &Tx{Path: msg.Path(), Payload: payload}, nil
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (swapchain.Tx, error) {
	tx := new(Tx)
	err := tx.Unmarshal(bz)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(tx)
}

func (tx *Tx) Unmarshal(raw []byte) error {
	if err := cdc.UnmarshalBinaryBare(raw, tx); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return nil
}

// GetMsg decodes the payload into the message registered for the path.
func (tx *Tx) GetMsg() (swapchain.Msg, error) {
	var msg swapchain.Msg
	switch tx.Path {
	case escrow.MakeMsg{}.Path():
		msg = &escrow.MakeMsg{}
	case escrow.TakeMsg{}.Path():
		msg = &escrow.TakeMsg{}
	case escrow.RefundMsg{}.Path():
		msg = &escrow.RefundMsg{}
	case escrow.UpdateConfigurationMsg{}.Path():
		msg = &escrow.UpdateConfigurationMsg{}
	default:
		return nil, errors.Wrapf(errors.ErrInvalidMsg, "unknown path %q", tx.Path)
	}
	if err := msg.Unmarshal(tx.Payload); err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", tx.Path)
	}
	return msg, nil
}

// GetSignatures returns the signatures in the order they were added.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign...
func (tx *Tx) GetSignBytes() ([]byte, error) {
	// sign bytes come from the data itself, not previous signatures
	unsigned := Tx{Path: tx.Path, Payload: tx.Payload}
	return unsigned.Marshal()
}

// Sign appends a signature of the signer to the transaction.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, nonce uint64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, nonce)
	if err != nil {
		return errors.Wrap(err, "cannot sign")
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}
