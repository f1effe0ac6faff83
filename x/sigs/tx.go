package sigs

import (
	"github.com/iov-one/swapchain/crypto"
	"github.com/iov-one/swapchain/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	//
	// Helpful to store original, unparsed bytes here, just in case.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	// The first signature identifies the transaction.
	GetSignatures() []*StdSignature
}

// StdSignature is a single ed25519 signature of a transaction together with
// the key that created it.
//
// Nonce is chosen by the signer. Signing the same transaction twice with the
// same nonce produces the same signature, which is then recognized as a
// replay.
type StdSignature struct {
	Pubkey    crypto.PublicKey
	Signature []byte
	Nonce     uint64
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if len(s.Pubkey) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if len(s.Signature) != crypto.SignatureSize {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}
