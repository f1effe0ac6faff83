package swapchain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/iov-one/swapchain/crypto/bech32"
	"github.com/iov-one/swapchain/errors"
)

const (
	// AddressLength is the length of all addresses. An address is either
	// an ed25519 public key or a program derived address.
	AddressLength = 32

	// AddressHRP is the human readable part of the bech32 form.
	AddressHRP = "swap"
)

// Address identifies an account on the ledger. For signers it is the
// public key itself, for program owned accounts it is derived from seeds.
type Address []byte

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// String returns the base58 representation.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return base58.Encode(a)
}

// Bech32 returns the bech32 representation using AddressHRP.
func (a Address) Bech32() (string, error) {
	raw, err := bech32.Encode(AddressHRP, a)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) == 0 {
		return errors.Wrap(errors.ErrEmpty, "address")
	}
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInvalidInput, "address length %d", len(a))
	}
	return nil
}

// Clone returns a copy that does not share the underlying array.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	c := make(Address, len(a))
	copy(c, a)
	return c
}

// MarshalJSON provides a base58 representation for JSON,
// to override the standard base64 []byte encoding
func (a Address) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts any of the forms ParseAddress understands.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "address must be a string")
	}
	if s == "" {
		*a = nil
		return nil
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes an address given in base58 (default), hex (prefixed
// with "hex:") or bech32 (prefixed with the AddressHRP) form.
func ParseAddress(s string) (Address, error) {
	var (
		raw []byte
		err error
	)
	switch {
	case strings.HasPrefix(s, "hex:"):
		raw, err = hex.DecodeString(s[4:])
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, "hex address")
		}
	case strings.HasPrefix(s, AddressHRP+"1"):
		var hrp string
		hrp, raw, err = bech32.Decode(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
		}
		if hrp != AddressHRP {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "bech32 prefix %q", hrp)
		}
	default:
		raw = base58.Decode(s)
		if len(raw) == 0 {
			return nil, errors.Wrap(errors.ErrInvalidInput, "base58 address")
		}
	}
	addr := Address(raw)
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// MustParseAddress is like ParseAddress, but panics instead of returning
// errors. Only use for constants.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}
