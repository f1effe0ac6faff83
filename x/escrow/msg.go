package escrow

import (
	"bytes"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/token"
)

// Instruction discriminators.
var (
	MakeDiscriminator   = [8]byte{138, 227, 232, 77, 223, 166, 96, 197}
	TakeDiscriminator   = [8]byte{149, 226, 52, 104, 6, 142, 230, 39}
	RefundDiscriminator = [8]byte{2, 96, 183, 251, 63, 208, 46, 46}
)

const (
	pathMakeMsg                = "escrow/make"
	pathTakeMsg                = "escrow/take"
	pathRefundMsg              = "escrow/refund"
	pathUpdateConfigurationMsg = "escrow/update_configuration"
)

// Programs lists the program accounts passed with every instruction.
type Programs struct {
	AssociatedTokenProgram swapchain.Address
	TokenProgram           swapchain.Address
	SystemProgram          swapchain.Address
}

// DefaultPrograms returns the program accounts expected by the escrow
// program.
func DefaultPrograms() Programs {
	return Programs{
		AssociatedTokenProgram: token.AssociatedProgramID,
		TokenProgram:           token.ProgramID,
		SystemProgram:          SystemProgramID,
	}
}

func (p *Programs) accounts() []*swapchain.Address {
	return []*swapchain.Address{&p.AssociatedTokenProgram, &p.TokenProgram, &p.SystemProgram}
}

func (p Programs) validate() error {
	want := DefaultPrograms()
	if !p.AssociatedTokenProgram.Equals(want.AssociatedTokenProgram) {
		return errors.Wrap(errors.ErrConstraint, "associated token program")
	}
	if !p.TokenProgram.Equals(want.TokenProgram) {
		return errors.Wrap(errors.ErrConstraint, "token program")
	}
	if !p.SystemProgram.Equals(want.SystemProgram) {
		return errors.Wrap(errors.ErrConstraint, "system program")
	}
	return nil
}

// MakeMsg opens an offer. The maker deposits Amount of MintA and asks for
// ReceiveAmount of MintB.
type MakeMsg struct {
	Seed          uint64
	ReceiveAmount uint64
	Amount        uint64

	Maker     swapchain.Address
	MintA     swapchain.Address
	MintB     swapchain.Address
	MakerAtaA swapchain.Address
	Escrow    swapchain.Address
	Vault     swapchain.Address
	Programs
}

var _ swapchain.Msg = (*MakeMsg)(nil)

func (MakeMsg) Path() string {
	return pathMakeMsg
}

func (m *MakeMsg) args() []*uint64 {
	return []*uint64{&m.Seed, &m.ReceiveAmount, &m.Amount}
}

func (m *MakeMsg) accounts() []*swapchain.Address {
	return append([]*swapchain.Address{
		&m.Maker, &m.MintA, &m.MintB, &m.MakerAtaA, &m.Escrow, &m.Vault,
	}, m.Programs.accounts()...)
}

func (m *MakeMsg) Marshal() ([]byte, error) {
	return encodeInstruction(MakeDiscriminator, m.args(), m.accounts())
}

func (m *MakeMsg) Unmarshal(raw []byte) error {
	return decodeInstruction(raw, MakeDiscriminator, m.args(), m.accounts())
}

func (m *MakeMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "deposit must be greater than zero")
	}
	if err := validateAccounts(m.accounts()); err != nil {
		return err
	}
	return m.Programs.validate()
}

// TakeMsg accepts an offer.
type TakeMsg struct {
	Taker     swapchain.Address
	Maker     swapchain.Address
	MintA     swapchain.Address
	MintB     swapchain.Address
	TakerAtaB swapchain.Address
	TakerAtaA swapchain.Address
	MakerAtaB swapchain.Address
	Escrow    swapchain.Address
	Vault     swapchain.Address
	Programs
}

var _ swapchain.Msg = (*TakeMsg)(nil)

func (TakeMsg) Path() string {
	return pathTakeMsg
}

func (m *TakeMsg) accounts() []*swapchain.Address {
	return append([]*swapchain.Address{
		&m.Taker, &m.Maker, &m.MintA, &m.MintB, &m.TakerAtaB, &m.TakerAtaA,
		&m.MakerAtaB, &m.Escrow, &m.Vault,
	}, m.Programs.accounts()...)
}

func (m *TakeMsg) Marshal() ([]byte, error) {
	return encodeInstruction(TakeDiscriminator, nil, m.accounts())
}

func (m *TakeMsg) Unmarshal(raw []byte) error {
	return decodeInstruction(raw, TakeDiscriminator, nil, m.accounts())
}

func (m *TakeMsg) Validate() error {
	if err := validateAccounts(m.accounts()); err != nil {
		return err
	}
	return m.Programs.validate()
}

// RefundMsg cancels an offer and returns the deposit to the maker.
type RefundMsg struct {
	Maker     swapchain.Address
	MintA     swapchain.Address
	MakerAtaA swapchain.Address
	Escrow    swapchain.Address
	Vault     swapchain.Address
	Programs
}

var _ swapchain.Msg = (*RefundMsg)(nil)

func (RefundMsg) Path() string {
	return pathRefundMsg
}

func (m *RefundMsg) accounts() []*swapchain.Address {
	return append([]*swapchain.Address{
		&m.Maker, &m.MintA, &m.MakerAtaA, &m.Escrow, &m.Vault,
	}, m.Programs.accounts()...)
}

func (m *RefundMsg) Marshal() ([]byte, error) {
	return encodeInstruction(RefundDiscriminator, nil, m.accounts())
}

func (m *RefundMsg) Unmarshal(raw []byte) error {
	return decodeInstruction(raw, RefundDiscriminator, nil, m.accounts())
}

func (m *RefundMsg) Validate() error {
	if err := validateAccounts(m.accounts()); err != nil {
		return err
	}
	return m.Programs.validate()
}

// UpdateConfigurationMsg changes the escrow configuration. Zero value
// fields of the patch are ignored.
type UpdateConfigurationMsg struct {
	Patch *Configuration `json:"patch"`
}

var _ swapchain.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return pathUpdateConfigurationMsg
}

func (m *UpdateConfigurationMsg) Marshal() ([]byte, error) {
	return cdc.MarshalJSON(m)
}

func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalJSON(raw, m)
}

func (m *UpdateConfigurationMsg) Validate() error {
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	return m.Patch.validatePatch()
}

// encodeInstruction writes the discriminator, the little endian arguments
// and the account keys in order.
func encodeInstruction(disc [8]byte, args []*uint64, keys []*swapchain.Address) ([]byte, error) {
	raw := make([]byte, 0, 8+8*len(args)+swapchain.AddressLength*len(keys))
	raw = append(raw, disc[:]...)
	for _, a := range args {
		raw = appendUint64(raw, *a)
	}
	for i, k := range keys {
		if len(*k) != swapchain.AddressLength {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "account %d", i)
		}
		raw = append(raw, *k...)
	}
	return raw, nil
}

func decodeInstruction(raw []byte, disc [8]byte, args []*uint64, keys []*swapchain.Address) error {
	if want := 8 + 8*len(args) + swapchain.AddressLength*len(keys); len(raw) != want {
		return errors.Wrapf(errors.ErrInvalidInput, "instruction length %d, want %d", len(raw), want)
	}
	if !bytes.Equal(raw[:8], disc[:]) {
		return errors.Wrap(errors.ErrInvalidInput, "unknown instruction")
	}
	r := reader{raw: raw[8:]}
	for _, a := range args {
		*a = r.u64()
	}
	for _, k := range keys {
		*k = r.addr()
	}
	return nil
}

func validateAccounts(keys []*swapchain.Address) error {
	for i, k := range keys {
		if err := k.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}
	return nil
}
