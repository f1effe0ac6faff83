package escrow

import (
	"encoding/binary"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/pda"
	"github.com/iov-one/swapchain/x/token"
)

var (
	// MainnetProgramID is the escrow program identity used by default.
	MainnetProgramID = swapchain.MustParseAddress("4vwUc38yQZ97hhspt9iQwjWNS5rJ56uWUDSBwofeDriE")

	// DevnetProgramID is the escrow program identity on devnet and testnet.
	DevnetProgramID = swapchain.MustParseAddress("ATqMRvwjJK28Sa8C3yUYZ9DnJip2pBTPsQD5uSWeUWBj")

	// SystemProgramID is the account creation program. It is referenced by
	// every instruction.
	SystemProgramID = swapchain.Address(make([]byte, swapchain.AddressLength))
)

var recordSeed = []byte("escrow")

// ProgramID returns the escrow program identity for a cluster name.
func ProgramID(cluster string) swapchain.Address {
	switch cluster {
	case "devnet", "testnet":
		return DevnetProgramID
	default:
		return MainnetProgramID
	}
}

func seedBytes(seed uint64) []byte {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, seed)
	return raw
}

// RecordAddress returns the address of the record created by the maker
// with given seed, together with its bump.
func RecordAddress(program, maker swapchain.Address, seed uint64) (swapchain.Address, uint8, error) {
	addr, bump, err := pda.FindProgramAddress([][]byte{recordSeed, maker, seedBytes(seed)}, program)
	if err != nil {
		return nil, 0, errors.Wrap(err, "record address")
	}
	return addr, bump, nil
}

// recordAddressWithBump rebuilds the record address from stored state.
func recordAddressWithBump(program, maker swapchain.Address, seed uint64, bump uint8) (swapchain.Address, error) {
	addr, err := pda.CreateProgramAddress([][]byte{recordSeed, maker, seedBytes(seed), {bump}}, program)
	if err != nil {
		return nil, errors.Wrap(err, "record address")
	}
	return addr, nil
}

// VaultAddress returns the address of the vault paired with a record.
func VaultAddress(record, mintA swapchain.Address) (swapchain.Address, error) {
	addr, err := token.HoldingAddress(record, mintA)
	if err != nil {
		return nil, errors.Wrap(err, "vault address")
	}
	return addr, nil
}
