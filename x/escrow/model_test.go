package escrow

import (
	"bytes"
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/chaintest"
	"github.com/iov-one/swapchain/chaintest/assert"
	"github.com/iov-one/swapchain/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecordAddress(t *testing.T) {
	maker := swapchain.Address(bytes.Repeat([]byte{1}, swapchain.AddressLength))
	addr, bump, err := RecordAddress(DevnetProgramID, maker, 1)
	assert.Nil(t, err)
	assert.Equal(t, "5vZHERn4CThaecbqY54i35j2EjCY5YqmFgg5grdLSaJ9", addr.String())
	assert.Equal(t, uint8(254), bump)

	rebuilt, err := recordAddressWithBump(DevnetProgramID, maker, 1, bump)
	assert.Nil(t, err)
	assert.Equal(t, addr, rebuilt)

	mint := swapchain.Address(bytes.Repeat([]byte{2}, swapchain.AddressLength))
	vault, err := VaultAddress(addr, mint)
	assert.Nil(t, err)
	assert.Equal(t, "HmSCu3yCK5VbWLnmJ3AcASC26q2EPqMwJbYozXLdMZro", vault.String())

	other, _, err := RecordAddress(MainnetProgramID, maker, 1)
	assert.Nil(t, err)
	if other.Equals(addr) {
		t.Fatal("clusters must not share record addresses")
	}
	assert.Equal(t, DevnetProgramID, ProgramID("testnet"))
	assert.Equal(t, MainnetProgramID, ProgramID(""))
}

func TestRecordLayout(t *testing.T) {
	e := Escrow{
		Seed:          0x0102,
		Bump:          254,
		MintA:         chaintest.NewAddress(),
		MintB:         chaintest.NewAddress(),
		ReceiveAmount: 50,
		Maker:         chaintest.NewAddress(),
	}
	raw, err := e.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, RecordSize, len(raw))
	assert.Equal(t, 121, len(raw))
	assert.Equal(t, RecordDiscriminator[:], raw[:8])
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, raw[8:16])
	assert.Equal(t, byte(254), raw[16])
	assert.Equal(t, []byte(e.Maker), raw[89:])

	var got Escrow
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, e, got)

	raw[0] ^= 0xff
	assert.IsErr(t, errors.ErrInvalidInput, got.Unmarshal(raw))
	assert.IsErr(t, errors.ErrInvalidInput, got.Unmarshal(raw[:100]))

	e.Maker = nil
	_, err = e.Marshal()
	assert.IsErr(t, errors.ErrEmpty, err)
}

func TestInstructionEncoding(t *testing.T) {
	Convey("Given a make instruction", t, func() {
		m := MakeMsg{
			Seed:          1,
			ReceiveAmount: 50,
			Amount:        100,
			Maker:         chaintest.NewAddress(),
			MintA:         chaintest.NewAddress(),
			MintB:         chaintest.NewAddress(),
			MakerAtaA:     chaintest.NewAddress(),
			Escrow:        chaintest.NewAddress(),
			Vault:         chaintest.NewAddress(),
			Programs:      DefaultPrograms(),
		}
		raw, err := m.Marshal()
		So(err, ShouldBeNil)

		Convey("Arguments follow the discriminator in order", func() {
			So(len(raw), ShouldEqual, 8+3*8+9*swapchain.AddressLength)
			So(raw[:8], ShouldResemble, MakeDiscriminator[:])
			So(raw[8], ShouldEqual, byte(1))
			So(raw[16], ShouldEqual, byte(50))
			So(raw[24], ShouldEqual, byte(100))
			So(raw[32:64], ShouldResemble, []byte(m.Maker))
		})

		Convey("It decodes back", func() {
			var got MakeMsg
			So(got.Unmarshal(raw), ShouldBeNil)
			So(got, ShouldResemble, m)
			So(got.Validate(), ShouldBeNil)
		})

		Convey("Another instruction does not decode it", func() {
			var take TakeMsg
			So(errors.ErrInvalidInput.Is(take.Unmarshal(raw)), ShouldBeTrue)
			var refund RefundMsg
			So(errors.ErrInvalidInput.Is(refund.Unmarshal(raw)), ShouldBeTrue)
		})

		Convey("A missing account cannot be encoded", func() {
			m.Vault = nil
			_, err := m.Marshal()
			So(errors.ErrInvalidInput.Is(err), ShouldBeTrue)
			So(errors.ErrEmpty.Is(m.Validate()), ShouldBeTrue)
		})
	})
}

func TestTakeRefundEncoding(t *testing.T) {
	take := TakeMsg{
		Taker: chaintest.NewAddress(), Maker: chaintest.NewAddress(),
		MintA: chaintest.NewAddress(), MintB: chaintest.NewAddress(),
		TakerAtaB: chaintest.NewAddress(), TakerAtaA: chaintest.NewAddress(),
		MakerAtaB: chaintest.NewAddress(), Escrow: chaintest.NewAddress(),
		Vault: chaintest.NewAddress(), Programs: DefaultPrograms(),
	}
	raw, err := take.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, 8+12*swapchain.AddressLength, len(raw))
	assert.Equal(t, TakeDiscriminator[:], raw[:8])
	var gotTake TakeMsg
	assert.Nil(t, gotTake.Unmarshal(raw))
	assert.Equal(t, take, gotTake)

	refund := RefundMsg{
		Maker: chaintest.NewAddress(), MintA: chaintest.NewAddress(),
		MakerAtaA: chaintest.NewAddress(), Escrow: chaintest.NewAddress(),
		Vault: chaintest.NewAddress(), Programs: DefaultPrograms(),
	}
	raw, err = refund.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, 8+8*swapchain.AddressLength, len(raw))
	assert.Equal(t, RefundDiscriminator[:], raw[:8])
	// System program is the last account.
	assert.Equal(t, make([]byte, swapchain.AddressLength), raw[len(raw)-swapchain.AddressLength:])
}
