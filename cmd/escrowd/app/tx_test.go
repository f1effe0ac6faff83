package app

import (
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/crypto"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxDecoding(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	maker := key.PublicKey().Address()
	offer := makeOffer(t, maker, 5, 10, 20)

	tx, err := NewTx(offer)
	require.NoError(t, err)
	assert.Equal(t, "escrow/make", tx.Path)

	unsigned, err := tx.GetSignBytes()
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key, testChainID, 3))
	signed, err := tx.GetSignBytes()
	require.NoError(t, err)
	assert.Equal(t, unsigned, signed, "signatures are not part of the sign bytes")

	raw, err := tx.Marshal()
	require.NoError(t, err)
	decoded, err := TxDecoder(raw)
	require.NoError(t, err)

	msg, err := decoded.GetMsg()
	require.NoError(t, err)
	assert.Equal(t, offer, msg)

	signers, err := sigs.VerifyTxSignatures(decoded.(sigs.SignedTx), testChainID)
	require.NoError(t, err)
	assert.Equal(t, []swapchain.Address{maker}, signers)
}

func TestTxUnknownPath(t *testing.T) {
	tx := &Tx{Path: "escrow/unknown", Payload: []byte{1, 2, 3}}
	_, err := tx.GetMsg()
	assert.True(t, errors.ErrInvalidMsg.Is(err))
	assert.Equal(t, "(missing)", swapchain.GetPath(tx))

	tx = &Tx{Path: escrow.TakeMsg{}.Path(), Payload: []byte{1, 2, 3}}
	_, err = tx.GetMsg()
	assert.True(t, errors.ErrInvalidInput.Is(err))
}

func TestExamples(t *testing.T) {
	examples := Examples()
	require.Len(t, examples, 6)
	for _, ex := range examples {
		raw, err := ex.Obj.Marshal()
		require.NoError(t, err, ex.Filename)
		assert.NotEmpty(t, raw, ex.Filename)
	}
	rec, err := examples[0].Obj.Marshal()
	require.NoError(t, err)
	assert.Len(t, rec, escrow.RecordSize)
}
