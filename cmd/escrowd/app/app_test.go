package app

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/app"
	"github.com/iov-one/swapchain/commands/server"
	"github.com/iov-one/swapchain/crypto"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/sigs"
	"github.com/iov-one/swapchain/x/token"
	"github.com/iov-one/swapchain/x/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/sync/errgroup"
)

const testChainID = "escrow-test-chain"

type testChain struct {
	t      *testing.T
	app    app.BaseApp
	height int64
}

func newTestChain(t *testing.T, home string, metrics *utils.Metrics) *testChain {
	abciApp, err := GenerateApp(&server.Options{Home: home, Logger: log.NewNopLogger(), Metrics: metrics})
	require.NoError(t, err)
	return &testChain{t: t, app: abciApp.(app.BaseApp)}
}

func (c *testChain) init(maker, taker swapchain.Address) {
	state, err := json.Marshal(map[string]interface{}{
		"cash": []map[string]interface{}{
			{"address": maker, "amount": 100000},
			{"address": taker, "amount": 100000},
		},
		"token": map[string]interface{}{
			"mints": []token.GenesisMint{
				{Address: DevMints[0], Decimals: 6, Authority: maker},
				{Address: DevMints[1], Decimals: 6, Authority: taker},
			},
			"accounts": []token.GenesisAccount{
				{Owner: maker, Mint: DevMints[0], Amount: 500},
				{Owner: taker, Mint: DevMints[1], Amount: 800},
			},
		},
		"conf": map[string]interface{}{
			"token": token.Configuration{AccountReserve: devAccountReserve},
			"escrow": escrow.Configuration{
				ProgramID:     escrow.DevnetProgramID,
				RecordReserve: devRecordReserve,
			},
		},
	})
	require.NoError(c.t, err)
	c.app.InitChain(abci.RequestInitChain{ChainId: testChainID, AppStateBytes: state})
}

// block delivers all transactions in a new block and commits it.
func (c *testChain) block(txs ...[]byte) []abci.ResponseDeliverTx {
	c.height++
	c.app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{
		ChainID: testChainID,
		Height:  c.height,
		Time:    time.Now(),
	}})
	res := make([]abci.ResponseDeliverTx, 0, len(txs))
	for _, tx := range txs {
		res = append(res, c.app.DeliverTx(tx))
	}
	c.app.EndBlock(abci.RequestEndBlock{Height: c.height})
	c.app.Commit()
	return res
}

func (c *testChain) query(path string, data []byte) []swapchain.Model {
	resp := c.app.Query(abci.RequestQuery{Path: path, Data: data})
	require.Equal(c.t, uint32(0), resp.Code, resp.Log)
	models, err := app.ParseQueryResponse(resp.Key, resp.Value)
	require.NoError(c.t, err)
	return models
}

func (c *testChain) balance(owner, mint swapchain.Address) uint64 {
	addr, err := token.HoldingAddress(owner, mint)
	require.NoError(c.t, err)
	models := c.query("/accounts", addr)
	if len(models) == 0 {
		return 0
	}
	var acct token.Account
	require.NoError(c.t, acct.Unmarshal(models[0].Value))
	return acct.Amount
}

func signedTx(t *testing.T, msg swapchain.Msg, signer crypto.Signer, chainID string, nonce uint64) []byte {
	tx, err := NewTx(msg)
	require.NoError(t, err)
	if signer != nil {
		require.NoError(t, tx.Sign(signer, chainID, nonce))
	}
	raw, err := tx.Marshal()
	require.NoError(t, err)
	return raw
}

func makeOffer(t *testing.T, maker swapchain.Address, seed, amount, receive uint64) *escrow.MakeMsg {
	mintA := DevMints[0]
	record, _, err := escrow.RecordAddress(escrow.DevnetProgramID, maker, seed)
	require.NoError(t, err)
	vault, err := escrow.VaultAddress(record, mintA)
	require.NoError(t, err)
	ata, err := token.HoldingAddress(maker, mintA)
	require.NoError(t, err)
	return &escrow.MakeMsg{
		Seed:          seed,
		ReceiveAmount: receive,
		Amount:        amount,
		Maker:         maker,
		MintA:         mintA,
		MintB:         DevMints[1],
		MakerAtaA:     ata,
		Escrow:        record,
		Vault:         vault,
		Programs:      escrow.DefaultPrograms(),
	}
}

func takeOffer(t *testing.T, taker swapchain.Address, m *escrow.MakeMsg) *escrow.TakeMsg {
	ata := func(owner, mint swapchain.Address) swapchain.Address {
		addr, err := token.HoldingAddress(owner, mint)
		require.NoError(t, err)
		return addr
	}
	return &escrow.TakeMsg{
		Taker:     taker,
		Maker:     m.Maker,
		MintA:     m.MintA,
		MintB:     m.MintB,
		TakerAtaA: ata(taker, m.MintA),
		TakerAtaB: ata(taker, m.MintB),
		MakerAtaB: ata(m.Maker, m.MintB),
		Escrow:    m.Escrow,
		Vault:     m.Vault,
		Programs:  escrow.DefaultPrograms(),
	}
}

func refundOffer(t *testing.T, m *escrow.MakeMsg) *escrow.RefundMsg {
	return &escrow.RefundMsg{
		Maker:     m.Maker,
		MintA:     m.MintA,
		MakerAtaA: m.MakerAtaA,
		Escrow:    m.Escrow,
		Vault:     m.Vault,
		Programs:  escrow.DefaultPrograms(),
	}
}

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "escrowd-app")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestMakeAndTakeThroughABCI(t *testing.T) {
	home, cleanup := tempDir(t)
	defer cleanup()

	makerKey := crypto.GenPrivKeyEd25519()
	takerKey := crypto.GenPrivKeyEd25519()
	maker := makerKey.PublicKey().Address()
	taker := takerKey.PublicKey().Address()

	chain := newTestChain(t, home, nil)
	chain.init(maker, taker)
	assert.Equal(t, testChainID, chain.app.GetChainID())

	offer := makeOffer(t, maker, 7, 200, 300)
	makeTx := signedTx(t, offer, makerKey, testChainID, 1)

	check := chain.app.CheckTx(makeTx)
	require.Equal(t, uint32(0), check.Code, check.Log)

	res := chain.block(makeTx)
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	assert.Equal(t, []byte(offer.Escrow), res[0].Data)
	tags := make(map[string]string)
	for _, kv := range res[0].Tags {
		tags[string(kv.Key)] = string(kv.Value)
	}
	assert.Equal(t, "escrow/make", tags[utils.ActionKey])
	assert.Equal(t, offer.Escrow.String(), tags["escrow"])

	// the record is readable by address and by maker
	records := chain.query("/escrows", offer.Escrow)
	require.Len(t, records, 1)
	var rec escrow.Escrow
	require.NoError(t, rec.Unmarshal(records[0].Value))
	assert.Equal(t, uint64(7), rec.Seed)
	assert.Equal(t, uint64(300), rec.ReceiveAmount)
	assert.Equal(t, maker, rec.Maker)
	assert.Len(t, chain.query("/escrows/maker", maker), 1)
	assert.Equal(t, uint64(300), chain.balance(maker, DevMints[0]))

	// resubmitting the applied instruction does not execute it again
	res = chain.block(makeTx)
	replay := errors.ABCIError(res[0].Code, res[0].Log)
	assert.True(t, sigs.ErrAlreadyProcessed.Is(replay), res[0].Log)
	assert.False(t, escrow.IsAlreadyExistsErr(replay), res[0].Log)
	assert.Equal(t, uint64(300), chain.balance(maker, DevMints[0]))

	// the same offer under a new nonce is a new tx for an open record
	res = chain.block(signedTx(t, offer, makerKey, testChainID, 2))
	assert.True(t, escrow.IsAlreadyExistsErr(errors.ABCIError(res[0].Code, res[0].Log)), res[0].Log)

	takeTx := signedTx(t, takeOffer(t, taker, offer), takerKey, testChainID, 1)
	res = chain.block(takeTx)
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)

	assert.Len(t, chain.query("/escrows", offer.Escrow), 0)
	assert.Len(t, chain.query("/escrows/maker", maker), 0)
	assert.Equal(t, uint64(300), chain.balance(maker, DevMints[0]))
	assert.Equal(t, uint64(300), chain.balance(maker, DevMints[1]))
	assert.Equal(t, uint64(200), chain.balance(taker, DevMints[0]))
	assert.Equal(t, uint64(500), chain.balance(taker, DevMints[1]))

	// the record is gone, so a second take fails
	again := signedTx(t, takeOffer(t, taker, offer), takerKey, testChainID, 2)
	res = chain.block(again)
	assert.True(t, errors.ErrNotFound.Is(errors.ABCIError(res[0].Code, res[0].Log)), res[0].Log)
}

func TestRejectedTransactions(t *testing.T) {
	makerKey := crypto.GenPrivKeyEd25519()
	maker := makerKey.PublicKey().Address()
	other := crypto.GenPrivKeyEd25519()

	chain := newTestChain(t, "", nil)
	chain.init(maker, other.PublicKey().Address())

	offer := makeOffer(t, maker, 1, 10, 10)
	cases := map[string]struct {
		tx   []byte
		want *errors.Error
	}{
		"unsigned": {
			tx:   signedTx(t, offer, nil, testChainID, 0),
			want: errors.ErrUnauthorized,
		},
		"signed for another chain": {
			tx:   signedTx(t, offer, makerKey, "another-chain", 1),
			want: errors.ErrUnauthorized,
		},
		"signed by someone else": {
			tx:   signedTx(t, offer, other, testChainID, 1),
			want: errors.ErrUnauthorized,
		},
		"not a transaction": {
			tx:   []byte("garbage"),
			want: errors.ErrInvalidInput,
		},
		"more than the maker holds": {
			tx:   signedTx(t, makeOffer(t, maker, 2, 5000, 10), makerKey, testChainID, 1),
			want: errors.ErrInsufficientAmount,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			check := chain.app.CheckTx(tc.tx)
			assert.True(t, tc.want.Is(errors.ABCIError(check.Code, check.Log)), check.Log)
			res := chain.block(tc.tx)
			assert.True(t, tc.want.Is(errors.ABCIError(res[0].Code, res[0].Log)), res[0].Log)
		})
	}
	assert.Len(t, chain.query("/escrows/maker", maker), 0)
	assert.Equal(t, uint64(500), chain.balance(maker, DevMints[0]))
}

func TestInfoAfterCommit(t *testing.T) {
	home, cleanup := tempDir(t)
	defer cleanup()

	makerKey := crypto.GenPrivKeyEd25519()
	maker := makerKey.PublicKey().Address()

	chain := newTestChain(t, home, nil)
	chain.init(maker, crypto.GenPrivKeyEd25519().PublicKey().Address())
	offer := makeOffer(t, maker, 3, 50, 60)
	res := chain.block(signedTx(t, offer, makerKey, testChainID, 1))
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	info := chain.app.Info(abci.RequestInfo{})
	assert.Equal(t, chain.height, info.LastBlockHeight)
	assert.Equal(t, Name, info.Data)
	assert.NotEmpty(t, info.LastBlockAppHash)
}

func TestMetricsCountDeliveredTxs(t *testing.T) {
	makerKey := crypto.GenPrivKeyEd25519()
	maker := makerKey.PublicKey().Address()
	metrics := utils.NewMetrics()

	chain := newTestChain(t, "", metrics)
	chain.init(maker, crypto.GenPrivKeyEd25519().PublicKey().Address())
	chain.block(
		signedTx(t, makeOffer(t, maker, 1, 10, 10), makerKey, testChainID, 1),
		signedTx(t, makeOffer(t, maker, 1, 10, 10), makerKey, testChainID, 2),
	)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	counts := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "swapchain_delivered_txs_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			var path, code string
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "path":
					path = l.GetValue()
				case "code":
					code = l.GetValue()
				}
			}
			counts[path+" "+code] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), counts["escrow/make 0"])
	assert.Equal(t, float64(1), counts["escrow/make 6"])
}

func TestTakeAndRefundInOneBlock(t *testing.T) {
	makerKey := crypto.GenPrivKeyEd25519()
	takerKey := crypto.GenPrivKeyEd25519()
	maker := makerKey.PublicKey().Address()
	taker := takerKey.PublicKey().Address()

	chain := newTestChain(t, "", nil)
	chain.init(maker, taker)

	first := makeOffer(t, maker, 1, 100, 30)
	second := makeOffer(t, maker, 2, 150, 40)
	res := chain.block(
		signedTx(t, first, makerKey, testChainID, 1),
		signedTx(t, second, makerKey, testChainID, 2),
	)
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	require.Equal(t, uint32(0), res[1].Code, res[1].Log)

	// Take wins the first offer, refund wins the second.
	res = chain.block(
		signedTx(t, takeOffer(t, taker, first), takerKey, testChainID, 3),
		signedTx(t, refundOffer(t, first), makerKey, testChainID, 4),
		signedTx(t, refundOffer(t, second), makerKey, testChainID, 5),
		signedTx(t, takeOffer(t, taker, second), takerKey, testChainID, 6),
	)
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	assert.True(t, errors.ErrNotFound.Is(errors.ABCIError(res[1].Code, res[1].Log)), res[1].Log)
	require.Equal(t, uint32(0), res[2].Code, res[2].Log)
	assert.True(t, errors.ErrNotFound.Is(errors.ABCIError(res[3].Code, res[3].Log)), res[3].Log)

	assert.Len(t, chain.query("/escrows?prefix", nil), 0)
	assert.Len(t, chain.query("/accounts", first.Vault), 0)
	assert.Len(t, chain.query("/accounts", second.Vault), 0)

	assert.Equal(t, uint64(400), chain.balance(maker, DevMints[0]))
	assert.Equal(t, uint64(30), chain.balance(maker, DevMints[1]))
	assert.Equal(t, uint64(100), chain.balance(taker, DevMints[0]))
	assert.Equal(t, uint64(770), chain.balance(taker, DevMints[1]))
}

func TestConcurrentTakeAndRefund(t *testing.T) {
	makerKey := crypto.GenPrivKeyEd25519()
	takerKey := crypto.GenPrivKeyEd25519()
	maker := makerKey.PublicKey().Address()
	taker := takerKey.PublicKey().Address()

	chain := newTestChain(t, "", nil)
	chain.init(maker, taker)

	offer := makeOffer(t, maker, 9, 250, 60)
	res := chain.block(signedTx(t, offer, makerKey, testChainID, 1))
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)

	txs := [][]byte{
		signedTx(t, takeOffer(t, taker, offer), takerKey, testChainID, 2),
		signedTx(t, refundOffer(t, offer), makerKey, testChainID, 3),
	}
	chain.height++
	chain.app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{
		ChainID: testChainID,
		Height:  chain.height,
		Time:    time.Now(),
	}})
	results := make([]abci.ResponseDeliverTx, len(txs))
	var g errgroup.Group
	for i := range txs {
		i := i
		g.Go(func() error {
			results[i] = chain.app.DeliverTx(txs[i])
			return nil
		})
	}
	require.NoError(t, g.Wait())
	chain.app.EndBlock(abci.RequestEndBlock{Height: chain.height})
	chain.app.Commit()

	var won, lost int
	for _, r := range results {
		switch {
		case r.Code == 0:
			won++
		case errors.ErrNotFound.Is(errors.ABCIError(r.Code, r.Log)):
			lost++
		default:
			t.Fatalf("unexpected result %d: %s", r.Code, r.Log)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Len(t, chain.query("/escrows", offer.Escrow), 0)
	assert.Len(t, chain.query("/accounts", offer.Vault), 0)

	// Whichever transition won, no token was created or lost.
	assert.Equal(t, uint64(500), chain.balance(maker, DevMints[0])+chain.balance(taker, DevMints[0]))
	assert.Equal(t, uint64(800), chain.balance(maker, DevMints[1])+chain.balance(taker, DevMints[1]))
	if results[0].Code == 0 {
		assert.Equal(t, uint64(250), chain.balance(taker, DevMints[0]))
		assert.Equal(t, uint64(60), chain.balance(maker, DevMints[1]))
	} else {
		assert.Equal(t, uint64(500), chain.balance(maker, DevMints[0]))
		assert.Equal(t, uint64(0), chain.balance(maker, DevMints[1]))
	}
}
