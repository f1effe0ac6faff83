package token

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/chaintest"
	"github.com/iov-one/swapchain/chaintest/assert"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/store"
	"github.com/iov-one/swapchain/x/cash"
)

type fixture struct {
	db    swapchain.CacheableKVStore
	ctrl  BaseController
	cash  cash.BaseController
	mintA swapchain.Address
	mintB swapchain.Address
	alice swapchain.Address
	bob   swapchain.Address
}

// newFixture creates two mints. Alice holds 100 of mint A and both alice
// and bob hold reserve coins.
func newFixture(t testing.TB) fixture {
	t.Helper()
	f := fixture{
		db:    store.MemStore(),
		cash:  cash.NewController(),
		mintA: chaintest.NewAddress(),
		mintB: chaintest.NewAddress(),
		alice: chaintest.NewAddress(),
		bob:   chaintest.NewAddress(),
	}
	f.ctrl = NewController(f.cash)
	authority := chaintest.NewAddress()

	gen := map[string]interface{}{
		"conf": map[string]interface{}{
			"token": Configuration{AccountReserve: 20},
		},
		"token": genesis{
			Mints: []GenesisMint{
				{Address: f.mintA, Decimals: 6, Authority: authority},
				{Address: f.mintB, Decimals: 9, Authority: authority},
			},
			Accounts: []GenesisAccount{
				{Owner: f.alice, Mint: f.mintA, Amount: 100},
			},
		},
	}
	raw, err := json.Marshal(gen)
	assert.Nil(t, err)
	var opts swapchain.Options
	assert.Nil(t, json.Unmarshal(raw, &opts))
	assert.Nil(t, Initializer{}.FromGenesis(opts, f.db))

	assert.Nil(t, f.cash.IssueCoins(f.db, f.alice, 1000))
	assert.Nil(t, f.cash.IssueCoins(f.db, f.bob, 1000))
	return f
}

func (f fixture) holding(t testing.TB, owner, mint swapchain.Address) swapchain.Address {
	t.Helper()
	addr, err := HoldingAddress(owner, mint)
	assert.Nil(t, err)
	return addr
}

func TestGenesis(t *testing.T) {
	f := newFixture(t)

	mint, err := f.ctrl.Mint(f.db, f.mintA)
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), mint.Supply)
	assert.Equal(t, uint8(6), mint.Decimals)

	acct := f.holding(t, f.alice, f.mintA)
	got, err := Balance(f.db, f.ctrl, acct)
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), got)

	reserve, err := f.cash.Balance(f.db, acct)
	assert.Nil(t, err)
	assert.Equal(t, uint64(20), reserve)

	_, err = f.ctrl.Mint(f.db, chaintest.NewAddress())
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestEnsureHoldingAccount(t *testing.T) {
	f := newFixture(t)

	addr, err := f.ctrl.EnsureHoldingAccount(f.db, f.bob, f.bob, f.mintA)
	assert.Nil(t, err)
	assert.Equal(t, f.holding(t, f.bob, f.mintA), addr)

	// the payer funded the reserve
	paid, err := f.cash.Balance(f.db, f.bob)
	assert.Nil(t, err)
	assert.Equal(t, uint64(980), paid)

	// second call is a no-op
	again, err := f.ctrl.EnsureHoldingAccount(f.db, f.bob, f.bob, f.mintA)
	assert.Nil(t, err)
	assert.Equal(t, addr, again)
	paid, err = f.cash.Balance(f.db, f.bob)
	assert.Nil(t, err)
	assert.Equal(t, uint64(980), paid)

	// a payer without reserve cannot create accounts
	_, err = f.ctrl.EnsureHoldingAccount(f.db, chaintest.NewAddress(), f.bob, f.mintB)
	assert.IsErr(t, errors.ErrInsufficientAmount, err)

	_, err = f.ctrl.EnsureHoldingAccount(f.db, f.bob, f.bob, chaintest.NewAddress())
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	aliceA := f.holding(t, f.alice, f.mintA)
	bobA, err := f.ctrl.EnsureHoldingAccount(f.db, f.bob, f.bob, f.mintA)
	assert.Nil(t, err)
	bobB, err := f.ctrl.EnsureHoldingAccount(f.db, f.bob, f.bob, f.mintB)
	assert.Nil(t, err)

	cases := map[string]struct {
		authority swapchain.Address
		src, dest swapchain.Address
		amount    uint64
		wantErr   *errors.Error
		wantAlice uint64
		wantBob   uint64
	}{
		"success": {
			authority: f.alice, src: aliceA, dest: bobA, amount: 40,
			wantAlice: 60, wantBob: 40,
		},
		"not the owner": {
			authority: f.bob, src: aliceA, dest: bobA, amount: 40,
			wantErr: errors.ErrUnauthorized, wantAlice: 100,
		},
		"insufficient": {
			authority: f.alice, src: aliceA, dest: bobA, amount: 101,
			wantErr: errors.ErrInsufficientAmount, wantAlice: 100,
		},
		"mint mismatch": {
			authority: f.alice, src: aliceA, dest: bobB, amount: 1,
			wantErr: errors.ErrConstraint, wantAlice: 100,
		},
		"zero": {
			authority: f.alice, src: aliceA, dest: bobA, amount: 0,
			wantErr: errors.ErrInvalidAmount, wantAlice: 100,
		},
		"missing destination": {
			authority: f.alice, src: aliceA, dest: chaintest.NewAddress(), amount: 1,
			wantErr: errors.ErrNotFound, wantAlice: 100,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := f.db.CacheWrap()
			defer db.Discard()

			err := f.ctrl.Transfer(db, tc.authority, tc.src, tc.dest, tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			got, err := Balance(db, f.ctrl, aliceA)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantAlice, got)
			got, err = Balance(db, f.ctrl, bobA)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantBob, got)
		})
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	aliceA := f.holding(t, f.alice, f.mintA)
	bobA, err := f.ctrl.EnsureHoldingAccount(f.db, f.bob, f.bob, f.mintA)
	assert.Nil(t, err)

	err = f.ctrl.Close(f.db, f.alice, aliceA, f.alice)
	assert.IsErr(t, errors.ErrInvalidState, err)

	err = f.ctrl.Close(f.db, f.alice, bobA, f.alice)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, f.ctrl.Transfer(f.db, f.alice, aliceA, bobA, 100))
	assert.Nil(t, f.ctrl.Close(f.db, f.alice, aliceA, f.alice))

	_, err = f.ctrl.Account(f.db, aliceA)
	assert.IsErr(t, errors.ErrNotFound, err)

	// reserve returned to the recipient
	got, err := f.cash.Balance(f.db, f.alice)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1020), got)
	got, err = f.cash.Balance(f.db, aliceA)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestQueryAccountsByOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.EnsureHoldingAccount(f.db, f.alice, f.alice, f.mintB)
	assert.Nil(t, err)

	qr := swapchain.NewQueryRouter()
	RegisterQuery(qr)
	res, err := qr.Handler("/accounts/owner").Query(f.db, swapchain.KeyQueryMod, f.alice)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))

	res, err = qr.Handler("/mints").Query(f.db, swapchain.PrefixQueryMod, nil)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))
}
