package cash

import (
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/chaintest"
	"github.com/iov-one/swapchain/chaintest/assert"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/store"
)

func TestMoveCoins(t *testing.T) {
	alice := chaintest.NewAddress()
	bob := chaintest.NewAddress()

	cases := map[string]struct {
		src, dest swapchain.Address
		amount    uint64
		wantErr   *errors.Error
		wantAlice uint64
		wantBob   uint64
	}{
		"move part": {
			src: alice, dest: bob, amount: 30,
			wantAlice: 70, wantBob: 30,
		},
		"move everything": {
			src: alice, dest: bob, amount: 100,
			wantAlice: 0, wantBob: 100,
		},
		"insufficient": {
			src: alice, dest: bob, amount: 101,
			wantErr:   errors.ErrInsufficientAmount,
			wantAlice: 100,
		},
		"empty source": {
			src: bob, dest: alice, amount: 1,
			wantErr:   errors.ErrInsufficientAmount,
			wantAlice: 100,
		},
		"zero": {
			src: alice, dest: bob, amount: 0,
			wantErr:   errors.ErrInvalidAmount,
			wantAlice: 100,
		},
		"to self": {
			src: alice, dest: alice, amount: 10,
			wantAlice: 100,
		},
		"invalid destination": {
			src: alice, dest: swapchain.Address("short"), amount: 10,
			wantErr:   errors.ErrInvalidInput,
			wantAlice: 100,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			assert.Nil(t, ctrl.IssueCoins(db, alice, 100))

			err := ctrl.MoveCoins(db, tc.src, tc.dest, tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}

			got, err := ctrl.Balance(db, alice)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantAlice, got)
			got, err = ctrl.Balance(db, bob)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantBob, got)
		})
	}
}

func TestIssueOverflow(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	addr := chaintest.NewAddress()
	assert.Nil(t, ctrl.IssueCoins(db, addr, ^uint64(0)))
	err := ctrl.IssueCoins(db, addr, 1)
	assert.IsErr(t, errors.ErrOverflow, err)
}

func TestEmptyWalletIsRemoved(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	a, b := chaintest.NewAddress(), chaintest.NewAddress()
	assert.Nil(t, ctrl.IssueCoins(db, a, 5))
	assert.Nil(t, ctrl.MoveCoins(db, a, b, 5))
	assert.IsErr(t, errors.ErrNotFound, NewBucket().Has(db, a))
}
