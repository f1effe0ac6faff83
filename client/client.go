package client

import (
	"context"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/app"
	escrowd "github.com/iov-one/swapchain/cmd/escrowd/app"
	"github.com/iov-one/swapchain/crypto"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/cash"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/token"
	cmn "github.com/tendermint/tendermint/libs/common"
)

// Filter selects which open offers ListEscrows returns.
type Filter int

const (
	// FilterAll returns every open offer.
	FilterAll Filter = iota
	// FilterMine returns offers made by the given address.
	FilterMine
	// FilterAvailable returns offers the given address can take.
	FilterAvailable
)

// Offer is an open escrow record with the vault holding its deposit.
type Offer struct {
	*escrow.Escrow
	Address swapchain.Address
	Vault   swapchain.Address
	Deposit uint64
}

// Client talks to an escrow chain. Failed transactions and queries are
// returned as errors matching the code the node reported. Nothing is
// retried.
type Client struct {
	conn    Conn
	program swapchain.Address
	chainID string
	// Nonce returns the nonce for the next signature.
	Nonce func() uint64
}

// NewClient returns a client deriving escrow addresses under program.
func NewClient(conn Conn, program swapchain.Address) *Client {
	return &Client{conn: conn, program: program, Nonce: cmn.RandUint64}
}

// ChainID returns the id of the chain. It is fetched once and cached.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	if c.chainID != "" {
		return c.chainID, nil
	}
	id, err := c.conn.ChainID(ctx)
	if err != nil {
		return "", err
	}
	c.chainID = id
	return id, nil
}

// MakeEscrow opens an offer of amount mintA for receive mintB and returns
// the record address.
func (c *Client) MakeEscrow(ctx context.Context, maker crypto.Signer, mintA, mintB swapchain.Address, seed, amount, receive uint64) (swapchain.Address, error) {
	msg, err := NewMakeMsg(c.program, maker.PublicKey().Address(), mintA, mintB, seed, amount, receive)
	if err != nil {
		return nil, err
	}
	commit, err := c.Submit(ctx, msg, maker)
	if err != nil {
		return nil, err
	}
	return swapchain.Address(commit.Result.Data), nil
}

// TakeEscrow accepts the offer stored under record.
func (c *Client) TakeEscrow(ctx context.Context, taker crypto.Signer, record swapchain.Address) (*Commit, error) {
	offer, err := c.GetEscrow(ctx, record)
	if err != nil {
		return nil, err
	}
	msg, err := NewTakeMsg(taker.PublicKey().Address(), offer)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, msg, taker)
}

// RefundEscrow cancels the offer stored under record. Only its maker can
// sign it successfully.
func (c *Client) RefundEscrow(ctx context.Context, maker crypto.Signer, record swapchain.Address) (*Commit, error) {
	offer, err := c.GetEscrow(ctx, record)
	if err != nil {
		return nil, err
	}
	msg, err := NewRefundMsg(offer)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, msg, maker)
}

// Submit signs msg with all signers and broadcasts it.
func (c *Client) Submit(ctx context.Context, msg swapchain.Msg, signers ...crypto.Signer) (*Commit, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := escrowd.NewTx(msg)
	if err != nil {
		return nil, err
	}
	for _, s := range signers {
		if err := tx.Sign(s, chainID, c.Nonce()); err != nil {
			return nil, errors.Wrap(err, "sign")
		}
	}
	raw, err := tx.Marshal()
	if err != nil {
		return nil, err
	}
	commit, err := c.conn.Broadcast(ctx, raw)
	if err != nil {
		return nil, err
	}
	if _, err := swapchain.ParseCheckTx(commit.Check); err != nil {
		return commit, err
	}
	if commit.Result, err = swapchain.ParseDeliverTx(commit.Deliver); err != nil {
		return commit, err
	}
	return commit, nil
}

// GetEscrow returns the open offer stored under record.
func (c *Client) GetEscrow(ctx context.Context, record swapchain.Address) (*Offer, error) {
	models, err := c.query(ctx, "/escrows", record)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "escrow %s", record)
	}
	return c.offer(ctx, models[0])
}

// ListEscrows returns open offers selected by filter. Me is ignored by
// FilterAll.
func (c *Client) ListEscrows(ctx context.Context, filter Filter, me swapchain.Address) ([]*Offer, error) {
	var (
		models []swapchain.Model
		err    error
	)
	switch filter {
	case FilterAll, FilterAvailable:
		models, err = c.query(ctx, "/escrows?"+swapchain.PrefixQueryMod, nil)
	case FilterMine:
		models, err = c.query(ctx, "/escrows/maker", me)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "filter %d", filter)
	}
	if err != nil {
		return nil, err
	}

	offers := make([]*Offer, 0, len(models))
	for _, m := range models {
		o, err := c.offer(ctx, m)
		if err != nil {
			return nil, err
		}
		if filter == FilterAvailable && o.Maker.Equals(me) {
			continue
		}
		offers = append(offers, o)
	}
	return offers, nil
}

// Balance returns the amount of mint held by the canonical account of
// owner, or zero when that account does not exist.
func (c *Client) Balance(ctx context.Context, owner, mint swapchain.Address) (uint64, error) {
	addr, err := token.HoldingAddress(owner, mint)
	if err != nil {
		return 0, err
	}
	return c.accountAmount(ctx, addr)
}

// Reserve returns the native balance of addr.
func (c *Client) Reserve(ctx context.Context, addr swapchain.Address) (uint64, error) {
	models, err := c.query(ctx, "/cash", addr)
	if err != nil || len(models) == 0 {
		return 0, err
	}
	var w cash.Wallet
	if err := w.Unmarshal(models[0].Value); err != nil {
		return 0, err
	}
	return w.Amount, nil
}

func (c *Client) accountAmount(ctx context.Context, addr swapchain.Address) (uint64, error) {
	models, err := c.query(ctx, "/accounts", addr)
	if err != nil || len(models) == 0 {
		return 0, err
	}
	var acct token.Account
	if err := acct.Unmarshal(models[0].Value); err != nil {
		return 0, err
	}
	return acct.Amount, nil
}

// offer decodes a record and loads its vault balance. Record keys end
// with the record address.
func (c *Client) offer(ctx context.Context, m swapchain.Model) (*Offer, error) {
	if len(m.Key) < swapchain.AddressLength {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "record key %X", m.Key)
	}
	var e escrow.Escrow
	if err := e.Unmarshal(m.Value); err != nil {
		return nil, err
	}
	addr := swapchain.Address(m.Key[len(m.Key)-swapchain.AddressLength:])
	vault, err := escrow.VaultAddress(addr, e.MintA)
	if err != nil {
		return nil, err
	}
	deposit, err := c.accountAmount(ctx, vault)
	if err != nil {
		return nil, err
	}
	return &Offer{Escrow: &e, Address: addr, Vault: vault, Deposit: deposit}, nil
}

func (c *Client) query(ctx context.Context, path string, data []byte) ([]swapchain.Model, error) {
	resp, err := c.conn.Query(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if resp.IsErr() {
		return nil, errors.ABCIError(resp.Code, resp.Log)
	}
	return app.ParseQueryResponse(resp.Key, resp.Value)
}
