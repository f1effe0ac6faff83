package client

import (
	"context"
	"fmt"
	"testing"

	"github.com/iov-one/swapchain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

// stubRPC implements the calls rpcConn makes. Any other call panics.
type stubRPC struct {
	rpcclient.Client
	err     error
	queried string
	sent    tmtypes.Tx
}

func (s *stubRPC) Genesis() (*ctypes.ResultGenesis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ctypes.ResultGenesis{Genesis: &tmtypes.GenesisDoc{ChainID: "remote-chain"}}, nil
}

func (s *stubRPC) ABCIQuery(path string, data cmn.HexBytes) (*ctypes.ResultABCIQuery, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.queried = path
	return &ctypes.ResultABCIQuery{Response: abci.ResponseQuery{Code: 3, Log: "missing"}}, nil
}

func (s *stubRPC) BroadcastTxCommit(tx tmtypes.Tx) (*ctypes.ResultBroadcastTxCommit, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = tx
	return &ctypes.ResultBroadcastTxCommit{
		Height:    11,
		DeliverTx: abci.ResponseDeliverTx{Code: 10, Log: "bad state"},
	}, nil
}

func TestRPCConnection(t *testing.T) {
	ctx := context.Background()
	stub := &stubRPC{}
	conn := NewRPCConnection(stub)

	id, err := conn.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "remote-chain", id)

	res, err := conn.Query(ctx, "/escrows", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "/escrows", stub.queried)
	assert.Equal(t, uint32(3), res.Code)

	commit, err := conn.Broadcast(ctx, []byte("tx"))
	require.NoError(t, err)
	assert.Equal(t, tmtypes.Tx("tx"), stub.sent)
	assert.Equal(t, int64(11), commit.Height)
	assert.True(t, errors.ErrInvalidState.Is(errors.ABCIError(commit.Deliver.Code, commit.Deliver.Log)))
}

func TestRPCConnectionFailure(t *testing.T) {
	ctx := context.Background()
	conn := NewRPCConnection(&stubRPC{err: fmt.Errorf("connection refused")})

	_, err := conn.ChainID(ctx)
	assert.True(t, errors.ErrNetwork.Is(err), "%+v", err)
	_, err = conn.Query(ctx, "/escrows", nil)
	assert.True(t, errors.ErrNetwork.Is(err), "%+v", err)
	_, err = conn.Broadcast(ctx, nil)
	assert.True(t, errors.ErrNetwork.Is(err), "%+v", err)

	c := NewClient(conn, nil)
	_, err = c.GetEscrow(ctx, nil)
	assert.True(t, errors.ErrNetwork.Is(err), "%+v", err)
}

func TestClientSurfacesQueryCodes(t *testing.T) {
	c := NewClient(NewRPCConnection(&stubRPC{}), nil)
	_, err := c.GetEscrow(context.Background(), nil)
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
}
