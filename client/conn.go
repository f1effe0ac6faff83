package client

import (
	"context"
	"sync"
	"time"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	abcicli "github.com/tendermint/tendermint/abci/client"
	abci "github.com/tendermint/tendermint/abci/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	tmtypes "github.com/tendermint/tendermint/types"
)

// Conn is a connection to a node.
type Conn interface {
	// ChainID returns the chain the node runs.
	ChainID(ctx context.Context) (string, error)
	// Query runs an abci query against the last committed state.
	Query(ctx context.Context, path string, data []byte) (abci.ResponseQuery, error)
	// Broadcast submits a transaction and returns once it was included in
	// a block or rejected by CheckTx.
	Broadcast(ctx context.Context, tx []byte) (*Commit, error)
}

// Commit is the outcome of a broadcast transaction. Deliver is empty when
// CheckTx rejected it.
type Commit struct {
	Height  int64
	Check   abci.ResponseCheckTx
	Deliver abci.ResponseDeliverTx
	// Result is set by Client.Submit once the transaction succeeded.
	Result *swapchain.DeliverResult
}

// NewHTTPConnection takes a URL and sends all requests to the remote node
func NewHTTPConnection(remote string) Conn {
	return NewRPCConnection(rpcclient.NewHTTP(remote, "/websocket"))
}

// NewRPCConnection wraps any tendermint rpc client.
func NewRPCConnection(c rpcclient.Client) Conn {
	return &rpcConn{client: c}
}

type rpcConn struct {
	client rpcclient.Client
}

func (c *rpcConn) ChainID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	gen, err := c.client.Genesis()
	if err != nil {
		return "", errors.Wrap(errors.ErrNetwork, err.Error())
	}
	return gen.Genesis.ChainID, nil
}

func (c *rpcConn) Query(ctx context.Context, path string, data []byte) (abci.ResponseQuery, error) {
	if err := ctx.Err(); err != nil {
		return abci.ResponseQuery{}, err
	}
	res, err := c.client.ABCIQuery(path, cmn.HexBytes(data))
	if err != nil {
		return abci.ResponseQuery{}, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	return res.Response, nil
}

func (c *rpcConn) Broadcast(ctx context.Context, tx []byte) (*Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := c.client.BroadcastTxCommit(tmtypes.Tx(tx))
	if err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	return &Commit{Height: res.Height, Check: res.CheckTx, Deliver: res.DeliverTx}, nil
}

// LocalConn runs an application in process. Every broadcast transaction
// is checked, then delivered and committed in a block of its own.
type LocalConn struct {
	mu      sync.Mutex
	client  abcicli.Client
	chainID string
	height  int64
}

var _ Conn = (*LocalConn)(nil)

// NewLocalConnection connects to app. The chain must be initialized with
// Init unless app already holds committed state.
func NewLocalConnection(app abci.Application, chainID string) (*LocalConn, error) {
	c := abcicli.NewLocalClient(nil, app)
	info, err := c.InfoSync(abci.RequestInfo{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	return &LocalConn{client: c, chainID: chainID, height: info.LastBlockHeight}, nil
}

// Init loads the genesis app_state.
func (c *LocalConn) Init(appState []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.client.InitChainSync(abci.RequestInitChain{
		Time:          time.Now(),
		ChainId:       c.chainID,
		AppStateBytes: appState,
	})
	if err != nil {
		return errors.Wrap(errors.ErrNetwork, err.Error())
	}
	return nil
}

func (c *LocalConn) ChainID(context.Context) (string, error) {
	return c.chainID, nil
}

func (c *LocalConn) Query(ctx context.Context, path string, data []byte) (abci.ResponseQuery, error) {
	if err := ctx.Err(); err != nil {
		return abci.ResponseQuery{}, err
	}
	res, err := c.client.QuerySync(abci.RequestQuery{Path: path, Data: data})
	if err != nil {
		return abci.ResponseQuery{}, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	return *res, nil
}

func (c *LocalConn) Broadcast(ctx context.Context, tx []byte) (*Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	check, err := c.client.CheckTxSync(tx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	if check.IsErr() {
		return &Commit{Height: c.height, Check: *check}, nil
	}

	height := c.height + 1
	header := abci.Header{ChainID: c.chainID, Height: height, Time: time.Now()}
	if _, err := c.client.BeginBlockSync(abci.RequestBeginBlock{Header: header}); err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	deliver, err := c.client.DeliverTxSync(tx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	if _, err := c.client.EndBlockSync(abci.RequestEndBlock{Height: height}); err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	if _, err := c.client.CommitSync(); err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	c.height = height
	return &Commit{Height: height, Check: *check, Deliver: *deliver}, nil
}
