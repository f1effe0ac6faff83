package swapchain

import (
	"bytes"

	"github.com/iov-one/swapchain/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is the outcome of a successfully delivered transaction.
type DeliverResult struct {
	// Data is the machine readable outcome, the record address for escrow
	// messages.
	Data []byte
	Log  string
	// Tags are indexed by tendermint and make transactions searchable, for
	// example by escrow record or by action.
	Tags []common.KVPair
}

func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{
		Data: d.Data,
		Log:  d.Log,
		Tags: d.Tags,
	}
}

// TagValue returns the value of the first tag under key, or nil.
func (d DeliverResult) TagValue(key string) []byte {
	for _, t := range d.Tags {
		if bytes.Equal(t.Key, []byte(key)) {
			return t.Value
		}
	}
	return nil
}

// CheckResult is the outcome of a transaction accepted into the mempool.
type CheckResult struct {
	Data []byte
	Log  string
}

func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{
		Data: c.Data,
		Log:  c.Log,
	}
}

// DeliverTxError builds the response of a failed DeliverTx. Only registered
// errors keep their message unless debug is set.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := txError("cannot deliver tx", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

// CheckTxError builds the response of a failed CheckTx.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := txError("cannot check tx", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

func txError(stage string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code != errors.SuccessABCICode {
		log = stage + ": " + log
	}
	return code, log
}

// ParseDeliverTx reads a DeliverTx response as returned by a node. A failed
// transaction is returned as an error matching the registered error of its
// code.
func ParseDeliverTx(res abci.ResponseDeliverTx) (*DeliverResult, error) {
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	return &DeliverResult{Data: res.Data, Log: res.Log, Tags: res.Tags}, nil
}

// ParseCheckTx reads a CheckTx response like ParseDeliverTx.
func ParseCheckTx(res abci.ResponseCheckTx) (*CheckResult, error) {
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	return &CheckResult{Data: res.Data, Log: res.Log}, nil
}

func Tag(key string, value []byte) common.KVPair {
	return common.KVPair{Key: []byte(key), Value: value}
}
