package server

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iov-one/swapchain/errors"
	amino "github.com/tendermint/go-amino"
	"github.com/tendermint/tendermint/blockchain"
	dbm "github.com/tendermint/tendermint/libs/db"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
)

const flagHeight = "height"

var cdc = amino.NewCodec()

func init() {
	ctypes.RegisterAmino(cdc)
}

func parseGetBlockArgs(args []string) (string, int64, error) {
	if len(args) == 0 {
		return "", 0, errors.Wrap(errors.ErrInvalidInput, "usage: getblock <path to blockstore.db> [-height=H]")
	}
	var height int64
	fs := flag.NewFlagSet("getblock", flag.ContinueOnError)
	fs.Int64Var(&height, flagHeight, 0, "height of the block to extract (default latest)")
	if err := fs.Parse(args[1:]); err != nil {
		return "", 0, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return args[0], height, nil
}

// GetBlockCmd extracts a block from a blockstore.db and writes it as json.
// It takes the last block unless -height is explicitly specified.
func GetBlockCmd(out io.Writer, args []string) error {
	dbPath, height, err := parseGetBlockArgs(args)
	if err != nil {
		return err
	}
	db, err := openDb(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := blockchain.NewBlockStore(db)
	if height == 0 {
		height = store.Height()
	}
	block := store.LoadBlock(height)
	if block == nil {
		return errors.Wrapf(errors.ErrNotFound, "no block for height %d", height)
	}
	js, err := cdc.MarshalJSONIndent(block, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInvalidState, err.Error())
	}
	_, err = fmt.Fprintln(out, string(js))
	return err
}

// openDb opens a leveldb directory. The path must end with .db
func openDb(path string) (dbm.DB, error) {
	path = strings.TrimSuffix(path, "/")
	if filepath.Ext(path) != ".db" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "database directory must end with .db")
	}
	path = strings.TrimSuffix(path, ".db")
	db, err := dbm.NewGoLevelDB(filepath.Base(path), filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return db, nil
}
