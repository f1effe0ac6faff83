package app

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/commands/server"
	"github.com/iov-one/swapchain/crypto"
	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/token"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Genesis defaults for a development chain.
const (
	devCash           = 1000000000
	devTokens         = 1000000
	devAccountReserve = 2039
	devRecordReserve  = 1447
)

// DevMints are the two mints created by GenInitOptions.
var DevMints = [2]swapchain.Address{
	deterministicKey("mint-a").PublicKey().Address(),
	deterministicKey("mint-b").PublicKey().Address(),
}

// GenInitOptions will produce some basic options for one rich
// account, to use for dev mode.
//
// The first argument is the address owning everything, a new key is
// generated and printed when missing. The second argument is the cluster
// the escrow program identity is taken from.
func GenInitOptions(args []string) (json.RawMessage, error) {
	var owner swapchain.Address
	if len(args) > 0 {
		addr, err := swapchain.ParseAddress(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "owner")
		}
		owner = addr
	} else {
		// if no address provided, auto-generate one
		// and print out its seed
		key := crypto.GenPrivKeyEd25519()
		owner = key.PublicKey().Address()
		fmt.Printf("owner %s seed %s\n", owner, hex.EncodeToString(key[:32]))
	}
	cluster := "mainnet"
	if len(args) > 1 {
		cluster = args[1]
	}
	return genesis(owner, escrow.ProgramID(cluster))
}

func genesis(owner, program swapchain.Address) (json.RawMessage, error) {
	type dict map[string]interface{}

	mints := make([]token.GenesisMint, 0, len(DevMints))
	accounts := make([]token.GenesisAccount, 0, len(DevMints))
	for _, m := range DevMints {
		mints = append(mints, token.GenesisMint{Address: m, Decimals: 6, Authority: owner})
		accounts = append(accounts, token.GenesisAccount{Owner: owner, Mint: m, Amount: devTokens})
	}
	return json.Marshal(dict{
		"cash": []dict{
			{"address": owner, "amount": devCash},
		},
		"token": dict{
			"mints":    mints,
			"accounts": accounts,
		},
		"conf": dict{
			"token": token.Configuration{AccountReserve: devAccountReserve},
			"escrow": escrow.Configuration{
				Owner:          owner,
				ProgramID:      program,
				CloseRecipient: escrow.CloseToMaker,
				RecordReserve:  devRecordReserve,
			},
		},
	})
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(options *server.Options) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if options.Home != "" {
		dbPath = filepath.Join(options.Home, "abci.db")
	}

	application, err := Application(Name, Stack(options.Metrics), TxDecoder, dbPath, options.Debug)
	if err != nil {
		return nil, err
	}
	application.WithInit(Initializers())
	if options.Logger != nil {
		application.WithLogger(options.Logger)
	}
	return application, nil
}

// deterministicKey derives a key from a name. It is not secret, only
// reproducible.
func deterministicKey(name string) crypto.PrivateKey {
	seed := make([]byte, 32)
	copy(seed, name)
	return crypto.PrivKeyEd25519FromSeed(seed)
}
