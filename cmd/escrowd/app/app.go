/*
Package app wires the escrow program into an ABCI application.

It is a good place to see how the stores, the decorator chain, the
router and the initializers fit together.
*/
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/app"
	"github.com/iov-one/swapchain/store/iavl"
	"github.com/iov-one/swapchain/x"
	"github.com/iov-one/swapchain/x/cash"
	"github.com/iov-one/swapchain/x/escrow"
	"github.com/iov-one/swapchain/x/sigs"
	"github.com/iov-one/swapchain/x/token"
	"github.com/iov-one/swapchain/x/utils"
)

// Name is reported by the abci Info call.
const Name = "escrowd"

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return sigs.Authenticate{}
}

// CashControl returns a controller for the reserve currency.
func CashControl() cash.Controller {
	return cash.NewController()
}

// TokenControl returns a controller for token mints and accounts.
func TokenControl() token.Controller {
	return token.NewController(cash.NewController())
}

// Chain returns a chain of decorators, to handle authentication,
// logging, metrics and recovery. Metrics may be nil.
func Chain(metrics *utils.Metrics) app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		metrics,
		utils.NewActionTagger(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
	)
}

// Router returns a router dispatching to the escrow instructions.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	escrow.RegisterRoutes(r, authFn, TokenControl(), CashControl())
	return r
}

// QueryRouter returns a query router giving access to "/escrows",
// "/mints", "/accounts", "/cash" and "/sigs".
func QueryRouter() swapchain.QueryRouter {
	r := swapchain.NewQueryRouter()
	r.RegisterAll(
		escrow.RegisterQuery,
		token.RegisterQuery,
		cash.RegisterQuery,
		sigs.RegisterQuery,
	)
	return r
}

// Stack wires up the router with the decorator chain. This can be passed
// into BaseApp.
func Stack(metrics *utils.Metrics) swapchain.Handler {
	return Chain(metrics).WithHandler(Router(Authenticator()))
}

// Initializers loads every extension state from the genesis file.
func Initializers() swapchain.Initializer {
	return swapchain.ChainInitializers(
		cash.Initializer{},
		token.Initializer{},
		escrow.Initializer{},
	)
}

// Application constructs a basic ABCI application with
// the given arguments. If you are not sure what to use
// for the Handler, just use Stack().
func Application(name string, h swapchain.Handler,
	tx swapchain.TxDecoder, dbPath string, debug bool) (app.BaseApp, error) {

	ctx := context.Background()
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, err
	}
	store := app.NewStoreApp(name, kv, QueryRouter(), ctx)
	return app.NewBaseApp(store, tx, h, debug), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (swapchain.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.NewMemCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("invalid database name: %s", path)
	}

	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name)
}
