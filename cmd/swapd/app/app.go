/*
Package app links together the ledger, the signature verification and the
swap extension into a single application backed by a persistent store.
*/
package app

import (
	"path/filepath"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store/iavl"
	"github.com/iov-one/htlc/x"
	"github.com/iov-one/htlc/x/aswap"
	"github.com/iov-one/htlc/x/cash"
	"github.com/iov-one/htlc/x/sigs"
	"github.com/iov-one/htlc/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

// Name of the application, also used as the database name.
const Name = "swapd"

// Supported database backends.
const (
	BackendGoLevelDB = "goleveldb"
	BackendMemDB     = "memdb"
)

// Authenticator returns the authentication used by all handlers, public key
// signatures only.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication, logging,
// and recovery.
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// Redeem and refund do not require a signer, anyone can submit
		// them. Create is rejected by its handler when not signed.
		sigs.NewDecorator().AllowMissingSigs(),
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching ledger and swap messages.
func Router(auth x.Authenticator) *app.Router {
	r := app.NewRouter()
	ctrl := cash.NewController()
	cash.RegisterRoutes(r, auth, ctrl)
	aswap.RegisterRoutes(r, auth, ctrl)
	return r
}

// Stack wires up the router with the decorator chain.
func Stack() htlc.Handler {
	auth := Authenticator()
	return Chain().WithHandler(Router(auth))
}

// Initializers returns all genesis initializers of the application.
func Initializers() htlc.Initializer {
	return htlc.ChainInitializers(
		cash.Initializer{},
		aswap.Initializer{},
	)
}

// QueryRouter returns a router exposing swaps under /aswaps, accounts under
// /wallets and signer sequences under /auth.
func QueryRouter() htlc.QueryRouter {
	r := htlc.NewQueryRouter()
	r.RegisterAll(
		aswap.RegisterQuery,
		cash.RegisterQuery,
		sigs.RegisterQuery,
	)
	return r
}

// CommitKVStore opens the application database inside of given directory
// and loads its latest version.
func CommitKVStore(home, backend string) (*iavl.CommitStore, error) {
	var s *iavl.CommitStore
	switch backend {
	case BackendMemDB:
		s = iavl.MockCommitStore()
	case BackendGoLevelDB, "":
		path, err := filepath.Abs(home)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "invalid home %q: %s", home, err)
		}
		s, err = iavl.NewCommitStore(path, Name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown database backend %q", backend)
	}
	if err := s.LoadLatestVersion(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Application returns the application running on top of given store. In
// debug mode failed transactions carry the full error.
func Application(store htlc.CommitKVStore, logger log.Logger, debug bool) (app.BaseApp, error) {
	s, err := app.NewStoreApp(Name, store, QueryRouter())
	if err != nil {
		return app.BaseApp{}, err
	}
	s = s.WithInit(Initializers()).WithLogger(logger)
	return app.NewBaseApp(s, TxDecoder, Stack(), debug), nil
}
