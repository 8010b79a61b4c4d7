package app

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/aswap"
	"github.com/iov-one/htlc/x/cash"
	"github.com/iov-one/htlc/x/sigs"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Swap indexes that can be queried with QuerySwaps.
const (
	ByPreimageHash = "preimage_hash"
	ByRecipient    = "recipient"
	ByInitiator    = "initiator"
)

// QuerySwap returns the swap stored under given id.
func QuerySwap(a abci.Application, id []byte) (*aswap.Swap, error) {
	models, err := app.QueryModels(a, "/aswaps", id)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "swap %X", id)
	}
	var s aswap.Swap
	if err := s.Unmarshal(models[0].Value); err != nil {
		return nil, err
	}
	return &s, nil
}

// QuerySwaps returns all swaps whose index value is key.
func QuerySwaps(a abci.Application, index string, key []byte) ([]*aswap.Swap, error) {
	models, err := app.QueryModels(a, "/aswaps/"+index, key)
	if err != nil {
		return nil, err
	}
	swaps := make([]*aswap.Swap, len(models))
	for i, m := range models {
		var s aswap.Swap
		if err := s.Unmarshal(m.Value); err != nil {
			return nil, err
		}
		swaps[i] = &s
	}
	return swaps, nil
}

// QueryAccount returns the account stored under given address. An account
// that was never used is empty and owned by its own address.
func QueryAccount(a abci.Application, addr htlc.Address) (*cash.Account, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	models, err := app.QueryModels(a, "/wallets", addr)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return &cash.Account{Owner: addr}, nil
	}
	var acc cash.Account
	if err := acc.Unmarshal(models[0].Value); err != nil {
		return nil, err
	}
	return &acc, nil
}

// QuerySequence returns the sequence the next signature of given signer must
// carry.
func QuerySequence(a abci.Application, signer htlc.Address) (int64, error) {
	models, err := app.QueryModels(a, "/auth", signer)
	if err != nil {
		return 0, err
	}
	if len(models) == 0 {
		return 0, nil
	}
	var u sigs.UserData
	if err := u.Unmarshal(models[0].Value); err != nil {
		return 0, err
	}
	return u.Sequence, nil
}
