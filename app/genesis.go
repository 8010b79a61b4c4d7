package app

import (
	"encoding/json"
	"os"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Genesis file format
type Genesis struct {
	ChainID  string       `json:"chain_id"`
	AppState htlc.Options `json:"app_state"`
}

// Validate checks that the genesis can start a chain.
func (g Genesis) Validate() error {
	if !htlc.IsValidChainID(g.ChainID) {
		return errors.Wrapf(errors.ErrInput, "invalid chain id %q", g.ChainID)
	}
	return nil
}

// InitChainRequest returns the request that initializes a chain with this
// genesis.
func (g Genesis) InitChainRequest() (abci.RequestInitChain, error) {
	if err := g.Validate(); err != nil {
		return abci.RequestInitChain{}, err
	}
	state, err := json.Marshal(g.AppState)
	if err != nil {
		return abci.RequestInitChain{}, errors.Wrapf(errors.ErrInput, "app state: %s", err)
	}
	return abci.RequestInitChain{ChainId: g.ChainID, AppStateBytes: state}, nil
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}
