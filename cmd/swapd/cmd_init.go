package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/htlc/app"
	abci "github.com/tendermint/tendermint/abci/types"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Initialize the ledger with the content of a genesis file.

The genesis declares the chain id, the initial accounts under the "cash" key
and the swap configuration under the "conf" key. A ledger can be initialized
only once.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	genesisFl := fl.String("genesis", "genesis.json", "Path to the genesis file.")
	fl.Parse(args)

	gen, err := app.LoadGenesis(*genesisFl)
	if err != nil {
		return err
	}
	l, err := openLedger(c)
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := l.initChain(gen)
	if err != nil {
		return err
	}
	info := l.app.Info(abci.RequestInfo{})
	return writeJSON(output, map[string]interface{}{
		"chain_id": gen.ChainID,
		"version":  info.LastBlockHeight,
		"app_hash": hex.EncodeToString(res.Data),
	})
}
