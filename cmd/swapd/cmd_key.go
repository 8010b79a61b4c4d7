package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Generate a new private key.

When successful a new file with binary content containing private key is
created. This command fails if the private key file already exists. A key
derived from a seed is always the same for the same seed and path.
`)
		fl.PrintDefaults()
	}
	c.registerKey(fl)
	var (
		seedFl = fl.String("seed", "", "Optional hex encoded seed to derive the key from.")
		pathFl = fl.String("path", "m/44'/234'/0'", "SLIP-0010 derivation path used together with the seed.")
	)
	fl.Parse(args)

	if _, err := os.Stat(c.Key); !os.IsNotExist(err) {
		// Do not allow to overwrite already existing private key. User
		// must manually delete it first.
		return errors.Wrapf(errors.ErrDuplicate, "private key file %q already exists, delete this file and try again", c.Key)
	}

	key, err := newKey(*seedFl, *pathFl)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Key), 0o700); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create key directory: %s", err)
	}
	if err := os.WriteFile(c.Key, key.Ed25519, 0o600); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot write private key: %s", err)
	}
	_, err = fmt.Fprintln(output, key.PublicKey().Address())
	return err
}

func newKey(seedHex, path string) (*crypto.PrivateKey, error) {
	if seedHex == "" {
		return crypto.GenPrivKeyEd25519(), nil
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "seed: %s", err)
	}
	return crypto.DerivePrivKey(seed, path)
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the addresses associated with your private key.
`)
		fl.PrintDefaults()
	}
	c.registerKey(fl)
	hrpFl := fl.String("hrp", "tiov", "Human readable part of the bech32 address.")
	fl.Parse(args)

	key, err := loadKey(c.Key)
	if err != nil {
		return err
	}
	addr := key.PublicKey().Address()
	bech, err := addr.Bech32(*hrpFl)
	if err != nil {
		return err
	}
	return writeJSON(output, map[string]string{
		"address":   addr.String(),
		"bech32":    bech,
		"condition": key.PublicKey().Condition().String(),
	})
}
