package main

import (
	"encoding/hex"
	"flag"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// addressFlag accepts all forms understood by htlc.ParseAddress.
type addressFlag struct {
	addr htlc.Address
}

var _ flag.Value = (*addressFlag)(nil)

func (a *addressFlag) Set(raw string) error {
	addr, err := htlc.ParseAddress(raw)
	if err != nil {
		return err
	}
	a.addr = addr
	return nil
}

func (a *addressFlag) String() string {
	if a == nil || a.addr == nil {
		return ""
	}
	return a.addr.String()
}

// hexFlag holds a hex encoded binary value.
type hexFlag []byte

var _ flag.Value = (*hexFlag)(nil)

func (h *hexFlag) Set(raw string) error {
	b, err := hex.DecodeString(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "hex: %s", err)
	}
	*h = b
	return nil
}

func (h *hexFlag) String() string {
	if h == nil {
		return ""
	}
	return hex.EncodeToString(*h)
}

// orKeyAddress returns the address given by the flag or, if not set, the
// address of the key.
func orKeyAddress(a addressFlag, keyPath string) (htlc.Address, error) {
	if a.addr != nil {
		return a.addr, nil
	}
	key, err := loadKey(keyPath)
	if err != nil {
		return nil, err
	}
	return key.PublicKey().Address(), nil
}
