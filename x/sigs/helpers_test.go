package sigs

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/htlctest"
)

// signedTx is a minimal transaction carrying signatures.
type signedTx struct {
	payload []byte
	sigs    []*StdSignature
}

var (
	_ htlc.Tx  = (*signedTx)(nil)
	_ SignedTx = (*signedTx)(nil)
)

func (tx *signedTx) GetMsg() (htlc.Msg, error) {
	return &htlctest.Msg{RoutePath: "test/signed", Serialized: tx.payload}, nil
}

func (tx *signedTx) GetSignBytes() ([]byte, error) {
	return tx.payload, nil
}

func (tx *signedTx) GetSignatures() []*StdSignature {
	return tx.sigs
}

func (tx *signedTx) Marshal() ([]byte, error) {
	return tx.payload, nil
}

func (tx *signedTx) Unmarshal(raw []byte) error {
	tx.payload = raw
	return nil
}
