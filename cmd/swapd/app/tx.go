package app

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/aswap"
	"github.com/iov-one/htlc/x/cash"
	"github.com/iov-one/htlc/x/sigs"
)

// Tx carries exactly one message together with the signatures authorizing
// it.
type Tx struct {
	Signatures []*sigs.StdSignature `protobuf:"bytes,1,rep,name=signatures,proto3"`

	CashSendMsg    *cash.SendMsg    `protobuf:"bytes,51,opt,name=cash_send_msg,json=cashSendMsg,proto3"`
	AswapCreateMsg *aswap.CreateMsg `protobuf:"bytes,61,opt,name=aswap_create_msg,json=aswapCreateMsg,proto3"`
	AswapRedeemMsg *aswap.RedeemMsg `protobuf:"bytes,62,opt,name=aswap_redeem_msg,json=aswapRedeemMsg,proto3"`
	AswapRefundMsg *aswap.RefundMsg `protobuf:"bytes,63,opt,name=aswap_refund_msg,json=aswapRefundMsg,proto3"`
}

// make sure tx fulfills all interfaces
var _ htlc.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (htlc.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// NewTx returns a transaction carrying given message.
func NewTx(msg htlc.Msg) (*Tx, error) {
	var tx Tx
	switch m := msg.(type) {
	case *cash.SendMsg:
		tx.CashSendMsg = m
	case *aswap.CreateMsg:
		tx.AswapCreateMsg = m
	case *aswap.RedeemMsg:
		tx.AswapRedeemMsg = m
	case *aswap.RefundMsg:
		tx.AswapRefundMsg = m
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unsupported message %T", msg)
	}
	return &tx, nil
}

// GetMsg returns the single message of the transaction.
func (tx *Tx) GetMsg() (htlc.Msg, error) {
	var msgs []htlc.Msg
	if tx.CashSendMsg != nil {
		msgs = append(msgs, tx.CashSendMsg)
	}
	if tx.AswapCreateMsg != nil {
		msgs = append(msgs, tx.AswapCreateMsg)
	}
	if tx.AswapRedeemMsg != nil {
		msgs = append(msgs, tx.AswapRedeemMsg)
	}
	if tx.AswapRefundMsg != nil {
		msgs = append(msgs, tx.AswapRefundMsg)
	}

	switch len(msgs) {
	case 0:
		return nil, errors.Wrap(errors.ErrMsg, "transaction without a message")
	case 1:
		return msgs[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "transaction with %d messages", len(msgs))
	}
}

// GetSignatures returns all signatures of the transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign: the serialized transaction
// without any signature.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := *tx
	unsigned.Signatures = nil
	return unsigned.Marshal()
}

// Sign appends the signature of given key, using the sequence expected by
// the chain.
func (tx *Tx) Sign(key *crypto.PrivateKey, chainID string, seq int64) error {
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}
