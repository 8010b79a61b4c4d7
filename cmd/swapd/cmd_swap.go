package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/iov-one/htlc"
	swapd "github.com/iov-one/htlc/cmd/swapd/app"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/aswap"
)

func cmdCreate(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Lock funds in a new swap.

The funds are moved from the source account into a vault owned by the swap.
The recipient can redeem them by revealing the preimage of the hash before
the swap is refunded. The initiator can refund them once the swap expired.
Either the hash or the preimage must be given.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	c.registerKey(fl)
	var (
		srcFl, recipientFl addressFlag
		amountFl           coin.Coin
		hashFl, preimageFl hexFlag
		labelFl            hexFlag
	)
	fl.Var(&srcFl, "src", "Source account. Defaults to the address of the private key.")
	fl.Var(&recipientFl, "recipient", "Address of the recipient.")
	fl.Var(&amountFl, "amount", `Amount to lock, for example "10 IOV".`)
	fl.Var(&hashFl, "hash", "Hex encoded sha256 hash of the preimage.")
	fl.Var(&preimageFl, "preimage", "Hex encoded preimage. Only its hash is sent.")
	fl.Var(&labelFl, "label", "Hex encoded label, unique for the initiator. Defaults to a random UUID.")
	var (
		expiresFl = fl.Duration("expires", 24*time.Hour, "Time after which the swap can be refunded.")
		memoFl    = fl.String("memo", "", "Optional note.")
	)
	fl.Parse(args)

	key, err := loadKey(c.Key)
	if err != nil {
		return err
	}
	if recipientFl.addr == nil {
		return errors.Wrap(errors.ErrInput, "recipient is required")
	}
	hash := []byte(hashFl)
	switch {
	case len(hash) != 0 && len(preimageFl) != 0:
		return errors.Wrap(errors.ErrInput, "hash and preimage cannot be used together")
	case len(preimageFl) != 0:
		hash = aswap.HashBytes(preimageFl)
	case len(hash) == 0:
		return errors.Wrap(errors.ErrInput, "hash or preimage is required")
	}
	label := []byte(labelFl)
	if len(label) == 0 {
		id := uuid.New()
		label = id[:]
	}
	src := srcFl.addr
	if src == nil {
		src = key.PublicKey().Address()
	}

	l, err := openLedger(c)
	if err != nil {
		return err
	}
	defer l.Close()

	msg := &aswap.CreateMsg{
		Source:       src,
		Recipient:    recipientFl.addr,
		PreimageHash: hash,
		Amount:       &amountFl,
		Expiry:       htlc.AsUnixTime(now().Add(*expiresFl)),
		Label:        label,
		Memo:         *memoFl,
	}
	res, err := l.submit(key, msg)
	if err != nil {
		return err
	}
	return showSwap(l, output, res.Data)
}

func cmdRedeem(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Release the funds of a swap by revealing the preimage of its hash.

The destination account must be owned by the recipient of the swap. Anyone
knowing the preimage can submit it, the transaction is not signed unless the
private key file exists.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	c.registerKey(fl)
	var (
		swapFl, preimageFl hexFlag
		destFl             addressFlag
	)
	fl.Var(&swapFl, "swap", "Hex encoded swap id.")
	fl.Var(&preimageFl, "preimage", "Hex encoded preimage.")
	fl.Var(&destFl, "dest", "Destination account. Defaults to the address of the private key.")
	fl.Parse(args)

	dest, err := orKeyAddress(destFl, c.Key)
	if err != nil {
		return err
	}
	key, err := loadOptionalKey(c.Key)
	if err != nil {
		return err
	}

	l, err := openLedger(c)
	if err != nil {
		return err
	}
	defer l.Close()

	msg := &aswap.RedeemMsg{
		SwapID:      swapFl,
		Preimage:    preimageFl,
		Destination: dest,
	}
	if _, err := l.submit(key, msg); err != nil {
		return err
	}
	return showSwap(l, output, swapFl)
}

func cmdRefund(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Return the funds of an expired swap.

The destination account must be owned by the initiator of the swap.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	c.registerKey(fl)
	var (
		swapFl hexFlag
		destFl addressFlag
	)
	fl.Var(&swapFl, "swap", "Hex encoded swap id.")
	fl.Var(&destFl, "dest", "Destination account. Defaults to the address of the private key.")
	fl.Parse(args)

	dest, err := orKeyAddress(destFl, c.Key)
	if err != nil {
		return err
	}
	key, err := loadOptionalKey(c.Key)
	if err != nil {
		return err
	}

	l, err := openLedger(c)
	if err != nil {
		return err
	}
	defer l.Close()

	msg := &aswap.RefundMsg{
		SwapID:      swapFl,
		Destination: dest,
	}
	if _, err := l.submit(key, msg); err != nil {
		return err
	}
	return showSwap(l, output, swapFl)
}

func cmdShow(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print a single swap.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	var swapFl hexFlag
	fl.Var(&swapFl, "swap", "Hex encoded swap id.")
	fl.Parse(args)

	l, err := openLedger(c)
	if err != nil {
		return err
	}
	defer l.Close()
	return showSwap(l, output, swapFl)
}

func cmdFind(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
List swaps with given preimage hash, recipient or initiator. Exactly one
criteria must be given.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	var (
		hashFl                   hexFlag
		recipientFl, initiatorFl addressFlag
	)
	fl.Var(&hashFl, "hash", "Hex encoded preimage hash.")
	fl.Var(&recipientFl, "recipient", "Address of the recipient.")
	fl.Var(&initiatorFl, "initiator", "Address of the initiator.")
	fl.Parse(args)

	var (
		index string
		key   []byte
	)
	switch {
	case len(hashFl) != 0 && recipientFl.addr == nil && initiatorFl.addr == nil:
		index, key = swapd.ByPreimageHash, hashFl
	case len(hashFl) == 0 && recipientFl.addr != nil && initiatorFl.addr == nil:
		index, key = swapd.ByRecipient, recipientFl.addr
	case len(hashFl) == 0 && recipientFl.addr == nil && initiatorFl.addr != nil:
		index, key = swapd.ByInitiator, initiatorFl.addr
	default:
		return errors.Wrap(errors.ErrInput, "exactly one of hash, recipient or initiator is required")
	}

	l, err := openLedger(c)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.initialized(); err != nil {
		return err
	}
	swaps, err := swapd.QuerySwaps(l.app, index, key)
	if err != nil {
		return err
	}
	views := make([]swapView, 0, len(swaps))
	for _, s := range swaps {
		views = append(views, newSwapView(s))
	}
	return writeJSON(output, views)
}

func showSwap(l *ledger, output io.Writer, id []byte) error {
	if err := l.initialized(); err != nil {
		return err
	}
	swap, err := swapd.QuerySwap(l.app, id)
	if err != nil {
		return err
	}
	return writeJSON(output, newSwapView(swap))
}

// swapView is the JSON representation of a swap printed by the commands.
// Binary values are hex encoded.
type swapView struct {
	ID           string       `json:"id"`
	State        string       `json:"state"`
	Initiator    htlc.Address `json:"initiator"`
	Recipient    htlc.Address `json:"recipient"`
	Vault        htlc.Address `json:"vault"`
	Label        string       `json:"label"`
	PreimageHash string       `json:"preimage_hash"`
	Preimage     string       `json:"preimage,omitempty"`
	Amount       *coin.Coin   `json:"amount"`
	Expiry       time.Time    `json:"expiry"`
	CreatedAt    time.Time    `json:"created_at"`
	SettledAt    *time.Time   `json:"settled_at,omitempty"`
	Memo         string       `json:"memo,omitempty"`
}

func newSwapView(s *aswap.Swap) swapView {
	v := swapView{
		ID:           hex.EncodeToString(aswap.SwapID(s.Initiator, s.Label)),
		State:        s.State.String(),
		Initiator:    s.Initiator,
		Recipient:    s.Recipient,
		Vault:        s.Vault,
		Label:        hex.EncodeToString(s.Label),
		PreimageHash: hex.EncodeToString(s.PreimageHash),
		Preimage:     hex.EncodeToString(s.Preimage),
		Amount:       s.Amount,
		Expiry:       s.Expiry.Time().UTC(),
		CreatedAt:    s.CreatedAt.Time().UTC(),
		Memo:         s.Memo,
	}
	if !s.SettledAt.IsZero() {
		t := s.SettledAt.Time().UTC()
		v.SettledAt = &t
	}
	return v
}
