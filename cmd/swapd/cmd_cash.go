package main

import (
	"flag"
	"fmt"
	"io"

	swapd "github.com/iov-one/htlc/cmd/swapd/app"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/cash"
)

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the balance and the owner of an account.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	c.registerKey(fl)
	var accountFl addressFlag
	fl.Var(&accountFl, "account", "Account address. Defaults to the address of the private key.")
	fl.Parse(args)

	account, err := orKeyAddress(accountFl, c.Key)
	if err != nil {
		return err
	}
	l, err := openLedger(c)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.initialized(); err != nil {
		return err
	}
	acc, err := swapd.QueryAccount(l.app, account)
	if err != nil {
		return err
	}
	coins := acc.Coins
	if coins == nil {
		coins = coin.Coins{}
	}
	return writeJSON(output, map[string]interface{}{
		"account": account,
		"owner":   acc.Owner,
		"coins":   coins,
	})
}

func cmdSend(input io.Reader, output io.Writer, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Move funds between two accounts. The transaction is signed with the private
key, which must own the source account.
`)
		fl.PrintDefaults()
	}
	c.register(fl)
	c.registerKey(fl)
	var (
		srcFl, destFl addressFlag
		amountFl      coin.Coin
	)
	fl.Var(&srcFl, "src", "Source account. Defaults to the address of the private key.")
	fl.Var(&destFl, "dest", "Destination account.")
	fl.Var(&amountFl, "amount", `Amount to send, for example "10.5 IOV".`)
	memoFl := fl.String("memo", "", "Optional note.")
	fl.Parse(args)

	key, err := loadKey(c.Key)
	if err != nil {
		return err
	}
	if destFl.addr == nil {
		return errors.Wrap(errors.ErrInput, "destination is required")
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

	msg := &cash.SendMsg{
		Source:      src,
		Destination: destFl.addr,
		Amount:      &amountFl,
		Memo:        *memoFl,
	}
	if _, err := l.submit(key, msg); err != nil {
		return err
	}
	return writeJSON(output, map[string]interface{}{
		"source":      msg.Source,
		"destination": msg.Destination,
		"amount":      msg.Amount,
		"memo":        msg.Memo,
	})
}
