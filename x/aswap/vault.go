package aswap

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Vault is the account holding the funds of a single swap, together with the
// condition that controls it.
type Vault struct {
	Address   htlc.Address
	Authority htlc.Condition
}

// DeriveVault returns the vault of the swap created by given initiator with
// given label. Distinct labels of one initiator never share a vault.
func DeriveVault(initiator htlc.Address, label []byte) Vault {
	authority := htlc.NewCondition("aswap", "vault", SwapID(initiator, label))
	return Vault{
		Address:   authority.Address(),
		Authority: authority,
	}
}

// SwapID returns the key a swap is stored under. The initiator address has a
// fixed length, so the concatenation is unambiguous.
func SwapID(initiator htlc.Address, label []byte) []byte {
	id := make([]byte, 0, len(initiator)+len(label))
	id = append(id, initiator...)
	return append(id, label...)
}

// SplitSwapID returns the initiator and label encoded in a swap id.
func SplitSwapID(id []byte) (htlc.Address, []byte, error) {
	if err := validateSwapID(id); err != nil {
		return nil, nil, err
	}
	return htlc.Address(id[:htlc.AddressLength]), id[htlc.AddressLength:], nil
}

func validateSwapID(id []byte) error {
	n := len(id) - htlc.AddressLength
	if n < 1 || n > maxLabelSize {
		return errors.Wrapf(errors.ErrInput, "swap id must be an address followed by a 1-%d bytes label", maxLabelSize)
	}
	return nil
}
