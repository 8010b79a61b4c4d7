package aswap

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// SwapState is the stage of the swap lifecycle.
type SwapState int32

const (
	// SwapCreated is the initial state. Funds are locked in the vault.
	SwapCreated SwapState = 1
	// SwapRedeemed is terminal. Funds went to the recipient and the
	// preimage is revealed.
	SwapRedeemed SwapState = 2
	// SwapRefunded is terminal. Funds went back to the initiator.
	SwapRefunded SwapState = 3
)

var stateNames = map[SwapState]string{
	SwapCreated:  "CREATED",
	SwapRedeemed: "REDEEMED",
	SwapRefunded: "REFUNDED",
}

func (s SwapState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "INVALID"
}

// IsTerminal returns true if no transition is possible from this state.
func (s SwapState) IsTerminal() bool {
	return s == SwapRedeemed || s == SwapRefunded
}

func (s SwapState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SwapState) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrapf(errors.ErrInput, "swap state: %s", err)
	}
	for st, n := range stateNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInput, "unknown swap state %q", name)
}

// Swap is the record of a single swap.
type Swap struct {
	// Authority controls the vault. It is derived once at creation.
	Authority    htlc.Condition `protobuf:"bytes,1,opt,name=authority,proto3,casttype=github.com/iov-one/htlc.Condition" json:"authority"`
	Vault        htlc.Address   `protobuf:"bytes,2,opt,name=vault,proto3,casttype=github.com/iov-one/htlc.Address" json:"vault"`
	Initiator    htlc.Address   `protobuf:"bytes,3,opt,name=initiator,proto3,casttype=github.com/iov-one/htlc.Address" json:"initiator"`
	Label        []byte         `protobuf:"bytes,4,opt,name=label,proto3" json:"label"`
	Recipient    htlc.Address   `protobuf:"bytes,5,opt,name=recipient,proto3,casttype=github.com/iov-one/htlc.Address" json:"recipient"`
	PreimageHash []byte         `protobuf:"bytes,6,opt,name=preimage_hash,json=preimageHash,proto3" json:"preimage_hash"`
	// Preimage is set only when the swap was redeemed.
	Preimage  []byte        `protobuf:"bytes,7,opt,name=preimage,proto3" json:"preimage,omitempty"`
	Amount    *coin.Coin    `protobuf:"bytes,8,opt,name=amount,proto3" json:"amount"`
	Expiry    htlc.UnixTime `protobuf:"varint,9,opt,name=expiry,proto3,casttype=github.com/iov-one/htlc.UnixTime" json:"expiry"`
	State     SwapState     `protobuf:"varint,10,opt,name=state,proto3,enum=aswap.SwapState" json:"state"`
	CreatedAt htlc.UnixTime `protobuf:"varint,11,opt,name=created_at,json=createdAt,proto3,casttype=github.com/iov-one/htlc.UnixTime" json:"created_at"`
	SettledAt htlc.UnixTime `protobuf:"varint,12,opt,name=settled_at,json=settledAt,proto3,casttype=github.com/iov-one/htlc.UnixTime" json:"settled_at,omitempty"`
	Memo      string        `protobuf:"bytes,13,opt,name=memo,proto3" json:"memo,omitempty"`
}

var _ orm.Model = (*Swap)(nil)

// Validate ensures the Swap is valid. Every combination of state, preimage
// and settlement time that cannot be reached by the engine is rejected.
func (s *Swap) Validate() error {
	var errs error
	if err := s.Authority.Validate(); err != nil {
		errs = errors.Append(errs, errors.Wrap(err, "authority"))
	} else if !s.Vault.Equals(s.Authority.Address()) {
		errs = errors.Append(errs, errors.Wrap(errors.ErrModel, "vault is not controlled by authority"))
	}
	if err := s.Initiator.Validate(); err != nil {
		errs = errors.Append(errs, errors.Wrap(err, "initiator"))
	}
	if err := s.Recipient.Validate(); err != nil {
		errs = errors.Append(errs, errors.Wrap(err, "recipient"))
	}
	if err := validateLabel(s.Label); err != nil {
		errs = errors.Append(errs, err)
	}
	if err := validatePreimageHash(s.PreimageHash); err != nil {
		errs = errors.Append(errs, err)
	}
	if err := validateAmount(s.Amount); err != nil {
		errs = errors.Append(errs, err)
	}
	if s.Expiry == 0 {
		errs = errors.Append(errs, errors.Wrap(errors.ErrInput, "expiry is required"))
	}
	if s.CreatedAt == 0 {
		errs = errors.Append(errs, errors.Wrap(errors.ErrInput, "creation time is required"))
	}
	if len(s.Memo) > maxMemoSize {
		errs = errors.Append(errs, errors.Wrapf(errors.ErrInput, "memo longer than %d", maxMemoSize))
	}

	switch s.State {
	case SwapCreated:
		if len(s.Preimage) != 0 {
			errs = errors.Append(errs, errors.Wrap(errors.ErrState, "preimage revealed before redeem"))
		}
		if s.SettledAt != 0 {
			errs = errors.Append(errs, errors.Wrap(errors.ErrState, "active swap has settlement time"))
		}
	case SwapRedeemed:
		if !bytes.Equal(HashBytes(s.Preimage), s.PreimageHash) {
			errs = errors.Append(errs, errors.Wrap(errors.ErrState, "redeemed without matching preimage"))
		}
		if s.SettledAt == 0 {
			errs = errors.Append(errs, errors.Wrap(errors.ErrState, "missing settlement time"))
		}
	case SwapRefunded:
		if len(s.Preimage) != 0 {
			errs = errors.Append(errs, errors.Wrap(errors.ErrState, "refunded swap with preimage"))
		}
		if s.SettledAt == 0 {
			errs = errors.Append(errs, errors.Wrap(errors.ErrState, "missing settlement time"))
		}
	default:
		errs = errors.Append(errs, errors.Wrapf(errors.ErrState, "unknown state %d", s.State))
	}
	return errs
}

// HashBytes returns the sha256 digest of the preimage.
func HashBytes(preimage []byte) []byte {
	hash := sha256.Sum256(preimage)
	return hash[:]
}

// NewBucket returns the bucket storing swaps by their id, with indexes for
// every party and for the preimage hash.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("swap", &Swap{},
		orm.WithIndex("initiator", idxInitiator, false),
		orm.WithIndex("recipient", idxRecipient, false),
		orm.WithIndex("preimage_hash", idxPreimageHash, false),
	)
}

func toSwap(m orm.Model) (*Swap, error) {
	s, ok := m.(*Swap)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "can only index Swap, got %T", m)
	}
	return s, nil
}

func idxInitiator(m orm.Model) ([]byte, error) {
	s, err := toSwap(m)
	if err != nil {
		return nil, err
	}
	return s.Initiator, nil
}

func idxRecipient(m orm.Model) ([]byte, error) {
	s, err := toSwap(m)
	if err != nil {
		return nil, err
	}
	return s.Recipient, nil
}

func idxPreimageHash(m orm.Model) ([]byte, error) {
	s, err := toSwap(m)
	if err != nil {
		return nil, err
	}
	return s.PreimageHash, nil
}
