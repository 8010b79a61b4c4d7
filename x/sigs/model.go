package sigs

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// StdSignature is a single signature of a transaction, with the key it can
// be verified with and the signer sequence it was created for.
type StdSignature struct {
	Pubkey    *crypto.PublicKey `protobuf:"bytes,1,opt,name=pubkey,proto3"`
	Signature *crypto.Signature `protobuf:"bytes,2,opt,name=signature,proto3"`
	Sequence  int64             `protobuf:"varint,3,opt,name=sequence,proto3"`
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if err := s.Pubkey.Validate(); err != nil {
		return errors.Wrap(err, "public key")
	}
	if s.Signature == nil || len(s.Signature.Ed25519) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

// UserData is the state kept for every public key that has signed a
// transaction.
type UserData struct {
	Pubkey   *crypto.PublicKey `protobuf:"bytes,1,opt,name=pubkey,proto3"`
	Sequence int64             `protobuf:"varint,2,opt,name=sequence,proto3"`
}

var _ orm.Model = (*UserData)(nil)

// Validate requires that all fields are present and sane.
func (u *UserData) Validate() error {
	if u.Pubkey == nil {
		return errors.Wrap(errors.ErrModel, "missing public key")
	}
	if err := u.Pubkey.Validate(); err != nil {
		return errors.Wrap(err, "public key")
	}
	if u.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	return nil
}

// CheckAndIncrementSequence implements the replay protection. The given
// sequence must be exactly the next one for this user.
func (u *UserData) CheckAndIncrementSequence(check int64) error {
	if u.Sequence != check {
		return errors.Wrapf(ErrInvalidSequence, "mismatch: expected %d, got %d", u.Sequence, check)
	}
	u.Sequence++
	return nil
}

// NewUserBucket returns the bucket that stores UserData, keyed by the address
// of the public key.
func NewUserBucket() orm.ModelBucket {
	return orm.NewModelBucket("sigs", &UserData{})
}

// RegisterQuery exposes the signer sequences under /auth.
func RegisterQuery(qr htlc.QueryRouter) {
	NewUserBucket().Register("auth", qr)
}

// NextSequence returns the sequence that the next signature of given signer
// must carry.
func NextSequence(db htlc.ReadOnlyKVStore, signer htlc.Address) (int64, error) {
	var u UserData
	switch err := NewUserBucket().One(db, signer, &u); {
	case err == nil:
		return u.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

// loadOrCreate returns the stored UserData for given public key, or a new
// one starting at sequence zero.
func loadOrCreate(db htlc.ReadOnlyKVStore, pub *crypto.PublicKey) (*UserData, error) {
	var u UserData
	switch err := NewUserBucket().One(db, pub.Address(), &u); {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{Pubkey: pub}, nil
	default:
		return nil, err
	}
}
