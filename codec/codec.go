/*
Package codec serializes persisted models, messages and transactions using
the protobuf wire format.

Every serialized struct carries protobuf field tags matching the codec.proto
file kept next to it, so clients in other languages can use protoc against
the same schema. The gogo protobuf runtime encodes such structs by
reflection. Because a type that implements Marshal itself is never
inspected by the runtime, each model declares a wire type with the same
layout and no methods other than those of proto.Message:

	type swapWire Swap

	func (m *swapWire) Reset()         { *m = swapWire{} }
	func (m *swapWire) String() string { return proto.CompactTextString(m) }
	func (*swapWire) ProtoMessage()    {}

	func (m *Swap) Marshal() ([]byte, error) {
		return codec.Marshal((*swapWire)(m))
	}

	func (m *Swap) Unmarshal(raw []byte) error {
		return codec.Unmarshal(raw, (*swapWire)(m))
	}
*/
package codec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/errors"
)

// Marshaler is implemented by any value that can be serialized.
type Marshaler interface {
	Marshal() ([]byte, error)
}

// Unmarshaler is implemented by any value that can be deserialized.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Marshal returns the protobuf representation of m.
func Marshal(m proto.Message) ([]byte, error) {
	raw, err := proto.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "protobuf marshal: %s", err)
	}
	return raw, nil
}

// Unmarshal resets m and loads the protobuf encoded raw into it. Unknown
// fields are skipped.
func Unmarshal(raw []byte, m proto.Message) error {
	if err := proto.Unmarshal(raw, m); err != nil {
		return errors.Wrapf(errors.ErrInput, "protobuf unmarshal: %s", err)
	}
	return nil
}
