package crypto

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/codec"
)

type (
	publicKeyWire  PublicKey
	privateKeyWire PrivateKey
	signatureWire  Signature
)

func (m *publicKeyWire) Reset()         { *m = publicKeyWire{} }
func (m *publicKeyWire) String() string { return proto.CompactTextString(m) }
func (*publicKeyWire) ProtoMessage()    {}

func (m *privateKeyWire) Reset()         { *m = privateKeyWire{} }
func (m *privateKeyWire) String() string { return proto.CompactTextString(m) }
func (*privateKeyWire) ProtoMessage()    {}

func (m *signatureWire) Reset()         { *m = signatureWire{} }
func (m *signatureWire) String() string { return proto.CompactTextString(m) }
func (*signatureWire) ProtoMessage()    {}

func (m *PublicKey) Marshal() ([]byte, error) {
	return codec.Marshal((*publicKeyWire)(m))
}

func (m *PublicKey) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*publicKeyWire)(m))
}

func (m *PrivateKey) Marshal() ([]byte, error) {
	return codec.Marshal((*privateKeyWire)(m))
}

func (m *PrivateKey) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*privateKeyWire)(m))
}

func (m *Signature) Marshal() ([]byte, error) {
	return codec.Marshal((*signatureWire)(m))
}

func (m *Signature) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*signatureWire)(m))
}
