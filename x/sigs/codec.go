package sigs

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/codec"
)

type (
	stdSignatureWire StdSignature
	userDataWire     UserData
)

func (m *stdSignatureWire) Reset()         { *m = stdSignatureWire{} }
func (m *stdSignatureWire) String() string { return proto.CompactTextString(m) }
func (*stdSignatureWire) ProtoMessage()    {}

func (m *userDataWire) Reset()         { *m = userDataWire{} }
func (m *userDataWire) String() string { return proto.CompactTextString(m) }
func (*userDataWire) ProtoMessage()    {}

func (m *StdSignature) Marshal() ([]byte, error) {
	return codec.Marshal((*stdSignatureWire)(m))
}

func (m *StdSignature) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*stdSignatureWire)(m))
}

func (m *UserData) Marshal() ([]byte, error) {
	return codec.Marshal((*userDataWire)(m))
}

func (m *UserData) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*userDataWire)(m))
}
