package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/codec"
)

type (
	accountWire Account
	sendMsgWire SendMsg
)

func (m *accountWire) Reset()         { *m = accountWire{} }
func (m *accountWire) String() string { return proto.CompactTextString(m) }
func (*accountWire) ProtoMessage()    {}

func (m *sendMsgWire) Reset()         { *m = sendMsgWire{} }
func (m *sendMsgWire) String() string { return proto.CompactTextString(m) }
func (*sendMsgWire) ProtoMessage()    {}

func (m *Account) Marshal() ([]byte, error) {
	return codec.Marshal((*accountWire)(m))
}

func (m *Account) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*accountWire)(m))
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return codec.Marshal((*sendMsgWire)(m))
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*sendMsgWire)(m))
}
