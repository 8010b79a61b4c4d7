package app

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/codec"
)

type txWire Tx

func (m *txWire) Reset()         { *m = txWire{} }
func (m *txWire) String() string { return proto.CompactTextString(m) }
func (*txWire) ProtoMessage()    {}

func (m *Tx) Marshal() ([]byte, error) {
	return codec.Marshal((*txWire)(m))
}

func (m *Tx) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*txWire)(m))
}
