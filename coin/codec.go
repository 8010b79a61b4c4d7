package coin

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/codec"
)

type coinWire Coin

func (c *coinWire) Reset()         { *c = coinWire{} }
func (c *coinWire) String() string { return proto.CompactTextString(c) }
func (*coinWire) ProtoMessage()    {}

func (c *Coin) Marshal() ([]byte, error) {
	return codec.Marshal((*coinWire)(c))
}

func (c *Coin) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*coinWire)(c))
}
