package aswap

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/codec"
)

type (
	swapWire          Swap
	createMsgWire     CreateMsg
	redeemMsgWire     RedeemMsg
	refundMsgWire     RefundMsg
	configurationWire Configuration
)

func (m *swapWire) Reset()         { *m = swapWire{} }
func (m *swapWire) String() string { return proto.CompactTextString(m) }
func (*swapWire) ProtoMessage()    {}

func (m *createMsgWire) Reset()         { *m = createMsgWire{} }
func (m *createMsgWire) String() string { return proto.CompactTextString(m) }
func (*createMsgWire) ProtoMessage()    {}

func (m *redeemMsgWire) Reset()         { *m = redeemMsgWire{} }
func (m *redeemMsgWire) String() string { return proto.CompactTextString(m) }
func (*redeemMsgWire) ProtoMessage()    {}

func (m *refundMsgWire) Reset()         { *m = refundMsgWire{} }
func (m *refundMsgWire) String() string { return proto.CompactTextString(m) }
func (*refundMsgWire) ProtoMessage()    {}

func (m *configurationWire) Reset()         { *m = configurationWire{} }
func (m *configurationWire) String() string { return proto.CompactTextString(m) }
func (*configurationWire) ProtoMessage()    {}

func (m *Swap) Marshal() ([]byte, error) {
	return codec.Marshal((*swapWire)(m))
}

func (m *Swap) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*swapWire)(m))
}

func (m *CreateMsg) Marshal() ([]byte, error) {
	return codec.Marshal((*createMsgWire)(m))
}

func (m *CreateMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*createMsgWire)(m))
}

func (m *RedeemMsg) Marshal() ([]byte, error) {
	return codec.Marshal((*redeemMsgWire)(m))
}

func (m *RedeemMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*redeemMsgWire)(m))
}

func (m *RefundMsg) Marshal() ([]byte, error) {
	return codec.Marshal((*refundMsgWire)(m))
}

func (m *RefundMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*refundMsgWire)(m))
}

func (m *Configuration) Marshal() ([]byte, error) {
	return codec.Marshal((*configurationWire)(m))
}

func (m *Configuration) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, (*configurationWire)(m))
}
