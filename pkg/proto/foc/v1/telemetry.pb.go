// Package v1 contains the protobuf messages of the FOC telemetry,
// matching telemetry.proto.
package v1

import (
	"github.com/golang/protobuf/proto"
)

// Telemetry is one decoded response of the FOC device.
type Telemetry struct {
	MotorId              uint32   `protobuf:"varint,1,opt,name=motor_id,json=motorId,proto3" json:"motor_id,omitempty"`
	CmdId                uint32   `protobuf:"varint,2,opt,name=cmd_id,json=cmdId,proto3" json:"cmd_id,omitempty"`
	CmdKey               string   `protobuf:"bytes,3,opt,name=cmd_key,json=cmdKey,proto3" json:"cmd_key,omitempty"`
	First                float32  `protobuf:"fixed32,4,opt,name=first,proto3" json:"first,omitempty"`
	Second               float32  `protobuf:"fixed32,5,opt,name=second,proto3" json:"second,omitempty"`
	Third                float32  `protobuf:"fixed32,6,opt,name=third,proto3" json:"third,omitempty"`
	UptimeMs             uint64   `protobuf:"varint,7,opt,name=uptime_ms,json=uptimeMs,proto3" json:"uptime_ms,omitempty"`
	Controller           string   `protobuf:"bytes,8,opt,name=controller,proto3" json:"controller,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Telemetry) Reset()         { *m = Telemetry{} }
func (m *Telemetry) String() string { return proto.CompactTextString(m) }
func (*Telemetry) ProtoMessage()    {}

func init() {
	proto.RegisterType((*Telemetry)(nil), "foc.v1.Telemetry")
}
