package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/foc.go/pkg/foc"
	pb "github.com/robotalks/foc.go/pkg/proto/foc/v1"
)

// Encoding converts records to and from payloads.
type Encoding interface {
	Name() string
	// Binary tells whether payloads are binary rather than text.
	Binary() bool
	Encode(Record) ([]byte, error)
	Decode([]byte) (Record, error)
}

// Encodings.
var (
	JSON  Encoding = jsonEncoding{}
	Proto Encoding = protoEncoding{}
)

// EncodingByName looks up an encoding.
func EncodingByName(name string) (Encoding, error) {
	switch name {
	case "", JSON.Name():
		return JSON, nil
	case Proto.Name():
		return Proto, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

type jsonEncoding struct{}

func (jsonEncoding) Name() string { return "json" }
func (jsonEncoding) Binary() bool { return false }

func (jsonEncoding) Encode(r Record) ([]byte, error) {
	return json.Marshal(&r)
}

func (jsonEncoding) Decode(data []byte) (r Record, err error) {
	err = json.Unmarshal(data, &r)
	return
}

type protoEncoding struct{}

func (protoEncoding) Name() string { return "proto" }
func (protoEncoding) Binary() bool { return true }

func (protoEncoding) Encode(r Record) ([]byte, error) {
	return proto.Marshal(&pb.Telemetry{
		MotorId:    uint32(r.MotorID),
		CmdId:      uint32(r.CmdID),
		CmdKey:     r.CmdKey,
		First:      r.First,
		Second:     r.Second,
		Third:      r.Third,
		UptimeMs:   uint64(r.Uptime / time.Millisecond),
		Controller: r.Controller,
	})
}

func (protoEncoding) Decode(data []byte) (Record, error) {
	var m pb.Telemetry
	if err := proto.Unmarshal(data, &m); err != nil {
		return Record{}, err
	}
	return Record{
		Controller: m.Controller,
		MotorID:    uint8(m.MotorId),
		CmdID:      foc.CommandID(m.CmdId),
		CmdKey:     m.CmdKey,
		First:      m.First,
		Second:     m.Second,
		Third:      m.Third,
		Uptime:     time.Duration(m.UptimeMs) * time.Millisecond,
	}, nil
}
