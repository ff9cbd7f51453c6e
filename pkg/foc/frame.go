package foc

import (
	"encoding/binary"
	"math"
)

// Frame sizes agreed with the firmware.
const (
	// CommandFrameSize is the size of a write: id + float32.
	CommandFrameSize = 5
	// ResponseFrameSize is the meaningful size of a response: id + 3 float32.
	ResponseFrameSize = 13
	// ExchangeFrameSize is the read size of an exchange.
	ExchangeFrameSize = ResponseFrameSize
	// ReadBufferSize is the read size of a passive read, the firmware
	// may pad the response.
	ReadBufferSize = 20
)

// Command is a resolved command to be dispatched.
type Command struct {
	ID    CommandID `json:"id"`
	Value float32   `json:"val"`
}

// KeyCommand is a command addressed by name.
type KeyCommand struct {
	Key   string  `json:"key"`
	Value float32 `json:"val"`
}

// Response is a decoded response frame. Fields not reported by the
// firmware are zero.
type Response struct {
	Addr   uint8     `json:"motor_id"`
	ID     CommandID `json:"cmd_id"`
	First  float32   `json:"first"`
	Second float32   `json:"second"`
	Third  float32   `json:"third"`
}

// Fields returns the three float fields.
func (r Response) Fields() [3]float32 {
	return [3]float32{r.First, r.Second, r.Third}
}

// EncodeCommand encodes cmd as [id, float32 little-endian].
func EncodeCommand(cmd Command) []byte {
	return AppendCommand(make([]byte, 0, CommandFrameSize), cmd)
}

// AppendCommand appends the encoded cmd to dst.
func AppendCommand(dst []byte, cmd Command) []byte {
	var b [CommandFrameSize]byte
	b[0] = byte(cmd.ID)
	binary.LittleEndian.PutUint32(b[1:], math.Float32bits(cmd.Value))
	return append(dst, b[:]...)
}

// DecodeCommand decodes a write frame. It is the firmware side of
// EncodeCommand.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) < CommandFrameSize {
		return Command{}, ErrShortFrame
	}
	return Command{
		ID:    CommandID(buf[0]),
		Value: math.Float32frombits(binary.LittleEndian.Uint32(buf[1:5])),
	}, nil
}

// DecodeResponse decodes the first ResponseFrameSize bytes of buf.
// Bytes beyond are padding and ignored.
func DecodeResponse(addr uint8, buf []byte) (Response, error) {
	if len(buf) < ResponseFrameSize {
		return Response{}, ErrShortFrame
	}
	return Response{
		Addr:   addr,
		ID:     CommandID(buf[0]),
		First:  decodeFloat(buf[1:5]),
		Second: decodeFloat(buf[5:9]),
		Third:  decodeFloat(buf[9:13]),
	}, nil
}

// EncodeResponse encodes r into a ResponseFrameSize frame. Addr is not
// part of the frame.
func EncodeResponse(r Response) []byte {
	b := make([]byte, ResponseFrameSize)
	b[0] = byte(r.ID)
	for n, f := range r.Fields() {
		binary.LittleEndian.PutUint32(b[1+n*4:], math.Float32bits(f))
	}
	return b
}

func decodeFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
