package foc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeCommand(t *testing.T) {
	testCases := []struct {
		name   string
		cmd    Command
		expect []byte
	}{
		{"voltage limit", Command{ID: 4, Value: 12.5}, []byte{4, 0x00, 0x00, 0x48, 0x41}},
		{"zero", Command{ID: 1, Value: 0}, []byte{1, 0, 0, 0, 0}},
		{"one", Command{ID: 2, Value: 1}, []byte{2, 0x00, 0x00, 0x80, 0x3f}},
		{"negative", Command{ID: 2, Value: -2}, []byte{2, 0x00, 0x00, 0x00, 0xc0}},
		{"negative zero", Command{ID: 3, Value: float32(math.Copysign(0, -1))}, []byte{3, 0, 0, 0, 0x80}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, EncodeCommand(tc.cmd))
			require.Equal(t, append([]byte{0xaa}, tc.expect...), AppendCommand([]byte{0xaa}, tc.cmd))
		})
	}
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float32{
		0, float32(math.Copysign(0, -1)), 1, -1, 12.5, -273.15,
		math.MaxFloat32, -math.MaxFloat32, math.SmallestNonzeroFloat32,
		-math.SmallestNonzeroFloat32, math.Float32frombits(0x007fffff),
		float32(math.Inf(1)), float32(math.Inf(-1)),
	}
	for _, v := range values {
		cmd, err := DecodeCommand(EncodeCommand(Command{ID: 7, Value: v}))
		require.NoError(t, err)
		require.Equal(t, CommandID(7), cmd.ID)
		require.Equalf(t, math.Float32bits(v), math.Float32bits(cmd.Value), "value %v", v)

		resp, err := DecodeResponse(0x10, EncodeResponse(Response{ID: 150, First: v, Second: -v, Third: v / 2}))
		require.NoError(t, err)
		require.Equal(t, math.Float32bits(v), math.Float32bits(resp.First))
		require.Equal(t, math.Float32bits(-v), math.Float32bits(resp.Second))
		require.Equal(t, math.Float32bits(v/2), math.Float32bits(resp.Third))
	}
}

func TestDecodeResponse(t *testing.T) {
	buf := []byte{
		150,
		0x00, 0x00, 0x80, 0x3f,
		0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x40, 0x40,
		0xde, 0xad, 0xbe, 0xef, 0, 0, 0,
	}
	resp, err := DecodeResponse(0x20, buf)
	require.NoError(t, err)
	require.Equal(t, Response{Addr: 0x20, ID: 150, First: 1, Second: 2, Third: 3}, resp)

	resp, err = DecodeResponse(0x20, buf[:ResponseFrameSize])
	require.NoError(t, err)
	require.Equal(t, float32(3), resp.Third)

	_, err = DecodeResponse(0x20, buf[:ResponseFrameSize-1])
	require.Equal(t, ErrShortFrame, err)
	_, err = DecodeCommand([]byte{1, 2})
	require.Equal(t, ErrShortFrame, err)
}
