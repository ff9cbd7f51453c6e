package i2cbus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/foc"
)

func TestDriverOverPeriph(t *testing.T) {
	stateFrame := foc.EncodeResponse(foc.Response{ID: foc.StreamStates, First: 1, Second: 2, Third: 3})
	passive := append(foc.EncodeResponse(foc.Response{ID: 7, First: 0.5}), make([]byte, 7)...)
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x40, W: []byte{2, 0x00, 0x00, 0x48, 0x41}},
			{Addr: 0x40, W: []byte{150}, R: stateFrame},
			{Addr: 0x40, R: passive},
		},
	}
	d := foc.NewDriver(New(pb), 0x40)

	require.NoError(t, d.WriteCommand(foc.Command{ID: foc.Target, Value: 12.5}))

	resp, err := d.ReadStreamStates()
	require.NoError(t, err)
	require.Equal(t, foc.Response{Addr: 0x40, ID: foc.StreamStates, First: 1, Second: 2, Third: 3}, resp)

	resp, err = d.ReadPassive()
	require.NoError(t, err)
	require.Equal(t, foc.CommandID(7), resp.ID)
	require.Equal(t, float32(0.5), resp.First)

	require.NoError(t, pb.Close())
}

func TestTransportFailure(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	d := foc.NewDriver(New(pb), 0x40)
	err := d.WriteCommand(foc.Command{ID: foc.Enable, Value: 1})
	require.True(t, errors.Is(err, foc.ErrWrite))
	_, err = d.Exchange(foc.StreamQ)
	require.True(t, errors.Is(err, foc.ErrWriteRead))
}

func TestSettle(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x40, W: []byte{1, 0, 0, 0x80, 0x3f}},
			{Addr: 0x40, W: []byte{1, 0, 0, 0, 0}},
		},
	}
	store := conf.NewStore()
	require.True(t, store.Update(foc.KeyCommand{Key: "i2c_sleep_us", Value: 900}))
	b := New(pb)
	b.Settle = store.BusSleep
	d := foc.NewDriver(b, 0x40)
	start := time.Now()
	require.NoError(t, d.WriteCommand(foc.Command{ID: foc.Enable, Value: 1}))
	require.NoError(t, d.WriteCommand(foc.Command{ID: foc.Enable, Value: 0}))
	require.True(t, time.Since(start) >= 900*time.Microsecond)
	require.NoError(t, pb.Close())
}
