package telemetry

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/foc"
)

var sample = NewRecord("m1", foc.KeyStreamStates,
	foc.Response{Addr: 0x40, ID: foc.StreamStates, First: 1.5, Second: -2, Third: 1e-3},
	90061*time.Second+250*time.Millisecond)

func TestFormatUptime(t *testing.T) {
	testCases := []struct {
		d      time.Duration
		expect string
	}{
		{0, "0s"},
		{999 * time.Millisecond, "0s"},
		{59 * time.Second, "59s"},
		{60 * time.Second, "1m0s"},
		{3600 * time.Second, "1h0s"},
		{3661 * time.Second, "1h1m1s"},
		{86400 * time.Second, "1d0s"},
		{90061 * time.Second, "1d1h1m1s"},
		{-time.Second, "0s"},
	}
	for _, tc := range testCases {
		assert.Equalf(t, tc.expect, FormatUptime(tc.d), "%v", tc.d)
	}
}

func TestRecordString(t *testing.T) {
	assert.Equal(t, "[1d1h1m1s] m64 stream_states: 1.5 -2 0.001", sample.String())
	r := sample
	r.CmdKey = ""
	assert.Contains(t, r.String(), " #150: ")
	assert.Equal(t, foc.Response{Addr: 0x40, ID: 150, First: 1.5, Second: -2, Third: 1e-3}, sample.Response())
}

func TestEncodings(t *testing.T) {
	for _, name := range []string{"json", "proto"} {
		t.Run(name, func(t *testing.T) {
			enc, err := EncodingByName(name)
			require.NoError(t, err)
			data, err := enc.Encode(sample)
			require.NoError(t, err)
			decoded, err := enc.Decode(data)
			require.NoError(t, err)
			expected := sample
			if enc.Binary() {
				// millisecond resolution on the wire.
				expected.Uptime = expected.Uptime.Truncate(time.Millisecond)
			}
			assert.Equal(t, expected, decoded)
		})
	}
	_, err := EncodingByName("xml")
	require.Error(t, err)
}

func TestJSONFields(t *testing.T) {
	data, err := JSON.Encode(sample)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, float64(64), m["motor_id"])
	assert.Equal(t, float64(150), m["cmd_id"])
	assert.Equal(t, "stream_states", m["cmd_key"])
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf).Send(sample))
	assert.Equal(t, sample.String()+"\n", buf.String())
}

type publishedMsg struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	msgs []publishedMsg
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.msgs = append(p.msgs, publishedMsg{topic, payload})
	return nil
}

func TestMQTTSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := &MQTT{Publisher: pub, Topics: mqtt.Topics{Type: "foc", ID: "m1"}, Encoding: JSON}
	require.NoError(t, sink.Send(sample))
	r := sample
	r.CmdKey = ""
	require.NoError(t, sink.Send(r))
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "foc/m1/telemetry/stream_states", pub.msgs[0].topic)
	assert.Equal(t, "foc/m1/telemetry/150", pub.msgs[1].topic)
	decoded, err := JSON.Decode(pub.msgs[0].payload)
	require.NoError(t, err)
	assert.Equal(t, sample, decoded)
}

func TestWebSocketHub(t *testing.T) {
	hub := NewWebSocketHub(JSON)
	cmdCh := make(chan foc.KeyCommand, 1)
	hub.OnCommand = func(kc foc.KeyCommand) { cmdCh <- kc }
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Send(sample))

	var msg string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	decoded, err := JSON.Decode([]byte(msg))
	require.NoError(t, err)
	assert.Equal(t, sample, decoded)

	require.NoError(t, websocket.Message.Send(conn, `{"key":"target","val":2.5}`))
	select {
	case kc := <-cmdCh:
		assert.Equal(t, foc.KeyCommand{Key: "target", Value: 2.5}, kc)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}
