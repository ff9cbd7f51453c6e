package ctl

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/foc"
	"github.com/robotalks/foc.go/pkg/foc/sim"
	fx "github.com/robotalks/foc.go/pkg/framework"
	"github.com/robotalks/foc.go/pkg/telemetry"
)

type recordSink struct {
	records []telemetry.Record
}

func (s *recordSink) Send(r telemetry.Record) error {
	s.records = append(s.records, r)
	return nil
}

func (s *recordSink) keys() []string {
	var keys []string
	for _, r := range s.records {
		keys = append(keys, r.CmdKey)
	}
	return keys
}

type controllerTestEnv struct {
	dev     *sim.Device
	store   *conf.Store
	ctl     *Controller
	console *recordSink
	mqtt    *recordSink
	all     *recordSink
	slept   []time.Duration
	loop    *fx.Loop
}

func newControllerTestEnv() *controllerTestEnv {
	env := &controllerTestEnv{
		dev:     sim.NewDevice(0x40),
		store:   conf.NewStore(),
		console: &recordSink{},
		mqtt:    &recordSink{},
		all:     &recordSink{},
	}
	env.ctl = NewController("m1", foc.NewDriver(env.dev, 0x40), env.store)
	env.ctl.Console, env.ctl.MQTT = env.console, env.mqtt
	env.ctl.Sinks = []telemetry.Sink{env.all}
	env.ctl.sleep = func(d time.Duration) { env.slept = append(env.slept, d) }
	env.loop = fx.NewLoop().Add(env.ctl)
	return env
}

func (e *controllerTestEnv) apply(t *testing.T, kc foc.KeyCommand, source string) (resp foc.Response, err error) {
	var done bool
	e.loop.PostMessage(&CommandMsg{Command: kc, Source: source, Done: func(r foc.Response, e error) {
		resp, err, done = r, e, true
	}})
	e.loop.RunTriggered(context.Background())
	require.True(t, done)
	return
}

func TestPollDefaults(t *testing.T) {
	env := newControllerTestEnv()
	require.NoError(t, env.ctl.Poll(time.Now()))
	assert.Equal(t, []string{foc.KeyStreamStates}, env.console.keys())
	assert.Empty(t, env.mqtt.records)
	assert.Equal(t, []string{foc.KeyStreamStates}, env.all.keys())
	assert.Equal(t, foc.StreamStates, env.all.records[0].CmdID)
	assert.Equal(t, "m1", env.all.records[0].Controller)
	assert.Empty(t, env.slept)
}

func TestPollStreamsAndSinks(t *testing.T) {
	env := newControllerTestEnv()
	for _, kc := range []foc.KeyCommand{
		{Key: "is_stream_q", Value: 1},
		{Key: "is_stream_current", Value: 1},
		{Key: "is_stream_debug", Value: 1},
		{Key: "is_send_mqtt", Value: 1},
		{Key: "is_print_serial", Value: 0},
		{Key: "i2c_sleep_us", Value: 300},
	} {
		_, err := env.apply(t, kc, SourceLocal)
		require.NoError(t, err)
	}
	require.NoError(t, env.ctl.Poll(time.Now()))
	streams := []string{foc.KeyStreamStates, foc.KeyStreamQ, foc.KeyStreamCurrent, foc.KeyStreamTime}
	assert.Empty(t, env.console.records)
	assert.Equal(t, streams, env.mqtt.keys())
	assert.Equal(t, streams, env.all.keys())
	assert.Equal(t, []time.Duration{300 * time.Microsecond, 300 * time.Microsecond, 300 * time.Microsecond}, env.slept)
}

func TestPollErrorsContinue(t *testing.T) {
	env := newControllerTestEnv()
	env.store.Update(foc.KeyCommand{Key: "is_stream_q", Value: 1})
	env.dev.FailNext = 1
	err := env.ctl.Poll(time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, foc.ErrWriteRead))
	assert.Equal(t, []string{foc.KeyStreamQ}, env.all.keys())
}

func TestApply(t *testing.T) {
	env := newControllerTestEnv()

	resp, err := env.apply(t, foc.KeyCommand{Key: "target", Value: 5}, SourceMQTT)
	require.NoError(t, err)
	assert.Equal(t, foc.Response{Addr: 0x40}, resp)
	assert.Equal(t, float32(5), env.dev.Register(foc.Target))

	resp, err = env.apply(t, foc.KeyCommand{Key: "conf_base"}, SourceMQTT)
	require.NoError(t, err)
	assert.Equal(t, foc.ConfBase, resp.ID)
	assert.Equal(t, float32(5), resp.Second)

	resp, err = env.apply(t, foc.KeyCommand{Key: "loop_sleep_ms", Value: 100}, SourceMQTT)
	require.NoError(t, err)
	assert.Equal(t, float32(100), resp.First)
	assert.Equal(t, 100*time.Millisecond, env.store.LoopInterval())

	_, err = env.apply(t, foc.KeyCommand{Key: "warp", Value: 9}, SourceMQTT)
	var unknown *foc.UnknownCommandError
	require.True(t, errors.As(err, &unknown))
}

func TestApplyRemoteDisabled(t *testing.T) {
	env := newControllerTestEnv()
	_, err := env.apply(t, foc.KeyCommand{Key: "enable", Value: 0}, SourceMQTT)
	require.NoError(t, err)
	assert.False(t, env.store.Snapshot().MQTTConf)

	_, err = env.apply(t, foc.KeyCommand{Key: "target", Value: 3}, SourceMQTT)
	assert.Equal(t, ErrRemoteDisabled, err)
	assert.Equal(t, float32(0), env.dev.Register(foc.Target))

	_, err = env.apply(t, foc.KeyCommand{Key: "target", Value: 3}, SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, float32(3), env.dev.Register(foc.Target))

	_, err = env.apply(t, foc.KeyCommand{Key: "enable", Value: 1}, SourceMQTT)
	assert.Equal(t, ErrRemoteDisabled, err)
	assert.True(t, env.store.Snapshot().MQTTConf)
}

func TestControlPollsOnTick(t *testing.T) {
	env := newControllerTestEnv()
	env.loop.RunOnce(context.Background())
	assert.Len(t, env.all.records, 1)

	env.store.Update(foc.KeyCommand{Key: "loop_sleep_ms", Value: 20})
	recs := make(chan telemetry.Record, 8)
	env.ctl.Sinks = []telemetry.Sink{telemetry.SinkFunc(func(r telemetry.Record) error {
		select {
		case recs <- r:
		default:
		}
		return nil
	})}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go env.loop.Run(ctx)
	select {
	case r := <-recs:
		assert.Equal(t, foc.KeyStreamStates, r.CmdKey)
	case <-ctx.Done():
		t.Fatal("timeout")
	}
}

type fakePublisher struct {
	topics   []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestMQTTLinkCommands(t *testing.T) {
	env := newControllerTestEnv()
	link, err := NewMQTTLink("mqtt://localhost:1883/robo/", mqtt.Topics{Type: conf.ControllerType, ID: "m1"}, Meta{Description: "test"})
	require.NoError(t, err)
	pub := &fakePublisher{}
	link.Publisher = pub

	handler := link.CommandHandler(env.loop)
	link.Queue.Sub(link.Topics.Cmd(), handler)
	link.Queue.Deliver("foc/m1/cmd", []byte(`{"key":"velocity_limit","val":12}`))
	link.Queue.Deliver("foc/m1/cmd", []byte(`{"key":"bogus","val":1}`))
	link.Queue.Deliver("foc/m1/cmd", []byte(`not json`))
	env.loop.RunTriggered(context.Background())

	assert.Equal(t, float32(12), env.dev.Register(foc.VelocityLimit))
	require.Equal(t, []string{"foc/m1/reply", "foc/m1/reply"}, pub.topics)

	var reply Reply
	require.NoError(t, json.Unmarshal(pub.payloads[0], &reply))
	assert.Equal(t, "velocity_limit", reply.Key)
	require.NotNil(t, reply.Response)
	assert.Empty(t, reply.Error)

	reply = Reply{}
	require.NoError(t, json.Unmarshal(pub.payloads[1], &reply))
	assert.Nil(t, reply.Response)
	assert.Contains(t, reply.Error, "bogus")
}

func TestMQTTLinkConnectFailure(t *testing.T) {
	link, err := NewMQTTLink("mqtt://127.0.0.1:1/robo/", mqtt.Topics{Type: "foc", ID: "m3"}, Meta{})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = fx.NewLoop().WithInterval(time.Hour).Add(link).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt connect")
	assert.NoError(t, ctx.Err())
	assert.False(t, link.Queue.Subscribed(link.Topics.Cmd()))
}

func TestMQTTLinkSink(t *testing.T) {
	link, err := NewMQTTLink("mqtt://localhost:1883/", mqtt.Topics{Type: "foc", ID: "m2"}, Meta{})
	require.NoError(t, err)
	pub := &fakePublisher{}
	link.Publisher = pub
	rec := telemetry.NewRecord("m2", foc.KeyStreamQ, foc.Response{ID: foc.StreamQ, First: 1}, time.Second)
	require.NoError(t, link.Sink(telemetry.Proto).Send(rec))
	require.Equal(t, []string{"foc/m2/telemetry/stream_q"}, pub.topics)
	decoded, err := telemetry.Proto.Decode(pub.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}
