package ctl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/foc"
	fx "github.com/robotalks/foc.go/pkg/framework"
	"github.com/robotalks/foc.go/pkg/telemetry"
)

// Meta is announced retained on the meta topic while connected.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Reply is published on the reply topic for every MQTT command.
type Reply struct {
	Key      string        `json:"key"`
	Value    float32       `json:"val"`
	Response *foc.Response `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// MQTTLink connects the controller to an MQTT broker: it announces the
// controller, receives key commands and publishes replies.
type MQTTLink struct {
	Queue     *mqtt.Queue
	Topics    mqtt.Topics
	Publisher telemetry.Publisher

	metaJSON []byte
}

// NewMQTTLink creates an MQTTLink from the broker URL.
func NewMQTTLink(brokerURL string, topics mqtt.Topics, meta Meta) (*MQTTLink, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+topics.Meta(), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("foc:" + topics.Base())
	}
	l := &MQTTLink{
		Queue:    mqtt.NewQueue(opts, topicPrefix),
		Topics:   topics,
		metaJSON: metaJSON,
	}
	l.Publisher = l.Queue
	l.Queue.OnConnect = func(q *mqtt.Queue) {
		q.PubWith(topics.Meta(), l.metaJSON, 1, true)
	}
	return l, nil
}

// Sink returns a telemetry sink publishing through this link.
func (l *MQTTLink) Sink(enc telemetry.Encoding) *telemetry.MQTT {
	return &telemetry.MQTT{Publisher: l.Publisher, Topics: l.Topics, Encoding: enc}
}

// AddToLoop implements LoopAdder.
func (l *MQTTLink) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(l)
}

// Name implements Named.
func (l *MQTTLink) Name() string {
	return "mqtt"
}

// Run implements Runnable.
func (l *MQTTLink) Run(ctx context.Context) error {
	sub := l.Queue.Sub(l.Topics.Cmd(), l.CommandHandler(fx.LoopCtlFrom(ctx)))
	defer sub.Close()
	if token := l.Queue.Connect(); token.Wait() && token.Error() != nil {
		glog.Errorf("mqtt connect: %v", token.Error())
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	<-ctx.Done()
	l.Queue.PubWith(l.Topics.Meta(), nil, 1, true).Wait()
	l.Queue.Close()
	return ctx.Err()
}

// CommandHandler decodes key commands and posts them to the loop.
func (l *MQTTLink) CommandHandler(loopCtl fx.LoopControl) mqtt.Handler {
	return func(topic string, payload []byte) {
		var kc foc.KeyCommand
		if err := json.Unmarshal(payload, &kc); err != nil || kc.Key == "" {
			glog.Warningf("%s: bad command %q", topic, payload)
			return
		}
		PostCommand(loopCtl, &CommandMsg{
			Command: kc,
			Source:  SourceMQTT,
			Done:    func(resp foc.Response, err error) { l.reply(kc, resp, err) },
		})
	}
}

func (l *MQTTLink) reply(kc foc.KeyCommand, resp foc.Response, err error) {
	r := Reply{Key: kc.Key, Value: kc.Value}
	if err != nil {
		r.Error = err.Error()
	} else {
		r.Response = &resp
	}
	payload, err := json.Marshal(&r)
	if err != nil {
		glog.Errorf("encode reply: %v", err)
		return
	}
	if err := l.Publisher.Publish(l.Topics.Reply(), payload); err != nil {
		glog.Warningf("publish reply: %v", err)
	}
}
