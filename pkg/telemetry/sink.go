package telemetry

import (
	"fmt"
	"io"
	"sync"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
)

// Sink receives records.
type Sink interface {
	Send(Record) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(Record) error

// Send implements Sink.
func (f SinkFunc) Send(r Record) error {
	return f(r)
}

// Console prints records line by line.
type Console struct {
	Writer io.Writer

	lock sync.Mutex
}

// NewConsole creates a Console.
func NewConsole(w io.Writer) *Console {
	return &Console{Writer: w}
}

// Send implements Sink.
func (c *Console) Send(r Record) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, err := fmt.Fprintln(c.Writer, r.String())
	return err
}

// Publisher publishes payloads to a topic, e.g. mqtt.Queue.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTT publishes each record on the telemetry topic of its key.
type MQTT struct {
	Publisher Publisher
	Topics    mqtt.Topics
	Encoding  Encoding
}

// Send implements Sink.
func (m *MQTT) Send(r Record) error {
	payload, err := m.Encoding.Encode(r)
	if err != nil {
		return err
	}
	name := r.CmdKey
	if name == "" {
		name = fmt.Sprintf("%d", r.CmdID)
	}
	return m.Publisher.Publish(m.Topics.Telemetry(name), payload)
}
