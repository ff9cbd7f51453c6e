package sh

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/ctl"
	"github.com/robotalks/foc.go/pkg/foc"
	"github.com/robotalks/foc.go/pkg/telemetry"
)

// DefaultReplyTimeout bounds the wait for a remote reply.
const DefaultReplyTimeout = time.Second

// ErrLocalOnly is returned by remote targets for operations which need
// direct bus access.
var ErrLocalOnly = fmt.Errorf("only available on a local device")

// Target is where the shell sends commands.
type Target interface {
	Name() string
	// Apply applies a key command, see ctl.Controller.Apply.
	Apply(foc.KeyCommand) (foc.Response, error)
	Close() error
}

// Local drives a device on a local bus. The shell goroutine owns the
// driver.
type Local struct {
	Controller *ctl.Controller
	closer     io.Closer
}

// NewLocal creates a Local target on bus.
func NewLocal(bus foc.Bus, closer io.Closer, addr uint8, store *conf.Store) *Local {
	c := ctl.NewController("local", foc.NewDriver(bus, addr), store)
	return &Local{Controller: c, closer: closer}
}

// Name implements Target.
func (t *Local) Name() string {
	return fmt.Sprintf("0x%02x", t.Controller.Driver.Addr())
}

// Apply implements Target.
func (t *Local) Apply(kc foc.KeyCommand) (foc.Response, error) {
	return t.Controller.Apply(kc, ctl.SourceLocal)
}

// Close implements Target.
func (t *Local) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// Remote sends key commands to a focd over MQTT and waits for the
// reply. Requests are serialized.
type Remote struct {
	Topics    mqtt.Topics
	Publisher telemetry.Publisher
	Timeout   time.Duration

	queue    *mqtt.Queue
	sub      *mqtt.Subscription
	replies  chan ctl.Reply
	sendLock sync.Mutex
}

// NewRemote creates a Remote target publishing through pub. Replies
// are fed into HandleReply.
func NewRemote(topics mqtt.Topics, pub telemetry.Publisher) *Remote {
	return &Remote{
		Topics:    topics,
		Publisher: pub,
		Timeout:   DefaultReplyTimeout,
		replies:   make(chan ctl.Reply, 1),
	}
}

// ConnectRemote connects a Remote target using queue.
func ConnectRemote(q *mqtt.Queue, topics mqtt.Topics) *Remote {
	t := NewRemote(topics, q)
	t.queue = q
	t.sub = q.Sub(topics.Reply(), t.HandleReply)
	return t
}

// DialRemote connects q and returns a Remote target on it. On failure
// the queue and the subscription are released.
func DialRemote(q *mqtt.Queue, topics mqtt.Topics) (*Remote, error) {
	t := ConnectRemote(q, topics)
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		t.Close()
		return nil, fmt.Errorf("connect %s: %w", topics.Base(), token.Error())
	}
	return t, nil
}

// Name implements Target.
func (t *Remote) Name() string {
	return t.Topics.Base()
}

// HandleReply is the mqtt.Handler for the reply topic.
func (t *Remote) HandleReply(topic string, payload []byte) {
	var r ctl.Reply
	if err := json.Unmarshal(payload, &r); err != nil {
		return
	}
	select {
	case t.replies <- r:
	default:
	}
}

// Apply implements Target.
func (t *Remote) Apply(kc foc.KeyCommand) (foc.Response, error) {
	t.sendLock.Lock()
	defer t.sendLock.Unlock()
	payload, err := json.Marshal(&kc)
	if err != nil {
		return foc.Response{}, err
	}
	// drop a late reply of a previous command.
	select {
	case <-t.replies:
	default:
	}
	if err := t.Publisher.Publish(t.Topics.Cmd(), payload); err != nil {
		return foc.Response{}, err
	}
	timer := time.NewTimer(t.Timeout)
	defer timer.Stop()
	for {
		select {
		case r := <-t.replies:
			if r.Key != kc.Key {
				continue
			}
			if r.Error != "" {
				return foc.Response{}, fmt.Errorf("%s: %s", t.Name(), r.Error)
			}
			if r.Response == nil {
				return foc.Response{}, nil
			}
			return *r.Response, nil
		case <-timer.C:
			return foc.Response{}, fmt.Errorf("%s: command %s timeout", t.Name(), kc.Key)
		}
	}
}

// Close implements Target.
func (t *Remote) Close() error {
	if t.sub != nil {
		t.sub.Close()
	}
	if t.queue != nil {
		return t.queue.Close()
	}
	return nil
}

func mqttTopics(typ, id string) mqtt.Topics {
	return mqtt.Topics{Type: typ, ID: id}
}
