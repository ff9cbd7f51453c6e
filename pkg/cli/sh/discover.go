package sh

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/ctl"
)

// DefaultDiscoveryTimeout is how long retained announcements are
// collected.
const DefaultDiscoveryTimeout = 500 * time.Millisecond

// ControllerInfo describes an announced controller.
type ControllerInfo struct {
	Topics mqtt.Topics `json:"ref"`
	Meta   ctl.Meta    `json:"meta"`
}

// Discoverer collects announcements from <type>/<id>/meta topics.
type Discoverer struct {
	lock  sync.Mutex
	infos map[string]ControllerInfo
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer() *Discoverer {
	return &Discoverer{infos: make(map[string]ControllerInfo)}
}

// HandleMeta is the mqtt.Handler for "+/+/meta". An empty payload
// removes the controller.
func (d *Discoverer) HandleMeta(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] != "meta" {
		return
	}
	info := ControllerInfo{Topics: mqtt.Topics{Type: parts[0], ID: parts[1]}}
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(payload) == 0 {
		delete(d.infos, info.Topics.Base())
		return
	}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		return
	}
	d.infos[info.Topics.Base()] = info
}

// Controllers lists the discovered controllers sorted by name.
func (d *Discoverer) Controllers() []ControllerInfo {
	d.lock.Lock()
	defer d.lock.Unlock()
	list := make([]ControllerInfo, 0, len(d.infos))
	for _, info := range d.infos {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Topics.Base() < list[j].Topics.Base()
	})
	return list
}

// Discover connects q and collects announcements until ctx is done.
func Discover(ctx context.Context, q *mqtt.Queue) ([]ControllerInfo, error) {
	d := NewDiscoverer()
	sub := q.Sub("+/+/meta", d.HandleMeta)
	defer sub.Close()
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	<-ctx.Done()
	return d.Controllers(), nil
}
