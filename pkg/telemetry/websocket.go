package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/foc.go/pkg/foc"
)

// WebSocketHub streams records to websocket clients and accepts key
// commands from them as JSON text messages.
type WebSocketHub struct {
	Encoding Encoding
	// OnCommand is called for every well-formed key command.
	OnCommand func(foc.KeyCommand)

	clients map[*websocket.Conn]chan []byte
	lock    sync.Mutex
}

// clientQueueSize is the number of payloads buffered per client before
// records are dropped for that client.
const clientQueueSize = 16

// NewWebSocketHub creates a hub.
func NewWebSocketHub(enc Encoding) *WebSocketHub {
	return &WebSocketHub{
		Encoding: enc,
		clients:  make(map[*websocket.Conn]chan []byte),
	}
}

// Handler returns the http.Handler accepting websocket clients.
func (h *WebSocketHub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Clients returns the number of connected clients.
func (h *WebSocketHub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Send implements Sink. Slow clients lose records rather than blocking
// the caller.
func (h *WebSocketHub) Send(r Record) error {
	payload, err := h.Encoding.Encode(r)
	if err != nil {
		return err
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			glog.V(2).Infof("websocket %s: record dropped", conn.Request().RemoteAddr)
		}
	}
	return nil
}

func (h *WebSocketHub) serve(conn *websocket.Conn) {
	if h.Encoding.Binary() {
		conn.PayloadType = websocket.BinaryFrame
	}
	ch := make(chan []byte, clientQueueSize)
	h.lock.Lock()
	h.clients[conn] = ch
	h.lock.Unlock()
	remote := conn.Request().RemoteAddr
	glog.Infof("websocket %s connected", remote)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.receive(conn)
	}()

	for {
		select {
		case payload := <-ch:
			if err := h.send(conn, payload); err != nil {
				glog.V(1).Infof("websocket %s: %v", remote, err)
				h.drop(conn)
				<-done
				return
			}
		case <-done:
			h.drop(conn)
			glog.Infof("websocket %s disconnected", remote)
			return
		}
	}
}

func (h *WebSocketHub) send(conn *websocket.Conn, payload []byte) error {
	if h.Encoding.Binary() {
		return websocket.Message.Send(conn, payload)
	}
	return websocket.Message.Send(conn, string(payload))
}

func (h *WebSocketHub) receive(conn *websocket.Conn) {
	for {
		var msg string
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			return
		}
		var kc foc.KeyCommand
		if err := json.Unmarshal([]byte(msg), &kc); err != nil || kc.Key == "" {
			glog.Warningf("websocket: bad command %q", msg)
			continue
		}
		if h.OnCommand != nil {
			h.OnCommand(kc)
		}
	}
}

func (h *WebSocketHub) drop(conn *websocket.Conn) {
	h.lock.Lock()
	delete(h.clients, conn)
	h.lock.Unlock()
	conn.Close()
}
