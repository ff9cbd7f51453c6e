package ctl

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/foc"
	fx "github.com/robotalks/foc.go/pkg/framework"
	"github.com/robotalks/foc.go/pkg/telemetry"
)

// Env wires a Controller with its bus, MQTT link and HTTP endpoint
// from a Config.
type Env struct {
	Config     *conf.Config
	Store      *conf.Store
	Controller *Controller
	Link       *MQTTLink
	HTTP       *HTTPServer

	busCloser io.Closer
}

// NewEnv creates Env from config.
func NewEnv(cfg *conf.Config, meta Meta) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := telemetry.EncodingByName(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	store := conf.NewStoreWith(cfg.Runtime)
	bus, closer, err := OpenBus(cfg, store)
	if err != nil {
		return nil, err
	}
	env := &Env{
		Config:    cfg,
		Store:     store,
		busCloser: closer,
	}
	env.Controller = NewController(cfg.ID, foc.NewDriver(bus, cfg.Addr), env.Store)
	env.Controller.Console = telemetry.NewConsole(os.Stdout)
	if cfg.MQTTURL != "" {
		topics := mqtt.Topics{Type: conf.ControllerType, ID: cfg.ID}
		if env.Link, err = NewMQTTLink(cfg.MQTTURL, topics, meta); err != nil {
			closer.Close()
			return nil, fmt.Errorf("create MQTT link error: %w", err)
		}
		env.Controller.MQTT = env.Link.Sink(enc)
	}
	if cfg.HTTPAddr != "" {
		env.HTTP = &HTTPServer{Addr: cfg.HTTPAddr, Hub: telemetry.NewWebSocketHub(enc)}
		env.Controller.Sinks = append(env.Controller.Sinks, env.HTTP.Hub)
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func MustNewEnv(cfg *conf.Config, meta Meta) *Env {
	env, err := NewEnv(cfg, meta)
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop implements LoopAdder.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Controller)
	if e.Link != nil {
		loop.Add(e.Link)
	}
	if e.HTTP != nil {
		loop.Add(e.HTTP)
	}
}

// Close releases the bus.
func (e *Env) Close() error {
	return e.busCloser.Close()
}
