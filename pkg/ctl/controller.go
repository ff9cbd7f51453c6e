// Package ctl runs a FOC device: it polls telemetry streams on a loop,
// applies key commands and forwards responses to telemetry sinks.
package ctl

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/foc"
	fx "github.com/robotalks/foc.go/pkg/framework"
	"github.com/robotalks/foc.go/pkg/telemetry"
)

// Command sources.
const (
	SourceLocal = "local"
	SourceMQTT  = "mqtt"
	SourceWS    = "websocket"
)

// ErrRemoteDisabled is returned for remote device commands while the
// store has MQTTConf off.
var ErrRemoteDisabled = errors.New("remote commands disabled")

// CommandMsg asks the loop to apply a key command.
type CommandMsg struct {
	Command foc.KeyCommand
	Source  string
	// Done, if set, is called on the loop goroutine with the result.
	Done func(foc.Response, error)
}

// Controller owns the Driver. Everything touching the bus runs in
// Control, on the loop goroutine.
type Controller struct {
	ID     string
	Driver *foc.Driver
	Store  *conf.Store

	// Console receives records while PrintSerial is on.
	Console telemetry.Sink
	// MQTT receives records while SendMQTT is on.
	MQTT telemetry.Sink
	// Sinks always receive records.
	Sinks []telemetry.Sink

	started time.Time
	sleep   func(time.Duration)
}

// NewController creates a Controller.
func NewController(id string, driver *foc.Driver, store *conf.Store) *Controller {
	return &Controller{
		ID:      id,
		Driver:  driver,
		Store:   store,
		started: time.Now(),
		sleep:   time.Sleep,
	}
}

// AddToLoop implements LoopAdder. The loop period follows the store.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.Interval = c.Store.LoopInterval
	loop.AddController(c)
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.ProcessMessages(func(msg fx.Message) bool {
		cmd, ok := msg.(*CommandMsg)
		if !ok {
			return false
		}
		resp, err := c.Apply(cmd.Command, cmd.Source)
		if err != nil {
			glog.Warningf("%s command %s=%v: %v", cmd.Source, cmd.Command.Key, cmd.Command.Value, err)
		}
		if cmd.Done != nil {
			cmd.Done(resp, err)
		}
		return true
	})
	if cc.Ticked() {
		return c.Poll(cc.Time())
	}
	return nil
}

// Apply applies a key command. Configuration keys update the store,
// registered keys are dispatched to the device; a key can be both.
// Remote device commands are refused while MQTTConf is off, the store
// still accepts them so remote control can be re-enabled.
func (c *Controller) Apply(kc foc.KeyCommand, source string) (foc.Response, error) {
	remoteAllowed := source == SourceLocal || c.Store.Snapshot().MQTTConf
	local := c.Store.Update(kc)
	id := c.Driver.Registry().Resolve(kc.Key)
	if id == foc.UnknownCommand {
		if local {
			return foc.Response{Addr: c.Driver.Addr(), First: kc.Value}, nil
		}
		return foc.Response{}, &foc.UnknownCommandError{Name: kc.Key}
	}
	if !remoteAllowed {
		return foc.Response{}, ErrRemoteDisabled
	}
	return c.Driver.Dispatch(foc.Command{ID: id, Value: kc.Value})
}

// Poll reads every enabled stream once and forwards the records.
// A failed stream doesn't stop the others.
func (c *Controller) Poll(now time.Time) error {
	v := c.Store.Snapshot()
	var errs fx.AggregatedError
	for n, name := range v.Streams() {
		if n > 0 && v.BusSleep > 0 {
			c.sleep(v.BusSleep)
		}
		resp, err := c.Driver.ReadStream(name)
		if err != nil {
			errs.Add(fmt.Errorf("poll %s: %w", name, err))
			continue
		}
		c.Forward(v, telemetry.NewRecord(c.ID, name, resp, now.Sub(c.started)))
	}
	return errs.Aggregate()
}

// Forward sends a record to the sinks enabled in v.
func (c *Controller) Forward(v conf.Values, rec telemetry.Record) {
	var errs fx.AggregatedError
	if v.PrintSerial && c.Console != nil {
		errs.Add(c.Console.Send(rec))
	}
	if v.SendMQTT && c.MQTT != nil {
		errs.Add(c.MQTT.Send(rec))
	}
	for _, sink := range c.Sinks {
		errs.Add(sink.Send(rec))
	}
	if err := errs.Aggregate(); err != nil {
		glog.Warningf("forward %s: %v", rec.CmdKey, err)
	}
}

// PostCommand is a helper to feed a key command to a running loop.
func PostCommand(loopCtl fx.LoopControl, msg *CommandMsg) {
	loopCtl.PostMessage(msg)
	loopCtl.TriggerNext()
}
