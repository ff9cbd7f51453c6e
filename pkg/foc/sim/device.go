// Package sim simulates the FOC firmware behind a foc.Bus.
package sim

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/foc.go/pkg/foc"
)

var (
	// ErrNoDevice is returned for transactions to other addresses.
	ErrNoDevice = errors.New("no device at address")
	// ErrNak is returned when a fault is injected.
	ErrNak = errors.New("nak")
)

// Device is a simulated FOC controller. It implements foc.Bus and only
// answers at its own address.
type Device struct {
	Addr uint8

	// FailNext makes the next n transactions fail with ErrNak.
	FailNext int
	// Desync makes exchanges echo the wrong id.
	Desync bool

	regs    map[foc.CommandID]float32
	pending foc.Response
	started time.Time
	now     func() time.Time
	lock    sync.Mutex
}

// NewDevice creates a Device answering at addr.
func NewDevice(addr uint8) *Device {
	d := &Device{
		Addr: addr,
		regs: make(map[foc.CommandID]float32),
		now:  time.Now,
	}
	d.started = d.now()
	return d
}

// Register returns the last value written to id.
func (d *Device) Register(id foc.CommandID) float32 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.regs[id]
}

// Write implements foc.Bus.
func (d *Device) Write(addr uint8, w []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.check(addr); err != nil {
		return err
	}
	cmd, err := foc.DecodeCommand(w)
	if err != nil {
		return err
	}
	glog.V(2).Infof("sim 0x%02x: set %d = %v", d.Addr, cmd.ID, cmd.Value)
	d.regs[cmd.ID] = cmd.Value
	d.pending = foc.Response{ID: cmd.ID, First: cmd.Value}
	return nil
}

// Read implements foc.Bus.
func (d *Device) Read(addr uint8, r []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.check(addr); err != nil {
		return err
	}
	fill(r, foc.EncodeResponse(d.pending))
	return nil
}

// WriteRead implements foc.Bus.
func (d *Device) WriteRead(addr uint8, w, r []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.check(addr); err != nil {
		return err
	}
	if len(w) < 1 {
		return foc.ErrShortFrame
	}
	resp := d.respond(foc.CommandID(w[0]))
	if d.Desync {
		resp.ID++
	}
	d.pending = resp
	fill(r, foc.EncodeResponse(resp))
	return nil
}

func (d *Device) check(addr uint8) error {
	if addr != d.Addr {
		return ErrNoDevice
	}
	if d.FailNext > 0 {
		d.FailNext--
		return ErrNak
	}
	return nil
}

func (d *Device) respond(id foc.CommandID) foc.Response {
	resp := foc.Response{ID: id}
	elapsed := d.now().Sub(d.started).Seconds()
	switch id {
	case foc.ConfBase:
		resp.First, resp.Second, resp.Third = d.regs[foc.Enable], d.regs[foc.Target], d.regs[foc.LoopMode]
	case foc.ConfVelocity:
		resp.First, resp.Second, resp.Third = d.regs[foc.VelocityLimit], d.regs[foc.VelocityRamp], d.regs[foc.VelocityTf]
	case foc.ConfPosition:
		resp.First, resp.Second, resp.Third = d.regs[foc.PositionRamp], d.regs[foc.PositionTf], 0
	case foc.ConfTorque:
		resp.First, resp.Second, resp.Third = d.regs[foc.TorqueLimit], d.regs[foc.TorqueRamp], d.regs[foc.TorqueTf]
	case foc.ConfTorquePID:
		resp.First, resp.Second, resp.Third = d.regs[foc.TorqueP], d.regs[foc.TorqueI], d.regs[foc.TorqueD]
	case foc.ConfVelocityPID:
		resp.First, resp.Second, resp.Third = d.regs[foc.VelocityP], d.regs[foc.VelocityI], d.regs[foc.VelocityD]
	case foc.ConfPositionPID:
		resp.First, resp.Second, resp.Third = d.regs[foc.PositionP], d.regs[foc.PositionI], d.regs[foc.PositionD]
	case foc.ConfLimit:
		resp.First, resp.Second, resp.Third = d.regs[foc.VoltageLimit], d.regs[foc.VelocityLimit], d.regs[foc.TorqueLimit]
	case foc.ConfVoltageOffset:
		resp.First = d.regs[foc.VoltagePower]
	case foc.StreamStates:
		// velocity, position, torque of a motor spinning at target.
		target := float64(d.regs[foc.Target])
		if d.regs[foc.Enable] < 1 {
			target = 0
		}
		resp.First = float32(target)
		resp.Second = float32(math.Mod(target*elapsed, 2*math.Pi))
		resp.Third = float32(target * 0.01)
	case foc.StreamQ:
		resp.First = d.regs[foc.VoltageLimit] / 2
		resp.Second = 0
		resp.Third = d.regs[foc.Target] * 0.01
	case foc.StreamCurrent:
		phase := 2 * math.Pi * elapsed
		resp.First = float32(math.Sin(phase))
		resp.Second = float32(math.Sin(phase - 2*math.Pi/3))
		resp.Third = float32(math.Sin(phase + 2*math.Pi/3))
	case foc.StreamTime:
		resp.First = float32(elapsed)
	}
	return resp
}

func fill(r, frame []byte) {
	n := copy(r, frame)
	for i := n; i < len(r); i++ {
		r[i] = 0
	}
}

var _ foc.Bus = (*Device)(nil)
