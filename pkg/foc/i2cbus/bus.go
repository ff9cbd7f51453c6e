// Package i2cbus adapts periph.io I2C buses to foc.Bus.
package i2cbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/robotalks/foc.go/pkg/foc"
)

// Bus implements foc.Bus over a periph.io i2c.Bus.
type Bus struct {
	// Settle is the minimal quiet time between two transactions.
	// The firmware needs a short pause to prepare the next response.
	// It is consulted before every transaction, so it may change at
	// runtime.
	Settle func() time.Duration

	bus    i2c.Bus
	closer func() error
	last   time.Time
}

var (
	hostInitOnce sync.Once
	hostInitErr  error
)

// Open initializes the host drivers and opens the named bus.
// An empty name opens the first available bus.
func Open(name string) (*Bus, error) {
	hostInitOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	if hostInitErr != nil {
		return nil, fmt.Errorf("periph host init: %w", hostInitErr)
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	glog.Infof("i2c bus %s opened", bc)
	b := New(bc)
	b.closer = bc.Close
	return b, nil
}

// New wraps an existing i2c.Bus.
func New(bus i2c.Bus) *Bus {
	return &Bus{bus: bus}
}

// String implements fmt.Stringer.
func (b *Bus) String() string {
	return b.bus.String()
}

// Write implements foc.Bus.
func (b *Bus) Write(addr uint8, w []byte) error {
	return b.tx(addr, w, nil)
}

// Read implements foc.Bus.
func (b *Bus) Read(addr uint8, r []byte) error {
	return b.tx(addr, nil, r)
}

// WriteRead implements foc.Bus.
func (b *Bus) WriteRead(addr uint8, w, r []byte) error {
	return b.tx(addr, w, r)
}

// Close releases the bus if it was opened by Open.
func (b *Bus) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

func (b *Bus) tx(addr uint8, w, r []byte) error {
	if b.Settle != nil && !b.last.IsZero() {
		if d := b.Settle() - time.Since(b.last); d > 0 {
			time.Sleep(d)
		}
	}
	err := b.bus.Tx(uint16(addr), w, r)
	b.last = time.Now()
	if glog.V(3) {
		glog.Infof("i2c 0x%02x W % x R % x err=%v", addr, w, r, err)
	}
	return err
}

var _ foc.Bus = (*Bus)(nil)
