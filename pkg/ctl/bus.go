package ctl

import (
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/foc"
	"github.com/robotalks/foc.go/pkg/foc/i2cbus"
	"github.com/robotalks/foc.go/pkg/foc/sim"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBus opens the bus selected by the config: the simulated device
// for conf.BusSim, otherwise the named I2C bus. The I2C bus keeps the
// quiet time of store between transactions.
func OpenBus(cfg *conf.Config, store *conf.Store) (foc.Bus, io.Closer, error) {
	if cfg.Bus == conf.BusSim {
		glog.Infof("simulated device at 0x%02x", cfg.Addr)
		return sim.NewDevice(cfg.Addr), nopCloser{}, nil
	}
	bus, err := i2cbus.Open(cfg.Bus)
	if err != nil {
		return nil, nil, err
	}
	bus.Settle = store.BusSleep
	glog.Infof("bus %s, device at 0x%02x", bus, cfg.Addr)
	return bus, bus, nil
}
