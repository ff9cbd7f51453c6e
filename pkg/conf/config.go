package conf

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// ControllerType is the type name announced by focd.
const ControllerType = "foc"

// Config is the startup configuration of the FOC binaries.
type Config struct {
	// Bus is the periph.io name of the I2C bus, or "sim".
	Bus string
	// Addr is the 7-bit device address.
	Addr uint8
	// MQTTURL specifies the MQTT broker and topic prefix,
	// e.g. mqtt://host:port/topic-prefix
	MQTTURL string
	// ID identifies this controller on MQTT.
	ID string
	// HTTPAddr serves live telemetry over websocket when set.
	HTTPAddr string
	// Encoding of telemetry payloads: json or proto.
	Encoding string
	// File is an optional YAML file loaded by Load.
	File string

	Runtime Values
}

// BusSim selects the simulated device instead of real hardware.
const BusSim = "sim"

// Telemetry encodings.
const (
	EncodingJSON  = "json"
	EncodingProto = "proto"
)

var defaultConfig = Config{
	Addr:     0x40,
	MQTTURL:  "mqtt://localhost:1883/robo/",
	Encoding: EncodingJSON,
	Runtime:  Defaults(),
}

var addrFlag = addrValue{&defaultConfig.Addr}

func init() {
	if val := os.Getenv("FOC_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("FOC_BUS"); val != "" {
		defaultConfig.Bus = val
	}
	if val := os.Getenv("FOC_ADDR"); val != "" {
		if err := addrFlag.Set(val); err != nil {
			glog.Warningf("ignore FOC_ADDR: %v", err)
		}
	}
	if val := os.Getenv("FOC_CONFIG"); val != "" {
		defaultConfig.File = val
	}
	defaultConfig.ID = MachineID()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Bus, "bus", defaultConfig.Bus, "I2C bus name, empty for the first one, \"sim\" for a simulated device.")
	flag.Var(&addrFlag, "addr", "Device address.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Controller ID.")
	flag.StringVar(&defaultConfig.HTTPAddr, "http", defaultConfig.HTTPAddr, "Listen address of the websocket telemetry endpoint.")
	flag.StringVar(&defaultConfig.Encoding, "encoding", defaultConfig.Encoding, "Telemetry encoding: json, proto.")
	flag.StringVar(&defaultConfig.File, "config", defaultConfig.File, "YAML config file.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load applies File if set. Command line flags explicitly set win over
// the file.
func (c *Config) Load() error {
	if c.File == "" {
		return nil
	}
	f, err := LoadFile(c.File)
	if err != nil {
		return fmt.Errorf("load %s: %w", c.File, err)
	}
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	saved := *c
	f.Apply(c)
	for name, restore := range map[string]func(){
		"bus":      func() { c.Bus = saved.Bus },
		"addr":     func() { c.Addr = saved.Addr },
		"mqtt":     func() { c.MQTTURL = saved.MQTTURL },
		"id":       func() { c.ID = saved.ID },
		"http":     func() { c.HTTPAddr = saved.HTTPAddr },
		"encoding": func() { c.Encoding = saved.Encoding },
	} {
		if explicit[name] {
			restore()
		}
	}
	return nil
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("controller id must be specified")
	}
	if c.Addr > 0x7f {
		return fmt.Errorf("invalid device address 0x%02x", c.Addr)
	}
	switch c.Encoding {
	case EncodingJSON, EncodingProto:
	default:
		return fmt.Errorf("unknown encoding %q", c.Encoding)
	}
	return nil
}

// MachineID retrieves an ID unique to this machine and application,
// empty if not available.
func MachineID() string {
	id, err := machineid.ProtectedID("foc")
	if err != nil {
		glog.V(1).Infof("machine id unavailable: %v", err)
		return ""
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

type addrValue struct {
	addr *uint8
}

func (v *addrValue) String() string {
	if v.addr == nil {
		return ""
	}
	return fmt.Sprintf("0x%02x", *v.addr)
}

func (v *addrValue) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	*v.addr = uint8(n)
	return nil
}
