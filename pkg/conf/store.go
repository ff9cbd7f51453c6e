// Package conf holds the runtime configuration of the FOC controller.
package conf

import (
	"sync"
	"time"

	"github.com/robotalks/foc.go/pkg/foc"
)

// Values is a snapshot of the runtime configuration.
type Values struct {
	// LoopInterval is the period of the streaming loop.
	LoopInterval time.Duration `yaml:"loop_interval"`
	// BusSleep is the pause between two bus transactions.
	BusSleep time.Duration `yaml:"bus_sleep"`

	PrintSerial   bool `yaml:"print_serial"`
	SendMQTT      bool `yaml:"send_mqtt"`
	MQTTConf      bool `yaml:"mqtt_conf"`
	FireWater     bool `yaml:"fire_water"`
	StreamQ       bool `yaml:"stream_q"`
	StreamStates  bool `yaml:"stream_states"`
	StreamCurrent bool `yaml:"stream_current"`
	StreamTime    bool `yaml:"stream_time"`
}

// Defaults returns the power-on configuration.
func Defaults() Values {
	return Values{
		LoopInterval: 2000 * time.Millisecond,
		BusSleep:     250 * time.Microsecond,

		PrintSerial:   true,
		SendMQTT:      false,
		MQTTConf:      true,
		FireWater:     false,
		StreamQ:       false,
		StreamStates:  true,
		StreamCurrent: false,
		StreamTime:    false,
	}
}

// Streams lists the names of enabled telemetry streams in polling order.
func (v Values) Streams() []string {
	var names []string
	if v.StreamStates {
		names = append(names, foc.KeyStreamStates)
	}
	if v.StreamQ {
		names = append(names, foc.KeyStreamQ)
	}
	if v.StreamCurrent {
		names = append(names, foc.KeyStreamCurrent)
	}
	if v.StreamTime {
		names = append(names, foc.KeyStreamTime)
	}
	return names
}

// Bounds of numeric keys, exclusive.
const (
	MinLoopSleepMs = 10
	MaxLoopSleepMs = 2000
	MinBusSleepUs  = 50
	MaxBusSleepUs  = 1000
)

// Store is the mutable runtime configuration shared by the controller,
// the command intake and the CLI. It is safe for concurrent use.
type Store struct {
	values Values
	lock   sync.RWMutex
}

// NewStore creates a Store with defaults.
func NewStore() *Store {
	return NewStoreWith(Defaults())
}

// NewStoreWith creates a Store with initial values.
func NewStoreWith(v Values) *Store {
	return &Store{values: v}
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() Values {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values
}

// Set replaces all values.
func (s *Store) Set(v Values) {
	s.lock.Lock()
	s.values = v
	s.lock.Unlock()
}

// LoopInterval returns the streaming period.
func (s *Store) LoopInterval() time.Duration {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values.LoopInterval
}

// BusSleep returns the quiet time between bus transactions.
func (s *Store) BusSleep() time.Duration {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values.BusSleep
}

// Keys lists the keys accepted by Update.
func Keys() []string {
	return []string{
		"enable",
		"loop_sleep_ms",
		"i2c_sleep_us",
		"is_send_mqtt",
		"is_print_serial",
		"is_fire_water",
		"is_stream_q",
		"is_stream_states",
		"is_stream_current",
		"is_stream_debug",
	}
}

// Update applies a key command. It returns false when the key is not a
// configuration key, or a numeric value is out of bounds.
// Switches are on for values >= 1.
func (s *Store) Update(kc foc.KeyCommand) bool {
	val := kc.Value
	on := val >= 1

	s.lock.Lock()
	defer s.lock.Unlock()
	v := &s.values
	switch {
	case kc.Key == "enable":
		v.MQTTConf = on
	case kc.Key == "loop_sleep_ms" && val > MinLoopSleepMs && val < MaxLoopSleepMs:
		v.LoopInterval = time.Duration(val) * time.Millisecond
	case kc.Key == "i2c_sleep_us" && val > MinBusSleepUs && val < MaxBusSleepUs:
		v.BusSleep = time.Duration(val) * time.Microsecond
	case kc.Key == "is_send_mqtt":
		v.SendMQTT = on
	case kc.Key == "is_print_serial":
		v.PrintSerial = on
	case kc.Key == "is_fire_water":
		v.FireWater = on
	case kc.Key == "is_stream_q":
		v.StreamQ = on
	case kc.Key == "is_stream_states":
		v.StreamStates = on
	case kc.Key == "is_stream_current":
		v.StreamCurrent = on
	case kc.Key == "is_stream_debug":
		v.StreamTime = on
	default:
		return false
	}
	return true
}
