package foc

import (
	"sort"
	"sync"
)

// CommandID is the one-byte address of a command or telemetry stream.
type CommandID uint8

// UnknownCommand is returned by Registry.Resolve for unmapped names.
// Dispatching it is a no-op.
const UnknownCommand CommandID = 0

// Actuation and configuration commands, write-only.
const (
	Enable        CommandID = 1
	Target        CommandID = 2
	LoopMode      CommandID = 3
	VoltageLimit  CommandID = 4
	VoltagePower  CommandID = 5
	VelocityLimit CommandID = 6
	TorqueLimit   CommandID = 7

	TorqueP    CommandID = 11
	TorqueI    CommandID = 12
	TorqueD    CommandID = 13
	TorqueRamp CommandID = 14
	TorqueTf   CommandID = 15

	VelocityP    CommandID = 21
	VelocityI    CommandID = 22
	VelocityD    CommandID = 23
	VelocityRamp CommandID = 24
	VelocityTf   CommandID = 25

	PositionP    CommandID = 31
	PositionI    CommandID = 32
	PositionD    CommandID = 33
	PositionRamp CommandID = 34
	PositionTf   CommandID = 35
)

// Configuration read-backs and telemetry streams, exchanged.
const (
	ConfBase          CommandID = 100
	ConfVelocity      CommandID = 101
	ConfPosition      CommandID = 102
	ConfTorque        CommandID = 103
	ConfTorquePID     CommandID = 104
	ConfVelocityPID   CommandID = 105
	ConfPositionPID   CommandID = 106
	ConfLimit         CommandID = 107
	ConfVoltageOffset CommandID = 108

	StreamStates  CommandID = 150
	StreamQ       CommandID = 151
	StreamCurrent CommandID = 152
	StreamTime    CommandID = 153
)

// Well-known stream names.
const (
	KeyStreamStates  = "stream_states"
	KeyStreamQ       = "stream_q"
	KeyStreamCurrent = "stream_current"
	KeyStreamTime    = "stream_time"
)

// TransactionKind is how a command travels, derived from its id band.
type TransactionKind int

// Transaction kinds.
const (
	// TxNone is the kind of UnknownCommand, nothing happens.
	TxNone TransactionKind = iota
	// TxWrite sends the command and reads nothing.
	TxWrite
	// TxExchange writes the id and reads back a response frame.
	TxExchange
	// TxLocalEcho never reaches the bus.
	TxLocalEcho
)

// String implements fmt.Stringer.
func (k TransactionKind) String() string {
	switch k {
	case TxWrite:
		return "write"
	case TxExchange:
		return "exchange"
	case TxLocalEcho:
		return "local"
	}
	return "none"
}

// Kind classifies the id by its numeric band.
func (id CommandID) Kind() TransactionKind {
	switch {
	case id == UnknownCommand:
		return TxNone
	case id < 100:
		return TxWrite
	case id < 200:
		return TxExchange
	default:
		return TxLocalEcho
	}
}

var defaultEntries = map[string]CommandID{
	"enable":         Enable,
	"target":         Target,
	"loop_mode":      LoopMode,
	"voltage_limit":  VoltageLimit,
	"voltage_power":  VoltagePower,
	"velocity_limit": VelocityLimit,
	"torque_limit":   TorqueLimit,

	"torque_p":    TorqueP,
	"torque_i":    TorqueI,
	"torque_d":    TorqueD,
	"torque_ramp": TorqueRamp,
	"torque_tf":   TorqueTf,

	"velocity_p":    VelocityP,
	"velocity_i":    VelocityI,
	"velocity_d":    VelocityD,
	"velocity_ramp": VelocityRamp,
	"velocity_tf":   VelocityTf,

	"position_p":    PositionP,
	"position_i":    PositionI,
	"position_d":    PositionD,
	"position_ramp": PositionRamp,
	"position_tf":   PositionTf,

	"conf_base":     ConfBase,
	"conf_velocity": ConfVelocity,
	"conf_position": ConfPosition,
	"conf_torque":   ConfTorque,

	"conf_torque_pid":   ConfTorquePID,
	"conf_velocity_pid": ConfVelocityPID,
	"conf_position_pid": ConfPositionPID,

	"conf_limit":          ConfLimit,
	"conf_voltage_offset": ConfVoltageOffset,

	KeyStreamStates:  StreamStates,
	KeyStreamQ:       StreamQ,
	KeyStreamCurrent: StreamCurrent,
	KeyStreamTime:    StreamTime,
}

// Registry maps command names to ids. It is never modified after
// creation and can be shared by any number of readers.
type Registry struct {
	ids   map[string]CommandID
	names map[CommandID]string
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the command table agreed with the firmware.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(defaultEntries)
	})
	return defaultRegistry
}

// NewRegistry creates a Registry from a copy of entries.
func NewRegistry(entries map[string]CommandID) *Registry {
	r := &Registry{
		ids:   make(map[string]CommandID, len(entries)),
		names: make(map[CommandID]string, len(entries)),
	}
	for name, id := range entries {
		r.ids[name] = id
		r.names[id] = name
	}
	return r
}

// Resolve returns the id of name, or UnknownCommand.
func (r *Registry) Resolve(name string) CommandID {
	return r.ids[name]
}

// Name returns the name registered for id, or "".
func (r *Registry) Name(id CommandID) string {
	return r.names[id]
}

// Names lists all registered names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.ids)
}
