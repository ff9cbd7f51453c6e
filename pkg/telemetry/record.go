// Package telemetry forwards decoded device responses to outer surfaces:
// the console, MQTT and websocket clients.
package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/foc.go/pkg/foc"
)

// Record is one response annotated for forwarding.
type Record struct {
	Controller string        `json:"controller,omitempty"`
	MotorID    uint8         `json:"motor_id"`
	CmdID      foc.CommandID `json:"cmd_id"`
	CmdKey     string        `json:"cmd_key"`
	First      float32       `json:"first"`
	Second     float32       `json:"second"`
	Third      float32       `json:"third"`
	Uptime     time.Duration `json:"uptime_ns"`
}

// NewRecord creates a Record from a response.
func NewRecord(controller, key string, resp foc.Response, uptime time.Duration) Record {
	return Record{
		Controller: controller,
		MotorID:    resp.Addr,
		CmdID:      resp.ID,
		CmdKey:     key,
		First:      resp.First,
		Second:     resp.Second,
		Third:      resp.Third,
		Uptime:     uptime,
	}
}

// Response converts back to the device response.
func (r Record) Response() foc.Response {
	return foc.Response{Addr: r.MotorID, ID: r.CmdID, First: r.First, Second: r.Second, Third: r.Third}
}

// String formats the record in one line for console output.
func (r Record) String() string {
	key := r.CmdKey
	if key == "" {
		key = fmt.Sprintf("#%d", r.CmdID)
	}
	return fmt.Sprintf("[%s] m%d %s: %g %g %g", FormatUptime(r.Uptime), r.MotorID, key, r.First, r.Second, r.Third)
}

// FormatUptime formats d as 1d2h3m4s, omitting leading zero units.
// Seconds are always present.
func FormatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	var sb strings.Builder
	if days := secs / 86400; days > 0 {
		fmt.Fprintf(&sb, "%dd", days)
	}
	if hours := secs % 86400 / 3600; hours > 0 {
		fmt.Fprintf(&sb, "%dh", hours)
	}
	if minutes := secs % 3600 / 60; minutes > 0 {
		fmt.Fprintf(&sb, "%dm", minutes)
	}
	fmt.Fprintf(&sb, "%ds", secs%60)
	return sb.String()
}
