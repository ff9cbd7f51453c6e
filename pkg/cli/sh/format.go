package sh

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/foc.go/pkg/foc"
)

// FormatResponse renders a response for display.
func FormatResponse(reg *foc.Registry, resp foc.Response) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "m%d", resp.Addr)
	if resp.ID != foc.UnknownCommand {
		if name := reg.Name(resp.ID); name != "" {
			fmt.Fprintf(&w, " %s", name)
		} else {
			fmt.Fprintf(&w, " #%d", resp.ID)
		}
	}
	fmt.Fprintf(&w, ": %v %v %v", resp.First, resp.Second, resp.Third)
	return w.String()
}

// FormatKeys lists registry names with their transaction kind.
func FormatKeys(reg *foc.Registry) []string {
	names := reg.Names()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		id := reg.Resolve(name)
		lines = append(lines, fmt.Sprintf("%-20s %3d %s", name, id, id.Kind()))
	}
	return lines
}

// ParseValue parses a command value.
func ParseValue(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return float32(v), nil
}

// ParseCommandID parses a numeric id or a registered name.
func ParseCommandID(reg *foc.Registry, s string) (foc.CommandID, error) {
	if n, err := strconv.ParseUint(s, 0, 8); err == nil {
		return foc.CommandID(n), nil
	}
	if id := reg.Resolve(s); id != foc.UnknownCommand {
		return id, nil
	}
	return foc.UnknownCommand, &foc.UnknownCommandError{Name: s}
}

// StreamKey accepts "q" as well as "stream_q".
func StreamKey(s string) string {
	if strings.HasPrefix(s, "stream_") {
		return s
	}
	return "stream_" + s
}
