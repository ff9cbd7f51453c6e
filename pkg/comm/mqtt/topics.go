package mqtt

// Topics follows the convention <type>/<id>/<leaf> below the prefix.
type Topics struct {
	Type string
	ID   string
}

// Base returns <type>/<id>.
func (t Topics) Base() string {
	return t.Type + "/" + t.ID
}

// Meta is the retained announcement topic.
func (t Topics) Meta() string {
	return t.Base() + "/meta"
}

// Cmd receives key commands.
func (t Topics) Cmd() string {
	return t.Base() + "/cmd"
}

// Reply carries dispatch results of key commands.
func (t Topics) Reply() string {
	return t.Base() + "/reply"
}

// Telemetry is where stream samples of name are published.
func (t Topics) Telemetry(name string) string {
	return t.Base() + "/telemetry/" + name
}
