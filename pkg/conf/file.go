package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration of focd.
//
//	bus: /dev/i2c-1
//	addr: 0x40
//	mqtt: mqtt://localhost:1883/robo/
//	id: motor-left
//	runtime:
//	  loop_interval: 500ms
//	  stream_q: true
type File struct {
	Bus      string  `yaml:"bus"`
	Addr     *uint8  `yaml:"addr"`
	MQTTURL  string  `yaml:"mqtt"`
	ID       string  `yaml:"id"`
	HTTPAddr string  `yaml:"http"`
	Encoding string  `yaml:"encoding"`
	Runtime  *Values `yaml:"runtime"`
}

// LoadFile reads a YAML file. Runtime values not present in the file
// keep their defaults.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(data)
}

// ParseFile parses YAML content.
func ParseFile(data []byte) (*File, error) {
	f := &File{Runtime: &Values{}}
	*f.Runtime = Defaults()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if f.Runtime == nil {
		v := Defaults()
		f.Runtime = &v
	}
	return f, nil
}

// Apply overrides the fields of c set in the file.
func (f *File) Apply(c *Config) {
	if f.Bus != "" {
		c.Bus = f.Bus
	}
	if f.Addr != nil {
		c.Addr = *f.Addr
	}
	if f.MQTTURL != "" {
		c.MQTTURL = f.MQTTURL
	}
	if f.ID != "" {
		c.ID = f.ID
	}
	if f.HTTPAddr != "" {
		c.HTTPAddr = f.HTTPAddr
	}
	if f.Encoding != "" {
		c.Encoding = f.Encoding
	}
	if f.Runtime != nil {
		c.Runtime = *f.Runtime
	}
}
