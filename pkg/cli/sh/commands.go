package sh

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/foc"
)

func completeKeys(args []string) []string {
	if len(args) > 0 {
		return nil
	}
	return append(foc.DefaultRegistry().Names(), conf.Keys()...)
}

func completeStreams(args []string) []string {
	if len(args) > 0 {
		return nil
	}
	return []string{"states", "q", "current", "time"}
}

func localTarget(c *ishell.Context) *Local {
	t, ok := ShellFrom(c).Target.(*Local)
	if !ok {
		c.Err(ErrLocalOnly)
		return nil
	}
	return t
}

func apply(c *ishell.Context, kc foc.KeyCommand) {
	s := ShellFrom(c)
	resp, err := s.Target.Apply(kc)
	if err != nil {
		c.Err(err)
		return
	}
	s.PrintResponse(c, foc.DefaultRegistry(), resp)
}

var (
	// DiscoverCmd discovers controllers on MQTT.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				s.Print(c, infoList, "")
				return
			}
			if len(infoList) == 0 {
				c.Println("No controllers found")
				return
			}
			for _, info := range infoList {
				line := info.Topics.Base()
				if info.Meta.Description != "" {
					line += ": " + info.Meta.Description
				}
				c.Println(line)
			}
		},
	}

	// ConnectCmd selects the target.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "local | ID | TYPE ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var err error
			switch {
			case len(c.Args) == 0 || c.Args[0] == "local":
				err = s.ConnectLocal()
			case len(c.Args) == 1:
				err = s.ConnectRemote(mqttTopics(conf.ControllerType, c.Args[0]))
			default:
				err = s.ConnectRemote(mqttTopics(c.Args[0], c.Args[1]))
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd releases the target.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// KeysCmd lists command names.
	KeysCmd = ishell.Cmd{
		Name:    "keys",
		Aliases: []string{"k"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			reg := foc.DefaultRegistry()
			if s.OutputJSON {
				s.Print(c, map[string]interface{}{
					"commands": reg.Names(),
					"config":   conf.Keys(),
				}, "")
				return
			}
			for _, line := range FormatKeys(reg) {
				c.Println(line)
			}
			c.Println("config: " + strings.Join(conf.Keys(), " "))
		},
	}

	// SetCmd applies a key command.
	SetCmd = ishell.Cmd{
		Name:      "set",
		Aliases:   []string{"s"},
		Help:      "KEY VAL",
		Completer: completeKeys,
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("expect KEY VAL"))
				return
			}
			val, err := ParseValue(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			apply(c, foc.KeyCommand{Key: c.Args[0], Value: val})
		}),
	}

	// SendCmd dispatches a command by id.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "ID [VAL]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) < 1 || len(c.Args) > 2 {
				c.Err(fmt.Errorf("expect ID [VAL]"))
				return
			}
			reg := foc.DefaultRegistry()
			id, err := ParseCommandID(reg, c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			var val float32
			if len(c.Args) > 1 {
				if val, err = ParseValue(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			if t, ok := s.Target.(*Local); ok {
				resp, err := t.Controller.Driver.Dispatch(foc.Command{ID: id, Value: val})
				if err != nil {
					c.Err(err)
					return
				}
				s.PrintResponse(c, reg, resp)
				return
			}
			name := reg.Name(id)
			if name == "" {
				c.Err(ErrLocalOnly)
				return
			}
			apply(c, foc.KeyCommand{Key: name, Value: val})
		}),
	}

	// ReadCmd reads a telemetry stream.
	ReadCmd = ishell.Cmd{
		Name:      "read",
		Aliases:   []string{"r"},
		Help:      "STREAM",
		Completer: completeStreams,
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("expect STREAM"))
				return
			}
			key := StreamKey(c.Args[0])
			if foc.DefaultRegistry().Resolve(key).Kind() != foc.TxExchange {
				c.Err(&foc.UnknownCommandError{Name: key})
				return
			}
			apply(c, foc.KeyCommand{Key: key})
		}),
	}

	// PassiveCmd reads whatever the device has prepared.
	PassiveCmd = ishell.Cmd{
		Name: "passive",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			t := localTarget(c)
			if t == nil {
				return
			}
			resp, err := t.Controller.Driver.ReadPassive()
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).PrintResponse(c, foc.DefaultRegistry(), resp)
		}),
	}

	// ConfCmd shows or updates the local configuration store.
	ConfCmd = ishell.Cmd{
		Name:      "conf",
		Help:      "[KEY VAL]",
		Completer: func(args []string) []string { return conf.Keys() },
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			switch len(c.Args) {
			case 0:
				out, err := yaml.Marshal(s.Store.Snapshot())
				if err != nil {
					c.Err(err)
					return
				}
				s.Print(c, s.Store.Snapshot(), strings.TrimRight(string(out), "\n"))
			case 2:
				val, err := ParseValue(c.Args[1])
				if err != nil {
					c.Err(err)
					return
				}
				if !s.Store.Update(foc.KeyCommand{Key: c.Args[0], Value: val}) {
					c.Err(fmt.Errorf("rejected %s=%v", c.Args[0], val))
					return
				}
				c.Println("OK")
			default:
				c.Err(fmt.Errorf("expect [KEY VAL]"))
			}
		},
	}
)
