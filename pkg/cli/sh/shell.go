// Package sh provides the interactive shell of focctl.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/ctl"
	"github.com/robotalks/foc.go/pkg/foc"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *conf.Config
	Store  *conf.Store
	Target Target
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly    bool
	outputJSON  bool
	localDevice bool
	remoteID    string

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&KeysCmd,
		&SetCmd,
		&SendCmd,
		&ReadCmd,
		&PassiveCmd,
		&ConfCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&localDevice, "local", localDevice, "Connect the device on the local bus at start.")
	flag.StringVar(&remoteID, "remote", remoteID, "Connect the controller with this ID over MQTT at start.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(cfg *conf.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: cfg,
		Store:  conf.NewStoreWith(cfg.Runtime),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a target.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Target == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// ConnectLocal opens the configured bus and uses the device on it.
func (s *Shell) ConnectLocal() error {
	bus, closer, err := ctl.OpenBus(s.Config, s.Store)
	if err != nil {
		return err
	}
	s.use(NewLocal(bus, closer, s.Config.Addr, s.Store))
	return nil
}

// ConnectRemote uses the controller announced at topics.
func (s *Shell) ConnectRemote(topics mqtt.Topics) error {
	q, err := s.newQueue()
	if err != nil {
		return err
	}
	target, err := DialRemote(q, topics)
	if err != nil {
		return err
	}
	s.use(target)
	return nil
}

// Discover lists the controllers announced on MQTT.
func (s *Shell) Discover() ([]ControllerInfo, error) {
	q, err := s.newQueue()
	if err != nil {
		return nil, err
	}
	defer q.Close()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultDiscoveryTimeout)
	defer cancel()
	return Discover(ctx, q)
}

// Disconnect releases the current target.
func (s *Shell) Disconnect() {
	if s.Target != nil {
		s.Target.Close()
		s.Target = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Shell) use(t Target) {
	s.Disconnect()
	s.Target = t
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", t.Name()))
}

func (s *Shell) newQueue() (*mqtt.Queue, error) {
	if s.Config.MQTTURL == "" {
		return nil, fmt.Errorf("MQTT not configured")
	}
	return mqtt.NewQueueFromURL(s.Config.MQTTURL)
}

// Print prints v as JSON or with its text form.
func (s *Shell) Print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// PrintResponse prints a dispatch result.
func (s *Shell) PrintResponse(c *ishell.Context, reg *foc.Registry, resp foc.Response) {
	s.Print(c, &resp, FormatResponse(reg, resp))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	switch {
	case remoteID != "":
		if err := s.ConnectRemote(mqtt.Topics{Type: conf.ControllerType, ID: remoteID}); err != nil {
			log.Fatalf("connect %q failed: %v", remoteID, err)
		}
	case localDevice:
		if err := s.ConnectLocal(); err != nil {
			log.Fatalf("open device failed: %v", err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	cfg := conf.Default()
	if err := cfg.Load(); err != nil {
		log.Fatalln(err)
	}
	New(cfg).Run(flag.Args()...)
}
