package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"go.bug.st/serial"

	"github.com/optoforge/labcomm/internal/config"
	"github.com/optoforge/labcomm/internal/logging"
	"github.com/optoforge/labcomm/internal/observability"
	"github.com/optoforge/labcomm/internal/scpi"
	"github.com/optoforge/labcomm/internal/transport"
)

func main() {
	defaultsPath := flag.String("defaults", "", "optional labctl defaults file")
	cfgPath := flag.String("config", "", "instrument config file")
	name := flag.String("instrument", "", "configured instrument name")
	cmd := flag.String("cmd", "", "command to send")
	timeout := flag.Duration("timeout", 0, "response timeout override")
	discard := flag.Bool("discard", false, "drain buffered input before sending")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.RegisterMetrics()

	def := builtinDefaults()
	if *defaultsPath != "" {
		var err error
		if def, err = loadToolDefaults(*defaultsPath); err != nil {
			fmt.Fprintf(os.Stderr, "labctl: %v\n", err)
			os.Exit(1)
		}
	}
	if *cfgPath == "" {
		*cfgPath = def.Config
	}
	if *name == "" {
		*name = def.Instrument
	}
	if *cmd == "" {
		*cmd = def.Command
	}
	if *timeout == 0 {
		*timeout = def.Timeout
	}

	if err := run(*cfgPath, *name, *cmd, *timeout, *discard || def.Discard); err != nil {
		fmt.Fprintf(os.Stderr, "labctl: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, name, cmd string, timeout time.Duration, discard bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	inst, err := cfg.Instrument(name)
	if err != nil {
		return err
	}
	if inst.Protocol != config.ProtocolSCPI {
		return fmt.Errorf("instrument %q speaks %q, not %s", name, inst.Protocol, config.ProtocolSCPI)
	}

	tr, closeTransport, err := openTransport(inst)
	if err != nil {
		return err
	}
	defer closeTransport()

	eng := scpi.NewEngine(tr, scpi.Config{
		WriteTerminator: inst.Terminator,
		ReadTerminator:  inst.Terminator,
		DefaultTimeout:  inst.Timeout,
	})
	var opts []scpi.Option
	if timeout > 0 {
		opts = append(opts, scpi.WithTimeout(timeout))
	}
	if discard {
		opts = append(opts, scpi.WithDiscard())
	}
	resp, err := eng.Ask(cmd, opts...)
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

func openTransport(inst config.Instrument) (transport.Transport, func(), error) {
	switch inst.Transport {
	case config.TransportTCP:
		c, err := net.Dial("tcp", inst.Address)
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", inst.Address, err)
		}
		return transport.NewConn(c), func() { _ = c.Close() }, nil
	case config.TransportSerial:
		p, err := serial.Open(inst.Device, &serial.Mode{BaudRate: inst.Baud})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", inst.Device, err)
		}
		return transport.NewSerialPort(p), func() { _ = p.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported transport %q", inst.Transport)
}
