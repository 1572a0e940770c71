package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/optoforge/labcomm/internal/config"
	"github.com/optoforge/labcomm/internal/logging"
	"github.com/optoforge/labcomm/internal/observability"
	"github.com/optoforge/labcomm/internal/stream"
	"github.com/optoforge/labcomm/internal/transport"
)

func main() {
	cfgPath := flag.String("config", "labcomm.toml", "instrument config file")
	name := flag.String("instrument", "", "configured instrument name")
	interval := flag.Duration("interval", 250*time.Millisecond, "queue drain period")
	queueSize := flag.Int("queue", 0, "record queue capacity override")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.RegisterMetrics()

	if err := run(*cfgPath, *name, *interval, *queueSize); err != nil {
		fmt.Fprintf(os.Stderr, "streamdump: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, name string, interval time.Duration, queueSize int) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	inst, err := cfg.Instrument(name)
	if err != nil {
		return err
	}
	if inst.Protocol != config.ProtocolStream {
		return fmt.Errorf("instrument %q speaks %q, not %s", name, inst.Protocol, config.ProtocolStream)
	}

	tr, closeTransport, err := openTransport(inst)
	if err != nil {
		return err
	}
	defer closeTransport()

	dec := stream.NewDecoder(tr, stream.Config{QueueSize: queueSize})
	dec.Start()
	defer func() {
		dec.Shutdown()
		dec.Join()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			dump(dec.PopAll())
			return nil
		case <-ticker.C:
			dump(dec.PopAll())
		}
	}
}

func dump(records []stream.Record) {
	for _, r := range records {
		fmt.Printf("%d\t%.6f\t%.3f\t0x%08x\n", r.Index, r.Wavelength, r.Power, r.Status)
	}
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
