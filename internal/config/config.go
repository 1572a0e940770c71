// Package config loads the instrument endpoint file used by the cmd tools.
// Runtime state is never persisted; the file only names instruments and how
// to reach them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var (
	ErrInvalid           = errors.New("config: invalid instrument config")
	ErrUnknownInstrument = errors.New("config: unknown instrument")
)

const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"

	ProtocolSCPI   = "scpi"
	ProtocolFramed = "framed"
	ProtocolStream = "stream"
)

type Defaults struct {
	Timeout    time.Duration
	Terminator string
}

type Instrument struct {
	Name       string
	Transport  string
	Address    string // tcp host:port
	Device     string // serial device path
	Baud       int
	Protocol   string
	Terminator string
	Timeout    time.Duration
}

type Config struct {
	Defaults    Defaults
	Instruments []Instrument
}

// Instrument looks one entry up by name.
func (c Config) Instrument(name string) (Instrument, error) {
	for _, inst := range c.Instruments {
		if inst.Name == name {
			return inst, nil
		}
	}
	return Instrument{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
}

type rawDefaults struct {
	Timeout    string `toml:"timeout"`
	Terminator string `toml:"terminator"`
}

type rawInstrument struct {
	Name       string `toml:"name"`
	Transport  string `toml:"transport"`
	Address    string `toml:"address"`
	Device     string `toml:"device"`
	Baud       int    `toml:"baud"`
	Protocol   string `toml:"protocol"`
	Terminator string `toml:"terminator"`
	Timeout    string `toml:"timeout"`
}

type rawConfig struct {
	Defaults    rawDefaults     `toml:"defaults"`
	Instruments []rawInstrument `toml:"instrument"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	cfg := Config{
		Defaults: Defaults{
			Timeout:    3 * time.Second,
			Terminator: "\n",
		},
	}
	if raw.Defaults.Timeout != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Defaults.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("%w: defaults.timeout: %v", ErrInvalid, err)
		}
		cfg.Defaults.Timeout = d
	}
	if raw.Defaults.Terminator != "" {
		cfg.Defaults.Terminator = raw.Defaults.Terminator
	}

	for i, ri := range raw.Instruments {
		inst, err := buildInstrument(ri, cfg.Defaults)
		if err != nil {
			return Config{}, fmt.Errorf("instrument[%d]: %w", i, err)
		}
		cfg.Instruments = append(cfg.Instruments, inst)
	}
	return cfg, nil
}

func buildInstrument(ri rawInstrument, def Defaults) (Instrument, error) {
	inst := Instrument{
		Name:       strings.TrimSpace(ri.Name),
		Transport:  strings.ToLower(strings.TrimSpace(ri.Transport)),
		Address:    strings.TrimSpace(ri.Address),
		Device:     strings.TrimSpace(ri.Device),
		Baud:       ri.Baud,
		Protocol:   strings.ToLower(strings.TrimSpace(ri.Protocol)),
		Terminator: def.Terminator,
		Timeout:    def.Timeout,
	}
	if inst.Name == "" {
		return Instrument{}, fmt.Errorf("%w: missing name", ErrInvalid)
	}
	switch inst.Transport {
	case TransportTCP:
		if inst.Address == "" {
			return Instrument{}, fmt.Errorf("%w: %s needs address", ErrInvalid, inst.Name)
		}
	case TransportSerial:
		if inst.Device == "" {
			return Instrument{}, fmt.Errorf("%w: %s needs device", ErrInvalid, inst.Name)
		}
		if inst.Baud == 0 {
			inst.Baud = 115200
		}
	default:
		return Instrument{}, fmt.Errorf("%w: %s has unknown transport %q", ErrInvalid, inst.Name, ri.Transport)
	}
	switch inst.Protocol {
	case ProtocolSCPI, ProtocolFramed, ProtocolStream:
	default:
		return Instrument{}, fmt.Errorf("%w: %s has unknown protocol %q", ErrInvalid, inst.Name, ri.Protocol)
	}
	if ri.Terminator != "" {
		inst.Terminator = ri.Terminator
	}
	if ri.Timeout != "" {
		d, err := time.ParseDuration(strings.TrimSpace(ri.Timeout))
		if err != nil {
			return Instrument{}, fmt.Errorf("%w: %s timeout: %v", ErrInvalid, inst.Name, err)
		}
		inst.Timeout = d
	}
	return inst, nil
}
