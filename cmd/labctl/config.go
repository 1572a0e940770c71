package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// toolDefaults are labctl's own fallbacks, applied wherever a flag was left
// unset. They are distinct from the instrument endpoint file they point at.
type toolDefaults struct {
	Config     string
	Instrument string
	Command    string
	Timeout    time.Duration
	Discard    bool
}

func builtinDefaults() toolDefaults {
	return toolDefaults{
		Config:  "labcomm.toml",
		Command: "*IDN?",
	}
}

type fileDefaults struct {
	Config     string `toml:"config"`
	Instrument string `toml:"instrument"`
	Command    string `toml:"command"`
	Timeout    string `toml:"timeout"`
	Discard    bool   `toml:"discard"`
}

func loadToolDefaults(path string) (toolDefaults, error) {
	def := builtinDefaults()

	var raw fileDefaults
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return toolDefaults{}, fmt.Errorf("load labctl defaults: %w", err)
	}

	if meta.IsDefined("config") {
		if v := strings.TrimSpace(raw.Config); v != "" {
			def.Config = v
		}
	}

	if meta.IsDefined("instrument") {
		def.Instrument = strings.TrimSpace(raw.Instrument)
	}

	if meta.IsDefined("command") {
		if v := strings.TrimSpace(raw.Command); v != "" {
			def.Command = v
		}
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return toolDefaults{}, fmt.Errorf("parse timeout: %w", err)
		}
		def.Timeout = d
	}

	if meta.IsDefined("discard") {
		def.Discard = raw.Discard
	}

	return def, nil
}
