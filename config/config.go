package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"osc2midi/codec"
	"osc2midi/errs"
	"osc2midi/session"
)

// DefaultOutIP is the placeholder target shown before one is chosen.
const DefaultOutIP = "192.168.0.0"

// Port is a UDP port number. It decodes from a JSON number, a numeric
// string, or "" (unset, 0).
type Port int

func (p *Port) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*p = 0
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.Errorf("port %s is not a number", string(b))
	}
	*p = Port(n)
	return nil
}

// Config is the main configuration structure
type Config struct {
	OSCInPort      Port   `json:"osc_in_port"`
	MIDIInputPort  string `json:"midi_input_port"`
	MIDIOutputPort string `json:"midi_output_port"`
	OSCOutIP       string `json:"osc_out_ip"`
	OSCOutPort     Port   `json:"osc_out_port"`

	// OSCInIP overrides the discovered interface address.
	OSCInIP  string `json:"osc_in_ip,omitempty"`
	Emit     string `json:"emit,omitempty"`
	LogLevel string `json:"log_level,omitempty"`
	Debug    bool   `json:"debug,omitempty"`
	Palette  string `json:"palette,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OSCOutIP: DefaultOutIP,
		Emit:     codec.EmitBoth.String(),
		LogLevel: "info",
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "osc2midi"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields defaults; keys
// absent from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errs.E(errs.InvalidConfig, "parse "+path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// SessionConfig builds the session snapshot. listenIP is used when the file
// does not override it.
func (c *Config) SessionConfig(listenIP string) (session.Config, error) {
	emit, err := codec.ParsePolicy(c.Emit)
	if err != nil {
		return session.Config{}, err
	}
	if c.OSCInIP != "" {
		listenIP = c.OSCInIP
	}
	return session.Config{
		ListenAddr: listenIP,
		ListenPort: int(c.OSCInPort),
		TargetIP:   strings.TrimSpace(c.OSCOutIP),
		TargetPort: int(c.OSCOutPort),
		MIDIIn:     c.MIDIInputPort,
		MIDIOut:    c.MIDIOutputPort,
		Emit:       emit,
	}, nil
}

// Remember copies the values of a started session back into the config so
// the next launch starts with them.
func (c *Config) Remember(sc session.Config) {
	c.OSCInPort = Port(sc.ListenPort)
	c.OSCOutIP = sc.TargetIP
	c.OSCOutPort = Port(sc.TargetPort)
	c.MIDIInputPort = sc.MIDIIn
	c.MIDIOutputPort = sc.MIDIOut
	c.Emit = sc.Emit.String()
}
