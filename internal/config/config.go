/*
Copyright 2024 Tim St. Pierre
Configuration of the lcd2004 daemon
*/

// Package config loads the YAML configuration of lcd2004d.
//
// A minimal file names one display and one way to reach it:
//
//	displays:
//	  - bus: ""
//	    address: 0x27
//	ingress:
//	  tcp:
//	    - listen: ":2004"
//	      announce: true
package config

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tstpierre-tc/lcd2004"
)

type Config struct {
	LogLevel string    `yaml:"log_level"`
	Simulate bool      `yaml:"simulate"`
	Displays []Display `yaml:"displays"`
	Ingress  Ingress   `yaml:"ingress"`
}

// Display is one PCF8574 backpack. Its index in Config.Displays is the
// ordinal used in the instance name.
type Display struct {
	// Bus is the periph i2creg name, "" for the default bus.
	Bus       string  `yaml:"bus"`
	Address   uint16  `yaml:"address"`
	Lines     uint8   `yaml:"lines"`
	Cols      uint8   `yaml:"cols"`
	Font      string  `yaml:"font"`
	Backlight *bool   `yaml:"backlight"`
	Banner    *string `yaml:"banner"`
}

type Ingress struct {
	Stdin  *Stdin   `yaml:"stdin"`
	Files  []File   `yaml:"files"`
	Serial []Serial `yaml:"serial"`
	TCP    []TCP    `yaml:"tcp"`
	MQTT   []MQTT   `yaml:"mqtt"`
}

type Stdin struct {
	Display int `yaml:"display"`
}

// File is a regular file replayed once or a named pipe read forever.
type File struct {
	Path    string `yaml:"path"`
	Display int    `yaml:"display"`
}

type Serial struct {
	Device  string `yaml:"device"`
	Baud    int    `yaml:"baud"`
	Display int    `yaml:"display"`
}

type TCP struct {
	Listen   string `yaml:"listen"`
	Announce bool   `yaml:"announce"`
	Instance string `yaml:"instance"`
	Display  int    `yaml:"display"`
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Display  int    `yaml:"display"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes data, fills in defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default is the configuration used without a file: one display on the
// default bus fed from stdin.
func Default() *Config {
	c := &Config{Ingress: Ingress{Stdin: &Stdin{}}}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.Displays) == 0 {
		c.Displays = []Display{{}}
	}
	for i := range c.Displays {
		d := &c.Displays[i]
		if d.Address == 0 {
			d.Address = lcd2004.DefaultOpts.I2CAddr
		}
		if d.Lines == 0 {
			d.Lines = lcd2004.DefaultOpts.Lines
		}
		if d.Cols == 0 {
			d.Cols = lcd2004.DefaultOpts.Cols
		}
	}
	for i := range c.Ingress.Serial {
		if c.Ingress.Serial[i].Baud == 0 {
			c.Ingress.Serial[i].Baud = 9600
		}
	}
}

// Validate checks that every ingress points at a configured display.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var errs []error
	for i, d := range c.Displays {
		if _, err := lcd2004.ParseFont(d.Font); err != nil {
			errs = append(errs, fmt.Errorf("displays[%d]: %w", i, err))
		}
	}
	check := func(kind string, i, display int) {
		if display < 0 || display >= len(c.Displays) {
			errs = append(errs, fmt.Errorf("ingress.%s[%d]: no display %d", kind, i, display))
		}
	}
	if c.Ingress.Stdin != nil {
		check("stdin", 0, c.Ingress.Stdin.Display)
	}
	for i, f := range c.Ingress.Files {
		check("files", i, f.Display)
		if f.Path == "" {
			errs = append(errs, fmt.Errorf("ingress.files[%d]: path is required", i))
		}
	}
	for i, s := range c.Ingress.Serial {
		check("serial", i, s.Display)
		if s.Device == "" {
			errs = append(errs, fmt.Errorf("ingress.serial[%d]: device is required", i))
		}
	}
	for i, t := range c.Ingress.TCP {
		check("tcp", i, t.Display)
		if t.Listen == "" {
			errs = append(errs, fmt.Errorf("ingress.tcp[%d]: listen is required", i))
		}
	}
	for i, m := range c.Ingress.MQTT {
		check("mqtt", i, m.Display)
		if m.Broker == "" || m.Topic == "" {
			errs = append(errs, fmt.Errorf("ingress.mqtt[%d]: broker and topic are required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Level returns the configured logrus level.
func (c *Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// Opts converts d to driver options.
func (d *Display) Opts() (lcd2004.Opts, error) {
	o := lcd2004.DefaultOpts
	o.I2CAddr = d.Address
	o.Lines = d.Lines
	o.Cols = d.Cols
	f, err := lcd2004.ParseFont(d.Font)
	if err != nil {
		return o, err
	}
	o.Font = f
	if d.Backlight != nil {
		o.Backlight = *d.Backlight
	}
	if d.Banner != nil {
		o.Banner = *d.Banner
	}
	return o, nil
}
