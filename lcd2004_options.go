/*
Copyright 2024 Tim St. Pierre
Options for lcd2004 character display
*/
package lcd2004

import (
	"fmt"
)

// Font selects the character matrix.
type Font uint8

const (
	Font5x8 Font = iota
	Font5x10
)

type Opts struct {
	// The I²C slave address
	I2CAddr uint16
	// How many lines does the display have
	Lines uint8
	Cols  uint8
	Font  Font
	// Backlight state used from the first write on
	Backlight bool
	// Shown on the first row once the controller is up, skipped when empty
	Banner string
}

var DefaultOpts = Opts{
	I2CAddr:   0x27,
	Lines:     Lines,
	Cols:      20,
	Font:      Font5x8,
	Backlight: true,
	Banner:    "hola",
}

func (o *Opts) i2cAddr() (uint16, error) {
	switch o.I2CAddr {
	case 0:
		// Default address.
		return 0x27, nil
	case 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27:
		return o.I2CAddr, nil
	case 0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E, 0x3F:
		// PCF8574A
		return o.I2CAddr, nil
	default:
		return 0, ErrAddress
	}
}

func (o *Opts) validate() error {
	if o.Lines == 0 || o.Lines > Lines {
		return fmt.Errorf("lcd2004: device does not support %d lines", o.Lines)
	}
	if o.Cols == 0 || o.Cols > lineWidth {
		return fmt.Errorf("lcd2004: device does not support %d cols", o.Cols)
	}
	if o.Font != Font5x8 && o.Font != Font5x10 {
		return fmt.Errorf("lcd2004: unknown font %d", o.Font)
	}
	return nil
}

// ParseFont maps "5x8" and "5x10" to a Font.
func ParseFont(s string) (Font, error) {
	switch s {
	case "", "5x8":
		return Font5x8, nil
	case "5x10":
		return Font5x10, nil
	default:
		return 0, fmt.Errorf("lcd2004: unknown font %q", s)
	}
}
