/*
Copyright 2024 Tim St. Pierre
Register write primitives for the PCF8574
*/
package lcd2004

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3"
	"tinygo.org/x/drivers"
)

// The PCF8574 has no registers. A write transaction of one byte sets all
// eight output pins at once, which is the only primitive the driver needs.

type i2cExpander struct {
	c conn.Conn
}

func (e *i2cExpander) WriteByte(b byte) error {
	return e.c.Tx([]byte{b}, nil)
}

func (e *i2cExpander) String() string {
	return fmt.Sprintf("pcf8574{%s}", e.c)
}

type tinygoExpander struct {
	bus  drivers.I2C
	addr uint16
}

func (e *tinygoExpander) WriteByte(b byte) error {
	return e.bus.Tx(e.addr, []byte{b}, nil)
}

var _ io.ByteWriter = &i2cExpander{}
var _ io.ByteWriter = &tinygoExpander{}
