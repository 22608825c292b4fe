/*
Copyright 2024 Tim St. Pierre
Behavioural model of an HD44780 behind a PCF8574
*/

// Package sim models a 20x4 HD44780 wired to a PCF8574 backpack.
//
// A Model accepts the raw expander bytes a driver writes and decodes them the
// way the controller would: instructions latch on the falling edge of EN, the
// controller powers up in 8-bit mode and pairs nibbles once it has been
// switched to 4-bit mode. The resulting DDRAM can be read back as text.
package sim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
)

const (
	pinRS        = 0x01
	pinEN        = 0x04
	pinBacklight = 0x08

	rows = 4
	cols = 20
)

var rowAddr = [rows]byte{0x00, 0x40, 0x14, 0x54}

// Model is safe for concurrent use.
type Model struct {
	mu sync.Mutex

	writes []byte
	last   byte

	fourBit   bool
	haveHigh  bool
	high      byte
	twoLine   bool
	ddram     [0x80]byte
	addr      byte
	increment bool
	shift     bool
	on        bool
	cursor    bool
	blink     bool
}

// New returns a controller right after power-on.
func New() *Model {
	m := &Model{increment: true}
	m.clear()
	return m
}

// WriteByte sets the expander pins to b.
func (m *Model) WriteByte(b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, b)
	if m.last&pinEN != 0 && b&pinEN == 0 {
		m.latch(b>>4, b&pinRS != 0)
	}
	m.last = b
	return nil
}

// Writes returns a copy of every byte written so far.
func (m *Model) Writes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.writes...)
}

// Backlight reports the backlight pin.
func (m *Model) Backlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last&pinBacklight != 0
}

// FourBit reports whether the controller has been switched to 4-bit mode.
func (m *Model) FourBit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fourBit
}

// TwoLine reports the line mode from the last function set.
func (m *Model) TwoLine() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.twoLine
}

// Display reports display, cursor and blink from the last display control.
func (m *Model) Display() (on, cursor, blink bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on, m.cursor, m.blink
}

// Addr returns the DDRAM address counter.
func (m *Model) Addr() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// Row returns the 20 characters shown on row r.
func (m *Model) Row(r int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := rowAddr[r]
	return string(m.ddram[a : a+cols])
}

// Rows returns all rows.
func (m *Model) Rows() []string {
	out := make([]string, rows)
	for r := range out {
		out[r] = m.Row(r)
	}
	return out
}

func (m *Model) latch(nibble byte, rs bool) {
	if !m.fourBit {
		// D0..D3 aren't wired, the controller reads them as 0.
		m.exec(nibble<<4, rs)
		return
	}
	if !m.haveHigh {
		m.high = nibble
		m.haveHigh = true
		return
	}
	m.haveHigh = false
	m.exec(m.high<<4|nibble, rs)
}

func (m *Model) exec(b byte, rs bool) {
	if rs {
		m.ddram[m.addr] = b
		m.step(m.increment)
		return
	}
	switch {
	case b&0x80 != 0:
		m.addr = b & 0x7F
	case b&0x40 != 0:
		// CGRAM address, no glyphs are modelled
	case b&0x20 != 0:
		m.fourBit = b&0x10 == 0
		m.twoLine = b&0x08 != 0
	case b&0x10 != 0:
		if b&0x08 == 0 {
			m.step(b&0x04 != 0)
		}
	case b&0x08 != 0:
		m.on = b&0x04 != 0
		m.cursor = b&0x02 != 0
		m.blink = b&0x01 != 0
	case b&0x04 != 0:
		m.increment = b&0x02 != 0
		m.shift = b&0x01 != 0
	case b&0x02 != 0:
		m.addr = 0
	case b&0x01 != 0:
		m.clear()
	}
}

func (m *Model) clear() {
	for i := range m.ddram {
		m.ddram[i] = ' '
	}
	m.addr = 0
	m.increment = true
}

// step moves the address counter the way a 2-line controller does: 0x00-0x27
// then 0x40-0x67, wrapping around. An address set into a gap stays inside
// DDRAM.
func (m *Model) step(up bool) {
	switch {
	case up && m.addr == 0x27:
		m.addr = 0x40
	case up && m.addr == 0x67:
		m.addr = 0x00
	case up:
		m.addr = (m.addr + 1) & 0x7F
	case m.addr == 0x40:
		m.addr = 0x27
	case m.addr == 0x00:
		m.addr = 0x67
	default:
		m.addr = (m.addr - 1) & 0x7F
	}
}

var (
	backlightOn  = color.NRGBA{0x40, 0xC0, 0x40, 0xFF}
	backlightOff = color.NRGBA{0x30, 0x30, 0x30, 0xFF}
)

// Render draws the display at w, framed in the backlight colour.
func (m *Model) Render(w io.Writer, p *ansi256.Palette) error {
	if p == nil {
		p = ansi256.Default
	}
	bg := backlightOff
	if m.Backlight() {
		bg = backlightOn
	}
	var buf bytes.Buffer
	edge := p.Block(bg)
	for _, row := range m.Rows() {
		fmt.Fprintf(&buf, "%s\033[0m%s%s\033[0m\n", edge, row, edge)
	}
	_, err := buf.WriteTo(w)
	return err
}

var _ io.ByteWriter = &Model{}
