/*
Copyright 2024 Tim St. Pierre
Controls a 2004 character LCD display (HD44780) using a PCF8574 I2C backpack
*/

// Package lcd2004 drives a 20x4 HD44780 character display wired to a PCF8574
// I/O expander, in 4-bit mode.
//
// Every operation is open-loop: the busy flag is never read, fixed worst-case
// delays follow each command instead.
package lcd2004

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"tinygo.org/x/drivers"
)

const (
	// Commands
	CMD_Clear_Display        = 0x01
	CMD_Return_Home          = 0x02
	CMD_Entry_Mode           = 0x04
	CMD_Display_Control      = 0x08
	CMD_Cursor_Display_Shift = 0x10
	CMD_Function_Set         = 0x20
	CMD_DDRAM_Set            = 0x80

	// Options
	OPT_Increment      = 0x02 // CMD_Entry_Mode
	OPT_Cursor_Shift   = 0x01 // CMD_Entry_Mode
	OPT_Enable_Display = 0x04 // CMD_Display_Control
	OPT_Enable_Cursor  = 0x02 // CMD_Display_Control
	OPT_Enable_Blink   = 0x01 // CMD_Display_Control
	OPT_Display_Shift  = 0x08 // CMD_Cursor_Display_Shift
	OPT_Shift_Right    = 0x04 // CMD_Cursor_Display_Shift 0 = Left
	OPT_8_Bit          = 0x10 // CMD_Function_Set 0 = 4 bit
	OPT_2_Lines        = 0x08 // CMD_Function_Set 0 = 1 line
	OPT_5x10_Dots      = 0x04 // CMD_Function_Set 0 = 5x8 dots

	// Pins
	EN        = 2
	WR        = 1
	RS        = 0
	D4        = 4
	D5        = 5
	D6        = 6
	D7        = 7
	BACKLIGHT = 3
)

// Timing of the controller. These are worst case values for the HD44780
// generation, they stand in for busy flag polling.
const (
	initDelay   = 5 * time.Millisecond
	shortDelay  = 60 * time.Microsecond
	longDelay   = 3 * time.Millisecond
	toggleDelay = 1 * time.Microsecond
)

// Dev is one display instance.
//
// Dev is not safe for concurrent use. A logical operation such as GotoXY
// followed by PutString must run without any other write to the same expander
// in between; callers that share a Dev must serialize, which Dispatcher does.
type Dev struct {
	name      string
	backlight bool
	w         io.ByteWriter
	lines     *[Lines]byte
	opts      Opts
	sleep     func(time.Duration)
	log       *log.Entry
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcd2004{%s}", d.name)
}

// Name returns the instance name, lcd2004-NN.
func (d *Dev) Name() string {
	return d.name
}

// NewI2C returns a new device that talks to a PCF8574 over I²C.
//
// ordinal is assigned by the caller and only used to name the instance. Use
// default options if nil is used.
func NewI2C(b i2c.Bus, ordinal int, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr, err := opts.i2cAddr()
	if err != nil {
		return nil, fmt.Errorf("lcd2004 %#x: %w", opts.I2CAddr, err)
	}
	return New(&i2cExpander{c: &i2c.Dev{Bus: b, Addr: addr}}, ordinal, opts)
}

// NewTinyGo returns a new device on a TinyGo I²C bus, such as machine.I2C0.
func NewTinyGo(b drivers.I2C, ordinal int, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr, err := opts.i2cAddr()
	if err != nil {
		return nil, fmt.Errorf("lcd2004 %#x: %w", opts.I2CAddr, err)
	}
	return New(&tinygoExpander{bus: b, addr: addr}, ordinal, opts)
}

// New brings up a display reachable through w, which must deliver each byte
// to the expander output pins in order.
//
// The controller is initialized and the banner from opts is shown on the
// first row.
func New(w io.ByteWriter, ordinal int, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	d := makeDev(w, ordinal, opts)
	d.log.Debug("probe")
	if err := d.Initialize(); err != nil {
		return nil, err
	}
	if opts.Banner != "" {
		if err := d.GotoXY(0, 0); err != nil {
			return nil, err
		}
		if err := d.PutString(opts.Banner); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func makeDev(w io.ByteWriter, ordinal int, opts *Opts) *Dev {
	name := fmt.Sprintf("lcd2004-%02d", ordinal)
	return &Dev{
		name:      name,
		backlight: opts.Backlight,
		w:         w,
		lines:     &lineAddr,
		opts:      *opts,
		sleep:     time.Sleep,
		log:       log.WithField("device", name),
	}
}

// Halt clears the screen and turns the backlight off.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	return d.SetBacklight(false)
}

// Initialize runs the 4-bit mode bring-up handshake, then leaves the display
// cleared, on, with a blinking cursor.
//
// The order is fixed by the controller's power-on reset behaviour; a
// controller left in 8-bit mode misreads everything after this.
func (d *Dev) Initialize() error {
	d.log.Debug("initialize")
	for range 3 {
		if err := d.writeNibble((CMD_Function_Set|OPT_8_Bit)>>4, false); err != nil {
			return err
		}
		d.sleep(initDelay)
	}
	if err := d.writeNibble(CMD_Function_Set>>4, false); err != nil {
		return err
	}
	d.sleep(shortDelay)

	fs := byte(CMD_Function_Set)
	if d.opts.Lines > 1 {
		fs |= OPT_2_Lines
	}
	if d.opts.Font == Font5x10 {
		fs |= OPT_5x10_Dots
	}
	if err := d.command(fs, shortDelay); err != nil {
		return err
	}
	if err := d.DisplayControl(false, false, false); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.EntryMode(true, false); err != nil {
		return err
	}
	return d.DisplayControl(true, true, true)
}

// Clear blanks the display and moves the cursor to the first cell.
func (d *Dev) Clear() error {
	return d.command(CMD_Clear_Display, longDelay)
}

// Home moves the cursor to the first cell and undoes any display shift.
func (d *Dev) Home() error {
	return d.command(CMD_Return_Home, longDelay)
}

// GotoXY moves the cursor to column col of row, both counted from 0.
func (d *Dev) GotoXY(col, row uint8) error {
	if row >= d.opts.Lines || col >= d.opts.Cols {
		return fmt.Errorf("lcd2004 %s: position (%d,%d): %w", d.name, col, row, ErrAddressOutOfRange)
	}
	return d.command(CMD_DDRAM_Set|(d.lines[row]+col), shortDelay)
}

// DisplayControl switches the display, the cursor and cursor blinking.
func (d *Dev) DisplayControl(on, cursor, blink bool) error {
	option := byte(CMD_Display_Control)
	if on {
		option |= OPT_Enable_Display
	}
	if cursor {
		option |= OPT_Enable_Cursor
	}
	if blink {
		option |= OPT_Enable_Blink
	}
	return d.command(option, shortDelay)
}

// EntryMode sets the cursor direction after each character and whether the
// display shifts along with it.
func (d *Dev) EntryMode(increment, shift bool) error {
	option := byte(CMD_Entry_Mode)
	if increment {
		option |= OPT_Increment
	}
	if shift {
		option |= OPT_Cursor_Shift
	}
	return d.command(option, shortDelay)
}

// Shift moves the cursor, or the whole display when display is true, by one
// position without touching DDRAM.
func (d *Dev) Shift(display, right bool) error {
	option := byte(CMD_Cursor_Display_Shift)
	if display {
		option |= OPT_Display_Shift
	}
	if right {
		option |= OPT_Shift_Right
	}
	return d.command(option, shortDelay)
}

// SetBacklight turns the backlight on or off. The state sticks to every write
// that follows.
func (d *Dev) SetBacklight(on bool) error {
	if err := d.w.WriteByte(pinInterpret(BACKLIGHT, 0x00, on)); err != nil {
		return fmt.Errorf("lcd2004 %s: %w: %w", d.name, ErrBus, err)
	}
	d.backlight = on
	return nil
}

// PutChar writes one character at the cursor.
func (d *Dev) PutChar(c byte) error {
	if err := d.writeByte(c, true); err != nil {
		return err
	}
	d.sleep(shortDelay)
	return nil
}

// PutString writes s one character at a time and stops at the first failure.
// A failure leaves the characters already written on the display.
func (d *Dev) PutString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.PutChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Write puts p on the display as raw characters from the cursor on. Control
// tokens are not interpreted; use a Dispatcher for that.
func (d *Dev) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := d.PutChar(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (d *Dev) command(data byte, delay time.Duration) error {
	if err := d.writeByte(data, false); err != nil {
		return err
	}
	d.sleep(delay)
	return nil
}

// writeByte sends the high nibble, then the low nibble.
func (d *Dev) writeByte(data byte, rs bool) error {
	d.log.Debugf("Writing %b %x", data, data)
	if err := d.writeNibble(data>>4, rs); err != nil {
		return err
	}
	return d.writeNibble(data&0x0F, rs)
}

// writeNibble presents the low 4 bits of nibble on D4..D7 and strobes EN.
// Exactly two expander writes are made; the second is skipped if the first
// fails.
func (d *Dev) writeNibble(nibble byte, rs bool) error {
	data := encodeNibble(nibble, rs, d.backlight)
	if err := d.w.WriteByte(pinInterpret(EN, data, true)); err != nil {
		return fmt.Errorf("lcd2004 %s: %w: %w", d.name, ErrBus, err)
	}
	d.sleep(toggleDelay)
	if err := d.w.WriteByte(data); err != nil {
		return fmt.Errorf("lcd2004 %s: %w: %w", d.name, ErrBus, err)
	}
	d.sleep(toggleDelay)
	return nil
}

// encodeNibble lays out one expander byte with the strobe low:
// D7 D6 D5 D4 BACKLIGHT EN WR RS.
func encodeNibble(nibble byte, rs, backlight bool) byte {
	var data byte
	data = pinInterpret(D4, data, nibble&0x01 == 0x01)
	data = pinInterpret(D5, data, (nibble>>1)&0x01 == 0x01)
	data = pinInterpret(D6, data, (nibble>>2)&0x01 == 0x01)
	data = pinInterpret(D7, data, (nibble>>3)&0x01 == 0x01)
	data = pinInterpret(RS, data, rs)
	data = pinInterpret(BACKLIGHT, data, backlight)
	return data
}

// pinInterpret sets or clears one expander pin in data.
func pinInterpret(pin, data byte, value bool) byte {
	var mask byte = 0x01 << pin
	if value {
		return data | mask
	}
	return data &^ mask
}

var _ conn.Resource = &Dev{}
var _ Display = &Dev{}
var _ io.Writer = &Dev{}
