/*
Copyright 2024 Tim St. Pierre
*/
package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pulse presents nibble with RS and backlight as given and strobes EN.
func pulse(t *testing.T, m *Model, nibble byte, rs bool) {
	t.Helper()
	b := nibble<<4 | pinBacklight
	if rs {
		b |= pinRS
	}
	require.NoError(t, m.WriteByte(b|pinEN))
	require.NoError(t, m.WriteByte(b))
}

func send(t *testing.T, m *Model, b byte, rs bool) {
	t.Helper()
	pulse(t, m, b>>4, rs)
	pulse(t, m, b&0x0F, rs)
}

func bringUp(t *testing.T) *Model {
	m := New()
	for range 3 {
		pulse(t, m, 0x3, false)
	}
	pulse(t, m, 0x2, false)
	send(t, m, 0x28, false)
	return m
}

func TestPowerOnIs8Bit(t *testing.T) {
	m := New()
	assert.False(t, m.FourBit())
	// In 8-bit mode a single pulse is a whole instruction.
	pulse(t, m, 0x3, false)
	assert.False(t, m.FourBit())
	pulse(t, m, 0x2, false)
	assert.True(t, m.FourBit())
	assert.False(t, m.TwoLine())
}

func TestFourBitPairs(t *testing.T) {
	m := bringUp(t)
	assert.True(t, m.TwoLine())
	send(t, m, 0x80|0x45, false)
	assert.Equal(t, byte(0x45), m.Addr())
	send(t, m, 'Z', true)
	assert.Equal(t, "     Z              ", m.Row(1))
	assert.Equal(t, byte(0x46), m.Addr())
}

func TestLatchOnFallingEdgeOnly(t *testing.T) {
	m := bringUp(t)
	// Data on the pins without a strobe is ignored.
	require.NoError(t, m.WriteByte(0x41|pinBacklight))
	require.NoError(t, m.WriteByte(0x11|pinBacklight))
	assert.Equal(t, strings.Repeat(" ", 20), m.Row(0))
	assert.Len(t, m.Writes(), 8+4+2)
}

func TestAddressWrap(t *testing.T) {
	m := bringUp(t)
	send(t, m, 0x80|0x27, false)
	send(t, m, 'a', true)
	assert.Equal(t, byte(0x40), m.Addr())
	send(t, m, 0x80|0x67, false)
	send(t, m, 'b', true)
	assert.Equal(t, byte(0x00), m.Addr())

	send(t, m, 0x04, false) // decrement
	send(t, m, 'c', true)
	assert.Equal(t, byte(0x67), m.Addr())
}

func TestAddressInGapStaysInDDRAM(t *testing.T) {
	m := bringUp(t)
	send(t, m, 0x80|0x7F, false)
	assert.NotPanics(t, func() {
		send(t, m, 'x', true)
		send(t, m, 'y', true)
	})
	assert.Equal(t, byte(0x01), m.Addr())

	send(t, m, 0x04, false)
	send(t, m, 0x80|0x28, false)
	send(t, m, 'z', true)
	assert.Equal(t, byte(0x27), m.Addr())
}

func TestCommands(t *testing.T) {
	m := bringUp(t)
	send(t, m, 'x', true)
	send(t, m, 0x0E, false)
	on, cursor, blink := m.Display()
	assert.True(t, on)
	assert.True(t, cursor)
	assert.False(t, blink)

	send(t, m, 0x14, false) // cursor right
	assert.Equal(t, byte(0x02), m.Addr())
	send(t, m, 0x02, false) // home
	assert.Zero(t, m.Addr())
	assert.Equal(t, byte('x'), m.Row(0)[0])
	send(t, m, 0x01, false) // clear
	assert.Equal(t, strings.Repeat(" ", 20), m.Row(0))
}

func TestRender(t *testing.T) {
	m := bringUp(t)
	send(t, m, 'h', true)
	send(t, m, 'i', true)
	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf, nil))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "hi"+strings.Repeat(" ", 18))
}
