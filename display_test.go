/*
Copyright 2024 Tim St. Pierre
*/
package lcd2004_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tstpierre-tc/lcd2004"
	"github.com/tstpierre-tc/lcd2004/internal/sim"
)

func pad(s string) string {
	return s + strings.Repeat(" ", 20-len(s))
}

func TestBringUp(t *testing.T) {
	m := sim.New()
	d, err := lcd2004.New(m, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "lcd2004-00", d.Name())

	assert.True(t, m.FourBit())
	assert.True(t, m.TwoLine())
	on, cursor, blink := m.Display()
	assert.True(t, on)
	assert.True(t, cursor)
	assert.True(t, blink)
	assert.True(t, m.Backlight())
	assert.Equal(t, []string{pad("hola"), pad(""), pad(""), pad("")}, m.Rows())
}

func TestClockSession(t *testing.T) {
	m := sim.New()
	d, err := lcd2004.New(m, 0, nil)
	require.NoError(t, err)
	p := lcd2004.NewDispatcher(d)

	for _, req := range []string{
		"___0\x00",
		"___1\x00", "MSE-6co2021-IMD\x00",
		"___2\x00", "LCD2004 Driver\x00",
		"___3\x00", "Date: 18/10/126\x00",
		"___4\x00", "Time: 12:34:56\x00",
		"___4\x00", "Time: 12:34:57\x00",
	} {
		n, err := p.Write([]byte(req))
		require.NoError(t, err)
		assert.Equal(t, len(req), n)
	}
	assert.Equal(t, []string{
		pad("MSE-6co2021-IMD"),
		pad("LCD2004 Driver"),
		pad("Date: 18/10/126"),
		pad("Time: 12:34:57"),
	}, m.Rows())
}

func TestInvalidCommandShown(t *testing.T) {
	m := sim.New()
	d, err := lcd2004.New(m, 0, &lcd2004.Opts{Lines: 4, Cols: 20, Backlight: true})
	require.NoError(t, err)
	p := lcd2004.NewDispatcher(d)
	_, err = p.Write([]byte("___2\n"))
	require.NoError(t, err)
	_, err = p.Write([]byte("___9\n"))
	require.NoError(t, err)
	assert.Equal(t, pad("Invalid command"), m.Row(1))
	assert.Equal(t, pad(""), m.Row(0))
}

// Text running past the end of row 0 continues on row 2, which is where the
// controller keeps the next 20 bytes of the first bank.
func TestRowOverflow(t *testing.T) {
	m := sim.New()
	d, err := lcd2004.New(m, 0, &lcd2004.Opts{Lines: 4, Cols: 20})
	require.NoError(t, err)
	require.NoError(t, d.GotoXY(0, 0))
	require.NoError(t, d.PutString("abcdefghijklmnopqrstUVWXY"))
	assert.Equal(t, "abcdefghijklmnopqrst", m.Row(0))
	assert.Equal(t, pad("UVWXY"), m.Row(2))
	assert.Equal(t, pad(""), m.Row(1))
	assert.False(t, m.Backlight())
}

func TestGotoEveryCell(t *testing.T) {
	m := sim.New()
	d, err := lcd2004.New(m, 0, &lcd2004.Opts{Lines: 4, Cols: 20, Backlight: true})
	require.NoError(t, err)
	for row := range uint8(4) {
		for col := range uint8(20) {
			require.NoError(t, d.GotoXY(col, row))
			require.NoError(t, d.PutChar('0'+row))
		}
	}
	for row := range 4 {
		assert.Equal(t, strings.Repeat(string(rune('0'+row)), 20), m.Row(row))
	}
}

func TestHaltBlanks(t *testing.T) {
	m := sim.New()
	d, err := lcd2004.New(m, 0, nil)
	require.NoError(t, err)
	require.NoError(t, d.Halt())
	assert.False(t, m.Backlight())
	assert.Equal(t, pad(""), m.Row(0))
	assert.Zero(t, m.Addr())
}
