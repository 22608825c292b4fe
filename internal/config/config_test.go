/*
Copyright 2024 Tim St. Pierre
*/
package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstpierre-tc/lcd2004"
)

const sample = `
log_level: debug
displays:
  - bus: "1"
    address: 0x3f
    font: 5x10
    backlight: false
    banner: ""
  - {}
ingress:
  files:
    - path: /run/lcd2004.fifo
      display: 1
  serial:
    - device: /dev/ttyUSB0
  tcp:
    - listen: ":2004"
      announce: true
  mqtt:
    - broker: broker.local:1883
      topic: lcd2004/0
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, c.Level())
	require.Len(t, c.Displays, 2)

	o, err := c.Displays[0].Opts()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3F), o.I2CAddr)
	assert.Equal(t, lcd2004.Font5x10, o.Font)
	assert.False(t, o.Backlight)
	assert.Empty(t, o.Banner)
	assert.Equal(t, "1", c.Displays[0].Bus)

	o, err = c.Displays[1].Opts()
	require.NoError(t, err)
	assert.Equal(t, lcd2004.DefaultOpts, o)

	assert.Equal(t, 9600, c.Ingress.Serial[0].Baud)
	assert.Equal(t, 1, c.Ingress.Files[0].Display)
	assert.True(t, c.Ingress.TCP[0].Announce)
	assert.Nil(t, c.Ingress.Stdin)
}

func TestValidate(t *testing.T) {
	for name, doc := range map[string]string{
		"level":    "log_level: loud\n",
		"font":     "displays: [{font: 8x8}]\n",
		"display":  "ingress: {tcp: [{listen: ':1', display: 2}]}\n",
		"path":     "ingress: {files: [{}]}\n",
		"device":   "ingress: {serial: [{}]}\n",
		"topic":    "ingress: {mqtt: [{broker: 'x:1883'}]}\n",
		"negative": "ingress: {stdin: {display: -1}}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcd2004.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Displays, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.Len(t, c.Displays, 1)
	assert.NotNil(t, c.Ingress.Stdin)
	assert.Equal(t, log.InfoLevel, c.Level())
}
