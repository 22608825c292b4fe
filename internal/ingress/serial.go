/*
Copyright 2024 Tim St. Pierre
*/
package ingress

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// Serial reads requests from a serial port, one per line.
type Serial struct {
	Device string
	Baud   int
}

func (s *Serial) String() string {
	return fmt.Sprintf("serial:%s@%d", s.Device, s.Baud)
}

func (s *Serial) Serve(ctx context.Context, w io.Writer) error {
	port, err := serial.OpenPort(&serial.Config{Name: s.Device, Baud: s.Baud})
	if err != nil {
		return fmt.Errorf("ingress: failed to open serial port %s: %w", s.Device, err)
	}
	defer port.Close()
	return serveReader(ctx, log.WithField("source", s.String()), port, w)
}
