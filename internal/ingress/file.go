/*
Copyright 2024 Tim St. Pierre
*/
package ingress

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// File replays a regular file once, or reads a named pipe until ctx is
// cancelled.
type File struct {
	Path string
}

func (f *File) String() string {
	return "file:" + f.Path
}

func (f *File) Serve(ctx context.Context, w io.Writer) error {
	fi, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("ingress: %w", err)
	}
	flag := os.O_RDONLY
	if fi.Mode()&os.ModeNamedPipe != 0 {
		// Holding the write end as well keeps the pipe from reporting EOF
		// each time a writer goes away.
		flag = os.O_RDWR
	}
	fd, err := os.OpenFile(f.Path, flag, 0)
	if err != nil {
		return fmt.Errorf("ingress: %w", err)
	}
	defer fd.Close()
	return serveReader(ctx, log.WithField("source", f.String()), fd, w)
}
