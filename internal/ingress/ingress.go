/*
Copyright 2024 Tim St. Pierre
Write request sources for the lcd2004 daemon
*/

// Package ingress feeds write requests to a display from byte streams,
// serial ports, TCP clients and MQTT topics.
//
// Every source hands each request to an io.Writer, normally an
// lcd2004.Dispatcher. A failed request is logged and the source keeps going;
// only a broken source returns from Serve.
package ingress

import (
	"bufio"
	"bytes"
	"context"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/tstpierre-tc/lcd2004"
)

// MaxRequest bounds one request. Longer input is dropped up to the next
// terminator.
const MaxRequest = 4096

// Source delivers requests to w until ctx is cancelled or its input ends.
type Source interface {
	Serve(ctx context.Context, w io.Writer) error
	String() string
}

// Stream reads requests framed by lcd2004.ScanRequests from R.
type Stream struct {
	Name string
	R    io.Reader
}

func (s *Stream) String() string {
	return "stream:" + s.Name
}

func (s *Stream) Serve(ctx context.Context, w io.Writer) error {
	return serveReader(ctx, log.WithField("source", s.String()), s.R, w)
}

// serveReader pumps r into w and returns as soon as ctx is cancelled, even
// when a Read is stuck on a file the runtime poller can't interrupt, such as
// a terminal. Closing r is tried first; if that doesn't unblock the Read the
// reading goroutine is abandoned and writes nothing more.
func serveReader(ctx context.Context, l *log.Entry, r io.Reader, w io.Writer) error {
	if c, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}
	done := make(chan error, 1)
	go func() { done <- pump(ctx, l, r, w) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

func pump(ctx context.Context, l *log.Entry, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256), 2*MaxRequest)
	sc.Split(boundedSplit(MaxRequest, func(n int) {
		l.Warnf("dropping request longer than %d bytes", n)
	}))
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := w.Write(sc.Bytes()); err != nil {
			l.WithError(err).Warnf("request %q failed", sc.Bytes())
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return sc.Err()
}

// boundedSplit wraps lcd2004.ScanRequests. Once max bytes are buffered
// without a terminator the request is reported to drop and discarded up to
// and including the next terminator.
func boundedSplit(max int, drop func(n int)) bufio.SplitFunc {
	skipping := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if skipping {
			if len(data) == 0 {
				return 0, nil, nil
			}
			i := bytes.IndexAny(data, "\n\x00")
			if i < 0 {
				return len(data), nil, nil
			}
			skipping = false
			return i + 1, nil, nil
		}
		advance, token, err := lcd2004.ScanRequests(data, atEOF)
		switch {
		case err != nil:
			return 0, nil, err
		case token == nil && advance == 0 && len(data) >= max:
			skipping = true
			drop(len(data))
			return len(data), nil, nil
		case len(token) > max:
			drop(len(token))
			return advance, nil, nil
		}
		return advance, token, err
	}
}
