/*
Copyright 2024 Tim St. Pierre
*/
package ingress

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// ServiceType is announced over mDNS for TCP sources.
	ServiceType = "_lcd2004._tcp"
	Domain      = "local."
)

// TCP accepts any number of clients; each connection is a stream of
// requests. Requests from different clients interleave, never mix.
type TCP struct {
	// Announce registers the listener over mDNS as Instance.
	Announce bool
	Instance string
	// Text goes into the TXT record.
	Text []string

	ln net.Listener
}

// ListenTCP opens the listening socket right away so the bound address is
// known before Serve.
func ListenTCP(addr string) (*TCP, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ingress: %w", err)
	}
	return &TCP{ln: ln}, nil
}

func (t *TCP) Addr() net.Addr {
	return t.ln.Addr()
}

func (t *TCP) String() string {
	return "tcp:" + t.ln.Addr().String()
}

func (t *TCP) Serve(ctx context.Context, w io.Writer) error {
	l := log.WithField("source", t.String())
	if t.Announce {
		port := t.ln.Addr().(*net.TCPAddr).Port
		server, err := zeroconf.Register(t.Instance, ServiceType, Domain, port, t.Text, nil)
		if err != nil {
			_ = t.ln.Close()
			return fmt.Errorf("ingress: failed to register %s: %w", ServiceType, err)
		}
		defer server.Shutdown()
		l.WithField("instance", t.Instance).Info("announced")
	}
	stop := context.AfterFunc(ctx, func() { _ = t.ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ingress: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()
			cl := l.WithFields(log.Fields{"conn": uuid.NewString(), "remote": conn.RemoteAddr()})
			cl.Debug("connected")
			if err := pump(ctx, cl, conn, w); err != nil {
				cl.WithError(err).Warn("connection failed")
			}
			cl.Debug("disconnected")
		}()
	}
}
