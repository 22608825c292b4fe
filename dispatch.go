/*
Copyright 2024 Tim St. Pierre
Turns raw write requests into display operations
*/
package lcd2004

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	// controlMarker starts a control token, e.g. "___0" clears the display
	// and "___1".."___4" move to column 0 of a row.
	controlMarker = "___"

	invalidCommand = "Invalid command"
)

// Display is the part of the command layer the dispatcher drives.
type Display interface {
	Clear() error
	GotoXY(col, row uint8) error
	PutString(s string) error
}

type tokenOp uint8

const (
	opClear tokenOp = iota
	opGotoRow
	opInvalid
)

type controlToken struct {
	op  tokenOp
	row uint8
}

// parseToken reads the selector that follows the marker. All remaining
// characters are the selector; like strtoul with base 0 it accepts 0x and 0
// prefixes.
func parseToken(sel string) (controlToken, error) {
	v, err := strconv.ParseUint(sel, 0, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return controlToken{op: opInvalid}, nil
	case err != nil:
		return controlToken{}, fmt.Errorf("lcd2004: selector %q: %w", sel, ErrMalformedControlToken)
	case v == 0:
		return controlToken{op: opClear}, nil
	case v <= Lines:
		return controlToken{op: opGotoRow, row: uint8(v - 1)}, nil
	default:
		return controlToken{op: opInvalid}, nil
	}
}

// Dispatcher serializes write requests onto one display. It is safe for
// concurrent use; each request runs to completion before the next starts.
type Dispatcher struct {
	mu  sync.Mutex
	d   Display
	log *log.Entry
}

// NewDispatcher returns a Dispatcher for d. Nothing else may write to d while
// the Dispatcher is in use.
func NewDispatcher(d Display) *Dispatcher {
	name := "lcd2004"
	if s, ok := d.(interface{ Name() string }); ok {
		name = s.Name()
	}
	return &Dispatcher{d: d, log: log.WithField("device", name)}
}

// Write handles one request. The last byte of p is a terminator and is
// dropped. The rest is either a control token or text to show at the cursor.
//
// On success n is always len(p). A bus failure returns n == 0; what was
// already sent stays on the display.
func (p *Dispatcher) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, ErrEmptyRequest
	}
	text := string(b[:len(b)-1])
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.log.Debugf("request %q", b)

	sel, ok := strings.CutPrefix(text, controlMarker)
	if !ok {
		if err := p.d.PutString(text); err != nil {
			return 0, err
		}
		return len(b), nil
	}
	tok, err := parseToken(sel)
	if err != nil {
		return 0, err
	}
	if err := p.run(tok, sel); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *Dispatcher) run(tok controlToken, sel string) error {
	switch tok.op {
	case opClear:
		return p.d.Clear()
	case opGotoRow:
		return p.d.GotoXY(0, tok.row)
	default:
		p.log.WithField("selector", sel).Info(ErrUnsupportedCommand)
		return p.d.PutString(invalidCommand)
	}
}

// ScanRequests is a bufio.SplitFunc that frames a byte stream into requests
// for Dispatcher.Write. A request ends at '\n' or NUL and keeps its
// terminator. A "\r\n" ending is folded into '\n', and a final request
// without a terminator gets one.
func ScanRequests(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\n\x00"); i >= 0 {
		if data[i] == '\n' && i > 0 && data[i-1] == '\r' {
			return i + 1, append(data[:i-1:i-1], '\n'), nil
		}
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), append(data[:len(data):len(data)], '\n'), nil
	}
	return 0, nil, nil
}
