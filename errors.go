/*
Copyright 2024 Tim St. Pierre
Errors reported by the lcd2004 driver
*/
package lcd2004

import (
	"errors"
	"fmt"
)

var (
	// ErrBus wraps a failed expander write. The operation was aborted part
	// way and the controller state is unknown.
	ErrBus = errors.New("bus write failed")
	// ErrAddressOutOfRange is returned before any write when a row or column
	// is outside the display.
	ErrAddressOutOfRange = errors.New("address out of range")
	// ErrMalformedControlToken is returned when a control token's selector is
	// not a number. Nothing is written.
	ErrMalformedControlToken = errors.New("malformed control token")
	// ErrEmptyRequest is returned for a request without even a terminator.
	ErrEmptyRequest = fmt.Errorf("empty request: %w", ErrMalformedControlToken)
	// ErrUnsupportedCommand marks a selector with no action. Dispatcher
	// reports it on the display, never to the caller.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrAddress is returned for an I²C address the expander can't have.
	ErrAddress = errors.New("given address not supported by device")
)
