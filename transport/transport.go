// Package transport is a duplex byte stream with deadline-bounded blocking
// reads, a non-blocking write, and out-of-band control signals (DTR/RTS).
// No line discipline: every byte the radio sends or expects crosses this
// interface unmodified.
package transport

import (
	"time"

	"github.com/doismellburning/radioclone/internal/radioerr"
)

// Settings configures a serial link. Parity and flow control are fixed to
// no-parity, no-flow-control; they are not configurable per descriptor
// because no supported radio needs them.
type Settings struct {
	Baud int
	DTR  bool
	RTS  bool
}

// Signals is the pair of out-of-band modem control lines some clone cables
// use to hold a radio in clone mode or to draw cable power.
type Signals struct {
	DTR bool
	RTS bool
}

// Transport is a duplex byte stream with deadline-bounded reads. Deadlines
// are absolute points in time, matching the rest of the engine's use of
// time.Time for "honor this deadline" contracts.
type Transport interface {
	// Write returns once the bytes are accepted by the OS; it makes no
	// promise about buffering beyond that.
	Write(data []byte) error

	// ReadExact returns exactly n bytes or radioerr.Timeout when deadline
	// passes with fewer bytes received. On timeout the already-received
	// prefix is discarded; callers treat ReadExact timeout as fatal for
	// the current step.
	ReadExact(n int, deadline time.Time) ([]byte, error)

	// ReadAvailable returns up to max bytes, possibly fewer (including
	// zero) on radioerr.Timeout.
	ReadAvailable(max int, deadline time.Time) ([]byte, error)

	// ReadUntil returns all bytes received up to and including the first
	// occurrence of suffix, or radioerr.Timeout.
	ReadUntil(suffix []byte, deadline time.Time) ([]byte, error)

	// SetSignals asserts or deasserts the DTR/RTS control lines.
	SetSignals(s Signals) error

	Close() error
}

// ControlLines is the narrower out-of-band signalling interface some
// transports split out from the data path: a GPIO-driven rig, for
// instance, where the DTR/RTS-equivalent lines are not part of the UART
// at all (transport/gpio_signals_linux.go).
type ControlLines interface {
	SetSignals(s Signals) error
	Close() error
}

// DrainStale best-effort drains any bytes left over from a prior protocol
// step. A stale-drain timeout is expected, not a failure, and is returned
// as a nil error; any other read error is returned unchanged.
func DrainStale(t Transport, window time.Duration) ([]byte, error) {
	data, err := t.ReadAvailable(4096, time.Now().Add(window))
	if _, ok := err.(*radioerr.Timeout); ok {
		return data, nil
	}
	return data, err
}
