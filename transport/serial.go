//go:build linux

package transport

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/pkg/term"
	"golang.org/x/sys/unix"

	"github.com/doismellburning/radioclone/internal/radioerr"
)

// Serial is a real USB-to-serial Transport, using the same
// github.com/pkg/term library src/serial_port.go and src/kissserial.go
// use for their serial link. term.Open puts the line into raw mode with
// the requested speed; this type then talks to the underlying file
// descriptor directly with unix.Poll so every read can be bounded by an
// arbitrary deadline, since pkg/term itself exposes no deadline-aware
// Read.
type Serial struct {
	port *term.Term
	fd   int
}

// OpenSerial opens devicePath at the given settings. DTR/RTS are asserted
// immediately after open when requested: some clone cables draw power
// from them, so a radio can fail to respond if the lines are never set.
func OpenSerial(devicePath string, settings Settings) (*Serial, error) {
	t, err := term.Open(devicePath, term.Speed(settings.Baud), term.RawMode)
	if err != nil {
		if errors.Is(err, unix.EACCES) {
			return nil, &radioerr.PermissionDenied{Port: devicePath, Err: err}
		}
		return nil, &radioerr.PortUnavailable{Port: devicePath, Err: err}
	}

	s := &Serial{port: t, fd: int(t.Fd())}

	if settings.DTR || settings.RTS {
		if err := s.SetSignals(Signals{DTR: settings.DTR, RTS: settings.RTS}); err != nil {
			t.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Serial) Write(data []byte) error {
	n, err := s.port.Write(data)
	if err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("transport: short write: wrote %d of %d bytes", n, len(data))
	}
	return nil
}

// pollReadable blocks until the fd has data to read or deadline passes,
// returning radioerr-free true/false rather than an error so callers
// distinguish "ready, go read" from "deadline passed".
func (s *Serial) pollReadable(deadline time.Time) (bool, error) {
	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(remaining.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, fmt.Errorf("transport: poll: %w", err)
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
}

func (s *Serial) ReadExact(n int, deadline time.Time) ([]byte, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		ready, err := s.pollReadable(deadline)
		if err != nil {
			return nil, err
		}
		if !ready {
			return nil, &radioerr.Timeout{Phase: "read_exact"}
		}
		chunk := make([]byte, n-len(buf))
		read, err := s.port.Read(chunk)
		if read > 0 {
			buf = append(buf, chunk[:read]...)
		}
		if err != nil {
			return nil, fmt.Errorf("transport: read_exact: %w", err)
		}
	}
	return buf, nil
}

func (s *Serial) ReadAvailable(max int, deadline time.Time) ([]byte, error) {
	if max <= 0 {
		return nil, nil
	}
	ready, err := s.pollReadable(deadline)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, &radioerr.Timeout{Phase: "read_available"}
	}
	buf := make([]byte, max)
	n, err := s.port.Read(buf)
	if err != nil {
		return buf[:n], fmt.Errorf("transport: read_available: %w", err)
	}
	return buf[:n], nil
}

func (s *Serial) ReadUntil(suffix []byte, deadline time.Time) ([]byte, error) {
	var acc []byte
	for {
		b, err := s.ReadAvailable(1, deadline)
		if len(b) > 0 {
			acc = append(acc, b...)
			if bytes.HasSuffix(acc, suffix) {
				return acc, nil
			}
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

// SetSignals drives DTR/RTS through the standard TIOCM ioctls. pkg/term
// exposes no modem-control-line setter directly, so this goes through
// golang.org/x/sys/unix against the port's file descriptor.
func (s *Serial) SetSignals(sig Signals) error {
	bits, err := unix.IoctlGetInt(s.fd, unix.TIOCMGET)
	if err != nil {
		return fmt.Errorf("transport: TIOCMGET: %w", err)
	}

	set := func(mask int, on bool) {
		if on {
			bits |= mask
		} else {
			bits &^= mask
		}
	}
	set(unix.TIOCM_DTR, sig.DTR)
	set(unix.TIOCM_RTS, sig.RTS)

	if err := unix.IoctlSetInt(s.fd, unix.TIOCMSET, bits); err != nil {
		return fmt.Errorf("transport: TIOCMSET: %w", err)
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
