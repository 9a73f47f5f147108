//go:build linux

package transport

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSignals is a ControlLines backend for cables that drive clone-mode
// control lines off a GPIO header rather than a UART's own DTR/RTS pins,
// the same gpiocdev line-request approach src/ptt.go uses for its
// PTT_METHOD_GPIOD backend, repurposed here to the DTR/RTS-equivalent
// pair this engine needs. Each line is requested as an independent
// output so DTR and RTS can live on different chips if a board's wiring
// demands it.
type GPIOSignals struct {
	dtr *gpiocdev.Line
	rts *gpiocdev.Line
}

// GPIOLine names a single GPIO line by chip device path and offset.
type GPIOLine struct {
	Chip   string
	Offset int
}

// OpenGPIOSignals requests dtrLine and rtsLine as outputs, both initially
// deasserted. Either line may be the zero value (Chip == "") to leave that
// signal permanently unavailable, for boards that only wire one of the two.
func OpenGPIOSignals(dtrLine, rtsLine GPIOLine) (*GPIOSignals, error) {
	g := &GPIOSignals{}

	if dtrLine.Chip != "" {
		l, err := gpiocdev.RequestLine(dtrLine.Chip, dtrLine.Offset, gpiocdev.AsOutput(0))
		if err != nil {
			return nil, fmt.Errorf("transport: request dtr gpio %s:%d: %w", dtrLine.Chip, dtrLine.Offset, err)
		}
		g.dtr = l
	}

	if rtsLine.Chip != "" {
		l, err := gpiocdev.RequestLine(rtsLine.Chip, rtsLine.Offset, gpiocdev.AsOutput(0))
		if err != nil {
			if g.dtr != nil {
				g.dtr.Close() //nolint:errcheck
			}
			return nil, fmt.Errorf("transport: request rts gpio %s:%d: %w", rtsLine.Chip, rtsLine.Offset, err)
		}
		g.rts = l
	}

	return g, nil
}

func (g *GPIOSignals) SetSignals(sig Signals) error {
	if g.dtr != nil {
		if err := g.dtr.SetValue(boolToLine(sig.DTR)); err != nil {
			return fmt.Errorf("transport: set dtr gpio: %w", err)
		}
	}
	if g.rts != nil {
		if err := g.rts.SetValue(boolToLine(sig.RTS)); err != nil {
			return fmt.Errorf("transport: set rts gpio: %w", err)
		}
	}
	return nil
}

func (g *GPIOSignals) Close() error {
	var firstErr error
	if g.dtr != nil {
		if err := g.dtr.Close(); err != nil {
			firstErr = err
		}
	}
	if g.rts != nil {
		if err := g.rts.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func boolToLine(on bool) int {
	if on {
		return 1
	}
	return 0
}
