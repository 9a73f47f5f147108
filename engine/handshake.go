// Package engine drives a protocol.ProtocolDescriptor through its
// handshake and block transfer phases, emitting progress events and
// surfacing the radioerr sum-typed errors. The state machines here
// replace per-model branching with generic code parametrized entirely by
// descriptor data, the way src/kiss_frame.go drives its frame decoder off
// a table rather than one function per frame type.
package engine

import (
	"bytes"
	"time"

	"github.com/doismellburning/radioclone/internal/radioerr"
	"github.com/doismellburning/radioclone/internal/rlog"
	"github.com/doismellburning/radioclone/protocol"
	"github.com/doismellburning/radioclone/transport"
)

// HandshakeResult carries what a successful handshake learned: the
// identification bytes read (if any), retained as Image.Header when the
// descriptor asks for it.
type HandshakeResult struct {
	Header []byte
}

// staleDrainWindow is the short read_available window the engine uses
// between handshake attempts to flush stray bytes left over from a
// previous attempt.
const staleDrainWindow = 80 * time.Millisecond

// RunHandshake dispatches to the state machine named by desc.Variant.
func RunHandshake(t transport.Transport, desc protocol.ProtocolDescriptor, log rlog.Logger) (HandshakeResult, error) {
	switch desc.Variant {
	case protocol.VariantMagic:
		return runMagicHandshake(t, desc.Magic, log)
	case protocol.VariantProgramString:
		return runProgramStringHandshake(t, desc.ProgramString, log)
	case protocol.VariantUV17Pro:
		return runUV17ProHandshake(t, desc.UV17Pro, log)
	default:
		return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "unknown handshake variant: " + string(desc.Variant)}
	}
}

// runMagicHandshake implements Variant M: S0_start -> S1_send_magic ->
// S2_await_ack -> S3_send_ident -> S4_read_ident -> S5_post_ack -> DONE.
func runMagicHandshake(t transport.Transport, m *protocol.MagicHandshake, log rlog.Logger) (HandshakeResult, error) {
	if m == nil {
		return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "magic handshake descriptor missing"}
	}

	var lastResponse []byte

	for attempt, magic := range m.MagicCandidates {
		transport.DrainStale(t, staleDrainWindow) //nolint:errcheck

		log.Debug("sending magic candidate", "attempt", attempt, "len", len(magic))

		// S1: write the magic sequence byte-by-byte with an inter-byte delay.
		delay := m.InterByteDelay
		if delay <= 0 {
			delay = 10 * time.Millisecond
		}
		for i, b := range magic {
			if err := t.Write([]byte{b}); err != nil {
				return HandshakeResult{}, err
			}
			if i < len(magic)-1 {
				time.Sleep(delay)
			}
		}

		// S2: await one ACK byte within ack_timeout.
		ackTimeout := m.AckTimeout
		if ackTimeout <= 0 {
			ackTimeout = 3 * time.Second
		}
		resp, err := t.ReadExact(1, time.Now().Add(ackTimeout))
		if err != nil || resp[0] != m.AckByte {
			lastResponse = resp
			continue
		}

		// S3: send the identification command.
		header, err := readIdentification(t, m.IdentCommand, m.IdentMaxLen, m.IdentMinLen, m.IdentSentinel, m.IdentTimeout)
		if err != nil {
			lastResponse = header
			continue
		}

		// S5: ACK the identification if AckAfterIdent is set, then read and
		// discard one trailing byte if TrailingRead is set.
		if m.AckAfterIdent {
			if err := t.Write([]byte{m.AckByte}); err != nil {
				return HandshakeResult{}, err
			}
		}
		if m.TrailingRead {
			t.ReadExact(1, time.Now().Add(staleDrainWindow)) //nolint:errcheck
		}

		return HandshakeResult{Header: header}, nil
	}

	return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "all magic candidates exhausted", LastResponse: lastResponse}
}

// readIdentification reads identification bytes one at a time up to
// maxLen, stopping early at sentinel if set. Fewer than minLen bytes is a
// failure.
func readIdentification(t transport.Transport, identCommand protocol.ByteSeq, maxLen, minLen int, sentinel *byte, timeout time.Duration) ([]byte, error) {
	if len(identCommand) > 0 {
		if err := t.Write(identCommand); err != nil {
			return nil, err
		}
	}

	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.Now().Add(timeout)

	var header []byte
	for len(header) < maxLen {
		b, err := t.ReadExact(1, deadline)
		if err != nil {
			break
		}
		header = append(header, b[0])
		// The sentinel only terminates the read once the minimum length is
		// satisfied: some identification payloads legitimately contain the
		// sentinel's byte value before that point.
		if sentinel != nil && b[0] == *sentinel && len(header) >= minLen {
			break
		}
	}

	if len(header) < minLen {
		return header, &radioerr.HandshakeFailed{Reason: "identification too short", LastResponse: header}
	}
	return header, nil
}

// runProgramStringHandshake implements Variant P.
func runProgramStringHandshake(t transport.Transport, p *protocol.ProgramStringHandshake, log rlog.Logger) (HandshakeResult, error) {
	if p == nil {
		return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "program-string handshake descriptor missing"}
	}

	if len(p.PreCommand) > 0 {
		if err := t.Write(p.PreCommand); err != nil {
			return HandshakeResult{}, err
		}
		if p.PreCommandDelay > 0 {
			time.Sleep(p.PreCommandDelay)
		}
	}

	if err := t.Write(p.Phrase); err != nil {
		return HandshakeResult{}, err
	}

	retries := p.AckRetries
	if retries <= 0 {
		retries = 1
	}
	window := p.AckWindow
	if window <= 0 {
		window = 500 * time.Millisecond
	}

	var lastResponse []byte
	acked := false
	for i := 0; i < retries; i++ {
		resp, err := t.ReadExact(1, time.Now().Add(window))
		if err == nil && resp[0] == p.AckByte {
			acked = true
			break
		}
		lastResponse = resp
	}
	if !acked {
		return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "no ack to program string", LastResponse: lastResponse}
	}

	if !p.HasIdent {
		return HandshakeResult{}, nil
	}

	header, err := readIdentification(t, p.IdentCommand, p.IdentMaxLen, p.IdentMinLen, p.IdentSentinel, p.IdentTimeout)
	if err != nil {
		return HandshakeResult{}, err
	}

	if len(p.IdentPrefix) > 0 && !bytes.HasPrefix(header, p.IdentPrefix) {
		// Warning-only; identification prefix mismatch is never fatal for
		// Variant P.
		log.Warn("identification prefix mismatch", "expected", p.IdentPrefix, "got", header)
	}

	if p.AckAfterIdent {
		if err := t.Write([]byte{p.AckByte}); err != nil {
			return HandshakeResult{}, err
		}
	}

	return HandshakeResult{Header: header}, nil
}

// runUV17ProHandshake implements Variant U.
func runUV17ProHandshake(t transport.Transport, u *protocol.UV17ProHandshake, log rlog.Logger) (HandshakeResult, error) {
	if u == nil {
		return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "uv17pro handshake descriptor missing"}
	}

	var lastResponse []byte

	for attempt, candidate := range u.IdentCandidates {
		transport.DrainStale(t, staleDrainWindow) //nolint:errcheck

		log.Debug("sending uv17pro ident candidate", "attempt", attempt)

		if err := t.Write(candidate); err != nil {
			return HandshakeResult{}, err
		}

		firstWait := u.FirstByteWait
		if firstWait <= 0 {
			firstWait = 200 * time.Millisecond
		}
		resp, err := t.ReadExact(len(u.Fingerprint), time.Now().Add(firstWait))
		if err != nil {
			pollInterval := u.PollInterval
			if pollInterval <= 0 {
				pollInterval = 500 * time.Millisecond
			}
			attempts := u.PollAttempts
			if attempts <= 0 {
				attempts = 10
			}
			for i := 0; i < attempts; i++ {
				resp, err = t.ReadExact(len(u.Fingerprint), time.Now().Add(pollInterval))
				if err == nil {
					break
				}
			}
		}
		if err != nil || !bytes.Equal(resp, []byte(u.Fingerprint)) {
			lastResponse = resp
			continue
		}

		header := append([]byte(nil), resp...)
		for _, fu := range u.FollowUps {
			if err := t.Write(fu.Command); err != nil {
				return HandshakeResult{}, err
			}
			respN, err := t.ReadExact(fu.ResponseLen, time.Now().Add(2*time.Second))
			if err != nil {
				lastResponse = respN
				return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "follow-up command failed", LastResponse: lastResponse}
			}
			header = append(header, respN...)
			if fu.DelayAfter > 0 {
				time.Sleep(fu.DelayAfter)
			}
		}

		return HandshakeResult{Header: header}, nil
	}

	return HandshakeResult{}, &radioerr.HandshakeFailed{Reason: "all uv17pro ident candidates exhausted", LastResponse: lastResponse}
}
