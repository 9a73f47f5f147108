package engine_test

import (
	"time"

	"github.com/doismellburning/radioclone/internal/radioerr"
	"github.com/doismellburning/radioclone/transport"
)

// scriptedTransport is a deterministic in-memory Transport double for the
// spec §8 end-to-end scenarios: writes accumulate into a log for assertion,
// reads are served from a single flat incoming-byte buffer so byte-at-a-time
// ReadExact(1, ...) calls (as the handshake state machines make) consume it
// correctly. It is the engine-level analog of transport/faketransport_test.go's
// pty pair, kept separate because these scenarios need scripted byte-exact
// assertions rather than a live byte pipe.
type scriptedTransport struct {
	writes  [][]byte
	wroteAt []time.Time
	incoming []byte
	signals []transport.Signals
}

func newScriptedTransport(incoming []byte) *scriptedTransport {
	return &scriptedTransport{incoming: incoming}
}

// feed appends more bytes to the incoming buffer, for scenarios that script
// a response after observing a particular write.
func (s *scriptedTransport) feed(b []byte) {
	s.incoming = append(s.incoming, b...)
}

func (s *scriptedTransport) Write(data []byte) error {
	cp := append([]byte(nil), data...)
	s.writes = append(s.writes, cp)
	s.wroteAt = append(s.wroteAt, time.Now())
	return nil
}

func (s *scriptedTransport) ReadExact(n int, deadline time.Time) ([]byte, error) {
	if len(s.incoming) < n {
		return nil, &radioerr.Timeout{Phase: "scripted_read_exact"}
	}
	out := s.incoming[:n]
	s.incoming = s.incoming[n:]
	return out, nil
}

// ReadAvailable always reports a timeout and consumes nothing: every byte in
// incoming is a scripted reply to a later write, never stale line noise, so
// a stale drain (transport.DrainStale) must not swallow it.
func (s *scriptedTransport) ReadAvailable(max int, deadline time.Time) ([]byte, error) {
	return nil, &radioerr.Timeout{Phase: "scripted_read_available"}
}

func (s *scriptedTransport) ReadUntil(suffix []byte, deadline time.Time) ([]byte, error) {
	for i := 0; i <= len(s.incoming)-len(suffix); i++ {
		if string(s.incoming[i:i+len(suffix)]) == string(suffix) {
			end := i + len(suffix)
			out := s.incoming[:end]
			s.incoming = s.incoming[end:]
			return out, nil
		}
	}
	return nil, &radioerr.Timeout{Phase: "scripted_read_until"}
}

func (s *scriptedTransport) SetSignals(sig transport.Signals) error {
	s.signals = append(s.signals, sig)
	return nil
}

func (s *scriptedTransport) Close() error { return nil }

// flatWrites concatenates every Write call's bytes in order, for assertions
// against a whole expected wire sequence.
func (s *scriptedTransport) flatWrites() []byte {
	var out []byte
	for _, w := range s.writes {
		out = append(out, w...)
	}
	return out
}
