package engine

import (
	"sync/atomic"

	"github.com/doismellburning/radioclone/internal/radioerr"
	"github.com/doismellburning/radioclone/internal/rlog"
	"github.com/doismellburning/radioclone/protocol"
	"github.com/doismellburning/radioclone/transport"
)

// CancelFlag is an atomic cooperative-cancellation flag, owned outside the
// engine and checked at block boundaries only.
type CancelFlag struct {
	flag atomic.Bool
}

func (c *CancelFlag) Cancel()             { c.flag.Store(true) }
func (c *CancelFlag) Cancelled() bool     { return c != nil && c.flag.Load() }

// Engine drives one session: Handshake then Block Read or Block Write,
// over exactly one Transport. A new Engine is created per session; the
// transport is closed and reopened between sessions.
type Engine struct {
	Transport transport.Transport
	Log       rlog.Logger
}

// New builds an Engine over an already-open transport.
func New(t transport.Transport, log rlog.Logger) *Engine {
	if log == nil {
		log = rlog.Discard()
	}
	return &Engine{Transport: t, Log: log}
}

// Download runs Handshake then Block Read, returning the raw image bytes
// and the retained handshake header (if the descriptor asks for one).
func (e *Engine) Download(desc protocol.ProtocolDescriptor, cancel *CancelFlag, progress func(Progress)) (raw []byte, header []byte, err error) {
	hs, err := RunHandshake(e.Transport, desc, e.Log)
	if err != nil {
		return nil, nil, err
	}

	if progress != nil {
		progress(Progress{Phase: "handshake", BytesDone: 0, BytesTotal: 0})
	}

	var retained []byte
	if desc.RetainHeaderBytes > 0 {
		retained = hs.Header
		if len(retained) > desc.RetainHeaderBytes {
			retained = retained[:desc.RetainHeaderBytes]
		}
	}

	raw, err = ReadBlocks(e.Transport, desc, cancel, progress)
	if err != nil {
		return raw, retained, err
	}

	return raw, retained, nil
}

// Upload runs Handshake then Block Write. It refuses to run when the
// descriptor's memory format is not marked lossless, to avoid corrupting
// the radio with a partial or lossy re-encode.
func (e *Engine) Upload(desc protocol.ProtocolDescriptor, raw []byte, cancel *CancelFlag, progress func(Progress)) error {
	if !desc.MemoryFormat.Lossless {
		return radioerr.ErrNotLossless
	}

	if _, err := RunHandshake(e.Transport, desc, e.Log); err != nil {
		return err
	}

	if progress != nil {
		progress(Progress{Phase: "handshake", BytesDone: 0, BytesTotal: 0})
	}

	return WriteBlocks(e.Transport, desc, raw, cancel, progress)
}
