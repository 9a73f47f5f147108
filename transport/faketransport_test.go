//go:build linux

package transport_test

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/doismellburning/radioclone/engine"
	"github.com/doismellburning/radioclone/internal/rlog"
	"github.com/doismellburning/radioclone/protocol"
	"github.com/doismellburning/radioclone/transport"
)

// pipeTransport is a minimal transport.Transport over a plain os.File pair,
// used to back ptyPair below. Deadlines are approximated with SetReadDeadline
// since both ends here are regular files/ptys that support it, unlike the
// raw serial fd path in serial.go.
type pipeTransport struct {
	f *os.File
}

func (p *pipeTransport) Write(data []byte) error {
	_, err := p.f.Write(data)
	return err
}

func (p *pipeTransport) ReadExact(n int, deadline time.Time) ([]byte, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		p.f.SetReadDeadline(deadline) //nolint:errcheck
		chunk := make([]byte, n-len(buf))
		read, err := p.f.Read(chunk)
		if read > 0 {
			buf = append(buf, chunk[:read]...)
		}
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func (p *pipeTransport) ReadAvailable(max int, deadline time.Time) ([]byte, error) {
	p.f.SetReadDeadline(deadline) //nolint:errcheck
	buf := make([]byte, max)
	n, err := p.f.Read(buf)
	return buf[:n], err
}

func (p *pipeTransport) ReadUntil(suffix []byte, deadline time.Time) ([]byte, error) {
	var acc []byte
	for {
		b, err := p.ReadAvailable(1, deadline)
		acc = append(acc, b...)
		if len(acc) >= len(suffix) {
			tail := acc[len(acc)-len(suffix):]
			match := true
			for i := range suffix {
				if tail[i] != suffix[i] {
					match = false
					break
				}
			}
			if match {
				return acc, nil
			}
		}
		if err != nil {
			return acc, err
		}
	}
}

func (p *pipeTransport) SetSignals(transport.Signals) error { return nil }

func (p *pipeTransport) Close() error { return p.f.Close() }

// ptyPair opens a pseudo-terminal, mirroring the teacher's
// src/kiss.go kisspt_open_pt use of github.com/creack/pty to stand in for
// a real serial cable in tests. engineEnd is handed to the code under test;
// radioEnd is driven by the test to script scripted radio responses. Both
// ends are put into raw termios mode (kisspt_open_pt leaves a "TODO KG
// cfmakeraw?" comment and never actually does this); without it, the
// kernel's line discipline buffers by newline and echoes input back as
// output, corrupting arbitrary binary exchanges like the ones here.
func ptyPair() (engineEnd *pipeTransport, radioEnd *os.File, err error) {
	ptmx, pts, err := pty.Open()
	if err != nil {
		return nil, nil, err
	}
	if err := setRaw(int(ptmx.Fd())); err != nil {
		ptmx.Close()
		pts.Close()
		return nil, nil, err
	}
	if err := setRaw(int(pts.Fd())); err != nil {
		ptmx.Close()
		pts.Close()
		return nil, nil, err
	}
	return &pipeTransport{f: ptmx}, pts, nil
}

// setRaw clears the termios flags cfmakeraw(3) clears: no line buffering, no
// echo, no signal-generating characters, 8-bit clean, one byte at a time.
func setRaw(fd int) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

// magicHandshakePTYDescriptor mirrors spec §8 scenario 1's descriptor.
func magicHandshakePTYDescriptor() protocol.ProtocolDescriptor {
	ident := byte(0xDD)
	return protocol.ProtocolDescriptor{
		Variant: protocol.VariantMagic,
		Magic: &protocol.MagicHandshake{
			MagicCandidates: []protocol.ByteSeq{{0x50, 0xBB, 0xFF, 0x20, 0x12, 0x07, 0x25}},
			AckByte:         0x06,
			IdentCommand:    protocol.ByteSeq{0x02},
			IdentMaxLen:     16,
			IdentMinLen:     8,
			IdentSentinel:   &ident,
			AckAfterIdent:   true,
		},
	}
}

// TestMagicHandshakeOverRealPTY drives engine.RunHandshake for spec §8
// scenario 1 over a real pty fd pair rather than the in-memory scripted
// Transport double engine/handshake_test.go uses, exercising the actual
// blocking-read/deadline code path a production serial link goes through.
func TestMagicHandshakeOverRealPTY(t *testing.T) {
	engineEnd, radioEnd, err := ptyPair()
	require.NoError(t, err)
	defer engineEnd.Close()
	defer radioEnd.Close()

	desc := magicHandshakePTYDescriptor()
	identification := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0xDD}

	radioErrCh := make(chan error, 1)
	go func() {
		radioErrCh <- func() error {
			magic := make([]byte, 7)
			if _, err := io.ReadFull(radioEnd, magic); err != nil {
				return err
			}
			if _, err := radioEnd.Write([]byte{0x06}); err != nil {
				return err
			}
			cmd := make([]byte, 1)
			if _, err := io.ReadFull(radioEnd, cmd); err != nil {
				return err
			}
			if _, err := radioEnd.Write(identification); err != nil {
				return err
			}
			ack := make([]byte, 1)
			_, err := io.ReadFull(radioEnd, ack) // drains the post-identification ack
			return err
		}()
	}()

	result, err := engine.RunHandshake(engineEnd, desc, rlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, identification, result.Header)
	require.NoError(t, <-radioErrCh)
}

// blockReadPTYDescriptor is a plain, unobfuscated single-region read: one
// 8-byte block, no header echo, no per-block ack.
func blockReadPTYDescriptor() protocol.ProtocolDescriptor {
	return protocol.ProtocolDescriptor{
		Read: protocol.BlockReadFraming{
			Command:   0x52,
			BlockSize: 8,
		},
		Layout: protocol.MemoryLayout{
			Main: &protocol.AddrRange{Start: 0, End: 8},
		},
		Obfuscation: protocol.ObfuscationNone,
	}
}

// TestBlockReadOverRealPTY drives engine.ReadBlocks over a real pty fd pair.
func TestBlockReadOverRealPTY(t *testing.T) {
	engineEnd, radioEnd, err := ptyPair()
	require.NoError(t, err)
	defer engineEnd.Close()
	defer radioEnd.Close()

	desc := blockReadPTYDescriptor()
	block := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17}

	radioErrCh := make(chan error, 1)
	go func() {
		radioErrCh <- func() error {
			req := make([]byte, 4)
			if _, err := io.ReadFull(radioEnd, req); err != nil {
				return err
			}
			_, err := radioEnd.Write(block)
			return err
		}()
	}()

	out, err := engine.ReadBlocks(engineEnd, desc, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, block, out)
	require.NoError(t, <-radioErrCh)
}

// blockWritePTYDescriptor is a plain, unobfuscated single-region write.
func blockWritePTYDescriptor() protocol.ProtocolDescriptor {
	return protocol.ProtocolDescriptor{
		Write: protocol.BlockWriteFraming{
			Command:   0x57,
			BlockSize: 8,
			AckByte:   0x06,
		},
		Layout: protocol.MemoryLayout{
			Main: &protocol.AddrRange{Start: 0, End: 8},
		},
		Obfuscation: protocol.ObfuscationNone,
	}
}

// TestBlockWriteOverRealPTY drives engine.WriteBlocks over a real pty fd pair.
func TestBlockWriteOverRealPTY(t *testing.T) {
	engineEnd, radioEnd, err := ptyPair()
	require.NoError(t, err)
	defer engineEnd.Close()
	defer radioEnd.Close()

	desc := blockWritePTYDescriptor()
	raw := []byte{0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27}

	var received []byte
	radioErrCh := make(chan error, 1)
	go func() {
		radioErrCh <- func() error {
			req := make([]byte, 4+len(raw))
			if _, err := io.ReadFull(radioEnd, req); err != nil {
				return err
			}
			received = append([]byte(nil), req[4:]...)
			_, err := radioEnd.Write([]byte{0x06})
			return err
		}()
	}()

	err = engine.WriteBlocks(engineEnd, desc, raw, nil, nil)
	require.NoError(t, err)
	require.NoError(t, <-radioErrCh)
	assert.Equal(t, raw, received)
}
