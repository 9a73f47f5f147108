package engine

import (
	"time"

	"github.com/doismellburning/radioclone/internal/radioerr"
	"github.com/doismellburning/radioclone/obfuscate"
	"github.com/doismellburning/radioclone/protocol"
	"github.com/doismellburning/radioclone/transport"
)

// Progress is emitted after each block.
type Progress struct {
	Phase      string
	BytesDone  int
	BytesTotal int
}

func (p Progress) Percent() float64 {
	if p.BytesTotal <= 0 {
		return 0
	}
	return 100 * float64(p.BytesDone) / float64(p.BytesTotal)
}

// blockSpan is one (addr, size) block request. layoutBlocks expands a
// MemoryLayout into the ordered list of them a read or write pass must
// issue, honoring both the single-region (main[+aux]) and multi-region
// layout shapes.
type blockSpan struct {
	addr int
	size int
}

func layoutBlocks(layout protocol.MemoryLayout, blockSize int) (main, aux []blockSpan) {
	strides := func(start, end int) []blockSpan {
		var spans []blockSpan
		for a := start; a < end; a += blockSize {
			sz := blockSize
			if a+sz > end {
				sz = end - a
			}
			spans = append(spans, blockSpan{addr: a, size: sz})
		}
		return spans
	}

	if layout.IsMultiRegion() {
		var spans []blockSpan
		for _, r := range layout.Regions {
			spans = append(spans, strides(r.Start, r.Start+r.Size)...)
		}
		return spans, nil
	}

	if layout.Main != nil {
		main = strides(layout.Main.Start, layout.Main.End)
	}
	if layout.Aux != nil {
		aux = strides(layout.Aux.Start, layout.Aux.End)
	}
	return main, aux
}

// totalBytes sums the byte budget of every span, for progress percent.
func totalBytes(spans ...[]blockSpan) int {
	n := 0
	for _, group := range spans {
		for _, s := range group {
			n += s.size
		}
	}
	return n
}

// ReadBlocks drives the block-read phase over layout, calling progress
// after each block and checking cancel between blocks (never mid-frame).
// Auxiliary-region failure is not fatal: reading stops at the failed aux
// block and the bytes read so far are returned with a nil error. No warning
// is logged or returned for the dropped aux bytes.
func ReadBlocks(t transport.Transport, desc protocol.ProtocolDescriptor, cancel *CancelFlag, progress func(Progress)) ([]byte, error) {
	main, aux := layoutBlocks(desc.Layout, desc.Read.BlockSize)
	total := totalBytes(main, aux)
	var out []byte
	done := 0

	readOne := func(span blockSpan) ([]byte, error) {
		addr := uint32(span.addr)
		req := []byte{
			desc.Read.Command,
			byte(span.addr >> 8),
			byte(span.addr),
			byte(span.size),
		}
		if err := t.Write(req); err != nil {
			return nil, err
		}

		deadline := desc.Read.BlockDeadline
		if deadline <= 0 {
			deadline = 3 * time.Second
		}
		readDeadline := time.Now().Add(deadline)

		if desc.Read.HeaderEcho {
			hdr, err := t.ReadExact(4, readDeadline)
			if err != nil {
				return nil, err
			}
			if hdr[0] != desc.Read.Command {
				return nil, &radioerr.ProtocolError{Address: &addr, Field: "cmd", Observed: uint32(hdr[0]), Expected: uint32(desc.Read.Command)}
			}
			echoedAddr := uint32(hdr[1])<<8 | uint32(hdr[2])
			if echoedAddr != addr {
				return nil, &radioerr.ProtocolError{Address: &addr, Field: "addr", Observed: echoedAddr, Expected: addr}
			}
			if hdr[3] != byte(span.size) {
				return nil, &radioerr.ProtocolError{Address: &addr, Field: "size", Observed: uint32(hdr[3]), Expected: uint32(byte(span.size))}
			}
		}

		var data []byte
		if desc.Read.StripPrefixLen > 0 {
			full, err := t.ReadExact(desc.Read.StripPrefixLen+span.size, readDeadline)
			if err != nil {
				return nil, err
			}
			data = full[desc.Read.StripPrefixLen:]
		} else {
			full, err := t.ReadExact(span.size, readDeadline)
			if err != nil {
				return nil, err
			}
			data = full
		}

		if desc.Read.AckAfterBlock {
			if err := t.Write([]byte{desc.Read.AckByte}); err != nil {
				return nil, err
			}
			if desc.Read.PostAckDelay > 0 {
				time.Sleep(desc.Read.PostAckDelay)
			}
		}

		switch desc.Obfuscation {
		case protocol.ObfuscationUV17:
			data = obfuscate.UV17XOR(data, desc.UV17Symbol)
		case protocol.ObfuscationWouxun:
			data = obfuscate.WouxunReverse(data, desc.WouxunInit)
		}

		return data, nil
	}

	for _, span := range main {
		if cancel.Cancelled() {
			return out, &radioerr.Cancelled{Phase: "read", BytesDone: done}
		}
		data, err := readOne(span)
		if err != nil {
			return out, err
		}
		out = append(out, data...)
		done += span.size
		if progress != nil {
			progress(Progress{Phase: "read", BytesDone: done, BytesTotal: total})
		}
	}

	for _, span := range aux {
		if cancel.Cancelled() {
			return out, &radioerr.Cancelled{Phase: "read", BytesDone: done}
		}
		data, err := readOne(span)
		if err != nil {
			// Aux region failure is non-fatal; truncate and return what we have.
			break
		}
		out = append(out, data...)
		done += span.size
		if progress != nil {
			progress(Progress{Phase: "read", BytesDone: done, BytesTotal: total})
		}
	}

	return out, nil
}

// WriteBlocks drives the block-write phase over layout, writing raw (the
// encoded image) in memory order.
func WriteBlocks(t transport.Transport, desc protocol.ProtocolDescriptor, raw []byte, cancel *CancelFlag, progress func(Progress)) error {
	main, aux := layoutBlocks(desc.Layout, desc.Write.BlockSize)
	total := totalBytes(main, aux)
	done := 0

	writeOne := func(span blockSpan) error {
		if span.addr+span.size > len(raw) {
			return nil
		}
		block := raw[span.addr : span.addr+span.size]

		switch desc.Obfuscation {
		case protocol.ObfuscationUV17:
			block = obfuscate.UV17XOR(block, desc.UV17Symbol)
		case protocol.ObfuscationWouxun:
			block = obfuscate.WouxunForward(block, desc.WouxunInit)
		}

		req := make([]byte, 0, 4+len(block))
		req = append(req, desc.Write.Command, byte(span.addr>>8), byte(span.addr), byte(span.size))
		req = append(req, block...)
		if err := t.Write(req); err != nil {
			return err
		}

		timeout := desc.Write.AckTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		addr := uint32(span.addr)
		resp, err := t.ReadExact(1, time.Now().Add(timeout))
		if err != nil {
			return &radioerr.WriteFailed{Address: addr}
		}
		if resp[0] != desc.Write.AckByte {
			ack := resp[0]
			return &radioerr.WriteFailed{Address: addr, Ack: &ack}
		}

		if desc.Write.PostAckDelay > 0 {
			time.Sleep(desc.Write.PostAckDelay)
		} else {
			time.Sleep(50 * time.Millisecond)
		}
		return nil
	}

	for _, span := range main {
		if cancel.Cancelled() {
			return &radioerr.Cancelled{Phase: "write", BytesDone: done}
		}
		if err := writeOne(span); err != nil {
			return err
		}
		done += span.size
		if progress != nil {
			progress(Progress{Phase: "write", BytesDone: done, BytesTotal: total})
		}
	}

	for _, span := range aux {
		if cancel.Cancelled() {
			return &radioerr.Cancelled{Phase: "write", BytesDone: done}
		}
		if err := writeOne(span); err != nil {
			return err
		}
		done += span.size
		if progress != nil {
			progress(Progress{Phase: "write", BytesDone: done, BytesTotal: total})
		}
	}

	return nil
}
