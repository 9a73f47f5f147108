// Package codec implements a data-driven memory codec: a decoder/encoder
// pair entirely parametrized by a protocol.MemoryFormat descriptor,
// translating between a radio's raw on-wire image and an ordered
// sequence of channel.Channel records. No radio-specific code lives
// here; every format quirk is descriptor data.
package codec

import (
	"encoding/binary"
)

// decodeBCDLE reads a little-endian BCD-encoded frequency: the
// least-significant decimal pair is stored first. unit is the post-decode
// multiplier (typically 10, for 10 Hz steps).
func decodeBCDLE(raw []byte, unit int64) int64 {
	var hz int64
	mul := int64(1)
	for _, b := range raw {
		lo := int64(b & 0x0F)
		hi := int64(b >> 4)
		hz += lo * mul
		mul *= 10
		hz += hi * mul
		mul *= 10
	}
	if unit == 0 {
		unit = 1
	}
	return hz * unit
}

// encodeBCDLE is the inverse of decodeBCDLE: it writes hz/unit as a
// little-endian BCD value of size bytes.
func encodeBCDLE(hz int64, unit int64, size int) []byte {
	if unit == 0 {
		unit = 1
	}
	v := hz / unit
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		lo := byte(v % 10)
		v /= 10
		hi := byte(v % 10)
		v /= 10
		out[i] = lo | (hi << 4)
	}
	return out
}

// bcdAllFOrAllZero reports whether raw is entirely 0xFF or entirely 0x00,
// the empty-slot sentinel for BCD fields, since 0xFF is never valid BCD.
func bcdAllFOrAllZero(raw []byte) bool {
	allF, allZero := true, true
	for _, b := range raw {
		if b != 0xFF {
			allF = false
		}
		if b != 0x00 {
			allZero = false
		}
	}
	return allF || allZero
}

// toneEncoding is the decoded form of a tone_u16_le field before it is
// reconciled against its sibling field into a channel.ToneMode.
type toneEncoding struct {
	None     bool
	IsDCS    bool
	DCSCode  int
	Polarity byte // 'N' or 'R', DCS only
	CTCSSDHz int  // tenths of Hz, CTCSS only
}

// decodeToneU16LE decodes a tone_u16_le field: 0 or 0xFFFF => none; bit
// 0x8000 set => DCS (low 12 bits = code, bit 0x4000 => polarity R);
// otherwise CTCSS in 0.1 Hz units.
func decodeToneU16LE(raw []byte) toneEncoding {
	v := binary.LittleEndian.Uint16(raw)
	if v == 0 || v == 0xFFFF {
		return toneEncoding{None: true}
	}
	if v&0x8000 != 0 {
		pol := byte('N')
		if v&0x4000 != 0 {
			pol = 'R'
		}
		return toneEncoding{IsDCS: true, DCSCode: int(v & 0x0FFF), Polarity: pol}
	}
	return toneEncoding{CTCSSDHz: int(v)}
}

// encodeToneU16LE is the inverse of decodeToneU16LE.
func encodeToneU16LE(t toneEncoding) []byte {
	out := make([]byte, 2)
	var v uint16
	switch {
	case t.None:
		v = 0
	case t.IsDCS:
		v = 0x8000 | uint16(t.DCSCode&0x0FFF)
		if t.Polarity == 'R' {
			v |= 0x4000
		}
	default:
		v = uint16(t.CTCSSDHz)
	}
	binary.LittleEndian.PutUint16(out, v)
	return out
}

// decodeU16LE/BE, decodeU32LE are small integer decoders for the
// remaining fixed-width field types, used by decodeFieldInt to compare
// raw field values against empty-check sentinels.
func decodeU16LE(raw []byte) uint16 { return binary.LittleEndian.Uint16(raw) }
func decodeU16BE(raw []byte) uint16 { return binary.BigEndian.Uint16(raw) }
func decodeU32LE(raw []byte) uint32 { return binary.LittleEndian.Uint32(raw) }

// decodeString reads a fixed-length field, stopping at the first 0x00 or
// 0xFF terminator and retaining only printable ASCII bytes.
func decodeString(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == 0x00 || b == 0xFF {
			break
		}
		if b >= 0x20 && b < 0x7F {
			out = append(out, b)
		}
	}
	return string(out)
}

// encodeString writes s left-justified into a field of size bytes, padded
// with 0xFF.
func encodeString(s string, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = 0xFF
	}
	n := len(s)
	if n > size {
		n = size
	}
	copy(out, s[:n])
	return out
}
