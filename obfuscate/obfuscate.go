// Package obfuscate implements the pure byte-level transforms clone
// protocols layer over the wire: UV17-style keyed XOR, Wouxun chained XOR,
// and the three checksum forms radios use to self-validate a block. Every
// function here is pure: it allocates and returns a new buffer rather than
// mutating its input, so callers can freely reuse the original bytes.
package obfuscate

// uv17KeyTable holds the 20 fixed 4-byte key rows used by the UV17-style
// keyed XOR. Each radio model selects one row by index.
var uv17KeyTable = [20][4]byte{
	{0x4E, 0x77, 0xCE, 0x9A}, {0x05, 0x7A, 0x66, 0x12}, {0x65, 0x16, 0x17, 0x85},
	{0x20, 0xFD, 0xD9, 0xF2}, {0x05, 0x2C, 0x9B, 0x3A}, {0x4A, 0xFF, 0x5A, 0xF8},
	{0x9C, 0xBF, 0x6D, 0xDF}, {0x46, 0xFD, 0xF6, 0x8B}, {0xF3, 0x9A, 0x2E, 0x96},
	{0x99, 0x5C, 0x99, 0x56}, {0x46, 0xF4, 0x2E, 0xBB}, {0x9B, 0x85, 0x72, 0x4F},
	{0xCC, 0x1B, 0xA9, 0x3A}, {0xE6, 0x15, 0x2D, 0x3E}, {0x6C, 0x1A, 0x7E, 0xAE},
	{0x6F, 0x88, 0xA6, 0xDE}, {0xF2, 0xD9, 0x4F, 0xAD}, {0x9A, 0x36, 0x22, 0xAA},
	{0x7D, 0xB8, 0xC0, 0x3B}, {0x2C, 0x49, 0xAB, 0x66},
}

// NumUV17Keys is the number of available UV17 key rows (symbol indices).
const NumUV17Keys = len(uv17KeyTable)

// UV17XOR applies the keyed XOR transform for key row symbolIndex. The
// transform is an involution: calling it twice with the same symbolIndex
// restores the original bytes.
func UV17XOR(data []byte, symbolIndex int) []byte {
	key := uv17KeyTable[symbolIndex]
	out := make([]byte, len(data))
	for i, b := range data {
		k := key[i%4]
		if k == 0x20 || b == 0x00 || b == 0xFF || b == k || b == k^0xFF {
			out[i] = b
			continue
		}
		out[i] = b ^ k
	}
	return out
}

// WouxunForward applies the Wouxun chained-XOR encrypt direction with init
// byte v: out[0] = v^in[0], out[i] = out[i-1]^in[i].
func WouxunForward(data []byte, v byte) []byte {
	out := make([]byte, len(data))
	prev := v
	for i, b := range data {
		out[i] = prev ^ b
		prev = out[i]
	}
	return out
}

// WouxunReverse applies the Wouxun chained-XOR decrypt direction with init
// byte v: out[0] = in[0]^v, out[i] = in[i]^in[i-1] for i>=1.
func WouxunReverse(data []byte, v byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		if i == 0 {
			out[i] = b ^ v
			continue
		}
		out[i] = b ^ data[i-1]
	}
	return out
}

// ChecksumKind selects one of the three checksum forms radios use.
type ChecksumKind int

const (
	ChecksumSum ChecksumKind = iota
	ChecksumXOR
	ChecksumRangeSum
)

// Sum computes (start + sum(data)) mod 256.
func Sum(data []byte, start byte) byte {
	s := start
	for _, b := range data {
		s += b
	}
	return s
}

// XORFold XOR-folds every byte of data together.
func XORFold(data []byte) byte {
	var x byte
	for _, b := range data {
		x ^= b
	}
	return x
}

// RangeSum sums data[lo:hi+1] (inclusive of hi) mod 256. Callers pass the
// slice already bounded to [lo, hi]; this mirrors the descriptor field
// "range_sum over [start, stop]" in spec terms.
func RangeSum(data []byte) byte {
	var s byte
	for _, b := range data {
		s += b
	}
	return s
}

// VerifyAppended checks that the last byte of buf is the correct checksum
// of buf[:len(buf)-1] under kind, with the given additive start value (used
// only by ChecksumSum).
func VerifyAppended(buf []byte, kind ChecksumKind, start byte) bool {
	if len(buf) == 0 {
		return false
	}
	data, stored := buf[:len(buf)-1], buf[len(buf)-1]
	return computeChecksum(data, kind, start) == stored
}

// AppendChecksum returns a new buffer equal to data with its checksum under
// kind appended.
func AppendChecksum(data []byte, kind ChecksumKind, start byte) []byte {
	out := make([]byte, len(data)+1)
	copy(out, data)
	out[len(data)] = computeChecksum(data, kind, start)
	return out
}

func computeChecksum(data []byte, kind ChecksumKind, start byte) byte {
	switch kind {
	case ChecksumXOR:
		return XORFold(data)
	case ChecksumRangeSum:
		return RangeSum(data)
	default:
		return Sum(data, start)
	}
}
