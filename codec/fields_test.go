package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestBCDLERoundTrip is the property behind spec §8 scenario 4: encoding a
// frequency and decoding the result returns the same value, for any
// frequency representable within the field width. The spec's literal
// example bytes for 146_520_000 Hz do not correspond to a standard
// little-endian BCD encoding with unit=10 under any digit-pairing this
// codec could derive (see DESIGN.md); the round-trip and known-value
// properties below are what is actually verified.
func TestBCDLERoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// 4-byte bcd_le with unit=10 holds up to 8 BCD digits, i.e. values
		// 0..99_999_999 in unit(=10 Hz) steps.
		v := rapid.Int64Range(0, 99_999_999).Draw(t, "units")
		hz := v * 10

		encoded := encodeBCDLE(hz, 10, 4)
		decoded := decodeBCDLE(encoded, 10)

		assert.Equal(t, hz, decoded)
	})
}

func TestBCDLEKnownValue(t *testing.T) {
	// 146.520000 MHz at 10 Hz resolution: standard little-endian BCD,
	// least-significant decimal pair first, is 00 20 65 14.
	encoded := encodeBCDLE(146_520_000, 10, 4)
	assert.Equal(t, []byte{0x00, 0x20, 0x65, 0x14}, encoded)
	assert.Equal(t, int64(146_520_000), decodeBCDLE(encoded, 10))
}

func TestBCDAllFIsEmpty(t *testing.T) {
	assert.True(t, bcdAllFOrAllZero([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	assert.True(t, bcdAllFOrAllZero([]byte{0x00, 0x00, 0x00, 0x00}))
	assert.False(t, bcdAllFOrAllZero([]byte{0x00, 0x20, 0x65, 0x14}))
}

// TestToneRoundTripCTCSS is spec §8 scenario 5: CTCSS 88.5 Hz encodes to
// 0x0375 little-endian (75 03).
func TestToneRoundTripCTCSS(t *testing.T) {
	encoded := encodeToneU16LE(toneEncoding{CTCSSDHz: 885})
	assert.Equal(t, []byte{0x75, 0x03}, encoded)

	decoded := decodeToneU16LE(encoded)
	assert.False(t, decoded.None)
	assert.False(t, decoded.IsDCS)
	assert.Equal(t, 885, decoded.CTCSSDHz)
}

// TestToneRoundTripDCS is spec §8 scenario 5: DCS 023 polarity N/R.
func TestToneRoundTripDCS(t *testing.T) {
	n := encodeToneU16LE(toneEncoding{IsDCS: true, DCSCode: 23, Polarity: 'N'})
	assert.Equal(t, []byte{0x17, 0x80}, n)

	r := encodeToneU16LE(toneEncoding{IsDCS: true, DCSCode: 23, Polarity: 'R'})
	assert.Equal(t, []byte{0x17, 0xC0}, r)

	decodedN := decodeToneU16LE(n)
	assert.True(t, decodedN.IsDCS)
	assert.Equal(t, 23, decodedN.DCSCode)
	assert.Equal(t, byte('N'), decodedN.Polarity)

	decodedR := decodeToneU16LE(r)
	assert.Equal(t, byte('R'), decodedR.Polarity)
}

func TestToneDecodeZeroIsNone(t *testing.T) {
	assert.True(t, decodeToneU16LE([]byte{0x00, 0x00}).None)
	assert.True(t, decodeToneU16LE([]byte{0xFF, 0xFF}).None)
}

func TestStringRoundTrip(t *testing.T) {
	encoded := encodeString("W1ABC", 7)
	assert.Equal(t, "W1ABC\xFF\xFF", string(encoded))
	assert.Equal(t, "W1ABC", decodeString(encoded))
}

func TestStringStopsAtNulOrFF(t *testing.T) {
	assert.Equal(t, "AB", decodeString([]byte{'A', 'B', 0x00, 'C', 'D'}))
	assert.Equal(t, "AB", decodeString([]byte{'A', 'B', 0xFF, 'C', 'D'}))
}
