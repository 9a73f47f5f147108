package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxHzDerivation(t *testing.T) {
	c := Channel{RxHz: 146_520_000, TxOffsetHz: 600_000, Duplex: DuplexPlus}
	assert.Equal(t, int64(147_120_000), c.TxHz())

	c.Duplex = DuplexMinus
	assert.Equal(t, int64(145_920_000), c.TxHz())

	c.Duplex = DuplexNone
	assert.Equal(t, int64(146_520_000), c.TxHz())

	c.Duplex = DuplexOff
	assert.Equal(t, int64(0), c.TxHz())

	c.Duplex = DuplexSplit
	assert.Equal(t, int64(600_000), c.TxHz())
}

func TestDeriveDuplex(t *testing.T) {
	d, off := DeriveDuplex(146_520_000, 146_520_000, 5_000_000)
	assert.Equal(t, DuplexNone, d)
	assert.Equal(t, int64(0), off)

	d, off = DeriveDuplex(146_520_000, 147_120_000, 5_000_000)
	assert.Equal(t, DuplexPlus, d)
	assert.Equal(t, int64(600_000), off)

	d, off = DeriveDuplex(146_520_000, 145_920_000, 5_000_000)
	assert.Equal(t, DuplexMinus, d)
	assert.Equal(t, int64(600_000), off)

	d, off = DeriveDuplex(146_520_000, 440_000_000, 5_000_000)
	assert.Equal(t, DuplexSplit, d)
	assert.Equal(t, int64(440_000_000), off)
}

func TestContainerRoundTrip(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0x04}
	meta := ContainerMetadata{Vendor: "Baofeng", Model: "UV-5R"}

	container, err := EncodeContainer(raw, meta)
	assert.NoError(t, err)

	gotRaw, gotMeta, err := DecodeContainer(container)
	assert.NoError(t, err)
	assert.Equal(t, raw, gotRaw)
	assert.Equal(t, meta, gotMeta)
}

func TestDecodeContainerMissingSentinel(t *testing.T) {
	_, _, err := DecodeContainer([]byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}
