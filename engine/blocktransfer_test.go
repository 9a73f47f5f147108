package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doismellburning/radioclone/engine"
	"github.com/doismellburning/radioclone/internal/radioerr"
	"github.com/doismellburning/radioclone/obfuscate"
	"github.com/doismellburning/radioclone/protocol"
)

// uv17ProReadDescriptor is the spec §8 scenario 3 descriptor: block size
// 64, strip 4-byte prefix, UV17 obfuscation index 1.
func uv17ProReadDescriptor() protocol.ProtocolDescriptor {
	return protocol.ProtocolDescriptor{
		Variant: protocol.VariantUV17Pro,
		Read: protocol.BlockReadFraming{
			Command:        0x52,
			BlockSize:      64,
			StripPrefixLen: 4,
		},
		Layout: protocol.MemoryLayout{
			Main: &protocol.AddrRange{Start: 0, End: 64},
		},
		Obfuscation: protocol.ObfuscationUV17,
		UV17Symbol:  1,
	}
}

// TestUV17ProEncryptedBlockRead is spec §8 scenario 3.
func TestUV17ProEncryptedBlockRead(t *testing.T) {
	desc := uv17ProReadDescriptor()

	plaintext := make([]byte, 64)
	for i := range plaintext {
		plaintext[i] = byte(i*7 + 3)
	}
	onWire := obfuscate.UV17XOR(plaintext, desc.UV17Symbol)

	prefix := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	incoming := append(append([]byte(nil), prefix...), onWire...)

	tr := newScriptedTransport(incoming)

	out, err := engine.ReadBlocks(tr, desc, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out, "returned buffer must be plaintext")

	require.Len(t, tr.writes, 1)
	assert.Equal(t, []byte{0x52, 0x00, 0x00, 0x40}, tr.writes[0])
}

// TestWriteACKFailure is spec §8 scenario 6.
func TestWriteACKFailure(t *testing.T) {
	desc := protocol.ProtocolDescriptor{
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

	raw := make([]byte, 8)
	tr := newScriptedTransport([]byte{0x15})

	err := engine.WriteBlocks(tr, desc, raw, nil, nil)
	require.Error(t, err)

	var wf *radioerr.WriteFailed
	require.ErrorAs(t, err, &wf)
	assert.Equal(t, uint32(0x0000), wf.Address)
	require.NotNil(t, wf.Ack)
	assert.Equal(t, byte(0x15), *wf.Ack)

	// No further writes attempted after the first block fails.
	assert.Len(t, tr.writes, 1)
}

func TestCancellationBeforeFirstBlock(t *testing.T) {
	desc := uv17ProReadDescriptor()
	tr := newScriptedTransport(nil)

	var cancel engine.CancelFlag
	cancel.Cancel()

	out, err := engine.ReadBlocks(tr, desc, &cancel, nil)
	require.Error(t, err)
	var c *radioerr.Cancelled
	require.ErrorAs(t, err, &c)
	assert.Empty(t, out)
	assert.Empty(t, tr.writes)
}
