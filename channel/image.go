package channel

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Image is one radio's memory image: model identity, the raw bytes as read
// from (or to be written to) the radio, the channel array derived from
// those bytes, and any header bytes retained from the handshake's
// identification response.
//
// Raw is the single source of truth for bit-exact round-trips: the codec
// borrows it to decode and produces a fresh copy on encode. This type
// never aliases a Raw buffer it didn't allocate itself.
type Image struct {
	Vendor  string
	Model   string
	Raw     []byte
	Header  []byte // optional identification bytes from the handshake, may be nil
	Array   *Array
}

// containerSentinel is the 13-byte sentinel separating the raw memory
// bytes from the following Base64-encoded JSON metadata blob.
var containerSentinel = []byte{0x00, 0xFF, 0x63, 0x68, 0x69, 0x72, 0x70, 0xEE, 0x69, 0x6D, 0x67, 0x00, 0x01}

// ContainerMetadata is the JSON object stored, Base64-encoded, after the
// sentinel in an image container file.
type ContainerMetadata struct {
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
}

// EncodeContainer returns raw memory bytes followed by the sentinel and the
// Base64 encoding of the given metadata.
func EncodeContainer(raw []byte, meta ContainerMetadata) ([]byte, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal container metadata: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(metaJSON)

	var buf bytes.Buffer
	buf.Write(raw)
	buf.Write(containerSentinel)
	buf.WriteString(encoded)
	return buf.Bytes(), nil
}

// DecodeContainer splits a container file back into its raw memory bytes
// and metadata. It returns an error if the sentinel is not found, since a
// tool consuming this format must preserve the sentinel and metadata
// exactly.
func DecodeContainer(container []byte) (raw []byte, meta ContainerMetadata, err error) {
	idx := bytes.Index(container, containerSentinel)
	if idx < 0 {
		return nil, ContainerMetadata{}, fmt.Errorf("image container: sentinel not found")
	}

	raw = container[:idx]
	encoded := container[idx+len(containerSentinel):]

	metaJSON, decErr := base64.StdEncoding.DecodeString(string(encoded))
	if decErr != nil {
		return nil, ContainerMetadata{}, fmt.Errorf("image container: decode metadata: %w", decErr)
	}

	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, ContainerMetadata{}, fmt.Errorf("image container: unmarshal metadata: %w", err)
	}

	return raw, meta, nil
}
