// Package protocol holds the immutable, data-driven descriptors the clone
// engine and memory codec are generic over: one ProtocolDescriptor per
// protocol family (handshake variant, block framing, obfuscation, memory
// layout), and one ModelDescriptor per radio model mapping it to a
// protocol plus overrides. Adding a radio model means adding a YAML entry
// under protocol/data/, never writing code.
package protocol

import (
	"fmt"
	"time"
)

// ByteSeq is a []byte that unmarshals from a YAML sequence of small
// integers (e.g. `[0x50, 0xBB, 0xFF]`) instead of yaml.v3's default
// base64-string encoding for []byte, so descriptor files can spell out
// wire bytes literally.
type ByteSeq []byte

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSeq) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ints []int
	if err := unmarshal(&ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("protocol: byte value %d out of range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// HandshakeVariant selects one of the three handshake state machines.
type HandshakeVariant string

const (
	VariantMagic         HandshakeVariant = "magic"
	VariantProgramString HandshakeVariant = "program_string"
	VariantUV17Pro       HandshakeVariant = "uv17pro"
)

// ObfuscationKind selects the wire obfuscation a protocol family uses.
type ObfuscationKind string

const (
	ObfuscationNone   ObfuscationKind = "none"
	ObfuscationUV17   ObfuscationKind = "uv17pro"
	ObfuscationWouxun ObfuscationKind = "wouxun"
)

// MagicHandshake parametrizes Variant M.
type MagicHandshake struct {
	MagicCandidates []ByteSeq     `yaml:"magic_candidates"`
	InterByteDelay  time.Duration `yaml:"inter_byte_delay"`
	AckByte         byte          `yaml:"ack_byte"`
	AckTimeout      time.Duration `yaml:"ack_timeout"`
	IdentCommand    ByteSeq       `yaml:"ident_command"`
	IdentMaxLen     int           `yaml:"ident_max_len"`
	IdentMinLen     int           `yaml:"ident_min_len"`
	IdentSentinel   *byte         `yaml:"ident_sentinel"`
	IdentTimeout    time.Duration `yaml:"ident_timeout"`
	AckAfterIdent   bool          `yaml:"ack_after_ident"` // explicit, no implicit default
	TrailingRead    bool          `yaml:"trailing_read"`
}

// ProgramStringHandshake parametrizes Variant P.
type ProgramStringHandshake struct {
	PreCommand      ByteSeq       `yaml:"pre_command"`
	PreCommandDelay time.Duration `yaml:"pre_command_delay"`
	Phrase          ByteSeq       `yaml:"phrase"`
	AckByte         byte          `yaml:"ack_byte"`
	AckRetries      int           `yaml:"ack_retries"`
	AckWindow       time.Duration `yaml:"ack_window"`
	HasIdent        bool          `yaml:"has_ident"`
	IdentCommand    ByteSeq       `yaml:"ident_command"`
	IdentMaxLen     int           `yaml:"ident_max_len"`
	IdentMinLen     int           `yaml:"ident_min_len"`
	IdentSentinel   *byte         `yaml:"ident_sentinel"`
	IdentTimeout    time.Duration `yaml:"ident_timeout"`
	IdentPrefix     ByteSeq       `yaml:"ident_prefix"` // warning-only assertion, not fatal
	AckAfterIdent   bool          `yaml:"ack_after_ident"`
}

// UV17ProFollowUp is one post-handshake "magic" command issued after a
// successful UV17Pro identification.
type UV17ProFollowUp struct {
	Command      ByteSeq       `yaml:"command"`
	ResponseLen  int           `yaml:"response_len"`
	DelayAfter   time.Duration `yaml:"delay_after"`
}

// UV17ProHandshake parametrizes Variant U.
type UV17ProHandshake struct {
	IdentCandidates []ByteSeq         `yaml:"ident_candidates"` // each exactly 16 bytes
	Fingerprint     ByteSeq           `yaml:"fingerprint"`
	FirstByteWait   time.Duration     `yaml:"first_byte_wait"`
	PollInterval    time.Duration     `yaml:"poll_interval"`
	PollAttempts    int               `yaml:"poll_attempts"`
	FollowUps       []UV17ProFollowUp `yaml:"follow_ups"`
}

// BlockReadFraming describes the block-read command/response shape.
type BlockReadFraming struct {
	Command          byte          `yaml:"command"`
	BlockSize         int           `yaml:"block_size"`
	HeaderEcho        bool          `yaml:"header_echo"` // response echoes cmd/addr/size
	AckAfterBlock     bool          `yaml:"ack_after_block"`
	AckByte           byte          `yaml:"ack_byte"`
	PostAckDelay      time.Duration `yaml:"post_ack_delay"`
	StripPrefixLen    int           `yaml:"strip_prefix_len"` // 0 means no prefix to strip
	BlockDeadline     time.Duration `yaml:"block_deadline"`
}

// BlockWriteFraming describes the block-write command/ack shape.
type BlockWriteFraming struct {
	Command       byte          `yaml:"command"`
	BlockSize     int           `yaml:"block_size"`
	AckByte       byte          `yaml:"ack_byte"`
	AckTimeout    time.Duration `yaml:"ack_timeout"`
	PostAckDelay  time.Duration `yaml:"post_ack_delay"`
}

// Region is one non-contiguous memory region: {start, size}.
type Region struct {
	Start int `yaml:"start"`
	Size  int `yaml:"size"`
}

// AddrRange is an inclusive-start/exclusive-end byte range.
type AddrRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// MemoryLayout is either a {main, aux?} pair or a list of non-contiguous
// regions.
type MemoryLayout struct {
	Main      *AddrRange `yaml:"main,omitempty"`
	Aux       *AddrRange `yaml:"aux,omitempty"`
	Regions   []Region   `yaml:"regions,omitempty"`
	TotalSize int        `yaml:"total_size,omitempty"`
}

// IsMultiRegion reports whether this layout uses the Regions form rather
// than the Main/Aux form.
func (m MemoryLayout) IsMultiRegion() bool {
	return len(m.Regions) > 0
}

// ProtocolDescriptor is immutable, process-long data describing one clone
// protocol family.
type ProtocolDescriptor struct {
	ID   string `yaml:"id"`
	Baud int    `yaml:"baud"`

	Variant         HandshakeVariant        `yaml:"variant"`
	Magic           *MagicHandshake         `yaml:"magic,omitempty"`
	ProgramString   *ProgramStringHandshake `yaml:"program_string,omitempty"`
	UV17Pro         *UV17ProHandshake       `yaml:"uv17pro,omitempty"`

	Read  BlockReadFraming  `yaml:"read"`
	Write BlockWriteFraming `yaml:"write"`

	Layout       MemoryLayout    `yaml:"layout"`
	Obfuscation  ObfuscationKind `yaml:"obfuscation"`
	UV17Symbol   int             `yaml:"uv17_symbol"`
	WouxunInit   byte            `yaml:"wouxun_init"`

	MemoryFormat MemoryFormat `yaml:"memory_format"`

	// RetainHeaderBytes is the number of identification bytes from the
	// handshake to retain as Image.Header (0 disables retention).
	RetainHeaderBytes int `yaml:"retain_header_bytes"`
}

// FieldType enumerates the memory-format field encodings.
type FieldType string

const (
	FieldBCDLE    FieldType = "bcd_le"
	FieldU16LE    FieldType = "u16_le"
	FieldU16BE    FieldType = "u16_be"
	FieldU32LE    FieldType = "u32_le"
	FieldByte     FieldType = "byte"
	FieldToneU16LE FieldType = "tone_u16_le"
	FieldString   FieldType = "string"
)

// FieldSpec is one named field entry in a memory-format's field map.
type FieldSpec struct {
	Offset int       `yaml:"offset"`
	Size   int       `yaml:"size"`
	Type   FieldType `yaml:"type"`
	Unit   int64     `yaml:"unit,omitempty"` // post-decode multiplier, e.g. 10 Hz for bcd_le
}

// FlagMapping describes a symbolic bit field over a named byte field.
type FlagMapping struct {
	Field  string         `yaml:"field"`
	Mask   byte           `yaml:"mask"`
	Shift  uint           `yaml:"shift"`
	Invert bool           `yaml:"invert,omitempty"`
	Target string         `yaml:"target"` // which Channel field this populates: mode|power|skip
	Values map[int]string `yaml:"values,omitempty"`
}

// NameTable describes an out-of-band channel name table, when names are not
// stored inline in the channel record.
type NameTable struct {
	NameOffset int `yaml:"name_offset"`
	NameStride int `yaml:"name_stride"`
}

// EmptyCheck describes how to detect an unused slot.
type EmptyCheck struct {
	// BCDAllFForAllZero checks the rxFreq field's raw bytes for all-0xFF or
	// all-0x00, since 0xFF is not valid BCD.
	BCDAllFForAllZero bool `yaml:"bcd_all_f_or_all_zero,omitempty"`
	// Field/SentinelValues checks an integer field against a set of empty
	// sentinel values.
	Field          string `yaml:"field,omitempty"`
	SentinelValues []int  `yaml:"sentinel_values,omitempty"`
}

// MemoryFormat is the memory-format descriptor that drives the codec.
type MemoryFormat struct {
	ChannelSize  int                    `yaml:"channel_size"`
	NumChannels  int                    `yaml:"num_channels"`
	StartOffset  int                    `yaml:"start_offset"`
	NameTable    *NameTable             `yaml:"name_table,omitempty"`
	Fields       map[string]FieldSpec   `yaml:"fields"`
	FlagMappings []FlagMapping          `yaml:"flag_mappings,omitempty"`
	EmptyCheck   EmptyCheck             `yaml:"empty_check"`
	Defaults     map[string]string      `yaml:"defaults,omitempty"`
	MaxNameLen   int                    `yaml:"max_name_len"`
	SplitThresholdHz int64              `yaml:"split_threshold_hz"`

	// Lossless marks whether serialize(parse(raw)) == raw is guaranteed for
	// this format. Engine.Upload refuses to run when this is false.
	Lossless bool `yaml:"lossless"`
}

// ModelDescriptor maps one radio model to a protocol plus per-field
// overrides.
type ModelDescriptor struct {
	Vendor      string `yaml:"vendor"`
	Model       string `yaml:"model"`
	DisplayName string `yaml:"display_name"`
	ProtocolID  string `yaml:"protocol_id"`
	MemorySize  int    `yaml:"memory_size"`

	// Overrides, applied on top of the named protocol at load time.
	BaudOverride        *int    `yaml:"baud_override,omitempty"`
	MaxNameLenOverride   *int   `yaml:"max_name_len_override,omitempty"`
}
