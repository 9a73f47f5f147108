// Package channel holds the neutral, protocol-agnostic representation of a
// radio's programmable memory: Channel, the bounded Array it lives in, and
// the Image that ties a model identity to raw bytes and the channel array
// derived from them.
package channel

// Duplex describes the relationship between a channel's transmit and
// receive frequencies.
type Duplex int

const (
	DuplexNone Duplex = iota
	DuplexPlus
	DuplexMinus
	DuplexSplit
	DuplexOff
)

func (d Duplex) String() string {
	switch d {
	case DuplexPlus:
		return "plus"
	case DuplexMinus:
		return "minus"
	case DuplexSplit:
		return "split"
	case DuplexOff:
		return "off"
	default:
		return "none"
	}
}

// ToneMode selects which squelch-tone fields on a Channel are meaningful.
type ToneMode int

const (
	ToneNone ToneMode = iota
	ToneTXCTCSS
	ToneCTCSSBoth
	ToneDTCS
	ToneDTCSReverse
	ToneTSQLReverse
	ToneCross
)

func (m ToneMode) String() string {
	switch m {
	case ToneTXCTCSS:
		return "tx_ctcss"
	case ToneCTCSSBoth:
		return "ctcss_both"
	case ToneDTCS:
		return "dtcs"
	case ToneDTCSReverse:
		return "dtcs_reverse"
	case ToneTSQLReverse:
		return "tsql_reverse"
	case ToneCross:
		return "cross"
	default:
		return "none"
	}
}

// CrossMode labels one of the eight TX/RX tone-kind combinations used when
// ToneMode is ToneCross.
type CrossMode string

const (
	CrossToneTone   CrossMode = "Tone->Tone"
	CrossToneDTCS   CrossMode = "Tone->DTCS"
	CrossDTCSTone   CrossMode = "DTCS->Tone"
	CrossDTCSDTCS   CrossMode = "DTCS->DTCS"
	CrossTonenone   CrossMode = "Tone->"
	CrossDTCSnone   CrossMode = "DTCS->"
	CrossnoneTone   CrossMode = "->Tone"
	CrossnoneDTCS   CrossMode = "->DTCS"
)

// Mode is the channel's modulation.
type Mode string

const (
	ModeFM   Mode = "FM"
	ModeNFM  Mode = "NFM"
	ModeWFM  Mode = "WFM"
	ModeAM   Mode = "AM"
	ModeNAM  Mode = "NAM"
	ModeDV   Mode = "DV"
	ModeUSB  Mode = "USB"
	ModeLSB  Mode = "LSB"
	ModeCW   Mode = "CW"
	ModeRTTY Mode = "RTTY"
	ModeDIG  Mode = "DIG"
	ModePKT  Mode = "PKT"
	ModeDMR  Mode = "DMR"
)

// Skip marks whether a channel is skipped during scanning or given scan
// priority.
type Skip int

const (
	SkipNone Skip = iota
	SkipSkip
	SkipPriority
)

func (s Skip) String() string {
	switch s {
	case SkipSkip:
		return "skip"
	case SkipPriority:
		return "priority"
	default:
		return "none"
	}
}

// TuningSteps is the fixed list of tuning-step choices, in kHz.
var TuningSteps = []float64{5, 6.25, 10, 12.5, 15, 20, 25, 30, 50, 100}

// DTCSCodes is the fixed 104-entry list of valid DCS codes a radio may use
// for DTCSTx/DTCSRx.
var DTCSCodes = []int{
	23, 25, 26, 31, 32, 36, 43, 47, 51, 53,
	54, 65, 71, 72, 73, 74, 114, 115, 116, 122,
	125, 131, 132, 134, 143, 145, 152, 155, 156, 162,
	165, 172, 174, 205, 212, 223, 225, 226, 243, 244,
	245, 246, 251, 252, 255, 261, 263, 265, 266, 271,
	274, 306, 311, 315, 325, 331, 332, 343, 346, 351,
	356, 364, 365, 371, 411, 412, 413, 423, 431, 432,
	445, 446, 452, 454, 455, 462, 464, 465, 466, 503,
	506, 516, 523, 526, 532, 546, 565, 606, 612, 624,
	627, 631, 632, 654, 662, 664, 703, 712, 723, 731,
	732, 734, 743, 754,
}

// IsValidDTCSCode reports whether code is one of the 104 standard DCS codes.
func IsValidDTCSCode(code int) bool {
	for _, c := range DTCSCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Channel is one programmable memory slot.
type Channel struct {
	Index int // 1-based, fixed at creation
	Empty bool

	RxHz       int64
	TxOffsetHz int64
	Duplex     Duplex

	ToneMode     ToneMode
	RToneDHz     int // CTCSS tx, tenths of Hz
	CToneDHz     int // CTCSS rx, tenths of Hz
	DTCSTx       int // DCS code
	DTCSRx       int // DCS code
	DTCSPolarity string // two chars from {N,R}, e.g. "NN"
	CrossMode    CrossMode

	Mode          Mode
	TuningStepKHz float64
	Skip          Skip
	Power         string

	Name    string
	Comment string
}

// TxHz derives the transmit frequency from RxHz, TxOffsetHz, and Duplex.
func (c *Channel) TxHz() int64 {
	switch c.Duplex {
	case DuplexNone:
		return c.RxHz
	case DuplexOff:
		return 0
	case DuplexPlus:
		return c.RxHz + c.TxOffsetHz
	case DuplexMinus:
		return c.RxHz - c.TxOffsetHz
	case DuplexSplit:
		return c.TxOffsetHz
	default:
		return c.RxHz
	}
}

// DeriveDuplex computes Duplex and TxOffsetHz from a pair of rx/tx
// frequencies. splitThresholdHz bounds how far tx may differ from rx
// before the pair is treated as an independent (split) pair rather than a
// simple plus/minus offset.
func DeriveDuplex(rxHz, txHz, splitThresholdHz int64) (Duplex, int64) {
	if txHz == rxHz {
		return DuplexNone, 0
	}
	diff := txHz - rxHz
	if diff < 0 {
		diff = -diff
	}
	if diff > splitThresholdHz {
		return DuplexSplit, txHz
	}
	if txHz > rxHz {
		return DuplexPlus, diff
	}
	return DuplexMinus, diff
}
