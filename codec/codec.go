package codec

import (
	"github.com/doismellburning/radioclone/channel"
	"github.com/doismellburning/radioclone/protocol"
)

// Decode parses raw into an ordered sequence of channel.Channel records
// according to mf: insufficient data, empty-slot detection, frequency and
// duplex derivation, tone reconciliation, flag mappings, name, then
// defaults for anything left unset.
func Decode(raw []byte, mf protocol.MemoryFormat) []channel.Channel {
	channels := make([]channel.Channel, 0, mf.NumChannels)

	for i := 0; i < mf.NumChannels; i++ {
		off := mf.StartOffset + i*mf.ChannelSize

		// Step 1: insufficient data stops decoding; every remaining slot
		// (including this one) is marked empty.
		if off+mf.ChannelSize > len(raw) {
			for j := i; j < mf.NumChannels; j++ {
				channels = append(channels, channel.Channel{Index: j + 1, Empty: true})
			}
			break
		}

		record := raw[off : off+mf.ChannelSize]
		ch := channel.Channel{Index: i + 1}

		// Step 2: empty check.
		if isEmptyRecord(record, mf) {
			ch.Empty = true
			channels = append(channels, ch)
			continue
		}

		// Step 3: frequencies, duplex, offset.
		var rxHz, txHz int64
		if spec, ok := mf.Fields["rxFreq"]; ok {
			rxHz = decodeBCDLE(record[spec.Offset:spec.Offset+spec.Size], spec.Unit)
		}
		if spec, ok := mf.Fields["txFreq"]; ok {
			txHz = decodeBCDLE(record[spec.Offset:spec.Offset+spec.Size], spec.Unit)
		}
		ch.RxHz = rxHz
		ch.Duplex, ch.TxOffsetHz = channel.DeriveDuplex(rxHz, txHz, mf.SplitThresholdHz)

		// Step 4: tones.
		rtoneSpec, hasRtone := mf.Fields["rtone"]
		ctoneSpec, hasCtone := mf.Fields["ctone"]
		if hasRtone && hasCtone {
			txTone := decodeToneU16LE(record[rtoneSpec.Offset : rtoneSpec.Offset+rtoneSpec.Size])
			rxTone := decodeToneU16LE(record[ctoneSpec.Offset : ctoneSpec.Offset+ctoneSpec.Size])
			applyToneDecode(&ch, txTone, rxTone)
		}

		// Step 5: flag mappings (mode, power, skip).
		for _, fm := range mf.FlagMappings {
			spec, ok := mf.Fields[fm.Field]
			if !ok {
				continue
			}
			applyFlagMappingDecode(&ch, record[spec.Offset], fm)
		}

		// Step 6: name, inline or via a separate name table.
		if mf.NameTable != nil {
			nameOff := mf.NameTable.NameOffset + i*mf.NameTable.NameStride
			if nameOff+mf.MaxNameLen <= len(raw) {
				ch.Name = decodeString(raw[nameOff : nameOff+mf.MaxNameLen])
			}
		} else if spec, ok := mf.Fields["name"]; ok {
			ch.Name = decodeString(record[spec.Offset : spec.Offset+spec.Size])
		}

		// Step 7: defaults, for fields the descriptor can't otherwise derive.
		applyDefaults(&ch, mf.Defaults)

		channels = append(channels, ch)
	}

	return channels
}

// Encode serializes channels back into raw, starting from the original
// bytes and writing only the byte ranges the descriptor's fields own.
// Empty slots are left untouched.
func Encode(raw []byte, channels []channel.Channel, mf protocol.MemoryFormat) []byte {
	out := append([]byte(nil), raw...)

	for i, ch := range channels {
		if ch.Empty {
			continue
		}

		off := mf.StartOffset + i*mf.ChannelSize
		if off+mf.ChannelSize > len(out) {
			continue
		}
		record := out[off : off+mf.ChannelSize]

		if spec, ok := mf.Fields["rxFreq"]; ok {
			copy(record[spec.Offset:spec.Offset+spec.Size], encodeBCDLE(ch.RxHz, spec.Unit, spec.Size))
		}
		if spec, ok := mf.Fields["txFreq"]; ok {
			copy(record[spec.Offset:spec.Offset+spec.Size], encodeBCDLE(ch.TxHz(), spec.Unit, spec.Size))
		}

		rtoneSpec, hasRtone := mf.Fields["rtone"]
		ctoneSpec, hasCtone := mf.Fields["ctone"]
		if hasRtone && hasCtone {
			txEnc, rxEnc := toneEncodingsForChannel(ch)
			copy(record[rtoneSpec.Offset:rtoneSpec.Offset+rtoneSpec.Size], encodeToneU16LE(txEnc))
			copy(record[ctoneSpec.Offset:ctoneSpec.Offset+ctoneSpec.Size], encodeToneU16LE(rxEnc))
		}

		for _, fm := range mf.FlagMappings {
			spec, ok := mf.Fields[fm.Field]
			if !ok {
				continue
			}
			applyFlagMappingEncode(record, spec.Offset, fm, ch)
		}

		if mf.NameTable != nil {
			nameOff := mf.NameTable.NameOffset + i*mf.NameTable.NameStride
			if nameOff+mf.MaxNameLen <= len(out) {
				copy(out[nameOff:nameOff+mf.MaxNameLen], encodeString(ch.Name, mf.MaxNameLen))
			}
		} else if spec, ok := mf.Fields["name"]; ok {
			copy(record[spec.Offset:spec.Offset+spec.Size], encodeString(ch.Name, spec.Size))
		}
	}

	return out
}

func isEmptyRecord(record []byte, mf protocol.MemoryFormat) bool {
	if mf.EmptyCheck.BCDAllFForAllZero {
		if spec, ok := mf.Fields["rxFreq"]; ok {
			return bcdAllFOrAllZero(record[spec.Offset : spec.Offset+spec.Size])
		}
	}
	if mf.EmptyCheck.Field != "" {
		if spec, ok := mf.Fields[mf.EmptyCheck.Field]; ok {
			v := decodeFieldInt(record, spec)
			for _, sv := range mf.EmptyCheck.SentinelValues {
				if v == int64(sv) {
					return true
				}
			}
		}
	}
	return false
}

// decodeFieldInt reads a fixed-width integer field for empty-sentinel
// comparison, independent of the field's higher-level semantic type.
func decodeFieldInt(record []byte, spec protocol.FieldSpec) int64 {
	raw := record[spec.Offset : spec.Offset+spec.Size]
	switch spec.Type {
	case protocol.FieldU16LE:
		return int64(decodeU16LE(raw))
	case protocol.FieldU16BE:
		return int64(decodeU16BE(raw))
	case protocol.FieldU32LE:
		return int64(decodeU32LE(raw))
	case protocol.FieldByte:
		return int64(raw[0])
	default:
		return int64(decodeU16LE(raw[:2]))
	}
}

// applyToneDecode reconciles a TX/RX tone_u16_le pair into a ToneMode and
// the associated Channel fields.
func applyToneDecode(ch *channel.Channel, tx, rx toneEncoding) {
	switch {
	case tx.None && rx.None:
		ch.ToneMode = channel.ToneNone

	case !tx.None && !tx.IsDCS && rx.None:
		ch.ToneMode = channel.ToneTXCTCSS
		ch.RToneDHz = tx.CTCSSDHz

	case !tx.None && !tx.IsDCS && !rx.None && !rx.IsDCS:
		ch.ToneMode = channel.ToneCTCSSBoth
		ch.RToneDHz = tx.CTCSSDHz
		ch.CToneDHz = rx.CTCSSDHz

	case tx.IsDCS && rx.IsDCS && tx.DCSCode == rx.DCSCode:
		ch.ToneMode = channel.ToneDTCS
		ch.DTCSTx = tx.DCSCode
		ch.DTCSRx = rx.DCSCode
		ch.DTCSPolarity = string([]byte{tx.Polarity, rx.Polarity})

	default:
		ch.ToneMode = channel.ToneCross
		ch.CrossMode = crossModeLabel(tx, rx)
		if !tx.None {
			if tx.IsDCS {
				ch.DTCSTx = tx.DCSCode
			} else {
				ch.RToneDHz = tx.CTCSSDHz
			}
		}
		if !rx.None {
			if rx.IsDCS {
				ch.DTCSRx = rx.DCSCode
			} else {
				ch.CToneDHz = rx.CTCSSDHz
			}
		}
		ch.DTCSPolarity = string([]byte{polarityOrDefault(tx), polarityOrDefault(rx)})
	}
}

func polarityOrDefault(t toneEncoding) byte {
	if t.IsDCS {
		return t.Polarity
	}
	return 'N'
}

func toneLabel(t toneEncoding) string {
	switch {
	case t.None:
		return ""
	case t.IsDCS:
		return "DTCS"
	default:
		return "Tone"
	}
}

func crossModeLabel(tx, rx toneEncoding) channel.CrossMode {
	return channel.CrossMode(toneLabel(tx) + "->" + toneLabel(rx))
}

// toneEncodingsForChannel is the inverse of applyToneDecode: derives the
// on-wire TX/RX tone encodings to write from a Channel's ToneMode and
// tone fields.
func toneEncodingsForChannel(ch channel.Channel) (tx, rx toneEncoding) {
	switch ch.ToneMode {
	case channel.ToneNone:
		return toneEncoding{None: true}, toneEncoding{None: true}

	case channel.ToneTXCTCSS:
		return toneEncoding{CTCSSDHz: ch.RToneDHz}, toneEncoding{None: true}

	case channel.ToneCTCSSBoth, channel.ToneTSQLReverse:
		return toneEncoding{CTCSSDHz: ch.RToneDHz}, toneEncoding{CTCSSDHz: ch.CToneDHz}

	case channel.ToneDTCS, channel.ToneDTCSReverse:
		txPol, rxPol := polarityPair(ch.DTCSPolarity)
		return toneEncoding{IsDCS: true, DCSCode: ch.DTCSTx, Polarity: txPol},
			toneEncoding{IsDCS: true, DCSCode: ch.DTCSRx, Polarity: rxPol}

	case channel.ToneCross:
		return crossEncodings(ch)

	default:
		return toneEncoding{None: true}, toneEncoding{None: true}
	}
}

func polarityPair(pol string) (tx, rx byte) {
	tx, rx = 'N', 'N'
	if len(pol) >= 1 {
		tx = pol[0]
	}
	if len(pol) >= 2 {
		rx = pol[1]
	}
	return tx, rx
}

func crossEncodings(ch channel.Channel) (tx, rx toneEncoding) {
	txPol, rxPol := polarityPair(ch.DTCSPolarity)
	switch ch.CrossMode {
	case channel.CrossToneTone:
		tx = toneEncoding{CTCSSDHz: ch.RToneDHz}
		rx = toneEncoding{CTCSSDHz: ch.CToneDHz}
	case channel.CrossToneDTCS:
		tx = toneEncoding{CTCSSDHz: ch.RToneDHz}
		rx = toneEncoding{IsDCS: true, DCSCode: ch.DTCSRx, Polarity: rxPol}
	case channel.CrossDTCSTone:
		tx = toneEncoding{IsDCS: true, DCSCode: ch.DTCSTx, Polarity: txPol}
		rx = toneEncoding{CTCSSDHz: ch.CToneDHz}
	case channel.CrossDTCSDTCS:
		tx = toneEncoding{IsDCS: true, DCSCode: ch.DTCSTx, Polarity: txPol}
		rx = toneEncoding{IsDCS: true, DCSCode: ch.DTCSRx, Polarity: rxPol}
	case channel.CrossTonenone:
		tx = toneEncoding{CTCSSDHz: ch.RToneDHz}
		rx = toneEncoding{None: true}
	case channel.CrossDTCSnone:
		tx = toneEncoding{IsDCS: true, DCSCode: ch.DTCSTx, Polarity: txPol}
		rx = toneEncoding{None: true}
	case channel.CrossnoneTone:
		tx = toneEncoding{None: true}
		rx = toneEncoding{CTCSSDHz: ch.CToneDHz}
	case channel.CrossnoneDTCS:
		tx = toneEncoding{None: true}
		rx = toneEncoding{IsDCS: true, DCSCode: ch.DTCSRx, Polarity: rxPol}
	default:
		tx, rx = toneEncoding{None: true}, toneEncoding{None: true}
	}
	return
}

func applyFlagMappingDecode(ch *channel.Channel, raw byte, fm protocol.FlagMapping) {
	bits := (raw & fm.Mask) >> fm.Shift
	if fm.Invert {
		bits ^= fm.Mask >> fm.Shift
	}
	label, ok := fm.Values[int(bits)]
	if !ok {
		return
	}
	switch fm.Target {
	case "mode":
		ch.Mode = channel.Mode(label)
	case "power":
		ch.Power = label
	case "skip":
		ch.Skip = skipFromLabel(label)
	}
}

func applyFlagMappingEncode(record []byte, offset int, fm protocol.FlagMapping, ch channel.Channel) {
	var label string
	switch fm.Target {
	case "mode":
		label = string(ch.Mode)
	case "power":
		label = ch.Power
	case "skip":
		label = ch.Skip.String()
	}

	key, ok := reverseLookup(fm.Values, label)
	if !ok {
		return
	}

	bits := byte(key) & (fm.Mask >> fm.Shift)
	if fm.Invert {
		bits ^= fm.Mask >> fm.Shift
	}

	cur := record[offset]
	cur &^= fm.Mask
	cur |= (bits << fm.Shift) & fm.Mask
	record[offset] = cur
}

func reverseLookup(values map[int]string, label string) (int, bool) {
	for k, v := range values {
		if v == label {
			return k, true
		}
	}
	return 0, false
}

func skipFromLabel(label string) channel.Skip {
	switch label {
	case "skip":
		return channel.SkipSkip
	case "priority":
		return channel.SkipPriority
	default:
		return channel.SkipNone
	}
}

func applyDefaults(ch *channel.Channel, defaults map[string]string) {
	if ch.Mode == "" {
		if v, ok := defaults["mode"]; ok {
			ch.Mode = channel.Mode(v)
		}
	}
	if ch.Power == "" {
		if v, ok := defaults["power"]; ok {
			ch.Power = v
		}
	}
}
