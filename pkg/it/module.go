// ABOUTME: IT module byte emission
// ABOUTME: Writes header, tables, sample headers, pattern and PCM from a Layout
package it

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/umxconv/pkg/audio/encode"
)

// Header values. Version, flags and mix settings follow a module saved by
// OpenMPT; speed 24 at tempo 60 makes one row last one second.
const (
	rowHighlight   = 0x1004 // 4 rows per beat, 16 per measure
	createdWith    = 0x5129
	compatibleWith = 0x0214
	songFlags      = 0x0049 // stereo, linear slides, extended filter range
	specialFlags   = 0x0006
	globalVolume   = 0x80
	mixVolume      = 0x30
	initialSpeed   = 24
	initialTempo   = 60
	panSeparation  = 0x80

	panLeft     = 0x00
	panCenter   = 0x20
	panRight    = 0x40
	panDisabled = 0xA0 // centre with the mute bit set
	channelVol  = 0x40

	orderEnd = 0xFF

	sampleGlobalVolume = 0x40
	sampleFlagData     = 0x01 // sample has data
	sampleFlag16Bit    = 0x02
	sampleVolume       = 0x40
	sampleSigned       = 0x01
	sampleDefaultPan   = 0x20

	eventChannelBase = 0x81 // channel 1 with a mask byte following
	eventMask        = 0x03 // note and sample present
	noteC5           = 0x3C
)

// Header field offsets
const (
	offMagic      = 0x00
	offHighlight  = 0x1E
	offOrdNum     = 0x20
	offInsNum     = 0x22
	offSmpNum     = 0x24
	offPatNum     = 0x26
	offCwt        = 0x28
	offCmwt       = 0x2A
	offFlags      = 0x2C
	offSpecial    = 0x2E
	offGV         = 0x30
	offMV         = 0x31
	offIS         = 0x32
	offIT         = 0x33
	offSep        = 0x34
	offPWD        = 0x35
	offChannelPan = 0x40
	offChannelVol = 0x80
	offOrders     = HeaderBaseSize
)

// Build lays out a module playing each WAV-encoded channel as one sample.
// wavs must share the bit depth given in cfg; duration is in seconds.
func Build(wavs [][]byte, duration float64, cfg Config) ([]byte, error) {
	payloads := make([][]byte, len(wavs))
	sizes := make([]int, len(wavs))
	for i, wav := range wavs {
		payload, err := encode.WAVPayload(wav)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d: %v", ErrMalformedWAV, i, err)
		}
		payloads[i] = payload
		sizes[i] = len(payload)
	}

	layout, err := Plan(sizes, duration, cfg)
	if err != nil {
		return nil, err
	}

	return Emit(layout, payloads, cfg), nil
}

// Emit writes the module bytes described by layout. payloads must match the
// sizes the layout was planned with.
func Emit(layout Layout, payloads [][]byte, cfg Config) []byte {
	out := make([]byte, layout.Total())

	writeHeader(out, layout, cfg)
	for i, s := range layout.Samples {
		writeSampleHeader(out[s.HeaderOffset:s.HeaderOffset+SampleHeaderSize], s, cfg)
		copy(out[s.DataOffset:s.DataOffset+s.Bytes], payloads[i])
	}
	writePattern(out[layout.PatternOffset:layout.PayloadOffset], layout)

	return out
}

func writeHeader(out []byte, l Layout, cfg Config) {
	le := binary.LittleEndian
	smpNum := len(l.Samples)

	copy(out[offMagic:], "IMPM")
	// Song name left blank
	le.PutUint16(out[offHighlight:], rowHighlight)
	le.PutUint16(out[offOrdNum:], OrderCount)
	le.PutUint16(out[offInsNum:], InstrumentCount)
	le.PutUint16(out[offSmpNum:], uint16(smpNum))
	le.PutUint16(out[offPatNum:], PatternCount)
	le.PutUint16(out[offCwt:], createdWith)
	le.PutUint16(out[offCmwt:], compatibleWith)
	le.PutUint16(out[offFlags:], songFlags)
	le.PutUint16(out[offSpecial:], specialFlags)
	out[offGV] = globalVolume
	out[offMV] = mixVolume
	out[offIS] = initialSpeed
	out[offIT] = initialTempo
	out[offSep] = panSeparation
	out[offPWD] = 0
	// Message length, message offset and reserved stay zero

	pan := out[offChannelPan : offChannelPan+MaxChannels]
	for i := range pan {
		pan[i] = panDisabled
	}
	copies := 1 + cfg.ExtraChannels
	for ch := 0; ch < smpNum; ch++ {
		p := channelPan(ch, smpNum)
		for c := 0; c < copies; c++ {
			pan[ch*copies+c] = p
		}
	}

	vol := out[offChannelVol : offChannelVol+MaxChannels]
	for i := range vol {
		vol[i] = channelVol
	}

	out[offOrders] = 0
	out[offOrders+1] = orderEnd

	// Instrument offsets would follow here; there are none
	pos := offOrders + OrderCount + InstrumentCount*4
	for _, s := range l.Samples {
		le.PutUint32(out[pos:], uint32(s.HeaderOffset))
		pos += 4
	}
	le.PutUint32(out[pos:], uint32(l.PatternOffset))
}

func channelPan(ch, smpNum int) byte {
	if smpNum == 1 {
		return panCenter
	}
	if ch == 0 {
		return panLeft
	}
	return panRight
}

func writeSampleHeader(h []byte, s Sample, cfg Config) {
	le := binary.LittleEndian

	flags := byte(sampleFlagData)
	if cfg.BitDepth == 16 {
		flags |= sampleFlag16Bit
	}

	copy(h[0x00:], "IMPS")
	// DOS filename (12) and its terminator stay zero
	h[0x11] = sampleGlobalVolume
	h[0x12] = flags
	h[0x13] = sampleVolume
	// Sample name (26) stays zero
	h[0x2E] = sampleSigned
	h[0x2F] = sampleDefaultPan
	le.PutUint32(h[0x30:], uint32(s.Length))
	// Loop begin/end are unused
	le.PutUint32(h[0x3C:], uint32(cfg.SampleRate)) // C5Speed
	// Sustain loop begin/end are unused
	le.PutUint32(h[0x48:], uint32(s.DataOffset))
	// Vibrato speed/depth/waveform/rate stay zero
}

func writePattern(p []byte, l Layout) {
	le := binary.LittleEndian

	le.PutUint16(p[0:], uint16(l.PatternDataSize))
	le.PutUint16(p[2:], uint16(l.Rows))
	// 4 reserved bytes

	pos := PatternHeaderSize
	channel := byte(eventChannelBase)
	copies := l.TrackerChannels / len(l.Samples)
	for _, s := range l.Samples {
		for c := 0; c < copies; c++ {
			p[pos] = channel
			p[pos+1] = eventMask
			p[pos+2] = noteC5
			p[pos+3] = byte(s.Index)
			pos += eventSize
			channel++
		}
	}
	// The remaining bytes are end-of-row markers, one per row, already zero
}
