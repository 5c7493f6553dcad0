// Package audioinfo estimates the playback duration of raw audio payloads and
// generates minimal valid audio containers for simulated synthesis.
package audioinfo

import (
	"bytes"
	"strings"

	"github.com/hajimehoshi/go-mp3"

	wavdec "github.com/go-audio/wav"
)

// Approximate bytes-per-second constants for the heuristic fallback. Tuned to
// the typical output bitrates of the supported vendors.
var heuristicBytesPerSec = map[string]float64{
	"mp3": 16000,
	"wav": 44100,
	"ogg": 12000,
}

// Duration returns the playback length of data in seconds, or nil when it
// cannot be determined. It first attempts an exact container decode keyed by
// the format tag, then falls back to a bytes-per-second heuristic. An
// unrecognized format yields nil, never zero: a zero duration would corrupt
// downstream realtime-factor computation.
func Duration(data []byte, format string) *float64 {
	if len(data) == 0 {
		return nil
	}
	format = strings.ToLower(strings.TrimSpace(format))

	switch format {
	case "mp3", "mpeg":
		if d := mp3Duration(data); d != nil {
			return d
		}
		format = "mp3"
	case "wav", "wave":
		if d := wavDuration(data); d != nil {
			return d
		}
		format = "wav"
	}

	bps, ok := heuristicBytesPerSec[format]
	if !ok {
		return nil
	}
	d := float64(len(data)) / bps
	return &d
}

func mp3Duration(data []byte) *float64 {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	rate := dec.SampleRate()
	if rate <= 0 {
		return nil
	}
	// go-mp3 decodes to 16-bit stereo, 4 bytes per sample frame.
	d := float64(dec.Length()) / float64(rate*4)
	return &d
}

func wavDuration(data []byte) *float64 {
	dec := wavdec.NewDecoder(bytes.NewReader(data))
	dur, err := dec.Duration()
	if err != nil || dur <= 0 {
		return nil
	}
	d := dur.Seconds()
	return &d
}
