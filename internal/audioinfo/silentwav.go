package audioinfo

import (
	"bytes"
	"encoding/binary"
)

const (
	silentSampleRate = 22050
	silentChannels   = 1
	silentBitDepth   = 16
)

// SilentWAV returns a well-formed RIFF/WAVE container holding the requested
// seconds of 16-bit mono 22.05 kHz silence. Used as the demo-mode payload so
// downstream audio-aware tooling always receives a structurally valid file.
func SilentWAV(seconds float64) []byte {
	if seconds < 0 {
		seconds = 0
	}
	sampleCount := int(seconds * silentSampleRate)
	dataSize := sampleCount * silentChannels * silentBitDepth / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	byteRate := silentSampleRate * silentChannels * silentBitDepth / 8
	blockAlign := silentChannels * silentBitDepth / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(silentChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(silentSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(silentBitDepth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}
