// Package streamutil implements the shared chunk-capture loop adapters use to
// reconstruct per-chunk delivery timing from an incremental response body.
package streamutil

import (
	"bytes"
	"io"
	"time"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

// DefaultChunkBytes is the read increment requested per body read. The actual
// delivered increment is backend-determined and acts as the de facto chunk.
const DefaultChunkBytes = 1024

// Capture is the accumulated delivery record of one streaming read. All state
// is local to the call that created it; adapters must never share a Capture
// across concurrent invocations.
type Capture struct {
	Audio       []byte
	TimingsMs   []float64
	TTFAMs      *float64
	TotalMs     float64
	AvgChunkLen *float64
}

// ElapsedMs returns the monotonic milliseconds elapsed since start.
func ElapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}

// Consume reads body in chunkBytes increments until exhaustion, recording the
// arrival offset of every non-empty increment relative to start. The first
// non-empty increment sets time-to-first-audio. Returns the capture and any
// read error other than EOF; the capture is valid either way so partial
// timing survives a mid-stream failure.
func Consume(body io.Reader, chunkBytes int, start time.Time) (Capture, error) {
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}

	var rec Capture
	var buf bytes.Buffer
	var readErr error
	chunk := make([]byte, chunkBytes)
	sizeSum := 0

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			at := ElapsedMs(start)
			if rec.TTFAMs == nil {
				ttfa := at
				rec.TTFAMs = &ttfa
			}
			rec.TimingsMs = append(rec.TimingsMs, at)
			sizeSum += n
			buf.Write(chunk[:n])
		}
		if err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
	}

	rec.TotalMs = ElapsedMs(start)
	rec.Audio = buf.Bytes()
	if len(rec.TimingsMs) > 0 {
		avg := float64(sizeSum) / float64(len(rec.TimingsMs))
		rec.AvgChunkLen = &avg
	}
	return rec, readErr
}

// Apply copies the capture into the streaming fields of m.
func (c Capture) Apply(m *models.Metrics) {
	m.IsStreaming = true
	m.TTFAMs = c.TTFAMs
	m.TotalTimeMs = &c.TotalMs
	m.ChunkCount = len(c.TimingsMs)
	m.ChunkTimingsMs = c.TimingsMs
	m.AvgChunkSizeBytes = c.AvgChunkLen
	if len(c.Audio) > 0 {
		m.AudioSizeBytes = models.Int64Ptr(int64(len(c.Audio)))
	}
}
