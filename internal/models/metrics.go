package models

import "math"

// Metrics holds every raw and derived measurement for one synthesis attempt.
// Raw fields are nil until measured; Derive fills the computed fields from
// whatever raw data is present and leaves the rest nil.
type Metrics struct {
	// Raw timing, milliseconds since request start.
	TTFBMs           *float64 `json:"time_to_first_byte_ms,omitempty"`
	TTFAMs           *float64 `json:"time_to_first_audio_ms,omitempty"`
	TotalTimeMs      *float64 `json:"total_synthesis_time_ms,omitempty"`
	NetworkLatencyMs *float64 `json:"network_latency_ms,omitempty"`

	// Audio payload properties, populated only when derivable.
	AudioDurationSec *float64 `json:"audio_duration_sec,omitempty"`
	AudioSizeBytes   *int64   `json:"audio_size_bytes,omitempty"`
	AudioFormat      string   `json:"audio_format,omitempty"`
	SampleRate       *int     `json:"sample_rate,omitempty"`
	Bitrate          *int     `json:"bitrate,omitempty"`

	// Streaming delivery shape. ChunkTimingsMs entries are offsets from
	// request start and are non-decreasing; length equals ChunkCount.
	IsStreaming       bool      `json:"is_streaming"`
	ChunkCount        int       `json:"chunk_count"`
	AvgChunkSizeBytes *float64  `json:"avg_chunk_size_bytes,omitempty"`
	ChunkTimingsMs    []float64 `json:"chunk_timings_ms,omitempty"`

	// Derived inter-chunk delay statistics.
	MinChunkDelayMs  *float64 `json:"min_chunk_delay_ms,omitempty"`
	MaxChunkDelayMs  *float64 `json:"max_chunk_delay_ms,omitempty"`
	AvgChunkDelayMs  *float64 `json:"avg_chunk_delay_ms,omitempty"`
	PlaybackJitterMs *float64 `json:"playback_jitter_ms,omitempty"`

	// Input text shape, computed once before dispatch.
	CharCount int `json:"character_count"`
	WordCount int `json:"word_count"`

	// Derived throughput.
	CharsPerSecond *float64 `json:"chars_per_second,omitempty"`
	RealtimeFactor *float64 `json:"realtime_factor,omitempty"`
}

// Derive computes throughput and inter-chunk statistics from the raw fields.
// It is idempotent: re-running over the same raw fields yields identical
// values. Missing prerequisites leave the corresponding derived field nil.
func (m *Metrics) Derive() {
	m.CharsPerSecond = nil
	m.RealtimeFactor = nil
	m.MinChunkDelayMs = nil
	m.MaxChunkDelayMs = nil
	m.AvgChunkDelayMs = nil
	m.PlaybackJitterMs = nil

	if m.TotalTimeMs != nil && *m.TotalTimeMs > 0 {
		if m.CharCount > 0 {
			cps := float64(m.CharCount) / *m.TotalTimeMs * 1000
			m.CharsPerSecond = &cps
		}
		if m.AudioDurationSec != nil {
			rtf := *m.AudioDurationSec / (*m.TotalTimeMs / 1000)
			m.RealtimeFactor = &rtf
		}
	}

	if len(m.ChunkTimingsMs) >= 2 {
		deltas := make([]float64, 0, len(m.ChunkTimingsMs)-1)
		for i := 1; i < len(m.ChunkTimingsMs); i++ {
			deltas = append(deltas, m.ChunkTimingsMs[i]-m.ChunkTimingsMs[i-1])
		}

		minDelay, maxDelay, sum := deltas[0], deltas[0], 0.0
		for _, d := range deltas {
			if d < minDelay {
				minDelay = d
			}
			if d > maxDelay {
				maxDelay = d
			}
			sum += d
		}
		mean := sum / float64(len(deltas))

		var sq float64
		for _, d := range deltas {
			sq += (d - mean) * (d - mean)
		}
		// Population stdev over the deltas; a single delta yields zero.
		jitter := math.Sqrt(sq / float64(len(deltas)))

		m.MinChunkDelayMs = &minDelay
		m.MaxChunkDelayMs = &maxDelay
		m.AvgChunkDelayMs = &mean
		m.PlaybackJitterMs = &jitter
	}
}

// Float64Ptr returns a pointer to v. Convenience for nullable metric fields.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
