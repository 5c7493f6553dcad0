package models

// SynthesisOptions carries backend-specific tuning parameters. Nil pointer
// fields mean "use the vendor default".
type SynthesisOptions struct {
	ModelID         string   `json:"model_id,omitempty"`
	LanguageCode    string   `json:"language_code,omitempty"`
	SpeakingRate    *float64 `json:"speaking_rate,omitempty"`
	Pitch           *float64 `json:"pitch,omitempty"`
	Stability       *float64 `json:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarity_boost,omitempty"`
}

// SynthesisRequest describes one synthesis attempt against one backend.
// Immutable for the duration of the attempt.
type SynthesisRequest struct {
	Text      string           `json:"text"`
	Provider  string           `json:"provider"`
	VoiceID   string           `json:"voice_id"`
	Streaming bool             `json:"streaming"`
	Options   SynthesisOptions `json:"options"`
}

// SynthesisResult is the outcome of one dispatch call. Adapters always return
// a result, never an error: every failure mode is folded into Success=false
// plus ErrorMessage, with whatever partial metrics were captured preserved.
type SynthesisResult struct {
	Success      bool              `json:"success"`
	Provider     string            `json:"provider"`
	VoiceID      string            `json:"voice_id"`
	ModelID      string            `json:"model_id,omitempty"`
	Audio        []byte            `json:"-"`
	AudioBase64  string            `json:"audio_base64,omitempty"`
	Metrics      Metrics           `json:"metrics"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Notice       string            `json:"notice,omitempty"`
	StatusCode   int               `json:"status_code,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// Voice is one entry of a backend's voice catalog.
type Voice struct {
	ID          string `json:"voice_id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProviderConfig is one entry of a multi-backend dispatch list.
type ProviderConfig struct {
	Provider string           `json:"provider"`
	VoiceID  string           `json:"voice_id"`
	Options  SynthesisOptions `json:"options"`
}
