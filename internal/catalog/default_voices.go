// Package catalog provides the static fallback voice catalogs and a
// redis-backed cache for live catalog fetches. The fallback is served in demo
// mode and whenever a live fetch fails.
package catalog

import "github.com/mpre5ley/tts-eval-platform/internal/models"

var defaultVoices = map[string][]models.Voice{
	"elevenlabs": {
		{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Language: "en-US", Gender: "female"},
		{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Language: "en-US", Gender: "female"},
		{ID: "AZnzlk1XvdvUeBnXmlld", Name: "Domi", Language: "en-US", Gender: "female"},
		{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Language: "en-US", Gender: "male"},
		{ID: "yoZ06aMxZJJ28mfd3POQ", Name: "Sam", Language: "en-US", Gender: "male"},
	},
	"google": {
		{ID: "en-US-Neural2-A", Name: "en-US-Neural2-A", Language: "en-US", Gender: "male"},
		{ID: "en-US-Neural2-C", Name: "en-US-Neural2-C", Language: "en-US", Gender: "female"},
		{ID: "en-US-Wavenet-D", Name: "en-US-Wavenet-D", Language: "en-US", Gender: "male"},
		{ID: "en-US-Wavenet-F", Name: "en-US-Wavenet-F", Language: "en-US", Gender: "female"},
		{ID: "en-GB-Neural2-A", Name: "en-GB-Neural2-A", Language: "en-GB", Gender: "female"},
	},
	"azure": {
		{ID: "en-US-JennyNeural", Name: "Jenny", Language: "en-US", Gender: "female"},
		{ID: "en-US-GuyNeural", Name: "Guy", Language: "en-US", Gender: "male"},
		{ID: "en-US-AriaNeural", Name: "Aria", Language: "en-US", Gender: "female"},
		{ID: "en-GB-SoniaNeural", Name: "Sonia", Language: "en-GB", Gender: "female"},
		{ID: "en-GB-RyanNeural", Name: "Ryan", Language: "en-GB", Gender: "male"},
	},
	"amazon": {
		{ID: "Joanna", Name: "Joanna", Language: "en-US", Gender: "female"},
		{ID: "Matthew", Name: "Matthew", Language: "en-US", Gender: "male"},
		{ID: "Salli", Name: "Salli", Language: "en-US", Gender: "female"},
		{ID: "Amy", Name: "Amy", Language: "en-GB", Gender: "female"},
		{ID: "Brian", Name: "Brian", Language: "en-GB", Gender: "male"},
	},
	"openai": {
		{ID: "alloy", Name: "Alloy", Language: "en-US", Gender: "neutral"},
		{ID: "echo", Name: "Echo", Language: "en-US", Gender: "male"},
		{ID: "fable", Name: "Fable", Language: "en-US", Gender: "neutral"},
		{ID: "onyx", Name: "Onyx", Language: "en-US", Gender: "male"},
		{ID: "nova", Name: "Nova", Language: "en-US", Gender: "female"},
		{ID: "shimmer", Name: "Shimmer", Language: "en-US", Gender: "female"},
	},
}

// Defaults returns the static fallback catalog for a backend. The returned
// slice is a copy; callers may mutate it. Unknown backends yield an empty
// list, never nil panics.
func Defaults(provider string) []models.Voice {
	voices, ok := defaultVoices[provider]
	if !ok {
		return []models.Voice{}
	}
	out := make([]models.Voice, len(voices))
	copy(out, voices)
	return out
}

// Providers returns the backend identifiers with a fallback catalog.
func Providers() []string {
	names := make([]string, 0, len(defaultVoices))
	for name := range defaultVoices {
		names = append(names, name)
	}
	return names
}
