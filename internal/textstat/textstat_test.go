package textstat

import "testing"

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantChars int
		wantWords int
	}{
		{name: "empty", text: "", wantChars: 0, wantWords: 0},
		{name: "whitespace only", text: "  \t\n ", wantChars: 5, wantWords: 0},
		{name: "single word", text: "hello", wantChars: 5, wantWords: 1},
		{name: "sentence", text: "the quick brown fox", wantChars: 19, wantWords: 4},
		{name: "collapsed spaces", text: "a   b", wantChars: 5, wantWords: 2},
		{name: "multibyte runes", text: "héllo wörld", wantChars: 11, wantWords: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chars, words := Analyze(tc.text)
			if chars != tc.wantChars || words != tc.wantWords {
				t.Fatalf("Analyze(%q) = (%d, %d), want (%d, %d)", tc.text, chars, words, tc.wantChars, tc.wantWords)
			}
		})
	}
}
