package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// TestModerator_Censor
// The dictionary uses specific words to avoid partial collisions with ordinary chat
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"spam", "scam", "troll"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "this is spam mail",
			expected: "this is **** mail",
			words:    []string{"spam"},
		},
		{
			name:     "Multiple occurrences",
			input:    "spam spam",
			expected: "**** ****",
			words:    []string{"spam", "spam"},
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "S.p.@.m now",
			expected: "******* now",
			words:    []string{"spam"},
		},
		{
			name:     "Uppercase and dashes",
			input:    "T-R-0-L-L here",
			expected: "********* here",
			words:    []string{"troll"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été de scam",
			expected: "Un été de ****",
			words:    []string{"scam"},
		},
		{
			name:     "Word inside a longer word",
			input:    "no trolling",
			expected: "no *****ing",
			words:    []string{"troll"},
		},
		{
			name:     "Nothing to censor",
			input:    "All good here",
			expected: "All good here",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.words, words, "expected=%s,words=%s", tt.expected, words)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise and not Leet Speak associated
	dictionary := []string{"...", ",,,", "", "spam"}

	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	// Then the sentence is censored
	content, words := mod.Censor("The spam is safe")
	req.Equal("The **** is safe", content)
	req.Equal([]string{"spam"}, words)

	// Then real noise is uncensored
	content, words = mod.Censor("Hello ...")
	req.Equal("Hello ...", content)
	req.Nil(words)
}

func TestModerator_OnlyNoise_Disabled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mod, err := NewModerator([]string{"...", " "}, replacementChar, log)
	req.NoError(err)

	content, words := mod.Censor("anything goes")
	req.Equal("anything goes", content)
	req.Nil(words)
}
