package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		ok       bool
		expected Line
	}{
		{
			name:     "Plain chat message",
			input:    "hello there",
			ok:       true,
			expected: Line{Raw: "hello there"},
		},
		{
			name:     "Trailing carriage return is stripped",
			input:    "hello\r\n",
			ok:       true,
			expected: Line{Raw: "hello"},
		},
		{
			name:     "Command without argument",
			input:    "/quit",
			ok:       true,
			expected: Line{Raw: "/quit", IsCommand: true, Name: "quit"},
		},
		{
			name:     "Command with argument",
			input:    "/join secure",
			ok:       true,
			expected: Line{Raw: "/join secure", IsCommand: true, Name: "join", Args: "secure"},
		},
		{
			name:     "Free text argument is kept verbatim",
			input:    "/encrypt  two  spaces ",
			ok:       true,
			expected: Line{Raw: "/encrypt  two  spaces ", IsCommand: true, Name: "encrypt", Args: " two  spaces "},
		},
		{
			name:     "Marker alone",
			input:    "/",
			ok:       true,
			expected: Line{Raw: "/", IsCommand: true},
		},
		{
			name:  "Empty line",
			input: "",
			ok:    false,
		},
		{
			name:  "Blank line",
			input: "   \t",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			line, ok := ParseLine(tt.input)
			req.Equal(tt.ok, ok)
			req.Equal(tt.expected, line)
		})
	}
}

func TestLine_TokenAndFirstArg(t *testing.T) {
	req := require.New(t)
	line, ok := ParseLine("/foo  bar baz")
	req.True(ok)
	req.Equal("/foo", line.Token())
	req.Equal("bar", line.FirstArg())
}

func TestMessage_Format(t *testing.T) {
	req := require.New(t)
	msg := NewMessage("general", "A", "hello", false, at)

	req.Equal("[13:04:05] A: hello\n", string(msg.Format()))
	req.Equal("[13:04:05] You: hello\n", string(msg.FormatAs(EchoSender)))
	req.NotEqual(msg.ID, NewMessage("general", "A", "hello", false, at).ID)
}
