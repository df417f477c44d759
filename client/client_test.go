package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_WithoutColours(t *testing.T) {
	req := require.New(t)
	line := "[10:00:00] alice: hello"
	req.Equal(line, render(line, false))
}

func TestRender_ChatLineKeepsText(t *testing.T) {
	req := require.New(t)
	rendered := render("[10:00:00] alice: hello: world", true)
	req.Contains(rendered, "alice")
	req.Contains(rendered, ": hello: world")
}

func TestForwardLines_StopsOnQuit(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer

	// Given lines typed after /quit
	input := bufio.NewScanner(strings.NewReader("hi\n/QUIT\nignored\n"))

	// When they are forwarded
	req.NoError(forwardLines(input, &out))

	// Then nothing after /quit is sent
	req.Equal("hi\n/QUIT\n", out.String())
}

func TestForwardLines_QuitsOnEOF(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	req.NoError(forwardLines(bufio.NewScanner(strings.NewReader("hi\n")), &out))
	req.Equal("hi\n/quit\n", out.String())
}

func TestPrintLines(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	req.NoError(printLines(strings.NewReader("*** bob joined general\nWelcome\n"), &out, false))
	req.Equal("*** bob joined general\nWelcome\n", out.String())
}
