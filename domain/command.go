package domain

import (
	"strings"
	"unicode"
)

// CommandMarker starts every control line.
const CommandMarker = "/"

const (
	CommandQuit    = "quit"
	CommandUsers   = "users"
	CommandJoin    = "join"
	CommandEncrypt = "encrypt"
	CommandDecrypt = "decrypt"
	CommandCipher  = "cipher"
	CommandRooms   = "rooms"
	CommandHistory = "history"
	CommandSearch  = "search"
	CommandHelp    = "help"
)

// Line is one parsed line of client input: either a chat message or a command.
type Line struct {
	Raw       string
	IsCommand bool
	Name      string // command name without the marker
	Args      string // remainder after the first whitespace, verbatim
}

// Token is the command as typed, marker included.
func (l Line) Token() string {
	return CommandMarker + l.Name
}

// ParseLine splits a raw input line. Blank lines are reported as not ok and
// must be swallowed by the caller.
func ParseLine(raw string) (Line, bool) {
	raw = strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(raw) == "" {
		return Line{}, false
	}
	if !strings.HasPrefix(raw, CommandMarker) {
		return Line{Raw: raw}, true
	}

	body := strings.TrimPrefix(raw, CommandMarker)
	name, args := body, ""
	if idx := strings.IndexFunc(body, unicode.IsSpace); idx >= 0 {
		name, args = body[:idx], body[idx+1:]
	}
	return Line{
		Raw:       raw,
		IsCommand: true,
		Name:      name,
		Args:      args,
	}, true
}

// FirstArg returns the first whitespace delimited argument.
func (l Line) FirstArg() string {
	fields := strings.Fields(l.Args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
