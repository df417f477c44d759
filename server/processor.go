package server

import (
	"bytes"
	"cipher-chat/contract"
	"cipher-chat/domain"
	"cipher-chat/errors"
	"cipher-chat/services"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

const capabilities = "Available commands:\n" +
	"/join <room> - Join a chat room\n" +
	"/users - List users in current room\n" +
	"/encrypt <message> - Send encrypted message\n" +
	"/decrypt <payload> - Decode an encrypted payload\n" +
	"/cipher on|off - Encrypt every chat line you send\n" +
	"/rooms - List chat rooms\n" +
	"/history [cursor] - Show archived messages of the current room\n" +
	"/search <terms> [--limit N] - Search the current room\n" +
	"/help - Show this list\n" +
	"/quit - Leave the chat\n"

// Processor turns the input lines of a session into chat operations.
// It is stateless, the per-session state lives in the Session.
type Processor struct {
	log       *slog.Logger
	chat      services.IChatService
	transform contract.Transform
}

func NewProcessor(log *slog.Logger, chat services.IChatService, transform contract.Transform) *Processor {
	return &Processor{log: log, chat: chat, transform: transform}
}

// Welcome sends the banner and the capability list.
func (p *Processor) Welcome(s *Session) error {
	return s.Reply(fmt.Sprintf("Welcome to CipherChat, %s!\n%s\n", s.Name(), capabilities))
}

// Handle processes one raw input line. Failures are reported to the session
// as plain text, none of them ends the session except a transport error.
func (p *Processor) Handle(ctx context.Context, s *Session, raw string) {
	line, ok := domain.ParseLine(raw)
	if !ok {
		return
	}
	if !line.IsCommand {
		p.handleChat(s, line.Raw)
		return
	}

	switch strings.ToLower(line.Name) {
	case domain.CommandQuit:
		p.reply(s, fmt.Sprintf("Goodbye, %s!", s.Name()))
		s.Quit()
	case domain.CommandUsers:
		p.handleUsers(s)
	case domain.CommandJoin:
		p.handleJoin(s, line.FirstArg())
	case domain.CommandEncrypt:
		p.handleEncrypt(s, line.Args)
	case domain.CommandDecrypt:
		p.handleDecrypt(s, strings.TrimSpace(line.Args))
	case domain.CommandCipher:
		p.handleCipher(s, strings.ToLower(line.FirstArg()))
	case domain.CommandRooms:
		p.handleRooms(s)
	case domain.CommandHistory:
		p.handleHistory(s, line.FirstArg())
	case domain.CommandSearch:
		p.handleSearch(ctx, s, line.Args)
	case domain.CommandHelp:
		p.reply(s, capabilities)
	default:
		p.reply(s, "Unknown command: "+line.Token())
	}
}

// handleChat broadcasts the line to the room and echoes it to the sender,
// who is excluded from its own broadcast.
func (p *Processor) handleChat(s *Session, text string) {
	content, transformed := text, s.Cipher()
	if transformed {
		payload, err := p.encode(text)
		if err != nil {
			p.fail(s, err)
			return
		}
		content = payload
	}
	msg, err := p.chat.PostMessage(s, content, transformed)
	if err != nil {
		p.fail(s, err)
		return
	}
	p.send(s, msg.FormatAs(domain.EchoSender))
}

func (p *Processor) handleUsers(s *Session) {
	members, err := p.chat.Members(s)
	if err != nil {
		p.fail(s, err)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Users in %s:\n", s.Room())
	for _, name := range members {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	p.reply(s, b.String())
}

func (p *Processor) handleJoin(s *Session, name string) {
	if name == "" {
		p.reply(s, "Usage: /join <room>")
		return
	}
	room, err := p.chat.JoinRoom(s, name)
	if err != nil {
		p.fail(s, err)
		return
	}
	p.reply(s, fmt.Sprintf("Joined %s", room.Name()))
}

// handleEncrypt announces a redacted message to the room and hands the
// transformed payload back to the sender only.
func (p *Processor) handleEncrypt(s *Session, text string) {
	if strings.TrimSpace(text) == "" {
		p.reply(s, "Usage: /encrypt <message>")
		return
	}
	payload, err := p.encode(text)
	if err != nil {
		p.fail(s, err)
		return
	}
	if _, err := p.chat.PostRedacted(s); err != nil {
		p.fail(s, err)
		return
	}
	p.reply(s, "Encrypted message sent: "+payload)
}

func (p *Processor) handleDecrypt(s *Session, payload string) {
	if payload == "" {
		p.reply(s, "Usage: /decrypt <payload>")
		return
	}
	plain, err := p.decode(payload)
	if err != nil {
		p.fail(s, err)
		return
	}
	p.reply(s, "Decrypted: "+plain)
}

func (p *Processor) handleCipher(s *Session, mode string) {
	switch mode {
	case "on":
		s.SetCipher(true)
		p.reply(s, fmt.Sprintf("Cipher enabled (%s)", p.transform.Name()))
	case "off":
		s.SetCipher(false)
		p.reply(s, "Cipher disabled")
	default:
		p.reply(s, "Usage: /cipher on|off")
	}
}

func (p *Processor) handleRooms(s *Session) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Room", "Users", "Messages", "Last activity"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	current := s.Room()
	for _, room := range p.chat.Rooms() {
		name := room.Name
		if name == current {
			name += " *"
		}
		last := "-"
		if !room.LastActivity.IsZero() {
			last = room.LastActivity.Format(time.TimeOnly)
		}
		table.Append([]string{name, strconv.Itoa(room.Members), strconv.Itoa(room.Messages), last})
	}
	table.Render()
	p.reply(s, buf.String())
}

func (p *Processor) handleHistory(s *Session, cursor string) {
	var from *string
	if cursor != "" {
		from = &cursor
	}
	messages, next, err := p.chat.History(s, from)
	if err != nil {
		p.fail(s, err)
		return
	}
	if len(messages) == 0 {
		p.reply(s, "No messages")
		return
	}
	var b bytes.Buffer
	for _, msg := range messages {
		b.Write(msg.Format())
	}
	if next != nil {
		fmt.Fprintf(&b, "More: /history %s\n", *next)
	}
	p.send(s, b.Bytes())
}

func (p *Processor) handleSearch(ctx context.Context, s *Session, input string) {
	if strings.TrimSpace(input) == "" {
		p.reply(s, "Usage: /search <terms> [--limit N]")
		return
	}
	hits, err := p.chat.Search(ctx, s, input)
	if err != nil {
		p.fail(s, err)
		return
	}
	if len(hits) == 0 {
		p.reply(s, "No results")
		return
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d result(s):\n", len(hits))
	for _, msg := range hits {
		b.Write(msg.Format())
	}
	p.send(s, b.Bytes())
}

// encode applies the transform and returns the payload as printable text.
func (p *Processor) encode(text string) (string, error) {
	encoded, err := p.transform.Encode([]byte(text))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}

func (p *Processor) decode(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	plain, err := p.transform.Decode(raw)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (p *Processor) fail(s *Session, err error) {
	p.log.Debug("Command failed", "session", s.ID(), "error", err)
	p.reply(s, errors.UserMessage(err))
}

func (p *Processor) reply(s *Session, line string) {
	if err := s.Reply(line); err != nil {
		p.log.Debug("Reply lost", "session", s.ID(), "error", err)
	}
}

func (p *Processor) send(s *Session, payload []byte) {
	if err := s.Send(payload); err != nil {
		p.log.Debug("Reply lost", "session", s.ID(), "error", err)
	}
}
