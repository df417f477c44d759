package server

import (
	"cipher-chat/domain"
	"cipher-chat/errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var _ domain.Member = (*Session)(nil)

// Session is one connected client. Writes are serialized by writeMu, the
// room back-reference and the preferences by mu. mu is always the innermost
// lock: a room may take it while holding its own lock, never the reverse.
type Session struct {
	id           uuid.UUID
	name         string
	remote       string
	conn         net.Conn
	writeTimeout time.Duration
	connectedAt  time.Time

	writeMu sync.Mutex

	mu     sync.Mutex
	room   string
	cipher bool

	live      atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func NewSession(conn net.Conn, name string, writeTimeout time.Duration) *Session {
	s := &Session{
		id:           uuid.New(),
		name:         name,
		remote:       remoteAddr(conn),
		conn:         conn,
		writeTimeout: writeTimeout,
		connectedAt:  time.Now(),
	}
	s.live.Store(true)
	return s
}

func (s *Session) ID() uuid.UUID          { return s.id }
func (s *Session) Name() string           { return s.name }
func (s *Session) Remote() string         { return s.remote }
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

// Send writes the payload to the peer. Any failure is terminal: the session
// is marked dead, its transport closed and an ErrTransport returned.
func (s *Session) Send(payload []byte) error {
	if !s.live.Load() {
		return fmt.Errorf("%w: session %s is closed", errors.ErrTransport, s.id)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := s.conn.Write(payload); err != nil {
		_ = s.Close()
		return fmt.Errorf("%w: %v", errors.ErrTransport, err)
	}
	return nil
}

// Reply sends a system line, adding the trailing newline when missing.
func (s *Session) Reply(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	return s.Send([]byte(line))
}

func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// BindRoom sets the room back-reference if the session is in no room.
func (s *Session) BindRoom(room string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != "" {
		return false
	}
	s.room = room
	return true
}

// UnbindRoom clears the back-reference if it still points to room.
func (s *Session) UnbindRoom(room string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != room {
		return false
	}
	s.room = ""
	return true
}

// Cipher reports whether chat lines of this session are transformed.
func (s *Session) Cipher() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cipher
}

func (s *Session) SetCipher(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cipher = enabled
}

func (s *Session) Live() bool {
	return s.live.Load()
}

// Quit marks the session as finished. The transport stays open until the
// owning worker tears the session down.
func (s *Session) Quit() {
	s.live.Store(false)
}

// Close is idempotent and releases the transport.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.live.Store(false)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
