// Package server is the line oriented TCP front of the chat: it accepts
// connections, performs the name handshake and drives one worker per
// session until the session ends.
package server

import (
	"bufio"
	"cipher-chat/errors"
	"cipher-chat/services"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var validate = validator.New()

type Config struct {
	Address          string
	DefaultRoom      string
	UniqueNames      bool
	MaxNameLength    int
	MaxLineLength    int
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

type Server struct {
	log       *slog.Logger
	cfg       Config
	chat      services.IChatService
	processor *Processor

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	lnMu     sync.Mutex
	listener net.Listener
	accepted chan struct{}
	conns    sync.WaitGroup
}

func New(log *slog.Logger, cfg Config, chat services.IChatService, processor *Processor) *Server {
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = bufio.MaxScanTokenSize
	}
	if cfg.MaxNameLength <= 0 {
		cfg.MaxNameLength = 32
	}
	return &Server{
		log:       log,
		cfg:       cfg,
		chat:      chat,
		processor: processor,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Start binds the listener and runs the accept loop in the background.
// A bind failure is returned to the caller.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	s.lnMu.Lock()
	s.listener = listener
	s.accepted = make(chan struct{})
	s.lnMu.Unlock()

	s.log.Info("Chat server listening", "address", listener.Addr().String())
	go s.acceptLoop(ctx, listener, s.accepted)
	return nil
}

// Addr is the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for the accept loop to return.
// Connected sessions keep running.
func (s *Server) Stop() error {
	s.lnMu.Lock()
	listener, accepted := s.listener, s.accepted
	s.listener = nil
	s.lnMu.Unlock()
	if listener == nil {
		return nil
	}
	err := listener.Close()
	<-accepted
	s.log.Info("Chat server stopped accepting connections")
	return err
}

// CloseSessions closes the transport of every connected session and waits
// for their workers to tear down. Used at process shutdown.
func (s *Server) CloseSessions() {
	for _, session := range s.Sessions() {
		_ = session.Close()
	}
	s.conns.Wait()
}

// Sessions returns a snapshot of the connected sessions.
func (s *Server) Sessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Values(s.sessions)
}

func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener, done chan struct{}) {
	defer close(done)
	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if stderrors.Is(err, net.ErrClosed) {
				return
			}
			// Transient failure such as too many open files
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.log.Warn("Accept failed, retrying", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn runs the whole life of one connection: handshake, registration,
// default room, welcome, then the read loop. It returns once the session has
// been torn down.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	lines := newLineReader(conn, s.cfg.MaxLineLength)

	name, err := s.handshake(conn, lines)
	if err != nil {
		s.log.Info("Handshake failed", "remote", conn.RemoteAddr(), "error", err)
		if stderrors.Is(err, errors.ErrInvalidUsername) {
			s.rejectConn(conn, errors.UserMessage(err))
		}
		_ = conn.Close()
		return
	}

	session := NewSession(conn, name, s.cfg.WriteTimeout)
	if err := s.register(session); err != nil {
		s.log.Info("Session rejected", "name", name, "remote", session.Remote(), "error", err)
		s.rejectConn(conn, errors.UserMessage(err))
		_ = conn.Close()
		return
	}
	defer s.teardown(session)

	s.log.Info("Session connected", "session", session.ID(), "name", name, "remote", session.Remote())

	if _, err := s.chat.JoinRoom(session, s.cfg.DefaultRoom); err != nil {
		s.log.Warn("Unable to join the default room", "session", session.ID(), "room", s.cfg.DefaultRoom, "error", err)
	}
	if err := s.processor.Welcome(session); err != nil {
		return
	}

	for session.Live() {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		line, err := lines.Next()
		if stderrors.Is(err, errors.ErrLineTooLong) {
			// The line is dropped, the session goes on
			_ = session.Reply(fmt.Sprintf("Line too long (max %d bytes)", s.cfg.MaxLineLength))
			continue
		}
		if err != nil {
			if session.Live() && !stderrors.Is(err, io.EOF) {
				s.log.Info("Session read failed", "session", session.ID(), "error", err)
			}
			return
		}
		s.processor.Handle(ctx, session, line)
	}
}

// handshake reads the first line as the display name.
func (s *Server) handshake(conn net.Conn, lines *lineReader) (string, error) {
	if s.cfg.HandshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	}
	line, err := lines.Next()
	if stderrors.Is(err, errors.ErrLineTooLong) {
		return "", fmt.Errorf("%w: %w", errors.ErrHandshake, errors.ErrInvalidUsername)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrHandshake, err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	name := strings.TrimSpace(line)
	if err := s.validateName(name); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrHandshake, err)
	}
	return name, nil
}

func (s *Server) validateName(name string) error {
	if err := validate.Var(name, fmt.Sprintf("required,max=%d", s.cfg.MaxNameLength)); err != nil {
		return fmt.Errorf("%w: %q", errors.ErrInvalidUsername, name)
	}
	if strings.HasPrefix(name, "/") || strings.IndexFunc(name, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
		return fmt.Errorf("%w: %q", errors.ErrInvalidUsername, name)
	}
	return nil
}

func (s *Server) register(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.UniqueNames {
		for _, other := range s.sessions {
			if strings.EqualFold(other.Name(), session.Name()) {
				return fmt.Errorf("%w: %s", errors.ErrUsernameTaken, session.Name())
			}
		}
	}
	s.sessions[session.ID()] = session
	return nil
}

// teardown runs once per session, from the worker that owns it: leave the
// room, forget the session, release the transport.
func (s *Server) teardown(session *Session) {
	if _, err := s.chat.LeaveRoom(session); err != nil && !stderrors.Is(err, errors.ErrNotInRoom) {
		s.log.Warn("Unable to leave room", "session", session.ID(), "error", err)
	}

	s.mu.Lock()
	delete(s.sessions, session.ID())
	s.mu.Unlock()

	_ = session.Close()
	s.log.Info("Session disconnected", "session", session.ID(), "name", session.Name())
}

func (s *Server) rejectConn(conn net.Conn, line string) {
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	_, _ = io.WriteString(conn, line+"\n")
}
