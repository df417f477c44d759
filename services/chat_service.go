package services

import (
	"cipher-chat/contract"
	"cipher-chat/domain"
	"cipher-chat/domain/search"
	"cipher-chat/errors"
	"cipher-chat/projection"
	"cipher-chat/repositories"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"
)

const (
	encryptedSenderSuffix = " [ENCRYPTED]"
	encryptedContent      = "[ENCRYPTED MESSAGE]"
)

type IChatService interface {
	JoinRoom(member domain.Member, name string) (*domain.Room, error)
	LeaveRoom(member domain.Member) (string, error)
	PostMessage(member domain.Member, content string, transformed bool) (domain.Message, error)
	PostRedacted(member domain.Member) (domain.Message, error)
	Members(member domain.Member) ([]string, error)
	Rooms() []RoomSummary
	History(member domain.Member, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, member domain.Member, input string) ([]domain.Message, error)
}

// RoomSummary is one line of the room listing.
type RoomSummary struct {
	Name         string
	Members      int
	Messages     int
	LastActivity time.Time
}

type ChatService struct {
	log         *slog.Logger
	registry    contract.IRoomRegistry
	censor      contract.Censor
	archive     repositories.IMessageRepository
	index       repositories.ISearchRepository
	activity    *projection.Activity
	searchLimit int
	now         func() time.Time
}

type Option func(*ChatService)

// WithCensor applies moderation to plain chat lines.
func WithCensor(censor contract.Censor) Option {
	return func(s *ChatService) { s.censor = censor }
}

// WithArchive pages /history from the archive instead of the room buffer.
func WithArchive(archive repositories.IMessageRepository) Option {
	return func(s *ChatService) { s.archive = archive }
}

func WithSearch(index repositories.ISearchRepository, defaultLimit int) Option {
	return func(s *ChatService) {
		s.index = index
		s.searchLimit = defaultLimit
	}
}

func WithActivity(activity *projection.Activity) Option {
	return func(s *ChatService) { s.activity = activity }
}

func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

func NewChatService(log *slog.Logger, registry contract.IRoomRegistry, opts ...Option) *ChatService {
	s := &ChatService{log: log, registry: registry, searchLimit: 10, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JoinRoom moves the member to the named room. The target is resolved before
// the current room is left, so a failed lookup leaves the member where it was.
func (s *ChatService) JoinRoom(member domain.Member, name string) (*domain.Room, error) {
	target, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	current := member.Room()
	if current == target.Name() {
		return nil, fmt.Errorf("%w: %s", errors.ErrAlreadyMember, current)
	}
	if current != "" {
		if room, err := s.registry.Get(current); err == nil {
			delivery, _ := room.Leave(member)
			s.logDropped(room, delivery)
		}
	}
	delivery, err := target.Join(member)
	if err != nil {
		return nil, err
	}
	s.logDropped(target, delivery)
	s.log.Debug("Member joined room", "member", member.ID(), "room", target.Name(), "previous", current)
	return target, nil
}

func (s *ChatService) LeaveRoom(member domain.Member) (string, error) {
	room, err := s.currentRoom(member)
	if err != nil {
		return "", err
	}
	delivery, _ := room.Leave(member)
	s.logDropped(room, delivery)
	return room.Name(), nil
}

// PostMessage broadcasts a chat line to the member's room, the member itself
// excluded. The returned message is what was actually delivered.
func (s *ChatService) PostMessage(member domain.Member, content string, transformed bool) (domain.Message, error) {
	return s.post(member, member.Name(), content, transformed)
}

// PostRedacted announces an encrypted message without revealing its content.
func (s *ChatService) PostRedacted(member domain.Member) (domain.Message, error) {
	return s.post(member, member.Name()+encryptedSenderSuffix, encryptedContent, true)
}

func (s *ChatService) post(member domain.Member, sender, content string, transformed bool) (domain.Message, error) {
	room, err := s.currentRoom(member)
	if err != nil {
		return domain.Message{}, err
	}
	if !transformed && s.censor != nil {
		censored, words := s.censor.Censor(content)
		if len(words) > 0 {
			s.log.Info("Message censored", "room", room.Name(), "member", member.ID(), "words", len(words))
		}
		content = censored
	}
	msg := domain.NewMessage(room.Name(), sender, content, transformed, s.now())
	s.logDropped(room, room.Broadcast(msg, member))
	return msg, nil
}

func (s *ChatService) Members(member domain.Member) ([]string, error) {
	room, err := s.currentRoom(member)
	if err != nil {
		return nil, err
	}
	return room.ListMembers(), nil
}

func (s *ChatService) Rooms() []RoomSummary {
	var rooms []*domain.Room
	for _, name := range s.registry.List() {
		room, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		rooms = append(rooms, room)
	}
	return lo.Map(rooms, func(room *domain.Room, _ int) RoomSummary {
		summary := RoomSummary{Name: room.Name(), Members: room.Len()}
		if s.activity != nil {
			activity := s.activity.Room(room.Name())
			summary.Messages = activity.Messages
			summary.LastActivity = activity.LastActivity
		}
		return summary
	})
}

// History returns one page of the member's room, oldest message first, and
// the cursor of the next (older) page, nil when there is none.
func (s *ChatService) History(member domain.Member, cursor *string) ([]domain.Message, *string, error) {
	room, err := s.currentRoom(member)
	if err != nil {
		return nil, nil, err
	}
	if s.archive == nil {
		return room.History(), nil, nil
	}
	archived, next, err := s.archive.GetMessages(room.Name(), cursor)
	if err != nil {
		return nil, nil, err
	}
	messages := lo.Map(archived, toMessage)
	slices.Reverse(messages)
	return messages, next, nil
}

// Search looks up plain messages of the member's room, newest first.
func (s *ChatService) Search(ctx context.Context, member domain.Member, input string) ([]domain.Message, error) {
	room, err := s.currentRoom(member)
	if err != nil {
		return nil, err
	}
	query := search.NewSearchQuery(input, room.Name(), s.searchLimit)
	if query.IsEmpty() || s.index == nil {
		return nil, nil
	}
	hits, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return lo.Map(hits, toMessage), nil
}

func (s *ChatService) currentRoom(member domain.Member) (*domain.Room, error) {
	name := member.Room()
	if name == "" {
		return nil, errors.ErrNotInRoom
	}
	room, err := s.registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrNotInRoom, err)
	}
	return room, nil
}

func (s *ChatService) logDropped(room *domain.Room, delivery domain.Delivery) {
	for _, m := range delivery.Dropped {
		s.log.Warn("Member dropped after a failed delivery", "room", room.Name(), "member", m.ID(), "name", m.Name())
	}
}

func toMessage(item repositories.DiskMessage, _ int) domain.Message {
	return domain.Message{
		ID:          item.ID,
		Room:        item.Room,
		Sender:      item.Author,
		Content:     item.Content,
		CreatedAt:   item.At,
		Transformed: item.Transformed,
	}
}
