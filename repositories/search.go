//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"cipher-chat/domain/search"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	fieldNameID      = "_id"
	fieldNameRoom    = "room"
	fieldNameSender  = "sender"
	fieldNameContent = "content"
	fieldNameAt      = "at"
)

type ISearchRepository interface {
	Index(message DiskMessage) error
	Search(ctx context.Context, query search.Query) ([]DiskMessage, error)
}

// SearchRepository keeps a full-text index of the chat lines of every room.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

func (s *SearchRepository) Index(message DiskMessage) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField(fieldNameRoom, message.Room).StoreValue()).
		AddField(bluge.NewKeywordField(fieldNameSender, message.Author).StoreValue()).
		AddField(bluge.NewTextField(fieldNameContent, message.Content).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldNameAt, message.At).StoreValue().Sortable())
	return s.writer.Update(doc.ID(), doc)
}

// Search returns the best matches of a room, newest first.
func (s *SearchRepository) Search(ctx context.Context, query search.Query) ([]DiskMessage, error) {
	if query.IsEmpty() {
		return nil, nil
	}
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Unable to close search reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(query.Room).SetField(fieldNameRoom)).
		AddMust(bluge.NewMatchQuery(query.Terms).
			SetField(fieldNameContent).
			SetOperator(bluge.MatchQueryOperatorAnd))
	request := bluge.NewTopNSearch(query.Limit, q).SortBy([]string{"-" + fieldNameAt})

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var res []DiskMessage
	match, err := iterator.Next()
	for err == nil && match != nil {
		message, visitErr := toSearchedMessage(func(visitor func(string, []byte) bool) error {
			return match.VisitStoredFields(visitor)
		})
		if visitErr != nil {
			return nil, visitErr
		}
		res = append(res, message)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

type storedFieldsVisitor func(visitor func(field string, value []byte) bool) error

func toSearchedMessage(visit storedFieldsVisitor) (DiskMessage, error) {
	var message DiskMessage
	var decodeErr error
	err := visit(func(field string, value []byte) bool {
		switch field {
		case fieldNameID:
			message.ID, decodeErr = uuid.ParseBytes(value)
		case fieldNameRoom:
			message.Room = string(value)
		case fieldNameSender:
			message.Author = string(value)
		case fieldNameContent:
			message.Content = string(value)
		case fieldNameAt:
			var at time.Time
			at, decodeErr = bluge.DecodeDateTime(value)
			message.At = at.UTC()
		}
		return decodeErr == nil
	})
	if err != nil {
		return DiskMessage{}, err
	}
	if decodeErr != nil {
		return DiskMessage{}, fmt.Errorf("search index: %w", decodeErr)
	}
	return message, nil
}
