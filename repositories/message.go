//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(room string, cursor *string) ([]DiskMessage, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID          uuid.UUID
	Room        string
	Author      string
	Content     string
	At          time.Time
	Transformed bool
}

// StoreMessage archives a message in BadgerDB.
// The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// Room names never contain ':' so a room prefix never matches another room.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.Room,
		message.At.UnixNano(),
		message.ID,
	)
	bytes := encodeMessage(message)
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages pages backwards through the archive of a room, newest first.
// The returned cursor is nil once the oldest message has been returned,
// otherwise it is passed back to fetch the next (older) page.
func (m MessageRepository) GetMessages(room string, cursor *string) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	hasMore := false
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key then walk back in time
			seekKey = append(prefix, []byte("9999999999999999999;")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		// The cursor itself was the last message of the previous page
		if cursor != nil && it.ValidForPrefix(prefix) &&
			string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				hasMore = true
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.KeyCopy(nil)[prefixLen:])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	diskMessages := make([]DiskMessage, 0, len(byteMessages))
	for _, b := range byteMessages {
		message, err := decodeMessage(b)
		if err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	if !hasMore {
		return diskMessages, nil, nil
	}
	return diskMessages, &lastKey, nil
}
