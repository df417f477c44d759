package sink

import (
	"cipher-chat/domain/event"
	"cipher-chat/repositories"
	"context"
	"fmt"
	"log/slog"
)

// DiskSink archives every posted message for /history paging.
type DiskSink struct {
	repository repositories.IMessageRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IMessageRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		return d.repository.StoreMessage(toDiskMessage(evt))
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %T", evt))
		return nil
	}
}

func toDiskMessage(event event.MessagePosted) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:          event.ID,
		Room:        event.Room,
		Author:      event.Author,
		Content:     event.Content,
		At:          event.At,
		Transformed: event.Transformed,
	}
}
