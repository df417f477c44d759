package sink

import (
	"cipher-chat/domain/event"
	"cipher-chat/mocks"
	"cipher-chat/repositories"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type otherEvent struct{}

func (otherEvent) RoomName() string { return "general" }

func posted(transformed bool) event.MessagePosted {
	return event.MessagePosted{
		ID:          uuid.New(),
		Room:        "general",
		Author:      "alice",
		Content:     "hello",
		At:          time.Date(2026, 1, 2, 13, 4, 5, 0, time.UTC),
		Transformed: transformed,
	}
}

func TestDiskSink_Consume(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repository := mocks.NewMockIMessageRepository(ctrl)
	diskSink := NewDiskSink(repository, logs.GetLoggerFromLevel(slog.LevelDebug))

	evt := posted(true)
	// Given the repository stores the message once
	repository.EXPECT().StoreMessage(repositories.DiskMessage{
		ID:          evt.ID,
		Room:        "general",
		Author:      "alice",
		Content:     "hello",
		At:          evt.At,
		Transformed: true,
	}).Return(nil).Times(1)

	req.NoError(diskSink.Consume(context.Background(), evt))
	// Then other events are ignored
	req.NoError(diskSink.Consume(context.Background(), otherEvent{}))
}

func TestDiskSink_Consume_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repository := mocks.NewMockIMessageRepository(ctrl)
	diskSink := NewDiskSink(repository, logs.GetLoggerFromLevel(slog.LevelDebug))

	repository.EXPECT().StoreMessage(gomock.Any()).Return(fmt.Errorf("disk full"))
	req.Error(diskSink.Consume(context.Background(), posted(false)))
}

func TestSearchSink_SkipsTransformedMessages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repository := mocks.NewMockISearchRepository(ctrl)
	searchSink := NewSearchSink(repository, logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given only the plain message reaches the index
	plain := posted(false)
	repository.EXPECT().Index(gomock.Cond(func(m repositories.DiskMessage) bool {
		return m.ID == plain.ID
	})).Return(nil).Times(1)

	req.NoError(searchSink.Consume(context.Background(), plain))
	req.NoError(searchSink.Consume(context.Background(), posted(true)))
	req.NoError(searchSink.Consume(context.Background(), otherEvent{}))
}
