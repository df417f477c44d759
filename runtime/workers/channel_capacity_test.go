package workers

import (
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestChannelCapacityWorker_Sample(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a channel filled at 80% and an almost empty one
	full := make(chan int, 10)
	for i := 0; i < 8; i++ {
		full <- i
	}
	empty := make(chan int, 10)
	empty <- 1

	worker := NewChannelCapacityWorker(log, []NamedChannel{
		{Name: "events", Channel: full},
		{Name: "other", Channel: empty},
		{Name: "not-a-channel", Channel: 42},
		{Name: "unbuffered", Channel: make(chan int)},
	}, time.Second, 0.75)

	// When the channels are sampled
	saturated := worker.Sample()

	// Then only the filled one is reported
	req.Equal([]string{"events"}, saturated)
	req.Len(full, 8)
}
