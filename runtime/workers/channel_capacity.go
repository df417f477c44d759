package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length and capacity of the
// internal channels and warns when one of them fills above the threshold.
// Reading len(channel) and cap(channel) is non-blocking, so this won't
// interfere with the goroutines using them.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	metricInterval time.Duration
	threshold      float64
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	metricInterval time.Duration, threshold float64) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		metricInterval: metricInterval,
		threshold:      threshold,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel capacity sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample reports every channel once and returns the names of the channels
// above the threshold.
func (w *ChannelCapacityWorker) Sample() []string {
	var saturated []string
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		if capacity == 0 {
			continue
		}
		if float64(length)/float64(capacity) >= w.threshold {
			w.log.Warn("Channel almost full", "name", nc.Name, "length", length, "capacity", capacity)
			saturated = append(saturated, nc.Name)
			continue
		}
		w.log.Debug("Channel capacity", "name", nc.Name, "length", length, "capacity", capacity)
	}
	return saturated
}
