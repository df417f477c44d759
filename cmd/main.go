package main

import (
	"cipher-chat/domain"
	grpc2 "cipher-chat/grpc"
	"cipher-chat/internal"
	"cipher-chat/moderation"
	"cipher-chat/projection"
	"cipher-chat/repositories"
	"cipher-chat/runtime"
	"cipher-chat/runtime/workers"
	"cipher-chat/server"
	"cipher-chat/services"
	"cipher-chat/sink"
	"cipher-chat/transform"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

const channelSaturationThreshold = 0.8

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups run before the process exits.
func run() error {
	// 1. Configuration & Logger
	config, err := loadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Archive (BadgerDB, in memory only)
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("archive opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing archive...")
		_ = db.Close()
	}()

	// 3. Search index (Bluge, in memory only)
	index, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() { _ = index.Close() }()

	// 4. Supervision, event pipeline & rooms
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, sup, config.EventBufferSize, config.SinkTimeout)

	registry := runtime.NewRegistry(log, config.DynamicRooms,
		domain.WithHistoryLimit(config.HistoryLimit),
		domain.WithReplay(config.HistoryReplay),
		domain.WithPublisher(orchestrator.PublishMessage),
	)
	if err := registry.Register(config.RoomNames()...); err != nil {
		return err
	}

	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	searchRepository := repositories.NewSearchRepository(index, log)
	activity := projection.NewActivity()
	orchestrator.Add(
		sink.NewDiskSink(messageRepository, log),
		sink.NewSearchSink(searchRepository, log),
		activity,
	)

	// 5. Chat service, moderation & transform
	options := []services.Option{
		services.WithArchive(messageRepository),
		services.WithSearch(searchRepository, config.SearchLimit),
		services.WithActivity(activity),
	}
	if config.EnableModeration {
		moderator, err := loadModerator(log, config.CharReplacement)
		if err != nil {
			return err
		}
		options = append(options, services.WithCensor(moderator))
	}
	chat := services.NewChatService(log, registry, options...)

	codec, err := transform.New(config.CipherMode, config.CipherPassphrase)
	if err != nil {
		return err
	}
	log.Info("Payload transform ready", "mode", codec.Name())

	srv := server.New(log, serverConfig(config), chat, server.NewProcessor(log, chat, codec))

	orchestrator.AddWorkers(
		workers.NewChannelCapacityWorker(log,
			[]workers.NamedChannel{{Name: "events", Channel: orchestrator.Events()}},
			config.HeartbeatInterval, channelSaturationThreshold),
		workers.NewHeartbeatWorker(log, config.HeartbeatInterval, func() workers.ServerStats {
			return workers.ServerStats{Sessions: srv.SessionCount(), Rooms: len(registry.List())}
		}),
	)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		orchestrator.Start(ctx)
	}()

	// 7. Chat listener & health endpoint
	if err := srv.Start(ctx); err != nil {
		orchestrator.Stop()
		<-orchestratorDone
		return err
	}

	var health *grpc2.HealthServer
	if config.HealthPort > 0 {
		health = grpc2.NewHealthServer(log)
		if err := health.Start(fmt.Sprintf("%s:%d", config.Host, config.HealthPort)); err != nil {
			_ = srv.Stop()
			orchestrator.Stop()
			<-orchestratorDone
			return err
		}
		health.SetServing(true)
	}

	// 8. Wait for Stop
	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	// 9. Final Cleanup
	if health != nil {
		health.SetServing(false)
	}
	_ = srv.Stop()
	srv.CloseSessions()
	orchestrator.Stop()
	<-orchestratorDone
	if health != nil {
		health.Stop()
	}
	log.Info("Program stopped cleanly")
	return nil
}

// loadModerator builds the censor from the embedded word lists.
func loadModerator(log *slog.Logger, replacement string) (*moderation.Moderator, error) {
	charReplacement, err := internal.CharacterRune(replacement)
	if err != nil {
		return nil, err
	}
	data, err := runtime.NewCensoredLoader(runtime.CensoredFolder).LoadAll("censored")
	if err != nil {
		return nil, err
	}
	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))
	return moderation.NewModerator(data.Words, charReplacement, log)
}
