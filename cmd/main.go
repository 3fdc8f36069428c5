package main

import (
	"context"
	"fmt"
	"guild-chat/moderation"
	"guild-chat/observability"
	"guild-chat/repositories"
	"guild-chat/runtime"
	"guild-chat/runtime/workers"
	"guild-chat/services"
	"guild-chat/transport/httpapi"
	"guild-chat/transport/ws"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes
// error reporting, so every defer (database cleanup included) executes before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censorRune, err := CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories (durable collaborators)
	messageRepository := repositories.NewMessageRepository(db, log)
	channelRepository := repositories.NewChannelRepository(db)
	guildRepository := repositories.NewGuildRepository(db)
	userRepository := repositories.NewUserRepository(db)

	// 4. Moderation
	censored, err := moderation.LoadCensoredWords()
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored words loaded [%s]",
		len(censored.Words), strings.Join(censored.Languages, ",")))
	moderator, err := moderation.NewModerator(censored.Words, censorRune)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}

	// 5. Fan-out core
	stats := observability.NewStats()
	index := runtime.NewRoomIndex()
	registry := runtime.NewRegistry(index)
	guard := runtime.NewAccessGuard(channelRepository, guildRepository)
	broadcaster := runtime.NewBroadcaster(log, registry, stats, config.SinkTimeout)
	pipeline := runtime.NewPipeline(log, guard, messageRepository, moderator,
		broadcaster, stats, config.MaxContentLength)
	presence := runtime.NewPresence(log, stats, config.BufferSize)

	chatService := services.NewChatService(registry, guard, pipeline, presence,
		messageRepository, config.HistoryLimit)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)

	// 6. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewPresenceFanout(log, broadcaster, stats, presence.Events()))
	sup.Add(workers.NewReporter(log, stats, registry, config.MetricInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 7. HTTP & websocket server
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httpapi.NewAPI(log, authService, guildRepository, channelRepository, messageRepository).Register(app)

	gateway := ws.NewGateway(log, chatService, config.ConnectionBufferSize)
	app.Use("/chat", gateway.Upgrade)
	app.Get("/chat", gateway.Handler())

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address)
		if err := app.Listen(address); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for shutdown signal or server failure
	select {
	case <-ctx.Done():
		log.Info("Shutdown requested")
	case err := <-errChan:
		return err
	}

	if err := app.Shutdown(); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}
	sup.Stop()
	<-supDone
	log.Info("Server gracefully stopped")
	return nil
}
