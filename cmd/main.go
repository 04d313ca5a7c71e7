package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"

	"unicomm/auth"
	"unicomm/contract"
	httpshell "unicomm/infrastructure/http"
	"unicomm/moderation"
	"unicomm/observability"
	"unicomm/repositories"
	"unicomm/runtime"
	"unicomm/runtime/workers"
	"unicomm/services"
	"unicomm/sink"
	"unicomm/transport"

	"unicomm/domain/event"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP shell and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Outbound collaborators
	var gateway contract.TransportGateway
	switch config.GatewayMode {
	case "simulated":
		gateway = transport.NewSimulatedGateway(log)
	default:
		return fmt.Errorf("unknown gateway mode %q", config.GatewayMode)
	}

	var moderator *moderation.Moderator
	words := lo.Filter(strings.Split(config.CensoredWords, ","), func(w string, _ int) bool {
		return strings.TrimSpace(w) != ""
	})
	if len(words) > 0 {
		maskChar, err := CharacterRune(config.ModerationCharReplacement)
		if err != nil {
			return err
		}
		moderator, err = moderation.NewModerator(words, maskChar)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
	}

	// 4. Repositories & Services
	userRepo := repositories.NewUserRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	chatRepo := repositories.NewChatRepository(db)
	callRepo := repositories.NewCallRepository(db)

	events := make(chan event.DomainEvent, config.BufferSize)
	locks := runtime.NewKeyedMutex()
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoringManager(log)
	tokens := auth.NewTokenManager(config.JWTSecret, config.TokenDuration)

	authService := services.NewAuthService(log, userRepo, tokens)
	contactService := services.NewContactService(log, contactRepo, events)
	chatService := services.NewChatService(log, chatRepo, userRepo, locks, events, moderator)
	callService := services.NewCallService(log, callRepo, userRepo, gateway, locks, events,
		config.DialTimeout, config.RingTimeout)
	core := services.NewCore(log, authService, contactService, chatService, callService,
		gateway, events, config.SmsTimeout)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised workers: event fanout, monitoring, HTTP shell
	permanentSinks := []contract.EventSink{sink.NewLogSink(log), sink.NewMetricsSink(monitoring)}
	fanout := workers.NewEventFanout(log, events, registry, permanentSinks, config.SinkTimeout, monitoring)

	handler := httpshell.NewHandler(log, core, monitoring)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := httpshell.NewServer(log, address, handler, tokens, registry, monitoring)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(fanout, monitoring, server)

	log.Info("Session core starting", "address", address, "gateway", config.GatewayMode)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
