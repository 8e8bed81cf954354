package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/persona"
	in_memory "github.com/iamvkosarev/bot-console/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/bot-console/internal/storage/key-value"
	v1 "github.com/iamvkosarev/bot-console/internal/transport/http/v1"
	"github.com/iamvkosarev/bot-console/internal/usecase"
	"github.com/iamvkosarev/bot-console/pkg/local"
)

const (
	shutdownTimeout  = 10 * time.Second
	redisPingTimeout = 3 * time.Second
)

// Run wires the console and serves the HTTP API, and the Telegram bot when a
// token is configured, until ctx is done.
func Run(ctx context.Context, cfg *config.Config) error {
	baseURL, err := url.JoinPath(cfg.OpenAI.OpenAIBaseURL, "/v1")
	if err != nil {
		return fmt.Errorf("failed to build openai base url: %w", err)
	}
	cfg.OpenAI.OpenAIBaseURL = baseURL

	personas := persona.NewRegistry()

	var remote usecase.CompletionClient
	if cfg.OpenAI.OpenAIAPIKey != "" {
		remote = usecase.NewOpenAIUsecase(cfg.OpenAI, personas)
	} else {
		log.Printf("WARN: %v, bots answer with fallback rules only", usecase.ErrCredentialMissing)
	}

	botUsecase := usecase.NewBotUsecase(
		usecase.BotUsecaseDeps{
			BotStorage: newBotStorage(ctx, cfg.Redis),
		},
	)
	if err = botUsecase.SeedBots(ctx, cfg.Bots); err != nil {
		return fmt.Errorf("failed to seed bots: %w", err)
	}

	conversationUsecase := usecase.NewConversationUsecase(
		usecase.ConversationUsecaseDeps{
			Bot:      botUsecase,
			Fallback: usecase.NewFallbackUsecase(personas, nil),
			Remote:   remote,
		},
		cfg.Conversation,
		cfg.OpenAI.Temperature,
	)

	credentialUsecase := usecase.NewCredentialUsecase(
		usecase.CredentialUsecaseDeps{
			Remote: remote,
		},
		cfg.OpenAI,
	)

	var telegramUsecase *usecase.TelegramUsecase
	if cfg.Telegram.TelegramAPIToken != "" {
		bot, err := api.NewBotAPI(cfg.Telegram.TelegramAPIToken)
		if err != nil {
			return fmt.Errorf("failed to create new bot: %w", err)
		}
		log.Printf("Authorized on account %s", bot.Self.UserName)

		telegramUsecase, err = usecase.NewTelegramUsecase(
			cfg.Telegram, usecase.TelegramUsecaseDeps{
				Bot:          bot,
				BotRegistry:  botUsecase,
				Conversation: conversationUsecase,
				Credential:   credentialUsecase,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to create telegram usecase: %w", err)
		}
	}

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()

	if remote != nil {
		p.Go(
			func(ctx context.Context) error {
				report := credentialUsecase.Validate(ctx, local.Eng)
				log.Printf("OpenAI credential %s: %s", report.Status, report.Message)
				return nil
			},
		)
	}

	server := echo.New()
	server.HideBanner = true
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	v1.NewHandler(
		v1.HandlerDeps{
			Bot:          botUsecase,
			Conversation: conversationUsecase,
			Credential:   credentialUsecase,
		},
	).RegisterRoutes(server)

	p.Go(
		func(ctx context.Context) error {
			return serveHTTP(ctx, server, cfg.HTTP.Port)
		},
	)

	if telegramUsecase != nil {
		p.Go(telegramUsecase.Run)
	}

	return p.Wait()
}

// newBotStorage uses Redis when an endpoint is configured and reachable.
func newBotStorage(ctx context.Context, cfg config.Redis) usecase.BotStorage {
	if cfg.Endpoint == "" {
		return in_memory.NewBotStorage()
	}

	rdb := redis.NewClient(
		&redis.Options{
			Addr:     cfg.Endpoint,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
	)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("WARN: failed to ping redis %s, keeping bots in memory: %v", cfg.Endpoint, err)
		_ = rdb.Close()
		return in_memory.NewBotStorage()
	}
	log.Printf("Storing bots in redis %s", cfg.Endpoint)
	return key_value.NewBotStorage(rdb)
}

func serveHTTP(ctx context.Context, server *echo.Echo, port int) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Printf("HTTP API started on %s", addr)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}
	return nil
}
