package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"exodus-quiz-service/internal/app"
	"exodus-quiz-service/internal/config"
	"exodus-quiz-service/internal/game"
	"exodus-quiz-service/internal/infra/gemini"
	"exodus-quiz-service/internal/infra/memory"
	"exodus-quiz-service/internal/infra/postgres"
	infraredis "exodus-quiz-service/internal/infra/redis"
	"exodus-quiz-service/internal/logger"
	transport "exodus-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	source, err := buildSource(cfg, pool, log)
	if err != nil {
		return err
	}

	var games app.GameRepository = memory.NewGameStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		node := cfg.Server.Node
		if node == "" {
			node = "local"
		}
		games = infraredis.NewGameStore(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute), node, log)
	}

	service := app.NewGameService(games, source,
		app.WithMachine(machineFromConfig(cfg)),
		app.WithFetchTimeout(config.TTLDuration(cfg.Game.FetchTimeout, 60*time.Second)),
		app.WithLogger(log),
	)
	wsHandler := transport.NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting quiz service", zap.String("addr", server.Addr), zap.String("source", cfg.Source.Kind))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		service.Wait()
		return err
	})
	return group.Wait()
}

func machineFromConfig(cfg config.Config) game.Machine {
	m := game.DefaultMachine()
	m.Rules.InitialLives = config.IntOr(cfg.Game.InitialLives, m.Rules.InitialLives)
	m.Policy.BatchSize = config.IntOr(cfg.Game.BatchSize, m.Policy.BatchSize)
	m.Policy.LowWatermark = config.IntOr(cfg.Game.LowWatermark, m.Policy.LowWatermark)
	m.Policy.ExcludeLimit = config.IntOr(cfg.Game.ExcludeLimit, m.Policy.ExcludeLimit)
	return m
}

// buildSource picks the question source and stacks the archive and coalescing decorators on it.
func buildSource(cfg config.Config, pool *pgxpool.Pool, log *zap.Logger) (app.QuestionSource, error) {
	var source app.QuestionSource
	switch cfg.Source.Kind {
	case "gemini":
		g, err := newGeminiSource(cfg, log)
		if err != nil {
			return nil, err
		}
		source = g
		if cfg.Source.Archive && pool != nil {
			source = postgres.NewArchivingSource(source, postgres.NewQuestionBank(pool), log)
		}
	case "bank":
		if pool == nil {
			return nil, errors.New("source kind bank requires postgres.url")
		}
		source = postgres.NewQuestionBank(pool)
	case "static":
		source = memory.NewSampleSource()
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
	return memory.NewCoalescingSource(source), nil
}

func newGeminiSource(cfg config.Config, log *zap.Logger) (*gemini.Source, error) {
	return gemini.NewSource(gemini.Config{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		BaseURL:    cfg.Gemini.BaseURL,
		Language:   cfg.Gemini.Language,
		Timeout:    config.TTLDuration(cfg.Gemini.Timeout, 60*time.Second),
		MaxRetries: cfg.Gemini.MaxRetries,
	}, log)
}
