package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-round-service/internal/catalog"
	"trivia-round-service/internal/config"
	"trivia-round-service/internal/domain"
	"trivia-round-service/internal/infra/catalogfile"
	"trivia-round-service/internal/infra/memory"
	pgloader "trivia-round-service/internal/infra/postgres"
	redisinfra "trivia-round-service/internal/infra/redis"
	"trivia-round-service/internal/round"
	transport "trivia-round-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia round server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader catalog.Loader = memory.NewStaticLoader(sampleQuestions())
	switch {
	case pool != nil:
		loader = pgloader.NewQuestionLoader(pool)
	case cfg.Catalog.Path != "":
		loader = catalogfile.NewLoader(cfg.Catalog.Path)
	}
	if redisClient != nil {
		loader = redisinfra.NewCatalogCache(redisClient, loader, redisTTL)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	provider := catalog.NewProvider(loader, catalogTTL, logger)
	// Zero resolved questions is fatal; there is no safe default set.
	if _, err := provider.Get(ctx); err != nil {
		return err
	}

	var settings round.SettingsStore
	if redisClient != nil {
		settings = redisinfra.NewSettingsStore(redisClient, redisTTL)
	} else {
		settings = memory.NewSettingsStore()
	}

	engine := round.NewEngine(provider, settings, logger)
	wsHandler := transport.NewWSHandler(engine, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/flagged", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(engine.FlaggedQuestions())
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting trivia round service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal built-in catalog; configure a catalog
// path or Postgres for real content.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:         "sample-artist",
			Kind:       domain.KindFreeText,
			Title:      "Who released the album 'Graduation'?",
			Content:    domain.Content{Text: "Name the artist."},
			Tags:       []string{"music", "hiphop"},
			Strictness: domain.StrictnessStrict,
			Answers: []domain.Answer{
				{Display: "Kanye West", Aliases: []string{"kanye", "ye"}},
			},
		},
		{
			ID:      "sample-capital",
			Kind:    domain.KindMultipleChoice,
			Title:   "What is the capital of Australia?",
			Content: domain.Content{Text: "Pick one."},
			Tags:    []string{"geography"},
			Choices: []domain.Choice{
				{ID: "c1", Text: "Sydney"},
				{ID: "c2", Text: "Canberra", Correct: true},
				{ID: "c3", Text: "Melbourne"},
			},
		},
		{
			ID:      "sample-boolean",
			Kind:    domain.KindTrueFalse,
			Title:   "The Great Wall of China is visible from the Moon.",
			Tags:    []string{"geography", "space"},
			Choices: []domain.Choice{
				{ID: "true", Text: "True"},
				{ID: "false", Text: "False", Correct: true},
			},
		},
		{
			ID:      "sample-year",
			Kind:    domain.KindNumeric,
			Title:   "In which year did the Berlin Wall fall?",
			Tags:    []string{"history"},
			Numeric: &domain.NumericSpec{Value: 1989, Tolerance: 0, CloseWithin: 2, NearWithin: 10},
		},
		{
			ID:         "sample-beatles",
			Kind:       domain.KindMultiEntry,
			Title:      "Name the members of The Beatles.",
			Tags:       []string{"music"},
			Strictness: domain.StrictnessStrict,
			Answers: []domain.Answer{
				{Display: "John Lennon", Aliases: []string{"john", "lennon"}},
				{Display: "Paul McCartney", Aliases: []string{"paul", "mccartney"}},
				{Display: "George Harrison", Aliases: []string{"george", "harrison"}},
				{Display: "Ringo Starr", Aliases: []string{"ringo", "starr"}},
			},
		},
		{
			ID:      "sample-planets",
			Kind:    domain.KindOrderedList,
			Title:   "Order these planets from closest to the Sun.",
			Tags:    []string{"space"},
			Ordered: []string{"Mercury", "Venus", "Earth", "Mars"},
		},
	}
}
