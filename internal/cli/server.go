package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizzera/internal/app"
	"quizzera/internal/config"
	"quizzera/internal/infra/memory"
	"quizzera/internal/infra/postgres"
	redisinfra "quizzera/internal/infra/redis"
	"quizzera/internal/logging"
	transport "quizzera/internal/transport/http"
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

// stores groups the persistence ports so one backend can satisfy all of them.
type stores struct {
	quizzes   app.QuizStore
	questions app.QuestionStore
	attempts  app.AttemptStore
	loader    app.ContentLoader
	close     func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret not configured")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	lockTTL := config.TTLDuration(cfg.Attempt.LockTTL, 5*time.Second)
	lockWait := config.TTLDuration(cfg.Attempt.LockWait, 3*time.Second)

	var (
		content app.ContentRepository
		locker  app.Locker
	)
	if redisClient != nil {
		content = redisinfra.NewContentRepository(redisClient, st.loader, quizTTL, logger)
		locker = redisinfra.NewLocker(redisClient, lockTTL, lockWait, logger)
		logger.Info("using redis for content cache and locks", "addr", cfg.Redis.Addr)
	} else {
		content = memory.NewContentRepository(st.loader, quizTTL)
		locker = memory.NewLocker()
	}

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithLeaderboardHub(app.NewLeaderboardHub()),
		app.WithLeaderboardSize(cfg.Quiz.LeaderboardSize),
	}
	attempts := app.NewAttemptService(content, st.attempts, st.quizzes, locker, opts...)
	authors := app.NewAuthoringService(st.quizzes, st.questions, st.attempts, content, opts...)

	auth := transport.NewAuthenticator(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	router := transport.NewRouter(
		transport.NewAPI(attempts, authors, logger),
		transport.NewWSHandler(attempts, logger),
		auth,
		transport.RouterConfig{
			CORSOrigins:    cfg.Server.CORSOrigins,
			RequestTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
		},
		logger,
	)

	// WriteTimeout stays unset: it would cut long-lived WebSocket streams.
	// Plain requests are bounded by the router's timeout middleware instead.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		logger.Info("shutting down server", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStores connects to Postgres when configured, migrating it first, and
// falls back to the in-memory store otherwise.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.Postgres.URL == "" {
		logger.Warn("postgres url not configured, data will not survive a restart")
		store := memory.NewStore()
		return stores{quizzes: store, questions: store, attempts: store, loader: store, close: func() {}}, nil
	}

	db := postgres.Open(cfg.Postgres.URL)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return stores{}, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrateDB(ctx, db, logger); err != nil {
		db.Close()
		return stores{}, err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return stores{}, fmt.Errorf("connect postgres pool: %w", err)
	}

	store := postgres.NewStore(db)
	return stores{
		quizzes:   store,
		questions: store,
		attempts:  store,
		loader:    postgres.NewContentLoader(pool),
		close: func() {
			pool.Close()
			db.Close()
		},
	}, nil
}
