package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"assessment-engine/internal/app"
	"assessment-engine/internal/config"
	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"
	pginfra "assessment-engine/internal/infra/postgres"
	redisinfra "assessment-engine/internal/infra/redis"
	transport "assessment-engine/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment engine server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptStore = memory.NewAttemptStore()
	if pool != nil {
		attempts = pginfra.NewAttemptStore(pool)
	}

	var counter app.AttemptCounter = memory.NewAttemptCounter()
	if redisClient != nil {
		counter = redisinfra.NewAttemptCounter(redisClient)
	}

	service := app.NewAssessmentService(quizRepo, attempts, counter)
	ordering := app.NewOrderingService(memory.NewOrderingStore())
	handler := transport.NewHandler(service, ordering)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting assessment engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal published quiz for redis/postgres-less
// demo runs.
func sampleQuizzes() map[string]domain.Quiz {
	boolTrue := true
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:                  "quiz-1",
			Title:               "Getting started",
			PassingScorePercent: 60,
			Published:           true,
			ShowResults:         true,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Type:   domain.QuestionMultipleChoice,
					Prompt: "What is 2 + 2?",
					Points: 5,
					Options: []domain.Option{
						{Text: "3"},
						{Text: "4", IsCorrect: true},
						{Text: "5"},
					},
				},
				{
					ID:            "q2",
					Type:          domain.QuestionTrueFalse,
					Prompt:        "The sky is blue.",
					Points:        5,
					CorrectAnswer: &boolTrue,
				},
			},
		},
	}
}
