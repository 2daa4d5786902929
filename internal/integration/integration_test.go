package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
	pgstore "assessment-engine/internal/infra/postgres"
	pgmigrations "assessment-engine/internal/infra/postgres/migrations"
	infraredis "assessment-engine/internal/infra/redis"
)

func TestAttemptLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizRepo := infraredis.NewQuizRepository(redisClient, pgstore.NewQuizLoader(pool), 5*time.Minute)
	attempts := pgstore.NewAttemptStore(pool)
	counter := infraredis.NewAttemptCounter(redisClient)
	service := app.NewAssessmentService(quizRepo, attempts, counter)

	attempt, err := service.StartAttempt(ctx, "quiz-1", "learner-1")
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if attempt.AttemptNumber != 1 || attempt.Status != domain.AttemptInProgress {
		t.Fatalf("unexpected fresh attempt: %+v", attempt)
	}

	one := 1
	recorded, err := service.SaveAnswer(ctx, attempt.ID, "q1", domain.Answer{SelectedOption: &one})
	if err != nil {
		t.Fatalf("save answer: %v", err)
	}
	if !recorded {
		t.Fatalf("expected answer recorded")
	}

	submitted, err := service.SubmitAttempt(ctx, attempt.ID, map[string]domain.Answer{
		"q2": {Text: "a slice is a view over an array"},
	})
	if err != nil {
		t.Fatalf("submit attempt: %v", err)
	}
	if submitted.Status != domain.AttemptPendingManual {
		t.Fatalf("expected PENDING_MANUAL with an unscored short answer, got %s", submitted.Status)
	}
	if submitted.TotalPoints != 5 {
		t.Fatalf("expected 5 auto-graded points, got %v", submitted.TotalPoints)
	}

	graded, err := service.GradeManualAnswer(ctx, attempt.ID, "q2", 4, "instructor-1")
	if err != nil {
		t.Fatalf("manual grade: %v", err)
	}
	if graded.Status != domain.AttemptGraded {
		t.Fatalf("expected GRADED after manual score, got %s", graded.Status)
	}
	if graded.TotalPoints != 9 || !graded.Passed {
		t.Fatalf("expected 9/10 passing, got total=%v passed=%v", graded.TotalPoints, graded.Passed)
	}

	// The finalized attempt must survive a round-trip through Postgres.
	reloaded, err := service.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if reloaded.Status != domain.AttemptGraded || reloaded.Results["q2"].GradedBy != "instructor-1" {
		t.Fatalf("persisted attempt lost state: %+v", reloaded)
	}

	passed := true
	listed, err := service.ListAttempts(ctx, app.AttemptFilter{QuizID: "quiz-1", Passed: &passed})
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != attempt.ID {
		t.Fatalf("expected the passing attempt in the listing, got %+v", listed)
	}

	// MaxAttempts is 2; the counter lives in Redis so this holds across
	// service instances.
	if _, err := service.StartAttempt(ctx, "quiz-1", "learner-1"); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if _, err := service.StartAttempt(ctx, "quiz-1", "learner-1"); err != domain.ErrAttemptLimitExceeded {
		t.Fatalf("expected ErrAttemptLimitExceeded, got %v", err)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if err := exec.Command("docker", "info").Run(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "assess", "POSTGRES_PASSWORD": "assesspass", "POSTGRES_DB": "assessdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://assess:assesspass@%s:%s/assessdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	two := 2
	return domain.Quiz{
		ID:                  "quiz-1",
		Title:               "Go Fundamentals",
		PassingScorePercent: 60,
		MaxAttempts:         &two,
		Published:           true,
		ShowResults:         true,
		Questions: []domain.Question{
			{
				ID:     "q1",
				Type:   domain.QuestionMultipleChoice,
				Prompt: "Which keyword declares a variable?",
				Points: 5,
				Options: []domain.Option{
					{Text: "let"},
					{Text: "var", IsCorrect: true},
					{Text: "dim"},
				},
			},
			{
				ID:     "q2",
				Type:   domain.QuestionShortAnswer,
				Prompt: "Explain the relationship between slices and arrays.",
				Points: 5,
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}
