package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizzera/internal/domain"
)

func TestContentRepositoryCachesInRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{content: sampleContent()}
	repo := NewContentRepository(client, loader, time.Minute, nil)

	got, err := repo.GetContent(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls.Load())
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected content key in redis")
	}
	if ttl := mr.TTL("quiz:quiz-1:content"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetContent(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get cached content: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls.Load())
	}
	if len(cached.Questions) != 1 || cached.Questions[0].CorrectAnswers[0] != got.Questions[0].CorrectAnswers[0] {
		t.Fatalf("cached content differs: %+v", cached)
	}
	if cached.Quiz.Status != domain.QuizPublished {
		t.Fatalf("expected status to survive the cache, got %q", cached.Quiz.Status)
	}
}

func TestContentRepositoryInvalidate(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{content: sampleContent()}
	repo := NewContentRepository(client, loader, time.Minute, nil)
	ctx := context.Background()

	if _, err := repo.GetContent(ctx, "quiz-1"); err != nil {
		t.Fatalf("get content: %v", err)
	}
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected content key removed")
	}
	if _, err := repo.GetContent(ctx, "quiz-1"); err != nil {
		t.Fatalf("get content after invalidate: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload, loader calls=%d", loader.calls.Load())
	}
}

func TestContentRepositoryIgnoresCorruptEntries(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{content: sampleContent()}
	repo := NewContentRepository(client, loader, time.Minute, nil)

	if err := mr.Set("quiz:quiz-1:content", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := repo.GetContent(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if got.Quiz.ID != "quiz-1" || loader.calls.Load() != 1 {
		t.Fatalf("expected fallback to loader, got %+v after %d calls", got.Quiz, loader.calls.Load())
	}
}

func TestContentRepositoryPropagatesNotFound(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewContentRepository(client, &countingLoader{err: domain.ErrQuizNotFound}, time.Minute, nil)

	_, err := repo.GetContent(context.Background(), "missing")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestContentRepositoryInvalidateDuringLoad(t *testing.T) {
	_, client := newTestRedis(t)
	loader := newBlockingLoader(domain.QuizDraft)
	repo := NewContentRepository(client, loader, time.Hour, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := repo.GetContent(ctx, "quiz-1"); err != nil {
			t.Errorf("get content: %v", err)
		}
	}()
	<-loader.entered

	loader.setStatus(domain.QuizPublished)
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	<-done

	got, err := repo.GetContent(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get content after invalidate: %v", err)
	}
	if got.Quiz.Status != domain.QuizPublished {
		t.Fatalf("expected published after invalidate, got %q", got.Quiz.Status)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected a fresh load, loader calls=%d", loader.calls.Load())
	}

	// The fresh load is current and must be cached.
	if _, err := repo.GetContent(ctx, "quiz-1"); err != nil {
		t.Fatalf("get cached content: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls.Load())
	}
}

func TestContentRepositoryZeroTTLDisablesCache(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{content: sampleContent()}
	repo := NewContentRepository(client, loader, 0, nil)

	for i := 0; i < 2; i++ {
		if _, err := repo.GetContent(context.Background(), "quiz-1"); err != nil {
			t.Fatalf("get content: %v", err)
		}
	}
	if mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected nothing cached with a zero ttl")
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected every read to load, loader calls=%d", loader.calls.Load())
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type countingLoader struct {
	content domain.QuizContent
	err     error
	calls   atomic.Int32
}

func (l *countingLoader) LoadContent(_ context.Context, _ string) (domain.QuizContent, error) {
	l.calls.Add(1)
	if l.err != nil {
		return domain.QuizContent{}, l.err
	}
	return l.content, nil
}

// blockingLoader holds its first load until release is closed. That load
// returns the status seen when it started.
type blockingLoader struct {
	mu      sync.Mutex
	status  domain.QuizStatus
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingLoader(status domain.QuizStatus) *blockingLoader {
	return &blockingLoader{
		status:  status,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (l *blockingLoader) setStatus(status domain.QuizStatus) {
	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
}

func (l *blockingLoader) LoadContent(_ context.Context, _ string) (domain.QuizContent, error) {
	l.mu.Lock()
	content := sampleContent()
	content.Quiz.Status = l.status
	l.mu.Unlock()

	if l.calls.Add(1) == 1 {
		close(l.entered)
		<-l.release
	}
	return content, nil
}

func sampleContent() domain.QuizContent {
	return domain.QuizContent{
		Quiz: domain.Quiz{
			ID:                "quiz-1",
			Title:             "Arithmetic",
			Status:            domain.QuizPublished,
			Duration:          10,
			TotalQuestions:    1,
			PointsPerQuestion: 1,
		},
		Questions: []domain.Question{
			{
				ID:     "q1",
				QuizID: "quiz-1",
				Text:   "What is 2 + 2?",
				Type:   domain.QuestionSingle,
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4", IsCorrect: true},
				},
				CorrectAnswers: []string{"o2"},
				Points:         1,
				IsActive:       true,
			},
		},
	}
}
