package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

// ContentRepository caches quiz content in Redis as one JSON document per
// quiz and falls back to a loader on cache miss:
//
//	SET quiz:{quizID}:content {json} PX {ttl}
//	INCR quiz:{quizID}:content:gen   (on invalidate)
//
// A load only writes back if the generation it read before loading is still
// current, so a load racing an invalidation cannot restore stale content.
// A ttl of zero or less disables caching.
type ContentRepository struct {
	client *redis.Client
	loader app.ContentLoader
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ app.ContentRepository = (*ContentRepository)(nil)

// storeScript sets KEYS[1] only while KEYS[2] still holds generation ARGV[1].
var storeScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func NewContentRepository(client *redis.Client, loader app.ContentLoader, ttl time.Duration, logger *slog.Logger) *ContentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) GetContent(ctx context.Context, quizID string) (domain.QuizContent, error) {
	if content, ok := r.cached(ctx, quizID); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if content, ok := r.cached(ctx, quizID); ok {
			return content, nil
		}

		gen, genErr := r.generation(ctx, quizID)
		if genErr != nil {
			r.logger.Warn("content cache generation read failed", "quiz_id", quizID, "error", genErr)
		}

		content, err := r.loader.LoadContent(ctx, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}
		if r.ttl <= 0 || genErr != nil {
			return content, nil
		}

		payload, err := json.Marshal(content)
		if err != nil {
			return domain.QuizContent{}, fmt.Errorf("encode quiz content: %w", err)
		}
		keys := []string{contentKey(quizID), generationKey(quizID)}
		ttlMillis := max(r.ttlWithJitter().Milliseconds(), 1)
		stored, err := storeScript.Run(ctx, r.client, keys, gen, payload, ttlMillis).Int()
		switch {
		case err != nil:
			r.logger.Warn("content cache write failed", "quiz_id", quizID, "error", err)
		case stored == 0:
			r.logger.Debug("content cache write skipped, invalidated during load", "quiz_id", quizID)
		}
		return content, nil
	})
	if err != nil {
		return domain.QuizContent{}, err
	}
	return result.(domain.QuizContent), nil
}

// Invalidate deletes the cached document so every instance reloads it.
func (r *ContentRepository) Invalidate(ctx context.Context, quizID string) error {
	r.sf.Forget(quizID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(quizID))
		pipe.Del(ctx, contentKey(quizID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate quiz content: %w", err)
	}
	return nil
}

func (r *ContentRepository) generation(ctx context.Context, quizID string) (string, error) {
	gen, err := r.client.Get(ctx, generationKey(quizID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// cached treats Redis failures and undecodable payloads as misses.
func (r *ContentRepository) cached(ctx context.Context, quizID string) (domain.QuizContent, bool) {
	payload, err := r.client.Get(ctx, contentKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("content cache read failed", "quiz_id", quizID, "error", err)
		}
		return domain.QuizContent{}, false
	}
	var content domain.QuizContent
	if err := json.Unmarshal(payload, &content); err != nil {
		r.logger.Warn("content cache entry corrupt", "quiz_id", quizID, "error", err)
		return domain.QuizContent{}, false
	}
	return content, true
}

func contentKey(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func generationKey(quizID string) string {
	return contentKey(quizID) + ":gen"
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
