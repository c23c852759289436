package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

// ContentRepository caches quiz content with TTL to avoid repeated DB hits.
// A ttl of zero or less disables caching.
type ContentRepository struct {
	loader app.ContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedContent
	// gens is bumped by Invalidate; a load only fills the cache if the
	// generation it started with is still current.
	gens map[string]uint64
}

type cachedContent struct {
	content   domain.QuizContent
	expiresAt time.Time
}

var _ app.ContentRepository = (*ContentRepository)(nil)

func NewContentRepository(loader app.ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
		gens:   make(map[string]uint64),
	}
}

func (r *ContentRepository) GetContent(ctx context.Context, quizID string) (domain.QuizContent, error) {
	if content, ok := r.lookup(quizID); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if content, ok := r.lookup(quizID); ok {
			return content, nil
		}

		r.mu.RLock()
		gen := r.gens[quizID]
		r.mu.RUnlock()

		content, err := r.loader.LoadContent(ctx, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}
		if r.ttl <= 0 {
			return content, nil
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		if r.gens[quizID] == gen {
			r.cache[quizID] = cachedContent{content: content, expiresAt: expiresAt}
		}
		r.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return domain.QuizContent{}, err
	}
	return result.(domain.QuizContent), nil
}

// Invalidate drops the cached content so the next read goes to the loader.
func (r *ContentRepository) Invalidate(_ context.Context, quizID string) error {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.gens[quizID]++
	r.mu.Unlock()
	r.sf.Forget(quizID)
	return nil
}

func (r *ContentRepository) lookup(quizID string) (domain.QuizContent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.QuizContent{}, false
	}
	return entry.content, true
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
