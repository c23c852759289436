package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

// Store keeps quizzes, questions and attempts in process memory. Every value
// crossing its boundary is copied.
type Store struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
	attempts  map[string]domain.Attempt
}

var (
	_ app.QuizStore     = (*Store)(nil)
	_ app.QuestionStore = (*Store)(nil)
	_ app.AttemptStore  = (*Store)(nil)
	_ app.ContentLoader = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
		attempts:  make(map[string]domain.Attempt),
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *Store) UpdateQuizConfig(_ context.Context, quiz domain.Quiz) error {
	return s.updateQuiz(quiz.ID, func(stored *domain.Quiz) {
		stats, status, total, createdAt, createdBy := stored.Stats, stored.Status, stored.TotalQuestions, stored.CreatedAt, stored.CreatedBy
		*stored = cloneQuiz(quiz)
		stored.Stats = stats
		stored.Status = status
		stored.TotalQuestions = total
		stored.CreatedAt = createdAt
		stored.CreatedBy = createdBy
	})
}

func (s *Store) SetQuizStatus(_ context.Context, quizID string, status domain.QuizStatus) error {
	return s.updateQuiz(quizID, func(q *domain.Quiz) { q.Status = status })
}

func (s *Store) SetTotalQuestions(_ context.Context, quizID string, total int) error {
	return s.updateQuiz(quizID, func(q *domain.Quiz) { q.TotalQuestions = total })
}

func (s *Store) UpdateStats(_ context.Context, quizID string, stats domain.QuizStats) error {
	return s.updateQuiz(quizID, func(q *domain.Quiz) { q.Stats = stats })
}

func (s *Store) updateQuiz(quizID string, fn func(*domain.Quiz)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	fn(&quiz)
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	for id, q := range s.questions {
		if q.QuizID == quizID {
			delete(s.questions, id)
		}
	}
	return nil
}

func (s *Store) CreateQuestions(_ context.Context, questions ...domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		if _, ok := s.quizzes[q.QuizID]; !ok {
			return domain.ErrQuizNotFound
		}
	}
	for _, q := range questions {
		s.questions[q.ID] = cloneQuestion(q)
	}
	return nil
}

func (s *Store) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[question.ID] = cloneQuestion(question)
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	delete(s.questions, questionID)
	for id, q := range s.questions {
		if q.QuizID == deleted.QuizID && q.Order > deleted.Order {
			q.Order--
			s.questions[id] = q
		}
	}
	return deleted, nil
}

func (s *Store) ListQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeQuestions(quizID), nil
}

func (s *Store) activeQuestions(quizID string) []domain.Question {
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.QuizID == quizID && q.IsActive {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) CountQuestions(_ context.Context, quizID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, q := range s.questions {
		if q.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

// LoadContent returns the quiz with its active questions.
func (s *Store) LoadContent(_ context.Context, quizID string) (domain.QuizContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizContent{}, domain.ErrQuizNotFound
	}
	return domain.QuizContent{
		Quiz:      cloneQuiz(quiz),
		Questions: s.activeQuestions(quizID),
	}, nil
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.Status == domain.AttemptInProgress {
		if _, ok := s.inProgress(attempt.UserID, attempt.QuizID); ok {
			return domain.ErrAttemptInProgress
		}
	}
	s.attempts[attempt.ID] = attempt.Clone()
	return nil
}

func (s *Store) FindInProgress(_ context.Context, userID, quizID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.inProgress(userID, quizID)
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt.Clone(), nil
}

func (s *Store) inProgress(userID, quizID string) (domain.Attempt, bool) {
	for _, a := range s.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.Status == domain.AttemptInProgress {
			return a, true
		}
	}
	return domain.Attempt{}, false
}

func (s *Store) GetAttempt(_ context.Context, attemptID, userID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok || attempt.UserID != userID {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt.Clone(), nil
}

func (s *Store) SaveAnswers(_ context.Context, attemptID, userID string, answers ...domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok || attempt.UserID != userID || attempt.Status != domain.AttemptInProgress {
		return domain.ErrAttemptNotFound
	}
	attempt = attempt.Clone()
	for _, answer := range answers {
		attempt.UpsertAnswer(answer)
		attempt.UpdatedAt = answer.AnsweredAt
	}
	s.attempts[attemptID] = attempt
	return nil
}

func (s *Store) CompleteAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.attempts[attempt.ID]
	if !ok || stored.UserID != attempt.UserID || stored.Status != domain.AttemptInProgress {
		return domain.ErrAttemptNotFound
	}
	s.attempts[attempt.ID] = attempt.Clone()
	return nil
}

func (s *Store) CompletedPercentages(_ context.Context, quizID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0)
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.Status == domain.AttemptCompleted {
			out = append(out, a.Score.Percentage)
		}
	}
	return out, nil
}

func (s *Store) CountAttempts(_ context.Context, quizID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.attempts {
		if a.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListAttempts(_ context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.userAttempts(filter)
	sort.Slice(matched, func(i, j int) bool {
		return historyKey(matched[i]).After(historyKey(matched[j]))
	})
	if filter.Offset >= len(matched) {
		return []domain.Attempt{}, nil
	}
	end := len(matched)
	if filter.Limit > 0 {
		end = min(end, filter.Offset+filter.Limit)
	}
	return matched[filter.Offset:end], nil
}

func (s *Store) CountUserAttempts(_ context.Context, filter domain.AttemptFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.userAttempts(filter)), nil
}

func (s *Store) userAttempts(filter domain.AttemptFilter) []domain.Attempt {
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if a.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

func (s *Store) TopCompleted(_ context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.Status == domain.AttemptCompleted {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score.Percentage != out[j].Score.Percentage {
			return out[i].Score.Percentage > out[j].Score.Percentage
		}
		if out[i].TimeTaken != out[j].TimeTaken {
			return out[i].TimeTaken < out[j].TimeTaken
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// historyKey orders attempts by completion, falling back to start for
// attempts still running.
func historyKey(a domain.Attempt) time.Time {
	if a.CompletedAt != nil {
		return *a.CompletedAt
	}
	return a.StartedAt
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.Instructions = slices.Clone(q.Instructions)
	return q
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = slices.Clone(q.Options)
	q.CorrectAnswers = slices.Clone(q.CorrectAnswers)
	return q
}
