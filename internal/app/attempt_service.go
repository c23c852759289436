package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"quizzera/internal/domain"
)

// Caller identifies who is taking the quiz.
type Caller struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// QuizSummary is the part of the quiz configuration a student sees.
type QuizSummary struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Duration          int        `json:"duration"`
	TotalQuestions    int        `json:"totalQuestions"`
	PointsPerQuestion float64    `json:"pointsPerQuestion"`
	NegativeMarking   float64    `json:"negativeMarking"`
	PassingScore      float64    `json:"passingScore"`
	Instructions      []string   `json:"instructions,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
}

func summarize(q domain.Quiz) QuizSummary {
	return QuizSummary{
		ID:                q.ID,
		Title:             q.Title,
		Duration:          q.Duration,
		TotalQuestions:    q.TotalQuestions,
		PointsPerQuestion: q.PointsPerQuestion,
		NegativeMarking:   q.NegativeMarking,
		PassingScore:      q.PassingScore,
		Instructions:      q.Instructions,
		EndDate:           q.EndDate,
	}
}

// StartResult is returned when an attempt is started or resumed.
type StartResult struct {
	Attempt       domain.Attempt          `json:"attempt"`
	Quiz          QuizSummary             `json:"quiz"`
	Questions     []domain.PublicQuestion `json:"questions"`
	TimeRemaining int                     `json:"timeRemaining"`
	Resumed       bool                    `json:"resumed"`
}

// AnswerInput is a client's answer to one question.
type AnswerInput struct {
	QuestionID      string
	SelectedAnswer  domain.SelectedAnswer
	TimeTaken       int
	MarkedForReview bool
}

// SubmitInput optionally carries a last batch of answers and the client timer.
type SubmitInput struct {
	Answers       []AnswerInput
	TimeRemaining int
}

// QuestionReview pairs a question with the user's answer after submission.
type QuestionReview struct {
	QuestionID      string                `json:"questionId"`
	Question        string                `json:"question"`
	Type            domain.QuestionType   `json:"type"`
	Options         []domain.Option       `json:"options"`
	CorrectAnswers  []string              `json:"correctAnswers"`
	Explanation     string                `json:"explanation,omitempty"`
	Difficulty      domain.Difficulty     `json:"difficulty"`
	Answered        bool                  `json:"answered"`
	SelectedAnswer  domain.SelectedAnswer `json:"selectedAnswer"`
	IsCorrect       bool                  `json:"isCorrect"`
	PointsEarned    float64               `json:"pointsEarned"`
	MarkedForReview bool                  `json:"markedForReview"`
}

// AttemptResult is an attempt with its grade and, once the attempt is over,
// the per-question review.
type AttemptResult struct {
	Attempt domain.Attempt   `json:"attempt"`
	Quiz    QuizSummary      `json:"quiz"`
	Grade   string           `json:"grade"`
	Review  []QuestionReview `json:"review,omitempty"`
}

// HistoryPage is one page of a user's attempts.
type HistoryPage struct {
	Attempts   []domain.Attempt `json:"attempts"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// AttemptService runs the attempt lifecycle: start, save answers, submit.
type AttemptService struct {
	content  ContentRepository
	attempts AttemptStore
	quizzes  QuizStore
	locker   Locker
	opts     options
}

func NewAttemptService(content ContentRepository, attempts AttemptStore, quizzes QuizStore, locker Locker, opts ...Option) *AttemptService {
	return &AttemptService{
		content:  content,
		attempts: attempts,
		quizzes:  quizzes,
		locker:   locker,
		opts:     buildOptions(opts),
	}
}

func (s *AttemptService) log() *slog.Logger { return s.opts.logger }

// Start begins a new attempt, or resumes the caller's in-progress attempt.
func (s *AttemptService) Start(ctx context.Context, caller Caller, quizID string) (StartResult, error) {
	content, err := s.content.GetContent(ctx, quizID)
	if err != nil {
		return StartResult{}, err
	}
	quiz := content.Quiz
	now := s.opts.now()
	if !quiz.IsAvailable(now) {
		return StartResult{}, domain.ErrQuizNotAvailable
	}

	release, err := s.locker.Acquire(ctx, startLockKey(caller.UserID, quizID))
	if err != nil {
		return StartResult{}, err
	}
	defer release()

	existing, err := s.attempts.FindInProgress(ctx, caller.UserID, quizID)
	switch {
	case err == nil:
		return s.resume(content, existing, now), nil
	case !errors.Is(err, domain.ErrAttemptNotFound):
		return StartResult{}, err
	}

	if len(content.Questions) == 0 {
		return StartResult{}, domain.ErrQuizHasNoQuestions
	}

	attempt := domain.Attempt{
		ID:        s.opts.newID(),
		UserID:    caller.UserID,
		QuizID:    quizID,
		Answers:   []domain.Answer{},
		Status:    domain.AttemptInProgress,
		StartedAt: now,
		IPAddress: caller.IPAddress,
		UserAgent: caller.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		if !errors.Is(err, domain.ErrAttemptInProgress) {
			return StartResult{}, err
		}
		// Another instance won the race without holding our lock.
		existing, err := s.attempts.FindInProgress(ctx, caller.UserID, quizID)
		if err != nil {
			return StartResult{}, err
		}
		return s.resume(content, existing, now), nil
	}

	s.log().Info("attempt started", "attempt_id", attempt.ID, "quiz_id", quizID, "user_id", caller.UserID)
	return StartResult{
		Attempt:       attempt,
		Quiz:          summarize(quiz),
		Questions:     publicQuestions(content.Questions),
		TimeRemaining: quiz.DurationSeconds(),
	}, nil
}

func (s *AttemptService) resume(content domain.QuizContent, attempt domain.Attempt, now time.Time) StartResult {
	elapsed := int(now.Sub(attempt.StartedAt) / time.Second)
	s.log().Info("attempt resumed", "attempt_id", attempt.ID, "quiz_id", attempt.QuizID, "elapsed_s", elapsed)
	return StartResult{
		Attempt:       attempt,
		Quiz:          summarize(content.Quiz),
		Questions:     publicQuestions(content.Questions),
		TimeRemaining: max(0, content.Quiz.DurationSeconds()-elapsed),
		Resumed:       true,
	}
}

// SaveAnswer records (or replaces) the caller's answer to one question.
// Correctness is only computed on submit.
func (s *AttemptService) SaveAnswer(ctx context.Context, userID, attemptID string, in AnswerInput) error {
	return s.attempts.SaveAnswers(ctx, attemptID, userID, s.toAnswer(in))
}

func (s *AttemptService) toAnswer(in AnswerInput) domain.Answer {
	return domain.Answer{
		QuestionID:      in.QuestionID,
		SelectedAnswer:  in.SelectedAnswer,
		TimeTaken:       max(0, in.TimeTaken),
		MarkedForReview: in.MarkedForReview,
		AnsweredAt:      s.opts.now(),
	}
}

// Submit scores an in-progress attempt and completes it. Submitting an
// attempt that is already over fails with domain.ErrAttemptNotFound.
func (s *AttemptService) Submit(ctx context.Context, userID, attemptID string, in SubmitInput) (AttemptResult, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID, userID)
	if err != nil {
		return AttemptResult{}, err
	}
	if attempt.Status != domain.AttemptInProgress {
		return AttemptResult{}, domain.ErrAttemptNotFound
	}

	content, err := s.content.GetContent(ctx, attempt.QuizID)
	if err != nil {
		return AttemptResult{}, err
	}

	// The final batch only replaces the selection of answers that were
	// already saved; their timing and review flag are kept.
	for _, answer := range in.Answers {
		if existing, ok := attempt.AnswerFor(answer.QuestionID); ok {
			existing.SelectedAnswer = answer.SelectedAnswer
			attempt.UpsertAnswer(existing)
			continue
		}
		attempt.UpsertAnswer(s.toAnswer(answer))
	}

	now := s.opts.now()
	attempt.Answers, attempt.Score = ScoreAttempt(content, attempt.Answers)
	attempt.Status = domain.AttemptCompleted
	attempt.CompletedAt = &now
	attempt.TimeTaken = int(now.Sub(attempt.StartedAt) / time.Second)
	attempt.TimeRemaining = max(0, in.TimeRemaining)
	attempt.UpdatedAt = now

	if err := s.attempts.CompleteAttempt(ctx, attempt); err != nil {
		return AttemptResult{}, err
	}
	s.log().Info("attempt completed",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"percentage", attempt.Score.Percentage,
		"passed", attempt.Score.Passed,
	)

	s.afterCompletion(ctx, attempt.QuizID)
	return buildResult(content, attempt), nil
}

// afterCompletionTimeout bounds the stats refresh and leaderboard push.
const afterCompletionTimeout = 10 * time.Second

// afterCompletion refreshes quiz statistics and pushes the leaderboard. The
// attempt is already stored, so this must not depend on the caller staying
// connected; failures are logged, not returned.
func (s *AttemptService) afterCompletion(ctx context.Context, quizID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCompletionTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.RefreshStats(gctx, quizID)
	})
	if s.opts.hub.Subscribers(quizID) > 0 {
		g.Go(func() error {
			lb, err := s.Leaderboard(gctx, quizID, s.opts.leaderboardSize)
			if err != nil {
				return err
			}
			s.opts.hub.Publish(lb)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log().Warn("post-completion update failed", "quiz_id", quizID, "error", err)
	}
}

// RefreshStats recomputes the quiz statistics from every completed attempt.
// Runs for the same quiz are serialized.
func (s *AttemptService) RefreshStats(ctx context.Context, quizID string) error {
	release, err := s.locker.Acquire(ctx, statsLockKey(quizID))
	if err != nil {
		return err
	}
	defer release()

	percentages, err := s.attempts.CompletedPercentages(ctx, quizID)
	if err != nil {
		return err
	}
	return s.quizzes.UpdateStats(ctx, quizID, AggregateStats(percentages))
}

// GetResult returns one of the caller's attempts.
func (s *AttemptService) GetResult(ctx context.Context, userID, attemptID string) (AttemptResult, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID, userID)
	if err != nil {
		return AttemptResult{}, err
	}
	content, err := s.content.GetContent(ctx, attempt.QuizID)
	if err != nil {
		return AttemptResult{}, err
	}
	return buildResult(content, attempt), nil
}

// History lists the caller's attempts, newest completion first.
func (s *AttemptService) History(ctx context.Context, userID string, status domain.AttemptStatus, page, limit int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	limit = min(limit, 100)
	filter := domain.AttemptFilter{
		UserID: userID,
		Status: status,
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	var (
		attempts []domain.Attempt
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempts, err = s.attempts.ListAttempts(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.attempts.CountUserAttempts(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return HistoryPage{}, err
	}

	return HistoryPage{
		Attempts:   attempts,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// Leaderboard ranks the completed attempts of a quiz.
func (s *AttemptService) Leaderboard(ctx context.Context, quizID string, limit int) (domain.Leaderboard, error) {
	if limit < 1 {
		limit = s.opts.leaderboardSize
	}
	top, err := s.attempts.TopCompleted(ctx, quizID, min(limit, 100))
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(top))
	for i, a := range top {
		entry := domain.LeaderboardEntry{
			Rank:        i + 1,
			AttemptID:   a.ID,
			UserID:      a.UserID,
			Percentage:  a.Score.Percentage,
			TotalPoints: a.Score.TotalPoints,
			TimeTaken:   a.TimeTaken,
		}
		if a.CompletedAt != nil {
			entry.CompletedAt = *a.CompletedAt
		}
		entries = append(entries, entry)
	}
	return domain.Leaderboard{
		QuizID:    quizID,
		Entries:   entries,
		UpdatedAt: s.opts.now(),
	}, nil
}

// Subscribe returns a channel with the current leaderboard followed by an
// update after each completion. The caller must invoke cancel.
func (s *AttemptService) Subscribe(ctx context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	if _, err := s.content.GetContent(ctx, quizID); err != nil {
		return nil, nil, err
	}
	lb, err := s.Leaderboard(ctx, quizID, s.opts.leaderboardSize)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.opts.hub.Subscribe(quizID, lb)
	return ch, cancel, nil
}

func publicQuestions(questions []domain.Question) []domain.PublicQuestion {
	out := make([]domain.PublicQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Public())
	}
	return out
}

func buildResult(content domain.QuizContent, attempt domain.Attempt) AttemptResult {
	result := AttemptResult{
		Attempt: attempt,
		Quiz:    summarize(content.Quiz),
		Grade:   attempt.Grade(),
	}
	if !attempt.Status.IsTerminal() {
		return result
	}

	answers := make(map[string]domain.Answer, len(attempt.Answers))
	for _, a := range attempt.Answers {
		answers[a.QuestionID] = a
	}
	result.Review = make([]QuestionReview, 0, len(content.Questions))
	for _, q := range content.Questions {
		review := QuestionReview{
			QuestionID:     q.ID,
			Question:       q.Text,
			Type:           q.Type,
			Options:        q.Options,
			CorrectAnswers: q.CorrectAnswers,
			Explanation:    q.Explanation,
			Difficulty:     q.Difficulty,
		}
		if a, ok := answers[q.ID]; ok {
			review.Answered = !a.SelectedAnswer.IsEmpty()
			review.SelectedAnswer = a.SelectedAnswer
			review.IsCorrect = a.IsCorrect
			review.PointsEarned = a.PointsEarned
			review.MarkedForReview = a.MarkedForReview
		}
		result.Review = append(result.Review, review)
	}
	return result
}
