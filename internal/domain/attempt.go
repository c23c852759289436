package domain

import "time"

// AttemptStatus tracks the lifecycle of one sitting.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
	AttemptTimedOut   AttemptStatus = "timed_out"
)

// IsTerminal reports whether no further answers can be recorded.
func (s AttemptStatus) IsTerminal() bool {
	return s != AttemptInProgress
}

// Answer is one user's answer to one question within an attempt.
type Answer struct {
	QuestionID      string         `json:"questionId"`
	SelectedAnswer  SelectedAnswer `json:"selectedAnswer"`
	IsCorrect       bool           `json:"isCorrect"`
	PointsEarned    float64        `json:"pointsEarned"`
	TimeTaken       int            `json:"timeTaken"`
	MarkedForReview bool           `json:"markedForReview"`
	AnsweredAt      time.Time      `json:"answeredAt"`
}

// Score is the snapshot computed when an attempt completes.
type Score struct {
	Correct     int     `json:"correct"`
	Wrong       int     `json:"wrong"`
	Unanswered  int     `json:"unanswered"`
	TotalPoints float64 `json:"totalPoints"`
	MaxPoints   float64 `json:"maxPoints"`
	Percentage  int     `json:"percentage"`
	Passed      bool    `json:"passed"`
}

// Attempt is one user's pass through one quiz.
type Attempt struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	QuizID        string        `json:"quizId"`
	Answers       []Answer      `json:"answers"`
	Status        AttemptStatus `json:"status"`
	Score         Score         `json:"score"`
	StartedAt     time.Time     `json:"startedAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	TimeTaken     int           `json:"timeTaken"`     // seconds
	TimeRemaining int           `json:"timeRemaining"` // seconds, as reported by the client
	IPAddress     string        `json:"ipAddress,omitempty"`
	UserAgent     string        `json:"userAgent,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// UpsertAnswer replaces the answer for the same question in place, or appends it.
func (a *Attempt) UpsertAnswer(answer Answer) {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == answer.QuestionID {
			a.Answers[i] = answer
			return
		}
	}
	a.Answers = append(a.Answers, answer)
}

// AnswerFor returns the stored answer to questionID, if any.
func (a Attempt) AnswerFor(questionID string) (Answer, bool) {
	for _, answer := range a.Answers {
		if answer.QuestionID == questionID {
			return answer, true
		}
	}
	return Answer{}, false
}

// Grade maps the percentage to a letter.
func (a Attempt) Grade() string {
	switch p := a.Score.Percentage; {
	case p >= 90:
		return "A+"
	case p >= 80:
		return "A"
	case p >= 70:
		return "B"
	case p >= 60:
		return "C"
	case p >= 50:
		return "D"
	default:
		return "F"
	}
}

// Clone returns a deep copy so stores never share answer slices with callers.
func (a Attempt) Clone() Attempt {
	out := a
	if a.Answers != nil {
		out.Answers = make([]Answer, len(a.Answers))
		copy(out.Answers, a.Answers)
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// LeaderboardEntry is a ranked completed attempt.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	AttemptID   string    `json:"attemptId"`
	UserID      string    `json:"userId"`
	Percentage  int       `json:"percentage"`
	TotalPoints float64   `json:"totalPoints"`
	TimeTaken   int       `json:"timeTaken"`
	CompletedAt time.Time `json:"completedAt"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// AttemptFilter selects a page of one user's attempts.
type AttemptFilter struct {
	UserID string
	Status AttemptStatus // empty matches every status
	Offset int
	Limit  int
}
