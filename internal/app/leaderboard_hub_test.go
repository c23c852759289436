package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizzera/internal/domain"
)

func TestLeaderboardHubDeliversInitialThenUpdates(t *testing.T) {
	hub := NewLeaderboardHub()
	ch, cancel := hub.Subscribe("quiz-1", domain.Leaderboard{QuizID: "quiz-1"})
	defer cancel()

	initial := <-ch
	assert.Empty(t, initial.Entries)

	hub.Publish(domain.Leaderboard{QuizID: "quiz-1", Entries: []domain.LeaderboardEntry{{Rank: 1, UserID: "u1"}}})
	hub.Publish(domain.Leaderboard{QuizID: "quiz-2"})

	update := <-ch
	require.Len(t, update.Entries, 1)
	assert.Equal(t, "u1", update.Entries[0].UserID)
	assert.Len(t, ch, 0)
}

func TestLeaderboardHubDropsOldestWhenBehind(t *testing.T) {
	hub := NewLeaderboardHub()
	ch, cancel := hub.Subscribe("quiz-1", domain.Leaderboard{QuizID: "quiz-1"})
	defer cancel()

	for i := 1; i <= 20; i++ {
		hub.Publish(domain.Leaderboard{QuizID: "quiz-1", Entries: make([]domain.LeaderboardEntry, i)})
	}

	var last domain.Leaderboard
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Len(t, last.Entries, 20)
}

func TestLeaderboardHubCancel(t *testing.T) {
	hub := NewLeaderboardHub()
	ch, cancel := hub.Subscribe("quiz-1", domain.Leaderboard{QuizID: "quiz-1"})
	assert.Equal(t, 1, hub.Subscribers("quiz-1"))

	cancel()
	cancel()
	assert.Zero(t, hub.Subscribers("quiz-1"))

	<-ch
	_, open := <-ch
	assert.False(t, open)
}
