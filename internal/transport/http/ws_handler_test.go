package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizzera/internal/domain"
)

func TestLeaderboardStream(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.token(t, "instructor-1", RoleInstructor)
	student := env.token(t, "student-1", RoleStudent)
	quizID := env.seedQuiz(t, instructor)

	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/quizzes/" + quizID + "/leaderboard?token=" + student
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	snapshot := readLeaderboard(t, conn)
	if snapshot.QuizID != quizID || len(snapshot.Entries) != 0 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	status, res := env.do(t, http.MethodPost, "/api/quizzes/"+quizID+"/attempt", student, nil)
	if status != http.StatusCreated {
		t.Fatalf("start: %d %s", status, res.Message)
	}
	attemptID := decodeData[struct {
		Attempt struct {
			ID string `json:"id"`
		} `json:"attempt"`
	}](t, res).Attempt.ID
	if status, res = env.do(t, http.MethodPost, "/api/attempts/"+attemptID+"/submit", student, nil); status != http.StatusOK {
		t.Fatalf("submit: %d %s", status, res.Message)
	}

	update := readLeaderboard(t, conn)
	if len(update.Entries) != 1 {
		t.Fatalf("expected 1 entry after submit, got %d", len(update.Entries))
	}
	if update.Entries[0].UserID != "student-1" || update.Entries[0].Rank != 1 {
		t.Fatalf("unexpected entry: %+v", update.Entries[0])
	}

	if err := conn.WriteJSON(map[string]any{"type": "refresh"}); err != nil {
		t.Fatalf("write refresh: %v", err)
	}
	if refreshed := readLeaderboard(t, conn); len(refreshed.Entries) != 1 {
		t.Fatalf("expected refreshed leaderboard with 1 entry, got %d", len(refreshed.Entries))
	}

	if err := conn.WriteJSON(map[string]any{"type": "answer"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			Message string `json:"message"`
		} `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
}

func TestLeaderboardStreamRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.token(t, "instructor-1", RoleInstructor)
	quizID := env.seedQuiz(t, instructor)

	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/quizzes/" + quizID + "/leaderboard"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestLeaderboardStreamUnknownQuiz(t *testing.T) {
	env := newTestEnv(t)
	student := env.token(t, "student-1", RoleStudent)

	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/quizzes/missing/leaderboard?token=" + student
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail for unknown quiz")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp)
	}
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) domain.Leaderboard {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard, got %s", msg.Type)
	}
	return msg.Payload
}
