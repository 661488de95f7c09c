package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exodus-quiz-service/internal/app"
	"exodus-quiz-service/internal/domain"
	"exodus-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

// fixedSource always puts the correct answer first.
type fixedSource struct{}

func (fixedSource) Generate(_ context.Context, req domain.GenerationRequest) ([]domain.Question, error) {
	out := make([]domain.Question, req.Count)
	for i := range out {
		out[i] = domain.Question{
			ID:                 fmt.Sprintf("q%d", i),
			Text:               fmt.Sprintf("Question %d", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectAnswerIndex: 0,
			Reference:          "出埃及记 1:1",
		}
	}
	return out, nil
}

type failingSource struct{}

func (failingSource) Generate(context.Context, domain.GenerationRequest) ([]domain.Question, error) {
	return nil, fmt.Errorf("upstream down")
}

func newTestServer(t *testing.T, source app.QuestionSource) (*httptest.Server, *memory.GameStore) {
	t.Helper()
	store := memory.NewGameStore()
	service := app.NewGameService(store, source, app.WithLogger(zaptest.NewLogger(t)))
	t.Cleanup(service.Wait)
	wsHandler := NewWSHandler(service, zaptest.NewLogger(t))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func dial(t *testing.T, server *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?gameId=" + gameID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketPlayFlow(t *testing.T) {
	server, _ := newTestServer(t, fixedSource{})
	conn := dial(t, server, "g1")

	msg := readUntil(t, conn, "state", nil)
	if msg["state"] != "menu" {
		t.Fatalf("expected menu on connect, got %v", msg["state"])
	}

	send(t, conn, map[string]any{"type": "start", "payload": map[string]any{"difficulty": "medium"}})
	msg = readUntil(t, conn, "state", func(p map[string]any) bool { return p["state"] == "playing" })
	question, ok := msg["question"].(map[string]any)
	if !ok {
		t.Fatalf("expected a current question, got %v", msg)
	}
	if _, leaked := question["correctIndex"]; leaked {
		t.Fatalf("correct index must stay hidden before answering")
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"option": 0}})
	result := readUntil(t, conn, "answerResult", nil)
	if result["correct"] != true || result["awarded"] != float64(10) || result["totalScore"] != float64(10) {
		t.Fatalf("unexpected answer result %v", result)
	}

	send(t, conn, map[string]any{"type": "next"})
	msg = readUntil(t, conn, "state", func(p map[string]any) bool { return p["questionNumber"] == float64(2) })
	if msg["score"] != float64(10) || msg["streak"] != float64(1) {
		t.Fatalf("unexpected state after advance %v", msg)
	}

	send(t, conn, map[string]any{"type": "quit"})
	msg = readUntil(t, conn, "state", func(p map[string]any) bool { return p["state"] == "gameOver" })
	summary, ok := msg["summary"].(map[string]any)
	if !ok || summary["score"] != float64(10) {
		t.Fatalf("expected summary with score 10, got %v", msg["summary"])
	}
}

func TestWebSocketErrors(t *testing.T) {
	server, _ := newTestServer(t, fixedSource{})
	conn := dial(t, server, "g2")
	readUntil(t, conn, "state", nil)

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"option": 0}})
	if p := readUntil(t, conn, "error", nil); p["code"] != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %v", p)
	}

	send(t, conn, map[string]any{"type": "dance"})
	if p := readUntil(t, conn, "error", nil); p["code"] != "bad_request" {
		t.Fatalf("expected bad_request, got %v", p)
	}

	send(t, conn, map[string]any{"type": "start", "payload": map[string]any{"difficulty": "legendary"}})
	if p := readUntil(t, conn, "error", nil); p["code"] != "bad_request" {
		t.Fatalf("expected bad_request for difficulty, got %v", p)
	}
}

func TestWebSocketStartFailureReturnsToMenu(t *testing.T) {
	server, _ := newTestServer(t, failingSource{})
	conn := dial(t, server, "g3")
	readUntil(t, conn, "state", nil)

	send(t, conn, map[string]any{"type": "start", "payload": map[string]any{"difficulty": "easy"}})
	p := readUntil(t, conn, "error", nil)
	if p["code"] != "generation_failed" || p["message"] != app.LoadErrorMessage {
		t.Fatalf("unexpected error payload %v", p)
	}

	send(t, conn, map[string]any{"type": "sync"})
	msg := readUntil(t, conn, "state", func(p map[string]any) bool { return p["error"] != nil })
	if msg["state"] != "menu" {
		t.Fatalf("expected menu after failed start, got %v", msg["state"])
	}
}

func TestWebSocketCloseDropsGame(t *testing.T) {
	server, store := newTestServer(t, fixedSource{})
	conn := dial(t, server, "g4")
	readUntil(t, conn, "state", nil)
	if store.Len() != 1 {
		t.Fatalf("expected one live game, got %d", store.Len())
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("game was not dropped after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEnqueueStopsAfterWriterExit(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})
	msg := outboundMessage[any]{Type: "state"}

	if !enqueue(send, writerDone, msg) {
		t.Fatalf("expected enqueue into free buffer")
	}
	close(writerDone)

	done := make(chan bool, 1)
	go func() { done <- enqueue(send, writerDone, msg) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected enqueue to fail with a full buffer and no writer")
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked after the writer exited")
	}
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

// readUntil skips messages until one of type typ satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(map[string]any) bool) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == typ && (match == nil || match(msg.Payload)) {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message matched", typ)
	return nil
}
