package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"exodus-quiz-service/internal/app"
	"exodus-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.GameService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log.With(zap.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Difficulty string `json:"difficulty"`
}

type answerPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one game per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		gameID = uuid.NewString()
	}
	log := h.log.With(zap.String("game_id", gameID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Games outlive request contexts only as long as the socket is open.
	ctx := context.WithoutCancel(r.Context())

	if _, err := h.service.Open(ctx, gameID); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	defer h.service.Close(ctx, gameID)

	updates, cancel, err := h.service.Subscribe(ctx, gameID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				// Unblock the reader; the socket is unusable.
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	log.Info("player connected")
read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.dispatch(ctx, gameID, inbound) {
			if !enqueue(send, writerDone, msg) {
				break read
			}
		}
	}
	log.Info("player disconnected")

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch runs one inbound command. State changes reach the client through the subscription;
// the returned messages are direct replies.
func (h *WSHandler) dispatch(ctx context.Context, gameID string, in inboundMessage) []outboundMessage[any] {
	var err error
	switch in.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return replyError(errorPayload{Code: "bad_request", Message: "invalid start payload"})
		}
		d, perr := domain.ParseDifficulty(payload.Difficulty)
		if perr != nil {
			return replyError(toErrorPayload(perr))
		}
		_, err = h.service.Start(ctx, gameID, d)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil || payload.Option == nil {
			return replyError(errorPayload{Code: "bad_request", Message: "invalid answer payload"})
		}
		outcome, _, serr := h.service.Submit(ctx, gameID, *payload.Option)
		if serr != nil {
			return replyError(toErrorPayload(serr))
		}
		return []outboundMessage[any]{{Type: "answerResult", Payload: outcome}}
	case "next":
		_, err = h.service.Advance(ctx, gameID)
	case "quit":
		_, err = h.service.Quit(ctx, gameID)
	case "restart":
		_, err = h.service.Restart(ctx, gameID)
	case "home":
		_, err = h.service.Home(ctx, gameID)
	case "sync":
		view, _, serr := h.service.Sync(ctx, gameID)
		if serr != nil {
			return replyError(toErrorPayload(serr))
		}
		return []outboundMessage[any]{{Type: "state", Payload: view}}
	default:
		return replyError(errorPayload{Code: "bad_request", Message: "unsupported message type"})
	}
	if err != nil {
		return replyError(toErrorPayload(err))
	}
	return nil
}

// enqueue hands msg to the writer, or reports false once the writer has exited.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func replyError(p errorPayload) []outboundMessage[any] {
	return []outboundMessage[any]{{Type: "error", Payload: p}}
}

func toErrorPayload(err error) errorPayload {
	switch {
	case errors.Is(err, domain.ErrGenerationFailed):
		return errorPayload{Code: "generation_failed", Message: app.LoadErrorMessage}
	case errors.Is(err, domain.ErrInvalidTransition):
		return errorPayload{Code: "invalid_transition", Message: err.Error()}
	case errors.Is(err, domain.ErrAwaitingQuestions):
		return errorPayload{Code: "awaiting_questions", Message: err.Error()}
	case errors.Is(err, domain.ErrAlreadyAnswered), errors.Is(err, domain.ErrNotAnswered):
		return errorPayload{Code: "out_of_turn", Message: err.Error()}
	case errors.Is(err, domain.ErrOptionOutOfRange), errors.Is(err, domain.ErrInvalidDifficulty):
		return errorPayload{Code: "bad_request", Message: err.Error()}
	case errors.Is(err, domain.ErrGameNotFound):
		return errorPayload{Code: "not_found", Message: err.Error()}
	default:
		return errorPayload{Code: "internal", Message: err.Error()}
	}
}
