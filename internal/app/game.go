package app

import (
	"sync"
	"time"

	"exodus-quiz-service/internal/domain"
	"exodus-quiz-service/internal/game"
)

// Game is the in-process controller state of one player's play-through.
type Game struct {
	id          string
	now         func() time.Time
	mu          sync.Mutex
	state       game.State
	session     game.Session
	epoch       uint64
	fetching    bool
	lastAnswer  *game.AnswerOutcome
	lastError   string
	updatedAt   time.Time
	subscribers map[chan View]struct{}
	// conns counts open connections; the game is dropped when the last one closes.
	conns  int
	closed bool
}

// NewGame is exported for infrastructure layers that need to seed games.
func NewGame(id string) *Game {
	return newGameWithClock(id, time.Now)
}

// NewGameWithClock stamps views with now instead of the wall clock.
func NewGameWithClock(id string, now func() time.Time) *Game {
	return newGameWithClock(id, now)
}

func newGameWithClock(id string, now func() time.Time) *Game {
	return &Game{
		id:          id,
		now:         now,
		state:       game.Menu,
		updatedAt:   now(),
		subscribers: make(map[chan View]struct{}),
	}
}

// ID returns the game identifier.
func (g *Game) ID() string {
	return g.id
}

// State returns the current coarse state.
func (g *Game) State() game.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// View is the presentation snapshot of a game.
type View struct {
	GameID         string              `json:"gameId"`
	State          game.State          `json:"state"`
	Difficulty     domain.Difficulty   `json:"difficulty,omitempty"`
	Score          int                 `json:"score"`
	Streak         int                 `json:"streak"`
	Lives          int                 `json:"lives"`
	QuestionNumber int                 `json:"questionNumber"`
	Buffered       int                 `json:"buffered"`
	Answered       int                 `json:"answered"`
	Question       *QuestionView       `json:"question,omitempty"`
	LastAnswer     *game.AnswerOutcome `json:"lastAnswer,omitempty"`
	Fetching       bool                `json:"fetching"`
	Waiting        bool                `json:"waiting"`
	Error          string              `json:"error,omitempty"`
	Summary        *game.Summary       `json:"summary,omitempty"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// QuestionView hides the answer until the question has been answered.
type QuestionView struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	Answered     bool     `json:"answered"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Reference    string   `json:"reference,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

func (g *Game) touchLocked() {
	g.updatedAt = g.now()
}

func (g *Game) viewLocked(lives int) View {
	s := g.session
	v := View{
		GameID:    g.id,
		State:     g.state,
		Fetching:  g.fetching,
		Error:     g.lastError,
		UpdatedAt: g.updatedAt,
	}
	if g.state == game.Menu || g.state == game.Loading {
		return v
	}

	v.Difficulty = s.Difficulty
	v.Score = s.Score
	v.Streak = s.Streak
	v.Lives = clamp(s.Lives, 0, lives)
	v.QuestionNumber = s.CurrentIndex + 1
	v.Buffered = len(s.Questions)
	v.Answered = len(s.Answers)

	switch g.state {
	case game.Playing:
		if q, ok := s.CurrentQuestion(); ok {
			qv := &QuestionView{
				ID:       q.ID,
				Text:     q.Text,
				Options:  append([]string(nil), q.Options...),
				Answered: s.Answered(),
			}
			if qv.Answered {
				idx := q.CorrectAnswerIndex
				qv.CorrectIndex = &idx
				qv.Reference = q.Reference
				qv.Explanation = q.Explanation
				v.LastAnswer = g.lastAnswer
			}
			v.Question = qv
		} else {
			v.Waiting = g.fetching
		}
	case game.GameOver:
		sum := game.Summarize(s)
		v.Summary = &sum
		v.LastAnswer = g.lastAnswer
	}
	return v
}

func (g *Game) subscribe(lives int) (<-chan View, func(), bool) {
	ch := make(chan View, 8)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, nil, false
	}
	g.subscribers[ch] = struct{}{}
	// Fresh buffered channel: the first view never blocks and always precedes broadcasts.
	ch <- g.viewLocked(lives)

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel, true
}

func (g *Game) broadcastLocked(lives int) View {
	v := g.viewLocked(lives)
	for ch := range g.subscribers {
		select {
		case ch <- v:
		default:
			// Drop the oldest pending view so a slow reader never blocks the game.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
	return v
}

func (g *Game) closeSubscribersLocked() {
	for ch := range g.subscribers {
		delete(g.subscribers, ch)
		close(ch)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
