// Package game holds the pure play-through model: session state, scoring,
// the prefetch policy and the state machine that ties them together.
package game

import "exodus-quiz-service/internal/domain"

// State is the coarse application state of one game.
type State string

const (
	Menu     State = "menu"
	Loading  State = "loading"
	Playing  State = "playing"
	GameOver State = "gameOver"
)

// Session is one play-through. Values are never mutated in place: every
// update returns a new Session with freshly allocated slices.
type Session struct {
	Score        int                   `json:"score"`
	Streak       int                   `json:"streak"`
	Lives        int                   `json:"lives"`
	Difficulty   domain.Difficulty     `json:"difficulty"`
	CurrentIndex int                   `json:"currentQuestionIndex"`
	Questions    []domain.Question     `json:"questions"`
	Answers      []domain.AnswerRecord `json:"userAnswers"`
}

// NewSession starts a play-through with the first fetched batch.
func NewSession(difficulty domain.Difficulty, lives int, questions []domain.Question) Session {
	return Session{
		Lives:      lives,
		Difficulty: difficulty,
		Questions:  appendCopy(nil, questions...),
	}
}

// CurrentQuestion returns the question under the cursor, if it is buffered.
func (s Session) CurrentQuestion() (domain.Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Remaining is the number of buffered questions from the cursor on.
func (s Session) Remaining() int {
	return len(s.Questions) - s.CurrentIndex
}

// Answered reports whether the question under the cursor has an answer.
func (s Session) Answered() bool {
	return len(s.Answers) > s.CurrentIndex
}

// CorrectCount is the number of correct answers so far.
func (s Session) CorrectCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

// WithQuestions appends a batch without moving the cursor.
func (s Session) WithQuestions(questions []domain.Question) Session {
	s.Questions = appendCopy(s.Questions, questions...)
	return s
}

func appendCopy[T any](xs []T, more ...T) []T {
	out := make([]T, len(xs), len(xs)+len(more))
	copy(out, xs)
	return append(out, more...)
}
