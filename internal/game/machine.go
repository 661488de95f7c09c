package game

import (
	"fmt"

	"exodus-quiz-service/internal/domain"
)

// Event is an input to the state machine.
type Event interface{ event() }

// Start begins a new game from the menu.
type Start struct{ Difficulty domain.Difficulty }

// Loaded delivers the initial batch requested by FetchInitial.
type Loaded struct {
	Difficulty domain.Difficulty
	Questions  []domain.Question
}

// LoadFailed reports that the initial batch could not be fetched.
type LoadFailed struct{ Err error }

// Answer submits an option index for the current question.
type Answer struct{ Option int }

// Advance moves past the answered question.
type Advance struct{}

// Quit ends a running game early.
type Quit struct{}

// Restart replays the ended game's difficulty.
type Restart struct{}

// Home returns to the menu and discards the session.
type Home struct{}

// Prefetched delivers a background batch.
type Prefetched struct{ Questions []domain.Question }

func (Start) event()      {}
func (Loaded) event()     {}
func (LoadFailed) event() {}
func (Answer) event()     {}
func (Advance) event()    {}
func (Quit) event()       {}
func (Restart) event()    {}
func (Home) event()       {}
func (Prefetched) event() {}

// Effect is a side effect the caller must perform after a step.
type Effect interface{ effect() }

// FetchInitial asks for the first batch of a new session.
type FetchInitial struct{ Request domain.GenerationRequest }

// ReportError surfaces a failure to the player.
type ReportError struct{ Err error }

// Answered carries the result of an Answer event for feedback.
type Answered struct{ Outcome AnswerOutcome }

func (FetchInitial) effect() {}
func (ReportError) effect()  {}
func (Answered) effect()     {}

// Machine is the explicit transition function of a game.
type Machine struct {
	Rules  Rules
	Policy Policy
}

func DefaultMachine() Machine {
	return Machine{Rules: DefaultRules(), Policy: DefaultPolicy()}
}

// Step applies ev to (state, s). On error the inputs are returned unchanged.
func (m Machine) Step(state State, s Session, ev Event) (State, Session, []Effect, error) {
	switch ev := ev.(type) {
	case Start:
		if state != Menu {
			return state, s, nil, invalid(state, ev)
		}
		return m.load(state, s, ev.Difficulty)

	case Restart:
		if state != GameOver {
			return state, s, nil, invalid(state, ev)
		}
		return m.load(state, s, s.Difficulty)

	case Loaded:
		if state != Loading {
			return state, s, nil, invalid(state, ev)
		}
		if len(ev.Questions) == 0 {
			return Menu, s, []Effect{ReportError{Err: domain.GenerationFailed(fmt.Errorf("empty batch"))}}, nil
		}
		for i, q := range ev.Questions {
			if err := q.Validate(); err != nil {
				return Menu, s, []Effect{ReportError{Err: domain.GenerationFailed(fmt.Errorf("question %d: %w", i, err))}}, nil
			}
		}
		return Playing, NewSession(ev.Difficulty, m.Rules.InitialLives, ev.Questions), nil, nil

	case LoadFailed:
		if state != Loading {
			return state, s, nil, invalid(state, ev)
		}
		return Menu, s, []Effect{ReportError{Err: domain.GenerationFailed(ev.Err)}}, nil

	case Answer:
		if state != Playing {
			return state, s, nil, invalid(state, ev)
		}
		next, outcome, err := m.Rules.ApplyAnswer(s, ev.Option)
		if err != nil {
			return state, s, nil, err
		}
		return Playing, next, []Effect{Answered{Outcome: outcome}}, nil

	case Advance:
		if state != Playing {
			return state, s, nil, invalid(state, ev)
		}
		if !s.Answered() {
			return state, s, nil, domain.ErrNotAnswered
		}
		if s.Lives <= 0 {
			return GameOver, s, nil, nil
		}
		s.CurrentIndex++
		return Playing, s, nil, nil

	case Quit:
		if state != Playing {
			return state, s, nil, invalid(state, ev)
		}
		return GameOver, s, nil, nil

	case Home:
		if state != GameOver {
			return state, s, nil, invalid(state, ev)
		}
		return Menu, Session{}, nil, nil

	case Prefetched:
		// Late batches for a game that left Playing are dropped.
		if state != Playing {
			return state, s, nil, nil
		}
		return state, s.WithQuestions(ev.Questions), nil, nil
	}
	return state, s, nil, fmt.Errorf("unknown event %T", ev)
}

func (m Machine) load(state State, s Session, d domain.Difficulty) (State, Session, []Effect, error) {
	if !d.Valid() {
		return state, s, nil, fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, d)
	}
	return Loading, s, []Effect{FetchInitial{Request: domain.GenerationRequest{
		Count:      m.Policy.BatchSize,
		Difficulty: d,
	}}}, nil
}

func invalid(state State, ev Event) error {
	return fmt.Errorf("%w: %T in %s", domain.ErrInvalidTransition, ev, state)
}
