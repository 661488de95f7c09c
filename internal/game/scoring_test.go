package game_test

import (
	"errors"
	"testing"

	"exodus-quiz-service/internal/domain"
	"exodus-quiz-service/internal/game"
)

func TestStreakBonusUsesStreakBeforeAnswer(t *testing.T) {
	rules := game.DefaultRules()
	s := game.NewSession(domain.Medium, rules.InitialLives, sampleQuestions(0, 6))

	for k := 1; k <= 6; k++ {
		next, outcome, err := rules.ApplyAnswer(s, 0)
		if err != nil {
			t.Fatalf("answer %d: %v", k, err)
		}
		if want := 10 + 2*(k-1); outcome.Awarded != want {
			t.Fatalf("answer %d: expected %d points, got %d", k, want, outcome.Awarded)
		}
		if next.Score < s.Score {
			t.Fatalf("score decreased from %d to %d", s.Score, next.Score)
		}
		next.CurrentIndex++
		s = next
	}
	if s.Streak != 6 || s.Score != 90 {
		t.Fatalf("expected streak 6 score 90, got %d %d", s.Streak, s.Score)
	}
}

func TestMissResetsStreakAndTakesOneLife(t *testing.T) {
	rules := game.DefaultRules()
	s := game.NewSession(domain.Easy, rules.InitialLives, sampleQuestions(0, 2))
	s.Streak = 7
	s.Score = 120

	next, outcome, err := rules.ApplyAnswer(s, 1)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if outcome.Correct || outcome.Awarded != 0 {
		t.Fatalf("expected a miss with no points, got %+v", outcome)
	}
	if next.Streak != 0 || next.Lives != 2 || next.Score != 120 {
		t.Fatalf("unexpected session after miss: %+v", next)
	}
	if len(next.Answers) != 1 || next.Answers[0].QuestionID != "q0" || next.Answers[0].Correct {
		t.Fatalf("expected one failed answer record, got %+v", next.Answers)
	}
}

func TestLivesSaturateAtZero(t *testing.T) {
	rules := game.DefaultRules()
	s := game.NewSession(domain.Easy, 0, sampleQuestions(0, 1))

	next, _, err := rules.ApplyAnswer(s, 2)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if next.Lives != 0 {
		t.Fatalf("expected lives to stay at 0, got %d", next.Lives)
	}
}

func TestApplyAnswerGuards(t *testing.T) {
	rules := game.DefaultRules()
	s := game.NewSession(domain.Easy, 3, sampleQuestions(0, 1))

	if _, _, err := rules.ApplyAnswer(s, 4); !errors.Is(err, domain.ErrOptionOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	answered, _, err := rules.ApplyAnswer(s, 0)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, _, err := rules.ApplyAnswer(answered, 0); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	answered.CurrentIndex++
	if _, _, err := rules.ApplyAnswer(answered, 0); !errors.Is(err, domain.ErrAwaitingQuestions) {
		t.Fatalf("expected awaiting questions, got %v", err)
	}
}

func TestApplyAnswerDoesNotAliasPreviousSession(t *testing.T) {
	rules := game.DefaultRules()
	s := game.NewSession(domain.Easy, 3, sampleQuestions(0, 2))
	s.Answers = make([]domain.AnswerRecord, 0, 8)

	next, _, err := rules.ApplyAnswer(s, 0)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(s.Answers) != 0 || len(next.Answers) != 1 {
		t.Fatalf("previous session changed: %d answers", len(s.Answers))
	}
}

func TestSummarize(t *testing.T) {
	rules := game.DefaultRules()
	s := game.NewSession(domain.Easy, 3, sampleQuestions(0, 4))
	for _, opt := range []int{0, 1, 0} {
		s, _, _ = rules.ApplyAnswer(s, opt)
		s.CurrentIndex++
	}

	sum := game.Summarize(s)
	if sum.Answered != 3 || sum.Correct != 2 || sum.QuestionsSeen != 4 || sum.Score != 20 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.LivesExhausted || sum.HighScore {
		t.Fatalf("unexpected flags %+v", sum)
	}
	if sum.Accuracy < 0.66 || sum.Accuracy > 0.67 {
		t.Fatalf("unexpected accuracy %f", sum.Accuracy)
	}
}
