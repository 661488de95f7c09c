package game

import (
	"fmt"

	"exodus-quiz-service/internal/domain"
)

// Rules are the scoring and lives constants.
type Rules struct {
	InitialLives int
	BasePoints   int
	StreakBonus  int
}

// DefaultRules matches the classic game: 3 lives, 10 points plus 2 per streak step.
func DefaultRules() Rules {
	return Rules{InitialLives: 3, BasePoints: 10, StreakBonus: 2}
}

// Points awarded for a correct answer given the streak before that answer.
func (r Rules) Points(streakBefore int) int {
	return r.BasePoints + r.StreakBonus*streakBefore
}

// AnswerOutcome describes what one answer did to the session.
type AnswerOutcome struct {
	QuestionID   string `json:"questionId"`
	Selected     int    `json:"selected"`
	CorrectIndex int    `json:"correctIndex"`
	Correct      bool   `json:"correct"`
	Awarded      int    `json:"awarded"`
	TotalScore   int    `json:"totalScore"`
	Streak       int    `json:"streak"`
	Lives        int    `json:"lives"`
	Reference    string `json:"reference"`
	Explanation  string `json:"explanation"`
}

// ApplyAnswer scores the option chosen for the current question. It never
// ends the game; that happens on the following advance.
func (r Rules) ApplyAnswer(s Session, option int) (Session, AnswerOutcome, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, AnswerOutcome{}, domain.ErrAwaitingQuestions
	}
	if s.Answered() {
		return s, AnswerOutcome{}, domain.ErrAlreadyAnswered
	}
	if option < 0 || option >= len(q.Options) {
		return s, AnswerOutcome{}, fmt.Errorf("%w: %d", domain.ErrOptionOutOfRange, option)
	}

	correct := option == q.CorrectAnswerIndex
	points := 0
	if correct {
		points = r.Points(s.Streak)
		s.Streak++
	} else {
		s.Streak = 0
		// Lives saturate at zero; game over is decided on advance with lives <= 0.
		if s.Lives > 0 {
			s.Lives--
		}
	}
	s.Score += points
	s.Answers = appendCopy(s.Answers, domain.AnswerRecord{QuestionID: q.ID, Correct: correct})

	return s, AnswerOutcome{
		QuestionID:   q.ID,
		Selected:     option,
		CorrectIndex: q.CorrectAnswerIndex,
		Correct:      correct,
		Awarded:      points,
		TotalScore:   s.Score,
		Streak:       s.Streak,
		Lives:        s.Lives,
		Reference:    q.Reference,
		Explanation:  q.Explanation,
	}, nil
}
