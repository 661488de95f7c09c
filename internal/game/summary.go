package game

// HighScoreThreshold marks a score worth celebrating on the game over screen.
const HighScoreThreshold = 100

// Summary is the end-of-game report.
type Summary struct {
	Score          int     `json:"score"`
	Answered       int     `json:"answered"`
	Correct        int     `json:"correct"`
	Accuracy       float64 `json:"accuracy"`
	QuestionsSeen  int     `json:"questionsSeen"`
	LivesExhausted bool    `json:"livesExhausted"`
	HighScore      bool    `json:"highScore"`
}

func Summarize(s Session) Summary {
	correct := s.CorrectCount()
	accuracy := 0.0
	if len(s.Answers) > 0 {
		accuracy = float64(correct) / float64(len(s.Answers))
	}
	return Summary{
		Score:          s.Score,
		Answered:       len(s.Answers),
		Correct:        correct,
		Accuracy:       accuracy,
		QuestionsSeen:  len(s.Questions),
		LivesExhausted: s.Lives <= 0,
		HighScore:      s.Score > HighScoreThreshold,
	}
}
