package domain

import (
	"fmt"
	"strings"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

// Difficulty is the tier selected once at game start.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every supported tier in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts the canonical names case-insensitively.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, raw)
	}
	return d, nil
}

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// Label is the human label used when prompting a generator.
func (d Difficulty) Label() string {
	switch d {
	case Easy:
		return "简单"
	case Medium:
		return "中等"
	case Hard:
		return "困难"
	}
	return string(d)
}

// Question is an immutable multiple-choice question.
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Reference          string   `json:"reference"`
	Explanation        string   `json:"explanation"`
}

// Validate checks the arity and index invariants.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidQuestion)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: expected %d options, got %d", ErrInvalidQuestion, OptionCount, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option %d is empty", ErrInvalidQuestion, i)
		}
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of range", ErrInvalidQuestion, q.CorrectAnswerIndex)
	}
	return nil
}

// AnswerRecord pairs a question with whether it was answered correctly.
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
}

// MaxExcludeTexts bounds the avoid-list sent to a question source.
const MaxExcludeTexts = 30

// GenerationRequest is what the controller asks a question source for.
type GenerationRequest struct {
	Count        int
	Difficulty   Difficulty
	ExcludeTexts []string
}

// Validate rejects requests no source could satisfy.
func (r GenerationRequest) Validate() error {
	if r.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", r.Count)
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, r.Difficulty)
	}
	if len(r.ExcludeTexts) > MaxExcludeTexts {
		return fmt.Errorf("too many excluded texts: %d", len(r.ExcludeTexts))
	}
	return nil
}

// ValidateBatch checks a source response against the request.
func ValidateBatch(req GenerationRequest, questions []Question) error {
	if len(questions) != req.Count {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrInvalidQuestion, req.Count, len(questions))
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}
