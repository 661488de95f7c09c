package memory

import (
	"context"
	"testing"

	"exodus-quiz-service/internal/domain"
)

func TestStaticSourceReturnsValidBatch(t *testing.T) {
	src := NewSampleSource()
	req := domain.GenerationRequest{Count: 5, Difficulty: domain.Medium}

	batch, err := src.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := domain.ValidateBatch(req, batch); err != nil {
		t.Fatalf("invalid batch: %v", err)
	}

	ids := make(map[string]struct{})
	for _, q := range batch {
		if _, dup := ids[q.ID]; dup || q.ID == "" {
			t.Fatalf("expected unique ids, got %q", q.ID)
		}
		ids[q.ID] = struct{}{}
	}
}

func TestStaticSourceKeepsCorrectOptionAfterShuffle(t *testing.T) {
	bank := SampleQuestions()
	answers := make(map[string]string)
	for _, q := range bank[domain.Hard] {
		answers[q.Text] = q.Options[q.CorrectAnswerIndex]
	}

	src := NewStaticSource(bank)
	for i := 0; i < 20; i++ {
		batch, err := src.Generate(context.Background(), domain.GenerationRequest{Count: 6, Difficulty: domain.Hard})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for _, q := range batch {
			if got := q.Options[q.CorrectAnswerIndex]; got != answers[q.Text] {
				t.Fatalf("correct option moved: %q has answer %q, want %q", q.Text, got, answers[q.Text])
			}
		}
	}
}

func TestStaticSourcePrefersUnseenQuestions(t *testing.T) {
	bank := SampleQuestions()
	var exclude []string
	for _, q := range bank[domain.Easy][:4] {
		exclude = append(exclude, q.Text)
	}

	src := NewStaticSource(bank)
	batch, err := src.Generate(context.Background(), domain.GenerationRequest{Count: 2, Difficulty: domain.Easy, ExcludeTexts: exclude})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, q := range batch {
		for _, text := range exclude {
			if q.Text == text {
				t.Fatalf("excluded question returned: %q", text)
			}
		}
	}
}

func TestStaticSourceTooSmall(t *testing.T) {
	src := NewSampleSource()
	if _, err := src.Generate(context.Background(), domain.GenerationRequest{Count: 50, Difficulty: domain.Easy}); err == nil {
		t.Fatalf("expected error for oversized request")
	}
}
