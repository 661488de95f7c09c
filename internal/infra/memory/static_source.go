package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"exodus-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// StaticSource serves questions from a fixed bank (useful for tests/demos
// and offline play). Options are shuffled on every draw.
type StaticSource struct {
	bank map[domain.Difficulty][]domain.Question

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewStaticSource(bank map[domain.Difficulty][]domain.Question) *StaticSource {
	return &StaticSource{
		bank: bank,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSampleSource is a StaticSource over the built-in Exodus questions.
func NewSampleSource() *StaticSource {
	return NewStaticSource(SampleQuestions())
}

// Generate draws req.Count questions, preferring ones whose text is not excluded.
func (s *StaticSource) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pool := s.bank[req.Difficulty]
	if len(pool) < req.Count {
		return nil, fmt.Errorf("static bank has %d %s questions, need %d", len(pool), req.Difficulty, req.Count)
	}

	excluded := make(map[string]struct{}, len(req.ExcludeTexts))
	for _, text := range req.ExcludeTexts {
		excluded[text] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.rnd.Perm(len(pool))
	fresh := make([]domain.Question, 0, req.Count)
	seen := make([]domain.Question, 0, req.Count)
	for _, i := range order {
		q := pool[i]
		if _, ok := excluded[q.Text]; ok {
			seen = append(seen, q)
		} else {
			fresh = append(fresh, q)
		}
	}
	// Repeats only fill the batch once the unseen questions run out.
	picked := append(fresh, seen...)[:req.Count]

	out := make([]domain.Question, 0, req.Count)
	for _, q := range picked {
		out = append(out, s.shuffledLocked(q))
	}
	return out, nil
}

func (s *StaticSource) shuffledLocked(q domain.Question) domain.Question {
	options := append([]string(nil), q.Options...)
	correct := q.CorrectAnswerIndex
	s.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
		switch correct {
		case i:
			correct = j
		case j:
			correct = i
		}
	})
	q.ID = uuid.NewString()
	q.Options = options
	q.CorrectAnswerIndex = correct
	return q
}
