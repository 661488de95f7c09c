package memory

import (
	"context"
	"strconv"
	"strings"

	"exodus-quiz-service/internal/app"
	"exodus-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CoalescingSource shares one upstream call between identical concurrent
// requests, e.g. many players starting the same difficulty at once.
type CoalescingSource struct {
	next app.QuestionSource
	sf   singleflight.Group
}

func NewCoalescingSource(next app.QuestionSource) *CoalescingSource {
	return &CoalescingSource{next: next}
}

// Generate joins any identical in-flight call. The shared call is detached from
// the caller's cancellation; each caller still gives up on its own deadline.
func (s *CoalescingSource) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(requestKey(req), func() (interface{}, error) {
		return s.next.Generate(shared, req)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers append to their own sessions; hand each one its own slice.
		return append([]domain.Question(nil), res.Val.([]domain.Question)...), nil
	}
}

func requestKey(req domain.GenerationRequest) string {
	var b strings.Builder
	b.WriteString(string(req.Difficulty))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(req.Count))
	for _, text := range req.ExcludeTexts {
		b.WriteByte('|')
		b.WriteString(text)
	}
	return b.String()
}
