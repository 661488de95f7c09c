package game

import "exodus-quiz-service/internal/domain"

// Policy controls when and how much to prefetch.
type Policy struct {
	LowWatermark int
	BatchSize    int
	ExcludeLimit int
}

func DefaultPolicy() Policy {
	return Policy{LowWatermark: 2, BatchSize: 5, ExcludeLimit: domain.MaxExcludeTexts}
}

// ShouldPrefetch reports whether a background fetch must be issued now.
func (p Policy) ShouldPrefetch(state State, s Session, inFlight bool) bool {
	if state != Playing || inFlight {
		return false
	}
	return s.Remaining() <= p.LowWatermark
}

// ExcludeTexts returns the text of the most recent questions of the whole
// session, oldest first, bounded by ExcludeLimit.
func (p Policy) ExcludeTexts(s Session) []string {
	limit := p.ExcludeLimit
	if limit <= 0 || limit > domain.MaxExcludeTexts {
		limit = domain.MaxExcludeTexts
	}
	start := len(s.Questions) - limit
	if start < 0 {
		start = 0
	}
	texts := make([]string, 0, len(s.Questions)-start)
	for _, q := range s.Questions[start:] {
		texts = append(texts, q.Text)
	}
	return texts
}

// Request builds the background fetch for the session.
func (p Policy) Request(s Session) domain.GenerationRequest {
	return domain.GenerationRequest{
		Count:        p.BatchSize,
		Difficulty:   s.Difficulty,
		ExcludeTexts: p.ExcludeTexts(s),
	}
}
