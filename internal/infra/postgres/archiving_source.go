package postgres

import (
	"context"
	"time"

	"exodus-quiz-service/internal/app"
	"exodus-quiz-service/internal/domain"
	"go.uber.org/zap"
)

// ArchivingSource stores every batch produced by the wrapped source in the bank.
type ArchivingSource struct {
	next app.QuestionSource
	bank *QuestionBank
	log  *zap.Logger
}

func NewArchivingSource(next app.QuestionSource, bank *QuestionBank, log *zap.Logger) *ArchivingSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArchivingSource{next: next, bank: bank, log: log.With(zap.String("component", "question_archive"))}
}

func (s *ArchivingSource) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, error) {
	questions, err := s.next.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	// Best effort: a failed insert is logged and the batch still returned.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if n, err := s.bank.Store(storeCtx, req.Difficulty, questions); err != nil {
		s.log.Warn("failed to archive questions", zap.Error(err))
	} else {
		s.log.Debug("archived questions", zap.Int("new", n), zap.String("difficulty", string(req.Difficulty)))
	}
	return questions, nil
}
