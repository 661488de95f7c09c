package cli

import (
	"context"
	"fmt"
	"time"

	"exodus-quiz-service/internal/config"
	"exodus-quiz-service/internal/domain"
	"exodus-quiz-service/internal/infra/memory"
	"exodus-quiz-service/internal/infra/postgres"
	"exodus-quiz-service/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd fills the question bank, either from the built-in sample set or from Gemini.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		difficulty string
		batches    int
		sample     bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store questions in the Postgres question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Mode)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var levels []domain.Difficulty
			if difficulty == "" {
				levels = domain.Difficulties
			} else {
				d, err := domain.ParseDifficulty(difficulty)
				if err != nil {
					return err
				}
				levels = []domain.Difficulty{d}
			}
			return runSeed(cmd.Context(), cfg, log, levels, batches, sample)
		},
	}
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium or hard (default: all)")
	cmd.Flags().IntVar(&batches, "batches", 1, "number of generated batches per difficulty")
	cmd.Flags().BoolVar(&sample, "sample", false, "store the built-in sample questions instead of calling Gemini")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, log *zap.Logger, levels []domain.Difficulty, batches int, sample bool) error {
	if err := runMigrations(ctx, cfg, log); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	bank := postgres.NewQuestionBank(pool)

	if sample {
		all := memory.SampleQuestions()
		for _, d := range levels {
			added, err := bank.Store(ctx, d, all[d])
			if err != nil {
				return fmt.Errorf("store %s samples: %w", d, err)
			}
			log.Info("stored sample questions", zap.String("difficulty", string(d)), zap.Int("added", added))
		}
		return nil
	}

	source, err := newGeminiSource(cfg, log)
	if err != nil {
		return err
	}
	size := config.IntOr(cfg.Game.BatchSize, 5)
	for _, d := range levels {
		var seen []string
		for i := 0; i < batches; i++ {
			callCtx, cancel := context.WithTimeout(ctx, config.TTLDuration(cfg.Gemini.Timeout, 60*time.Second))
			questions, err := source.Generate(callCtx, domain.GenerationRequest{
				Count:        size,
				Difficulty:   d,
				ExcludeTexts: lastN(seen, domain.MaxExcludeTexts),
			})
			cancel()
			if err != nil {
				return err
			}
			added, err := bank.Store(ctx, d, questions)
			if err != nil {
				return fmt.Errorf("store %s batch: %w", d, err)
			}
			for _, q := range questions {
				seen = append(seen, q.Text)
			}
			log.Info("stored generated batch", zap.String("difficulty", string(d)), zap.Int("batch", i+1), zap.Int("added", added))
		}
	}
	return nil
}

func lastN(texts []string, n int) []string {
	if len(texts) <= n {
		return texts
	}
	return texts[len(texts)-n:]
}
