package cli

import (
	"testing"

	"exodus-quiz-service/internal/config"
	"exodus-quiz-service/internal/infra/memory"
	"go.uber.org/zap/zaptest"
)

func TestMachineFromConfig(t *testing.T) {
	var cfg config.Config
	cfg.Game.BatchSize = 8
	cfg.Game.InitialLives = 5

	m := machineFromConfig(cfg)
	if m.Policy.BatchSize != 8 || m.Rules.InitialLives != 5 {
		t.Fatalf("expected overrides, got %+v", m)
	}
	if m.Policy.LowWatermark != 2 || m.Policy.ExcludeLimit != 30 || m.Rules.BasePoints != 10 {
		t.Fatalf("expected defaults for unset fields, got %+v", m)
	}
}

func TestBuildSource(t *testing.T) {
	log := zaptest.NewLogger(t)

	var cfg config.Config
	cfg.Source.Kind = "static"
	source, err := buildSource(cfg, nil, log)
	if err != nil {
		t.Fatalf("static source: %v", err)
	}
	if _, ok := source.(*memory.CoalescingSource); !ok {
		t.Fatalf("expected coalescing wrapper, got %T", source)
	}

	cfg.Source.Kind = "bank"
	if _, err := buildSource(cfg, nil, log); err == nil {
		t.Fatalf("expected bank source to require postgres")
	}

	cfg.Source.Kind = "gemini"
	cfg.Gemini.APIKey = ""
	if _, err := buildSource(cfg, nil, log); err == nil {
		t.Fatalf("expected gemini source to require an api key")
	}

	cfg.Gemini.APIKey = "test-key"
	if _, err := buildSource(cfg, nil, log); err != nil {
		t.Fatalf("gemini source: %v", err)
	}

	cfg.Source.Kind = "oracle"
	if _, err := buildSource(cfg, nil, log); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
}

func TestLastN(t *testing.T) {
	texts := []string{"a", "b", "c"}
	if got := lastN(texts, 2); len(got) != 2 || got[0] != "b" {
		t.Fatalf("unexpected %v", got)
	}
	if got := lastN(texts, 5); len(got) != 3 {
		t.Fatalf("unexpected %v", got)
	}
}
