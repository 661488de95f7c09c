// Package gemini implements a question source on top of the Gemini
// generateContent REST API with a JSON response schema.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"exodus-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-2.5-flash"
	DefaultLanguage = "Simplified Chinese"
)

// Config is passed in explicitly; the client never reads process environment.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Language   string
	Timeout    time.Duration
	MaxRetries int
}

// Source generates questions with Gemini.
type Source struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewSource(cfg Config, log *zap.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With(zap.String("component", "gemini"), zap.String("model", cfg.Model)),
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type rawQuestion struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex"`
	BibleReference     string   `json:"bibleReference"`
	Explanation        string   `json:"explanation"`
}

// Generate asks the model for req.Count questions. Every failure is reported as domain.ErrGenerationFailed.
func (s *Source) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.GenerationFailed(err)
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: BuildPrompt(req, s.cfg.Language)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}

	var resp generateResponse
	if err := s.post(ctx, &body, &resp); err != nil {
		s.log.Warn("generate content failed", zap.Error(err))
		return nil, domain.GenerationFailed(err)
	}

	questions, err := parseQuestions(resp, req)
	if err != nil {
		s.log.Warn("unusable model output", zap.Error(err))
		return nil, domain.GenerationFailed(err)
	}
	s.log.Debug("generated questions", zap.Int("count", len(questions)), zap.String("difficulty", string(req.Difficulty)))
	return questions, nil
}

func parseQuestions(resp generateResponse, req domain.GenerationRequest) ([]domain.Question, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no candidates in response")
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("empty response text (finish reason %q)", resp.Candidates[0].FinishReason)
	}

	var raw []rawQuestion
	if err := json.Unmarshal([]byte(text.String()), &raw); err != nil {
		return nil, fmt.Errorf("parse model json: %w", err)
	}

	questions := make([]domain.Question, 0, len(raw))
	for i, r := range raw {
		if r.CorrectAnswerIndex == nil {
			return nil, fmt.Errorf("question %d: %w: missing correct index", i, domain.ErrInvalidQuestion)
		}
		questions = append(questions, domain.Question{
			ID:                 uuid.NewString(),
			Text:               strings.TrimSpace(r.Text),
			Options:            r.Options,
			CorrectAnswerIndex: *r.CorrectAnswerIndex,
			Reference:          strings.TrimSpace(r.BibleReference),
			Explanation:        strings.TrimSpace(r.Explanation),
		})
	}
	if err := domain.ValidateBatch(req, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Source) post(ctx context.Context, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.cfg.BaseURL, s.cfg.Model)

	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		status, data, err := s.doOnce(ctx, url, payload)
		if err == nil && status >= 200 && status < 300 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}
		if err == nil {
			err = fmt.Errorf("gemini returned status %d: %s", status, truncate(string(data), 300))
		}
		if attempt >= s.cfg.MaxRetries || !retryable(status, err) {
			return err
		}
		s.log.Debug("retrying generate content", zap.Int("attempt", attempt+1), zap.Int("status", status), zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *Source) doOnce(ctx context.Context, url string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func retryable(status int, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if status == 0 {
		return true
	}
	return status == http.StatusTooManyRequests || status >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
