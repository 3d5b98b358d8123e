package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/gonzalo123/autofix/internal/config"
)

// GeminiService implements Service on the Gemini API.
type GeminiService struct {
	logger      *slog.Logger
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	maxAttempts int
}

// NewGeminiService constructs the production analysis backend.
func NewGeminiService(ctx context.Context, logger *slog.Logger, cfg config.AnalysisConfig) (*GeminiService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("analysis API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	return &GeminiService{
		logger:      logger,
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
		maxAttempts: maxAttempts,
	}, nil
}

// Generate performs one text-generation exchange, retrying transient
// failures up to the configured attempt budget.
func (s *GeminiService) Generate(ctx context.Context, systemPrompt string, parts []string) (string, error) {
	genParts := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		genParts = append(genParts, genai.NewPartFromText(p))
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: genParts}}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.temperature),
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		text, err := s.generateOnce(ctx, contents, genConfig)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		s.logger.Warn("generation attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.maxAttempts),
			slog.Any("error", err))
		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *GeminiService) generateOnce(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.Models.GenerateContent(callCtx, s.model, contents, cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 2 * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
