// Package autofix is the boundary to the external remediation service that
// owns the clone/branch/fix/pull-request flow. The analyzer only registers
// fixable errors here; whatever happens afterwards never influences the
// analysis result.
package autofix

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gonzalo123/autofix/internal/config"
)

// reportMarker prefixes the lines the triage model emits for fixable errors.
const reportMarker = "AUTOFIX:"

// ErrorReport describes one fixable error flagged during triage.
type ErrorReport struct {
	Timestamp    time.Time `json:"timestamp"`
	Level        string    `json:"level"`
	FixShortName string    `json:"fix_short_name"`
	Message      string    `json:"message"`
}

// Registrar registers errors for remediation.
type Registrar interface {
	RegisterError(ctx context.Context, report ErrorReport) error
}

// NoopRegistrar implements Registrar but registers nothing. Used when the
// remediation flow is disabled.
type NoopRegistrar struct{}

// RegisterError discards the report.
func (NoopRegistrar) RegisterError(context.Context, ErrorReport) error { return nil }

// ServiceRegistrar posts reports to the remediation service.
type ServiceRegistrar struct {
	logger     *slog.Logger
	client     *resty.Client
	repository string
}

// NewServiceRegistrar constructs a registrar for the configured service.
func NewServiceRegistrar(logger *slog.Logger, cfg config.RemediationConfig) *ServiceRegistrar {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &ServiceRegistrar{
		logger:     logger,
		client:     client,
		repository: cfg.Repository,
	}
}

// RegisterError submits one report for fixing.
func (r *ServiceRegistrar) RegisterError(ctx context.Context, report ErrorReport) error {
	body := map[string]any{
		"repository":     r.repository,
		"timestamp":      report.Timestamp.Format(time.RFC3339),
		"level":          report.Level,
		"fix_short_name": report.FixShortName,
		"message":        report.Message,
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v1/fixes")
	if err != nil {
		return fmt.Errorf("register error for fix: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("remediation service returned %s", resp.Status())
	}

	r.logger.Info("error registered for fix",
		slog.String("fix_short_name", report.FixShortName),
		slog.String("level", report.Level))
	return nil
}

// ExtractReports scans analysis output for AUTOFIX lines and parses them.
// Unparseable lines are skipped; the model's prose is never mistaken for a
// report.
func ExtractReports(text string) []ErrorReport {
	var reports []ErrorReport
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, reportMarker) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, reportMarker))

		var report ErrorReport
		if err := json.Unmarshal([]byte(raw), &report); err != nil {
			continue
		}
		if report.Message == "" && report.FixShortName == "" {
			continue
		}
		reports = append(reports, report)
	}
	return reports
}
