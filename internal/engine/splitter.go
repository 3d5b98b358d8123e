package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gonzalo123/autofix/internal/metrics"
	"github.com/gonzalo123/autofix/internal/models"
)

// LogQuerier defines the log-store query behaviour used by the splitter.
type LogQuerier interface {
	Query(ctx context.Context, logGroup string, window models.QueryWindow, queryString string, limit int) (models.QueryOutcome, error)
}

// Splitter retrieves the complete result set for a window even though any
// single query is capped at maxResults rows. Windows whose result count
// hits the cap are bisected and re-queried; the work list is an explicit
// stack, so adversarial inputs cannot grow the call stack.
type Splitter struct {
	logger     *slog.Logger
	querier    LogQuerier
	maxResults int
	minWindow  time.Duration
}

type pendingWindow struct {
	window models.QueryWindow
	depth  int
}

// NewSplitter constructs a splitter over the given querier.
func NewSplitter(logger *slog.Logger, querier LogQuerier, maxResults int, minWindow time.Duration) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxResults <= 0 {
		maxResults = 10000
	}
	if minWindow <= 0 {
		minWindow = time.Second
	}
	return &Splitter{
		logger:     logger,
		querier:    querier,
		maxResults: maxResults,
		minWindow:  minWindow,
	}
}

// Retrieve returns every row the store holds for the window and query, in
// chronological order. Degraded sub-window queries contribute zero rows and
// are logged; only context cancellation aborts the retrieval.
func (s *Splitter) Retrieve(ctx context.Context, logGroup string, window models.QueryWindow, queryString string) ([]models.RawRow, error) {
	var rows []models.RawRow

	// LIFO with the later half pushed first, so windows are drained in
	// chronological order and plain append keeps the merge sorted.
	stack := []pendingWindow{{window: window}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		indent := strings.Repeat("  ", item.depth)
		s.logger.Info(indent+"querying window",
			slog.String("window", item.window.String()),
			slog.Int("depth", item.depth))

		outcome, err := s.querier.Query(ctx, logGroup, item.window, queryString, s.maxResults)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error(indent+"query degraded, treating window as empty",
				slog.String("window", item.window.String()),
				slog.Any("error", err))
			continue
		}

		if outcome.Status != models.StatusComplete {
			s.logger.Error(indent+"query ended without completing",
				slog.String("status", string(outcome.Status)),
				slog.String("explanation", models.ExplainQueryStatus(outcome.Status)),
				slog.String("window", item.window.String()))
			continue
		}

		count := len(outcome.Rows)
		s.logger.Info(indent+"retrieved records", slog.Int("count", count))

		if count >= s.maxResults {
			if item.window.Duration()/2 < s.minWindow {
				s.logger.Warn(indent+"window at minimum duration still hits the result cap, keeping truncated rows",
					slog.String("window", item.window.String()),
					slog.Int("count", count))
				rows = append(rows, outcome.Rows...)
				continue
			}

			s.logger.Warn(indent+"hit result cap, subdividing window",
				slog.Int("limit", s.maxResults))
			metrics.ObserveSplit()

			first, second := item.window.Bisect()
			stack = append(stack,
				pendingWindow{window: second, depth: item.depth + 1},
				pendingWindow{window: first, depth: item.depth + 1},
			)
			continue
		}

		rows = append(rows, outcome.Rows...)
	}

	return rows, nil
}
