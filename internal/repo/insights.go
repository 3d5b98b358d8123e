package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gonzalo123/autofix/internal/config"
	"github.com/gonzalo123/autofix/internal/metrics"
	"github.com/gonzalo123/autofix/internal/models"
	"github.com/gonzalo123/autofix/internal/utils"
)

// malformedQueryCode is the service error classification for invalid query
// strings.
const malformedQueryCode = "MalformedQueryException"

// InsightsClient wraps the asynchronous query API of the log store:
// submit a query, then poll for results until a terminal status.
type InsightsClient struct {
	logger       *slog.Logger
	client       *resty.Client
	pollInterval time.Duration
}

type startQueryRequest struct {
	LogGroup    string `json:"logGroup"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	QueryString string `json:"queryString"`
	Limit       int    `json:"limit"`
}

type startQueryResponse struct {
	QueryID string `json:"queryId"`
}

type fieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type queryResultsResponse struct {
	Status  string         `json:"status"`
	Results [][]fieldValue `json:"results"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewInsightsClient constructs a client for the configured log query service.
func NewInsightsClient(logger *slog.Logger, cfg config.InsightsConfig) *InsightsClient {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &InsightsClient{
		logger:       logger,
		client:       client,
		pollInterval: pollInterval,
	}
}

// HTTPClient exposes the underlying resty client for test instrumentation.
func (c *InsightsClient) HTTPClient() *resty.Client {
	return c.client
}

// StartQuery submits a query for the window and returns the query ID.
func (c *InsightsClient) StartQuery(ctx context.Context, logGroup string, window models.QueryWindow, queryString string, limit int) (string, error) {
	body := startQueryRequest{
		LogGroup:    logGroup,
		StartTime:   utils.UnixSeconds(window.Start),
		EndTime:     utils.UnixSeconds(window.End),
		QueryString: queryString,
		Limit:       limit,
	}

	var result startQueryResponse
	var svcErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&svcErr).
		Post("/v1/queries")
	if err != nil {
		return "", utils.NewAppError("insights.StartQuery", "submit query", err)
	}
	if resp.IsError() {
		if svcErr.Code != "" {
			return "", utils.NewAppError("insights.StartQuery", svcErr.Code, fmt.Errorf("%s", svcErr.Message))
		}
		return "", utils.NewAppError("insights.StartQuery", "unexpected status", fmt.Errorf("%s", resp.Status()))
	}
	if result.QueryID == "" {
		return "", utils.NewAppError("insights.StartQuery", "missing query id in response", nil)
	}
	return result.QueryID, nil
}

// GetQueryResults fetches the current status and rows for a submitted query.
// The returned outcome may carry a non-terminal status.
func (c *InsightsClient) GetQueryResults(ctx context.Context, queryID string) (models.QueryOutcome, error) {
	var result queryResultsResponse
	var svcErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&svcErr).
		Get(fmt.Sprintf("/v1/queries/%s/results", queryID))
	if err != nil {
		return models.QueryOutcome{}, utils.NewAppError("insights.GetQueryResults", "fetch results", err)
	}
	if resp.IsError() {
		if svcErr.Code != "" {
			return models.QueryOutcome{}, utils.NewAppError("insights.GetQueryResults", svcErr.Code, fmt.Errorf("%s", svcErr.Message))
		}
		return models.QueryOutcome{}, utils.NewAppError("insights.GetQueryResults", "unexpected status", fmt.Errorf("%s", resp.Status()))
	}

	outcome := models.QueryOutcome{Status: models.QueryStatus(result.Status)}
	if outcome.Status == models.StatusComplete {
		outcome.Rows = toRawRows(result.Results)
	}
	return outcome, nil
}

// Query runs a full submit-and-poll cycle and returns the terminal outcome.
// A malformed query string is classified and degraded into a Failed outcome
// carrying the offending query text; it is not returned as an error.
func (c *InsightsClient) Query(ctx context.Context, logGroup string, window models.QueryWindow, queryString string, limit int) (models.QueryOutcome, error) {
	queryID, err := c.StartQuery(ctx, logGroup, window, queryString, limit)
	if err != nil {
		if utils.ErrorHasMsg(err, malformedQueryCode) {
			c.logger.Error("query syntax error: log store rejected the query",
				slog.String("query", queryString), slog.Any("error", err))
			metrics.ObserveQuery(metrics.OutcomeError)
			return models.QueryOutcome{Status: models.StatusFailed, Message: err.Error()}, nil
		}
		metrics.ObserveQuery(metrics.OutcomeError)
		return models.QueryOutcome{}, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		outcome, err := c.GetQueryResults(ctx, queryID)
		if err != nil {
			metrics.ObserveQuery(metrics.OutcomeError)
			return models.QueryOutcome{}, err
		}
		if outcome.Status.Terminal() {
			if outcome.Status == models.StatusComplete {
				metrics.ObserveQuery(metrics.OutcomeSuccess)
			} else {
				metrics.ObserveQuery(metrics.OutcomeError)
			}
			return outcome, nil
		}

		select {
		case <-ctx.Done():
			metrics.ObserveQuery(metrics.OutcomeError)
			return models.QueryOutcome{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func toRawRows(results [][]fieldValue) []models.RawRow {
	rows := make([]models.RawRow, 0, len(results))
	for _, result := range results {
		row := make(models.RawRow, 0, len(result))
		for _, fv := range result {
			row = append(row, models.RawField{Field: fv.Field, Value: fv.Value})
		}
		rows = append(rows, row)
	}
	return rows
}
