package repo

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonzalo123/autofix/internal/config"
	"github.com/gonzalo123/autofix/internal/models"
)

const baseURL = "http://insights.local"

func newTestClient(t *testing.T) *InsightsClient {
	t.Helper()
	client := NewInsightsClient(nil, config.InsightsConfig{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	})
	httpmock.ActivateNonDefault(client.HTTPClient().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func queryWindow() models.QueryWindow {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return models.QueryWindow{Start: start, End: start.Add(time.Hour)}
}

func TestQuerySubmitAndPoll(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, baseURL+"/v1/queries",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"queryId": "q-1"}))

	polls := 0
	httpmock.RegisterResponder(http.MethodGet, baseURL+"/v1/queries/q-1/results",
		func(req *http.Request) (*http.Response, error) {
			polls++
			if polls < 3 {
				return httpmock.NewJsonResponse(200, map[string]any{"status": "Running"})
			}
			return httpmock.NewJsonResponse(200, map[string]any{
				"status": "Complete",
				"results": [][]map[string]string{
					{
						{"field": "@timestamp", "value": "2025-01-15 10:00:01"},
						{"field": "@message", "value": "hello"},
						{"field": "@ptr", "value": "cursor-1"},
					},
					{
						{"field": "@timestamp", "value": "2025-01-15 10:00:02"},
						{"field": "@message", "value": "world"},
					},
				},
			})
		})

	outcome, err := client.Query(context.Background(), "/app/api", queryWindow(), "fields @timestamp", 10000)

	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, outcome.Status)
	require.Len(t, outcome.Rows, 2)
	assert.Equal(t, 3, polls)

	assert.Equal(t, models.RawRow{
		{Field: "@timestamp", Value: "2025-01-15 10:00:01"},
		{Field: "@message", Value: "hello"},
		{Field: "@ptr", Value: "cursor-1"},
	}, outcome.Rows[0])
}

func TestQueryMalformedDegradesToFailedOutcome(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, baseURL+"/v1/queries",
		httpmock.NewJsonResponderOrPanic(400, map[string]any{
			"code":    "MalformedQueryException",
			"message": "query could not be parsed",
		}))

	outcome, err := client.Query(context.Background(), "/app/api", queryWindow(), "fields | bogus", 10000)

	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "MalformedQueryException")
}

func TestQuerySubmitServerError(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, baseURL+"/v1/queries",
		httpmock.NewStringResponder(500, "internal error"))

	_, err := client.Query(context.Background(), "/app/api", queryWindow(), "fields @timestamp", 10000)
	require.Error(t, err)
}

func TestStartQueryMissingID(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, baseURL+"/v1/queries",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{}))

	_, err := client.StartQuery(context.Background(), "/app/api", queryWindow(), "fields @timestamp", 10000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing query id")
}

func TestQueryPollHonorsContext(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, baseURL+"/v1/queries",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"queryId": "q-2"}))
	httpmock.RegisterResponder(http.MethodGet, baseURL+"/v1/queries/q-2/results",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"status": "Running"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Query(ctx, "/app/api", queryWindow(), "fields @timestamp", 10000)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetQueryResultsNonTerminalStatus(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, baseURL+"/v1/queries/q-3/results",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"status": "Scheduled"}))

	outcome, err := client.GetQueryResults(context.Background(), "q-3")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, outcome.Status)
	assert.False(t, outcome.Status.Terminal())
	assert.Empty(t, outcome.Rows)
}
