package autofix

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonzalo123/autofix/internal/config"
)

func TestExtractReports(t *testing.T) {
	text := `I reviewed the logs and found one recurring failure.

AUTOFIX: {"timestamp": "2025-01-15T10:30:00Z", "level": "ERROR", "fix_short_name": "db-pool-timeout", "message": "connection pool exhausted at pool.go:112"}

The remaining errors look like transient network issues.`

	reports := ExtractReports(text)

	require.Len(t, reports, 1)
	assert.Equal(t, "db-pool-timeout", reports[0].FixShortName)
	assert.Equal(t, "ERROR", reports[0].Level)
	assert.Equal(t, "connection pool exhausted at pool.go:112", reports[0].Message)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), reports[0].Timestamp.UTC())
}

func TestExtractReportsSkipsUnparseableLines(t *testing.T) {
	text := `AUTOFIX: this is prose, not a report
AUTOFIX: {"broken json
AUTOFIX: {}
AUTOFIX: {"level": "ERROR", "fix_short_name": "null-deref", "message": "nil pointer in handler"}`

	reports := ExtractReports(text)

	require.Len(t, reports, 1)
	assert.Equal(t, "null-deref", reports[0].FixShortName)
}

func TestExtractReportsNoMarkers(t *testing.T) {
	assert.Empty(t, ExtractReports("All systems nominal. No fixable errors found."))
}

func TestServiceRegistrarPostsReport(t *testing.T) {
	registrar := NewServiceRegistrar(nil, config.RemediationConfig{
		BaseURL:    "http://fixer.local",
		Repository: "acme/api",
		Timeout:    time.Second,
	})
	httpmock.ActivateNonDefault(registrar.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	var received map[string]any
	httpmock.RegisterResponder(http.MethodPost, "http://fixer.local/v1/fixes",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
				return httpmock.NewStringResponse(400, "bad body"), nil
			}
			return httpmock.NewStringResponse(202, "accepted"), nil
		})

	err := registrar.RegisterError(context.Background(), ErrorReport{
		Timestamp:    time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Level:        "ERROR",
		FixShortName: "db-pool-timeout",
		Message:      "connection pool exhausted",
	})

	require.NoError(t, err)
	assert.Equal(t, "acme/api", received["repository"])
	assert.Equal(t, "db-pool-timeout", received["fix_short_name"])
	assert.Equal(t, "2025-01-15T10:30:00Z", received["timestamp"])
}

func TestServiceRegistrarServerError(t *testing.T) {
	registrar := NewServiceRegistrar(nil, config.RemediationConfig{
		BaseURL: "http://fixer.local",
		Timeout: time.Second,
	})
	httpmock.ActivateNonDefault(registrar.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodPost, "http://fixer.local/v1/fixes",
		httpmock.NewStringResponder(503, "unavailable"))

	err := registrar.RegisterError(context.Background(), ErrorReport{FixShortName: "x", Message: "y"})
	require.Error(t, err)
}

func TestNoopRegistrar(t *testing.T) {
	assert.NoError(t, NoopRegistrar{}.RegisterError(context.Background(), ErrorReport{}))
}
