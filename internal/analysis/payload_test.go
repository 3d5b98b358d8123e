package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonzalo123/autofix/internal/models"
)

func TestCoordinatorPayloadOmitsFailedErrorText(t *testing.T) {
	successful := []models.ChunkResult{
		{ChunkIndex: 0, TimeRangeLabel: "a to b", Size: 2000, Analysis: "findings", Succeeded: true, Duration: 1.5},
	}
	failed := []models.ChunkResult{
		{ChunkIndex: 1, Size: 2000, Error: "boom: secret internals"},
	}

	payload := CoordinatorPayload(successful, failed, RunMetadata{LogGroup: "/app/api", Period: "p", TotalRecords: 4000}, 2)

	data, err := MarshalPayload(payload)
	require.NoError(t, err)

	// Failed chunks appear by index only; their error text never becomes
	// analyzable content.
	assert.NotContains(t, data, "secret internals")
	assert.Contains(t, data, `"chunk_index":2`)

	var decoded struct {
		Metadata struct {
			TotalChunks      int `json:"total_chunks"`
			SuccessfulChunks int `json:"successful_chunks"`
			FailedChunks     int `json:"failed_chunks"`
		} `json:"metadata"`
		ChunkAnalyses []map[string]any `json:"chunk_analyses"`
		Failed        []map[string]any `json:"failed_chunks"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, 2, decoded.Metadata.TotalChunks)
	assert.Equal(t, 1, decoded.Metadata.SuccessfulChunks)
	assert.Equal(t, 1, decoded.Metadata.FailedChunks)
	require.Len(t, decoded.ChunkAnalyses, 1)
	assert.Equal(t, "findings", decoded.ChunkAnalyses[0]["analysis"])
	require.Len(t, decoded.Failed, 1)
}

func TestWorkerPayloadCarriesChunkContext(t *testing.T) {
	chunk := models.Chunk{
		Index:          1,
		TotalChunks:    3,
		Size:           2,
		StartTimestamp: "t0",
		EndTimestamp:   "t1",
		Records: []models.LogRecord{
			{"@message": "a"},
			{"@message": "b"},
		},
	}

	payload := WorkerPayload(chunk, RunMetadata{LogGroup: "/app/api", Period: "p", TotalRecords: 6})
	meta, ok := payload["metadata"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, 2, meta["chunk_index"])
	assert.Equal(t, 3, meta["total_chunks"])
	assert.Equal(t, "t0 to t1", meta["chunk_time_range"])
	assert.Equal(t, 6, meta["total_records_in_dataset"])
}

func TestPayloadSize(t *testing.T) {
	payload := SinglePassPayload([]models.LogRecord{{"@message": "x"}}, RunMetadata{})

	sizeBytes, sizeKB, sizeMB := PayloadSize(payload)
	assert.Greater(t, sizeBytes, 0)
	assert.InDelta(t, float64(sizeBytes)/1024, sizeKB, 0.001)
	assert.InDelta(t, sizeKB/1024, sizeMB, 0.001)
}

func TestWorkerPromptNumbersChunksFromOne(t *testing.T) {
	prompt := WorkerPrompt(0, 3, 2000, "a to b", "what failed?")
	assert.Contains(t, prompt, "chunk 1 of 3 total chunks")
	assert.Contains(t, prompt, "2000 log entries")
	assert.Contains(t, prompt, `"what failed?"`)
}

func TestBackoffCapped(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 6*time.Second, backoff(3))
	assert.Equal(t, 30*time.Second, backoff(20))
}
