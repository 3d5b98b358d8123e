package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonzalo123/autofix/internal/models"
)

func makeRecords(n int) []models.LogRecord {
	records := make([]models.LogRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.LogRecord{
			"@timestamp": fmt.Sprintf("2025-01-15 10:00:%02d", i%60),
			"@message":   fmt.Sprintf("event %d", i),
		})
	}
	return records
}

func TestBuildChunksPartition(t *testing.T) {
	records := makeRecords(4500)
	chunks := BuildChunks(records, 2000)

	require.Len(t, chunks, 3)
	assert.Equal(t, 2000, chunks[0].Size)
	assert.Equal(t, 2000, chunks[1].Size)
	assert.Equal(t, 500, chunks[2].Size)

	total := 0
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, 3, chunk.TotalChunks)
		assert.Equal(t, len(chunk.Records), chunk.Size)
		total += chunk.Size
	}
	assert.Equal(t, len(records), total)

	// Concatenation of the chunks is the input sequence.
	assert.Equal(t, "event 0", chunks[0].Records[0]["@message"])
	assert.Equal(t, "event 1999", chunks[0].Records[1999]["@message"])
	assert.Equal(t, "event 2000", chunks[1].Records[0]["@message"])
	assert.Equal(t, "event 4499", chunks[2].Records[499]["@message"])
}

func TestBuildChunksExactMultiple(t *testing.T) {
	chunks := BuildChunks(makeRecords(4000), 2000)
	require.Len(t, chunks, 2)
	assert.Equal(t, 2000, chunks[0].Size)
	assert.Equal(t, 2000, chunks[1].Size)
}

func TestBuildChunksSmallInput(t *testing.T) {
	chunks := BuildChunks(makeRecords(3), 2000)
	require.Len(t, chunks, 1)
	assert.Equal(t, 3, chunks[0].Size)
	assert.Equal(t, 1, chunks[0].TotalChunks)
}

func TestBuildChunksEmpty(t *testing.T) {
	assert.Nil(t, BuildChunks(nil, 2000))
	assert.Nil(t, BuildChunks(makeRecords(5), 0))
}

func TestBuildChunksTimestamps(t *testing.T) {
	records := []models.LogRecord{
		{"@timestamp": "t0", "@message": "a"},
		{"@timestamp": "t1", "@message": "b"},
		{"@timestamp": "t2", "@message": "c"},
	}
	chunks := BuildChunks(records, 2)

	require.Len(t, chunks, 2)
	assert.Equal(t, "t0", chunks[0].StartTimestamp)
	assert.Equal(t, "t1", chunks[0].EndTimestamp)
	assert.Equal(t, "t2", chunks[1].StartTimestamp)
	assert.Equal(t, "t2", chunks[1].EndTimestamp)
}

func TestBuildChunksDeterministic(t *testing.T) {
	records := makeRecords(4321)
	assert.Equal(t, BuildChunks(records, 1000), BuildChunks(records, 1000))
}

func TestEstimateChunks(t *testing.T) {
	assert.Equal(t, 0, EstimateChunks(0, 2000))
	assert.Equal(t, 1, EstimateChunks(1, 2000))
	assert.Equal(t, 1, EstimateChunks(2000, 2000))
	assert.Equal(t, 2, EstimateChunks(2001, 2000))
	assert.Equal(t, 3, EstimateChunks(4500, 2000))
	assert.Equal(t, 25, EstimateChunks(50000, 2000))
	assert.Equal(t, 0, EstimateChunks(10, 0))
}
