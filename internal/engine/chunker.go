package engine

import (
	"github.com/gonzalo123/autofix/internal/models"
)

// BuildChunks partitions an ordered record sequence into fixed-size chunks.
// Every chunk holds chunkSize records except possibly the last. The
// function is deterministic and pure: identical input always yields
// identical chunk boundaries, and the concatenation of all chunks equals
// the input sequence.
func BuildChunks(records []models.LogRecord, chunkSize int) []models.Chunk {
	if len(records) == 0 || chunkSize <= 0 {
		return nil
	}

	total := (len(records) + chunkSize - 1) / chunkSize
	chunks := make([]models.Chunk, 0, total)

	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		slice := records[start:end]

		chunks = append(chunks, models.Chunk{
			Index:          len(chunks),
			TotalChunks:    total,
			Size:           len(slice),
			StartTimestamp: slice[0].Timestamp(),
			EndTimestamp:   slice[len(slice)-1].Timestamp(),
			Records:        slice,
		})
	}

	return chunks
}

// EstimateChunks returns ceil(total/chunkSize) without building anything,
// for the pre-flight guardrail.
func EstimateChunks(total, chunkSize int) int {
	if total <= 0 || chunkSize <= 0 {
		return 0
	}
	return (total + chunkSize - 1) / chunkSize
}
