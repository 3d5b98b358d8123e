package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/gonzalo123/autofix/internal/models"
)

// RunMetadata is the run-level context shared with every analysis call.
type RunMetadata struct {
	LogGroup     string
	Period       string
	TotalRecords int
}

// SinglePassPayload builds the context document for one direct analysis
// call over the full record set.
func SinglePassPayload(records []models.LogRecord, meta RunMetadata) map[string]any {
	return map[string]any{
		"metadata": map[string]any{
			"log_group":     meta.LogGroup,
			"period":        meta.Period,
			"total_records": meta.TotalRecords,
		},
		"logs": records,
	}
}

// WorkerPayload builds the self-contained context for one chunk worker.
func WorkerPayload(chunk models.Chunk, meta RunMetadata) map[string]any {
	return map[string]any{
		"metadata": map[string]any{
			"log_group":               meta.LogGroup,
			"chunk_index":             chunk.Index + 1,
			"total_chunks":            chunk.TotalChunks,
			"chunk_time_range":        chunk.TimeRangeLabel(),
			"chunk_size":              chunk.Size,
			"global_time_range":       meta.Period,
			"total_records_in_dataset": meta.TotalRecords,
		},
		"logs": chunk.Records,
	}
}

// CoordinatorPayload builds the synthesis context from the successful chunk
// results. Failed chunks are reported by index only; their error text never
// becomes analyzable content.
func CoordinatorPayload(successful, failed []models.ChunkResult, meta RunMetadata, totalChunks int) map[string]any {
	analyses := make([]map[string]any, 0, len(successful))
	for _, r := range successful {
		analyses = append(analyses, map[string]any{
			"chunk_index":     r.ChunkIndex + 1,
			"time_range":      r.TimeRangeLabel,
			"size":            r.Size,
			"analysis":        r.Analysis,
			"processing_time": fmt.Sprintf("%.2fs", r.Duration),
		})
	}

	payload := map[string]any{
		"metadata": map[string]any{
			"log_group":         meta.LogGroup,
			"time_range":        meta.Period,
			"total_records":     meta.TotalRecords,
			"total_chunks":      totalChunks,
			"successful_chunks": len(successful),
			"failed_chunks":     len(failed),
		},
		"chunk_analyses": analyses,
	}

	if len(failed) > 0 {
		failures := make([]map[string]any, 0, len(failed))
		for _, r := range failed {
			failures = append(failures, map[string]any{
				"chunk_index": r.ChunkIndex + 1,
			})
		}
		payload["failed_chunks"] = failures
	}

	return payload
}

// MarshalPayload serialises a context document for transmission.
func MarshalPayload(payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// PayloadSize reports the serialized payload size in bytes, KB and MB.
func PayloadSize(payload map[string]any) (int, float64, float64) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, 0
	}
	sizeBytes := len(data)
	sizeKB := float64(sizeBytes) / 1024
	return sizeBytes, sizeKB, sizeKB / 1024
}
