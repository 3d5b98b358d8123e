package models

import "fmt"

// Chunk is a fixed-size, order-preserving slice of normalized records
// assigned to one worker analysis call.
type Chunk struct {
	Index          int
	TotalChunks    int
	Size           int
	StartTimestamp string
	EndTimestamp   string
	Records        []LogRecord
}

// TimeRangeLabel returns a human-readable time range for the chunk, falling
// back to a positional label when the records carry no timestamps.
func (c Chunk) TimeRangeLabel() string {
	if c.StartTimestamp != "" && c.EndTimestamp != "" {
		return fmt.Sprintf("%s to %s", c.StartTimestamp, c.EndTimestamp)
	}
	return fmt.Sprintf("Chunk %d of %d", c.Index+1, c.TotalChunks)
}

// ChunkResult is the outcome of one worker analysis call, produced exactly
// once per chunk whether or not the call succeeded.
type ChunkResult struct {
	ChunkIndex     int
	TimeRangeLabel string
	Size           int
	Analysis       string
	Succeeded      bool
	Error          string
	Duration       float64
}
