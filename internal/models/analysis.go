package models

// AnalysisMetadata summarises a full analysis run for the caller. Every
// code path (empty result, single pass, parallel) produces one.
type AnalysisMetadata struct {
	ChunksProcessed       int
	ChunksFailed          int
	RecordsAnalyzed       int
	ProcessingTimeSeconds float64
	Error                 string
}

// AnalysisResult pairs the final answer text with its run metadata.
type AnalysisResult struct {
	Analysis string
	Metadata AnalysisMetadata
}

// EmptyResultMessage is the canonical answer when a query window holds no records.
const EmptyResultMessage = "No logs found to analyze."

// EmptyResult returns the canonical response for an empty dataset.
func EmptyResult() AnalysisResult {
	return AnalysisResult{
		Analysis: EmptyResultMessage,
		Metadata: AnalysisMetadata{},
	}
}
