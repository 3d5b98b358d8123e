package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gonzalo123/autofix/internal/analysis"
	"github.com/gonzalo123/autofix/internal/autofix"
	"github.com/gonzalo123/autofix/internal/config"
	"github.com/gonzalo123/autofix/internal/metrics"
	"github.com/gonzalo123/autofix/internal/models"
	"github.com/gonzalo123/autofix/internal/utils"
)

// Analyzer is the entry point for a question-over-logs run. It retrieves
// the full record set, then routes between the single-pass and the
// parallel map-reduce path based on dataset size.
type Analyzer struct {
	logger       *slog.Logger
	splitter     *Splitter
	service      analysis.Service
	orchestrator *Orchestrator
	registrar    autofix.Registrar
	processing   config.ProcessingConfig
	defaultQuery string
}

// AskRequest describes one analysis run.
type AskRequest struct {
	LogGroup    string
	Question    string
	Window      models.QueryWindow
	QueryString string
}

// NewAnalyzer wires the retrieval and analysis stages together.
func NewAnalyzer(
	logger *slog.Logger,
	splitter *Splitter,
	service analysis.Service,
	orchestrator *Orchestrator,
	registrar autofix.Registrar,
	processing config.ProcessingConfig,
	defaultQuery string,
) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if registrar == nil {
		registrar = autofix.NoopRegistrar{}
	}
	if defaultQuery == "" {
		defaultQuery = config.DefaultQueryString
	}
	return &Analyzer{
		logger:       logger,
		splitter:     splitter,
		service:      service,
		orchestrator: orchestrator,
		registrar:    registrar,
		processing:   processing,
		defaultQuery: defaultQuery,
	}
}

// Ask retrieves and analyzes the logs for the request window and returns
// the answer with run metadata. Partial data loss degrades gracefully;
// only whole-run faults surface as errors.
func (a *Analyzer) Ask(ctx context.Context, req AskRequest) (models.AnalysisResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := a.logger.With(slog.String("run_id", runID))

	queryString := req.QueryString
	if queryString == "" {
		queryString = a.defaultQuery
	}

	logger.Info("starting log analysis",
		slog.String("log_group", req.LogGroup),
		slog.String("period", req.Window.String()))

	rows, err := a.splitter.Retrieve(ctx, req.LogGroup, req.Window, queryString)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	total := len(rows)
	logger.Info("total records retrieved", slog.Int("count", total))

	if total == 0 {
		logger.Warn("no records found for the specified time range")
		return models.EmptyResult(), nil
	}

	records := models.NormalizeRows(rows)
	meta := analysis.RunMetadata{
		LogGroup:     req.LogGroup,
		Period:       req.Window.String(),
		TotalRecords: total,
	}

	chunkSize := a.processing.ChunkSize
	if total <= chunkSize {
		logger.Info("small dataset, using single pass",
			slog.Int("records", total), slog.Int("chunk_size", chunkSize))
		return a.singlePass(ctx, logger, records, req.Question, meta, start)
	}

	// Chunk count is a direct proxy for external call volume; check the
	// guardrail before any chunking or dispatch work happens.
	estimated := EstimateChunks(total, chunkSize)
	if estimated > a.processing.MaxChunks {
		logger.Error("dataset exceeds maximum chunk limit",
			slog.Int("records", total),
			slog.Int("estimated_chunks", estimated),
			slog.Int("max_chunks", a.processing.MaxChunks))
		return a.guardrailResult(total, estimated), nil
	}

	logger.Info("large dataset, routing to parallel processing",
		slog.Int("records", total), slog.Int("estimated_chunks", estimated))
	return a.parallel(ctx, logger, records, req.Question, meta, start)
}

func (a *Analyzer) guardrailResult(total, estimated int) models.AnalysisResult {
	msg := fmt.Sprintf(
		"Dataset would generate %d chunks, which exceeds the maximum limit of %d chunks.\n\n"+
			"Options:\n"+
			"  1. Reduce the time range to analyze fewer logs\n"+
			"  2. Increase processing.maxChunks (or AUTOFIX_MAX_CHUNKS_TO_PROCESS)\n"+
			"  3. Use more specific query filters\n\n"+
			"Current dataset: %d records, chunk size: %d",
		estimated, a.processing.MaxChunks, total, a.processing.ChunkSize)

	return models.AnalysisResult{
		Analysis: "ERROR: " + msg,
		Metadata: models.AnalysisMetadata{
			RecordsAnalyzed: total,
			Error:           "max chunk limit exceeded",
		},
	}
}

func (a *Analyzer) singlePass(ctx context.Context, logger *slog.Logger, records []models.LogRecord, question string, meta analysis.RunMetadata, start time.Time) (models.AnalysisResult, error) {
	if len(records) > 1000 {
		logger.Warn("analyzing a large record set in one pass, this may be expensive and slow",
			slog.Int("records", len(records)))
	}

	payload := analysis.SinglePassPayload(records, meta)
	contextJSON, err := analysis.MarshalPayload(payload)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	sizeBytes, sizeKB, sizeMB := analysis.PayloadSize(payload)
	if sizeMB >= 1 {
		logger.Info("analysis payload size", slog.String("size", fmt.Sprintf("%.2f MB (%d bytes)", sizeMB, sizeBytes)))
	} else {
		logger.Info("analysis payload size", slog.String("size", fmt.Sprintf("%.2f KB (%d bytes)", sizeKB, sizeBytes)))
	}

	parts := []string{
		fmt.Sprintf("Question: %s", question),
		fmt.Sprintf("Log context: %s", contextJSON),
		"Answer the question based on the log data provided.",
	}

	answer, err := a.service.Generate(ctx, analysis.TriagePrompt, parts)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("single-pass analysis: %w", err)
	}

	a.registerFixableErrors(ctx, logger, answer)

	elapsed := time.Since(start)
	metrics.ObserveAnalysisRun(elapsed)

	return models.AnalysisResult{
		Analysis: answer,
		Metadata: models.AnalysisMetadata{
			ChunksProcessed:       1,
			RecordsAnalyzed:       meta.TotalRecords,
			ProcessingTimeSeconds: utils.FormatSeconds(elapsed),
		},
	}, nil
}

func (a *Analyzer) parallel(ctx context.Context, logger *slog.Logger, records []models.LogRecord, question string, meta analysis.RunMetadata, start time.Time) (models.AnalysisResult, error) {
	if len(records) > 10000 {
		logger.Warn("very large dataset",
			slog.Int("records", len(records)),
			slog.Int("estimated_chunks", EstimateChunks(len(records), a.processing.ChunkSize)))
	}

	chunks := BuildChunks(records, a.processing.ChunkSize)
	logger.Info("created chunk plan",
		slog.Int("chunks", len(chunks)),
		slog.Int("records", len(records)))
	for _, chunk := range chunks {
		logger.Info("chunk",
			slog.String("position", fmt.Sprintf("%d/%d", chunk.Index+1, chunk.TotalChunks)),
			slog.Int("size", chunk.Size),
			slog.String("time_range", chunk.TimeRangeLabel()))
	}

	// A single chunk means the whole dataset fits one call; the
	// worker-plus-coordinator round trip would be pure overhead.
	if len(chunks) == 1 {
		logger.Info("only one chunk, using single pass instead")
		return a.singlePass(ctx, logger, records, question, meta, start)
	}

	answer, results, err := a.orchestrator.Run(ctx, chunks, question, meta)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	succeeded, failed := 0, 0
	for _, r := range results {
		if r.Succeeded {
			succeeded++
		} else {
			failed++
		}
	}

	elapsed := time.Since(start)
	metrics.ObserveAnalysisRun(elapsed)

	logger.Info("processing summary",
		slog.Int("total_records", meta.TotalRecords),
		slog.String("chunks_processed", fmt.Sprintf("%d/%d", succeeded, len(chunks))),
		slog.Duration("total_time", elapsed.Round(10*time.Millisecond)),
		slog.Duration("avg_chunk_time", a.orchestrator.AverageChunkDuration().Round(10*time.Millisecond)),
		slog.Duration("chunk_p95", a.orchestrator.ChunkDurationP95().Round(10*time.Millisecond)))
	if failed > 0 {
		logger.Warn("some chunks failed", slog.Int("failed", failed))
	}

	return models.AnalysisResult{
		Analysis: answer,
		Metadata: models.AnalysisMetadata{
			ChunksProcessed:       succeeded,
			ChunksFailed:          failed,
			RecordsAnalyzed:       meta.TotalRecords,
			ProcessingTimeSeconds: utils.FormatSeconds(elapsed),
		},
	}, nil
}

func (a *Analyzer) registerFixableErrors(ctx context.Context, logger *slog.Logger, answer string) {
	reports := autofix.ExtractReports(answer)
	for _, report := range reports {
		if err := a.registrar.RegisterError(ctx, report); err != nil {
			// Registration is best effort; the analysis result stands either way.
			logger.Error("failed to register error for fix",
				slog.String("fix_short_name", report.FixShortName),
				slog.Any("error", err))
		}
	}
}
