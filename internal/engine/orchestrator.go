package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gonzalo123/autofix/internal/analysis"
	"github.com/gonzalo123/autofix/internal/config"
	"github.com/gonzalo123/autofix/internal/metrics"
	"github.com/gonzalo123/autofix/internal/models"
	"github.com/gonzalo123/autofix/internal/utils"
)

// Orchestrator runs the parallel worker/coordinator pipeline: one bounded
// analysis call per chunk, a full join barrier, then a single synthesis
// call over whichever chunks succeeded.
type Orchestrator struct {
	logger        *slog.Logger
	service       analysis.Service
	maxWorkers    int
	workerTimeout time.Duration
	latencies     *utils.LatencyTracker
}

// NewOrchestrator constructs the pipeline with the configured bounds.
func NewOrchestrator(logger *slog.Logger, service analysis.Service, cfg config.ProcessingConfig) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	return &Orchestrator{
		logger:        logger,
		service:       service,
		maxWorkers:    maxWorkers,
		workerTimeout: cfg.WorkerTimeout,
		latencies:     utils.NewLatencyTracker(1024),
	}
}

// Run analyzes every chunk and synthesizes one answer. It always produces
// exactly one ChunkResult per chunk; worker failures are folded into failed
// results and never abort sibling workers. The returned error is reserved
// for whole-run faults (context cancellation, coordinator failure).
func (o *Orchestrator) Run(ctx context.Context, chunks []models.Chunk, question string, meta analysis.RunMetadata) (string, []models.ChunkResult, error) {
	o.logger.Info("processing chunks with bounded worker pool",
		slog.Int("chunks", len(chunks)),
		slog.Int("max_workers", o.maxWorkers))

	resultCh := make(chan models.ChunkResult, len(chunks))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(o.maxWorkers)
	for _, chunk := range chunks {
		chunk := chunk
		eg.Go(func() error {
			resultCh <- o.analyzeChunk(egCtx, chunk, question, meta)
			return nil
		})
	}

	// Workers never return errors, so Wait is a pure join barrier.
	if err := eg.Wait(); err != nil {
		return "", nil, err
	}
	close(resultCh)

	results := make([]models.ChunkResult, 0, len(chunks))
	for result := range resultCh {
		results = append(results, result)
	}
	// Completion order is arbitrary under concurrency; restore creation
	// order so the coordinator reads chunks chronologically.
	sort.Slice(results, func(i, j int) bool {
		return results[i].ChunkIndex < results[j].ChunkIndex
	})

	if err := ctx.Err(); err != nil {
		return "", results, err
	}

	o.logger.Info("all chunks processed, starting consolidation")
	answer, err := o.consolidate(ctx, results, question, meta)
	if err != nil {
		return "", results, err
	}
	return answer, results, nil
}

// AverageChunkDuration reports the mean worker call duration observed so far.
func (o *Orchestrator) AverageChunkDuration() time.Duration {
	return o.latencies.Average()
}

// ChunkDurationP95 reports the p95 worker call duration observed so far.
func (o *Orchestrator) ChunkDurationP95() time.Duration {
	return o.latencies.Percentile(95)
}

func (o *Orchestrator) analyzeChunk(ctx context.Context, chunk models.Chunk, question string, meta analysis.RunMetadata) (result models.ChunkResult) {
	start := time.Now()
	chunkID := fmt.Sprintf("chunk %d/%d", chunk.Index+1, chunk.TotalChunks)

	result = models.ChunkResult{
		ChunkIndex:     chunk.Index,
		TimeRangeLabel: chunk.TimeRangeLabel(),
		Size:           chunk.Size,
	}

	// A panicking worker must still yield a failed result; siblings keep going.
	defer func() {
		if r := recover(); r != nil {
			result.Succeeded = false
			result.Analysis = ""
			result.Error = fmt.Sprintf("panic: %v", r)
			result.Duration = utils.FormatSeconds(time.Since(start))
			metrics.ObserveChunkAnalysis(metrics.OutcomeError)
			o.logger.Error("worker panicked", slog.String("chunk", chunkID), slog.Any("panic", r))
		}
	}()

	o.logger.Info("starting worker analysis", slog.String("chunk", chunkID))

	workerCtx := ctx
	if o.workerTimeout > 0 {
		var cancel context.CancelFunc
		workerCtx, cancel = context.WithTimeout(ctx, o.workerTimeout)
		defer cancel()
	}

	payload := analysis.WorkerPayload(chunk, meta)
	contextJSON, err := analysis.MarshalPayload(payload)
	if err != nil {
		return o.failedResult(result, start, chunkID, err)
	}

	sizeBytes, sizeKB, _ := analysis.PayloadSize(payload)
	o.logger.Info("worker payload size",
		slog.String("chunk", chunkID),
		slog.String("size", fmt.Sprintf("%.2f KB (%d bytes)", sizeKB, sizeBytes)))

	prompt := analysis.WorkerPrompt(chunk.Index, chunk.TotalChunks, chunk.Size, chunk.TimeRangeLabel(), question)
	parts := []string{
		fmt.Sprintf("Question: %s", question),
		fmt.Sprintf("Log context: %s", contextJSON),
		"Analyze this chunk of logs according to the guidelines in your system prompt.",
	}

	text, err := o.service.Generate(workerCtx, prompt, parts)
	if err != nil {
		return o.failedResult(result, start, chunkID, err)
	}

	elapsed := time.Since(start)
	o.latencies.Observe(elapsed)
	metrics.ObserveChunkAnalysis(metrics.OutcomeSuccess)
	o.logger.Info("worker completed",
		slog.String("chunk", chunkID),
		slog.Duration("elapsed", elapsed.Round(10*time.Millisecond)))

	result.Succeeded = true
	result.Analysis = text
	result.Duration = utils.FormatSeconds(elapsed)
	return result
}

func (o *Orchestrator) failedResult(result models.ChunkResult, start time.Time, chunkID string, err error) models.ChunkResult {
	elapsed := time.Since(start)
	o.latencies.Observe(elapsed)
	metrics.ObserveChunkAnalysis(metrics.OutcomeError)
	o.logger.Error("worker failed",
		slog.String("chunk", chunkID),
		slog.Duration("elapsed", elapsed.Round(10*time.Millisecond)),
		slog.Any("error", err))

	result.Succeeded = false
	result.Analysis = ""
	result.Error = err.Error()
	result.Duration = utils.FormatSeconds(elapsed)
	return result
}

func (o *Orchestrator) consolidate(ctx context.Context, results []models.ChunkResult, question string, meta analysis.RunMetadata) (string, error) {
	successful := make([]models.ChunkResult, 0, len(results))
	failed := make([]models.ChunkResult, 0)
	for _, r := range results {
		if r.Succeeded {
			successful = append(successful, r)
		} else {
			failed = append(failed, r)
		}
	}

	if len(successful) == 0 {
		var summary strings.Builder
		summary.WriteString("ERROR: All chunks failed to process.\n\nFailures:\n")
		for _, r := range failed {
			fmt.Fprintf(&summary, "- Chunk %d: %s\n", r.ChunkIndex+1, r.Error)
		}
		return summary.String(), nil
	}

	payload := analysis.CoordinatorPayload(successful, failed, meta, len(results))
	contextJSON, err := analysis.MarshalPayload(payload)
	if err != nil {
		return "", fmt.Errorf("build coordinator context: %w", err)
	}

	sizeBytes, sizeKB, _ := analysis.PayloadSize(payload)
	o.logger.Info("coordinator payload size",
		slog.String("size", fmt.Sprintf("%.2f KB (%d bytes)", sizeKB, sizeBytes)))

	prompt := analysis.CoordinatorPrompt(len(successful), meta.TotalRecords, meta.Period, len(results))
	parts := []string{
		fmt.Sprintf("Original Question: %s", question),
		fmt.Sprintf("Chunk Analyses: %s", contextJSON),
		"Synthesize these chunk analyses to answer the user's question.",
	}

	answer, err := o.service.Generate(ctx, prompt, parts)
	if err != nil {
		return "", fmt.Errorf("coordinator consolidation: %w", err)
	}

	o.logger.Info("coordinator consolidation completed")
	return answer, nil
}
