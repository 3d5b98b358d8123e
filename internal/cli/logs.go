package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gonzalo123/autofix/internal/analysis"
	"github.com/gonzalo123/autofix/internal/autofix"
	"github.com/gonzalo123/autofix/internal/config"
	"github.com/gonzalo123/autofix/internal/engine"
	"github.com/gonzalo123/autofix/internal/metrics"
	"github.com/gonzalo123/autofix/internal/models"
	"github.com/gonzalo123/autofix/internal/repo"
	"github.com/gonzalo123/autofix/internal/timeparse"
	"github.com/gonzalo123/autofix/internal/utils"
)

var startLayouts = []string{"2006-01-02T15:04:05", "2006-01-02"}

var (
	flagConfig    string
	flagGroup     string
	flagQuestion  string
	flagStart     string
	flagEnd       string
	flagTimeRange string
	flagQuery     string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Analyze a log group with a natural-language question",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&flagConfig, "config", "", "Path to configuration file")
	logsCmd.Flags().StringVar(&flagGroup, "group", "", "Log group to query")
	logsCmd.Flags().StringVar(&flagQuestion, "question", "", "Question to ask about the logs")
	logsCmd.Flags().StringVar(&flagStart, "start", "", "Start datetime (YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD)")
	logsCmd.Flags().StringVar(&flagEnd, "end", "", "End datetime, defaults to now")
	logsCmd.Flags().StringVar(&flagTimeRange, "range", "", `Natural-language range, e.g. "last 2 hours"`)
	logsCmd.Flags().StringVar(&flagQuery, "query", "", "Override query string sent to the log store")
	_ = logsCmd.MarkFlagRequired("group")
	_ = logsCmd.MarkFlagRequired("question")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	window, err := resolveWindow()
	if err != nil {
		return err
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Metrics.Address,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Metrics.Address))
			if serveErr := metricsServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Warn("metrics server exited", slog.Any("error", serveErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	service, err := analysis.NewGeminiService(ctx, logger, cfg.Analysis)
	if err != nil {
		return err
	}

	var registrar autofix.Registrar = autofix.NoopRegistrar{}
	if cfg.Remediation.Enabled {
		registrar = autofix.NewServiceRegistrar(logger, cfg.Remediation)
	}

	insights := repo.NewInsightsClient(logger, cfg.Insights)
	splitter := engine.NewSplitter(logger, insights, cfg.Insights.MaxResultsPerQuery, cfg.Insights.MinWindow)
	orchestrator := engine.NewOrchestrator(logger, service, cfg.Processing)
	analyzer := engine.NewAnalyzer(logger, splitter, service, orchestrator, registrar, cfg.Processing, cfg.Insights.DefaultQuery)

	result, err := analyzer.Ask(ctx, engine.AskRequest{
		LogGroup:    flagGroup,
		Question:    flagQuestion,
		Window:      window,
		QueryString: flagQuery,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Analysis)
	color.New(color.FgCyan).Printf("\n[Metadata: %d records, %d chunks, %.1fs]\n",
		result.Metadata.RecordsAnalyzed,
		result.Metadata.ChunksProcessed,
		result.Metadata.ProcessingTimeSeconds)

	return nil
}

func resolveWindow() (models.QueryWindow, error) {
	if flagTimeRange != "" {
		start, end, err := timeparse.ParseRange(flagTimeRange)
		if err != nil {
			return models.QueryWindow{}, err
		}
		return models.QueryWindow{Start: start, End: end}, nil
	}

	if flagStart == "" {
		return models.QueryWindow{}, fmt.Errorf("either --start or --range is required")
	}

	start, err := parseDatetimeFlag(flagStart)
	if err != nil {
		return models.QueryWindow{}, fmt.Errorf("invalid --start: %w", err)
	}

	end := time.Now().UTC()
	if flagEnd != "" {
		end, err = parseDatetimeFlag(flagEnd)
		if err != nil {
			return models.QueryWindow{}, fmt.Errorf("invalid --end: %w", err)
		}
	}

	if end.Before(start) {
		return models.QueryWindow{}, fmt.Errorf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	return models.QueryWindow{Start: start, End: end}, nil
}

func parseDatetimeFlag(value string) (time.Time, error) {
	if t, err := utils.ParseRFC3339(value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse datetime %q", value)
}
