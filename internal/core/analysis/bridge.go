package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrEnvironmentUnavailable means the analysis process could not be located or started.
	ErrEnvironmentUnavailable = errors.New("analysis environment unavailable")
	// ErrAnalysisTimeout means the process exceeded its wall-clock budget and was killed.
	ErrAnalysisTimeout = errors.New("analysis timed out")
	// ErrAnalysisProcess means the process exited non-zero.
	ErrAnalysisProcess = errors.New("analysis process failed")
	// ErrMalformedOutput means stdout was not a parseable result.
	ErrMalformedOutput = errors.New("malformed analysis output")
	// ErrAnalysisSemantic means the process reported an application-level error.
	ErrAnalysisSemantic = errors.New("analysis reported an error")
)

const (
	DefaultTimeout          = 60 * time.Second
	DefaultQualityThreshold = 50

	// how long to wait for stdout/stderr to drain after the child is killed
	pipeDrainDelay = 2 * time.Second
	stderrTailSize = 2048
)

// BridgeConfig configures the analysis subprocess
type BridgeConfig struct {
	Command          string // interpreter or executable, e.g. python3
	Script           string // optional script path passed as the first argument
	Timeout          time.Duration
	QualityThreshold int
	TempDir          string
}

// Bridge runs the external statistical analysis process over a dataset
type Bridge struct {
	source DatasetSource
	cfg    BridgeConfig
}

// NewBridge creates a new analysis bridge
func NewBridge(source DatasetSource, cfg BridgeConfig) *Bridge {
	if cfg.Command == "" {
		cfg.Command = "python3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = DefaultQualityThreshold
	}
	return &Bridge{source: source, cfg: cfg}
}

// Analyze exports the dataset to a temporary CSV, runs the analysis process
// on it and parses its JSON output. The temporary file is always removed.
func (b *Bridge) Analyze(ctx context.Context, datasetID string) (*Result, error) {
	ds, err := b.source.LoadDataset(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", datasetID, err)
	}

	commandPath, err := exec.LookPath(b.cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEnvironmentUnavailable, b.cfg.Command, err)
	}
	if b.cfg.Script != "" {
		if _, err := os.Stat(b.cfg.Script); err != nil {
			return nil, fmt.Errorf("%w: script %s: %v", ErrEnvironmentUnavailable, b.cfg.Script, err)
		}
	}

	csvPath, err := b.exportDataset(ds)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(csvPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", csvPath).Msg("⚠️ Failed to remove temporary dataset export")
		}
	}()

	args := make([]string, 0, 4)
	if b.cfg.Script != "" {
		args = append(args, b.cfg.Script)
	}
	args = append(args,
		csvPath,
		"--output_format=json",
		"--quality_threshold="+strconv.Itoa(b.cfg.QualityThreshold),
	)

	runCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, commandPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeDrainDelay

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrAnalysisTimeout, b.cfg.Timeout)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("analysis cancelled: %w", ctx.Err())
		}

		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("%w: %v", ErrEnvironmentUnavailable, runErr)
		}
		// An error envelope on stdout explains the failure better than the exit code.
		if msg, ok := parseErrorEnvelope(stdout.Bytes()); ok {
			return nil, fmt.Errorf("%w: %s", ErrAnalysisSemantic, msg)
		}
		return nil, fmt.Errorf("%w: exit code %d: %s", ErrAnalysisProcess, exitErr.ExitCode(), tail(stderr.String()))
	}

	if stderr.Len() > 0 {
		log.Debug().Str("dataset_id", datasetID).Str("stderr", tail(stderr.String())).Msg("analysis stderr")
	}

	result, err := parseOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("dataset_id", datasetID).
		Float64("quality_score", result.DataQualityScore).
		Int("rows", result.BasicStatistics.RowCount).
		Dur("elapsed", elapsed).
		Msg("📊 Analysis completed")

	return result, nil
}

func (b *Bridge) exportDataset(ds *Dataset) (string, error) {
	f, err := os.CreateTemp(b.cfg.TempDir, "dataset-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary export: %w", err)
	}

	if err := writeCSV(f, ds); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to export dataset %s: %w", ds.ID, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temporary export: %w", err)
	}
	return f.Name(), nil
}

func parseOutput(stdout []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty stdout", ErrMalformedOutput)
	}

	if msg, ok := parseErrorEnvelope(trimmed); ok {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisSemantic, msg)
	}

	var result Result
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return &result, nil
}

func parseErrorEnvelope(stdout []byte) (string, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &env); err != nil || env.Error == nil {
		return "", false
	}
	msg := *env.Error
	if env.QualityIssues != nil {
		msg = fmt.Sprintf("%s (%v)", msg, env.QualityIssues)
	}
	return msg, true
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailSize {
		return "..." + s[len(s)-stderrTailSize:]
	}
	return s
}
