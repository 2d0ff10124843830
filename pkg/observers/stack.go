package observers

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/harunnryd/strum/pkg/metrics"
	"github.com/harunnryd/strum/pkg/redact"
)

// artifactMaxAge bounds how long per-turn trace files are kept.
const artifactMaxAge = 7 * 24 * time.Hour

// StackConfig selects the metrics sinks for one service process.
type StackConfig struct {
	// MetricsPath appends every event as one JSON line. Empty disables.
	MetricsPath string
	// TimelineDir holds one JSONL trace per turn. Empty disables.
	TimelineDir string
	// CostDir holds one usage summary per turn. Empty disables.
	CostDir string
	// SampleRate thins the file sink; 0 or 1 means every event.
	SampleRate float64
	RedactPII  bool
}

// BuildStack assembles the observer pipeline for a service: the structured-log
// sink and latency summaries are always on, file sinks are opt-in, and the
// whole stack runs behind an async buffer so recording never blocks a turn.
// The returned close function drains the buffer and releases file handles.
func BuildStack(cfg StackConfig, log *slog.Logger) (metrics.Observer, func() error) {
	redact.SetEnabled(cfg.RedactPII)

	sinks := []metrics.Observer{
		NewLoggerObserver(log),
		NewLatencyObserver(log),
	}
	var closers []func() error

	if cfg.MetricsPath != "" {
		f, err := os.OpenFile(cfg.MetricsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn("metrics file unavailable",
				slog.String("path", cfg.MetricsPath),
				slog.String("error", err.Error()),
			)
		} else {
			var sink metrics.Observer = metrics.NewJSONLObserver(f)
			if cfg.SampleRate > 0 && cfg.SampleRate < 1 {
				sink = metrics.NewSamplingObserver(sink, cfg.SampleRate)
			}
			sinks = append(sinks, sink)
			closers = append(closers, f.Close)
		}
	}
	if cfg.TimelineDir != "" {
		purgeStale(cfg.TimelineDir, log)
		tl := NewTimelineObserver(cfg.TimelineDir)
		sinks = append(sinks, tl)
		closers = append(closers, tl.Close)
	}
	if cfg.CostDir != "" {
		purgeStale(cfg.CostDir, log)
		co := NewCostObserver(cfg.CostDir)
		sinks = append(sinks, co)
		closers = append(closers, co.Close)
	}

	async := metrics.NewAsyncObserver(NewMultiObserver(sinks...), 256)
	closeAll := func() error {
		async.Close()
		var err error
		for _, c := range closers {
			if cerr := c(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
		return err
	}
	return async, closeAll
}

func purgeStale(dir string, log *slog.Logger) {
	if _, err := os.Stat(dir); err != nil {
		return
	}
	removed, err := PurgeArtifacts(dir, artifactMaxAge)
	if err != nil {
		log.Warn("artifact purge incomplete",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
	}
	if removed > 0 {
		log.Info("purged stale artifacts", slog.String("dir", dir), slog.Int("removed", removed))
	}
}
