package reporter

import (
	"github.com/five82/cadence/internal/logging"
)

// LogReporter mirrors playback events into a structured log. Progress
// updates are skipped; the scheduler already logs per-frame detail at debug.
type LogReporter struct {
	logger *logging.Logger
}

// NewLogReporter creates a reporter writing to logger. A nil logger discards.
func NewLogReporter(logger *logging.Logger) *LogReporter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LogReporter{logger: logger.WithComponent("reporter")}
}

func (r *LogReporter) PlaybackStarted(info PlaybackInfo) {
	r.logger.Info("playback started",
		"workers", info.Workers,
		"lookahead", info.Lookahead,
		"fps", info.DesiredFPS,
		"first", info.First,
		"last", info.Last,
		"loop", info.LoopMode,
		"direction", info.Direction)
}

func (r *LogReporter) StateChanged(change StateChange) {
	r.logger.Debug("state changed",
		"from", change.From, "to", change.To, "frame", change.Time, "epoch", change.Epoch)
}

func (r *LogReporter) PlaybackProgress(ProgressSnapshot) {}

func (r *LogReporter) FrameFailed(failure FrameFailure) {
	r.logger.Warn("frame failed",
		"frame", failure.Time, "reason", failure.Reason, "consecutive", failure.Consecutive)
}

func (r *LogReporter) Warning(message string) {
	r.logger.Warn(message)
}

func (r *LogReporter) Error(err ReporterError) {
	r.logger.Error(err.Title, "message", err.Message, "context", err.Context, "suggestion", err.Suggestion)
}

func (r *LogReporter) PlaybackComplete(summary PlaybackSummary) {
	r.logger.Info("playback complete",
		"delivered", summary.Delivered,
		"failed", summary.Failed,
		"last_frame", summary.LastTime,
		"elapsed", summary.Elapsed,
		"fps", summary.ActualFPS)
}

func (r *LogReporter) Verbose(message string) {
	r.logger.Debug(message)
}
