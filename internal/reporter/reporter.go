package reporter

// Reporter receives playback notifications. Implementations must be safe for
// use from the scheduler goroutine and the caller's goroutine.
type Reporter interface {
	PlaybackStarted(info PlaybackInfo)
	StateChanged(change StateChange)
	PlaybackProgress(progress ProgressSnapshot)
	FrameFailed(failure FrameFailure)
	Warning(message string)
	Error(err ReporterError)
	PlaybackComplete(summary PlaybackSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) PlaybackStarted(PlaybackInfo)      {}
func (NullReporter) StateChanged(StateChange)          {}
func (NullReporter) PlaybackProgress(ProgressSnapshot) {}
func (NullReporter) FrameFailed(FrameFailure)          {}
func (NullReporter) Warning(string)                    {}
func (NullReporter) Error(ReporterError)               {}
func (NullReporter) PlaybackComplete(PlaybackSummary)  {}
func (NullReporter) Verbose(string)                    {}
