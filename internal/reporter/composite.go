package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter. Nil entries are skipped.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	c := &CompositeReporter{}
	for _, r := range reporters {
		if r != nil {
			c.reporters = append(c.reporters, r)
		}
	}
	return c
}

func (c *CompositeReporter) PlaybackStarted(info PlaybackInfo) {
	for _, r := range c.reporters {
		r.PlaybackStarted(info)
	}
}

func (c *CompositeReporter) StateChanged(change StateChange) {
	for _, r := range c.reporters {
		r.StateChanged(change)
	}
}

func (c *CompositeReporter) PlaybackProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.PlaybackProgress(progress)
	}
}

func (c *CompositeReporter) FrameFailed(failure FrameFailure) {
	for _, r := range c.reporters {
		r.FrameFailed(failure)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) PlaybackComplete(summary PlaybackSummary) {
	for _, r := range c.reporters {
		r.PlaybackComplete(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
