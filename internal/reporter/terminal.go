package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/five82/cadence/internal/util"
	"github.com/schollz/progressbar/v3"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	progress *progressbar.ProgressBar
	verbose  bool
	cyan     *color.Color
	green    *color.Color
	yellow   *color.Color
	red      *color.Color
	magenta  *color.Color
	bold     *color.Color
}

// NewTerminalReporter creates a terminal reporter writing to stdout and stderr.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return NewTerminalReporterWithWriters(os.Stdout, os.Stderr, verbose)
}

// NewTerminalReporterWithWriters creates a terminal reporter with custom
// writers. The progress bar is drawn on errOut.
func NewTerminalReporterWithWriters(out, errOut io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) PlaybackStarted(info PlaybackInfo) {
	r.finishProgress()

	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, "PLAYBACK")
	r.printLabel(10, "Range:", fmt.Sprintf("%d-%d (%d frames)", info.First, info.Last, info.Last-info.First+1))
	r.printLabel(10, "Direction:", info.Direction)
	r.printLabel(10, "Loop:", info.LoopMode)
	r.printLabel(10, "Rate:", util.FormatFPS(info.DesiredFPS)+" fps")
	r.printLabel(10, "Workers:", fmt.Sprintf("%d (look-ahead %d)", info.Workers, info.Lookahead))

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		int64(max(info.Last-info.First+1, 1)),
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Playing [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) StateChanged(change StateChange) {
	if !r.verbose && change.To == change.From {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s -> %s at frame %d\n",
		r.magenta.Sprint("›"), change.From, r.bold.Sprint(change.To), change.Time)
}

// PlaybackProgress moves the bar to the delivered frame. The bar follows the
// playhead, so it moves backwards during backward playback.
func (r *TerminalReporter) PlaybackProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	_ = r.progress.Set64(int64(progress.Time - progress.First + 1))

	desc := fmt.Sprintf("%s %s, fps %s/%s",
		util.FormatTimecode(progress.Time, progress.DesiredFPS),
		progress.Direction,
		util.FormatFPS(progress.ActualFPS),
		util.FormatFPS(progress.DesiredFPS))
	r.progress.Describe(desc)
}

func (r *TerminalReporter) FrameFailed(failure FrameFailure) {
	_, _ = r.yellow.Fprintf(r.errOut, "\nWARN: frame %d failed (%d in a row): %s\n",
		failure.Time, failure.Consecutive, failure.Reason)
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()

	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) PlaybackComplete(summary PlaybackSummary) {
	r.finishProgress()

	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, "RESULTS")
	r.printLabel(10, "Frames:", fmt.Sprintf("%d delivered, %d failed", summary.Delivered, summary.Failed))
	r.printLabel(10, "Stopped:", fmt.Sprintf("frame %d", summary.LastTime))
	r.printLabel(10, "Time:", util.FormatDuration(summary.Elapsed.Seconds()))
	r.printLabel(10, "Rate:", util.FormatFPS(summary.ActualFPS)+" fps")

	status := color.New(color.FgGreen, color.Bold).Sprint("✓")
	if summary.Failed > 0 {
		status = r.yellow.Sprint("!")
	}
	_, _ = fmt.Fprintf(r.out, "\n%s %s\n", status, r.bold.Sprint("Playback complete"))
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", color.New(color.Faint).Sprint(strings.TrimSpace(message)))
}
