package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/cadence/internal/util"
)

// RunLog is a logger writing to a timestamped file for one CLI run.
type RunLog struct {
	*Logger
	file     *os.File
	filePath string
}

// RunLogOptions controls the per-run log file.
type RunLogOptions struct {
	Verbose  bool // include debug records
	Disabled bool // create no file
	JSON     bool // write JSON lines instead of text
}

// SetupRunLog creates logDir if needed and opens a timestamped log file in it.
// Returns nil if logging is disabled.
func SetupRunLog(logDir string, opts RunLogOptions) (*RunLog, error) {
	if opts.Disabled {
		return nil, nil
	}

	if err := util.EnsureDirectory(logDir); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	ext := "log"
	if opts.JSON {
		ext = "jsonl"
	}
	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(logDir, fmt.Sprintf("cadence_play_%s.%s", timestamp, ext))

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", filePath, err)
	}

	level := LevelInfo
	if opts.Verbose {
		level = LevelDebug
	}

	l := &RunLog{
		Logger:   New(Config{Level: level, Output: file, Enabled: true, JSON: opts.JSON}),
		file:     file,
		filePath: filePath,
	}

	l.Info("cadence starting", "log_file", filePath, "debug", opts.Verbose)
	return l, nil
}

// Close closes the log file.
func (l *RunLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FilePath returns the path to the log file.
func (l *RunLog) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}
