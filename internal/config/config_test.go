package config

import (
	"errors"
	"math"
	"testing"

	"github.com/five82/cadence/internal/frame"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Workers < 1 || cfg.Workers > MaxAutoWorkers {
		t.Errorf("expected 1 <= Workers <= %d, got %d", MaxAutoWorkers, cfg.Workers)
	}
	if cfg.DesiredFPS != DefaultFPS {
		t.Errorf("expected DesiredFPS=%v, got %v", DefaultFPS, cfg.DesiredFPS)
	}
	if cfg.Bounds != (Bounds{First: DefaultFirstFrame, Last: DefaultLastFrame}) {
		t.Errorf("expected default bounds, got %v", cfg.Bounds)
	}
	if cfg.LoopMode != LoopOnce {
		t.Errorf("expected LoopMode=once, got %s", cfg.LoopMode)
	}
	if cfg.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("expected FailureThreshold=%d, got %d", DefaultFailureThreshold, cfg.FailureThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErr      bool
		wantSentinel error
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:         "zero workers is invalid",
			modify:       func(c *Config) { c.Workers = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidWorkers,
		},
		{
			name:         "too many workers is invalid",
			modify:       func(c *Config) { c.Workers = MaxWorkers + 1 },
			wantErr:      true,
			wantSentinel: ErrInvalidWorkers,
		},
		{
			name:         "zero fps is invalid",
			modify:       func(c *Config) { c.DesiredFPS = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidFPS,
		},
		{
			name:         "NaN fps is invalid",
			modify:       func(c *Config) { c.DesiredFPS = math.NaN() },
			wantErr:      true,
			wantSentinel: ErrInvalidFPS,
		},
		{
			name:         "inverted bounds are invalid",
			modify:       func(c *Config) { c.Bounds = Bounds{First: 10, Last: 1} },
			wantErr:      true,
			wantSentinel: ErrInvalidBounds,
		},
		{
			name:    "single frame bounds are valid",
			modify:  func(c *Config) { c.Bounds = Bounds{First: 5, Last: 5} },
			wantErr: false,
		},
		{
			name:         "unknown loop mode is invalid",
			modify:       func(c *Config) { c.LoopMode = "sideways" },
			wantErr:      true,
			wantSentinel: ErrInvalidLoopMode,
		},
		{
			name:         "negative render scale is invalid",
			modify:       func(c *Config) { c.RenderScale = -0.5 },
			wantErr:      true,
			wantSentinel: ErrInvalidRenderScale,
		},
		{
			name:    "zero render scale is valid",
			modify:  func(c *Config) { c.RenderScale = 0 },
			wantErr: false,
		},
		{
			name:         "negative threshold is invalid",
			modify:       func(c *Config) { c.FailureThreshold = -1 },
			wantErr:      true,
			wantSentinel: ErrInvalidThreshold,
		},
		{
			name:    "zero threshold disables the check",
			modify:  func(c *Config) { c.FailureThreshold = 0 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestParseLoopMode(t *testing.T) {
	tests := []struct {
		input        string
		want         LoopMode
		wantErr      bool
		wantSentinel error
	}{
		{"once", LoopOnce, false, nil},
		{"ONCE", LoopOnce, false, nil},
		{"loop", LoopRepeat, false, nil},
		{"repeat", LoopRepeat, false, nil},
		{"Bounce", LoopBounce, false, nil},
		{"pingpong", LoopBounce, false, nil},
		{"invalid", "", true, ErrInvalidLoopMode},
		{"", "", true, ErrInvalidLoopMode},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLoopMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLoopMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("ParseLoopMode(%q) error = %v, want sentinel %v", tt.input, err, tt.wantSentinel)
			}
			if got != tt.want {
				t.Errorf("ParseLoopMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    frame.Direction
		wantErr bool
	}{
		{"forward", frame.Forward, false},
		{"FWD", frame.Forward, false},
		{"backward", frame.Backward, false},
		{"reverse", frame.Backward, false},
		{"stopped", frame.Stopped, true},
		{"", frame.Stopped, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidDirection) {
				t.Errorf("ParseDirection(%q) error = %v, want sentinel %v", tt.input, err, ErrInvalidDirection)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateDirection(t *testing.T) {
	if err := ValidateDirection(frame.Forward); err != nil {
		t.Errorf("ValidateDirection(Forward) = %v", err)
	}
	if err := ValidateDirection(frame.Backward); err != nil {
		t.Errorf("ValidateDirection(Backward) = %v", err)
	}
	if err := ValidateDirection(frame.Stopped); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("ValidateDirection(Stopped) = %v, want %v", err, ErrInvalidDirection)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{First: 1, Last: 10}

	if b.Span() != 10 {
		t.Errorf("Span() = %d, want 10", b.Span())
	}
	if (Bounds{First: 5, Last: 4}).Span() != 0 {
		t.Error("inverted bounds should have zero span")
	}

	clampTests := []struct{ in, want int }{
		{-3, 1},
		{1, 1},
		{7, 7},
		{10, 10},
		{42, 10},
	}
	for _, tt := range clampTests {
		if got := b.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if !b.Contains(1) || !b.Contains(10) || b.Contains(0) || b.Contains(11) {
		t.Error("Contains() should be inclusive of both ends")
	}
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("1-240")
	if err != nil || b != (Bounds{First: 1, Last: 240}) {
		t.Errorf("ParseBounds(\"1-240\") = %v, %v", b, err)
	}

	if _, err := ParseBounds("240-1"); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("ParseBounds(\"240-1\") error = %v, want %v", err, ErrInvalidBounds)
	}
	if _, err := ParseBounds("abc"); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("ParseBounds(\"abc\") error = %v, want %v", err, ErrInvalidBounds)
	}
}

func TestLookahead(t *testing.T) {
	tests := []struct {
		workers int
		bounds  Bounds
		want    int
	}{
		{3, Bounds{First: 1, Last: 5}, 3},
		{8, Bounds{First: 1, Last: 5}, 5},
		{4, Bounds{First: 7, Last: 7}, 1},
	}

	for _, tt := range tests {
		cfg := NewConfig()
		cfg.Workers = tt.workers
		cfg.Bounds = tt.bounds
		if got := cfg.Lookahead(); got != tt.want {
			t.Errorf("Lookahead() with %d workers over %v = %d, want %d", tt.workers, tt.bounds, got, tt.want)
		}
	}
}
