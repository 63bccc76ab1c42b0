// Package config loads the tuning file that controls rep detection.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/exercise"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Pipeline defaults.
const (
	defaultIdleFPS         = 5
	defaultActiveFPS       = 15
	defaultMotionThreshold = 0.02
	defaultMotionCooldown  = "2s"
)

// TuningConfig is the JSON tuning file. Omitted fields fall back to defaults
// through the Get* methods, so partial files are safe.
type TuningConfig struct {
	// Rep state machine
	ConfirmFrames *int    `json:"confirm_frames,omitempty"`
	ReleaseGrace  *string `json:"release_grace,omitempty"` // duration string like "400ms"
	CountDelay    *string `json:"count_delay,omitempty"`   // duration string like "800ms"

	// Classifiers
	ConfidenceThreshold *float64             `json:"confidence_threshold,omitempty"`
	StrictConfidence    *bool                `json:"strict_confidence,omitempty"`
	AutoCandidates      []string             `json:"auto_candidates,omitempty"`
	Thresholds          *exercise.Thresholds `json:"thresholds,omitempty"`

	// Capture pipeline
	IdleFPS         *int     `json:"idle_fps,omitempty"`
	ActiveFPS       *int     `json:"active_fps,omitempty"`
	MotionThreshold *float64 `json:"motion_threshold,omitempty"`
	MotionCooldown  *string  `json:"motion_cooldown,omitempty"` // duration string like "2s"
}

// EmptyTuningConfig returns a config with every field unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a config with every field set to its default.
func DefaultTuningConfig() *TuningConfig {
	d := counter.DefaultConfig()
	th := exercise.DefaultThresholds()
	confirm := d.ConfirmFrames
	grace := d.ReleaseGrace.String()
	delay := d.CountDelay.String()
	conf := th.MinConfidence
	strict := th.StrictConfidence
	idle, active := defaultIdleFPS, defaultActiveFPS
	motion := defaultMotionThreshold
	cooldown := defaultMotionCooldown

	candidates := make([]string, len(d.AutoCandidates))
	for i, k := range d.AutoCandidates {
		candidates[i] = k.Slug()
	}

	return &TuningConfig{
		ConfirmFrames:       &confirm,
		ReleaseGrace:        &grace,
		CountDelay:          &delay,
		ConfidenceThreshold: &conf,
		StrictConfidence:    &strict,
		AutoCandidates:      candidates,
		Thresholds:          &th,
		IdleFPS:             &idle,
		ActiveFPS:           &active,
		MotionThreshold:     &motion,
		MotionCooldown:      &cooldown,
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseTuningConfig(data)
}

// ParseTuningConfig parses and validates tuning JSON. Threshold fields left
// out of a "thresholds" object keep their defaults.
func ParseTuningConfig(data []byte) (*TuningConfig, error) {
	cfg := EmptyTuningConfig()
	th := exercise.DefaultThresholds()
	cfg.Thresholds = &th
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory or
// a parent. Panics if the file cannot be loaded, intended for test setup that
// runs against the shipped defaults.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	var errs []error

	if c.ConfirmFrames != nil && *c.ConfirmFrames < 1 {
		errs = append(errs, fmt.Errorf("confirm_frames must be at least 1, got %d", *c.ConfirmFrames))
	}
	for name, v := range map[string]*string{
		"release_grace":   c.ReleaseGrace,
		"count_delay":     c.CountDelay,
		"motion_cooldown": c.MotionCooldown,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s '%s': %w", name, *v, err))
			continue
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must be non-negative, got %s", name, d))
		}
	}
	if c.ConfidenceThreshold != nil && (*c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold >= 1) {
		errs = append(errs, fmt.Errorf("confidence_threshold must be within [0, 1), got %f", *c.ConfidenceThreshold))
	}
	for _, name := range c.AutoCandidates {
		k, err := exercise.ParseKind(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("auto_candidates: %w", err))
			continue
		}
		if !exercise.Supported(k) || k.Isometric() {
			errs = append(errs, fmt.Errorf("auto_candidates: %s cannot be counted in auto mode", k))
		}
	}
	if c.Thresholds != nil {
		if err := c.Thresholds.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("thresholds: %w", err))
		}
	}
	if c.IdleFPS != nil && *c.IdleFPS < 1 {
		errs = append(errs, fmt.Errorf("idle_fps must be at least 1, got %d", *c.IdleFPS))
	}
	if c.ActiveFPS != nil && *c.ActiveFPS < 1 {
		errs = append(errs, fmt.Errorf("active_fps must be at least 1, got %d", *c.ActiveFPS))
	}
	if c.MotionThreshold != nil && (*c.MotionThreshold < 0 || *c.MotionThreshold > 1) {
		errs = append(errs, fmt.Errorf("motion_threshold must be between 0 and 1, got %f", *c.MotionThreshold))
	}
	return errors.Join(errs...)
}

// GetConfirmFrames returns the confirm_frames value or the default.
func (c *TuningConfig) GetConfirmFrames() int {
	if c.ConfirmFrames == nil {
		return counter.DefaultConfirmFrames
	}
	return *c.ConfirmFrames
}

// GetReleaseGrace returns the release_grace value or the default.
func (c *TuningConfig) GetReleaseGrace() time.Duration {
	return parseDuration(c.ReleaseGrace, counter.DefaultReleaseGrace)
}

// GetCountDelay returns the count_delay value or the default.
func (c *TuningConfig) GetCountDelay() time.Duration {
	return parseDuration(c.CountDelay, counter.DefaultCountDelay)
}

// GetThresholds returns the classifier thresholds with the top-level
// confidence settings applied.
func (c *TuningConfig) GetThresholds() exercise.Thresholds {
	th := exercise.DefaultThresholds()
	if c.Thresholds != nil {
		th = *c.Thresholds
	}
	if c.ConfidenceThreshold != nil {
		th.MinConfidence = *c.ConfidenceThreshold
	}
	if c.StrictConfidence != nil {
		th.StrictConfidence = *c.StrictConfidence
	}
	return th
}

// GetAutoCandidates returns the auto mode exercises or the default pair.
func (c *TuningConfig) GetAutoCandidates() []exercise.Kind {
	var out []exercise.Kind
	for _, name := range c.AutoCandidates {
		if k, err := exercise.ParseKind(name); err == nil && exercise.Supported(k) {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return counter.DefaultConfig().AutoCandidates
	}
	return out
}

// GetIdleFPS returns the idle_fps value or the default.
func (c *TuningConfig) GetIdleFPS() int {
	if c.IdleFPS == nil {
		return defaultIdleFPS
	}
	return *c.IdleFPS
}

// GetActiveFPS returns the active_fps value or the default.
func (c *TuningConfig) GetActiveFPS() int {
	if c.ActiveFPS == nil {
		return defaultActiveFPS
	}
	return *c.ActiveFPS
}

// GetMotionThreshold returns the motion_threshold value or the default.
func (c *TuningConfig) GetMotionThreshold() float64 {
	if c.MotionThreshold == nil {
		return defaultMotionThreshold
	}
	return *c.MotionThreshold
}

// GetMotionCooldown returns how long the pipeline stays at the active frame
// rate after motion stops.
func (c *TuningConfig) GetMotionCooldown() time.Duration {
	def, _ := time.ParseDuration(defaultMotionCooldown)
	return parseDuration(c.MotionCooldown, def)
}

// CounterConfig builds the engine configuration.
func (c *TuningConfig) CounterConfig() counter.Config {
	return counter.Config{
		ConfirmFrames:  c.GetConfirmFrames(),
		ReleaseGrace:   c.GetReleaseGrace(),
		CountDelay:     c.GetCountDelay(),
		Thresholds:     c.GetThresholds(),
		AutoCandidates: c.GetAutoCandidates(),
	}
}

func parseDuration(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}
