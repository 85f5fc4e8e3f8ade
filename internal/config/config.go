// Package config provides configuration loading and management for atlas.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/metalagman/atlas/internal/evaluate"
)

// DirName is the per-project working directory.
const DirName = ".atlas"

// Config is the root configuration.
type Config struct {
	Input      InputConfig      `json:"input"      mapstructure:"input"      yaml:"input"`
	Output     OutputConfig     `json:"output"     mapstructure:"output"     yaml:"output"`
	Evaluation EvaluationConfig `json:"evaluation" mapstructure:"evaluation" yaml:"evaluation"`
	Run        RunConfig        `json:"run"        mapstructure:"run"        yaml:"run"`
	Retention  RetentionPolicy  `json:"retention"  mapstructure:"retention"  yaml:"retention"`
	Serve      ServeConfig      `json:"serve"      mapstructure:"serve"      yaml:"serve"`
	Log        LogConfig        `json:"log"        mapstructure:"log"        yaml:"log"`
}

// InputConfig selects the default document.
type InputConfig struct {
	Document string `json:"document" mapstructure:"document" yaml:"document"`
}

// OutputConfig controls snapshot files.
type OutputConfig struct {
	RunsDir string `json:"runs_dir" mapstructure:"runs_dir" yaml:"runs_dir"`
	Save    bool   `json:"save"     mapstructure:"save"     yaml:"save"`
}

// EvaluationConfig selects the plan scoring rule.
type EvaluationConfig struct {
	Rule     string  `json:"rule"      mapstructure:"rule"      yaml:"rule"`
	MinScore float64 `json:"min_score" mapstructure:"min_score" yaml:"min_score"`
}

// RunConfig bounds batch execution.
type RunConfig struct {
	Parallelism int `json:"parallelism" mapstructure:"parallelism" yaml:"parallelism"`
}

// RetentionPolicy defines how many old runs to keep.
type RetentionPolicy struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last" yaml:"keep_last,omitempty"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days" yaml:"keep_days,omitempty"`
}

// ServeConfig configures the long-running dashboard.
type ServeConfig struct {
	Addr            string        `json:"addr"               mapstructure:"addr"             yaml:"addr"`
	Schedule        string        `json:"schedule,omitempty" mapstructure:"schedule"         yaml:"schedule,omitempty"`
	Document        string        `json:"document,omitempty" mapstructure:"document"         yaml:"document,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"   mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Input:      InputConfig{Document: "project_atlas.json"},
		Output:     OutputConfig{RunsDir: filepath.Join(DirName, "runs"), Save: true},
		Evaluation: EvaluationConfig{Rule: evaluate.RuleCompleteness, MinScore: evaluate.MaxScore},
		Run:        RunConfig{Parallelism: 4},
		Retention:  RetentionPolicy{KeepLast: 50, KeepDays: 30},
		Serve:      ServeConfig{Addr: ":8080", ShutdownTimeout: 5 * time.Second},
		Log:        LogConfig{Format: "console"},
	}
}

// Evaluator builds the configured plan evaluator.
func (c Config) Evaluator() (evaluate.Evaluator, error) {
	return evaluate.ByName(c.Evaluation.Rule, c.Evaluation.MinScore)
}

// Validate checks values the schema cannot express.
func (c Config) Validate() error {
	if c.Run.Parallelism <= 0 {
		return fmt.Errorf("run.parallelism must be > 0")
	}
	if c.Serve.ShutdownTimeout < 0 {
		return fmt.Errorf("serve.shutdown_timeout must not be negative")
	}
	if c.Output.RunsDir == "" {
		return fmt.Errorf("output.runs_dir must be set")
	}
	if _, err := c.Evaluator(); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	return nil
}

// Settings returns c as a plain map, suitable for viper defaults and schema validation.
func (c Config) Settings() map[string]any {
	return map[string]any{
		"input": map[string]any{
			"document": c.Input.Document,
		},
		"output": map[string]any{
			"runs_dir": c.Output.RunsDir,
			"save":     c.Output.Save,
		},
		"evaluation": map[string]any{
			"rule":      c.Evaluation.Rule,
			"min_score": c.Evaluation.MinScore,
		},
		"run": map[string]any{
			"parallelism": c.Run.Parallelism,
		},
		"retention": map[string]any{
			"keep_last": c.Retention.KeepLast,
			"keep_days": c.Retention.KeepDays,
		},
		"serve": map[string]any{
			"addr":             c.Serve.Addr,
			"schedule":         c.Serve.Schedule,
			"document":         c.Serve.Document,
			"shutdown_timeout": c.Serve.ShutdownTimeout.String(),
		},
		"log": map[string]any{
			"format": c.Log.Format,
		},
	}
}
