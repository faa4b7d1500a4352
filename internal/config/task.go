package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-disktray/pkg/geometry"
	"github.com/teslashibe/go-disktray/pkg/guidance"
)

//go:embed task.yaml
var defaultTask []byte

// Task is the tuning file for the assembly procedure
type Task struct {
	Thresholds       guidance.Thresholds      `yaml:"thresholds"`
	LeverAlignment   AlignmentBands           `yaml:"lever_alignment"`
	LeverSplit       float64                  `yaml:"lever_split" validate:"gt=0,lt=1"`
	RestartAfter     time.Duration            `yaml:"restart_after" validate:"gte=0"`
	DebounceCooldown time.Duration            `yaml:"debounce_cooldown" validate:"gt=0"`
	Steps            map[string]guidance.Step `yaml:"steps"`
}

// AlignmentBands is the YAML form of a lever alignment
type AlignmentBands struct {
	X Band `yaml:"x"`
	Y Band `yaml:"y"`
}

// Band is an open tolerance band as fractions of the tray size
type Band struct {
	Low  float64 `yaml:"low" validate:"gte=-1,lte=1"`
	High float64 `yaml:"high" validate:"gte=-1,lte=1,gtfield=Low"`
}

var validate = validator.New()

// DefaultTask returns the embedded tuning
func DefaultTask() (*Task, error) {
	return ParseTask(defaultTask)
}

// LoadTask reads a tuning file. An empty path loads the embedded default.
func LoadTask(path string) (*Task, error) {
	if path == "" {
		return DefaultTask()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return ParseTask(data)
}

// ParseTask decodes a tuning document over the embedded defaults, so a
// file only has to name what it changes
func ParseTask(data []byte) (*Task, error) {
	var t Task
	if err := yaml.Unmarshal(defaultTask, &t); err != nil {
		return nil, fmt.Errorf("parse default task: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse task: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks ranges and step names
func (t *Task) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	known := make(map[string]bool)
	for _, c := range guidance.AllCues() {
		known[string(c)] = true
	}
	for name := range t.Steps {
		if !known[name] {
			return fmt.Errorf("invalid task: unknown step %q", name)
		}
	}
	return nil
}

// Guidance converts the tuning into machine configuration
func (t *Task) Guidance(media guidance.Media) guidance.Config {
	cfg := guidance.DefaultConfig()
	cfg.Thresholds = t.Thresholds
	cfg.LeverAlignment = geometry.Alignment{
		Corner: geometry.BottomLeft,
		X:      geometry.Band{Low: t.LeverAlignment.X.Low, High: t.LeverAlignment.X.High},
		Y:      geometry.Band{Low: t.LeverAlignment.Y.Low, High: t.LeverAlignment.Y.High},
	}
	cfg.LeverSplit = t.LeverSplit
	cfg.RestartAfter = t.RestartAfter
	cfg.Media = media
	if len(t.Steps) > 0 {
		cfg.Steps = make(map[guidance.Cue]guidance.Step, len(t.Steps))
		for name, s := range t.Steps {
			cfg.Steps[guidance.Cue(name)] = s
		}
	}
	return cfg
}
