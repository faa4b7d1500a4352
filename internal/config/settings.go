package config

import (
	"fmt"

	"github.com/teslashibe/go-disktray/pkg/detection"
	"github.com/teslashibe/go-disktray/pkg/guidance"
	"github.com/teslashibe/go-disktray/pkg/session"
)

// Environment keys
const (
	EnvPort               = "DISKTRAY_PORT"
	EnvTaskFile           = "DISKTRAY_TASK_FILE"
	EnvLabelsFile         = "DISKTRAY_LABELS_FILE"
	EnvDetectorLabelsFile = "DISKTRAY_DETECTOR_LABELS_FILE"
	EnvImagePrefix        = "DISKTRAY_IMAGE_PREFIX"
	EnvVideoServerURL     = "DISKTRAY_VIDEO_SERVER_URL"
	EnvImageGuidance      = "DISKTRAY_IMAGE_GUIDANCE"
	EnvMinConfidence      = "DISKTRAY_MIN_CONFIDENCE"
	EnvLogLevel           = "DISKTRAY_LOG_LEVEL"
	EnvLogFile            = "DISKTRAY_LOG_FILE"
)

// Defaults
const (
	DefaultPort        = 8088
	DefaultImagePrefix = "feedback/images"
	DefaultLogLevel    = "info"
)

// Settings is the process-level configuration of the guidance server
type Settings struct {
	Port               int    `validate:"gt=0,lte=65535"`
	TaskFile           string `validate:"omitempty,file"`
	LabelsFile         string `validate:"omitempty,file"`
	DetectorLabelsFile string `validate:"omitempty,file"`
	ImagePrefix        string
	VideoServerURL     string `validate:"omitempty,url"`
	ImageGuidance      bool
	MinConfidence      float64 `validate:"gte=0,lte=1"`
	LogLevel           string  `validate:"oneof=debug info warn warning error"`
	LogFile            string
}

// FromEnv reads settings from the environment
func FromEnv() Settings {
	return Settings{
		Port:               Int(EnvPort, DefaultPort),
		TaskFile:           String(EnvTaskFile, ""),
		LabelsFile:         String(EnvLabelsFile, ""),
		DetectorLabelsFile: String(EnvDetectorLabelsFile, ""),
		ImagePrefix:        String(EnvImagePrefix, DefaultImagePrefix),
		VideoServerURL:     String(EnvVideoServerURL, ""),
		ImageGuidance:      Bool(EnvImageGuidance, true),
		MinConfidence:      Float(EnvMinConfidence, 0),
		LogLevel:           String(EnvLogLevel, DefaultLogLevel),
		LogFile:            String(EnvLogFile, ""),
	}
}

// Validate checks the settings
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Addr returns the listen address
func (s Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Media returns how step content is referenced
func (s Settings) Media() guidance.Media {
	return guidance.Media{
		ImagePrefix:   s.ImagePrefix,
		ImageGuidance: s.ImageGuidance,
		VideoBaseURL:  s.VideoServerURL,
	}
}

// Labels loads the canonical label set and the detector's index mapping.
// Without a detector labels file the detector is assumed to emit
// canonical order.
func (s Settings) Labels() (detection.LabelMap, error) {
	canonical := detection.DefaultLabels()
	if s.LabelsFile != "" {
		ls, err := detection.LoadLabels(s.LabelsFile)
		if err != nil {
			return detection.LabelMap{}, err
		}
		canonical = ls
	}
	if s.DetectorLabelsFile == "" {
		return detection.IdentityMap(canonical), nil
	}
	raw, err := detection.LoadLabels(s.DetectorLabelsFile)
	if err != nil {
		return detection.LabelMap{}, err
	}
	return detection.NewLabelMap(raw, canonical)
}

// Session assembles the per-session configuration from settings and the
// tuning file
func (s Settings) Session() (session.Config, *Task, error) {
	if err := s.Validate(); err != nil {
		return session.Config{}, nil, err
	}
	task, err := LoadTask(s.TaskFile)
	if err != nil {
		return session.Config{}, nil, err
	}
	labels, err := s.Labels()
	if err != nil {
		return session.Config{}, nil, fmt.Errorf("load labels: %w", err)
	}
	return session.Config{
		Labels:        labels,
		MinConfidence: s.MinConfidence,
		Guidance:      task.Guidance(s.Media()),
		Cooldown:      task.DebounceCooldown,
	}, task, nil
}
