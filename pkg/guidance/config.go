package guidance

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-disktray/pkg/geometry"
)

// Thresholds are the guard constants of the procedure
type Thresholds struct {
	// TrayFrames moves nothing -> lever
	TrayFrames int `yaml:"tray_frames" validate:"gt=0"`
	// LeverFrames moves lever -> dangling
	LeverFrames int `yaml:"lever_frames" validate:"gt=0"`
	// FlatTrayFrames moves guide -> cap once the tray also lies flat
	FlatTrayFrames int `yaml:"flat_tray_frames" validate:"gt=0"`
	// PinFrames re-prompts for the pin while in the pin state
	PinFrames int `yaml:"pin_frames" validate:"gt=0"`
	// SlotPinFrames moves pin -> clamped
	SlotPinFrames int `yaml:"slot_pin_frames" validate:"gt=0"`
	// ClampedConfidence must be strictly exceeded to finish
	ClampedConfidence float64 `yaml:"clamped_confidence" validate:"gte=0,lte=1"`
}

// DefaultThresholds returns the tuned values for the disk tray model
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrayFrames:        3,
		LeverFrames:       3,
		FlatTrayFrames:    10,
		PinFrames:         2,
		SlotPinFrames:     2,
		ClampedConfidence: 0.9,
	}
}

// Config holds machine configuration
type Config struct {
	Thresholds Thresholds

	// LeverAlignment is where the lever must sit against the tray
	LeverAlignment geometry.Alignment

	// LeverSplit is the fraction of tray width the lever center must stay left of
	LeverSplit float64

	// RestartAfter is how long the finished state lasts before the
	// procedure starts over
	RestartAfter time.Duration

	// Steps overrides the default content per cue; missing cues keep the default
	Steps map[Cue]Step

	Media Media

	Clock  Clock
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Thresholds:     DefaultThresholds(),
		LeverAlignment: geometry.DefaultLeverAlignment,
		LeverSplit:     0.6,
		RestartAfter:   20 * time.Second,
		Media: Media{
			ImagePrefix:   "feedback/images",
			ImageGuidance: true,
		},
	}
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, which carries a monotonic reading
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }
