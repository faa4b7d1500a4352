// Package debounce suppresses repeated guidance so the user is not told
// the same thing every frame.
package debounce

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-disktray/pkg/guidance"
)

// DefaultCooldown is how long an identical instruction stays suppressed
const DefaultCooldown = 20 * time.Second

// Config holds debouncer configuration
type Config struct {
	Cooldown time.Duration
	Clock    guidance.Clock
	Logger   *slog.Logger
}

// Debouncer remembers the last non-empty instruction. Not safe for
// concurrent use.
type Debouncer struct {
	cooldown time.Duration
	clock    guidance.Clock
	logger   *slog.Logger

	last    guidance.Instruction
	lastAt  time.Time
	hasLast bool
}

// New creates a debouncer with an empty memory
func New(cfg Config) *Debouncer {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Clock == nil {
		cfg.Clock = guidance.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Debouncer{
		cooldown: cfg.Cooldown,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
}

// Filter passes inst through, or strips its payload when it repeats the
// last instruction within the cooldown. Empty instructions never touch
// the memory.
func (d *Debouncer) Filter(inst guidance.Instruction) guidance.Instruction {
	if inst.IsEmpty() {
		return inst
	}

	now := d.clock.Now()
	if d.hasLast && now.Sub(d.lastAt) < d.cooldown && inst == d.last {
		d.logger.Info("duplicate instruction suppressed",
			"speech", inst.Speech,
			"since", now.Sub(d.lastAt),
		)
		return inst.Stripped()
	}

	d.last = inst
	d.lastAt = now
	d.hasLast = true
	return inst
}

// Last returns the remembered instruction and when it was emitted
func (d *Debouncer) Last() (guidance.Instruction, time.Time, bool) {
	return d.last, d.lastAt, d.hasLast
}

// Reset forgets the remembered instruction
func (d *Debouncer) Reset() {
	d.last = guidance.Instruction{}
	d.lastAt = time.Time{}
	d.hasLast = false
}
