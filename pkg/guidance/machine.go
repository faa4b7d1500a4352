// Package guidance drives the disk tray assembly procedure. A Machine
// consumes one detection set per frame and decides whether the user has
// completed the current step, answering with the next instruction and an
// optional sensor directive.
package guidance

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-disktray/pkg/detection"
	"github.com/teslashibe/go-disktray/pkg/geometry"
	"github.com/teslashibe/go-disktray/pkg/hysteresis"
)

// RequiredLabels are the detector classes the procedure refers to
var RequiredLabels = []string{
	"tray", "lever", "leverside", "arc", "pin", "assembled", "slotpin", "clamped",
}

// labelIDs caches canonical indices of the required labels
type labelIDs struct {
	tray, lever, leverside, arc, pin, assembled, slotpin, clamped int
}

// Machine is the per-session procedure state. It is not safe for
// concurrent use; callers serialize Advance.
type Machine struct {
	cfg    Config
	labels detection.LabelSet
	ids    labelIDs
	steps  map[Cue]Instruction
	clock  Clock
	logger *slog.Logger

	state      State
	bank       *hysteresis.Bank
	finishedAt time.Time
}

// NewMachine creates a machine in the start state
func NewMachine(labels detection.LabelSet, cfg Config) (*Machine, error) {
	if err := labels.Contains(RequiredLabels...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingLabel, err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	steps := DefaultSteps()
	for cue, s := range cfg.Steps {
		steps[cue] = s
	}
	rendered := make(map[Cue]Instruction, len(steps))
	for cue, s := range steps {
		rendered[cue] = cfg.Media.Render(s)
	}

	return &Machine{
		cfg:    cfg,
		labels: labels,
		ids: labelIDs{
			tray:      labels.MustIndex("tray"),
			lever:     labels.MustIndex("lever"),
			leverside: labels.MustIndex("leverside"),
			arc:       labels.MustIndex("arc"),
			pin:       labels.MustIndex("pin"),
			assembled: labels.MustIndex("assembled"),
			slotpin:   labels.MustIndex("slotpin"),
			clamped:   labels.MustIndex("clamped"),
		},
		steps:  rendered,
		clock:  cfg.Clock,
		logger: cfg.Logger,
		state:  StateStart,
		bank:   hysteresis.NewBank(labels),
	}, nil
}

func validate(cfg Config) error {
	t := cfg.Thresholds
	if t.TrayFrames <= 0 || t.LeverFrames <= 0 || t.FlatTrayFrames <= 0 ||
		t.PinFrames <= 0 || t.SlotPinFrames <= 0 {
		return fmt.Errorf("%w: frame thresholds must be positive", ErrInvalidConfig)
	}
	if t.ClampedConfidence < 0 || t.ClampedConfidence > 1 {
		return fmt.Errorf("%w: clamped confidence %v outside [0,1]", ErrInvalidConfig, t.ClampedConfidence)
	}
	if cfg.LeverSplit <= 0 || cfg.LeverSplit >= 1 {
		return fmt.Errorf("%w: lever split %v outside (0,1)", ErrInvalidConfig, cfg.LeverSplit)
	}
	a := cfg.LeverAlignment
	if a.X.Low >= a.X.High || a.Y.Low >= a.Y.High {
		return fmt.Errorf("%w: empty alignment band", ErrInvalidConfig)
	}
	if cfg.RestartAfter < 0 {
		return fmt.Errorf("%w: negative restart delay", ErrInvalidConfig)
	}
	return nil
}

// State returns the current step
func (m *Machine) State() State {
	return m.state
}

// Counters returns the hysteresis counters keyed by label
func (m *Machine) Counters() map[string]int {
	return m.bank.Snapshot()
}

// FinishedAt returns when the procedure last finished; zero if it has not
func (m *Machine) FinishedAt() time.Time {
	return m.finishedAt
}

// Labels returns the canonical label set
func (m *Machine) Labels() detection.LabelSet {
	return m.labels
}

// Reset returns the machine to the start state with cleared counters
func (m *Machine) Reset() {
	m.state = StateStart
	m.bank.Reset()
	m.finishedAt = time.Time{}
}

// SetState jumps to s, keeping the counters. Entering finished stamps the
// finish time.
func (m *Machine) SetState(s State) error {
	if !s.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
	if s == StateFinished && m.state != StateFinished {
		m.finishedAt = m.clock.Now()
	}
	m.state = s
	return nil
}

// outcome is the result of evaluating one frame against one state
type outcome struct {
	next    State
	cue     Cue
	control Control
}

// Advance folds one frame into the machine. On error nothing changes.
func (m *Machine) Advance(set detection.Set) (Instruction, Control, error) {
	if err := set.Validate(m.labels); err != nil {
		return Instruction{}, Control{}, fmt.Errorf("%w: %w", ErrMalformedSet, err)
	}

	now := m.clock.Now()
	state := m.state

	if state == StateFinished && now.Sub(m.finishedAt) >= m.cfg.RestartAfter {
		m.logger.Info("procedure restarting", "finished_at", m.finishedAt)
		state = StateStart
	}

	// the kickoff needs no detections
	if state == StateStart {
		m.state = StateNothing
		m.bank.Reset()
		m.finishedAt = time.Time{}
		m.logger.Info("state transition", "from", StateStart, "to", StateNothing)
		return m.steps[CueStart], Control{}, nil
	}

	if set.Empty() {
		m.state = state
		m.bank.Reset()
		return Noop(), Control{}, nil
	}

	bank := m.bank.Clone()
	bank.Update(set)

	m.logger.Debug("frame",
		"state", state,
		"counts", set.Counts(m.labels),
		"counters", bank.Snapshot(),
	)

	out, err := m.evaluate(state, set, bank)
	if err != nil {
		return Instruction{}, Control{}, fmt.Errorf("advance %s: %w", state, err)
	}

	m.bank = bank
	m.state = out.next
	if out.next != state {
		m.logger.Info("state transition", "from", state, "to", out.next)
		if out.next == StateFinished {
			m.finishedAt = now
		}
	}

	if out.cue == "" {
		return Noop(), out.control, nil
	}
	return m.steps[out.cue], out.control, nil
}

// evaluate dispatches to the guard of the given state
func (m *Machine) evaluate(state State, set detection.Set, bank *hysteresis.Bank) (outcome, error) {
	switch state {
	case StateNothing:
		return m.fromNothing(bank), nil
	case StateLever:
		return m.fromLever(bank), nil
	case StateDangling:
		return m.fromDangling(set)
	case StateGuide:
		return m.fromGuide(set, bank)
	case StateCap:
		return m.fromCap(set), nil
	case StateAssembled:
		return m.fromAssembled(set), nil
	case StatePin:
		return m.fromPin(bank), nil
	case StateClamped:
		return m.fromClamped(set), nil
	case StateFinished:
		return outcome{next: StateFinished}, nil
	default:
		return outcome{}, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
}

func stay(s State) outcome {
	return outcome{next: s}
}

func (m *Machine) fromNothing(bank *hysteresis.Bank) outcome {
	if bank.Reached(m.ids.tray, m.cfg.Thresholds.TrayFrames) {
		return outcome{next: StateLever, cue: CueLever}
	}
	return stay(StateNothing)
}

func (m *Machine) fromLever(bank *hysteresis.Bank) outcome {
	if bank.Reached(m.ids.lever, m.cfg.Thresholds.LeverFrames) {
		return outcome{next: StateDangling, cue: CueDangling}
	}
	return stay(StateLever)
}

// fromDangling checks the lever hinge: a single upright tray with a single
// lever (front or side view) whose corner sits on the tray's bottom-left
// and whose center stays on the hinge side.
func (m *Machine) fromDangling(set detection.Set) (outcome, error) {
	if set.Count(m.ids.tray) != 1 {
		return stay(StateDangling), nil
	}
	vertical, err := geometry.IsVertical(set, m.ids.tray)
	if err != nil {
		return outcome{}, err
	}
	if !vertical {
		return stay(StateDangling), nil
	}
	if set.Count(m.ids.lever) != 1 && set.Count(m.ids.leverside) != 1 {
		return stay(StateDangling), nil
	}

	levers := []int{m.ids.lever, m.ids.leverside}
	aligned, err := geometry.EdgeAligned(set, m.ids.tray, levers, m.cfg.LeverAlignment)
	if err != nil {
		return outcome{}, err
	}
	side, err := geometry.CentroidOffset(set, m.ids.tray, levers, m.cfg.LeverSplit)
	if err != nil {
		return outcome{}, err
	}
	m.logger.Debug("lever placement", "aligned", aligned, "side", side)

	if aligned && side == geometry.Left {
		return outcome{next: StateGuide, cue: CueGuide}, nil
	}
	return outcome{next: StateDangling, cue: CueMisplaced}, nil
}

func (m *Machine) fromGuide(set detection.Set, bank *hysteresis.Bank) (outcome, error) {
	if !bank.Reached(m.ids.tray, m.cfg.Thresholds.FlatTrayFrames) {
		return stay(StateGuide), nil
	}
	flat, err := geometry.IsHorizontal(set, m.ids.tray)
	if err != nil {
		return outcome{}, err
	}
	if flat {
		return outcome{next: StateCap, cue: CueCap}, nil
	}
	return stay(StateGuide), nil
}

func (m *Machine) fromCap(set detection.Set) outcome {
	if set.Count(m.ids.arc) == 1 && set.Count(m.ids.pin) == 1 {
		return outcome{next: StateAssembled, cue: CueAssembled, control: FlashlightControl(true)}
	}
	return stay(StateCap)
}

func (m *Machine) fromAssembled(set detection.Set) outcome {
	if set.Count(m.ids.assembled) == 1 {
		return outcome{next: StatePin, cue: CuePin}
	}
	return stay(StateAssembled)
}

// fromPin prefers the seated pin over the loose one so a frame showing
// both still advances.
func (m *Machine) fromPin(bank *hysteresis.Bank) outcome {
	t := m.cfg.Thresholds
	switch {
	case bank.Reached(m.ids.slotpin, t.SlotPinFrames):
		return outcome{next: StateClamped, cue: CueClamped, control: FlashlightControl(false)}
	case bank.Reached(m.ids.pin, t.PinFrames):
		return outcome{next: StatePin, cue: CuePlacePin}
	default:
		return stay(StatePin)
	}
}

func (m *Machine) fromClamped(set detection.Set) outcome {
	best, err := geometry.Best(set, m.ids.clamped)
	if err != nil {
		return stay(StateClamped)
	}
	if best.Confidence > m.cfg.Thresholds.ClampedConfidence {
		return outcome{next: StateFinished, cue: CueFinished}
	}
	return stay(StateClamped)
}
