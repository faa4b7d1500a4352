// Package session binds a guidance machine and a debouncer into one
// user's assembly attempt, and keeps a registry of concurrent attempts.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-disktray/pkg/debounce"
	"github.com/teslashibe/go-disktray/pkg/detection"
	"github.com/teslashibe/go-disktray/pkg/guidance"
)

// Config is shared by every session a Manager creates
type Config struct {
	Labels        detection.LabelMap
	MinConfidence float64
	Guidance      guidance.Config
	Cooldown      time.Duration
	Clock         guidance.Clock
	Logger        *slog.Logger
}

// Result is the outcome of one frame
type Result struct {
	Instruction guidance.Instruction
	Control     guidance.Control
	State       guidance.State
	Previous    guidance.State
}

// Transitioned reports whether the frame moved the machine
func (r Result) Transitioned() bool {
	return r.State != r.Previous
}

// Event is emitted when a session changes state
type Event struct {
	SessionID   string
	From        guidance.State
	To          guidance.State
	Instruction guidance.Instruction
	At          time.Time
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID              string               `json:"id"`
	State           guidance.State       `json:"state"`
	Counters        map[string]int       `json:"counters"`
	LastInstruction guidance.Instruction `json:"last_instruction"`
	Frames          uint64               `json:"frames"`
	Errors          uint64               `json:"errors"`
	CreatedAt       time.Time            `json:"created_at"`
	FinishedAt      time.Time            `json:"finished_at"`
}

// Session is one assembly attempt. Frames are processed one at a time.
type Session struct {
	id      string
	labels  detection.LabelMap
	minConf float64
	clock   guidance.Clock
	logger  *slog.Logger
	onEvent func(Event)

	mu        sync.Mutex
	machine   *guidance.Machine
	debouncer *debounce.Debouncer
	last      guidance.Instruction
	frames    uint64
	failed    uint64
	createdAt time.Time
}

// New creates a session in the start state
func New(id string, cfg Config) (*Session, error) {
	if cfg.Clock == nil {
		cfg.Clock = guidance.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("session", id)

	gcfg := cfg.Guidance
	gcfg.Clock = cfg.Clock
	gcfg.Logger = logger
	machine, err := guidance.NewMachine(cfg.Labels.Canonical(), gcfg)
	if err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}

	return &Session{
		id:      id,
		labels:  cfg.Labels,
		minConf: cfg.MinConfidence,
		clock:   cfg.Clock,
		logger:  logger,
		machine: machine,
		debouncer: debounce.New(debounce.Config{
			Cooldown: cfg.Cooldown,
			Clock:    cfg.Clock,
			Logger:   logger,
		}),
		createdAt: cfg.Clock.Now(),
	}, nil
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Process runs one frame of raw detector records through normalization,
// the machine and the debouncer. A failed frame changes nothing.
func (s *Session) Process(records []detection.Record) (Result, error) {
	start := time.Now()

	s.mu.Lock()
	set, err := detection.Normalize(records, s.labels, s.minConf)
	if err != nil {
		s.failed++
		s.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	from := s.machine.State()
	inst, ctl, err := s.machine.Advance(set)
	if err != nil {
		s.failed++
		s.mu.Unlock()
		return Result{}, err
	}
	inst = s.debouncer.Filter(inst)
	s.frames++
	if !inst.IsEmpty() {
		s.last = inst
	}
	res := Result{
		Instruction: inst,
		Control:     ctl,
		State:       s.machine.State(),
		Previous:    from,
	}
	onEvent := s.onEvent
	s.mu.Unlock()

	s.logger.Debug("frame processed",
		"detections", len(set),
		"state", res.State,
		"elapsed", time.Since(start),
	)

	if res.Transitioned() && onEvent != nil {
		onEvent(Event{
			SessionID:   s.id,
			From:        from,
			To:          res.State,
			Instruction: inst,
			At:          s.clock.Now(),
		})
	}
	return res, nil
}

// Reset restarts the procedure and forgets debounce memory
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Reset()
	s.debouncer.Reset()
	s.last = guidance.Instruction{}
}

// Snapshot returns the current view of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:              s.id,
		State:           s.machine.State(),
		Counters:        s.machine.Counters(),
		LastInstruction: s.last,
		Frames:          s.frames,
		Errors:          s.failed,
		CreatedAt:       s.createdAt,
		FinishedAt:      s.machine.FinishedAt(),
	}
}

func (s *Session) setOnEvent(fn func(Event)) {
	s.mu.Lock()
	s.onEvent = fn
	s.mu.Unlock()
}
