package debounce

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/teslashibe/go-disktray/pkg/guidance"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestDebouncer() (*Debouncer, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	d := New(Config{
		Clock:  clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return d, clock
}

var (
	lever = guidance.Instruction{
		Status: guidance.StatusSuccess,
		Speech: "Good job. Now show me the lever",
		Image:  "feedback/images/lever.jpg",
	}
	misplaced = guidance.Instruction{
		Status: guidance.StatusSuccess,
		Speech: "The lever is misplaced. Please make sure it is secure.",
		Image:  "feedback/images/dangling.jpg",
	}
)

func TestDebouncer_Filter(t *testing.T) {
	type submit struct {
		after  time.Duration
		inst   guidance.Instruction
		expect guidance.Instruction
	}

	tests := []struct {
		name  string
		steps []submit
	}{
		{
			name: "first instruction passes",
			steps: []submit{
				{0, lever, lever},
			},
		},
		{
			name: "repeat within cooldown suppressed, after cooldown restored",
			steps: []submit{
				{0, lever, lever},
				{5 * time.Second, lever, guidance.Noop()},
				{20 * time.Second, lever, lever},
			},
		},
		{
			name: "suppression does not refresh the timestamp",
			steps: []submit{
				{0, lever, lever},
				{15 * time.Second, lever, guidance.Noop()},
				{5 * time.Second, lever, lever},
			},
		},
		{
			name: "different instruction passes within cooldown",
			steps: []submit{
				{0, misplaced, misplaced},
				{time.Second, lever, lever},
				{time.Second, misplaced, misplaced},
			},
		},
		{
			name: "empty instruction does not reset memory",
			steps: []submit{
				{0, misplaced, misplaced},
				{time.Second, guidance.Noop(), guidance.Noop()},
				{time.Second, misplaced, guidance.Noop()},
			},
		},
		{
			name: "just under the cooldown",
			steps: []submit{
				{0, misplaced, misplaced},
				{20*time.Second - time.Millisecond, misplaced, guidance.Noop()},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, clock := newTestDebouncer()
			for i, s := range tc.steps {
				clock.now = clock.now.Add(s.after)
				got := d.Filter(s.inst)
				if got != s.expect {
					t.Errorf("step %d: got %+v, want %+v", i, got, s.expect)
				}
			}
		})
	}
}

func TestDebouncer_EmptyPassesUntouched(t *testing.T) {
	d, _ := newTestDebouncer()
	errInst := guidance.Instruction{Status: guidance.StatusError}

	if got := d.Filter(errInst); got != errInst {
		t.Errorf("Filter: got %+v, want %+v", got, errInst)
	}
	if _, _, ok := d.Last(); ok {
		t.Error("empty instruction was remembered")
	}
}

func TestDebouncer_Reset(t *testing.T) {
	d, _ := newTestDebouncer()
	d.Filter(lever)
	d.Reset()

	if got := d.Filter(lever); got != lever {
		t.Errorf("after reset: got %+v, want %+v", got, lever)
	}
}

func TestNew_Defaults(t *testing.T) {
	d := New(Config{})
	if d.cooldown != DefaultCooldown {
		t.Errorf("cooldown: got %v, want %v", d.cooldown, DefaultCooldown)
	}
	if d.clock == nil || d.logger == nil {
		t.Error("clock and logger must default")
	}
}
