package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/teslashibe/go-disktray/pkg/guidance"
)

func TestManager_Lifecycle(t *testing.T) {
	cfg, _ := testConfig()
	m := NewManager(cfg)

	a, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID() == b.ID() {
		t.Fatalf("duplicate id %s", a.ID())
	}
	if m.Len() != 2 {
		t.Errorf("Len: got %d, want 2", m.Len())
	}

	got, err := m.Get(a.ID())
	if err != nil || got != a {
		t.Errorf("Get: got %v, %v", got, err)
	}

	if err := m.Delete(a.ID()); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, err := m.Get(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
	if err := m.Delete(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}

	list := m.List()
	if len(list) != 1 || list[0].ID != b.ID() {
		t.Errorf("List: got %+v", list)
	}
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	cfg, _ := testConfig()
	m := NewManager(cfg)
	a, _ := m.Create()
	b, _ := m.Create()

	process(t, a)
	for i := 0; i < 3; i++ {
		process(t, a, tray())
	}

	if got := a.Snapshot().State; got != guidance.StateLever {
		t.Errorf("a: got %s, want %s", got, guidance.StateLever)
	}
	if got := b.Snapshot().State; got != guidance.StateStart {
		t.Errorf("b: got %s, want %s", got, guidance.StateStart)
	}
	if got := b.Snapshot().Counters["tray"]; got != 0 {
		t.Errorf("b tray counter: got %d, want 0", got)
	}
}

func TestManager_OnEvent(t *testing.T) {
	cfg, _ := testConfig()
	m := NewManager(cfg)
	early, _ := m.Create()

	var mu sync.Mutex
	var events []Event
	m.OnEvent(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	late, _ := m.Create()

	process(t, early)
	process(t, late)
	process(t, late, tray())

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	for _, e := range events {
		if e.From != guidance.StateStart || e.To != guidance.StateNothing {
			t.Errorf("event %s: got %s -> %s", e.SessionID, e.From, e.To)
		}
	}
	if events[0].SessionID != early.ID() || events[1].SessionID != late.ID() {
		t.Errorf("event order: got %s, %s", events[0].SessionID, events[1].SessionID)
	}
}

func TestManager_ConcurrentFrames(t *testing.T) {
	cfg, _ := testConfig()
	m := NewManager(cfg)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Create()
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			if _, err := s.Process(nil); err != nil {
				t.Errorf("Process: %v", err)
			}
			for j := 0; j < 3; j++ {
				if _, err := s.Process(nil); err != nil {
					t.Errorf("Process: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	for _, snap := range m.List() {
		if snap.State != guidance.StateNothing || snap.Frames != 4 {
			t.Errorf("%s: got state=%s frames=%d", snap.ID, snap.State, snap.Frames)
		}
	}
}
