package detection

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultLabels(t *testing.T) {
	labels := DefaultLabels()
	required := []string{"tray", "lever", "leverside", "arc", "pin", "assembled", "slotpin", "clamped"}
	if err := labels.Contains(required...); err != nil {
		t.Fatalf("default labels: %v", err)
	}
	if i, _ := labels.Index("tray"); i != 0 {
		t.Errorf("tray index: got %d, want 0", i)
	}
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr error
	}{
		{
			name:  "one per line with blanks",
			input: "tray\n\n lever \npin\n",
			want:  []string{"tray", "lever", "pin"},
		},
		{
			name:    "empty file",
			input:   "\n\n",
			wantErr: ErrNoLabels,
		},
		{
			name:    "duplicate",
			input:   "tray\npin\ntray\n",
			wantErr: ErrInvalidLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls, err := ParseLabels(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := ls.Names()
			if len(got) != len(tt.want) {
				t.Fatalf("names: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("names[%d]: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte("pin\ntray\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ls, err := LoadLabels(path)
	if err != nil {
		t.Fatalf("LoadLabels: %v", err)
	}
	if name, _ := ls.Name(1); name != "tray" {
		t.Errorf("Name(1): got %q, want tray", name)
	}

	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLabelSet_NamesIsCopy(t *testing.T) {
	ls := DefaultLabels()
	names := ls.Names()
	names[0] = "mutated"
	if n, _ := ls.Name(0); n != "tray" {
		t.Errorf("label set was mutated through Names: got %q", n)
	}
}

func TestLabelMap(t *testing.T) {
	canonical := DefaultLabels()
	detector, err := NewLabelSet([]string{"pin", "tray", "clamped"})
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewLabelMap(detector, canonical)
	if err != nil {
		t.Fatalf("NewLabelMap: %v", err)
	}

	tests := []struct {
		raw    int
		want   string
		wantOK bool
	}{
		{raw: 0, want: "pin", wantOK: true},
		{raw: 1, want: "tray", wantOK: true},
		{raw: 2, want: "clamped", wantOK: true},
		{raw: 3, wantOK: false},
		{raw: -1, wantOK: false},
	}
	for _, tt := range tests {
		idx, ok := m.Lookup(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("Lookup(%d) ok: got %v, want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if name, _ := canonical.Name(idx); name != tt.want {
			t.Errorf("Lookup(%d): got %q, want %q", tt.raw, name, tt.want)
		}
	}
}

func TestLabelMap_UnknownDetectorLabel(t *testing.T) {
	detector, _ := NewLabelSet([]string{"tray", "screwdriver"})
	_, err := NewLabelMap(detector, DefaultLabels())
	if !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("err: got %v, want ErrUnknownLabel", err)
	}
}
