package detection

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed labels.txt
var defaultLabels string

// LabelSet is the fixed, ordered vocabulary of recognizable object classes.
// It is immutable once built.
type LabelSet struct {
	names []string
	index map[string]int
}

// NewLabelSet builds a label set from names in canonical order.
// Names must be non-empty and unique.
func NewLabelSet(names []string) (LabelSet, error) {
	if len(names) == 0 {
		return LabelSet{}, ErrNoLabels
	}
	ls := LabelSet{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return LabelSet{}, fmt.Errorf("%w: empty name at line %d", ErrInvalidLabel, i+1)
		}
		if _, dup := ls.index[name]; dup {
			return LabelSet{}, fmt.Errorf("%w: duplicate name %q", ErrInvalidLabel, name)
		}
		ls.names[i] = name
		ls.index[name] = i
	}
	return ls, nil
}

// ParseLabels reads one label per line. Blank lines are skipped.
func ParseLabels(r io.Reader) (LabelSet, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return LabelSet{}, fmt.Errorf("read labels: %w", err)
	}
	return NewLabelSet(names)
}

// LoadLabels reads a labels file from disk
func LoadLabels(path string) (LabelSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return LabelSet{}, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()
	return ParseLabels(f)
}

// DefaultLabels returns the built-in disk tray vocabulary
func DefaultLabels() LabelSet {
	ls, err := ParseLabels(strings.NewReader(defaultLabels))
	if err != nil {
		panic(fmt.Sprintf("detection: embedded labels are invalid: %v", err))
	}
	return ls
}

// Len returns the number of labels
func (ls LabelSet) Len() int {
	return len(ls.names)
}

// Names returns a copy of the labels in canonical order
func (ls LabelSet) Names() []string {
	out := make([]string, len(ls.names))
	copy(out, ls.names)
	return out
}

// Index returns the canonical index of a label name
func (ls LabelSet) Index(name string) (int, bool) {
	i, ok := ls.index[name]
	return i, ok
}

// MustIndex is Index for names the caller knows are in the set.
// It panics otherwise.
func (ls LabelSet) MustIndex(name string) int {
	i, ok := ls.index[name]
	if !ok {
		panic(fmt.Sprintf("detection: label %q not in label set", name))
	}
	return i
}

// Name returns the label name for a canonical index
func (ls LabelSet) Name(i int) (string, bool) {
	if i < 0 || i >= len(ls.names) {
		return "", false
	}
	return ls.names[i], true
}

// Contains reports whether every name is part of the set
func (ls LabelSet) Contains(names ...string) error {
	for _, name := range names {
		if _, ok := ls.index[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLabel, name)
		}
	}
	return nil
}

// LabelMap translates the detector's raw class indices into canonical
// LabelSet indices. It is a pure lookup built once at startup.
type LabelMap struct {
	canonical LabelSet
	mapping   []int
}

// NewLabelMap builds the lookup from the detector's label order. Every
// detector label must exist in the canonical set.
func NewLabelMap(detector, canonical LabelSet) (LabelMap, error) {
	mapping := make([]int, detector.Len())
	for raw, name := range detector.names {
		idx, ok := canonical.Index(name)
		if !ok {
			return LabelMap{}, fmt.Errorf("%w: detector label %q", ErrUnknownLabel, name)
		}
		mapping[raw] = idx
	}
	return LabelMap{canonical: canonical, mapping: mapping}, nil
}

// IdentityMap returns a map for a detector that already emits canonical order
func IdentityMap(canonical LabelSet) LabelMap {
	m, _ := NewLabelMap(canonical, canonical)
	return m
}

// Canonical returns the label set the map translates into
func (m LabelMap) Canonical() LabelSet {
	return m.canonical
}

// Lookup translates one raw detector index
func (m LabelMap) Lookup(raw int) (int, bool) {
	if raw < 0 || raw >= len(m.mapping) {
		return 0, false
	}
	return m.mapping[raw], true
}

// RawLen returns the size of the detector's index space
func (m LabelMap) RawLen() int {
	return len(m.mapping)
}
