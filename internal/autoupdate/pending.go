package autoupdate

import (
	"fmt"
	"strings"

	"github.com/obentoo/imagebump/internal/common/logger"
)

// Classification tells how a pending update relates to the manifest text.
type Classification int

const (
	// Explicit updates are pinned literally in the manifest and get patched
	Explicit Classification = iota
	// Implicit updates are inherited or unpinned; they are reported but not written
	Implicit
	// Hidden updates are synthetic rebuild triggers; patched but left out of the changelog
	Hidden
)

// String returns the lower-case name of the classification
func (c Classification) String() string {
	switch c {
	case Explicit:
		return "explicit"
	case Implicit:
		return "implicit"
	case Hidden:
		return "hidden"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Record is the raw outcome of one check before classification.
type Record struct {
	// Item is the manifest key of the tracked dependency
	Item string
	// Separator joins Item and its value in the manifest
	Separator string
	// CurrentValue and NewValue are the literal manifest values
	CurrentValue string
	NewValue     string
	// CurrentVersion and NewVersion are the labels shown to humans
	CurrentVersion string
	NewVersion     string
	// Name is the display name used in the changelog
	Name string
}

// PendingUpdate is a classified drift awaiting application.
type PendingUpdate struct {
	Item           string
	Separator      string
	CurrentValue   string
	NewValue       string
	CurrentVersion string
	NewVersion     string
	Name           string
	Classification Classification
}

// Pinner reports whether item<separator>value appears literally in the manifest
type Pinner interface {
	Pinned(item, separator, value string) bool
}

// Ledger accumulates the pending updates of a single run in check order.
type Ledger struct {
	pinner    Pinner
	updates   []PendingUpdate
	fragments []string
}

// NewLedger creates an empty ledger classifying against pinner
func NewLedger(pinner Pinner) *Ledger {
	return &Ledger{pinner: pinner}
}

// Classify records r when it describes a real drift. It returns true when
// an update was appended. An empty item is skipped with a warning; a record
// with any other empty field fails with ErrScrapeFailed.
func (l *Ledger) Classify(r Record) (bool, error) {
	if r.Item == "" {
		logger.Warn("skipping check with empty item (%s)", r.Name)
		return false, nil
	}
	if err := r.validate(); err != nil {
		return false, err
	}
	if r.CurrentValue == r.NewValue {
		return false, nil
	}

	classification := Implicit
	if l.pinner != nil && l.pinner.Pinned(r.Item, r.Separator, r.CurrentValue) {
		classification = Explicit
	}

	l.updates = append(l.updates, r.pending(classification))
	l.fragments = append(l.fragments, fmt.Sprintf("%s %s -> %s, ", r.displayName(), r.CurrentVersion, r.NewVersion))
	return true, nil
}

// AddHidden records r as a Hidden update regardless of the manifest content
// and without a changelog fragment. No-op drift is still skipped.
func (l *Ledger) AddHidden(r Record) (bool, error) {
	if r.Item == "" {
		logger.Warn("skipping hidden trigger with empty item")
		return false, nil
	}
	if err := r.validate(); err != nil {
		return false, err
	}
	if r.CurrentValue == r.NewValue {
		return false, nil
	}

	l.updates = append(l.updates, r.pending(Hidden))
	return true, nil
}

// Len returns the number of pending updates
func (l *Ledger) Len() int {
	return len(l.updates)
}

// Updates returns a copy of the pending updates in insertion order
func (l *Ledger) Updates() []PendingUpdate {
	updates := make([]PendingUpdate, len(l.updates))
	copy(updates, l.updates)
	return updates
}

// Find returns the first pending update for item
func (l *Ledger) Find(item string) (PendingUpdate, bool) {
	for _, u := range l.updates {
		if u.Item == item {
			return u, true
		}
	}
	return PendingUpdate{}, false
}

// Changelog joins the fragments of every non-hidden update, trailing
// separator trimmed
func (l *Ledger) Changelog() string {
	return strings.TrimSuffix(strings.Join(l.fragments, ""), ", ")
}

func (r Record) validate() error {
	fields := []struct {
		name, value string
	}{
		{"current value", r.CurrentValue},
		{"new value", r.NewValue},
		{"current version", r.CurrentVersion},
		{"new version", r.NewVersion},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: empty %s for %s", ErrScrapeFailed, f.name, r.Item)
		}
	}
	return nil
}

func (r Record) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Item
}

func (r Record) pending(c Classification) PendingUpdate {
	return PendingUpdate{
		Item:           r.Item,
		Separator:      r.Separator,
		CurrentValue:   r.CurrentValue,
		NewValue:       r.NewValue,
		CurrentVersion: r.CurrentVersion,
		NewVersion:     r.NewVersion,
		Name:           r.displayName(),
		Classification: c,
	}
}
