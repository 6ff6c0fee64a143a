package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TextSize is the overlay label size preference.
type TextSize int

const (
	TextSmall TextSize = iota
	TextMedium
	TextLarge
)

var ErrInvalidTextSize = errors.New("invalid text size")

// ParseTextSize accepts "small", "medium" or "large".
func ParseTextSize(s string) (TextSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return TextSmall, nil
	case "medium", "":
		return TextMedium, nil
	case "large":
		return TextLarge, nil
	}
	return TextMedium, fmt.Errorf("%w: %q", ErrInvalidTextSize, s)
}

func (t TextSize) String() string {
	switch t {
	case TextSmall:
		return "small"
	case TextLarge:
		return "large"
	default:
		return "medium"
	}
}

// HazardSet is an immutable set of labels. A new set is built for every change,
// so a reader holding one never sees a partial update.
type HazardSet struct {
	labels map[string]struct{}
}

// NewHazardSet builds a set from labels, ignoring blanks and duplicates.
func NewHazardSet(labels []string) HazardSet {
	set := HazardSet{labels: make(map[string]struct{}, len(labels))}
	for _, label := range labels {
		if label = strings.TrimSpace(label); label != "" {
			set.labels[label] = struct{}{}
		}
	}
	return set
}

// Contains reports whether label is a hazard. The zero set contains nothing.
func (h HazardSet) Contains(label string) bool {
	_, ok := h.labels[label]
	return ok
}

// Len returns the number of labels.
func (h HazardSet) Len() int { return len(h.labels) }

// Labels returns the labels sorted.
func (h HazardSet) Labels() []string {
	labels := make([]string, 0, len(h.labels))
	for label := range h.labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Snapshot is a consistent copy of every field at one instant.
type Snapshot struct {
	ClientID    string
	HasClientID bool
	Hazards     HazardSet
	Mute        bool
	TextSize    TextSize
}

// ClientState is the process-wide state shared by the streaming components.
//
// Writers: the settings surface owns Hazards, Mute and TextSize; the
// connection manager owns ClientID. Everyone else only reads.
type ClientState struct {
	mu          sync.RWMutex
	clientID    string
	hasClientID bool
	hazards     HazardSet
	mute        bool
	textSize    TextSize
}

// NewClientState creates a state with the given initial preferences.
func NewClientState(hazards []string, mute bool, textSize TextSize) *ClientState {
	return &ClientState{
		hazards:  NewHazardSet(hazards),
		mute:     mute,
		textSize: textSize,
	}
}

// Snapshot returns all fields read under one lock.
func (s *ClientState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ClientID:    s.clientID,
		HasClientID: s.hasClientID,
		Hazards:     s.hazards,
		Mute:        s.mute,
		TextSize:    s.textSize,
	}
}

// Preferences is a partial settings update. Nil fields are left unchanged.
type Preferences struct {
	Hazards  *[]string
	Mute     *bool
	TextSize *TextSize
}

// Apply sets every non-nil field of p under one lock, so a concurrent
// Snapshot sees either none or all of the update. It returns the state after
// the update and whether the mute flag flipped.
func (s *ClientState) Apply(p Preferences) (Snapshot, bool) {
	var hazards HazardSet
	if p.Hazards != nil {
		hazards = NewHazardSet(*p.Hazards)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Hazards != nil {
		s.hazards = hazards
	}
	muteChanged := false
	if p.Mute != nil && *p.Mute != s.mute {
		s.mute = *p.Mute
		muteChanged = true
	}
	if p.TextSize != nil {
		s.textSize = *p.TextSize
	}
	return Snapshot{
		ClientID:    s.clientID,
		HasClientID: s.hasClientID,
		Hazards:     s.hazards,
		Mute:        s.mute,
		TextSize:    s.textSize,
	}, muteChanged
}

func (s *ClientState) ClientID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientID, s.hasClientID
}

func (s *ClientState) SetClientID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientID = id
	s.hasClientID = true
}

// ClearClientID forgets the session identifier on full teardown.
func (s *ClientState) ClearClientID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientID = ""
	s.hasClientID = false
}

func (s *ClientState) Hazards() HazardSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hazards
}

func (s *ClientState) SetHazards(labels []string) {
	set := NewHazardSet(labels)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hazards = set
}

func (s *ClientState) Muted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mute
}

func (s *ClientState) SetMute(mute bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mute = mute
}

func (s *ClientState) TextSize() TextSize {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.textSize
}

func (s *ClientState) SetTextSize(size TextSize) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textSize = size
}
