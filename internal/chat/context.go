package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/recognition"
)

// PresentPerson is one person currently recognized on camera.
type PresentPerson struct {
	Name       string
	Confidence float64
}

// RosterContext is the snapshot of registry and camera state a question is
// answered against.
type RosterContext struct {
	KnownCount int
	KnownNames []string // newest first
	Present    []PresentPerson
}

// Newest returns the most recently registered name, or empty.
func (r RosterContext) Newest() string {
	if len(r.KnownNames) == 0 {
		return ""
	}
	return r.KnownNames[0]
}

// Serialize renders the roster as plain text for the LLM system prompt.
func (r RosterContext) Serialize() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Registered people: %d\n", r.KnownCount)
	if len(r.KnownNames) > 0 {
		fmt.Fprintf(&b, "Names (newest first): %s\n", strings.Join(r.KnownNames, ", "))
	}

	if len(r.Present) == 0 {
		b.WriteString("Currently on camera: nobody\n")
		return b.String()
	}

	b.WriteString("Currently on camera:\n")
	for _, p := range r.Present {
		fmt.Fprintf(&b, "- %s (confidence %.0f%%)\n", p.Name, p.Confidence*100)
	}
	return b.String()
}

// RosterSource builds the current RosterContext.
type RosterSource interface {
	Roster(ctx context.Context) (RosterContext, error)
}

// StoreRoster builds roster contexts from the identity store and the live
// detection list.
type StoreRoster struct {
	reader     database.IdentityReader
	detections func() []recognition.Detection
}

// NewStoreRoster creates a roster source. The detections callback may be nil
// when no recognition loop exists (CLI usage).
func NewStoreRoster(reader database.IdentityReader, detections func() []recognition.Detection) *StoreRoster {
	return &StoreRoster{reader: reader, detections: detections}
}

// Roster lists the registry newest first and attaches the live detections.
func (s *StoreRoster) Roster(ctx context.Context) (RosterContext, error) {
	identities, err := s.reader.List(ctx)
	if err != nil {
		return RosterContext{}, fmt.Errorf("failed to list identities: %w", err)
	}

	roster := RosterContext{KnownCount: len(identities)}
	for _, ident := range identities {
		roster.KnownNames = append(roster.KnownNames, ident.Name)
	}

	if s.detections != nil {
		for _, d := range s.detections() {
			roster.Present = append(roster.Present, PresentPerson{
				Name:       d.Name,
				Confidence: d.Confidence,
			})
		}
	}
	return roster, nil
}
