// Package state holds the viewer's application state as immutable
// snapshots. Handlers compute a new snapshot from the previous one instead
// of mutating shared variables, which keeps ordering and staleness
// reasoning testable without a UI attached.
package state

import "time"

// ModelEntry is the registry record of one loaded model.
type ModelEntry struct {
	FrontendID   string
	BackendID    string
	DisplayName  string
	ProjectName  string
	LoadedAt     time.Time
	ElementCount int
}

// Target identifies the element a property resolution belongs to.
type Target struct {
	FrontendID string
	LocalID    int
}

// Resolved is the outcome of one property resolution. Err != "" marks an
// error record; LocalData is carried either way.
type Resolved struct {
	GUID         string
	Name         string
	Type         string
	PropertySets map[string]map[string]any
	LocalData    map[string]any
	Err          string
}

// AppState is one snapshot of everything the panels render.
//
// Snapshots are immutable by convention: update functions must build new
// slices/maps rather than writing through the ones they received.
type AppState struct {
	// Models is the registry, in load order.
	Models []ModelEntry

	Selection Selection

	// Resolved/Loading describe the properties panel. Target says which
	// element they belong to; ResolveSeq is the generation of the newest
	// resolution request, used to discard stale completions.
	Resolved   *Resolved
	Loading    bool
	Target     *Target
	ResolveSeq uint64

	// Status is the last user-facing status line (load results, errors).
	Status string
}

// Model looks up a registry entry by frontend id.
func (s AppState) Model(frontendID string) (ModelEntry, bool) {
	for _, m := range s.Models {
		if m.FrontendID == frontendID {
			return m, true
		}
	}
	return ModelEntry{}, false
}
