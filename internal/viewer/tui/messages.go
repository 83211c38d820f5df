package tui

import "bim-viewer/internal/viewer/state"

// modelLoadedMsg reports the outcome of an upload+convert+register flow.
type modelLoadedMsg struct {
	entry    state.ModelEntry
	filename string
	err      error
}

// modelRemovedMsg reports the outcome of a model removal.
type modelRemovedMsg struct {
	frontendID string
	err        error
}

// resolveDoneMsg signals that a property resolution finished (the result,
// stale or not, is already committed to the store).
type resolveDoneMsg struct{}
