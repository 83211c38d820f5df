// Package registry coordinates the three stores that must agree on which
// models exist: the backend's record, the scene's loaded-model set, and
// the viewer's own metadata table.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"bim-viewer/internal/viewer/gateway"
	"bim-viewer/internal/viewer/state"

	"github.com/google/uuid"
)

// ErrPartialAdd marks an add where the backend upload succeeded but the
// scene conversion failed. The backend-side record is orphaned; the
// gateway has no rollback call, so the caller reports it and moves on.
var ErrPartialAdd = errors.New("model conversion failed after upload")

// Scene is the registry's slice of the render engine boundary.
type Scene interface {
	Load(frontendID, displayName string, data []byte) (int, error)
	Dispose(frontendID string)
	Highlight(sel state.Selection)
}

// Gateway is the registry's slice of the backend client.
type Gateway interface {
	UploadIFC(ctx context.Context, filename string, data []byte) (gateway.UploadResult, error)
	RemoveModel(ctx context.Context, modelID string) error
}

type Registry struct {
	store *state.Store
	scene Scene
	gw    Gateway
	now   func() time.Time
}

func New(store *state.Store, scene Scene, gw Gateway) *Registry {
	return &Registry{store: store, scene: scene, gw: gw, now: time.Now}
}

// Add uploads the file, converts it into the scene, and records the model.
// A backend failure aborts before any local mutation. A conversion failure
// after a successful upload returns ErrPartialAdd and leaves no local state
// either; only the backend-side record survives as an orphan.
func (r *Registry) Add(ctx context.Context, filename string, data []byte) (state.ModelEntry, error) {
	result, err := r.gw.UploadIFC(ctx, filename, data)
	if err != nil {
		return state.ModelEntry{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	frontendID := r.frontendID(filename)
	count, err := r.scene.Load(frontendID, filename, data)
	if err != nil {
		return state.ModelEntry{}, fmt.Errorf("%w (backend record %s is orphaned): %v", ErrPartialAdd, result.ModelID, err)
	}

	entry := state.ModelEntry{
		FrontendID:   frontendID,
		BackendID:    result.ModelID,
		DisplayName:  filename,
		ProjectName:  result.ProjectName,
		LoadedAt:     r.now(),
		ElementCount: result.TotalElements,
	}
	if entry.ElementCount == 0 {
		entry.ElementCount = count
	}

	r.store.Update(func(s state.AppState) state.AppState {
		s.Models = append(append([]state.ModelEntry(nil), s.Models...), entry)
		s.Status = fmt.Sprintf("loaded %s (%d elements)", filename, entry.ElementCount)
		return s
	})
	return entry, nil
}

// Remove deletes a model everywhere. A backend delete failure is logged
// but never blocks local removal; the frontend must always be able to
// drop a model even when the backend is unreachable.
func (r *Registry) Remove(ctx context.Context, frontendID string) error {
	entry, ok := r.store.State().Model(frontendID)
	if !ok {
		return fmt.Errorf("unknown model %s", frontendID)
	}

	if err := r.gw.RemoveModel(ctx, entry.BackendID); err != nil {
		log.Printf("[VIEWER] backend remove %s: %v", entry.BackendID, err)
	}

	r.scene.Dispose(frontendID)

	next := r.store.Update(func(s state.AppState) state.AppState {
		models := make([]state.ModelEntry, 0, len(s.Models))
		for _, m := range s.Models {
			if m.FrontendID != frontendID {
				models = append(models, m)
			}
		}
		s.Models = models
		s.Selection = s.Selection.Without(frontendID)

		// Drop the displayed/in-flight resolution if it referenced the
		// removed model; bumping the generation discards late completions.
		if s.Target != nil && s.Target.FrontendID == frontendID {
			s.Resolved = nil
			s.Loading = false
			s.Target = nil
			s.ResolveSeq++
		}
		s.Status = fmt.Sprintf("removed %s", entry.DisplayName)
		return s
	})

	r.scene.Highlight(next.Selection)
	return nil
}

// frontendID derives a fresh per-load id; the same file can be loaded
// more than once, so the filename alone is not enough.
func (r *Registry) frontendID(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}
