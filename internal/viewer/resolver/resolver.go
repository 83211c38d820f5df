// Package resolver turns a selected (model, element) pair into displayable
// property data: local metadata lookup for the stable GUID, then a backend
// query, merged into a single record. Every failure ends up inside the
// record; nothing thrown here may reach the UI loop.
package resolver

import (
	"context"

	"bim-viewer/internal/viewer/gateway"
	"bim-viewer/internal/viewer/state"
)

// ErrNoGUID is the message of the error record produced when the local
// metadata has no GUID field. The backend is not called in that case.
const ErrNoGUID = "no GUID available"

// Gateway is the resolver's slice of the backend client.
type Gateway interface {
	ElementByGUID(ctx context.Context, modelID, guid string) (gateway.Element, error)
}

// Metadata is the per-model local metadata store of the scene.
type Metadata interface {
	ItemData(frontendID string, localID int) (map[string]any, bool)
}

type Resolver struct {
	store *state.Store
	gw    Gateway
	meta  Metadata
}

func New(store *state.Store, gw Gateway, meta Metadata) *Resolver {
	return &Resolver{store: store, gw: gw, meta: meta}
}

// Resolve runs one full resolution. It blocks on the backend call, so run
// it from an I/O goroutine. seq is the selection generation this request
// belongs to; the result is committed only while that generation is still
// current, which makes the newest selection win over slow responses.
func (r *Resolver) Resolve(ctx context.Context, seq uint64, frontendID string, localID int) {
	// Selection may reference a since-removed model; resolve to nothing
	// rather than failing.
	entry, ok := r.store.State().Model(frontendID)
	if !ok {
		r.commit(seq, nil)
		return
	}

	local, ok := r.meta.ItemData(frontendID, localID)
	guid, hasGUID := "", false
	if ok {
		guid, hasGUID = local["guid"].(string)
	}
	if !hasGUID || guid == "" {
		r.commit(seq, &state.Resolved{Err: ErrNoGUID, LocalData: local})
		return
	}

	target := &state.Target{FrontendID: frontendID, LocalID: localID}
	r.store.Update(func(s state.AppState) state.AppState {
		if s.ResolveSeq != seq {
			return s
		}
		s.Loading = true
		s.Resolved = nil
		s.Target = target
		return s
	})

	element, err := r.gw.ElementByGUID(ctx, entry.BackendID, guid)
	if err != nil {
		r.commit(seq, &state.Resolved{Err: err.Error(), LocalData: local})
		return
	}

	r.commit(seq, merge(element, local))
}

// merge combines the backend envelope with the scene's local metadata.
// Backend fields win; direct attributes join the local data bag.
func merge(element gateway.Element, local map[string]any) *state.Resolved {
	data := make(map[string]any, len(local)+len(element.Properties))
	for k, v := range local {
		data[k] = v
	}
	for k, v := range element.Properties {
		if v != nil {
			data[k] = v
		}
	}

	res := &state.Resolved{
		GUID:         element.GUID,
		Type:         element.Type,
		PropertySets: element.Psets,
		LocalData:    data,
	}
	if element.Name != nil {
		res.Name = *element.Name
	} else if name, ok := local["name"].(string); ok {
		res.Name = name
	}
	return res
}

// commit installs the outcome unless the selection generation moved on,
// in which case the stale result is dropped on the floor.
func (r *Resolver) commit(seq uint64, resolved *state.Resolved) {
	r.store.Update(func(s state.AppState) state.AppState {
		if s.ResolveSeq != seq {
			return s
		}
		s.Loading = false
		s.Resolved = resolved
		if resolved == nil {
			s.Target = nil
		}
		return s
	})
}
