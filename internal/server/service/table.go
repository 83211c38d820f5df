package service

import (
	"sort"
	"sync"

	"bim-viewer/internal/ifc"
)

// ============================================================
// Loaded Model Table
// ============================================================

// LoadedModel is a parsed IFC file held in memory for queries.
type LoadedModel struct {
	ID       string
	Filename string
	Model    *ifc.Model
}

// ModelTable is the in-memory table of loaded models, keyed by model id.
type ModelTable struct {
	mu     sync.Mutex
	models map[string]*LoadedModel
}

func NewModelTable() *ModelTable {
	return &ModelTable{
		models: make(map[string]*LoadedModel),
	}
}

func (t *ModelTable) Put(m *LoadedModel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.models[m.ID] = m
}

func (t *ModelTable) Get(id string) (*LoadedModel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.models[id]
	return m, ok
}

func (t *ModelTable) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.models[id]; !ok {
		return false
	}
	delete(t.models, id)
	return true
}

// List returns the loaded models sorted by id for stable responses.
func (t *ModelTable) List() []*LoadedModel {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*LoadedModel, 0, len(t.models))
	for _, m := range t.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
