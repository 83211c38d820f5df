package state

// Selection maps loaded models to selected element ids. Model order is the
// order in which models entered the selection; the first (model, id) pair
// in that order is the one whose properties get resolved.
//
// Selection values are immutable: every operation returns a fresh value and
// leaves the receiver untouched, so snapshots can share them safely.
type Selection struct {
	order []string
	ids   map[string][]int
}

// Replace returns a selection holding exactly the given pair.
func (s Selection) Replace(frontendID string, localID int) Selection {
	return Selection{
		order: []string{frontendID},
		ids:   map[string][]int{frontendID: {localID}},
	}
}

// Add returns a selection with the pair added. Adding an already selected
// pair is a no-op; augment mode has no toggle-off.
func (s Selection) Add(frontendID string, localID int) Selection {
	if s.Contains(frontendID, localID) {
		return s
	}
	out := s.clone()
	if _, ok := out.ids[frontendID]; !ok {
		out.order = append(out.order, frontendID)
	}
	out.ids[frontendID] = append(out.ids[frontendID], localID)
	return out
}

// Without returns a selection with every entry of the given model removed.
func (s Selection) Without(frontendID string) Selection {
	if _, ok := s.ids[frontendID]; !ok {
		return s
	}
	out := Selection{ids: make(map[string][]int, len(s.ids))}
	for _, fid := range s.order {
		if fid == frontendID {
			continue
		}
		out.order = append(out.order, fid)
		out.ids[fid] = append([]int(nil), s.ids[fid]...)
	}
	return out
}

func (s Selection) IsEmpty() bool {
	return len(s.order) == 0
}

// Len is the total number of selected elements across models.
func (s Selection) Len() int {
	n := 0
	for _, ids := range s.ids {
		n += len(ids)
	}
	return n
}

// Models returns the selected model ids in selection order.
func (s Selection) Models() []string {
	return append([]string(nil), s.order...)
}

// IDs returns the selected element ids of one model in selection order.
func (s Selection) IDs(frontendID string) []int {
	return append([]int(nil), s.ids[frontendID]...)
}

func (s Selection) Contains(frontendID string, localID int) bool {
	for _, id := range s.ids[frontendID] {
		if id == localID {
			return true
		}
	}
	return false
}

// First returns the representative pair shown in the properties panel.
func (s Selection) First() (frontendID string, localID int, ok bool) {
	if len(s.order) == 0 {
		return "", 0, false
	}
	fid := s.order[0]
	ids := s.ids[fid]
	if len(ids) == 0 {
		return "", 0, false
	}
	return fid, ids[0], true
}

func (s Selection) Equal(other Selection) bool {
	if len(s.order) != len(other.order) {
		return false
	}
	for i, fid := range s.order {
		if other.order[i] != fid {
			return false
		}
		a, b := s.ids[fid], other.ids[fid]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

func (s Selection) clone() Selection {
	out := Selection{
		order: append([]string(nil), s.order...),
		ids:   make(map[string][]int, len(s.ids)),
	}
	for fid, ids := range s.ids {
		out.ids[fid] = append([]int(nil), ids...)
	}
	return out
}
