package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_ReplaceAndAdd(t *testing.T) {
	var sel Selection
	assert.True(t, sel.IsEmpty())

	sel = sel.Replace("a", 1)
	assert.Equal(t, []string{"a"}, sel.Models())
	assert.Equal(t, []int{1}, sel.IDs("a"))

	sel = sel.Add("b", 2)
	assert.Equal(t, []string{"a", "b"}, sel.Models())
	assert.Equal(t, 2, sel.Len())

	// Augmenting with an already selected pair is a no-op.
	again := sel.Add("a", 1)
	assert.True(t, again.Equal(sel))

	sel = sel.Replace("b", 2)
	assert.Equal(t, []string{"b"}, sel.Models())
	assert.Equal(t, []int{2}, sel.IDs("b"))
}

func TestSelection_Immutability(t *testing.T) {
	base := Selection{}.Replace("a", 1)
	_ = base.Add("a", 2)
	_ = base.Without("a")

	assert.Equal(t, []int{1}, base.IDs("a"), "operations must not mutate the receiver")
}

func TestSelection_First(t *testing.T) {
	var sel Selection
	_, _, ok := sel.First()
	assert.False(t, ok)

	sel = sel.Add("a", 7).Add("a", 9).Add("b", 1)
	fid, id, ok := sel.First()
	require.True(t, ok)
	assert.Equal(t, "a", fid)
	assert.Equal(t, 7, id)
}

func TestSelection_Without(t *testing.T) {
	sel := Selection{}.Add("a", 1).Add("b", 2).Add("b", 3)

	sel = sel.Without("b")
	assert.Equal(t, []string{"a"}, sel.Models())
	assert.Empty(t, sel.IDs("b"))

	// Removing an absent model changes nothing.
	assert.True(t, sel.Without("zzz").Equal(sel))
}

func TestSelection_Equal(t *testing.T) {
	a := Selection{}.Add("a", 1).Add("b", 2)
	b := Selection{}.Add("a", 1).Add("b", 2)
	c := Selection{}.Add("b", 2).Add("a", 1)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "model order is part of selection identity")
	assert.False(t, a.Equal(Selection{}))
}

func TestStore_UpdateNotifies(t *testing.T) {
	store := NewStore()

	var seen []int
	store.Subscribe(func(s AppState) { seen = append(seen, len(s.Models)) })

	store.Update(func(s AppState) AppState {
		s.Models = append(s.Models, ModelEntry{FrontendID: "a"})
		return s
	})
	store.Update(func(s AppState) AppState {
		s.Models = append(append([]ModelEntry(nil), s.Models...), ModelEntry{FrontendID: "b"})
		return s
	})

	assert.Equal(t, []int{1, 2}, seen)
	assert.Len(t, store.State().Models, 2)
}

func TestAppState_Model(t *testing.T) {
	s := AppState{Models: []ModelEntry{{FrontendID: "a", BackendID: "b1"}}}

	m, ok := s.Model("a")
	require.True(t, ok)
	assert.Equal(t, "b1", m.BackendID)

	_, ok = s.Model("gone")
	assert.False(t, ok)
}
