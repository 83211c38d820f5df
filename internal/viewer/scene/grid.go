// Package scene is the viewer's stand-in for the render engine boundary:
// loading model bytes into a displayable form, hit testing pointer
// positions, per-element metadata lookup, and selection highlighting.
//
// The concrete engine here lays every model's elements out on a terminal
// cell grid, one tile per element. Picking is a cell hit test against the
// same layout the renderer draws, and the local element id is the STEP
// express id of the element.
package scene

import (
	"fmt"
	"strings"
	"sync"

	"bim-viewer/internal/ifc"
	"bim-viewer/internal/viewer/state"

	"github.com/charmbracelet/lipgloss"
)

const tileWidth = 4

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	tileStyle      = lipgloss.NewStyle().Faint(true)
	highlightStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
)

type tile struct {
	LocalID int
	GUID    string
	Name    string
	Type    string
}

type gridModel struct {
	frontendID  string
	displayName string
	tiles       []tile
}

// Grid is the loaded-model set of the terminal scene.
type Grid struct {
	mu        sync.Mutex
	width     int
	models    []*gridModel
	highlight state.Selection
}

func NewGrid() *Grid {
	return &Grid{width: 80}
}

// SetWidth resizes the canvas; layout and picking share the same width.
func (g *Grid) SetWidth(w int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if w > tileWidth {
		g.width = w
	}
}

// Load converts raw IFC bytes into scene tiles and registers them under
// the given frontend id. It returns the element count.
func (g *Grid) Load(frontendID, displayName string, data []byte) (int, error) {
	model, err := ifc.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("convert model: %w", err)
	}

	gm := &gridModel{frontendID: frontendID, displayName: displayName}
	for _, p := range model.Products() {
		t := tile{LocalID: p.ID, GUID: p.GlobalID(), Type: p.Type}
		if name := model.Name(p); name != nil {
			t.Name = *name
		}
		gm.tiles = append(gm.tiles, t)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.models = append(g.models, gm)
	return len(gm.tiles), nil
}

// Dispose removes a model from the scene.
func (g *Grid) Dispose(frontendID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, m := range g.models {
		if m.frontendID == frontendID {
			g.models = append(g.models[:i], g.models[i+1:]...)
			return
		}
	}
}

// Pick hit-tests a canvas position and returns the element under it.
func (g *Grid) Pick(x, y int) (frontendID string, localID int, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if x < 0 || y < 0 {
		return "", 0, false
	}
	perRow := g.tilesPerRow()
	row := 0
	for _, m := range g.models {
		if y == row {
			return "", 0, false // header line
		}
		row++
		rows := (len(m.tiles) + perRow - 1) / perRow
		if y < row+rows {
			idx := (y-row)*perRow + x/tileWidth
			if x/tileWidth >= perRow || idx >= len(m.tiles) {
				return "", 0, false
			}
			return m.frontendID, m.tiles[idx].LocalID, true
		}
		row += rows + 1 // tile rows plus separator line
	}
	return "", 0, false
}

// ItemData returns the local metadata record of one element. The guid key
// is only present when the element carries a GlobalId.
func (g *Grid) ItemData(frontendID string, localID int) (map[string]any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, m := range g.models {
		if m.frontendID != frontendID {
			continue
		}
		for _, t := range m.tiles {
			if t.LocalID != localID {
				continue
			}
			data := map[string]any{
				"expressId": t.LocalID,
				"name":      t.Name,
				"type":      t.Type,
			}
			if t.GUID != "" {
				data["guid"] = t.GUID
			}
			return data, true
		}
	}
	return nil, false
}

// Highlight replaces the highlighted set with the given selection.
func (g *Grid) Highlight(sel state.Selection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.highlight = sel
}

// ResetHighlight clears all highlighting.
func (g *Grid) ResetHighlight() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.highlight = state.Selection{}
}

// Render draws the canvas. The layout must stay in lockstep with Pick.
func (g *Grid) Render() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.models) == 0 {
		return tileStyle.Render("no models loaded - press o to open an IFC file")
	}

	perRow := g.tilesPerRow()
	var b strings.Builder
	for mi, m := range g.models {
		if mi > 0 {
			b.WriteString("\n")
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d elements)", m.displayName, len(m.tiles))))
		b.WriteString("\n")
		for i, t := range m.tiles {
			cell := fmt.Sprintf("[%s] ", typeAbbrev(t.Type))
			if g.highlight.Contains(m.frontendID, t.LocalID) {
				b.WriteString(highlightStyle.Render(cell))
			} else {
				b.WriteString(tileStyle.Render(cell))
			}
			if (i+1)%perRow == 0 && i != len(m.tiles)-1 {
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (g *Grid) tilesPerRow() int {
	perRow := g.width / tileWidth
	if perRow < 1 {
		perRow = 1
	}
	return perRow
}

// typeAbbrev maps an IFC type to the single letter drawn in its tile.
func typeAbbrev(ifcType string) string {
	t := strings.TrimPrefix(ifcType, "IFC")
	if t == "" {
		return "?"
	}
	return t[:1]
}
