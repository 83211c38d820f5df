// Package tui is the terminal front of the viewer: a bubbletea program
// that feeds pointer and key events into the selection controller and
// registry, and renders panels from the current state snapshot.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"bim-viewer/internal/viewer/panels"
	"bim-viewer/internal/viewer/registry"
	"bim-viewer/internal/viewer/resolver"
	"bim-viewer/internal/viewer/scene"
	"bim-viewer/internal/viewer/selection"
	"bim-viewer/internal/viewer/state"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	leftPanelWidth  = 30
	rightPanelWidth = 42
	// Rows reserved below the scene canvas for panels and the status bar.
	panelReserve = 14
)

var menuStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

type contextMenu struct {
	items  []string
	cursor int
}

// App is the bubbletea model. All state transitions happen in Update;
// I/O runs as commands whose completion messages land back here.
type App struct {
	store *state.Store
	grid  *scene.Grid
	reg   *registry.Registry
	ctrl  *selection.Controller
	res   *resolver.Resolver

	width, height int

	pathInput textinput.Model
	prompting bool
	menu      *contextMenu

	// pending collects commands queued by controller side effects during
	// the current Update call.
	pending []tea.Cmd

	// lastButton remembers the pressed button for terminals that report
	// releases without one.
	lastButton selection.Button

	initialPaths []string
}

// NewApp wires the viewer core around a shared store and scene.
func NewApp(gw registry.Gateway, resolveGW resolver.Gateway, paths []string) *App {
	store := state.NewStore()
	grid := scene.NewGrid()

	app := &App{
		store:        store,
		grid:         grid,
		reg:          registry.New(store, grid, gw),
		res:          resolver.New(store, resolveGW, grid),
		initialPaths: paths,
	}
	app.ctrl = selection.New(store, grid, grid, dispatcher{app})

	ti := textinput.New()
	ti.Placeholder = "path to .ifc file"
	ti.CharLimit = 512
	app.pathInput = ti
	return app
}

// dispatcher queues resolutions as bubbletea commands so they run off the
// event loop and report back with a message.
type dispatcher struct{ app *App }

func (d dispatcher) Resolve(seq uint64, frontendID string, localID int) {
	app := d.app
	app.pending = append(app.pending, func() tea.Msg {
		app.res.Resolve(context.Background(), seq, frontendID, localID)
		return resolveDoneMsg{}
	})
}

func (a *App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.initialPaths))
	for _, p := range a.initialPaths {
		cmds = append(cmds, a.loadModelCmd(p))
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a.pending = nil

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.grid.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case tea.MouseMsg:
		a.updateMouse(msg)
		return a, tea.Batch(a.pending...)

	case modelLoadedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("load %s failed: %v", filepath.Base(msg.filename), msg.err))
		}
		return a, nil

	case modelRemovedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("remove failed: %v", msg.err))
		}
		return a, nil

	case resolveDoneMsg:
		return a, nil
	}
	return a, nil
}

func (a *App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.prompting {
		switch msg.String() {
		case "enter":
			path := a.pathInput.Value()
			a.prompting = false
			a.pathInput.Blur()
			a.pathInput.SetValue("")
			if path == "" {
				return a, nil
			}
			return a, a.loadModelCmd(path)
		case "esc":
			a.prompting = false
			a.pathInput.Blur()
			a.pathInput.SetValue("")
			return a, nil
		default:
			var cmd tea.Cmd
			a.pathInput, cmd = a.pathInput.Update(msg)
			return a, cmd
		}
	}

	if a.menu != nil {
		switch msg.String() {
		case "up", "k":
			if a.menu.cursor > 0 {
				a.menu.cursor--
			}
		case "down", "j":
			if a.menu.cursor < len(a.menu.items)-1 {
				a.menu.cursor++
			}
		case "enter":
			return a.applyMenu()
		case "esc":
			a.menu = nil
		}
		return a, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "o":
		a.prompting = true
		return a, a.pathInput.Focus()
	case "r":
		return a, a.removeTargetCmd()
	case "c":
		a.clearSelection()
		return a, nil
	}
	return a, nil
}

func (a *App) updateMouse(msg tea.MouseMsg) {
	if a.menu != nil {
		return
	}
	ev, ok := a.toPointerEvent(msg)
	if !ok {
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		a.lastButton = ev.Button
		if msg.Y < a.canvasHeight() {
			a.ctrl.PointerDown(ev)
		}
	case tea.MouseActionMotion:
		a.ctrl.PointerMove(ev)
	case tea.MouseActionRelease:
		if msg.Y >= a.canvasHeight() {
			return
		}
		if a.ctrl.PointerUp(ev) {
			a.openMenu()
		}
	}
}

func (a *App) toPointerEvent(msg tea.MouseMsg) (selection.PointerEvent, bool) {
	ev := selection.PointerEvent{X: msg.X, Y: msg.Y, Augment: msg.Ctrl}
	switch msg.Button {
	case tea.MouseButtonLeft:
		ev.Button = selection.ButtonPrimary
	case tea.MouseButtonRight:
		ev.Button = selection.ButtonSecondary
	case tea.MouseButtonNone:
		// Releases without a button reuse the last pressed one.
		if msg.Action != tea.MouseActionRelease {
			return ev, msg.Action == tea.MouseActionMotion
		}
		ev.Button = a.lastButton
	default:
		return ev, false
	}
	return ev, true
}

func (a *App) openMenu() {
	a.menu = &contextMenu{items: []string{"Remove model", "Clear selection", "Cancel"}}
}

func (a *App) applyMenu() (tea.Model, tea.Cmd) {
	choice := a.menu.items[a.menu.cursor]
	a.menu = nil
	switch choice {
	case "Remove model":
		return a, a.removeTargetCmd()
	case "Clear selection":
		a.clearSelection()
	}
	return a, nil
}

// clearSelection empties the selection and invalidates any in-flight
// resolution, mirroring a miss-click without modifier.
func (a *App) clearSelection() {
	next := a.store.Update(func(s state.AppState) state.AppState {
		s.Selection = state.Selection{}
		s.Resolved = nil
		s.Loading = false
		s.Target = nil
		s.ResolveSeq++
		return s
	})
	a.grid.Highlight(next.Selection)
}

func (a *App) setStatus(status string) {
	a.store.Update(func(s state.AppState) state.AppState {
		s.Status = status
		return s
	})
}

// targetModel picks the model acted on by remove: the selection's
// representative model, falling back to the most recently loaded one.
func (a *App) targetModel() (string, bool) {
	st := a.store.State()
	if fid, _, ok := st.Selection.First(); ok {
		return fid, true
	}
	if len(st.Models) > 0 {
		return st.Models[len(st.Models)-1].FrontendID, true
	}
	return "", false
}

func (a *App) loadModelCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return modelLoadedMsg{filename: path, err: err}
		}
		entry, err := a.reg.Add(context.Background(), filepath.Base(path), data)
		return modelLoadedMsg{entry: entry, filename: path, err: err}
	}
}

func (a *App) removeTargetCmd() tea.Cmd {
	fid, ok := a.targetModel()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		err := a.reg.Remove(context.Background(), fid)
		return modelRemovedMsg{frontendID: fid, err: err}
	}
}

func (a *App) canvasHeight() int {
	h := a.height - panelReserve
	if h < 3 {
		h = 3
	}
	return h
}

func (a *App) View() string {
	if a.width == 0 {
		return "starting..."
	}
	st := a.store.State()

	canvas := lipgloss.NewStyle().
		Width(a.width).
		Height(a.canvasHeight()).
		MaxHeight(a.canvasHeight()).
		Render(a.grid.Render())

	panelW := a.width - leftPanelWidth - rightPanelWidth
	if panelW < 0 {
		panelW = 0
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		panels.ModelList(st, leftPanelWidth-2),
		lipgloss.NewStyle().Width(panelW).Render(a.overlay()),
		panels.Properties(st, rightPanelWidth-2),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		canvas,
		row,
		panels.StatusBar(st, a.width),
	)
}

// overlay renders whichever transient widget is active between the side
// panels: the path prompt, the context menu, or nothing.
func (a *App) overlay() string {
	switch {
	case a.prompting:
		return menuStyle.Render("Open IFC file\n" + a.pathInput.View())
	case a.menu != nil:
		var lines string
		for i, item := range a.menu.items {
			cursor := "  "
			if i == a.menu.cursor {
				cursor = "> "
			}
			lines += cursor + item + "\n"
		}
		return menuStyle.Render(lines)
	default:
		return ""
	}
}
