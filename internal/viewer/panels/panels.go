// Package panels renders the viewer's side panels. Every function is a
// pure presenter: snapshot in, string out, no state of its own, safe to
// re-invoke on every change.
package panels

import (
	"fmt"
	"sort"
	"strings"

	"bim-viewer/internal/viewer/state"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	keyStyle   = lipgloss.NewStyle().Bold(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// ModelList renders the registry: one block per loaded model.
func ModelList(s state.AppState, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Models"))
	b.WriteString("\n")

	if len(s.Models) == 0 {
		b.WriteString(dimStyle.Render("none loaded"))
	}
	for i, m := range s.Models {
		if i > 0 {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("%s\n  %s · %d elements", m.DisplayName, m.ProjectName, m.ElementCount)
		if n := len(s.Selection.IDs(m.FrontendID)); n > 0 {
			line += dimStyle.Render(fmt.Sprintf(" · %d selected", n))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return panelStyle.Width(width).Render(b.String())
}

// Properties renders the resolved-property panel for the representative
// selected element: empty, loading, error record, or the full record.
func Properties(s state.AppState, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Properties"))
	b.WriteString("\n")

	switch {
	case s.Loading:
		b.WriteString(dimStyle.Render("loading properties..."))
	case s.Resolved == nil:
		b.WriteString(dimStyle.Render("nothing selected"))
	case s.Resolved.Err != "":
		b.WriteString(errStyle.Render(s.Resolved.Err))
		b.WriteString("\n")
		writeKV(&b, s.Resolved.LocalData)
	default:
		r := s.Resolved
		b.WriteString(keyStyle.Render(displayName(r)))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s\n%s\n", r.Type, dimStyle.Render(r.GUID)))
		for _, setName := range sortedKeys(r.PropertySets) {
			b.WriteString("\n")
			b.WriteString(keyStyle.Render(setName))
			b.WriteString("\n")
			writeKV(&b, r.PropertySets[setName])
		}
		if len(r.LocalData) > 0 {
			b.WriteString("\n")
			b.WriteString(keyStyle.Render("Local"))
			b.WriteString("\n")
			writeKV(&b, r.LocalData)
		}
	}
	return panelStyle.Width(width).Render(b.String())
}

// StatusBar renders the one-line status footer.
func StatusBar(s state.AppState, width int) string {
	status := s.Status
	if status == "" {
		status = fmt.Sprintf("%d model(s) · %d selected", len(s.Models), s.Selection.Len())
	}
	help := "o open · r remove · c clear · q quit"
	gap := width - lipgloss.Width(status) - lipgloss.Width(help)
	if gap < 1 {
		return dimStyle.Render(status)
	}
	return dimStyle.Render(status + strings.Repeat(" ", gap) + help)
}

func displayName(r *state.Resolved) string {
	if r.Name != "" {
		return r.Name
	}
	return "(unnamed)"
}

// writeKV prints a map in sorted key order so renders are stable.
func writeKV(b *strings.Builder, kv map[string]any) {
	for _, k := range sortedKeys(kv) {
		v := kv[k]
		if v == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
