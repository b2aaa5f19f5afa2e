package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrSnakeDoc/curio/internal/bookmarks"
	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/search"
)

// chrome is the number of rows used by the header, footer, status and help.
const chrome = 5

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.session.Overlay.IsOpen() {
		b.WriteString(m.renderOverlay())
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) rows() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-chrome, 1)
}

func (m Model) renderHeader() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	parts := []string{
		fmt.Sprintf("%d resources", len(m.list)),
		fmt.Sprintf("sort: %s %s", m.sortBy, m.sortOrder),
	}
	if m.session.Bookmarks.Authenticated() {
		parts = append(parts, fmt.Sprintf("%d bookmarks", m.session.Bookmarks.Count()))
	} else {
		parts = append(parts, "signed out")
	}
	if m.loading {
		parts = append(parts, "loading...")
	}
	return style.Render("curio") + "  " + faint.Render(strings.Join(parts, " · "))
}

func (m Model) renderList() string {
	if len(m.list) == 0 {
		if m.loading {
			return ""
		}
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("no resources match")
	}

	visible := m.window.Visible(m.list)
	rows := m.rows()
	start := max(0, m.cursor-rows+1)
	end := min(len(visible), start+rows)

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(visible[i], i == m.cursor))
	}
	if m.window.HasMore(len(m.list)) {
		more := fmt.Sprintf("showing %d of %d, %s for more", len(visible), len(m.list), m.keys.More.Help().Key)
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.HelpText).Render(more))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderOverlay() string {
	ov := m.session.Overlay
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	active := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)

	scopes := make([]string, 0, 2)
	for _, s := range []search.Scope{search.ScopeCatalog, search.ScopeBookmarks} {
		if s == ov.Scope() {
			scopes = append(scopes, active.Render("["+s.String()+"]"))
		} else {
			scopes = append(scopes, faint.Render(s.String()))
		}
	}

	lines := []string{m.input.View(), strings.Join(scopes, " ")}

	results := ov.Results()
	if len(results) == 0 {
		lines = append(lines, faint.Render("no matches"))
		return strings.Join(lines, "\n")
	}

	rows := max(m.rows()-2, 1)
	sel := ov.SelectedIndex()
	start := max(0, sel-rows+1)
	end := min(len(results), start+rows)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(results[i], i == sel))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r domain.Resource, selected bool) string {
	marker := " "
	switch {
	case m.session.Bookmarks.State(r.ID) == bookmarks.Pending:
		marker = lipgloss.NewStyle().Foreground(m.theme.Pending).Render("…")
	case m.session.Bookmarks.IsBookmarked(r.ID):
		marker = lipgloss.NewStyle().Foreground(m.theme.Bookmarked).Render("★")
	}

	title := r.Title
	if title == "" {
		title = r.URL
	}

	var meta []string
	if d := domain.Text(r.Difficulty); d != "" {
		color := m.theme.DifficultyColor(catalog.DifficultyRank(d))
		meta = append(meta, lipgloss.NewStyle().Foreground(color).Render(d))
	}
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	if ct := domain.Text(r.ContentType); ct != "" {
		meta = append(meta, faint.Render(ct))
	}
	if r.Rating != nil {
		meta = append(meta, faint.Render(fmt.Sprintf("%.1f", *r.Rating)))
	}

	line := marker + " " + title
	if len(meta) > 0 {
		line += "  " + strings.Join(meta, " ")
	}

	style := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	if selected {
		style = style.Background(m.theme.SelectedBackground).Foreground(m.theme.SelectedForeground)
	}
	if m.width > 0 {
		style = style.MaxWidth(m.width)
	}
	return style.Render(line)
}

func (m Model) renderStatus() string {
	if m.err != "" {
		return lipgloss.NewStyle().Foreground(m.theme.ErrorText).Render(m.err)
	}
	if m.status != "" {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(m.status)
	}
	if r, ok := m.current(); ok && !m.session.Overlay.IsOpen() {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(r.URL)
	}
	return ""
}

func (m Model) renderHelp() string {
	var bindings []key.Binding
	if m.session.Overlay.IsOpen() {
		bindings = []key.Binding{m.keys.Select, m.keys.ScopeToggle, m.keys.OverlayBookmark, m.keys.Close}
	} else {
		bindings = []key.Binding{m.keys.Search, m.keys.Bookmark, m.keys.SortNext, m.keys.OrderFlip,
			m.keys.Refresh, m.keys.SignOut, m.keys.Quit}
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return lipgloss.NewStyle().Foreground(m.theme.HelpText).Render(strings.Join(parts, "  "))
}
