package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/camina-segura/pkg/models"
)

// pickerModel lets the user choose one of the calculated routes
type pickerModel struct {
	table  table.Model
	routes []models.Route
	recs   [][]models.Recommendation
	chosen int
}

func newPicker(routes []models.Route, recs [][]models.Recommendation) pickerModel {
	columns := []table.Column{
		{Title: "", Width: 2},
		{Title: "Route", Width: 16},
		{Title: "Score", Width: 6},
		{Title: "Distance", Width: 10},
		{Title: "Time", Width: 8},
		{Title: "Danger", Width: 7},
	}

	rows := make([]table.Row, 0, len(routes))
	for _, r := range routes {
		name := r.Name
		if r.Recommended {
			name += " ★"
		}
		rows = append(rows, table.Row{
			r.Icon,
			name,
			fmt.Sprintf("%d", r.SafetyScore),
			fmt.Sprintf("%.2f km", r.DistanceKm),
			fmt.Sprintf("%d min", r.EstimatedTime.Minutes),
			fmt.Sprintf("%d", len(r.DangerousPoints)),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#BD93F9")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#282A36")).
		Background(lipgloss.Color("#50FA7B")).
		Bold(true)
	t.SetStyles(s)

	return pickerModel{table: t, routes: routes, recs: recs, chosen: -1}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			m.chosen = m.table.Cursor()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🧭 Choose a route"))
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(m.table.View()))
	b.WriteString("\n")

	if i := m.table.Cursor(); i >= 0 && i < len(m.recs) {
		b.WriteString(subtitleStyle.Render(m.routes[i].Description))
		b.WriteString("\n")
		for _, rec := range m.recs[i] {
			b.WriteString(fmt.Sprintf("%s %s\n", rec.Icon, rec.Message))
		}
	}

	b.WriteString(dimStyle.Render("\n↑/↓ move • enter save to history • q quit"))
	b.WriteString("\n")
	return b.String()
}

// pick runs the picker and returns the chosen index, -1 when cancelled
func pick(routes []models.Route, recs [][]models.Recommendation) (int, error) {
	final, err := tea.NewProgram(newPicker(routes, recs)).Run()
	if err != nil {
		return -1, fmt.Errorf("failed to run picker: %w", err)
	}
	return final.(pickerModel).chosen, nil
}
