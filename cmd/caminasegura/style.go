package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var interactive = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginTop(1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	statStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F1FA8C"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(0, 1)
)

func init() {
	// Plain output when piped
	if !interactive {
		for _, s := range []*lipgloss.Style{&titleStyle, &subtitleStyle, &successStyle, &warnStyle, &errorStyle, &dimStyle, &statStyle, &boxStyle} {
			*s = lipgloss.NewStyle()
		}
	}
}

func printTitle(title string) {
	fmt.Println(titleStyle.Render(title))
}

func printStat(label string, value interface{}) {
	fmt.Printf("  %s %s\n", dimStyle.Render(label+":"), statStyle.Render(fmt.Sprint(value)))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scoreStyle colours a 0..100 safety score
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 70:
		return successStyle
	case score >= 40:
		return warnStyle
	default:
		return errorStyle
	}
}

// scoreBar draws a 20-cell bar for a 0..100 score
func scoreBar(score float64) string {
	filled := int(score / 5)
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return scoreStyle(score).Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", 20-filled))
}
