package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors of the resource browser. All colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	Bookmarked lipgloss.Color
	Pending    lipgloss.Color
	ErrorText  lipgloss.Color

	// Difficulty badges, indexed by catalog.DifficultyRank.
	DifficultyColors [4]lipgloss.Color
}

// DifficultyColor returns the badge color for a difficulty rank. Unknown
// ranks are faint.
func (theme Theme) DifficultyColor(rank int) lipgloss.Color {
	if rank < 0 || rank >= len(theme.DifficultyColors) {
		return theme.FaintText
	}
	return theme.DifficultyColors[rank]
}

var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	Bookmarked: lipgloss.Color("220"), // amber
	Pending:    lipgloss.Color("245"),
	ErrorText:  lipgloss.Color("196"),

	DifficultyColors: [4]lipgloss.Color{
		lipgloss.Color("245"), // unranked
		lipgloss.Color("114"), // beginner: green
		lipgloss.Color("75"),  // intermediate: blue
		lipgloss.Color("208"), // advanced: orange
	},
}
