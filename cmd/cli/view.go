package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hamed0406/livestatus/internal/livesystem"
)

var colorSuccess = lipgloss.Color("#00B785")

var styleOK = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
var styleFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1244c")).Bold(true)
var styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0b000")).Bold(true)
var styleLoading = lipgloss.NewStyle().Foreground(lipgloss.Color("#5D689C"))
var styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("#407FF8")).Bold(true)

var styleCard = lipgloss.NewStyle().
	Padding(0, 1).
	BorderStyle(lipgloss.RoundedBorder()).
	Width(60)

func pill(c livesystem.Card) string {
	switch {
	case c.Loading:
		return styleLoading.Render("…")
	case c.OK:
		return styleOK.Render(c.Pill)
	default:
		return styleFailed.Render(c.Pill)
	}
}

func cardView(c livesystem.Card) string {
	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Left, styleHighlight.Render(c.Title), "  ", pill(c)),
		"Latency  " + c.Latency,
	}
	switch {
	case c.Loading:
		lines = append(lines, styleLoading.Render("Checking…"))
	case c.OK:
		lines = append(lines, "Status   "+c.Status)
	default:
		lines = append(lines, styleFailed.Render("Error    ")+c.Error)
	}
	return styleCard.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
