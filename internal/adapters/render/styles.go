package render

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	colorTitle = lipgloss.Color("#20B9B4")
	colorMuted = lipgloss.Color("241")
	colorBuy   = lipgloss.Color("42")
	colorSell  = lipgloss.Color("196")
	colorWarn  = lipgloss.Color("214")
)

type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	muted   lipgloss.Style
	buy     lipgloss.Style
	sell    lipgloss.Style
	warn    lipgloss.Style
	bold    lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorTitle),
		section: lipgloss.NewStyle().Bold(true).Underline(true),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		buy:     lipgloss.NewStyle().Foreground(colorBuy).Bold(true),
		sell:    lipgloss.NewStyle().Foreground(colorSell).Bold(true),
		warn:    lipgloss.NewStyle().Foreground(colorWarn),
		bold:    lipgloss.NewStyle().Bold(true),
	}
}
