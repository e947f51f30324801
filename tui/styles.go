package tui

import "github.com/charmbracelet/lipgloss"

// palette holds the colors for one theme.
type palette struct {
	Title       lipgloss.Color
	Text        lipgloss.Color
	Muted       lipgloss.Color
	Selected    lipgloss.Color
	Frame       lipgloss.Color
	FrameActive lipgloss.Color
	OK          lipgloss.Color
	Error       lipgloss.Color
	Prompt      lipgloss.Color
	Overdue     lipgloss.Color
	Today       lipgloss.Color
	Category    lipgloss.Color
	High        lipgloss.Color
	Medium      lipgloss.Color
	Low         lipgloss.Color
	Toast       lipgloss.Color
}

var (
	lightPalette = palette{
		Title:       lipgloss.Color("25"),
		Text:        lipgloss.Color("235"),
		Muted:       lipgloss.Color("244"),
		Selected:    lipgloss.Color("27"),
		Frame:       lipgloss.Color("250"),
		FrameActive: lipgloss.Color("33"),
		OK:          lipgloss.Color("28"),
		Error:       lipgloss.Color("160"),
		Prompt:      lipgloss.Color("130"),
		Overdue:     lipgloss.Color("160"),
		Today:       lipgloss.Color("166"),
		Category:    lipgloss.Color("61"),
		High:        lipgloss.Color("160"),
		Medium:      lipgloss.Color("172"),
		Low:         lipgloss.Color("28"),
		Toast:       lipgloss.Color("91"),
	}
	darkPalette = palette{
		Title:       lipgloss.Color("117"),
		Text:        lipgloss.Color("252"),
		Muted:       lipgloss.Color("241"),
		Selected:    lipgloss.Color("229"),
		Frame:       lipgloss.Color("240"),
		FrameActive: lipgloss.Color("39"),
		OK:          lipgloss.Color("70"),
		Error:       lipgloss.Color("9"),
		Prompt:      lipgloss.Color("220"),
		Overdue:     lipgloss.Color("203"),
		Today:       lipgloss.Color("214"),
		Category:    lipgloss.Color("111"),
		High:        lipgloss.Color("203"),
		Medium:      lipgloss.Color("220"),
		Low:         lipgloss.Color("114"),
		Toast:       lipgloss.Color("213"),
	}
)

func paletteFor(dark bool) palette {
	if dark {
		return darkPalette
	}
	return lightPalette
}

func (p palette) fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}
