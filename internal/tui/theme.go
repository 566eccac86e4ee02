package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

// Theme holds the semantic color palette of the console.
type Theme struct {
	Base    lipgloss.Color
	Border  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

// DefaultTheme uses the CharmTone palette.
var DefaultTheme = Theme{
	Base:    lipgloss.Color("#201F26"), // Pepper
	Border:  lipgloss.Color("#4D4C57"), // Iron
	Muted:   lipgloss.Color("#858392"), // Squid
	Text:    lipgloss.Color("#DFDBDD"), // Ash
	Primary: lipgloss.Color("#6B50FF"), // Charple
	Accent:  lipgloss.Color("#FF60FF"), // Dolly
	Success: lipgloss.Color("#00FFB2"), // Julep
	Warning: lipgloss.Color("#FFD300"),
	Error:   lipgloss.Color("#E94090"),
	Info:    lipgloss.Color("#00CED1"),
}

type styles struct {
	title     lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	muted     lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	err       lipgloss.Style
	notice    lipgloss.Style
	buy       lipgloss.Style
	sell      lipgloss.Style
	box       lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(t.Info),
		tab:       lipgloss.NewStyle().Padding(0, 2).Foreground(t.Muted),
		activeTab: lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(t.Text).Background(t.Primary),
		header:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		cell:      lipgloss.NewStyle().Foreground(t.Text),
		muted:     lipgloss.NewStyle().Foreground(t.Muted),
		label:     lipgloss.NewStyle().Foreground(t.Muted).Width(22),
		value:     lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		err:       lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		notice:    lipgloss.NewStyle().Foreground(t.Success),
		buy:       lipgloss.NewStyle().Foreground(t.Success),
		sell:      lipgloss.NewStyle().Foreground(t.Warning),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),
	}
}

// renderBanner renders text with the bundled "small" figlet font.
func renderBanner(text string) string {
	fig := figure.NewFigure(text, "small", true)
	return strings.TrimRight(strings.Join(fig.Slicify(), "\n"), "\n ")
}

// GradientText applies a horizontal color gradient across each line of text.
func GradientText(text string, from, to lipgloss.Color) string {
	fr, fg, fb := hexToRGB(string(from))
	tr, tg, tb := hexToRGB(string(to))

	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		runes := []rune(line)
		n := len(runes)
		if n == 0 {
			result = append(result, "")
			continue
		}

		var sb strings.Builder
		for i, r := range runes {
			t := 0.0
			if n > 1 {
				t = float64(i) / float64(n-1)
			}
			cr := uint8(math.Round(float64(fr) + t*float64(int(tr)-int(fr))))
			cg := uint8(math.Round(float64(fg) + t*float64(int(tg)-int(fg))))
			cb := uint8(math.Round(float64(fb) + t*float64(int(tb)-int(fb))))

			color := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", cr, cg, cb))
			sb.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(r)))
		}
		result = append(result, sb.String())
	}
	return strings.Join(result, "\n")
}

func hexToRGB(hex string) (uint8, uint8, uint8) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	var r, g, b uint8
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
