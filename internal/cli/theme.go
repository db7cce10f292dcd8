package cli

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for the chat view.
type Theme struct {
	User    lipgloss.Color
	Bot     lipgloss.Color
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Label   lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:    lipgloss.Color("#5FAFD7"), // light blue
	Bot:     lipgloss.Color("#AF87FF"), // lavender
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Label:   lipgloss.Color("#D7AF5F"), // sand
}

func (t Theme) bubbleStyle(c lipgloss.Color, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 1).
		Width(width)
}

func (t Theme) userBubble(width int) lipgloss.Style {
	return t.bubbleStyle(t.User, width)
}

func (t Theme) botBubble(width int) lipgloss.Style {
	return t.bubbleStyle(t.Bot, width)
}

func (t Theme) senderStyle(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Label)
}
