package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spaghettifunk/anima-scenes/engine/math"
)

/** @brief Layout and colours of the terminal progress bar. */
type ProgressBarConfig struct {
	/** @brief Number of cells in the bar, label excluded. */
	Width int
	/** @brief Rune drawn for completed cells. */
	Filled rune
	/** @brief Rune drawn for remaining cells. */
	Empty rune
	/** @brief Colour of the completed cells. */
	FilledColor lipgloss.Color
	/** @brief Colour of the remaining cells. */
	EmptyColor lipgloss.Color
	/** @brief Colour of the label in front of the bar. */
	LabelColor lipgloss.Color
}

func DefaultProgressBarConfig() ProgressBarConfig {
	return ProgressBarConfig{
		Width:       40,
		Filled:      '█',
		Empty:       '░',
		FilledColor: lipgloss.Color("#7D56F4"),
		EmptyColor:  lipgloss.Color("#3C3C3C"),
		LabelColor:  lipgloss.Color("#FAFAFA"),
	}
}

// ProgressBar renders a single-line progress bar for the loading screen.
type ProgressBar struct {
	config ProgressBarConfig
	filled lipgloss.Style
	empty  lipgloss.Style
	label  lipgloss.Style
}

func NewProgressBar(config ProgressBarConfig) *ProgressBar {
	defaults := DefaultProgressBarConfig()
	if config.Width <= 0 {
		config.Width = defaults.Width
	}
	if config.Filled == 0 {
		config.Filled = defaults.Filled
	}
	if config.Empty == 0 {
		config.Empty = defaults.Empty
	}
	return &ProgressBar{
		config: config,
		filled: lipgloss.NewStyle().Foreground(config.FilledColor),
		empty:  lipgloss.NewStyle().Foreground(config.EmptyColor),
		label:  lipgloss.NewStyle().Foreground(config.LabelColor).Bold(true),
	}
}

// Cells returns how many cells are filled for progress p in [0, 1].
func (b *ProgressBar) Cells(p float64) int {
	p = math.Clamp(p, 0, 1)
	return int(p * float64(b.config.Width))
}

// Render draws "label [bar] pct%" for progress p.
func (b *ProgressBar) Render(label string, p float64) string {
	p = math.Clamp(p, 0, 1)
	n := b.Cells(p)

	var sb strings.Builder
	if label != "" {
		sb.WriteString(b.label.Render(label))
		sb.WriteByte(' ')
	}
	sb.WriteString(b.filled.Render(strings.Repeat(string(b.config.Filled), n)))
	sb.WriteString(b.empty.Render(strings.Repeat(string(b.config.Empty), b.config.Width-n)))
	sb.WriteString(fmt.Sprintf(" %3.0f%%", p*100))
	return sb.String()
}
