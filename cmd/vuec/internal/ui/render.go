package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions
var (
	// Colors
	primaryColor   = lipgloss.Color("#42b883") // Vue green
	secondaryColor = lipgloss.Color("#64748b") // Gray
	successColor   = lipgloss.Color("#10b981") // Green
	warningColor   = lipgloss.Color("#f59e0b") // Yellow
	errorColor     = lipgloss.Color("#ef4444") // Red
	mutedColor     = lipgloss.Color("#94a3b8") // Muted gray

	baseStyle = lipgloss.NewStyle().
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	selectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("vuec watch"))
	b.WriteString("  ")
	b.WriteString(subtitleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderFiles())
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.detail.View()))
	b.WriteString("\n")
	b.WriteString(m.renderLog())
	b.WriteString(m.renderFooter())

	return baseStyle.Render(b.String())
}

func (m Model) renderStatus() string {
	if m.building {
		return m.spinner.View() + " building..."
	}
	if m.builds == 0 {
		return mutedStyle.Render("waiting for first build")
	}

	ok, warn, failed := 0, 0, 0
	for _, f := range m.files {
		switch f.Status {
		case StatusOK:
			ok++
		case StatusWarning:
			warn++
		case StatusFailed:
			failed++
		}
	}
	parts := []string{successStyle.Render(fmt.Sprintf("✓ %d ok", ok))}
	if warn > 0 {
		parts = append(parts, warningStyle.Render(fmt.Sprintf("⚠ %d warning", warn)))
	}
	if failed > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("✗ %d failed", failed)))
	}
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("build #%d in %v at %s",
		m.builds, m.elapsed.Round(time.Millisecond), m.lastAt.Format(time.Kitchen))))
	return strings.Join(parts, "  ")
}

func (m Model) renderFiles() string {
	if len(m.files) == 0 {
		return mutedStyle.Render("no components yet") + "\n"
	}

	var b strings.Builder
	for i, f := range m.files {
		cursor := "  "
		name := f.Path
		if i == m.selected {
			cursor = selectedStyle.Render("▸ ")
			name = selectedStyle.Render(name)
		}
		b.WriteString(cursor)
		b.WriteString(statusIcon(f.Status))
		b.WriteString(" ")
		b.WriteString(name)
		if f.Cached {
			b.WriteString(mutedStyle.Render(" (cached)"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func statusIcon(s Status) string {
	switch s {
	case StatusOK:
		return successStyle.Render("✓")
	case StatusWarning:
		return warningStyle.Render("⚠")
	case StatusFailed:
		return errorStyle.Render("✗")
	}
	return mutedStyle.Render("·")
}

func (m Model) renderLog() string {
	if len(m.logs) == 0 {
		return ""
	}
	start := 0
	if n := 5; len(m.logs) > n {
		start = len(m.logs) - n
	}
	var b strings.Builder
	for _, line := range m.logs[start:] {
		b.WriteString(mutedStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	if !m.showHelp {
		return footerStyle.Render("? help • q quit")
	}
	bindings := []string{}
	for _, k := range []struct{ keys, desc string }{
		{DefaultKeyMap.Up.Help().Key, DefaultKeyMap.Up.Help().Desc},
		{DefaultKeyMap.Down.Help().Key, DefaultKeyMap.Down.Help().Desc},
		{DefaultKeyMap.Clear.Help().Key, DefaultKeyMap.Clear.Help().Desc},
		{DefaultKeyMap.Quit.Help().Key, DefaultKeyMap.Quit.Help().Desc},
	} {
		bindings = append(bindings, k.keys+" "+k.desc)
	}
	return footerStyle.Render(helpStyle.Render(strings.Join(bindings, " • ")))
}

// refreshDetail shows the selected component's output and diagnostics.
func (m *Model) refreshDetail() {
	f, ok := m.Selected()
	if !ok {
		m.detail.SetContent(mutedStyle.Render("nothing selected"))
		return
	}

	var b strings.Builder
	b.WriteString(f.Path)
	if f.Output != "" {
		b.WriteString(" → " + f.Output)
	}
	b.WriteString("\n")
	if len(f.Messages) == 0 {
		b.WriteString(successStyle.Render("no diagnostics"))
	}
	for _, msg := range f.Messages {
		style := warningStyle
		if f.Status == StatusFailed {
			style = errorStyle
		}
		b.WriteString(style.Render(msg))
		b.WriteString("\n")
	}
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

func (m *Model) log(format string, args ...any) {
	line := time.Now().Format("15:04:05") + " " + fmt.Sprintf(format, args...)
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}
