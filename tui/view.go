package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	finished, succeeded := m.counts()
	header := fmt.Sprintf(" kaggle-sync │ %s │ %d/%d synced │ %s ",
		m.user, succeeded, m.total, time.Since(m.started).Round(time.Second))
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderRows()))
	b.WriteString("\n")

	var status string
	switch {
	case m.done && m.aborted:
		status = fmt.Sprintf(" interrupted: %d finished, %d not attempted │ q to quit ", finished, m.total-finished)
	case m.done:
		status = fmt.Sprintf(" done: %d succeeded, %d failed │ q to quit ", succeeded, finished-succeeded)
	default:
		status = " syncing... │ q to abort "
	}
	b.WriteString(statusBarStyle.Width(m.width).Render(status))

	return b.String()
}

// renderRows lays out one line per notebook, windowed to the screen height.
func (m Model) renderRows() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("listing notebooks...")
	}

	var lines []string
	for _, r := range m.rows {
		if !r.started {
			lines = append(lines, dimStyle.Render("· waiting"))
			continue
		}
		lines = append(lines, m.renderRow(r))
	}

	// Keep the most recent activity on screen.
	avail := m.height - 5
	if avail > 0 && len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r row) string {
	glyph := spinnerStyle.Render(spinnerFrames[m.frame%len(spinnerFrames)])
	switch r.status {
	case domain.StatusSuccess:
		glyph = successStyle.Render("✓")
	case domain.StatusFailed:
		glyph = failStyle.Render("✗")
	}

	line := fmt.Sprintf("%s %-40s %s", glyph, r.ref.Ref(), dimStyle.Render(string(r.stage)))

	switch {
	case r.status == domain.StatusFailed:
		line += " " + failStyle.Render(r.errText)
	case r.status == domain.StatusSuccess:
		extra := fmt.Sprintf("%s, %s", humanize.Bytes(uint64(r.bytes)), r.duration.Round(10*time.Millisecond))
		line += " " + r.detail + " " + dimStyle.Render("("+extra+")")
	case strings.HasPrefix(r.detail, "retrying"):
		line += " " + warningStyle.Render(r.detail)
	case r.detail != "":
		line += " " + dimStyle.Render(r.detail)
	}
	return line
}

func (m Model) counts() (finished, succeeded int) {
	for _, r := range m.rows {
		switch r.status {
		case domain.StatusSuccess:
			finished++
			succeeded++
		case domain.StatusFailed:
			finished++
		}
	}
	return finished, succeeded
}
