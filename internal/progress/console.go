package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// ConsoleSink renders events as plain progress lines
type ConsoleSink struct {
	w       io.Writer
	verbose bool
}

// NewConsole creates a renderer writing to w. Verbose adds per-stage lines.
func NewConsole(w io.Writer, verbose bool) *ConsoleSink {
	return &ConsoleSink{w: w, verbose: verbose}
}

// Emit renders one event
func (c *ConsoleSink) Emit(e Event) {
	switch e.Type {
	case EventRunStarted:
		noun := "notebooks"
		if e.Total == 1 {
			noun = "notebook"
		}
		fmt.Fprintf(c.w, "%s %d %s\n", titleStyle.Render("Syncing"), e.Total, noun)

	case EventNotebookStarted:
		fmt.Fprintf(c.w, "[%d/%d] %s %s\n", e.Index, e.Total, e.Ref.Ref(), dimStyle.Render(e.Ref.Title))

	case EventStageReached:
		switch e.Stage {
		case domain.StageCreated:
			fmt.Fprintf(c.w, "  created repository %s\n", e.Detail)
		default:
			if c.verbose {
				fmt.Fprintf(c.w, "  %s %s\n", dimStyle.Render(string(e.Stage)), dimStyle.Render(e.Detail))
			}
		}

	case EventRetryScheduled:
		fmt.Fprintf(c.w, "  %s\n", warningStyle.Render(
			fmt.Sprintf("retrying %s (attempt %d) in %s: %s", e.Op, e.Attempt, fmtDuration(e.Delay), e.Detail)))

	case EventNotebookFinished:
		if e.Result == nil {
			return
		}
		if e.Result.Status == domain.StatusSuccess {
			fmt.Fprintf(c.w, "  %s %s %s\n",
				successStyle.Render("✓"), e.Result.RepoURL,
				dimStyle.Render(fmt.Sprintf("(%s, %s)", humanize.Bytes(uint64(e.Result.Bytes)), fmtDuration(e.Result.Duration))))
		} else {
			fmt.Fprintf(c.w, "  %s %s\n", failStyle.Render("✗"), e.Result.Error)
		}

	case EventRunFinished:
		if e.Report == nil {
			return
		}
		c.renderSummary(e.Report)
	}
}

func (c *ConsoleSink) renderSummary(report *domain.SyncReport) {
	elapsed := fmtDuration(report.FinishedAt.Sub(report.StartedAt))

	fmt.Fprintln(c.w)
	if report.AllSucceeded() {
		fmt.Fprintf(c.w, "%s\n", successStyle.Render(
			fmt.Sprintf("Synced %d/%d notebooks in %s", report.Succeeded, report.Total, elapsed)))
		return
	}

	fmt.Fprintf(c.w, "%s\n", warningStyle.Render(
		fmt.Sprintf("Synced %d/%d notebooks in %s", report.Succeeded, report.Total, elapsed)))

	for _, res := range report.Results {
		if res.Status == domain.StatusFailed {
			fmt.Fprintf(c.w, "  %s %s: %s\n", failStyle.Render("✗"), res.Ref.Ref(), res.Error)
		}
	}
	if skipped := report.Skipped(); skipped > 0 {
		fmt.Fprintf(c.w, "  %s\n", dimStyle.Render(fmt.Sprintf("%d notebooks not attempted (interrupted)", skipped)))
	}
}

func fmtDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
