package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/tlc-downloader/internal/download"
	"github.com/handiism/tlc-downloader/internal/model"
	tlcprogress "github.com/handiism/tlc-downloader/internal/progress"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7C948")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7C948"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// maxFileRows caps the per-file rows shown while downloading.
const maxFileRows = 8

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🚕 TLC Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download NYC TLC trip record data"))
	b.WriteString("\n\n")

	switch m.state {
	case StateType:
		b.WriteString(m.viewSelect("Select data type:", model.DataTypes))
	case StateMode:
		b.WriteString(m.viewSelect(fmt.Sprintf("Download mode for %s:", m.dataType), modeChoices))
	case StateStart:
		label := "Month (YYYY-MM):"
		if m.mode == ModeRange {
			label = "Start month (YYYY-MM):"
		}
		b.WriteString(m.viewInput(label))
	case StateEnd:
		b.WriteString(m.viewInput("End month (YYYY-MM):"))
	case StateOutput:
		b.WriteString(m.viewInput("Output directory:"))
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewSelect(title string, choices []string) string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render(title))
	b.WriteString("\n\n")
	for i, c := range choices {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("› " + c))
		} else {
			b.WriteString("  " + c)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[×]"
	}
	b.WriteString(fmt.Sprintf("%s Verbose output (v)\n", verboseCheck))

	return b.String()
}

func (m Model) viewInput(label string) string {
	var b strings.Builder

	b.WriteString(dimStyle.Render(m.selectionLine()))
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render(label))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	if m.inputErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + m.inputErr))
		b.WriteString("\n")
	}

	return b.String()
}

// selectionLine summarises the answers given so far.
func (m Model) selectionLine() string {
	parts := []string{"Type: " + m.dataType, "Mode: " + modeChoices[m.mode]}
	if m.state == StateEnd || m.state == StateOutput {
		parts = append(parts, "From: "+m.start.String())
	}
	if m.state == StateOutput && m.mode == ModeRange {
		parts = append(parts, "To: "+m.end.String())
	}
	return strings.Join(parts, " • ")
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.cancelling {
		b.WriteString(warningStyle.Render("Cancelling..."))
	} else {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Fetching file sizes for %s %s...", m.dataType, m.rangeLabel())))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s %s → %s", m.dataType, m.rangeLabel(), m.output)))
	b.WriteString("\n\n")

	// Progress bar
	b.WriteString(m.progress.ViewAs(m.snapshot.Percent()))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(m.snapshot.String()))
	b.WriteString("\n\n")

	b.WriteString(m.renderFiles())

	if m.cancelling {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(warningStyle.Render("Cancelling, removing partial files..."))
		b.WriteString("\n\n")
	}

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

// renderFiles lists files currently transferring.
func (m Model) renderFiles() string {
	var b strings.Builder

	shown := 0
	for _, f := range m.files {
		if f.Status != model.StatusTransferring {
			continue
		}
		if shown == maxFileRows {
			b.WriteString(dimStyle.Render("  ..."))
			b.WriteString("\n")
			break
		}
		var pct float64
		if f.Total > 0 {
			pct = float64(f.Written) / float64(f.Total)
		}
		b.WriteString(fmt.Sprintf("  %-34s %s %s\n",
			f.Name, m.fileBar.ViewAs(pct),
			dimStyle.Render(fileSize(f))))
		shown++
	}
	if shown > 0 {
		b.WriteString("\n")
	}

	return b.String()
}

func fileSize(f tlcprogress.TaskSnapshot) string {
	if f.Total > 0 {
		return fmt.Sprintf("%s / %s", tlcprogress.FormatBytes(f.Written), tlcprogress.FormatBytes(f.Total))
	}
	return tlcprogress.FormatBytes(f.Written)
}

func (m Model) viewComplete() string {
	var b strings.Builder

	s := m.summary
	title := "✨ Download Complete!"
	switch {
	case s.Cancelled > 0:
		title = "⚠ Download Cancelled"
	case s.Failed > 0:
		title = "Download finished with failures"
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Completed: %d\n"+
			"Skipped:   %d\n"+
			"Failed:    %d\n"+
			"Cancelled: %d\n"+
			"Size:      %s\n"+
			"Time:      %s",
		title,
		s.Completed, s.Skipped, s.Failed, s.Cancelled,
		tlcprogress.FormatBytes(s.Bytes),
		tlcprogress.FormatDuration(s.Duration),
	))
	b.WriteString(box)
	b.WriteString("\n")

	if len(s.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Failures:"))
		b.WriteString("\n")
		for i, f := range s.Failures {
			if i == maxLogs {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more", len(s.Failures)-maxLogs)))
				b.WriteString("\n")
				break
			}
			b.WriteString(errorStyle.Render("  ✗ " + f))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) rangeLabel() string {
	if m.start == m.end {
		return m.start.String()
	}
	return m.start.String() + " to " + m.end.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateType:
		return "↑/↓: select • enter: next • v: verbose • esc: quit"
	case StateMode:
		return "↑/↓: select • enter: next • v: verbose • esc: back"
	case StateStart, StateEnd, StateOutput:
		return "enter: next • esc: back"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}
