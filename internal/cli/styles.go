// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#4C9AFF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	MapIcon     = "📍"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the map icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(MapIcon + " " + title)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}

// RenderRunSummary renders the end-of-run box for a sync.
func RenderRunSummary(stats *model.RunStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  • Pages fetched: %d\n", stats.Pages)
	fmt.Fprintf(&b, "  • Customers seen: %d\n", stats.Customers)
	fmt.Fprintf(&b, "  • Partners listed: %d\n", stats.Partners)
	fmt.Fprintf(&b, "  • Cache hits: %d\n", stats.CacheHits)
	fmt.Fprintf(&b, "  • Newly geocoded: %d\n", stats.Geocoded)
	fmt.Fprintf(&b, "  • Skipped: %d", stats.TotalSkipped())

	for _, reason := range sortedReasons(stats.Skipped) {
		fmt.Fprintf(&b, "\n      %s: %d", reason, stats.Skipped[reason])
	}
	fmt.Fprintf(&b, "\n  • Policy: %s\n", stats.Policy)
	fmt.Fprintf(&b, "  • Time taken: %s", stats.Duration().Round(time.Millisecond))

	title := "Sync Complete"
	if stats.DryRun {
		title = "Dry Run Complete (nothing written)"
	}
	return RenderBox(title, b.String())
}

// RenderHistory renders run history as a table, newest first.
func RenderHistory(runs []model.SyncRun) string {
	if len(runs) == 0 {
		return FormatInfo("No sync runs recorded yet")
	}

	headers := []string{"Started", "Status", "Policy", "Partners", "Geocoded", "Skipped", "Duration"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := SuccessStyle.Render(string(run.Status))
		if run.Status == model.RunFailed {
			status = ErrorStyle.Render(string(run.Status))
		}
		if run.DryRun {
			status += SubtleStyle.Render(" (dry)")
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			run.Policy,
			fmt.Sprintf("%d", run.Partners),
			fmt.Sprintf("%d", run.Geocoded),
			fmt.Sprintf("%d", run.Skipped),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
		})
	}

	return renderTable(headers, rows)
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = TableCellStyle.Render(cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	lines := []string{renderRow(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sortedReasons(skipped map[model.SkipReason]int) []model.SkipReason {
	reasons := make([]model.SkipReason, 0, len(skipped))
	for reason, n := range skipped {
		if n > 0 {
			reasons = append(reasons, reason)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}
