package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bassamadnan/tmail/gmail"
	"github.com/charmbracelet/lipgloss"
)

// truncate shortens a string to at most maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// internalTime converts the API's epoch milliseconds.
func internalTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// formatEmailDate formats the date for display in the email list.
func formatEmailDate(t time.Time) string {
	if t.IsZero() {
		return "???"
	}
	now := time.Now()
	if t.Year() == now.Year() && t.Month() == now.Month() && t.Day() == now.Day() {
		return t.Local().Format("15:04") // Time only for today
	}
	return t.Local().Format("Jan02")
}

// shortSender drops the address part of "Name <addr>".
func shortSender(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		from = strings.TrimSpace(from[:idx])
	}
	if from == "" {
		return "(Unknown Sender)"
	}
	return from
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// formatEmailListItem renders one message as a four line box.
// contentWidth is the width of the text between the box's vertical bars.
func formatEmailListItem(msg gmail.MessageSummary, isSelected bool, contentWidth int) string {
	boxCharStyle, subjectStyle, secondaryTextStyle := NormalBoxCharStyle, NormalSubjectStyle, NormalSecondaryTextStyle
	itemBlockStyle := EmailListItemStyle
	if isSelected {
		boxCharStyle, subjectStyle, secondaryTextStyle = SelectedBoxCharStyle, SelectedSubjectStyle, SelectedSecondaryTextStyle
		itemBlockStyle = SelectedEmailListItemStyle
	}

	subject := msg.Subject
	if subject == "" {
		subject = "(No Subject)"
	}
	subjectLine := pad(truncate(subject, contentWidth), contentWidth)

	dateStr := formatEmailDate(internalTime(msg.InternalDate))
	var secondary string
	if maxFromLen := contentWidth - len(dateStr) - 1; maxFromLen < 1 {
		secondary = truncate(dateStr, contentWidth)
	} else {
		secondary = fmt.Sprintf("%s %s", truncate(shortSender(msg.Sender), maxFromLen), dateStr)
	}
	secondaryLine := pad(secondary, contentWidth)

	horizontalBar := strings.Repeat(BoxHorizontal, contentWidth+2)
	lines := []string{
		boxCharStyle.Render(BoxTopLeft + horizontalBar + BoxTopRight),
		fmt.Sprintf("%s %s %s", boxCharStyle.Render(BoxVertical), subjectStyle.Render(subjectLine), boxCharStyle.Render(BoxVertical)),
		fmt.Sprintf("%s %s %s", boxCharStyle.Render(BoxVertical), secondaryTextStyle.Render(secondaryLine), boxCharStyle.Render(BoxVertical)),
		boxCharStyle.Render(BoxBottomLeft + horizontalBar + BoxBottomRight),
	}
	return itemBlockStyle.Render(strings.Join(lines, "\n"))
}

// formatFailure renders one failed fetch for the failures pane.
func formatFailure(f gmail.Failure, width int) string {
	return FailureIDStyle.Render(f.ID) + " " + FailureTextStyle.Render(truncate(f.Error, width-len(f.ID)-1))
}
