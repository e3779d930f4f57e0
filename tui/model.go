package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bassamadnan/tmail/gmail"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type viewState int

const (
	viewLoading viewState = iota
	viewDashboard
	viewFocusedEmail
	viewFailures
)

const (
	emailListItemHeight = 4
	minListPaneWidth    = 30
	minPreviewPaneWidth = 40
)

// Model browses the messages and failures of one search.
type Model struct {
	ctx   context.Context
	load  Loader
	query string
	log   *log.Logger

	messages         []gmail.MessageSummary
	failures         []gmail.Failure
	filtered         int
	selectedIdx      int
	viewportTopLine  int
	previewScrollPos int

	currentView viewState

	width, height int
	statusBarText string
	statusIsError bool
	statusIsTemp  bool

	err error
}

// NewModel returns a browser for query whose results come from load.
func NewModel(ctx context.Context, query string, load Loader, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return Model{
		ctx:           ctx,
		load:          load,
		query:         query,
		log:           logger.WithPrefix("tui"),
		currentView:   viewLoading,
		statusBarText: fmt.Sprintf("Searching %q...", query),
		messages:      []gmail.MessageSummary{},
	}
}

func (m Model) Init() tea.Cmd {
	m.log.Debug("init", "query", m.query)
	return tea.Batch(
		loadResultsCmd(m.ctx, m.load),
		statusTickCmd(time.Second),
	)
}

func (m Model) listHeight() int {
	statusBarHeight := 1
	titleHeight := lipgloss.Height(EmailListTitleStyle.Render(" "))
	return max(m.height-statusBarHeight-titleHeight, 0)
}

func (m Model) itemsThatFit() int {
	return max(m.listHeight()/emailListItemHeight, 0)
}

func (m Model) selected() (gmail.MessageSummary, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.messages) {
		return gmail.MessageSummary{}, false
	}
	return m.messages[m.selectedIdx], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureSelectedVisible()

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "q" {
			m.updateStatusBar("Quitting...")
			return m, tea.Quit
		}
		switch m.currentView {
		case viewDashboard:
			m.handleDashboardKey(key, &cmds)
		case viewFocusedEmail, viewFailures:
			if key == "esc" {
				m.currentView = viewDashboard
				m.setStandardStatus()
			}
		}

	case ResultsLoadedMsg:
		m.setResult(msg.Result)
		m.currentView = viewDashboard
		m.err = nil
		m.setStandardStatus()
		if len(m.failures) > 0 {
			m.showTemporaryStatus(fmt.Sprintf("%d message(s) failed to load, press f", len(m.failures)), 4*time.Second, &cmds)
		}

	case ErrorMsg:
		m.log.Error("search failed", "query", m.query, "err", msg.Err)
		m.err = msg.Err
		m.updateStatusError(fmt.Sprintf("Error: %v", msg.Err))

	case StatusTickMsg:
		if !m.statusIsTemp && m.currentView != viewLoading && m.err == nil {
			m.setStandardStatus()
		}
		cmds = append(cmds, statusTickCmd(time.Second))

	case clearTempStatusMsg:
		if m.statusIsTemp {
			m.statusIsTemp = false
			m.setStandardStatus()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleDashboardKey(key string, cmds *[]tea.Cmd) {
	switch key {
	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
			m.ensureSelectedVisible()
			m.previewScrollPos = 0
		}
	case "down", "j":
		if m.selectedIdx < len(m.messages)-1 {
			m.selectedIdx++
			m.ensureSelectedVisible()
			m.previewScrollPos = 0
		}
	case "enter":
		if _, ok := m.selected(); ok {
			m.currentView = viewFocusedEmail
			m.setStandardStatus()
		}
	case "f":
		m.currentView = viewFailures
		m.setStandardStatus()
	case "r":
		m.currentView = viewLoading
		m.updateStatusBar(fmt.Sprintf("Searching %q...", m.query))
		*cmds = append(*cmds, loadResultsCmd(m.ctx, m.load))
	case "K": // Preview scroll up
		if m.previewScrollPos > 0 {
			m.previewScrollPos--
		}
	case "J": // Preview scroll down
		if email, ok := m.selected(); ok {
			if m.previewScrollPos < len(bodyLines(email.Body))-1 {
				m.previewScrollPos++
			}
		}
	}
}

// setResult replaces the listing, keeping the selection on the same message
// when it is still present.
func (m *Model) setResult(res *gmail.SearchResult) {
	prevID := ""
	if email, ok := m.selected(); ok {
		prevID = email.ID
	}

	m.messages = []gmail.MessageSummary{}
	m.failures = nil
	m.filtered = 0
	if res != nil {
		m.messages = append(m.messages, res.Messages...)
		m.failures = res.Failures
		m.filtered = res.Filtered
	}

	m.selectedIdx = 0
	for i, e := range m.messages {
		if e.ID == prevID {
			m.selectedIdx = i
			break
		}
	}
	m.previewScrollPos = 0
	m.ensureSelectedVisible()
}

func (m *Model) showTemporaryStatus(text string, duration time.Duration, cmds *[]tea.Cmd) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = true
	*cmds = append(*cmds, tea.Tick(duration, func(time.Time) tea.Msg {
		return clearTempStatusMsg{}
	}))
}

func (m *Model) updateStatusBar(text string) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = false
}

func (m *Model) updateStatusError(text string) {
	m.statusBarText = text
	m.statusIsError = true
	m.statusIsTemp = false
}

func (m *Model) setStandardStatus() {
	if m.statusIsTemp {
		return
	}

	statusMsg := fmt.Sprintf(" %q | %d messages, %d failed, %d filtered ",
		m.query, len(m.messages), len(m.failures), m.filtered)

	keyHints := "[Q/Ctrl+C]:Quit"
	switch m.currentView {
	case viewDashboard:
		keyHints += " | [↑↓/jk]:Nav | [Enter]:Full | [KJ]:Scroll Preview | [f]:Failures | [r]:Reload"
	case viewFocusedEmail, viewFailures:
		keyHints += " | [Esc]:Back"
	}
	m.updateStatusBar(statusMsg + "| " + keyHints)
}

func (m *Model) ensureSelectedVisible() {
	if len(m.messages) == 0 {
		m.viewportTopLine = 0
		return
	}

	fit := m.itemsThatFit()
	if fit <= 0 {
		m.viewportTopLine = m.selectedIdx
		return
	}

	if m.selectedIdx < m.viewportTopLine {
		m.viewportTopLine = m.selectedIdx
	} else if m.selectedIdx >= m.viewportTopLine+fit {
		m.viewportTopLine = m.selectedIdx - fit + 1
	}
	m.viewportTopLine = min(max(m.viewportTopLine, 0), max(len(m.messages)-fit, 0))
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing terminal size..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n   Search failed: %v\n\n   Press q to quit.", m.err)
	}

	contentHeight := max(m.height-1, 0)

	var mainUIView string
	switch m.currentView {
	case viewLoading:
		mainUIView = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, m.statusBarText)
	case viewDashboard:
		listWidth, previewWidth := m.paneWidths()
		mainUIView = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderEmailList(listWidth, contentHeight),
			m.renderPreviewPane(previewWidth, contentHeight),
		)
	case viewFocusedEmail:
		mainUIView = m.renderFocusedEmailView(m.width, contentHeight)
	case viewFailures:
		mainUIView = m.renderFailures(m.width, contentHeight)
	}

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, mainUIView, m.renderStatusBar()))
}

// paneWidths splits the dashboard between list and preview, giving the
// preview its minimum width when the terminal allows it.
func (m Model) paneWidths() (int, int) {
	if m.width < minListPaneWidth {
		return m.width, 0
	}
	if m.width < minListPaneWidth+minPreviewPaneWidth {
		return minListPaneWidth, m.width - minListPaneWidth
	}
	list := max(int(float64(m.width)*0.35), minListPaneWidth)
	list = min(list, m.width-minPreviewPaneWidth)
	return list, m.width - list
}

func (m Model) renderEmailList(paneWidth, paneHeight int) string {
	title := EmailListTitleStyle.Render(fmt.Sprintf("Results (%d)", len(m.messages)))
	itemsHeight := max(paneHeight-lipgloss.Height(title), 0)
	textWidth := max(paneWidth-EmailListItemStyle.GetPaddingLeft()-EmailListItemStyle.GetPaddingRight()-4, 10)

	start := min(max(m.viewportTopLine, 0), len(m.messages))
	end := min(start+itemsHeight/emailListItemHeight, len(m.messages))

	var items []string
	if paneWidth > 0 && paneHeight > 0 {
		for i := start; i < end; i++ {
			items = append(items, formatEmailListItem(m.messages[i], i == m.selectedIdx, textWidth))
		}
	}
	if len(m.messages) == 0 {
		items = append(items, NormalSecondaryTextStyle.Render(" No messages."))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n"))
	return EmailListStyle.Width(paneWidth).Height(paneHeight).Render(content)
}

func bodyLines(body string) []string {
	return strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
}

func (m Model) renderHeaders(email gmail.MessageSummary, width int) string {
	dateStr := "N/A"
	if t := internalTime(email.InternalDate); !t.IsZero() {
		dateStr = t.Local().Format(time.RFC1123)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", HeaderKeyStyle.Render("From:"), HeaderValStyle.Render(truncate(email.Sender, width-10)))
	fmt.Fprintf(&b, "%s %s\n", HeaderKeyStyle.Render("Date:"), HeaderValStyle.Render(dateStr))
	fmt.Fprintf(&b, "%s %s\n", HeaderKeyStyle.Render("Subject:"), HeaderValStyle.Render(truncate(email.Subject, width-12)))
	fmt.Fprintf(&b, "%s %s\n", HeaderKeyStyle.Render("Body:"), KindStyle.Render(email.Kind.String()))
	b.WriteString(strings.Repeat(BoxHorizontal, max(width/2, 0)))
	return b.String()
}

func (m Model) renderPreviewPane(paneWidth, paneHeight int) string {
	if paneWidth <= 0 || paneHeight <= 0 {
		return ""
	}
	titleHeight := lipgloss.Height(TitleStyle.Render(" "))
	innerHeight := max(paneHeight-titleHeight-ContentBoxStyle.GetVerticalPadding(), 0)
	inner := lipgloss.NewStyle().Width(paneWidth - ContentBoxStyle.GetHorizontalPadding()).MaxHeight(innerHeight)

	email, ok := m.selected()
	if !ok {
		return ContentBoxStyle.Width(paneWidth).Height(paneHeight).Render(lipgloss.JoinVertical(lipgloss.Top,
			TitleStyle.Render("Home"),
			inner.Padding(1).Render("\n[tmail]\n\nNo message selected or the result is empty."),
		))
	}

	headers := m.renderHeaders(email, paneWidth)
	bodyHeight := max(innerHeight-lipgloss.Height(headers), 0)

	lines := bodyLines(email.Body)
	start := min(max(m.previewScrollPos, 0), max(len(lines)-bodyHeight, 0))
	end := min(start+bodyHeight, len(lines))
	visible := ""
	if start < end {
		visible = strings.Join(lines[start:end], "\n")
	}

	title := TitleStyle.Render("Preview: " + truncate(email.Subject, paneWidth-(TitleStyle.GetHorizontalPadding()+12)))
	content := inner.Render(lipgloss.JoinVertical(lipgloss.Left, headers, BodyStyle.Render(visible)))
	return ContentBoxStyle.Width(paneWidth).Height(paneHeight).Render(lipgloss.JoinVertical(lipgloss.Top, title, content))
}

func (m Model) renderFocusedEmailView(paneWidth, paneHeight int) string {
	if paneWidth <= 0 || paneHeight <= 0 {
		return ""
	}
	titleHeight := lipgloss.Height(TitleStyle.Render(" "))
	inner := lipgloss.NewStyle().
		Width(paneWidth - ContentBoxStyle.GetHorizontalPadding()).
		MaxHeight(max(paneHeight-titleHeight-ContentBoxStyle.GetVerticalPadding(), 0))

	email, ok := m.selected()
	if !ok {
		return ContentBoxStyle.Width(paneWidth).Height(paneHeight).Render(lipgloss.JoinVertical(lipgloss.Top,
			TitleStyle.Render("Error"), inner.Padding(1).Render("No message selected."),
		))
	}

	var b strings.Builder
	b.WriteString(m.renderHeaders(email, paneWidth))
	fmt.Fprintf(&b, "\n%s %s\n", HeaderKeyStyle.Render("Id:"), HeaderValStyle.Render(email.ID))
	fmt.Fprintf(&b, "%s %s\n\n", HeaderKeyStyle.Render("Snippet:"), HeaderValStyle.Render(email.Snippet))
	b.WriteString(BodyStyle.Render(strings.ReplaceAll(email.Body, "\r\n", "\n")))

	title := TitleStyle.Render("Full View: " + truncate(email.Subject, paneWidth-(TitleStyle.GetHorizontalPadding()+15)))
	return ContentBoxStyle.Width(paneWidth).Height(paneHeight).Render(lipgloss.JoinVertical(lipgloss.Top, title, inner.Render(b.String())))
}

func (m Model) renderFailures(paneWidth, paneHeight int) string {
	if paneWidth <= 0 || paneHeight <= 0 {
		return ""
	}
	textWidth := paneWidth - ContentBoxStyle.GetHorizontalPadding() - 2
	var lines []string
	for _, f := range m.failures {
		lines = append(lines, formatFailure(f, textWidth))
	}
	if len(lines) == 0 {
		lines = append(lines, "Every message loaded.")
	}
	title := FailureTitleStyle.Render(fmt.Sprintf("Failures (%d)", len(m.failures)))
	return ContentBoxStyle.Width(paneWidth).Height(paneHeight).Render(
		lipgloss.JoinVertical(lipgloss.Top, title, strings.Join(lines, "\n")),
	)
}

func (m Model) renderStatusBar() string {
	styleToUse := StatusBarNormalStyle
	if m.statusIsError {
		styleToUse = StatusBarErrorStyle
	} else if m.statusIsTemp {
		styleToUse = StatusBarSuccessStyle
	}
	return styleToUse.Width(m.width).Render(truncate(m.statusBarText, m.width))
}
