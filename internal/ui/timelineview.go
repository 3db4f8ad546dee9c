package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/jklear/seance/internal/domain"
	"github.com/jklear/seance/internal/media"
	"github.com/jklear/seance/internal/timeline"
)

// TimelineViewModel displays the active room's reconciled timeline in a
// viewport. Scrolling to the top requests an older page; resting at the
// bottom keeps the unread marker disarmed.
type TimelineViewModel struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	state    *timeline.State
	cache    *media.Cache
	ownID    string
	title    string
	focused  bool
	width    int
	height   int
}

func NewTimelineViewModel(cache *media.Cache) TimelineViewModel {
	vp := viewport.New()
	return TimelineViewModel{viewport: vp, cache: cache}
}

func (m TimelineViewModel) Update(msg tea.Msg) (TimelineViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j":
			m.viewport.ScrollDown(1)
			return m, m.positionCmd()
		case "k":
			m.viewport.ScrollUp(1)
			return m, m.positionCmd()
		case "G":
			m.viewport.GotoBottom()
			return m, m.positionCmd()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	var cmds []tea.Cmd
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	if posCmd := m.positionCmd(); posCmd != nil {
		cmds = append(cmds, posCmd)
	}
	return m, tea.Batch(cmds...)
}

// positionCmd reports bottom-edge transitions and asks for an older page
// when the user reaches the top.
func (m TimelineViewModel) positionCmd() tea.Cmd {
	if m.state == nil {
		return nil
	}
	roomID := m.state.RoomID
	var cmds []tea.Cmd

	atBottom := m.viewport.AtBottom()
	if atBottom != m.state.AtBottom {
		cmds = append(cmds, func() tea.Msg {
			return atBottomChangedMsg{roomID: roomID, atBottom: atBottom}
		})
	}
	if m.viewport.YOffset() == 0 && !m.state.Loading && m.state.PaginationToken != "" && len(m.state.Items) > 0 {
		cmds = append(cmds, func() tea.Msg {
			return loadOlderMsg{roomID: roomID}
		})
	}
	return tea.Batch(cmds...)
}

func (m TimelineViewModel) View() string {
	contentH := m.height - 2
	if contentH < 0 {
		contentH = 0
	}

	content := truncateHeight(m.viewport.View(), contentH)

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(m.width).
		Height(m.height)
	style = applyBorderColor(style, m.focused)

	return style.Render(content)
}

func (m TimelineViewModel) SetSize(w, h int) TimelineViewModel {
	m.width = w
	m.height = h
	vpW := w - 2
	vpH := h - 2
	if vpW < 1 {
		vpW = 1
	}
	if vpH < 1 {
		vpH = 1
	}
	m.viewport.SetWidth(vpW)
	m.viewport.SetHeight(vpH)
	m = m.recreateRenderer()
	return m.renderContent(true)
}

func (m TimelineViewModel) SetFocused(f bool) TimelineViewModel {
	m.focused = f
	return m
}

func (m TimelineViewModel) SetOwnID(userID string) TimelineViewModel {
	m.ownID = userID
	return m
}

func (m TimelineViewModel) SetTitle(title string) TimelineViewModel {
	m.title = title
	return m
}

// SetState points the view at a room's timeline state and re-renders
// from scratch, pinned to the live edge.
func (m TimelineViewModel) SetState(s *timeline.State) TimelineViewModel {
	m.state = s
	return m.renderContent(true)
}

// RefreshLive re-renders after live items were appended. The view only
// follows when pinned to the bottom.
func (m TimelineViewModel) RefreshLive() TimelineViewModel {
	if m.state == nil {
		return m
	}
	return m.renderContent(m.state.AtBottom)
}

// RefreshPrepend re-renders after history was merged at the top,
// preserving the reading position.
func (m TimelineViewModel) RefreshPrepend() TimelineViewModel {
	if m.state == nil {
		return m
	}
	oldTotalLines := m.viewport.TotalLineCount()
	m = m.renderContent(false)
	delta := m.viewport.TotalLineCount() - oldTotalLines
	if delta < 0 {
		delta = 0
	}
	m.viewport.SetYOffset(delta)
	return m
}

func (m TimelineViewModel) renderContent(gotoBottom bool) TimelineViewModel {
	if m.state == nil {
		m.viewport.SetContent("")
		return m
	}

	var b strings.Builder
	if m.state.Loading {
		b.WriteString(stateEventStyle.Render("Loading…") + "\n")
	} else if m.state.PaginationToken == "" && len(m.state.Items) > 0 {
		b.WriteString(stateEventStyle.Render("— beginning of history —") + "\n")
	}

	for _, item := range m.state.Items {
		switch item.Kind {
		case domain.KindDateSeparator:
			b.WriteString(daySeparatorStyle.Render(fmt.Sprintf("───── %s ─────", item.Label)) + "\n")
		case domain.KindStateEvent:
			b.WriteString(stateEventStyle.Render(item.Label) + "\n")
		case domain.KindUnreadMarker:
			b.WriteString(unreadMarkerStyle.Render("────── new messages ──────") + "\n")
		case domain.KindMessage:
			b.WriteString(m.renderMessage(item.Message))
		}
	}

	wrapped := lipgloss.NewStyle().Width(m.viewport.Width()).Render(b.String())
	m.viewport.SetContent(wrapped)
	if gotoBottom {
		m.viewport.GotoBottom()
	}
	return m
}

func (m TimelineViewModel) renderMessage(msg domain.Message) string {
	var b strings.Builder

	if !msg.IsContinuation {
		ts := timeStyle.Render(msg.Timestamp)
		name := peerNameStyle
		if msg.SenderID == m.ownID {
			name = ownNameStyle
		}
		b.WriteString(ts + " " + name.Render(msg.SenderDisplay) + "\n")
	}

	if msg.Reply != nil {
		preview := fmt.Sprintf("┃ %s: %s", msg.Reply.SenderID, msg.Reply.BodyPreview)
		b.WriteString("  " + replyPreviewStyle.Render(preview) + "\n")
	}

	body := msg.Body
	switch {
	case msg.IsEmote:
		b.WriteString("  " + emoteStyle.Render("* "+msg.SenderDisplay+" "+body) + "\n")
	case msg.Image != nil:
		label := "[Image: " + body + "]"
		if m.cache != nil && m.cache.Has(msg.Image.Source) {
			label = "[Image: " + body + " ✓]"
		}
		b.WriteString("  " + stateEventStyle.Render(label) + "\n")
	case looksLikeMarkdown(body):
		b.WriteString(indent(m.renderMarkdown(body)) + "\n")
	default:
		b.WriteString("  " + body + "\n")
	}
	return b.String()
}

func (m TimelineViewModel) recreateRenderer() TimelineViewModel {
	wordWrap := m.viewport.Width() - 2
	if wordWrap < 10 {
		wordWrap = 10
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wordWrap),
	)
	if err == nil {
		m.renderer = r
	}
	return m
}

func (m TimelineViewModel) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	r, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	r = strings.TrimRight(r, "\n ")
	r = strings.TrimLeft(r, "\n")
	return r
}

// looksLikeMarkdown gates glamour rendering to bodies that use the
// constructs worth the round trip.
func looksLikeMarkdown(body string) bool {
	return strings.Contains(body, "```") ||
		strings.Contains(body, "**") ||
		strings.Contains(body, "`")
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
