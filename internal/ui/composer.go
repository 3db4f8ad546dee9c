package ui

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jklear/seance/internal/domain"
)

// composerRenderedHeight is the total height of the composer box
// (2 inner + 2 border).
const composerRenderedHeight = 4

// ComposerModel is the message input plus the reply bar and the attach
// prompt that shares its slot.
type ComposerModel struct {
	input     textinput.Model
	attach    textinput.Model
	attaching bool
	replyTo   *domain.ReplyContext
	sending   bool
	focused   bool
	width     int
	height    int
}

func NewComposerModel() ComposerModel {
	input := textinput.New()
	input.Placeholder = "Type a message…"

	attach := textinput.New()
	attach.Placeholder = "Path to file…"

	return ComposerModel{input: input, attach: attach}
}

func (m ComposerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ComposerModel) Update(msg tea.Msg) (ComposerModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if m.attaching {
			switch key.String() {
			case "enter":
				path := m.attach.Value()
				m.attach.SetValue("")
				m.attaching = false
				if path == "" {
					return m, nil
				}
				return m, func() tea.Msg { return attachFileMsg{path: path} }
			case "esc":
				m.attach.SetValue("")
				m.attaching = false
				return m, nil
			}
			var cmd tea.Cmd
			m.attach, cmd = m.attach.Update(msg)
			return m, cmd
		}

		switch key.String() {
		case "enter":
			body := m.input.Value()
			if body == "" || m.sending {
				return m, nil
			}
			m.input.SetValue("")
			replyTo := m.replyTo
			m.replyTo = nil
			return m, func() tea.Msg { return sendTextMsg{body: body, replyTo: replyTo} }
		case "esc":
			if m.replyTo != nil {
				m.replyTo = nil
				return m, nil
			}
		case "ctrl+o":
			m.attaching = true
			return m, m.attach.Focus()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ComposerModel) View() string {
	var lines []string

	switch {
	case m.attaching:
		lines = append(lines, "Attach: "+m.attach.View())
	case m.replyTo != nil:
		bar := replyPreviewStyle.Render("↩ " + m.replyTo.SenderDisplay + ": " + m.replyTo.BodyPreview)
		lines = append(lines, bar)
	case m.sending:
		lines = append(lines, stateEventStyle.Render("Sending…"))
	default:
		lines = append(lines, "")
	}
	lines = append(lines, m.input.View())

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	content = truncateHeight(content, m.height-2)

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(m.width).
		Height(m.height)
	style = applyBorderColor(style, m.focused)

	return style.Render(content)
}

func (m ComposerModel) SetSize(w, h int) ComposerModel {
	m.width = w
	m.height = h
	m.input.SetWidth(w - 4)
	m.attach.SetWidth(w - 12)
	return m
}

func (m ComposerModel) SetFocused(f bool) ComposerModel {
	m.focused = f
	if f && !m.attaching {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return m
}

// SetReplyTo arms or clears the reply bar.
func (m ComposerModel) SetReplyTo(ctx *domain.ReplyContext) ComposerModel {
	m.replyTo = ctx
	return m
}

func (m ComposerModel) ReplyTo() *domain.ReplyContext {
	return m.replyTo
}

// SetSending toggles the in-flight indicator and blocks double sends.
func (m ComposerModel) SetSending(v bool) ComposerModel {
	m.sending = v
	return m
}
