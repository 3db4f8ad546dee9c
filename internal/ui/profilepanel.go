package ui

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// profileSetAvatarMsg asks the root model to upload a new avatar image.
type profileSetAvatarMsg struct {
	path string
}

// profileClearAvatarMsg asks the root model to remove the avatar.
type profileClearAvatarMsg struct{}

// ProfilePanelModel is the modal account panel: the logged-in user id,
// the current avatar state, and the change/clear avatar actions. Like
// the verification panel it is an overlay; the root model routes keys
// here while it is visible.
type ProfilePanelModel struct {
	userID    string
	avatarURL string
	statusTxt string
	visible   bool
	prompting bool
	path      textinput.Model
	width     int
	height    int
}

func NewProfilePanelModel() ProfilePanelModel {
	path := textinput.New()
	path.Placeholder = "Path to image…"
	return ProfilePanelModel{path: path}
}

func (m ProfilePanelModel) Visible() bool {
	return m.visible
}

// Open shows the panel. The avatar state arrives separately via
// ProfileLoadedMsg.
func (m ProfilePanelModel) Open(userID string) ProfilePanelModel {
	m.userID = userID
	m.visible = true
	m.prompting = false
	m.statusTxt = ""
	return m
}

func (m ProfilePanelModel) Close() ProfilePanelModel {
	m.visible = false
	m.prompting = false
	m.path.SetValue("")
	return m
}

// SetAvatarURL records the fetched avatar source; empty means unset.
func (m ProfilePanelModel) SetAvatarURL(url string) ProfilePanelModel {
	m.avatarURL = url
	return m
}

func (m ProfilePanelModel) SetStatus(text string) ProfilePanelModel {
	m.statusTxt = text
	return m
}

func (m ProfilePanelModel) Update(msg tea.Msg) (ProfilePanelModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.prompting {
		switch key.String() {
		case "enter":
			path := strings.TrimSpace(m.path.Value())
			m.path.SetValue("")
			m.prompting = false
			if path == "" {
				return m, nil
			}
			return m, func() tea.Msg { return profileSetAvatarMsg{path: path} }
		case "esc":
			m.path.SetValue("")
			m.prompting = false
			return m, nil
		}
		var cmd tea.Cmd
		m.path, cmd = m.path.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "c":
		m.prompting = true
		m.statusTxt = ""
		return m, m.path.Focus()
	case "x":
		if m.avatarURL == "" {
			return m, nil
		}
		return m, func() tea.Msg { return profileClearAvatarMsg{} }
	case "esc", "q":
		return m.Close(), nil
	}
	return m, nil
}

func (m ProfilePanelModel) View() string {
	var b strings.Builder

	b.WriteString(ownNameStyle.Render(string(avatarLetter(m.userID))) + "  " + m.userID + "\n\n")

	if m.avatarURL != "" {
		b.WriteString("Avatar: set\n\n")
	} else {
		b.WriteString("Avatar: none (initial shown instead)\n\n")
	}

	if m.prompting {
		b.WriteString("Image: " + m.path.View())
	} else {
		b.WriteString("(c) change avatar   (x) clear   (esc) close")
	}
	if m.statusTxt != "" {
		b.WriteString("\n\n" + stateEventStyle.Render(m.statusTxt))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("5")).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// avatarLetter picks the initial displayed when no avatar image is set:
// the first rune of the user id's localpart, uppercased.
func avatarLetter(userID string) rune {
	for _, r := range strings.TrimPrefix(userID, "@") {
		return unicode.ToUpper(r)
	}
	return '?'
}

func (m ProfilePanelModel) SetSize(w, h int) ProfilePanelModel {
	m.width = w
	m.height = h
	return m
}
