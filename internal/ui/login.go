package ui

import (
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// loginSubmitMsg carries the credentials out of the form.
type loginSubmitMsg struct {
	username string
	password string
}

// LoginModel is the full-screen login form shown when no session is
// stored.
type LoginModel struct {
	homeserver string
	username   textinput.Model
	password   textinput.Model
	focusPass  bool
	busy       bool
	errText    string
	width      int
	height     int
}

func NewLoginModel(homeserver string) LoginModel {
	username := textinput.New()
	username.Placeholder = "@user:example.org"
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	return LoginModel{
		homeserver: homeserver,
		username:   username,
		password:   password,
	}
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.busy {
		switch key.String() {
		case "tab", "shift+tab":
			m.focusPass = !m.focusPass
			if m.focusPass {
				m.username.Blur()
				return m, m.password.Focus()
			}
			m.password.Blur()
			return m, m.username.Focus()
		case "enter":
			if !m.focusPass {
				m.focusPass = true
				m.username.Blur()
				return m, m.password.Focus()
			}
			user, pass := m.username.Value(), m.password.Value()
			if user == "" || pass == "" {
				m.errText = "username and password are required"
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, func() tea.Msg { return loginSubmitMsg{username: user, password: pass} }
		}
	}

	var cmd tea.Cmd
	if m.focusPass {
		m.password, cmd = m.password.Update(msg)
	} else {
		m.username, cmd = m.username.Update(msg)
	}
	return m, cmd
}

// Fail re-enables the form after a rejected attempt.
func (m LoginModel) Fail(err error) LoginModel {
	m.busy = false
	m.errText = err.Error()
	return m
}

func (m LoginModel) View() string {
	form := fmt.Sprintf("Sign in to %s\n\nUser      %s\nPassword  %s\n",
		m.homeserver, m.username.View(), m.password.View())
	if m.busy {
		form += "\n" + stateEventStyle.Render("Signing in…")
	}
	if m.errText != "" {
		form += "\n" + errorStyle.Render(m.errText)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2).
		Render(form)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m LoginModel) SetSize(w, h int) LoginModel {
	m.width = w
	m.height = h
	m.username.SetWidth(32)
	m.password.SetWidth(32)
	return m
}
