package ui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/jklear/seance/internal/verification"
)

var (
	statusBarBg     = lipgloss.Color("#353533")
	statusPillBg    = lipgloss.Color("#FF5FAF")
	statusPillBgOff = lipgloss.Color("#6C5098")
	statusTimeBg    = lipgloss.Color("#6124DF")
)

type statusModel struct {
	text      string
	connected bool
	roomName  string
	userID    string
	unread    int
	mentions  int
	crossSign verification.CrossSigningStatus
	width     int
}

func newStatusModel() statusModel {
	return statusModel{
		text:      "Connecting...",
		connected: false,
	}
}

func (m statusModel) SetWidth(w int) statusModel {
	m.width = w
	return m
}

func (m statusModel) SetRoomName(name string) statusModel {
	m.roomName = name
	return m
}

func (m statusModel) SetUserID(id string) statusModel {
	m.userID = id
	return m
}

func (m statusModel) SetUnread(unread, mentions int) statusModel {
	m.unread = unread
	m.mentions = mentions
	return m
}

func (m statusModel) SetCrossSigning(s verification.CrossSigningStatus) statusModel {
	m.crossSign = s
	return m
}

// View renders a full-width status bar:
// [STATUS pill] [room name] [unread] ... [shield] [user] [time pill]
func (m statusModel) View() string {
	pillBg := statusPillBgOff
	if m.connected {
		pillBg = statusPillBg
	}
	pillStyle := lipgloss.NewStyle().
		Background(pillBg).
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true).
		Padding(0, 1)
	pill := pillStyle.Render(strings.ToUpper(m.text))

	titleStyle := lipgloss.NewStyle().
		Background(statusBarBg).
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true).
		Padding(0, 1)
	title := titleStyle.Render(m.roomName)

	counts := ""
	if m.mentions > 0 {
		counts = fmt.Sprintf("@%d ", m.mentions)
	}
	if m.unread > 0 {
		counts += fmt.Sprintf("%d unread", m.unread)
	}
	countsPill := ""
	if counts != "" {
		countsPill = lipgloss.NewStyle().
			Background(statusBarBg).
			Foreground(lipgloss.Color("3")).
			Padding(0, 1).
			Render(counts)
	}

	shield := "🛡?"
	switch m.crossSign {
	case verification.CrossSigningVerified:
		shield = "🛡✓"
	case verification.CrossSigningUnverified:
		shield = "🛡✗"
	}
	shieldPill := lipgloss.NewStyle().
		Background(statusBarBg).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Render(shield)

	timeStyle := lipgloss.NewStyle().
		Background(statusTimeBg).
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true).
		Padding(0, 1)
	timePill := timeStyle.Render(time.Now().Format("15:04"))

	userStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("#7B5EA7")).
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true).
		Padding(0, 1)
	userPill := userStyle.Render(m.userID)

	left := pill + title + countsPill
	right := shieldPill + userPill + timePill

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Background(statusBarBg).
		Render(strings.Repeat(" ", gap))

	barStyle := lipgloss.NewStyle().
		Background(statusBarBg).
		Width(m.width)

	return barStyle.Render(left + filler + right)
}
