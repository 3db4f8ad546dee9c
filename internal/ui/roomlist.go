package ui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jklear/seance/internal/domain"
	"github.com/jklear/seance/internal/state"
)

// RoomListModel renders the sectioned sidebar and tracks the cursor over
// the visible rooms.
type RoomListModel struct {
	rooms     *state.RoomList
	cursor    int
	filtering bool
	focused   bool
	width     int
	height    int
}

func NewRoomListModel(rooms *state.RoomList) RoomListModel {
	return RoomListModel{rooms: rooms}
}

func (m RoomListModel) Update(msg tea.Msg) (RoomListModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		switch key.String() {
		case "enter", "esc":
			if key.String() == "esc" {
				m.rooms.SetFilter("")
			}
			m.filtering = false
		case "backspace":
			f := m.rooms.Filter()
			if f != "" {
				m.rooms.SetFilter(f[:len(f)-1])
			}
		default:
			if text := key.String(); len(text) == 1 {
				m.rooms.SetFilter(m.rooms.Filter() + text)
			}
		}
		m = m.clampCursor()
		return m, nil
	}

	switch key.String() {
	case "j", "down":
		m.cursor++
		m = m.clampCursor()
	case "k", "up":
		m.cursor--
		m = m.clampCursor()
	case "/":
		m.filtering = true
	case "enter":
		if room, ok := m.selected(); ok {
			roomID := room.RoomID
			return m, func() tea.Msg { return RoomSelectedMsg{RoomID: roomID} }
		}
	case "c":
		// Collapse the section the cursor is in.
		if section, ok := m.selectedSection(); ok {
			m.rooms.ToggleCollapsed(section)
			m = m.clampCursor()
		}
	}
	return m, nil
}

func (m RoomListModel) selected() (domain.RoomEntry, bool) {
	flat := m.rooms.Flatten()
	if m.cursor < 0 || m.cursor >= len(flat) {
		return domain.RoomEntry{}, false
	}
	return flat[m.cursor], true
}

func (m RoomListModel) selectedSection() (state.Section, bool) {
	idx := 0
	for _, view := range m.rooms.Sections() {
		if len(view.Rooms) == 0 {
			continue
		}
		if m.cursor < idx+len(view.Rooms) {
			return view.Section, true
		}
		idx += len(view.Rooms)
	}
	return 0, false
}

func (m RoomListModel) clampCursor() RoomListModel {
	max := len(m.rooms.Flatten()) - 1
	if m.cursor > max {
		m.cursor = max
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m RoomListModel) View() string {
	var b strings.Builder

	if m.rooms.Filter() != "" || m.filtering {
		b.WriteString("/" + m.rooms.Filter())
		if m.filtering {
			b.WriteString("▌")
		}
		b.WriteString("\n\n")
	}

	idx := 0
	for _, view := range m.rooms.Sections() {
		header := view.Section.Title()
		if view.Collapsed {
			header += " ▸"
		}
		b.WriteString(sectionHeaderStyle.Render(header) + "\n")
		for _, room := range view.Rooms {
			b.WriteString(m.renderRoom(room, idx == m.cursor))
			b.WriteString("\n")
			idx++
		}
		b.WriteString("\n")
	}

	contentH := m.height - 2
	if contentH < 0 {
		contentH = 0
	}
	content := truncateHeight(strings.TrimRight(b.String(), "\n"), contentH)

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(m.width).
		Height(m.height)
	style = applyBorderColor(style, m.focused)

	return style.Render(content)
}

func (m RoomListModel) renderRoom(room domain.RoomEntry, selected bool) string {
	contentWidth := m.width - 4
	if contentWidth < 1 {
		contentWidth = 1
	}

	name := room.Name
	if room.IsEncrypted {
		name = "🔒 " + name
	}

	badge := ""
	if room.MentionCount > 0 {
		badge = mentionBadgeStyle.Render(fmt.Sprintf(" @%d", room.MentionCount))
	} else if room.UnreadCount > 0 {
		badge = unreadBadgeStyle.Render(fmt.Sprintf(" (%d)", room.UnreadCount))
	}

	nameStyle := lipgloss.NewStyle().MaxWidth(contentWidth).MaxHeight(1)
	cursor := "  "
	if selected {
		cursor = "> "
		nameStyle = nameStyle.Foreground(lipgloss.Color("170")).Bold(true)
	}
	if room.UnreadCount > 0 {
		nameStyle = nameStyle.Bold(true)
	}

	return cursor + nameStyle.Render(name) + badge
}

func (m RoomListModel) SetSize(w, h int) RoomListModel {
	m.width = w
	m.height = h
	return m
}

func (m RoomListModel) SetFocused(f bool) RoomListModel {
	m.focused = f
	return m
}

// Refresh clamps the cursor after the underlying entries changed.
func (m RoomListModel) Refresh() RoomListModel {
	return m.clampCursor()
}
