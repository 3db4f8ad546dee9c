package ui

import (
	"bytes"
	"io"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/jklear/seance/internal/media"
	"github.com/jklear/seance/internal/state"
	"github.com/jklear/seance/internal/verification"
)

type seqMsg int

type seqDoneMsg struct{}

// seqModel records every seqMsg it receives, in arrival order.
type seqModel struct {
	got *[]int
}

func (m seqModel) Init() tea.Cmd { return nil }

func (m seqModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case seqMsg:
		*m.got = append(*m.got, int(msg))
	case seqDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m seqModel) View() tea.View { return tea.NewView("") }

func TestAppSendPreservesOrder(t *testing.T) {
	var got []int
	program := tea.NewProgram(seqModel{got: &got},
		tea.WithInput(bytes.NewReader(nil)),
		tea.WithOutput(io.Discard),
		tea.WithoutSignals(),
		tea.WithoutRenderer(),
	)
	app := &App{program: program}

	result := make(chan error, 1)
	go func() {
		_, err := program.Run()
		result <- err
	}()

	const n = 200
	for i := 0; i < n; i++ {
		app.Send(seqMsg(i))
	}
	app.Send(seqDoneMsg{})

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("program run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("program did not quit")
	}

	if len(got) != n {
		t.Fatalf("received %d messages, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("message at position %d = %d, want %d (delivery reordered)", i, v, i)
		}
	}
}

func newTestModel() Model {
	return NewModel("https://hs.example", state.NewRoomList(), media.NewCache(), &verification.Machine{}, &Hooks{})
}

func TestSelectRoomDiscardsPreviousRoomState(t *testing.T) {
	m := newTestModel()
	m.connected = true

	next, _ := m.Update(RoomSelectedMsg{RoomID: "!a:example.org"})
	m = next.(Model)
	if _, ok := m.timelines["!a:example.org"]; !ok {
		t.Fatal("no timeline state created for the selected room")
	}

	next, _ = m.Update(RoomSelectedMsg{RoomID: "!b:example.org"})
	m = next.(Model)
	if _, ok := m.timelines["!a:example.org"]; ok {
		t.Error("previous room's timeline state kept after switching away")
	}
	if _, ok := m.timelines["!b:example.org"]; !ok {
		t.Error("no timeline state for the newly selected room")
	}

	// Re-selecting the current room must not discard it.
	next, _ = m.Update(RoomSelectedMsg{RoomID: "!b:example.org"})
	m = next.(Model)
	if _, ok := m.timelines["!b:example.org"]; !ok {
		t.Error("re-selecting the active room dropped its state")
	}
}

func TestIncomingEventsIgnoredForUnopenedRoom(t *testing.T) {
	m := newTestModel()
	m.connected = true

	next, _ := m.Update(RoomSelectedMsg{RoomID: "!a:example.org"})
	m = next.(Model)
	next, _ = m.Update(RoomSelectedMsg{RoomID: "!b:example.org"})
	m = next.(Model)

	// Live events for the discarded room must not resurrect its state.
	next, _ = m.Update(IncomingEventsMsg{RoomID: "!a:example.org"})
	m = next.(Model)
	if _, ok := m.timelines["!a:example.org"]; ok {
		t.Error("live events recreated state for a room that is not open")
	}
}

func TestProfilePanelLifecycle(t *testing.T) {
	p := NewProfilePanelModel()
	if p.Visible() {
		t.Fatal("panel visible before opening")
	}

	p = p.Open("@dana:example.org")
	if !p.Visible() {
		t.Fatal("panel not visible after Open")
	}

	p = p.SetAvatarURL("mxc://example.org/abc123")
	if p.avatarURL != "mxc://example.org/abc123" {
		t.Errorf("avatarURL = %q, want the fetched source", p.avatarURL)
	}

	p = p.Close()
	if p.Visible() {
		t.Error("panel still visible after Close")
	}
}

func TestProfileLoadedUpdatesPanel(t *testing.T) {
	m := newTestModel()
	m.connected = true
	m.profile = m.profile.Open("@dana:example.org")

	next, _ := m.Update(ProfileLoadedMsg{AvatarURL: "mxc://example.org/abc123"})
	m = next.(Model)
	if m.profile.avatarURL != "mxc://example.org/abc123" {
		t.Errorf("panel avatarURL = %q, want the loaded source", m.profile.avatarURL)
	}
}

func TestAvatarLetter(t *testing.T) {
	cases := []struct {
		userID string
		want   rune
	}{
		{"@dana:example.org", 'D'},
		{"@ö:example.org", 'Ö'},
		{"plain", 'P'},
		{"", '?'},
	}
	for _, tc := range cases {
		if got := avatarLetter(tc.userID); got != tc.want {
			t.Errorf("avatarLetter(%q) = %q, want %q", tc.userID, got, tc.want)
		}
	}
}
