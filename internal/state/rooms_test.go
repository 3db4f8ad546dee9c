package state_test

import (
	"testing"
	"time"

	"github.com/jklear/seance/internal/domain"
	"github.com/jklear/seance/internal/state"
)

func entry(name string, opts ...func(*domain.RoomEntry)) domain.RoomEntry {
	e := domain.RoomEntry{RoomID: "!" + name + ":x", Name: name}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func fav(e *domain.RoomEntry)      { e.IsFavourite = true }
func dm(e *domain.RoomEntry)       { e.IsDM = true }
func lowPrio(e *domain.RoomEntry)  { e.IsLowPriority = true }
func unread(n int) func(*domain.RoomEntry) {
	return func(e *domain.RoomEntry) { e.UnreadCount = n }
}
func lastTS(t time.Time) func(*domain.RoomEntry) {
	return func(e *domain.RoomEntry) { e.LastMessageTS = t }
}

func sectionNames(views []state.SectionView) []string {
	var out []string
	for _, v := range views {
		out = append(out, v.Section.Title())
	}
	return out
}

func TestRoomList_Grouping(t *testing.T) {
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{
		entry("general"),
		entry("alice", dm),
		entry("announcements", fav),
		entry("spam", lowPrio),
		entry("starred-dm", fav, dm), // favourite wins over DM
	})

	views := l.Sections()
	got := sectionNames(views)
	want := []string{"Favourites", "People", "Rooms", "Low Priority"}
	if len(got) != len(want) {
		t.Fatalf("sections = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d = %q, want %q", i, got[i], want[i])
		}
	}
	if len(views[0].Rooms) != 2 {
		t.Errorf("favourites = %d rooms, want 2 (favourite beats DM)", len(views[0].Rooms))
	}
}

func TestRoomList_EmptySectionsOmitted(t *testing.T) {
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{entry("general")})

	views := l.Sections()
	if len(views) != 1 || views[0].Section != state.SectionRooms {
		t.Errorf("sections = %v, want only Rooms", sectionNames(views))
	}
}

func TestRoomList_Filter(t *testing.T) {
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{
		entry("General"),
		entry("Go Talk"),
		entry("random"),
	})
	l.SetFilter("ge")

	flat := l.Flatten()
	if len(flat) != 1 || flat[0].Name != "General" {
		t.Errorf("filtered = %+v, want only General (case-insensitive)", flat)
	}
}

func TestRoomList_SortRecentActivity(t *testing.T) {
	now := time.Now()
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{
		entry("old", lastTS(now.Add(-time.Hour))),
		entry("new", lastTS(now)),
		entry("middle", lastTS(now.Add(-time.Minute))),
	})

	flat := l.Flatten()
	want := []string{"new", "middle", "old"}
	for i, name := range want {
		if flat[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, flat[i].Name, name)
		}
	}
}

func TestRoomList_SortAlphabetical(t *testing.T) {
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{
		entry("zebra"),
		entry("Apple"),
		entry("mango"),
	})
	l.SetSortMode(state.SortAlphabetical)

	flat := l.Flatten()
	want := []string{"Apple", "mango", "zebra"}
	for i, name := range want {
		if flat[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, flat[i].Name, name)
		}
	}
}

func TestRoomList_UnreadFirst(t *testing.T) {
	now := time.Now()
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{
		entry("quiet-recent", lastTS(now)),
		entry("busy-old", lastTS(now.Add(-time.Hour)), unread(3)),
	})
	l.SetUnreadFirst(true)

	flat := l.Flatten()
	if flat[0].Name != "busy-old" {
		t.Errorf("first = %q, want the unread room ahead of newer quiet ones", flat[0].Name)
	}
}

func TestRoomList_CollapsedSectionKeepsHeader(t *testing.T) {
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{entry("general"), entry("alice", dm)})

	if !l.ToggleCollapsed(state.SectionPeople) {
		t.Fatal("ToggleCollapsed() = false after first toggle")
	}
	views := l.Sections()
	for _, v := range views {
		if v.Section == state.SectionPeople {
			if !v.Collapsed || len(v.Rooms) != 0 {
				t.Errorf("people view = %+v, want collapsed with no rooms", v)
			}
		}
	}
	// Collapsed rooms are not navigable.
	for _, e := range l.Flatten() {
		if e.Name == "alice" {
			t.Error("collapsed section leaked into Flatten()")
		}
	}
}

func TestRoomList_CollapsedPersistence(t *testing.T) {
	l := state.NewRoomList()
	l.ToggleCollapsed(state.SectionLowPriority)
	l.ToggleCollapsed(state.SectionFavourites)

	saved := l.CollapsedSections()

	restored := state.NewRoomList()
	restored.SetCollapsed(saved)
	if !restored.Collapsed(state.SectionFavourites) || !restored.Collapsed(state.SectionLowPriority) {
		t.Errorf("restored collapsed = %v, want favourites and low priority", saved)
	}
	if restored.Collapsed(state.SectionRooms) {
		t.Error("rooms section collapsed after restore")
	}
}

func TestRoomList_ClearUnread(t *testing.T) {
	l := state.NewRoomList()
	l.SetEntries([]domain.RoomEntry{
		entry("general", unread(5)),
		entry("other", unread(2)),
	})

	l.ClearUnread("!general:x")

	e, ok := l.Entry("!general:x")
	if !ok || e.UnreadCount != 0 {
		t.Errorf("entry = %+v, want cleared unread", e)
	}
	total, _ := l.TotalUnread()
	if total != 2 {
		t.Errorf("total unread = %d, want 2", total)
	}
}
