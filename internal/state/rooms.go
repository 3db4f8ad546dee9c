package state

import (
	"sort"
	"strings"

	"github.com/jklear/seance/internal/domain"
)

// Section identifies one group of the sidebar room list.
type Section int

const (
	SectionFavourites Section = iota
	SectionPeople
	SectionRooms
	SectionLowPriority
)

func (s Section) Title() string {
	switch s {
	case SectionFavourites:
		return "Favourites"
	case SectionPeople:
		return "People"
	case SectionRooms:
		return "Rooms"
	case SectionLowPriority:
		return "Low Priority"
	default:
		return ""
	}
}

// sectionOrder is the fixed display order of the sidebar.
var sectionOrder = []Section{SectionFavourites, SectionPeople, SectionRooms, SectionLowPriority}

// SortMode selects how rooms are ordered within a section.
type SortMode int

const (
	SortRecentActivity SortMode = iota
	SortAlphabetical
)

// RoomList is the sidebar projection: the full entry set plus the view
// options applied to it. It is owned by the update loop and not safe for
// concurrent use.
type RoomList struct {
	entries     []domain.RoomEntry
	filter      string
	sortMode    SortMode
	unreadFirst bool
	collapsed   map[Section]bool
}

func NewRoomList() *RoomList {
	return &RoomList{collapsed: make(map[Section]bool)}
}

// SetEntries replaces the entry set with a fresh room-list projection.
func (l *RoomList) SetEntries(entries []domain.RoomEntry) {
	l.entries = entries
}

// Entry returns the entry for a room id, if present.
func (l *RoomList) Entry(roomID string) (domain.RoomEntry, bool) {
	for _, e := range l.entries {
		if e.RoomID == roomID {
			return e, true
		}
	}
	return domain.RoomEntry{}, false
}

// ClearUnread zeroes the unread counters for a room, used when the user
// opens it and the next sync has not caught up yet.
func (l *RoomList) ClearUnread(roomID string) {
	for i := range l.entries {
		if l.entries[i].RoomID == roomID {
			l.entries[i].UnreadCount = 0
			l.entries[i].MentionCount = 0
			return
		}
	}
}

func (l *RoomList) SetFilter(filter string)     { l.filter = filter }
func (l *RoomList) Filter() string              { return l.filter }
func (l *RoomList) SetSortMode(mode SortMode)   { l.sortMode = mode }
func (l *RoomList) SortMode() SortMode          { return l.sortMode }
func (l *RoomList) SetUnreadFirst(enabled bool) { l.unreadFirst = enabled }
func (l *RoomList) UnreadFirst() bool           { return l.unreadFirst }

// ToggleCollapsed flips the collapsed flag for a section and returns the
// new value.
func (l *RoomList) ToggleCollapsed(section Section) bool {
	l.collapsed[section] = !l.collapsed[section]
	return l.collapsed[section]
}

func (l *RoomList) Collapsed(section Section) bool {
	return l.collapsed[section]
}

// SetCollapsed restores persisted collapse flags.
func (l *RoomList) SetCollapsed(sections []Section) {
	l.collapsed = make(map[Section]bool)
	for _, s := range sections {
		l.collapsed[s] = true
	}
}

// CollapsedSections returns the currently collapsed sections in display
// order, for persistence.
func (l *RoomList) CollapsedSections() []Section {
	var out []Section
	for _, s := range sectionOrder {
		if l.collapsed[s] {
			out = append(out, s)
		}
	}
	return out
}

// SectionView is one rendered group of the sidebar.
type SectionView struct {
	Section   Section
	Collapsed bool
	Rooms     []domain.RoomEntry
}

// Sections projects the entries into display order: grouped, filtered and
// sorted. Empty sections are omitted; collapsed sections keep their
// header but carry no rooms.
func (l *RoomList) Sections() []SectionView {
	groups := make(map[Section][]domain.RoomEntry)
	needle := strings.ToLower(strings.TrimSpace(l.filter))
	for _, e := range l.entries {
		if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		s := sectionFor(e)
		groups[s] = append(groups[s], e)
	}

	var views []SectionView
	for _, s := range sectionOrder {
		rooms := groups[s]
		if len(rooms) == 0 {
			continue
		}
		l.sortRooms(rooms)
		view := SectionView{Section: s, Collapsed: l.collapsed[s]}
		if !view.Collapsed {
			view.Rooms = rooms
		}
		views = append(views, view)
	}
	return views
}

// Flatten returns every visible room in display order, for cursor
// navigation across section boundaries.
func (l *RoomList) Flatten() []domain.RoomEntry {
	var out []domain.RoomEntry
	for _, view := range l.Sections() {
		out = append(out, view.Rooms...)
	}
	return out
}

// TotalUnread sums unread counters across all entries, ignoring the
// filter.
func (l *RoomList) TotalUnread() (unread, mentions int) {
	for _, e := range l.entries {
		unread += e.UnreadCount
		mentions += e.MentionCount
	}
	return unread, mentions
}

// sectionFor places an entry in exactly one section. Favourite wins over
// DM, low priority loses to both.
func sectionFor(e domain.RoomEntry) Section {
	switch {
	case e.IsFavourite:
		return SectionFavourites
	case e.IsDM:
		return SectionPeople
	case e.IsLowPriority:
		return SectionLowPriority
	default:
		return SectionRooms
	}
}

func (l *RoomList) sortRooms(rooms []domain.RoomEntry) {
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i], rooms[j]
		if l.unreadFirst {
			au, bu := a.UnreadCount > 0, b.UnreadCount > 0
			if au != bu {
				return au
			}
		}
		switch l.sortMode {
		case SortAlphabetical:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		default:
			return a.LastMessageTS.After(b.LastMessageTS)
		}
	})
}
