package timeline

import "github.com/jklear/seance/internal/domain"

// State is the authoritative timeline for the currently selected room.
// It is owned by the UI update loop: created empty on room selection,
// replaced wholesale on room switch, mutated in place otherwise, and
// never shared across goroutines.
type State struct {
	RoomID string
	Items  []domain.TimelineItem

	// PaginationToken marks the oldest fetched boundary. Empty means
	// history is exhausted, not merely unfetched.
	PaginationToken string

	Loading           bool
	Sending           bool
	AttachmentSending bool

	// AtBottom tracks whether the view is scrolled to the newest item.
	AtBottom bool
	// unreadMarkerInserted guards the at-most-one-marker-per-away-period
	// invariant. It resets when the timeline is replaced.
	unreadMarkerInserted bool

	Composer string
	ReplyTo  *domain.ReplyContext
}

// New returns an empty timeline state with the viewer at the bottom.
func New() *State {
	return &State{AtBottom: true}
}

// Reset discards all state, returning to the no-room-selected shape.
func (s *State) Reset() {
	*s = State{AtBottom: true}
}

// SetTimeline replaces the whole sequence after an initial room load.
func (s *State) SetTimeline(roomID string, items []domain.TimelineItem, token string) {
	s.RoomID = roomID
	s.Items = items
	s.PaginationToken = token
	s.Loading = false
	s.AtBottom = true
	s.unreadMarkerInserted = false
	s.ReplyTo = nil
}

// AppendLive appends a batch from the live sync loop. If the viewer is
// away from the bottom and no marker has been placed since they left it,
// a single UnreadMarker goes in front of the batch. Continuation flags
// are recomputed only across the appended tail.
func (s *State) AppendLive(items []domain.TimelineItem) {
	if len(items) == 0 {
		return
	}
	if !s.AtBottom && !s.unreadMarkerInserted {
		s.Items = append(s.Items, domain.UnreadMarkerItem())
		s.unreadMarkerInserted = true
	}
	start := len(s.Items)
	s.Items = append(s.Items, items...)
	applyContinuationsFrom(s.Items, start)
}

// SetAtBottom records the scroll position. Returning to the bottom ends
// the current away period and re-arms the unread marker.
func (s *State) SetAtBottom(atBottom bool) {
	s.AtBottom = atBottom
	if atBottom {
		s.unreadMarkerInserted = false
	}
}

// PrependHistory places an older page before the current sequence. The
// oldest existing item and the newest prepended item may carry the same
// date-separator label, so the seam is deduplicated, and continuation
// flags are recomputed across the merged sequence.
func (s *State) PrependHistory(items []domain.TimelineItem, token string) {
	s.Loading = false
	s.PaginationToken = token
	if len(items) == 0 {
		return
	}
	existing := s.Items
	// The prepended page usually ends mid-day, so the duplicate separator
	// at the seam is not adjacent to the batch's own. When the existing
	// head repeats the batch's last separator label, the head is the
	// duplicate.
	if label, ok := lastSeparatorLabel(items); ok && len(existing) > 0 {
		if existing[0].Kind == domain.KindDateSeparator && existing[0].Label == label {
			existing = existing[1:]
		}
	}
	merged := make([]domain.TimelineItem, 0, len(items)+len(existing))
	merged = append(merged, items...)
	merged = append(merged, existing...)
	merged = DedupeAdjacentDateSeparators(merged)
	ApplyContinuations(merged)
	s.Items = merged
}

func lastSeparatorLabel(items []domain.TimelineItem) (string, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Kind == domain.KindDateSeparator {
			return items[i].Label, true
		}
	}
	return "", false
}
