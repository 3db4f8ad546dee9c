package timeline_test

import (
	"testing"

	"github.com/jklear/seance/internal/domain"
	"github.com/jklear/seance/internal/timeline"
)

func TestSetTimeline(t *testing.T) {
	s := timeline.New()
	items := []domain.TimelineItem{
		domain.DateSeparatorItem("Today"),
		msg("@alice:x", "hello"),
	}
	s.SetTimeline("!room:x", items, "tok-1")

	if s.RoomID != "!room:x" {
		t.Errorf("RoomID = %q, want %q", s.RoomID, "!room:x")
	}
	if len(s.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(s.Items))
	}
	if s.PaginationToken != "tok-1" {
		t.Errorf("PaginationToken = %q, want tok-1", s.PaginationToken)
	}
	if !s.AtBottom {
		t.Error("AtBottom = false after load, want true")
	}
}

func TestAppendLive_AtBottom_NoMarker(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "")

	s.AppendLive([]domain.TimelineItem{msg("@bob:x", "two")})

	for _, item := range s.Items {
		if item.Kind == domain.KindUnreadMarker {
			t.Fatal("unread marker inserted while at bottom")
		}
	}
}

func TestAppendLive_AwayInsertsSingleMarker(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "")
	s.SetAtBottom(false)

	s.AppendLive([]domain.TimelineItem{msg("@bob:x", "two")})
	s.AppendLive([]domain.TimelineItem{msg("@bob:x", "three")})

	markers := 0
	for _, item := range s.Items {
		if item.Kind == domain.KindUnreadMarker {
			markers++
		}
	}
	if markers != 1 {
		t.Errorf("markers = %d, want exactly 1 across two away batches", markers)
	}
}

func TestAppendLive_MarkerRearmsAfterReturnToBottom(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "")

	s.SetAtBottom(false)
	s.AppendLive([]domain.TimelineItem{msg("@bob:x", "two")})
	s.SetAtBottom(true)
	s.SetAtBottom(false)
	s.AppendLive([]domain.TimelineItem{msg("@bob:x", "three")})

	markers := 0
	for _, item := range s.Items {
		if item.Kind == domain.KindUnreadMarker {
			markers++
		}
	}
	if markers != 2 {
		t.Errorf("markers = %d, want 2 (one per away period)", markers)
	}
}

func TestAppendLive_EmptyBatchNoMarker(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "")
	s.SetAtBottom(false)

	s.AppendLive(nil)

	if len(s.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1 (empty batch is a no-op)", len(s.Items))
	}
}

func TestAppendLive_ContinuationAcrossBatchBoundary(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "")

	s.AppendLive([]domain.TimelineItem{msg("@alice:x", "two"), msg("@bob:x", "three")})

	if !s.Items[1].Message.IsContinuation {
		t.Error("same-sender message after boundary not marked as continuation")
	}
	if s.Items[2].Message.IsContinuation {
		t.Error("different-sender message marked as continuation")
	}
}

func TestAppendLive_MarkerBreaksContinuation(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "")
	s.SetAtBottom(false)

	s.AppendLive([]domain.TimelineItem{msg("@alice:x", "two")})

	last := s.Items[len(s.Items)-1]
	if last.Kind != domain.KindMessage {
		t.Fatalf("last item kind = %v, want message", last.Kind)
	}
	if last.Message.IsContinuation {
		t.Error("message after unread marker marked as continuation")
	}
}

func TestPrependHistory_SeamDedupeAndRegroup(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{
		domain.DateSeparatorItem("Today"),
		msg("@alice:x", "newer"),
	}, "tok-1")

	older := []domain.TimelineItem{
		domain.DateSeparatorItem("Yesterday"),
		msg("@alice:x", "oldest"),
		domain.DateSeparatorItem("Today"),
		msg("@alice:x", "old"),
	}
	s.PrependHistory(older, "tok-0")

	seps := 0
	for i := 0; i+1 < len(s.Items); i++ {
		a, b := s.Items[i], s.Items[i+1]
		if a.Kind == domain.KindDateSeparator && b.Kind == domain.KindDateSeparator && a.Label == b.Label {
			t.Errorf("adjacent duplicate separators %q at %d", a.Label, i)
		}
	}
	for _, item := range s.Items {
		if item.Kind == domain.KindDateSeparator && item.Label == "Today" {
			seps++
		}
	}
	if seps != 1 {
		t.Errorf("Today separators = %d, want 1 after seam dedupe", seps)
	}

	// "newer" follows "old" from the same sender with no boundary between
	// them after the merge, so it becomes a continuation.
	last := s.Items[len(s.Items)-1]
	if last.Message.Body != "newer" {
		t.Fatalf("last item body = %q, want newer", last.Message.Body)
	}
	if !last.Message.IsContinuation {
		t.Error("cross-seam same-sender message not regrouped")
	}
	if s.PaginationToken != "tok-0" {
		t.Errorf("PaginationToken = %q, want tok-0", s.PaginationToken)
	}
}

func TestPrependHistory_EmptyPageUpdatesTokenOnly(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "tok-1")
	s.Loading = true

	s.PrependHistory(nil, "")

	if s.Loading {
		t.Error("Loading still true after empty page")
	}
	if s.PaginationToken != "" {
		t.Errorf("PaginationToken = %q, want empty (history exhausted)", s.PaginationToken)
	}
	if len(s.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(s.Items))
	}
}

func TestReset(t *testing.T) {
	s := timeline.New()
	s.SetTimeline("!room:x", []domain.TimelineItem{msg("@alice:x", "one")}, "tok")
	s.Composer = "draft"
	s.Reset()

	if s.RoomID != "" || len(s.Items) != 0 || s.Composer != "" {
		t.Errorf("Reset left state behind: %+v", s)
	}
	if !s.AtBottom {
		t.Error("AtBottom = false after Reset, want true")
	}
}
