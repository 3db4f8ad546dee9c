package timeline

import (
	"time"

	"github.com/jklear/seance/internal/domain"
)

// ApplyContinuations sets IsContinuation on each message that directly
// follows another message from the same sender. Any non-message item
// breaks the run. Idempotent: flags derive solely from neighbouring
// senders.
func ApplyContinuations(items []domain.TimelineItem) {
	applyContinuationsFrom(items, 0)
}

// applyContinuationsFrom recomputes continuation flags for items[start:],
// seeding the sender run from the item immediately before start. Keeps
// live-append cost proportional to the batch.
func applyContinuationsFrom(items []domain.TimelineItem, start int) {
	lastSender := ""
	haveRun := false
	if start > 0 {
		if prev := items[start-1]; prev.Kind == domain.KindMessage {
			lastSender = prev.Message.SenderID
			haveRun = true
		}
	}
	for i := start; i < len(items); i++ {
		if items[i].Kind != domain.KindMessage {
			haveRun = false
			lastSender = ""
			continue
		}
		items[i].Message.IsContinuation = haveRun && items[i].Message.SenderID == lastSender
		lastSender = items[i].Message.SenderID
		haveRun = true
	}
}

// DedupeAdjacentDateSeparators collapses runs of identically-labelled
// date separators left at the seam after a history prepend.
func DedupeAdjacentDateSeparators(items []domain.TimelineItem) []domain.TimelineItem {
	out := items[:0]
	for _, item := range items {
		if item.Kind == domain.KindDateSeparator && len(out) > 0 {
			last := out[len(out)-1]
			if last.Kind == domain.KindDateSeparator && last.Label == item.Label {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// DateLabel renders a calendar-day label relative to now, in the viewer's
// local timezone.
func DateLabel(ts, now time.Time) string {
	day := func(t time.Time) time.Time {
		y, m, d := t.Local().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}
	eventDay := day(ts)
	today := day(now)
	switch {
	case eventDay.Equal(today):
		return "Today"
	case eventDay.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return eventDay.Format("January 2, 2006")
	}
}

// SameLocalDay reports whether two instants fall on the same calendar day
// in the viewer's local timezone.
func SameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
