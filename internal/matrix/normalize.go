package matrix

import (
	"fmt"
	"strings"
	"time"

	"maunium.net/go/mautrix/event"

	"github.com/jklear/seance/internal/domain"
	"github.com/jklear/seance/internal/timeline"
)

// NormalizeEvent converts one raw timeline event into a display item.
// Unknown event kinds, membership changes other than join/leave, and
// malformed payloads are dropped (ok=false), never errors.
func NormalizeEvent(evt *event.Event, names map[string]string) (domain.TimelineItem, bool) {
	switch evt.Type {
	case event.EventMessage:
		content, ok := evt.Content.Parsed.(*event.MessageEventContent)
		if !ok {
			return domain.TimelineItem{}, false
		}
		return messageItem(evt, content, names), true

	case event.EventEncrypted:
		// Undecryptable payload: a placeholder the display layer must
		// treat as non-interactive (empty event id).
		return domain.MessageItem(domain.Message{Body: "[Unable to decrypt]"}), true

	case event.StateMember:
		content, ok := evt.Content.Parsed.(*event.MemberEventContent)
		if !ok || evt.StateKey == nil {
			return domain.TimelineItem{}, false
		}
		switch content.Membership {
		case event.MembershipJoin:
			return domain.StateEventItem(fmt.Sprintf("%s joined the room", *evt.StateKey)), true
		case event.MembershipLeave:
			return domain.StateEventItem(fmt.Sprintf("%s left the room", *evt.StateKey)), true
		default:
			return domain.TimelineItem{}, false
		}

	case event.StateRoomName:
		content, ok := evt.Content.Parsed.(*event.RoomNameEventContent)
		if !ok {
			return domain.TimelineItem{}, false
		}
		return domain.StateEventItem(fmt.Sprintf("Room name changed to: %s", content.Name)), true

	case event.StateTopic:
		content, ok := evt.Content.Parsed.(*event.TopicEventContent)
		if !ok {
			return domain.TimelineItem{}, false
		}
		return domain.StateEventItem(fmt.Sprintf("Topic changed to: %s", content.Topic)), true

	default:
		return domain.TimelineItem{}, false
	}
}

func messageItem(evt *event.Event, content *event.MessageEventContent, names map[string]string) domain.TimelineItem {
	sender := evt.Sender.String()
	display := names[sender]
	if display == "" {
		display = localpart(sender)
	}

	var image *domain.ImageRef
	rawBody := content.Body
	isEmote := false

	switch content.MsgType {
	case event.MsgText, event.MsgNotice:
	case event.MsgEmote:
		isEmote = true
	case event.MsgImage:
		image = &domain.ImageRef{Source: string(content.URL)}
	case event.MsgFile:
		rawBody = "[File]"
	case event.MsgAudio:
		rawBody = "[Audio]"
	case event.MsgVideo:
		rawBody = "[Video]"
	default:
		rawBody = "[Unsupported message type]"
	}

	replyInfo, body := timeline.ParseReplyFallback(rawBody)
	var reply *domain.ReplyPreview
	if replyInfo != nil {
		reply = &domain.ReplyPreview{SenderID: replyInfo.SenderID, BodyPreview: replyInfo.BodyPreview}
	}

	return domain.MessageItem(domain.Message{
		EventID:       evt.ID.String(),
		SenderID:      sender,
		SenderDisplay: display,
		Body:          body,
		Timestamp:     time.UnixMilli(evt.Timestamp).Local().Format("15:04"),
		IsEmote:       isEmote,
		Reply:         reply,
		Image:         image,
	})
}

// ItemsFromEvents normalizes a batch in order, interleaving a date
// separator wherever the local calendar day changes between consecutive
// surviving events. Events whose content cannot be parsed are skipped.
func ItemsFromEvents(events []*event.Event, names map[string]string, now time.Time) []domain.TimelineItem {
	var items []domain.TimelineItem
	var lastDay time.Time
	haveDay := false

	for _, evt := range events {
		if evt.Content.Parsed == nil {
			if err := evt.Content.ParseRaw(evt.Type); err != nil {
				continue
			}
		}
		item, ok := NormalizeEvent(evt, names)
		if !ok {
			continue
		}
		ts := time.UnixMilli(evt.Timestamp)
		if !haveDay || !timeline.SameLocalDay(lastDay, ts) {
			items = append(items, domain.DateSeparatorItem(timeline.DateLabel(ts, now)))
			lastDay = ts
			haveDay = true
		}
		items = append(items, item)
	}

	timeline.ApplyContinuations(items)
	return items
}

func localpart(userID string) string {
	s := strings.TrimPrefix(userID, "@")
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}
