package domain

import "time"

// ItemKind discriminates the TimelineItem variants.
type ItemKind int

const (
	KindMessage ItemKind = iota
	KindDateSeparator
	KindStateEvent
	KindUnreadMarker
)

// ImageRef points at a content-addressable media source (mxc:// URI).
// The bytes are fetched out-of-band and cached by event id.
type ImageRef struct {
	Source string
}

// ReplyPreview is the quoted-reply context recovered from a legacy
// fallback body. BodyPreview is capped at 80 runes.
type ReplyPreview struct {
	SenderID    string
	BodyPreview string
}

// Message is a displayable room message. An empty EventID marks a
// non-interactive placeholder (e.g. an undecryptable event): no reply
// action, no image cache key.
type Message struct {
	EventID        string
	SenderID       string
	SenderDisplay  string
	Body           string
	Timestamp      string // "15:04" label
	IsEmote        bool
	IsContinuation bool
	Reply          *ReplyPreview
	Image          *ImageRef
}

// TimelineItem is a closed variant over everything a room timeline can
// display. Message is meaningful only for KindMessage; DateSeparator and
// StateEvent carry their text in Label.
type TimelineItem struct {
	Kind    ItemKind
	Message Message
	Label   string
}

func MessageItem(m Message) TimelineItem {
	return TimelineItem{Kind: KindMessage, Message: m}
}

func DateSeparatorItem(label string) TimelineItem {
	return TimelineItem{Kind: KindDateSeparator, Label: label}
}

func StateEventItem(desc string) TimelineItem {
	return TimelineItem{Kind: KindStateEvent, Label: desc}
}

func UnreadMarkerItem() TimelineItem {
	return TimelineItem{Kind: KindUnreadMarker}
}

// ReplyContext identifies the message a composer reply targets.
type ReplyContext struct {
	EventID       string
	SenderID      string
	SenderDisplay string
	BodyPreview   string
}

// RoomEntry is one row of the room list.
type RoomEntry struct {
	RoomID        string
	Name          string
	UnreadCount   int
	MentionCount  int
	IsEncrypted   bool
	Topic         string
	LastMessage   string
	LastMessageTS time.Time
	AvatarLetter  rune
	IsFavourite   bool
	IsLowPriority bool
	IsDM          bool
}

// IncomingVerification is a to-device verification request observed by
// the sync loop before any local session exists for it.
type IncomingVerification struct {
	FlowID string
	Sender string
}
