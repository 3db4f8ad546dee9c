package ui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/jklear/seance/internal/domain"
	"github.com/jklear/seance/internal/matrix"
	"github.com/jklear/seance/internal/verification"
)

// RoomsUpdatedMsg delivers a fresh room-list projection from the sync
// loop.
type RoomsUpdatedMsg struct {
	Rooms []domain.RoomEntry
}

// IncomingEventsMsg delivers normalized live items for one room.
type IncomingEventsMsg struct {
	RoomID string
	Items  []domain.TimelineItem
}

// VerificationRequestMsg surfaces an incoming verification request.
type VerificationRequestMsg struct {
	Req domain.IncomingVerification
}

// SyncErrorMsg reports a failed sync attempt; the loop retries on its
// own.
type SyncErrorMsg struct {
	Err error
}

// ConnectedMsg announces a successful login or session restore and
// hands the model its client.
type ConnectedMsg struct {
	UserID string
	Client matrix.Client
}

// LoginFailedMsg reports a failed login attempt.
type LoginFailedMsg struct {
	Err error
}

// RoomSelectedMsg is emitted when the user picks a room in the sidebar.
type RoomSelectedMsg struct {
	RoomID string
}

// TimelineLoadedMsg delivers the initial page for a freshly opened room.
type TimelineLoadedMsg struct {
	RoomID string
	Items  []domain.TimelineItem
	Token  string
	Err    error
}

// OlderPageMsg delivers one backward pagination page.
type OlderPageMsg struct {
	RoomID string
	Items  []domain.TimelineItem
	Token  string
	Err    error
}

// sendDoneMsg reports the outcome of an async text send.
type sendDoneMsg struct {
	roomID string
	err    error
}

// attachmentDoneMsg reports the outcome of an async attachment send.
type attachmentDoneMsg struct {
	roomID string
	err    error
}

// MediaFetchedMsg delivers downloaded media bytes for a cache key.
type MediaFetchedMsg struct {
	Source string
	Data   []byte
	Err    error
}

// ProfileLoadedMsg delivers the queried avatar state for the profile
// panel.
type ProfileLoadedMsg struct {
	AvatarURL string
	Err       error
}

// avatarDoneMsg reports the outcome of an avatar change or clear.
type avatarDoneMsg struct {
	err error
}

// VerificationUpdateMsg carries one flow state change from the running
// supervisor.
type VerificationUpdateMsg struct {
	Update verification.Update
}

// VerificationStartedMsg delivers the request handle for a flow the user
// just started or accepted.
type VerificationStartedMsg struct {
	Req  verification.Request
	Peer string
	Err  error
}

// BootstrapDoneMsg reports the outcome of cross-signing bootstrap.
type BootstrapDoneMsg struct {
	Err error
}

// CrossSigningStatusMsg delivers the queried key state.
type CrossSigningStatusMsg struct {
	Status verification.CrossSigningStatus
}

// loadOlderMsg asks for the next backward page of the active room.
type loadOlderMsg struct {
	roomID string
}

// atBottomChangedMsg tracks whether the timeline viewport rests at the
// live edge.
type atBottomChangedMsg struct {
	roomID   string
	atBottom bool
}

// sendTextMsg is emitted when the user submits the composer.
type sendTextMsg struct {
	body    string
	replyTo *domain.ReplyContext
}

// attachFileMsg is emitted when the user submits the attach prompt.
type attachFileMsg struct {
	path string
}

// LogoutMsg tears the session down and quits.
type LogoutMsg struct{}

// Bridge adapts the sync loop's handler interface to program messages.
// It is safe to call from the sync goroutine.
type Bridge struct {
	send func(tea.Msg)
}

func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

func (b *Bridge) OnRoomsUpdated(rooms []domain.RoomEntry) {
	b.send(RoomsUpdatedMsg{Rooms: rooms})
}

func (b *Bridge) OnIncomingEvents(roomID string, items []domain.TimelineItem) {
	b.send(IncomingEventsMsg{RoomID: roomID, Items: items})
}

func (b *Bridge) OnVerificationRequest(req domain.IncomingVerification) {
	b.send(VerificationRequestMsg{Req: req})
}

func (b *Bridge) OnSyncError(err error) {
	b.send(SyncErrorMsg{Err: err})
}
