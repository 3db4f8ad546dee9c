package matrix

import (
	"context"

	"maunium.net/go/mautrix/event"

	"github.com/jklear/seance/internal/domain"
)

// SyncResult is one sync response reduced to what the app consumes.
type SyncResult struct {
	NextBatch string
	// JoinedTimelines holds the new joined-timeline events per room, in
	// server order.
	JoinedTimelines map[string][]*event.Event
	// ToDevice holds the to-device events from the same response.
	ToDevice []*event.Event
}

// MessagesResult is one backward pagination page.
type MessagesResult struct {
	Events []*event.Event
	// End is the token for the next older page; empty means history is
	// exhausted.
	End string
}

// Client is the narrow contract the app consumes from the Matrix SDK.
// All methods are safe to call from background tasks; results flow back
// to the update loop as messages.
type Client interface {
	// Sync performs one long-poll sync from the given token ("" for a
	// full initial sync).
	Sync(ctx context.Context, since string) (*SyncResult, error)
	// Messages fetches one page of room history backward from the token
	// ("" starts at the live edge).
	Messages(ctx context.Context, roomID, from string, limit int) (*MessagesResult, error)
	// SendText sends a plain text message, optionally as a rich reply
	// carrying the quote fallback for clients that ignore relations.
	SendText(ctx context.Context, roomID, body string, reply *domain.ReplyContext) error
	// SendAttachment uploads bytes and sends the matching content event.
	SendAttachment(ctx context.Context, roomID, filename, mimeType string, data []byte) error
	// DownloadMedia fetches the full media bytes for an mxc source.
	DownloadMedia(ctx context.Context, source string) ([]byte, error)
	// Rooms projects the currently joined rooms into list entries.
	Rooms(ctx context.Context) ([]domain.RoomEntry, error)
	// DisplayNames returns the sender → display-name map for a room,
	// from locally synced membership state.
	DisplayNames(ctx context.Context, roomID string) map[string]string
	// SetFavourite adds or removes the m.favourite tag.
	SetFavourite(ctx context.Context, roomID string, favourite bool) error
	// AvatarURL returns the logged-in user's avatar source ("" when
	// unset).
	AvatarURL(ctx context.Context) (string, error)
	// SetAvatar uploads bytes and points the profile avatar at them.
	SetAvatar(ctx context.Context, filename, mimeType string, data []byte) error
	// ClearAvatar removes the profile avatar.
	ClearAvatar(ctx context.Context) error
	// WhoAmI returns the logged-in user id.
	WhoAmI() string
}
