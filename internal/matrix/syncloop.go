package matrix

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"maunium.net/go/mautrix/event"

	"github.com/jklear/seance/internal/domain"
)

// DefaultRetryDelay is how long the loop waits after a failed sync
// before retrying the same token.
const DefaultRetryDelay = 5 * time.Second

// UpdateHandler receives ordered updates from the sync loop. For one
// sync response, the room-list update is always delivered before the
// per-room incoming-event updates derived from it.
type UpdateHandler interface {
	OnRoomsUpdated(rooms []domain.RoomEntry)
	OnIncomingEvents(roomID string, items []domain.TimelineItem)
	OnVerificationRequest(req domain.IncomingVerification)
	OnSyncError(err error)
}

// SyncLoop performs successive incremental syncs and fans each response
// out to the handler. It has two states: syncing, and a fixed-interval
// backoff after an error. It runs until its context is cancelled
// (logout); there is no explicit stop.
type SyncLoop struct {
	client     Client
	handler    UpdateHandler
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewSyncLoop(client Client, handler UpdateHandler, logger *zap.Logger) *SyncLoop {
	return &SyncLoop{
		client:     client,
		handler:    handler,
		retryDelay: DefaultRetryDelay,
		logger:     logger,
	}
}

// SetRetryDelay overrides the post-error delay. Used by tests.
func (l *SyncLoop) SetRetryDelay(d time.Duration) {
	l.retryDelay = d
}

// Run blocks until ctx is cancelled. The first iteration is a full sync
// (empty token); each success feeds the server's continuation token into
// the next iteration. A failure emits an error update and retries the
// same token after the fixed delay — the token is never lost.
func (l *SyncLoop) Run(ctx context.Context) {
	since := ""
	for {
		res, err := l.client.Sync(ctx, since)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.logger.Warn("sync failed", zap.Error(err))
			l.handler.OnSyncError(err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.retryDelay):
			}
			continue
		}
		since = res.NextBatch
		l.dispatch(ctx, res)
	}
}

func (l *SyncLoop) dispatch(ctx context.Context, res *SyncResult) {
	rooms, err := l.client.Rooms(ctx)
	if err != nil {
		l.logger.Warn("room list projection failed", zap.Error(err))
	} else {
		l.handler.OnRoomsUpdated(rooms)
	}

	roomIDs := make([]string, 0, len(res.JoinedTimelines))
	for roomID := range res.JoinedTimelines {
		roomIDs = append(roomIDs, roomID)
	}
	sort.Strings(roomIDs)

	for _, roomID := range roomIDs {
		events := res.JoinedTimelines[roomID]
		if len(events) == 0 {
			continue
		}
		names := l.client.DisplayNames(ctx, roomID)
		items := ItemsFromEvents(events, names, time.Now())
		if len(items) > 0 {
			l.handler.OnIncomingEvents(roomID, items)
		}
	}

	for _, evt := range res.ToDevice {
		if evt.Type != event.ToDeviceVerificationRequest {
			continue
		}
		if evt.Content.Parsed == nil {
			if err := evt.Content.ParseRaw(evt.Type); err != nil {
				continue
			}
		}
		content, ok := evt.Content.Parsed.(*event.VerificationRequestEventContent)
		if !ok {
			continue
		}
		l.handler.OnVerificationRequest(domain.IncomingVerification{
			FlowID: string(content.TransactionID),
			Sender: evt.Sender.String(),
		})
	}
}
