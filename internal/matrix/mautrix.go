package matrix

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/jklear/seance/internal/domain"
)

const syncTimeoutMS = 30000

// MautrixClient implements the Client interface using maunium.net/go/mautrix.
// Because the app drives sync itself, room state (names, topics, membership,
// tags) is accumulated here from the sync responses that pass through.
type MautrixClient struct {
	cli    *mautrix.Client
	logger *zap.Logger

	mu      sync.Mutex
	rooms   map[string]*roomInfo
	direct  map[string]bool // room id → is a DM, from m.direct account data
	roomIDs []string        // join order, for stable projection
}

type roomInfo struct {
	name        string
	topic       string
	encrypted   bool
	favourite   bool
	lowPriority bool
	members     map[string]string // user id → display name
	lastMessage string
	lastTS      time.Time
	unread      int
	mentions    int
}

// Login authenticates with a password and returns a connected client plus
// the credentials to persist for session restore.
func Login(ctx context.Context, homeserver, username, password string, logger *zap.Logger) (*MautrixClient, *Credentials, error) {
	cli, err := mautrix.NewClient(homeserver, "", "")
	if err != nil {
		return nil, nil, fmt.Errorf("create client: %w", err)
	}
	resp, err := cli.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: username,
		},
		Password:         password,
		StoreCredentials: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	creds := &Credentials{
		UserID:      resp.UserID.String(),
		DeviceID:    resp.DeviceID.String(),
		AccessToken: resp.AccessToken,
	}
	return newMautrixClient(cli, logger), creds, nil
}

// Restore builds a client from previously stored credentials without a
// round trip to the homeserver.
func Restore(homeserver string, creds Credentials, logger *zap.Logger) (*MautrixClient, error) {
	cli, err := mautrix.NewClient(homeserver, id.UserID(creds.UserID), creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	cli.DeviceID = id.DeviceID(creds.DeviceID)
	return newMautrixClient(cli, logger), nil
}

// Credentials is the session state persisted between runs.
type Credentials struct {
	UserID      string `yaml:"user_id"`
	DeviceID    string `yaml:"device_id"`
	AccessToken string `yaml:"access_token"`
}

func newMautrixClient(cli *mautrix.Client, logger *zap.Logger) *MautrixClient {
	return &MautrixClient{
		cli:    cli,
		logger: logger,
		rooms:  make(map[string]*roomInfo),
		direct: make(map[string]bool),
	}
}

// SDK exposes the underlying mautrix client for wiring the crypto layer.
func (c *MautrixClient) SDK() *mautrix.Client {
	return c.cli
}

func (c *MautrixClient) WhoAmI() string {
	return c.cli.UserID.String()
}

// Sync performs one long-poll sync and folds the response's state into
// the local room bookkeeping before reducing it for the caller.
func (c *MautrixClient) Sync(ctx context.Context, since string) (*SyncResult, error) {
	resp, err := c.cli.SyncRequest(ctx, syncTimeoutMS, since, "", false, event.PresenceOnline)
	if err != nil {
		return nil, err
	}

	// Run the syncer's registered handlers (crypto, verification) over
	// the raw response before reducing it.
	if c.cli.Syncer != nil {
		if err := c.cli.Syncer.ProcessResponse(ctx, resp, since); err != nil {
			c.logger.Warn("sync post-processing failed", zap.Error(err))
		}
	}

	c.absorbAccountData(resp.AccountData.Events)

	res := &SyncResult{
		NextBatch:       resp.NextBatch,
		JoinedTimelines: make(map[string][]*event.Event),
	}
	for roomID, joined := range resp.Rooms.Join {
		c.absorbJoinedRoom(roomID.String(), joined)
		if len(joined.Timeline.Events) > 0 {
			res.JoinedTimelines[roomID.String()] = c.decryptBatch(ctx, joined.Timeline.Events)
		}
	}
	for roomID := range resp.Rooms.Leave {
		c.dropRoom(roomID.String())
	}
	res.ToDevice = resp.ToDevice.Events

	return res, nil
}

// decryptBatch replaces encrypted events with their decrypted form where
// the session is known. Events that cannot be decrypted pass through
// unchanged and render as placeholders.
func (c *MautrixClient) decryptBatch(ctx context.Context, events []*event.Event) []*event.Event {
	if c.cli.Crypto == nil {
		return events
	}
	out := make([]*event.Event, len(events))
	for i, evt := range events {
		if evt.Type != event.EventEncrypted {
			out[i] = evt
			continue
		}
		decrypted, err := c.cli.Crypto.Decrypt(ctx, evt)
		if err != nil {
			c.logger.Debug("decrypt failed", zap.String("event_id", evt.ID.String()), zap.Error(err))
			out[i] = evt
			continue
		}
		out[i] = decrypted
	}
	return out
}

// Messages fetches one page of history backward from the token and
// returns it in chronological order.
func (c *MautrixClient) Messages(ctx context.Context, roomID, from string, limit int) (*MessagesResult, error) {
	resp, err := c.cli.Messages(ctx, id.RoomID(roomID), from, "", mautrix.DirectionBackward, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	// The API returns newest-first for a backward walk; reverse it.
	events := make([]*event.Event, 0, len(resp.Chunk))
	for i := len(resp.Chunk) - 1; i >= 0; i-- {
		events = append(events, resp.Chunk[i])
	}
	return &MessagesResult{Events: c.decryptBatch(ctx, events), End: resp.End}, nil
}

func (c *MautrixClient) SendText(ctx context.Context, roomID, body string, reply *domain.ReplyContext) error {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    body,
	}
	if reply != nil {
		// Quote fallback ahead of the real body, for clients that do
		// not resolve the reply relation.
		content.Body = fmt.Sprintf("> <%s> %s\n\n%s", reply.SenderID, reply.BodyPreview, body)
		content.RelatesTo = &event.RelatesTo{
			InReplyTo: &event.InReplyTo{EventID: id.EventID(reply.EventID)},
		}
	}
	_, err := c.cli.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *MautrixClient) SendAttachment(ctx context.Context, roomID, filename, mimeType string, data []byte) error {
	upload, err := c.cli.UploadMedia(ctx, mautrix.ReqUploadMedia{
		ContentBytes: data,
		ContentType:  mimeType,
		FileName:     filename,
	})
	if err != nil {
		return fmt.Errorf("upload media: %w", err)
	}

	msgType := event.MsgFile
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		msgType = event.MsgImage
	case strings.HasPrefix(mimeType, "audio/"):
		msgType = event.MsgAudio
	case strings.HasPrefix(mimeType, "video/"):
		msgType = event.MsgVideo
	}

	content := &event.MessageEventContent{
		MsgType: msgType,
		Body:    filename,
		URL:     upload.ContentURI.CUString(),
		Info:    &event.FileInfo{MimeType: mimeType, Size: len(data)},
	}
	_, err = c.cli.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("send attachment: %w", err)
	}
	return nil
}

func (c *MautrixClient) DownloadMedia(ctx context.Context, source string) ([]byte, error) {
	uri, err := id.ParseContentURI(source)
	if err != nil {
		return nil, fmt.Errorf("parse media source: %w", err)
	}
	data, err := c.cli.DownloadBytes(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	return data, nil
}

// Rooms projects the accumulated room state into list entries.
func (c *MautrixClient) Rooms(ctx context.Context) ([]domain.RoomEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]domain.RoomEntry, 0, len(c.roomIDs))
	for _, roomID := range c.roomIDs {
		info := c.rooms[roomID]
		name := info.name
		if name == "" {
			name = c.fallbackName(roomID, info)
		}
		avatar := '#'
		for _, r := range name {
			avatar = r
			break
		}
		entries = append(entries, domain.RoomEntry{
			RoomID:        roomID,
			Name:          name,
			UnreadCount:   info.unread,
			MentionCount:  info.mentions,
			IsEncrypted:   info.encrypted,
			Topic:         info.topic,
			LastMessage:   info.lastMessage,
			LastMessageTS: info.lastTS,
			AvatarLetter:  avatar,
			IsFavourite:   info.favourite,
			IsLowPriority: info.lowPriority,
			IsDM:          c.direct[roomID],
		})
	}
	return entries, nil
}

// fallbackName derives a name for a room without m.room.name: the other
// member's display name for a two-person room, otherwise the room id.
// Callers hold c.mu.
func (c *MautrixClient) fallbackName(roomID string, info *roomInfo) string {
	if len(info.members) == 2 {
		self := c.cli.UserID.String()
		for userID, display := range info.members {
			if userID == self {
				continue
			}
			if display != "" {
				return display
			}
			return userID
		}
	}
	return roomID
}

func (c *MautrixClient) DisplayNames(ctx context.Context, roomID string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.rooms[roomID]
	if !ok {
		return nil
	}
	names := make(map[string]string, len(info.members))
	for userID, display := range info.members {
		if display != "" {
			names[userID] = display
		}
	}
	return names
}

func (c *MautrixClient) SetFavourite(ctx context.Context, roomID string, favourite bool) error {
	url := c.cli.BuildClientURL("v3", "user", c.cli.UserID.String(), "rooms", roomID, "tags", "m.favourite")
	var err error
	if favourite {
		body := struct {
			Order float64 `json:"order"`
		}{Order: 0.5}
		_, err = c.cli.MakeRequest(ctx, http.MethodPut, url, &body, nil)
	} else {
		_, err = c.cli.MakeRequest(ctx, http.MethodDelete, url, nil, nil)
	}
	if err != nil {
		return fmt.Errorf("set favourite: %w", err)
	}
	c.mu.Lock()
	if info, ok := c.rooms[roomID]; ok {
		info.favourite = favourite
	}
	c.mu.Unlock()
	return nil
}

func (c *MautrixClient) AvatarURL(ctx context.Context) (string, error) {
	uri, err := c.cli.GetAvatarURL(ctx, c.cli.UserID)
	if err != nil {
		return "", fmt.Errorf("get avatar url: %w", err)
	}
	if uri.IsEmpty() {
		return "", nil
	}
	return uri.String(), nil
}

func (c *MautrixClient) SetAvatar(ctx context.Context, filename, mimeType string, data []byte) error {
	upload, err := c.cli.UploadMedia(ctx, mautrix.ReqUploadMedia{
		ContentBytes: data,
		ContentType:  mimeType,
		FileName:     filename,
	})
	if err != nil {
		return fmt.Errorf("upload avatar: %w", err)
	}
	if err := c.cli.SetAvatarURL(ctx, upload.ContentURI); err != nil {
		return fmt.Errorf("set avatar url: %w", err)
	}
	return nil
}

func (c *MautrixClient) ClearAvatar(ctx context.Context) error {
	if err := c.cli.SetAvatarURL(ctx, id.ContentURI{}); err != nil {
		return fmt.Errorf("clear avatar url: %w", err)
	}
	return nil
}

func (c *MautrixClient) absorbAccountData(events []*event.Event) {
	for _, evt := range events {
		if evt.Type != event.AccountDataDirectChats {
			continue
		}
		if evt.Content.Parsed == nil {
			if err := evt.Content.ParseRaw(evt.Type); err != nil {
				continue
			}
		}
		content, ok := evt.Content.Parsed.(*event.DirectChatsEventContent)
		if !ok {
			continue
		}
		c.mu.Lock()
		c.direct = make(map[string]bool)
		for _, roomIDs := range *content {
			for _, roomID := range roomIDs {
				c.direct[roomID.String()] = true
			}
		}
		c.mu.Unlock()
	}
}

func (c *MautrixClient) absorbJoinedRoom(roomID string, joined *mautrix.SyncJoinedRoom) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.rooms[roomID]
	if !ok {
		info = &roomInfo{members: make(map[string]string)}
		c.rooms[roomID] = info
		c.roomIDs = append(c.roomIDs, roomID)
	}

	for _, evt := range joined.State.Events {
		c.absorbStateEvent(info, evt)
	}
	for _, evt := range joined.Timeline.Events {
		c.absorbStateEvent(info, evt)
		c.absorbLastMessage(info, evt)
	}
	for _, evt := range joined.AccountData.Events {
		c.absorbRoomTags(info, evt)
	}
	if joined.UnreadNotifications != nil {
		info.unread = joined.UnreadNotifications.NotificationCount
		info.mentions = joined.UnreadNotifications.HighlightCount
	}
}

func (c *MautrixClient) absorbStateEvent(info *roomInfo, evt *event.Event) {
	if evt.StateKey == nil {
		return
	}
	if evt.Content.Parsed == nil {
		if err := evt.Content.ParseRaw(evt.Type); err != nil {
			return
		}
	}
	switch evt.Type {
	case event.StateRoomName:
		if content, ok := evt.Content.Parsed.(*event.RoomNameEventContent); ok {
			info.name = content.Name
		}
	case event.StateTopic:
		if content, ok := evt.Content.Parsed.(*event.TopicEventContent); ok {
			info.topic = content.Topic
		}
	case event.StateEncryption:
		info.encrypted = true
	case event.StateMember:
		content, ok := evt.Content.Parsed.(*event.MemberEventContent)
		if !ok {
			return
		}
		switch content.Membership {
		case event.MembershipJoin:
			info.members[*evt.StateKey] = content.Displayname
		case event.MembershipLeave, event.MembershipBan:
			delete(info.members, *evt.StateKey)
		}
	}
}

func (c *MautrixClient) absorbLastMessage(info *roomInfo, evt *event.Event) {
	if evt.Type != event.EventMessage {
		return
	}
	if evt.Content.Parsed == nil {
		if err := evt.Content.ParseRaw(evt.Type); err != nil {
			return
		}
	}
	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok {
		return
	}
	info.lastMessage = previewBody(content)
	info.lastTS = time.UnixMilli(evt.Timestamp)
}

// previewBody reduces a message content to the short form shown in the
// room list: media become bracket placeholders, reply fallbacks are
// stripped.
func previewBody(content *event.MessageEventContent) string {
	switch content.MsgType {
	case event.MsgImage:
		return "[Image]"
	case event.MsgFile:
		return "[File]"
	case event.MsgAudio:
		return "[Audio]"
	case event.MsgVideo:
		return "[Video]"
	}
	body := content.Body
	if marker := strings.Index(body, "\n\n"); marker >= 0 && strings.HasPrefix(body, "> <@") {
		body = body[marker+2:]
	}
	return body
}

func (c *MautrixClient) absorbRoomTags(info *roomInfo, evt *event.Event) {
	if evt.Type != event.AccountDataRoomTags {
		return
	}
	if evt.Content.Parsed == nil {
		if err := evt.Content.ParseRaw(evt.Type); err != nil {
			return
		}
	}
	content, ok := evt.Content.Parsed.(*event.TagEventContent)
	if !ok {
		return
	}
	info.favourite = false
	info.lowPriority = false
	for tag := range content.Tags {
		switch string(tag) {
		case "m.favourite":
			info.favourite = true
		case "m.lowpriority":
			info.lowPriority = true
		}
	}
}

func (c *MautrixClient) dropRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[roomID]; !ok {
		return
	}
	delete(c.rooms, roomID)
	for i, rid := range c.roomIDs {
		if rid == roomID {
			c.roomIDs = append(c.roomIDs[:i], c.roomIDs[i+1:]...)
			break
		}
	}
}
