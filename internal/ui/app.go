package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/gabriel-vasile/mimetype"

	"github.com/jklear/seance/internal/domain"
	"github.com/jklear/seance/internal/matrix"
	"github.com/jklear/seance/internal/media"
	"github.com/jklear/seance/internal/state"
	"github.com/jklear/seance/internal/timeline"
	"github.com/jklear/seance/internal/verification"
)

type focusTarget int

const (
	focusRoomList focusTarget = iota
	focusTimeline
	focusComposer
)

const roomListWidth = 36
const historyPageSize = 50

// Hooks are the callbacks the model uses to reach the world outside the
// update loop. Send is safe to call from any goroutine.
type Hooks struct {
	// Connect logs in (or restores a session), starts the sync loop and
	// returns the ready client.
	Connect func(ctx context.Context, username, password string) (matrix.Client, error)
	// Logout stops the sync loop and clears stored credentials.
	Logout func()
	// Verifier returns the verification service, or nil when the crypto
	// stack is not available.
	Verifier func() verification.Service
	// SaveView persists the room-list view options.
	SaveView func(sort state.SortMode, unreadFirst bool, collapsed []state.Section)
	// Send injects a message into the program from outside.
	Send func(tea.Msg)
}

// Model is the root Bubble Tea model.
type Model struct {
	login        LoginModel
	roomList     RoomListModel
	timelineView TimelineViewModel
	composer     ComposerModel
	verifyPanel  VerifyPanelModel
	profile      ProfilePanelModel
	status       statusModel

	hooks   *Hooks
	rooms   *state.RoomList
	cache   *media.Cache
	machine *verification.Machine

	client    matrix.Client
	connected bool
	userID    string
	// password is held for the cross-signing UIA retry and dropped after
	// bootstrap finishes.
	password       string
	bootstrapTried bool

	timelines  map[string]*timeline.State
	activeRoom string

	focus  focusTarget
	width  int
	height int
}

// NewModel creates the root model with all sub-components. hooks is
// shared with the caller, which may fill in fields after construction
// but before the program runs.
func NewModel(homeserver string, rooms *state.RoomList, cache *media.Cache, machine *verification.Machine, hooks *Hooks) Model {
	return Model{
		login:        NewLoginModel(homeserver),
		roomList:     NewRoomListModel(rooms),
		timelineView: NewTimelineViewModel(cache),
		composer:     NewComposerModel(),
		verifyPanel:  NewVerifyPanelModel(machine),
		profile:      NewProfilePanelModel(),
		status:       newStatusModel(),
		hooks:        hooks,
		rooms:        rooms,
		cache:        cache,
		machine:      machine,
		timelines:    make(map[string]*timeline.State),
		focus:        focusRoomList,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.login.Init(), m.composer.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.distributeSize()
		return m, nil

	// -- connection --

	case loginSubmitMsg:
		connect := m.hooks.Connect
		user, pass := msg.username, msg.password
		m.password = pass
		return m, func() tea.Msg {
			client, err := connect(context.Background(), user, pass)
			if err != nil {
				return LoginFailedMsg{Err: err}
			}
			return ConnectedMsg{UserID: client.WhoAmI(), Client: client}
		}

	case LoginFailedMsg:
		m.login = m.login.Fail(msg.Err)
		return m, nil

	case ConnectedMsg:
		m.client = msg.Client
		m.connected = true
		m.userID = msg.UserID
		m.timelineView = m.timelineView.SetOwnID(msg.UserID)
		m.status = m.status.SetUserID(msg.UserID)
		m.status.text = "online"
		m.status.connected = true
		return m, m.crossSignStatusCmd()

	case LogoutMsg:
		if m.hooks.Logout != nil {
			m.hooks.Logout()
		}
		return m, tea.Quit

	// -- sync updates --

	case RoomsUpdatedMsg:
		m.rooms.SetEntries(msg.Rooms)
		m.roomList = m.roomList.Refresh()
		unread, mentions := m.rooms.TotalUnread()
		m.status = m.status.SetUnread(unread, mentions)
		return m, nil

	case IncomingEventsMsg:
		st, ok := m.timelines[msg.RoomID]
		if !ok {
			// Room not open; the unread badge from the room list is the
			// only trace we keep.
			return m, nil
		}
		st.AppendLive(msg.Items)
		if msg.RoomID == m.activeRoom {
			m.timelineView = m.timelineView.RefreshLive()
			if st.AtBottom {
				m.rooms.ClearUnread(msg.RoomID)
			}
		}
		cmds = append(cmds, m.mediaCmds(msg.Items)...)
		return m, tea.Batch(cmds...)

	case SyncErrorMsg:
		m.status.text = "reconnecting"
		m.status.connected = false
		return m, nil

	// -- room selection and history --

	case RoomSelectedMsg:
		return m.selectRoom(msg.RoomID)

	case TimelineLoadedMsg:
		st, ok := m.timelines[msg.RoomID]
		if !ok {
			return m, nil
		}
		st.Loading = false
		if msg.Err != nil {
			m.status.text = fmt.Sprintf("load failed: %v", msg.Err)
			return m, nil
		}
		st.SetTimeline(msg.RoomID, msg.Items, msg.Token)
		if msg.RoomID == m.activeRoom {
			m.timelineView = m.timelineView.SetState(st)
		}
		return m, tea.Batch(m.mediaCmds(msg.Items)...)

	case loadOlderMsg:
		st, ok := m.timelines[msg.roomID]
		if !ok || st.Loading || st.PaginationToken == "" {
			return m, nil
		}
		st.Loading = true
		return m, m.pageCmd(msg.roomID, st.PaginationToken)

	case OlderPageMsg:
		st, ok := m.timelines[msg.RoomID]
		if !ok {
			return m, nil
		}
		st.Loading = false
		if msg.Err != nil {
			m.status.text = fmt.Sprintf("pagination failed: %v", msg.Err)
			return m, nil
		}
		st.PrependHistory(msg.Items, msg.Token)
		if msg.RoomID == m.activeRoom {
			m.timelineView = m.timelineView.RefreshPrepend()
		}
		return m, tea.Batch(m.mediaCmds(msg.Items)...)

	case atBottomChangedMsg:
		if st, ok := m.timelines[msg.roomID]; ok {
			st.SetAtBottom(msg.atBottom)
			if msg.atBottom && msg.roomID == m.activeRoom {
				m.rooms.ClearUnread(msg.roomID)
			}
		}
		return m, nil

	// -- sending --

	case sendTextMsg:
		if m.activeRoom == "" || m.client == nil {
			return m, nil
		}
		m.composer = m.composer.SetSending(true)
		client, roomID := m.client, m.activeRoom
		body, replyTo := msg.body, msg.replyTo
		return m, func() tea.Msg {
			err := client.SendText(context.Background(), roomID, body, replyTo)
			return sendDoneMsg{roomID: roomID, err: err}
		}

	case sendDoneMsg:
		m.composer = m.composer.SetSending(false)
		if msg.err != nil {
			m.status.text = fmt.Sprintf("send failed: %v", msg.err)
		}
		return m, nil

	case attachFileMsg:
		if m.activeRoom == "" || m.client == nil {
			return m, nil
		}
		m.composer = m.composer.SetSending(true)
		client, roomID := m.client, m.activeRoom
		path := msg.path
		return m, func() tea.Msg {
			data, err := os.ReadFile(path)
			if err != nil {
				return attachmentDoneMsg{roomID: roomID, err: err}
			}
			mime := mimetype.Detect(data)
			err = client.SendAttachment(context.Background(), roomID, filepath.Base(path), mime.String(), data)
			return attachmentDoneMsg{roomID: roomID, err: err}
		}

	case attachmentDoneMsg:
		m.composer = m.composer.SetSending(false)
		if msg.err != nil {
			m.status.text = fmt.Sprintf("attachment failed: %v", msg.err)
		}
		return m, nil

	case MediaFetchedMsg:
		if msg.Err != nil {
			m.cache.AbortFetch(msg.Source)
			return m, nil
		}
		m.cache.Put(msg.Source, msg.Data)
		if m.activeRoom != "" {
			m.timelineView = m.timelineView.RefreshLive()
		}
		return m, nil

	// -- profile --

	case ProfileLoadedMsg:
		if msg.Err != nil {
			m.profile = m.profile.SetStatus(fmt.Sprintf("profile load failed: %v", msg.Err))
			return m, nil
		}
		m.profile = m.profile.SetAvatarURL(msg.AvatarURL)
		return m, nil

	case profileSetAvatarMsg:
		if m.client == nil {
			return m, nil
		}
		m.profile = m.profile.SetStatus("uploading…")
		client, path := m.client, msg.path
		return m, func() tea.Msg {
			data, err := os.ReadFile(path)
			if err != nil {
				return avatarDoneMsg{err: err}
			}
			mime := mimetype.Detect(data)
			return avatarDoneMsg{err: client.SetAvatar(context.Background(), filepath.Base(path), mime.String(), data)}
		}

	case profileClearAvatarMsg:
		if m.client == nil {
			return m, nil
		}
		client := m.client
		return m, func() tea.Msg {
			return avatarDoneMsg{err: client.ClearAvatar(context.Background())}
		}

	case avatarDoneMsg:
		if msg.err != nil {
			m.profile = m.profile.SetStatus(fmt.Sprintf("avatar update failed: %v", msg.err))
			return m, nil
		}
		m.profile = m.profile.SetStatus("avatar updated")
		return m, m.profileLoadCmd()

	// -- verification --

	case VerificationRequestMsg:
		m.machine.ObserveIncoming(msg.Req)
		return m, nil

	case verifyActionMsg:
		return m.handleVerifyAction(msg.action)

	case VerificationStartedMsg:
		if msg.Err != nil {
			m.status.text = fmt.Sprintf("verification failed: %v", msg.Err)
			m.machine.ClearActive()
			return m, nil
		}
		if active := m.machine.Active(); active == nil || active.FlowID != msg.Req.FlowID() {
			m.machine.StartOutgoing(msg.Req.FlowID(), msg.Peer)
		}
		return m, m.runFlowCmd(msg.Req)

	case VerificationUpdateMsg:
		m.machine.Apply(msg.Update)
		if msg.Update.Kind == verification.UpdateDone {
			return m, m.crossSignStatusCmd()
		}
		return m, nil

	case BootstrapDoneMsg:
		m.password = ""
		if msg.Err != nil {
			m.status.text = fmt.Sprintf("cross-signing: %v", msg.Err)
			return m, nil
		}
		return m, m.crossSignStatusCmd()

	case CrossSigningStatusMsg:
		m.status = m.status.SetCrossSigning(msg.Status)
		if msg.Status == verification.CrossSigningUnverified && !m.bootstrapTried {
			m.bootstrapTried = true
			return m, m.bootstrapCmd()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.connected {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}

	if m.verifyPanel.Visible() {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.verifyPanel, cmd = m.verifyPanel.Update(msg)
		return m, cmd
	}

	if m.profile.Visible() {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.profile, cmd = m.profile.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.focus != focusComposer {
			return m, tea.Quit
		}
	case "ctrl+l":
		return m, func() tea.Msg { return LogoutMsg{} }
	case "ctrl+v":
		return m, m.startVerificationCmd()
	case "ctrl+p":
		m.profile = m.profile.Open(m.userID)
		return m, m.profileLoadCmd()
	case "tab":
		m.focus = (m.focus + 1) % 3
		m = m.updateFocus()
		return m, nil
	case "shift+tab":
		m.focus = (m.focus + 2) % 3
		m = m.updateFocus()
		return m, nil
	case "esc":
		if m.focus == focusComposer && m.composer.ReplyTo() != nil {
			break // composer clears its own reply bar
		}
		m.focus = focusRoomList
		m = m.updateFocus()
		return m, nil
	}

	var cmds []tea.Cmd
	switch m.focus {
	case focusRoomList:
		switch msg.String() {
		case "s":
			if m.rooms.SortMode() == state.SortRecentActivity {
				m.rooms.SetSortMode(state.SortAlphabetical)
			} else {
				m.rooms.SetSortMode(state.SortRecentActivity)
			}
			m.saveView()
			return m, nil
		case "u":
			m.rooms.SetUnreadFirst(!m.rooms.UnreadFirst())
			m.saveView()
			return m, nil
		case "f":
			if room, ok := m.roomList.selected(); ok && m.client != nil {
				client := m.client
				roomID, fav := room.RoomID, !room.IsFavourite
				return m, func() tea.Msg {
					if err := client.SetFavourite(context.Background(), roomID, fav); err != nil {
						return SyncErrorMsg{Err: err}
					}
					return nil
				}
			}
			return m, nil
		case "c":
			var cmd tea.Cmd
			m.roomList, cmd = m.roomList.Update(msg)
			m.saveView()
			return m, cmd
		}
		var cmd tea.Cmd
		m.roomList, cmd = m.roomList.Update(msg)
		cmds = append(cmds, cmd)
	case focusTimeline:
		if msg.String() == "r" {
			m = m.armReply()
			return m, nil
		}
		var cmd tea.Cmd
		m.timelineView, cmd = m.timelineView.Update(msg)
		cmds = append(cmds, cmd)
	case focusComposer:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) selectRoom(roomID string) (tea.Model, tea.Cmd) {
	// Only the selected room keeps timeline state; switching away
	// discards it, so re-entering a room always refetches.
	if m.activeRoom != "" && m.activeRoom != roomID {
		delete(m.timelines, m.activeRoom)
	}
	m.activeRoom = roomID
	if entry, ok := m.rooms.Entry(roomID); ok {
		m.status = m.status.SetRoomName(entry.Name)
		m.timelineView = m.timelineView.SetTitle(entry.Name)
	}
	m.rooms.ClearUnread(roomID)
	m.focus = focusComposer
	m = m.updateFocus()

	st, ok := m.timelines[roomID]
	if ok {
		m.timelineView = m.timelineView.SetState(st)
		return m, nil
	}

	st = timeline.New()
	st.Loading = true
	m.timelines[roomID] = st
	m.timelineView = m.timelineView.SetState(st)

	client := m.client
	return m, func() tea.Msg {
		ctx := context.Background()
		res, err := client.Messages(ctx, roomID, "", historyPageSize)
		if err != nil {
			return TimelineLoadedMsg{RoomID: roomID, Err: err}
		}
		names := client.DisplayNames(ctx, roomID)
		items := matrix.ItemsFromEvents(res.Events, names, time.Now())
		return TimelineLoadedMsg{RoomID: roomID, Items: items, Token: res.End}
	}
}

func (m Model) pageCmd(roomID, from string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		res, err := client.Messages(ctx, roomID, from, historyPageSize)
		if err != nil {
			return OlderPageMsg{RoomID: roomID, Err: err}
		}
		names := client.DisplayNames(ctx, roomID)
		items := matrix.ItemsFromEvents(res.Events, names, time.Now())
		return OlderPageMsg{RoomID: roomID, Items: items, Token: res.End}
	}
}

// armReply targets the newest replyable message in the active room.
func (m Model) armReply() Model {
	st, ok := m.timelines[m.activeRoom]
	if !ok {
		return m
	}
	for i := len(st.Items) - 1; i >= 0; i-- {
		item := st.Items[i]
		if item.Kind != domain.KindMessage || item.Message.EventID == "" {
			continue
		}
		preview := item.Message.Body
		if r := []rune(preview); len(r) > 80 {
			preview = string(r[:80])
		}
		m.composer = m.composer.SetReplyTo(&domain.ReplyContext{
			EventID:       item.Message.EventID,
			SenderID:      item.Message.SenderID,
			SenderDisplay: item.Message.SenderDisplay,
			BodyPreview:   preview,
		})
		m.focus = focusComposer
		return m.updateFocus()
	}
	return m
}

// mediaCmds starts a download for every image in the batch that is not
// cached or already in flight.
func (m Model) mediaCmds(items []domain.TimelineItem) []tea.Cmd {
	if m.client == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, item := range items {
		if item.Kind != domain.KindMessage || item.Message.Image == nil {
			continue
		}
		source := item.Message.Image.Source
		if !m.cache.StartFetch(source) {
			continue
		}
		client := m.client
		cmds = append(cmds, func() tea.Msg {
			data, err := client.DownloadMedia(context.Background(), source)
			return MediaFetchedMsg{Source: source, Data: data, Err: err}
		})
	}
	return cmds
}

func (m Model) handleVerifyAction(a verifyAction) (tea.Model, tea.Cmd) {
	svc := m.verifier()
	active := m.machine.Active()

	switch a {
	case verifyAcceptPending:
		inc, ok := m.machine.AcceptPending()
		if !ok || svc == nil {
			return m, nil
		}
		return m, func() tea.Msg {
			ctx := context.Background()
			req, found := svc.Request(ctx, inc.Sender, inc.FlowID)
			if !found {
				return VerificationStartedMsg{Err: fmt.Errorf("request %s no longer exists", inc.FlowID)}
			}
			if err := req.Accept(ctx); err != nil {
				return VerificationStartedMsg{Err: err}
			}
			return VerificationStartedMsg{Req: req, Peer: inc.Sender}
		}

	case verifyIgnorePending:
		m.machine.IgnorePending()
		return m, nil

	case verifyConfirm:
		if active == nil || !m.machine.Confirm() || svc == nil {
			return m, nil
		}
		flowID := active.FlowID
		return m, func() tea.Msg {
			if err := svc.Confirm(context.Background(), flowID); err != nil {
				return VerificationUpdateMsg{Update: verification.Update{
					FlowID: flowID, Kind: verification.UpdateCancelled, Reason: err.Error(),
				}}
			}
			return nil
		}

	case verifyMismatch:
		if active == nil || svc == nil {
			return m, nil
		}
		// The mismatch is terminal locally right away; the remote cancel
		// follows.
		m.machine.Apply(verification.Update{
			FlowID: active.FlowID, Kind: verification.UpdateCancelled, Reason: "emoji did not match",
		})
		flowID := active.FlowID
		return m, func() tea.Msg {
			svc.Mismatch(context.Background(), flowID)
			return nil
		}

	case verifyCancel:
		if active == nil {
			return m, nil
		}
		m.machine.Apply(verification.Update{
			FlowID: active.FlowID, Kind: verification.UpdateCancelled, Reason: "cancelled by user",
		})
		if svc == nil {
			return m, nil
		}
		flowID := active.FlowID
		return m, func() tea.Msg {
			svc.CancelFlow(context.Background(), flowID)
			return nil
		}

	case verifyDismiss:
		m.machine.ClearActive()
		return m, nil
	}
	return m, nil
}

func (m Model) startVerificationCmd() tea.Cmd {
	svc := m.verifier()
	if svc == nil {
		return nil
	}
	userID := m.userID
	return func() tea.Msg {
		req, err := svc.StartSelfVerification(context.Background())
		if err != nil {
			return VerificationStartedMsg{Err: err}
		}
		return VerificationStartedMsg{Req: req, Peer: userID}
	}
}

func (m Model) runFlowCmd(req verification.Request) tea.Cmd {
	send := m.hooks.Send
	return func() tea.Msg {
		verification.RunFlow(context.Background(), req, func(u verification.Update) {
			send(VerificationUpdateMsg{Update: u})
		})
		return nil
	}
}

func (m Model) bootstrapCmd() tea.Cmd {
	svc := m.verifier()
	if svc == nil {
		return nil
	}
	password := m.password
	return func() tea.Msg {
		return BootstrapDoneMsg{Err: verification.Bootstrap(context.Background(), svc, password)}
	}
}

func (m Model) crossSignStatusCmd() tea.Cmd {
	svc := m.verifier()
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		status, err := svc.CrossSigningStatus(context.Background())
		if err != nil {
			return CrossSigningStatusMsg{Status: verification.CrossSigningUnknown}
		}
		return CrossSigningStatusMsg{Status: status}
	}
}

func (m Model) profileLoadCmd() tea.Cmd {
	if m.client == nil {
		return nil
	}
	client := m.client
	return func() tea.Msg {
		url, err := client.AvatarURL(context.Background())
		return ProfileLoadedMsg{AvatarURL: url, Err: err}
	}
}

func (m Model) verifier() verification.Service {
	if m.hooks.Verifier == nil {
		return nil
	}
	return m.hooks.Verifier()
}

func (m Model) saveView() {
	if m.hooks.SaveView != nil {
		m.hooks.SaveView(m.rooms.SortMode(), m.rooms.UnreadFirst(), m.rooms.CollapsedSections())
	}
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if !m.connected {
		v.SetContent(m.login.View())
		return v
	}

	roomListView := m.roomList.View()
	rightPane := lipgloss.JoinVertical(lipgloss.Left, m.timelineView.View(), m.composer.View())
	full := lipgloss.JoinHorizontal(lipgloss.Top, roomListView, rightPane)
	full = lipgloss.JoinVertical(lipgloss.Left, full, m.status.View())

	mainContent := lipgloss.NewStyle().
		MaxWidth(m.width).
		MaxHeight(m.height).
		Render(full)

	switch {
	case m.verifyPanel.Visible():
		bg := lipgloss.NewLayer(mainContent)
		fg := lipgloss.NewLayer(m.verifyPanel.View()).Z(1)
		comp := lipgloss.NewCompositor(bg, fg)
		v.SetContent(comp.Render())
	case m.profile.Visible():
		bg := lipgloss.NewLayer(mainContent)
		fg := lipgloss.NewLayer(m.profile.View()).Z(1)
		comp := lipgloss.NewCompositor(bg, fg)
		v.SetContent(comp.Render())
	default:
		v.SetContent(mainContent)
	}
	return v
}

func (m Model) distributeSize() Model {
	contentHeight := m.height - 1 // status bar row

	rlWidth := roomListWidth
	if rlWidth > m.width {
		rlWidth = m.width
	}
	m.roomList = m.roomList.SetSize(rlWidth, contentHeight)

	rightWidth := m.width - rlWidth
	if rightWidth < 1 {
		rightWidth = 1
	}
	timelineHeight := contentHeight - composerRenderedHeight
	if timelineHeight < 1 {
		timelineHeight = 1
	}

	m.timelineView = m.timelineView.SetSize(rightWidth, timelineHeight)
	m.composer = m.composer.SetSize(rightWidth, composerRenderedHeight)
	m.login = m.login.SetSize(m.width, m.height)
	m.verifyPanel = m.verifyPanel.SetSize(m.width, m.height)
	m.profile = m.profile.SetSize(m.width, m.height)
	m.status = m.status.SetWidth(m.width)

	return m
}

func (m Model) updateFocus() Model {
	m.roomList = m.roomList.SetFocused(m.focus == focusRoomList)
	m.timelineView = m.timelineView.SetFocused(m.focus == focusTimeline)
	m.composer = m.composer.SetFocused(m.focus == focusComposer)
	return m
}

// App wraps the Bubble Tea program for external use.
type App struct {
	program *tea.Program
}

// NewApp creates a new App ready to Run. The hooks' Send field is filled
// in here.
func NewApp(homeserver string, rooms *state.RoomList, cache *media.Cache, machine *verification.Machine, hooks *Hooks) *App {
	a := &App{}
	hooks.Send = func(msg tea.Msg) { a.Send(msg) }
	model := NewModel(homeserver, rooms, cache, machine, hooks)
	a.program = tea.NewProgram(model)
	return a
}

// Run starts the Bubble Tea event loop (blocks until quit).
func (a *App) Run() error {
	_, err := a.program.Run()
	return err
}

// Send sends a message into the Bubble Tea event loop. Safe to call from
// any goroutine; delivery order matches call order.
func (a *App) Send(msg tea.Msg) {
	a.program.Send(msg)
}
