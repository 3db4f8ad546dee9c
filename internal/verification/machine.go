package verification

import "github.com/jklear/seance/internal/domain"

// Machine holds the single active verification session plus the one
// remembered pending incoming request. It is owned by the update loop and
// mutated only through the methods below.
type Machine struct {
	active  *Session
	pending *domain.IncomingVerification
}

// Active returns the current session, or nil when no flow is running.
func (m *Machine) Active() *Session {
	return m.active
}

// Pending returns the remembered incoming request, if any.
func (m *Machine) Pending() *domain.IncomingVerification {
	return m.pending
}

// StartOutgoing installs a freshly created outgoing flow. Any pending
// incoming request is dropped in its favour.
func (m *Machine) StartOutgoing(flowID, peerUserID string) {
	m.active = &Session{
		FlowID:     flowID,
		PeerUserID: peerUserID,
		Phase:      PhaseWaitingForAccept,
	}
	m.pending = nil
}

// ObserveIncoming remembers an incoming request without accepting it.
// At most one is kept; a newer request overwrites an unacknowledged
// older one.
func (m *Machine) ObserveIncoming(req domain.IncomingVerification) {
	m.pending = &req
}

// AcceptPending promotes the pending request to the active session.
// Refused while another flow is still live.
func (m *Machine) AcceptPending() (domain.IncomingVerification, bool) {
	if m.pending == nil {
		return domain.IncomingVerification{}, false
	}
	if m.active != nil && !m.active.Phase.Terminal() {
		return domain.IncomingVerification{}, false
	}
	req := *m.pending
	m.pending = nil
	m.active = &Session{
		FlowID:     req.FlowID,
		PeerUserID: req.Sender,
		Phase:      PhaseWaitingForAccept,
	}
	return req, true
}

// IgnorePending discards the remembered incoming request.
func (m *Machine) IgnorePending() {
	m.pending = nil
}

// Apply advances the active session with one stream update. Updates for
// an unknown flow, or arriving after a terminal phase, are no-ops.
// Reports whether the session changed.
func (m *Machine) Apply(u Update) bool {
	if m.active == nil || m.active.FlowID != u.FlowID {
		return false
	}
	if m.active.Phase.Terminal() {
		return false
	}
	switch u.Kind {
	case UpdateAccepted:
		m.active.Phase = PhaseSasStarted
	case UpdateEmojiReady:
		m.active.Phase = PhaseShowingEmoji
		m.active.Emoji = u.Emoji
	case UpdateDone:
		m.active.Phase = PhaseDone
	case UpdateCancelled:
		m.active.Phase = PhaseCancelled
		m.active.CancelReason = u.Reason
	default:
		return false
	}
	return true
}

// Confirm moves the emoji comparison to the confirming phase. Only valid
// while the emoji are being shown.
func (m *Machine) Confirm() bool {
	if m.active == nil || m.active.Phase != PhaseShowingEmoji {
		return false
	}
	m.active.Phase = PhaseConfirming
	return true
}

// ClearActive drops the active session (user cancel, dismissal of a
// terminal panel, logout).
func (m *Machine) ClearActive() {
	m.active = nil
}

// Reset drops all verification state.
func (m *Machine) Reset() {
	m.active = nil
	m.pending = nil
}
