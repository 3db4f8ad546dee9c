package verification

import (
	"context"
	"errors"
)

// Phase is the local view of one verification flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWaitingForAccept
	PhaseSasStarted
	PhaseShowingEmoji
	PhaseConfirming
	PhaseDone
	PhaseCancelled
)

func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseCancelled
}

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWaitingForAccept:
		return "waiting-for-accept"
	case PhaseSasStarted:
		return "sas-started"
	case PhaseShowingEmoji:
		return "showing-emoji"
	case PhaseConfirming:
		return "confirming"
	case PhaseDone:
		return "done"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// EmojiPair is one symbol of the short-authentication-string comparison.
type EmojiPair struct {
	Symbol      string
	Description string
}

// Session is the active verification flow, owned by the update loop.
type Session struct {
	FlowID       string
	PeerUserID   string
	Phase        Phase
	Emoji        []EmojiPair
	CancelReason string
}

// UpdateKind enumerates the change-stream events a running flow emits.
type UpdateKind int

const (
	UpdateAccepted UpdateKind = iota
	UpdateEmojiReady
	UpdateDone
	UpdateCancelled
)

// Update is one ordered state-change event for a verification flow.
type Update struct {
	FlowID string
	Kind   UpdateKind
	Emoji  []EmojiPair
	Reason string
}

// CrossSigningStatus mirrors the server-side cross-signing key state.
type CrossSigningStatus int

const (
	CrossSigningUnknown CrossSigningStatus = iota
	CrossSigningVerified
	CrossSigningUnverified
)

// ErrUIARequired is returned by Service.BootstrapCrossSigning when the
// homeserver demands interactive auth before publishing keys.
var ErrUIARequired = errors.New("interactive auth required")

// PasswordAuth is the password-based auth payload for a UIA retry.
type PasswordAuth struct {
	Password string
}

// RequestState enumerates the transitions of the parent request stream.
type RequestState int

const (
	RequestReady RequestState = iota
	RequestTransitioned
	RequestDone
	RequestCancelled
)

// RequestChange is one transition observed on the request stream. Sas is
// set only for RequestTransitioned.
type RequestChange struct {
	State  RequestState
	Sas    Sas
	Reason string
}

// SasState enumerates the transitions of the sub-session stream.
type SasState int

const (
	SasKeysExchanged SasState = iota
	SasDone
	SasCancelled
)

// SasChange is one transition observed on the SAS stream. Emoji is set
// only for SasKeysExchanged, and may be empty when the exchange produced
// no displayable set.
type SasChange struct {
	State  SasState
	Emoji  []EmojiPair
	Reason string
}

// StartResult distinguishes "sub-session in hand", "peer is driving, keep
// watching the request stream" and "failed" when starting the SAS
// sub-protocol.
type StartResult int

const (
	StartStarted StartResult = iota
	StartPendingPeerDriven
	StartFailed
)

// StartOutcome is the three-state result of Request.StartSas.
type StartOutcome struct {
	Result StartResult
	Sas    Sas
	Err    error
}

// Request is a verification request handle exposed by the SDK
// collaborator. Changes returns an ordered stream of phase transitions;
// the channel closes when the underlying request is torn down.
type Request interface {
	FlowID() string
	Accept(ctx context.Context) error
	StartSas(ctx context.Context) StartOutcome
	Cancel(ctx context.Context) error
	Changes() <-chan RequestChange
}

// Sas is a started short-authentication-string sub-session.
type Sas interface {
	Confirm(ctx context.Context) error
	Mismatch(ctx context.Context) error
	Cancel(ctx context.Context) error
	Changes() <-chan SasChange
}

// Service is the narrow contract the SDK collaborator provides for
// device verification and cross-signing. The flow-scoped actions mirror
// the supervisor's Sas handle for callers that only hold a flow id.
type Service interface {
	// StartSelfVerification creates an outgoing request toward the
	// user's other devices.
	StartSelfVerification(ctx context.Context) (Request, error)
	// Request looks up an existing request by peer and flow id.
	Request(ctx context.Context, peerUserID, flowID string) (Request, bool)
	// Confirm reports the displayed emoji as matching.
	Confirm(ctx context.Context, flowID string) error
	// Mismatch rejects the displayed emoji and cancels the flow.
	Mismatch(ctx context.Context, flowID string) error
	// CancelFlow tears the flow down at the user's request.
	CancelFlow(ctx context.Context, flowID string) error
	// BootstrapCrossSigning publishes cross-signing keys if needed.
	// Returns ErrUIARequired (possibly wrapped) when the server demands
	// interactive auth and auth is nil.
	BootstrapCrossSigning(ctx context.Context, auth *PasswordAuth) error
	// CrossSigningStatus queries the current key state.
	CrossSigningStatus(ctx context.Context) (CrossSigningStatus, error)
}
