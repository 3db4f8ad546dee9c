package matrix

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/crypto"
	"maunium.net/go/mautrix/crypto/verificationhelper"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/jklear/seance/internal/verification"
)

// VerificationService implements verification.Service on top of the
// mautrix verification helper. The helper reports progress through
// callbacks; this adapter turns them into the per-flow change channels
// the supervisor consumes.
type VerificationService struct {
	cli    *mautrix.Client
	mach   *crypto.OlmMachine
	helper *verificationhelper.VerificationHelper
	logger *zap.Logger

	mu    sync.Mutex
	flows map[id.VerificationTransactionID]*verificationFlow
}

type verificationFlow struct {
	txnID id.VerificationTransactionID
	reqCh chan verification.RequestChange
	sasCh chan verification.SasChange
	// transitioned is set once the flow has been handed over to the SAS
	// channel; terminal changes go to whichever channel is live.
	transitioned bool
	done         bool
}

// pushReq delivers a change without blocking. A full buffer means the
// supervisor stopped draining this flow; dropping beats wedging a
// helper callback while it holds the service mutex.
func (f *verificationFlow) pushReq(c verification.RequestChange) {
	select {
	case f.reqCh <- c:
	default:
	}
}

func (f *verificationFlow) pushSas(c verification.SasChange) {
	select {
	case f.sasCh <- c:
	default:
	}
}

func NewVerificationService(cli *mautrix.Client, mach *crypto.OlmMachine, logger *zap.Logger) *VerificationService {
	s := &VerificationService{
		cli:    cli,
		mach:   mach,
		logger: logger,
		flows:  make(map[id.VerificationTransactionID]*verificationFlow),
	}
	s.helper = verificationhelper.NewVerificationHelper(cli, mach, verificationhelper.NewInMemoryVerificationStore(), s, false, false, true)
	return s
}

// Init registers the helper's event handlers. Must be called before the
// first sync.
func (s *VerificationService) Init(ctx context.Context) error {
	if err := s.helper.Init(ctx); err != nil {
		return fmt.Errorf("init verification helper: %w", err)
	}
	return nil
}

func (s *VerificationService) StartSelfVerification(ctx context.Context) (verification.Request, error) {
	txnID, err := s.helper.StartVerification(ctx, s.cli.UserID)
	if err != nil {
		return nil, fmt.Errorf("start verification: %w", err)
	}
	flow := s.flow(txnID)
	return &requestHandle{svc: s, flow: flow}, nil
}

func (s *VerificationService) Request(ctx context.Context, peerUserID, flowID string) (verification.Request, bool) {
	if flowID == "" {
		return nil, false
	}
	flow := s.flow(id.VerificationTransactionID(flowID))
	return &requestHandle{svc: s, flow: flow}, true
}

// flow returns the tracking entry for a transaction, creating it if the
// helper callback or the sync extraction got there first.
func (s *VerificationService) flow(txnID id.VerificationTransactionID) *verificationFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[txnID]
	if !ok {
		f = &verificationFlow{
			txnID: txnID,
			reqCh: make(chan verification.RequestChange, 8),
			sasCh: make(chan verification.SasChange, 8),
		}
		s.flows[txnID] = f
	}
	return f
}

// -- verification helper callbacks --

func (s *VerificationService) VerificationRequested(ctx context.Context, txnID id.VerificationTransactionID, from id.UserID, fromDevice id.DeviceID) {
	s.logger.Info("verification requested",
		zap.String("txn_id", string(txnID)),
		zap.String("from", from.String()))
	s.flow(txnID)
}

func (s *VerificationService) VerificationReady(ctx context.Context, txnID id.VerificationTransactionID, otherDeviceID id.DeviceID, supportsSAS, supportsScanQRCode bool, qrCode *verificationhelper.QRCode) {
	f := s.flow(txnID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.done {
		return
	}
	f.pushReq(verification.RequestChange{State: verification.RequestReady})
}

func (s *VerificationService) ShowSAS(ctx context.Context, txnID id.VerificationTransactionID, emojis []rune, emojiDescriptions []string, decimals []int) {
	pairs := make([]verification.EmojiPair, 0, len(emojis))
	for i, r := range emojis {
		desc := ""
		if i < len(emojiDescriptions) {
			desc = emojiDescriptions[i]
		}
		pairs = append(pairs, verification.EmojiPair{Symbol: string(r), Description: desc})
	}

	f := s.flow(txnID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.done {
		return
	}
	if !f.transitioned {
		f.transitioned = true
		f.pushReq(verification.RequestChange{
			State: verification.RequestTransitioned,
			Sas:   &sasHandle{svc: s, flow: f},
		})
	}
	f.pushSas(verification.SasChange{State: verification.SasKeysExchanged, Emoji: pairs})
}

func (s *VerificationService) VerificationDone(ctx context.Context, txnID id.VerificationTransactionID) {
	s.finishFlow(txnID, verification.RequestChange{State: verification.RequestDone}, verification.SasChange{State: verification.SasDone})
}

func (s *VerificationService) VerificationCancelled(ctx context.Context, txnID id.VerificationTransactionID, code event.VerificationCancelCode, reason string) {
	if reason == "" {
		reason = string(code)
	}
	s.finishFlow(txnID,
		verification.RequestChange{State: verification.RequestCancelled, Reason: reason},
		verification.SasChange{State: verification.SasCancelled, Reason: reason})
}

// finishFlow emits a terminal change on whichever channel the supervisor
// is currently draining, then closes both and forgets the flow.
func (s *VerificationService) finishFlow(txnID id.VerificationTransactionID, req verification.RequestChange, sas verification.SasChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[txnID]
	if !ok || f.done {
		return
	}
	f.done = true
	if f.transitioned {
		f.pushSas(sas)
	} else {
		f.pushReq(req)
	}
	close(f.reqCh)
	close(f.sasCh)
	delete(s.flows, txnID)
}

func (s *VerificationService) Confirm(ctx context.Context, flowID string) error {
	if err := s.helper.ConfirmSAS(ctx, id.VerificationTransactionID(flowID)); err != nil {
		return fmt.Errorf("confirm sas: %w", err)
	}
	return nil
}

func (s *VerificationService) Mismatch(ctx context.Context, flowID string) error {
	return s.helper.CancelVerification(ctx, id.VerificationTransactionID(flowID), event.VerificationCancelCodeSASMismatch, "emoji did not match")
}

func (s *VerificationService) CancelFlow(ctx context.Context, flowID string) error {
	return s.helper.CancelVerification(ctx, id.VerificationTransactionID(flowID), event.VerificationCancelCodeUser, "cancelled by user")
}

// -- cross-signing --

func (s *VerificationService) BootstrapCrossSigning(ctx context.Context, auth *verification.PasswordAuth) error {
	keys, err := s.mach.GenerateCrossSigningKeys()
	if err != nil {
		return fmt.Errorf("generate cross-signing keys: %w", err)
	}

	uiaHit := false
	err = s.mach.PublishCrossSigningKeys(ctx, keys, func(resp *mautrix.RespUserInteractive) interface{} {
		uiaHit = true
		if auth == nil {
			return nil
		}
		return &mautrix.ReqUIAuthLogin{
			BaseAuthData: mautrix.BaseAuthData{
				Type:    mautrix.AuthTypePassword,
				Session: resp.Session,
			},
			User:     s.cli.UserID.String(),
			Password: auth.Password,
		}
	})
	if err != nil {
		if uiaHit && auth == nil {
			return verification.ErrUIARequired
		}
		return fmt.Errorf("publish cross-signing keys: %w", err)
	}
	return nil
}

func (s *VerificationService) CrossSigningStatus(ctx context.Context) (verification.CrossSigningStatus, error) {
	pub := s.mach.GetOwnCrossSigningPublicKeys(ctx)
	if pub == nil {
		return verification.CrossSigningUnverified, nil
	}
	device, err := s.mach.GetOrFetchDevice(ctx, s.cli.UserID, s.cli.DeviceID)
	if err != nil {
		return verification.CrossSigningUnknown, fmt.Errorf("fetch own device: %w", err)
	}
	trust, err := s.mach.ResolveTrustContext(ctx, device)
	if err != nil {
		return verification.CrossSigningUnknown, fmt.Errorf("resolve device trust: %w", err)
	}
	return statusFromTrust(trust), nil
}

// statusFromTrust maps the machine's device trust level onto the
// two-state answer the bootstrap prompt needs. Cross-signed devices
// count as verified even when the signing key itself is only TOFU.
func statusFromTrust(trust id.TrustState) verification.CrossSigningStatus {
	switch trust {
	case id.TrustStateVerified, id.TrustStateCrossSignedVerified, id.TrustStateCrossSignedTOFU:
		return verification.CrossSigningVerified
	default:
		return verification.CrossSigningUnverified
	}
}

// -- per-flow handles --

type requestHandle struct {
	svc  *VerificationService
	flow *verificationFlow
}

func (r *requestHandle) FlowID() string {
	return string(r.flow.txnID)
}

func (r *requestHandle) Accept(ctx context.Context) error {
	if err := r.svc.helper.AcceptVerification(ctx, r.flow.txnID); err != nil {
		return fmt.Errorf("accept verification: %w", err)
	}
	return nil
}

// StartSas asks the helper to begin the SAS exchange. The helper
// confirms the transition through its callbacks rather than a return
// value, so a successful send reports peer-driven progress and the
// session arrives on the change stream.
func (r *requestHandle) StartSas(ctx context.Context) verification.StartOutcome {
	if err := r.svc.helper.StartSAS(ctx, r.flow.txnID); err != nil {
		return verification.StartOutcome{Result: verification.StartFailed, Err: err}
	}
	return verification.StartOutcome{Result: verification.StartPendingPeerDriven}
}

func (r *requestHandle) Cancel(ctx context.Context) error {
	return r.svc.helper.CancelVerification(ctx, r.flow.txnID, event.VerificationCancelCodeUser, "cancelled by user")
}

func (r *requestHandle) Changes() <-chan verification.RequestChange {
	return r.flow.reqCh
}

type sasHandle struct {
	svc  *VerificationService
	flow *verificationFlow
}

func (h *sasHandle) Confirm(ctx context.Context) error {
	if err := h.svc.helper.ConfirmSAS(ctx, h.flow.txnID); err != nil {
		return fmt.Errorf("confirm sas: %w", err)
	}
	return nil
}

func (h *sasHandle) Mismatch(ctx context.Context) error {
	return h.svc.helper.CancelVerification(ctx, h.flow.txnID, event.VerificationCancelCodeSASMismatch, "emoji did not match")
}

func (h *sasHandle) Cancel(ctx context.Context) error {
	return h.svc.helper.CancelVerification(ctx, h.flow.txnID, event.VerificationCancelCodeUser, "cancelled by user")
}

func (h *sasHandle) Changes() <-chan verification.SasChange {
	return h.flow.sasCh
}
