package verification

import (
	"context"
	"errors"
	"fmt"
)

// RunFlow supervises one verification flow across its two nested
// change-streams: the parent request stream until a SAS sub-session
// exists, then the sub-session stream to the terminal state. Updates go
// out through send in the order produced. RunFlow returns when the flow
// reaches a terminal state, a stream closes, or ctx is cancelled.
//
// A successful accept does not guarantee possession of the sub-session:
// when the peer drives, StartSas reports PendingPeerDriven and the
// request stream is consumed until a Transitioned change supplies it.
func RunFlow(ctx context.Context, req Request, send func(Update)) {
	flowID := req.FlowID()
	emit := func(kind UpdateKind, emoji []EmojiPair, reason string) {
		send(Update{FlowID: flowID, Kind: kind, Emoji: emoji, Reason: reason})
	}

	sas := awaitSas(ctx, req, emit)
	if sas == nil {
		return
	}

	changes := sas.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			switch change.State {
			case SasKeysExchanged:
				// No emoji at the checkpoint means nothing to show
				// and no update to emit.
				if len(change.Emoji) > 0 {
					emit(UpdateEmojiReady, change.Emoji, "")
				}
			case SasDone:
				emit(UpdateDone, nil, "")
				return
			case SasCancelled:
				emit(UpdateCancelled, nil, change.Reason)
				return
			}
		}
	}
}

// awaitSas drives the request stream until it yields a SAS sub-session,
// or nil if the flow terminated first.
func awaitSas(ctx context.Context, req Request, emit func(UpdateKind, []EmojiPair, string)) Sas {
	changes := req.Changes()
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			switch change.State {
			case RequestReady:
				emit(UpdateAccepted, nil, "")
				outcome := req.StartSas(ctx)
				switch outcome.Result {
				case StartStarted:
					return outcome.Sas
				case StartPendingPeerDriven:
					// Keep watching the request stream for the
					// Transitioned change that carries the session.
				case StartFailed:
					emit(UpdateCancelled, nil, outcome.Err.Error())
					return nil
				}
			case RequestTransitioned:
				emit(UpdateAccepted, nil, "")
				return change.Sas
			case RequestDone:
				emit(UpdateDone, nil, "")
				return nil
			case RequestCancelled:
				emit(UpdateCancelled, nil, change.Reason)
				return nil
			}
		}
	}
}

// Bootstrap runs the two-step cross-signing bootstrap: once without
// credentials, then, if the server demands interactive auth, exactly one
// retry with the password captured at login. Any other failure, a missing
// password, or a failing retry is terminal.
func Bootstrap(ctx context.Context, svc Service, password string) error {
	err := svc.BootstrapCrossSigning(ctx, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUIARequired) {
		return err
	}
	if password == "" {
		return fmt.Errorf("bootstrap cross-signing: %w, no password in memory", ErrUIARequired)
	}
	if err := svc.BootstrapCrossSigning(ctx, &PasswordAuth{Password: password}); err != nil {
		return fmt.Errorf("bootstrap cross-signing retry: %w", err)
	}
	return nil
}
