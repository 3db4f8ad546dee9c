package verification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jklear/seance/internal/verification"
)

type fakeSas struct {
	changes   chan verification.SasChange
	confirmed bool
	mismatch  bool
	cancelled bool
}

func newFakeSas() *fakeSas {
	return &fakeSas{changes: make(chan verification.SasChange, 8)}
}

func (f *fakeSas) Confirm(context.Context) error  { f.confirmed = true; return nil }
func (f *fakeSas) Mismatch(context.Context) error { f.mismatch = true; return nil }
func (f *fakeSas) Cancel(context.Context) error   { f.cancelled = true; return nil }
func (f *fakeSas) Changes() <-chan verification.SasChange {
	return f.changes
}

type fakeRequest struct {
	flowID  string
	changes chan verification.RequestChange
	start   func() verification.StartOutcome
}

func newFakeRequest(flowID string) *fakeRequest {
	return &fakeRequest{
		flowID:  flowID,
		changes: make(chan verification.RequestChange, 8),
		start:   func() verification.StartOutcome { return verification.StartOutcome{Result: verification.StartPendingPeerDriven} },
	}
}

func (f *fakeRequest) FlowID() string                                   { return f.flowID }
func (f *fakeRequest) Accept(context.Context) error                     { return nil }
func (f *fakeRequest) Cancel(context.Context) error                     { return nil }
func (f *fakeRequest) StartSas(context.Context) verification.StartOutcome { return f.start() }
func (f *fakeRequest) Changes() <-chan verification.RequestChange {
	return f.changes
}

func collectUpdates(t *testing.T, req *fakeRequest, count int) []verification.Update {
	t.Helper()
	updates := make(chan verification.Update, 16)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		verification.RunFlow(ctx, req, func(u verification.Update) { updates <- u })
		close(done)
	}()

	var got []verification.Update
	timeout := time.After(2 * time.Second)
	for len(got) < count {
		select {
		case u := <-updates:
			got = append(got, u)
		case <-timeout:
			t.Fatalf("timed out with %d/%d updates: %+v", len(got), count, got)
		}
	}
	select {
	case <-done:
	case <-timeout:
		t.Fatal("RunFlow did not return after terminal update")
	}
	return got
}

func TestRunFlow_PeerDrivenTransition(t *testing.T) {
	// Accepting flow "abc" from @bob:example.org; the peer completes the
	// key exchange with seven emoji pairs.
	req := newFakeRequest("abc")
	sas := newFakeSas()

	emoji := make([]verification.EmojiPair, 7)
	for i := range emoji {
		emoji[i] = verification.EmojiPair{Symbol: "🦊", Description: "Fox"}
	}

	req.changes <- verification.RequestChange{State: verification.RequestReady}
	req.changes <- verification.RequestChange{State: verification.RequestTransitioned, Sas: sas}
	sas.changes <- verification.SasChange{State: verification.SasKeysExchanged, Emoji: emoji}
	sas.changes <- verification.SasChange{State: verification.SasDone}

	got := collectUpdates(t, req, 4)

	wantKinds := []verification.UpdateKind{
		verification.UpdateAccepted, // Ready
		verification.UpdateAccepted, // Transitioned hands over the session
		verification.UpdateEmojiReady,
		verification.UpdateDone,
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("update %d kind = %v, want %v", i, got[i].Kind, k)
		}
		if got[i].FlowID != "abc" {
			t.Errorf("update %d flow = %q, want abc", i, got[i].FlowID)
		}
	}
	if len(got[2].Emoji) != 7 {
		t.Errorf("emoji pairs = %d, want 7", len(got[2].Emoji))
	}
}

func TestRunFlow_LocalStartSuppliesSession(t *testing.T) {
	req := newFakeRequest("xyz")
	sas := newFakeSas()
	req.start = func() verification.StartOutcome {
		return verification.StartOutcome{Result: verification.StartStarted, Sas: sas}
	}

	req.changes <- verification.RequestChange{State: verification.RequestReady}
	sas.changes <- verification.SasChange{State: verification.SasDone}

	got := collectUpdates(t, req, 2)
	if got[0].Kind != verification.UpdateAccepted || got[1].Kind != verification.UpdateDone {
		t.Errorf("updates = %+v, want accepted then done", got)
	}
}

func TestRunFlow_KeysExchangedWithoutEmojiEmitsNothing(t *testing.T) {
	req := newFakeRequest("xyz")
	sas := newFakeSas()
	req.start = func() verification.StartOutcome {
		return verification.StartOutcome{Result: verification.StartStarted, Sas: sas}
	}

	req.changes <- verification.RequestChange{State: verification.RequestReady}
	sas.changes <- verification.SasChange{State: verification.SasKeysExchanged} // no emoji
	sas.changes <- verification.SasChange{State: verification.SasDone}

	got := collectUpdates(t, req, 2)
	for _, u := range got {
		if u.Kind == verification.UpdateEmojiReady {
			t.Error("emoji update emitted for an empty exchange")
		}
	}
}

func TestRunFlow_RequestCancelled(t *testing.T) {
	req := newFakeRequest("abc")
	req.changes <- verification.RequestChange{State: verification.RequestCancelled, Reason: "m.user"}

	got := collectUpdates(t, req, 1)
	if got[0].Kind != verification.UpdateCancelled || got[0].Reason != "m.user" {
		t.Errorf("update = %+v, want cancelled with reason m.user", got[0])
	}
}

func TestRunFlow_StartFailure(t *testing.T) {
	req := newFakeRequest("abc")
	req.start = func() verification.StartOutcome {
		return verification.StartOutcome{Result: verification.StartFailed, Err: errors.New("no common method")}
	}
	req.changes <- verification.RequestChange{State: verification.RequestReady}

	got := collectUpdates(t, req, 2)
	if got[1].Kind != verification.UpdateCancelled {
		t.Errorf("update = %+v, want cancelled after start failure", got[1])
	}
}

func TestRunFlow_ContextCancel(t *testing.T) {
	req := newFakeRequest("abc")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		verification.RunFlow(ctx, req, func(verification.Update) {})
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunFlow did not stop on context cancellation")
	}
}

// -- Bootstrap --

type fakeService struct {
	calls   []*verification.PasswordAuth
	results []error
}

func (f *fakeService) BootstrapCrossSigning(_ context.Context, auth *verification.PasswordAuth) error {
	f.calls = append(f.calls, auth)
	err := f.results[0]
	f.results = f.results[1:]
	return err
}

func (f *fakeService) StartSelfVerification(context.Context) (verification.Request, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) Request(context.Context, string, string) (verification.Request, bool) {
	return nil, false
}

func (f *fakeService) Confirm(context.Context, string) error    { return nil }
func (f *fakeService) Mismatch(context.Context, string) error   { return nil }
func (f *fakeService) CancelFlow(context.Context, string) error { return nil }

func (f *fakeService) CrossSigningStatus(context.Context) (verification.CrossSigningStatus, error) {
	return verification.CrossSigningUnknown, nil
}

func TestBootstrap_NoAuthNeeded(t *testing.T) {
	svc := &fakeService{results: []error{nil}}
	if err := verification.Bootstrap(context.Background(), svc, "hunter2"); err != nil {
		t.Fatalf("Bootstrap() error: %v", err)
	}
	if len(svc.calls) != 1 || svc.calls[0] != nil {
		t.Errorf("calls = %+v, want one unauthenticated attempt", svc.calls)
	}
}

func TestBootstrap_UIARetryWithPassword(t *testing.T) {
	svc := &fakeService{results: []error{verification.ErrUIARequired, nil}}
	if err := verification.Bootstrap(context.Background(), svc, "hunter2"); err != nil {
		t.Fatalf("Bootstrap() error: %v", err)
	}
	if len(svc.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(svc.calls))
	}
	if svc.calls[1] == nil || svc.calls[1].Password != "hunter2" {
		t.Errorf("retry auth = %+v, want password payload", svc.calls[1])
	}
}

func TestBootstrap_UIAWithoutPasswordFails(t *testing.T) {
	svc := &fakeService{results: []error{verification.ErrUIARequired}}
	err := verification.Bootstrap(context.Background(), svc, "")
	if err == nil {
		t.Fatal("Bootstrap() = nil, want failure without stored password")
	}
	if len(svc.calls) != 1 {
		t.Errorf("calls = %d, want 1 (no retry without password)", len(svc.calls))
	}
}

func TestBootstrap_RetryFailureIsTerminal(t *testing.T) {
	svc := &fakeService{results: []error{verification.ErrUIARequired, errors.New("wrong password")}}
	err := verification.Bootstrap(context.Background(), svc, "hunter2")
	if err == nil {
		t.Fatal("Bootstrap() = nil, want terminal failure")
	}
	if len(svc.calls) != 2 {
		t.Errorf("calls = %d, want exactly 2 (no further retries)", len(svc.calls))
	}
}

func TestBootstrap_NonUIAFailureNotRetried(t *testing.T) {
	svc := &fakeService{results: []error{errors.New("network down")}}
	err := verification.Bootstrap(context.Background(), svc, "hunter2")
	if err == nil {
		t.Fatal("Bootstrap() = nil, want error")
	}
	if len(svc.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(svc.calls))
	}
}
