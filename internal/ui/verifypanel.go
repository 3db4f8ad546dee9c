package ui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jklear/seance/internal/verification"
)

// verifyActionMsg carries the user's decision out of the panel.
type verifyActionMsg struct {
	action verifyAction
}

type verifyAction int

const (
	verifyConfirm verifyAction = iota
	verifyMismatch
	verifyCancel
	verifyAcceptPending
	verifyIgnorePending
	verifyDismiss
)

// VerifyPanelModel renders the active verification flow and the pending
// incoming request prompt. It is a modal overlay; visibility is decided
// by the root model.
type VerifyPanelModel struct {
	machine *verification.Machine
	width   int
	height  int
}

func NewVerifyPanelModel(machine *verification.Machine) VerifyPanelModel {
	return VerifyPanelModel{machine: machine}
}

// Visible reports whether there is anything to overlay.
func (m VerifyPanelModel) Visible() bool {
	return m.machine.Active() != nil || m.machine.Pending() != nil
}

func (m VerifyPanelModel) Update(msg tea.Msg) (VerifyPanelModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	session := m.machine.Active()
	if session == nil {
		// Pending prompt only.
		switch key.String() {
		case "y", "enter":
			return m, action(verifyAcceptPending)
		case "n", "esc":
			return m, action(verifyIgnorePending)
		}
		return m, nil
	}

	if session.Phase.Terminal() {
		switch key.String() {
		case "enter", "esc":
			return m, action(verifyDismiss)
		}
		return m, nil
	}

	switch session.Phase {
	case verification.PhaseShowingEmoji:
		switch key.String() {
		case "y":
			return m, action(verifyConfirm)
		case "n":
			return m, action(verifyMismatch)
		case "esc":
			return m, action(verifyCancel)
		}
	default:
		if key.String() == "esc" {
			return m, action(verifyCancel)
		}
	}
	return m, nil
}

func action(a verifyAction) tea.Cmd {
	return func() tea.Msg { return verifyActionMsg{action: a} }
}

func (m VerifyPanelModel) View() string {
	var b strings.Builder

	session := m.machine.Active()
	pending := m.machine.Pending()

	switch {
	case session != nil:
		b.WriteString(fmt.Sprintf("Verifying with %s\n\n", session.PeerUserID))
		switch session.Phase {
		case verification.PhaseWaitingForAccept:
			b.WriteString("Waiting for the other device to accept…\n(esc to cancel)")
		case verification.PhaseSasStarted:
			b.WriteString("Exchanging keys…\n(esc to cancel)")
		case verification.PhaseShowingEmoji:
			b.WriteString("Compare the emoji on both devices:\n\n")
			b.WriteString(renderEmoji(session.Emoji))
			b.WriteString("\n\nDo they match?  (y) yes   (n) no   (esc) cancel")
		case verification.PhaseConfirming:
			b.WriteString("Waiting for the other device to confirm…")
		case verification.PhaseDone:
			b.WriteString("✓ Device verified.\n\n(enter to close)")
		case verification.PhaseCancelled:
			reason := session.CancelReason
			if reason == "" {
				reason = "cancelled"
			}
			b.WriteString(errorStyle.Render("✗ Verification failed: "+reason) + "\n\n(enter to close)")
		}
	case pending != nil:
		b.WriteString(fmt.Sprintf("Verification request from %s\n\n", pending.Sender))
		b.WriteString("Accept?  (y) yes   (n) ignore")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("5")).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderEmoji lays the seven pairs out in a row of symbols with their
// names underneath.
func renderEmoji(pairs []verification.EmojiPair) string {
	cells := make([]string, 0, len(pairs))
	for _, p := range pairs {
		cell := lipgloss.JoinVertical(lipgloss.Center,
			emojiSymbolStyle.Render(p.Symbol),
			emojiLabelStyle.Render(p.Description),
		)
		cells = append(cells, lipgloss.NewStyle().Padding(0, 1).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m VerifyPanelModel) SetSize(w, h int) VerifyPanelModel {
	m.width = w
	m.height = h
	return m
}
