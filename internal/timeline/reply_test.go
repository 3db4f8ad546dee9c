package timeline_test

import (
	"strings"
	"testing"

	"github.com/jklear/seance/internal/timeline"
)

func TestParseReplyFallback_PlainBody(t *testing.T) {
	body := "just a normal message"
	info, rest := timeline.ParseReplyFallback(body)
	if info != nil {
		t.Errorf("info = %+v, want nil", info)
	}
	if rest != body {
		t.Errorf("rest = %q, want %q", rest, body)
	}
}

func TestParseReplyFallback_WellFormed(t *testing.T) {
	body := "> <@alice:example.org> original text here\n\nmy reply"
	info, rest := timeline.ParseReplyFallback(body)
	if info == nil {
		t.Fatal("info = nil, want reply context")
	}
	if info.SenderID != "@alice:example.org" {
		t.Errorf("SenderID = %q, want %q", info.SenderID, "@alice:example.org")
	}
	if info.BodyPreview != "original text here" {
		t.Errorf("BodyPreview = %q, want %q", info.BodyPreview, "original text here")
	}
	if rest != "my reply" {
		t.Errorf("rest = %q, want %q", rest, "my reply")
	}
}

func TestParseReplyFallback_MultiLineQuote(t *testing.T) {
	body := "> <@bob:example.org> first quoted line\n> second quoted line\n\nactual reply"
	info, rest := timeline.ParseReplyFallback(body)
	if info == nil {
		t.Fatal("info = nil, want reply context")
	}
	if info.SenderID != "@bob:example.org" {
		t.Errorf("SenderID = %q, want %q", info.SenderID, "@bob:example.org")
	}
	if info.BodyPreview != "first quoted line" {
		t.Errorf("BodyPreview = %q, want %q", info.BodyPreview, "first quoted line")
	}
	if rest != "actual reply" {
		t.Errorf("rest = %q, want %q", rest, "actual reply")
	}
}

func TestParseReplyFallback_NoBlankLine(t *testing.T) {
	// Marker present but no blank line: not a valid quote, body untouched.
	body := "> <@alice:example.org> quoted without terminator"
	info, rest := timeline.ParseReplyFallback(body)
	if info != nil {
		t.Errorf("info = %+v, want nil", info)
	}
	if rest != body {
		t.Errorf("rest = %q, want %q", rest, body)
	}
}

func TestParseReplyFallback_MalformedSender(t *testing.T) {
	// Missing closing bracket: sender falls back to the sentinel and the
	// real body is still recovered.
	body := "> <@broken no bracket\n\nreply text"
	info, rest := timeline.ParseReplyFallback(body)
	if info == nil {
		t.Fatal("info = nil, want reply context")
	}
	if info.SenderID != "@unknown" {
		t.Errorf("SenderID = %q, want %q", info.SenderID, "@unknown")
	}
	if rest != "reply text" {
		t.Errorf("rest = %q, want %q", rest, "reply text")
	}
}

func TestParseReplyFallback_PreviewTruncation(t *testing.T) {
	quoted := strings.Repeat("héllo", 30) // 150 runes, 180 bytes
	body := "> <@alice:example.org> " + quoted + "\n\nreply"
	info, _ := timeline.ParseReplyFallback(body)
	if info == nil {
		t.Fatal("info = nil, want reply context")
	}
	got := []rune(info.BodyPreview)
	if len(got) != 80 {
		t.Errorf("preview length = %d runes, want 80", len(got))
	}
	if !strings.HasPrefix(quoted, info.BodyPreview) {
		t.Error("preview is not a prefix of the quoted text")
	}
}
