package timeline

import "strings"

// replyMarker opens the legacy rich-reply fallback quote: "> <@user:server>".
const replyMarker = "> <@"

// previewLimit bounds the reply preview in Unicode scalars, not bytes.
const previewLimit = 80

// unknownSender is used when the quote block's sender cannot be parsed.
const unknownSender = "@unknown"

// ParseReplyFallback splits a legacy fallback-wrapped reply body into the
// quoted-reply preview and the remaining real body. Bodies that do not
// start with the quote marker, or that lack the blank line terminating the
// quote block, pass through unchanged with a nil preview.
func ParseReplyFallback(body string) (*ReplyInfo, string) {
	if !strings.HasPrefix(body, replyMarker) {
		return nil, body
	}
	idx := strings.Index(body, "\n\n")
	if idx < 0 {
		return nil, body
	}
	quoteBlock := body[:idx]
	realBody := body[idx+2:]

	firstLine := quoteBlock
	if nl := strings.IndexByte(quoteBlock, '\n'); nl >= 0 {
		firstLine = quoteBlock[:nl]
	}
	afterPrefix := strings.TrimPrefix(firstLine, "> ")

	senderID := unknownSender
	if rest, ok := strings.CutPrefix(afterPrefix, "<"); ok {
		if end := strings.IndexByte(rest, '>'); end >= 0 {
			senderID = rest[:end]
		}
	}

	var preview string
	if end := strings.IndexByte(afterPrefix, '>'); end >= 0 {
		preview = strings.TrimSpace(afterPrefix[end+1:])
	}
	preview = truncateRunes(preview, previewLimit)

	return &ReplyInfo{SenderID: senderID, BodyPreview: preview}, realBody
}

// ReplyInfo is the partial reply context extracted from a fallback body.
type ReplyInfo struct {
	SenderID    string
	BodyPreview string
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
