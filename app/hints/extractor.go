package hints

import (
	"regexp"
	"strings"

	"github.com/unrlsd/trackhound/app/video"
)

// maxIDRequestLen is the length under which a comment matching the ID
// request pattern is treated as a question, not an answer, and yields no
// hints itself.
const maxIDRequestLen = 30

var idRequestRe = regexp.MustCompile(`(?i)\b(track\s*id|song\s*name|id|what('|’)?s\s+(this|that|the)\s+(track|song|tune)|name\s+of\s+(this|the)\s+(track|song))\b\s*\?*`)

var linkRe = regexp.MustCompile(`https?://(?:www\.|on\.|open\.|m\.)?(?:soundcloud\.com|spotify\.com|beatport\.com|youtube\.com|youtu\.be|shazam\.com)/\S+`)

var dashMentionRe = regexp.MustCompile(`(?i)^(?:.*?\b(?:this is|it('|’)?s)\s+)?\s*([^-–—"']{2,60}?)\s*[-–—]\s*(.{2,80}?)\s*$`)

var paraphraseRe = regexp.MustCompile(`(?i)\b(?:this is|it('|’)?s)\s+(.{2,80}?)\s*$`)

var quotedRe = regexp.MustCompile(`["“']([^"”']{2,80})["”']`)

var byArtistRe = regexp.MustCompile(`(?i)\bby\s+([a-z][a-z0-9&.\s]{1,40}?)\s*$`)

var timestampRe = regexp.MustCompile(`(?:at\s+|@\s*)?\b(\d{1,2}:\d{2}(?::\d{2})?)\b`)

// stoplist rejects dash captures that are generic chatter rather than
// artist or track names.
var stoplist = map[string]bool{
	"this":   true,
	"fire":   true,
	"banger": true,
	"it":     true,
	"that":   true,
	"he":     true,
	"she":    true,
	"insane": true,
	"sick":   true,
	"tune":   true,
}

// rule is one detection family: a pattern plus how to turn its match into a
// hint. Rules run in fixed order and a comment yields at most one hint per
// rule, though several rules may all fire on the same comment.
type rule struct {
	name  string
	apply func(text string, st *commentState) *Hint
}

// commentState carries cross-rule conditions within a single comment:
// later rules only fire when specific earlier ones missed.
type commentState struct {
	isReply     bool
	dashMatched bool
	anyMatched  bool
	hints       []*Hint
}

// Extractor mines track identity hints from comment threads. It is pure:
// the same thread always yields the same hints in the same order.
type Extractor struct {
	rules []rule
}

func NewExtractor() *Extractor {
	e := &Extractor{}
	e.rules = []rule{
		{name: "service_link", apply: e.applyLinks},
		{name: "dash_mention", apply: e.applyDashMention},
		{name: "paraphrase", apply: e.applyParaphrase},
		{name: "quoted_title", apply: e.applyQuoted},
		{name: "by_artist", apply: e.applyByArtist},
		{name: "timestamp", apply: e.applyTimestamp},
	}
	return e
}

// Extract walks the comment tree in order and returns the raw hint list,
// before deduplication and filtering.
func (e *Extractor) Extract(comments []video.Comment) []Hint {
	var out []Hint
	for _, c := range comments {
		e.extractComment(c, false, &out)
	}
	return out
}

func (e *Extractor) extractComment(c video.Comment, replyToIDRequest bool, out *[]Hint) {
	text := strings.TrimSpace(c.Text)
	isRequest := idRequestRe.MatchString(text)

	// A short comment matching the request pattern is a question, not an
	// answer. It still elevates its replies.
	if !(isRequest && len(text) < maxIDRequestLen) && text != "" {
		st := &commentState{isReply: replyToIDRequest}
		for _, r := range e.rules {
			if hint := r.apply(text, st); hint != nil {
				hint.CommentText = c.Text
				hint.CommentAuthor = c.Author
				hint.IsReplyToIDRequest = replyToIDRequest
				st.hints = append(st.hints, hint)
				st.anyMatched = true
			}
		}
		for _, h := range st.hints {
			*out = append(*out, *h)
		}
	}

	for _, reply := range c.Replies {
		e.extractComment(reply, isRequest, out)
	}
}

func (e *Extractor) applyLinks(text string, st *commentState) *Hint {
	links := linkRe.FindAllString(text, -1)
	if len(links) == 0 {
		return nil
	}
	return &Hint{Type: TypeLink, Confidence: ConfidenceHigh, Links: links}
}

func (e *Extractor) applyDashMention(text string, st *commentState) *Hint {
	m := dashMentionRe.FindStringSubmatch(stripLinks(text))
	if m == nil {
		return nil
	}

	artist := strings.TrimSpace(m[2])
	title := strings.TrimSpace(m[3])
	if stoplist[strings.ToLower(artist)] || stoplist[strings.ToLower(title)] {
		return nil
	}

	st.dashMatched = true
	hint := &Hint{PossibleArtist: artist, PossibleTitle: title}
	if st.isReply {
		hint.Type = TypeIDResponse
		hint.Confidence = ConfidenceHigh
	} else {
		hint.Type = TypeDirectMention
		hint.Confidence = ConfidenceMedium
	}
	return hint
}

func (e *Extractor) applyParaphrase(text string, st *commentState) *Hint {
	// The dash rule owns "it's Artist - Title" comments.
	if st.dashMatched {
		return nil
	}

	m := paraphraseRe.FindStringSubmatch(stripLinks(text))
	if m == nil {
		return nil
	}

	name := strings.TrimSpace(m[2])
	if stoplist[strings.ToLower(name)] {
		return nil
	}

	hint := &Hint{PossibleTitle: name}
	if st.isReply {
		hint.Type = TypeIDResponse
		hint.Confidence = ConfidenceHigh
	} else {
		hint.Type = TypeDirectMention
		hint.Confidence = ConfidenceMedium
	}
	return hint
}

func (e *Extractor) applyQuoted(text string, st *commentState) *Hint {
	if st.dashMatched {
		return nil
	}

	m := quotedRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	title := strings.TrimSpace(m[1])
	if stoplist[strings.ToLower(title)] {
		return nil
	}

	return &Hint{Type: TypeDirectMention, Confidence: ConfidenceMedium, PossibleTitle: title}
}

func (e *Extractor) applyByArtist(text string, st *commentState) *Hint {
	if st.anyMatched {
		return nil
	}

	m := byArtistRe.FindStringSubmatch(stripLinks(text))
	if m == nil {
		return nil
	}

	artist := strings.TrimSpace(m[1])
	if stoplist[strings.ToLower(artist)] {
		return nil
	}

	return &Hint{Type: TypeDirectMention, Confidence: ConfidenceLow, PossibleArtist: artist}
}

func (e *Extractor) applyTimestamp(text string, st *commentState) *Hint {
	m := timestampRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	// Attach to an earlier hint from the same comment when one exists.
	if len(st.hints) > 0 {
		st.hints[0].TimestampRef = m[1]
		return nil
	}

	return &Hint{Type: TypeTimestampRef, Confidence: ConfidenceLow, TimestampRef: m[1]}
}

// stripLinks removes URLs before text-pattern matching so a link's path
// segments never masquerade as an artist or title.
func stripLinks(text string) string {
	return strings.TrimSpace(linkRe.ReplaceAllString(text, ""))
}
