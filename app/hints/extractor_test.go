package hints

import (
	"testing"

	"github.com/unrlsd/trackhound/app/video"
)

func extract(comments ...video.Comment) []Hint {
	return NewExtractor().Extract(comments)
}

func TestExtract_DashMention(t *testing.T) {
	hints := extract(video.Comment{
		Text:   "Daft Punk - Harder Better Faster Stronger",
		Author: "crate_digger",
	})

	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d: %+v", len(hints), hints)
	}

	h := hints[0]
	if h.Type != TypeDirectMention {
		t.Errorf("Expected direct_mention, got %s", h.Type)
	}
	if h.Confidence != ConfidenceMedium {
		t.Errorf("Top-level dash mention should be medium, got %s", h.Confidence)
	}
	if h.PossibleArtist != "Daft Punk" {
		t.Errorf("Expected artist Daft Punk, got %q", h.PossibleArtist)
	}
	if h.PossibleTitle != "Harder Better Faster Stronger" {
		t.Errorf("Expected full title, got %q", h.PossibleTitle)
	}
	if h.CommentAuthor != "crate_digger" {
		t.Errorf("Author not carried over: %q", h.CommentAuthor)
	}
}

func TestExtract_ReplyToIDRequest(t *testing.T) {
	hints := extract(video.Comment{
		Text: "ID?",
		Replies: []video.Comment{
			{Text: "it's Chris Stussy - Darkness"},
		},
	})

	if len(hints) != 1 {
		t.Fatalf("Expected exactly 1 hint, got %d: %+v", len(hints), hints)
	}

	h := hints[0]
	if h.Type != TypeIDResponse {
		t.Errorf("Expected id_response, got %s", h.Type)
	}
	if h.Confidence != ConfidenceHigh {
		t.Errorf("Reply to ID request should be high, got %s", h.Confidence)
	}
	if h.PossibleArtist != "Chris Stussy" || h.PossibleTitle != "Darkness" {
		t.Errorf("Unexpected capture: %q / %q", h.PossibleArtist, h.PossibleTitle)
	}
	if !h.IsReplyToIDRequest {
		t.Error("IsReplyToIDRequest should be set")
	}
}

func TestExtract_ShortIDRequestYieldsNothing(t *testing.T) {
	for _, text := range []string{"ID?", "track id?", "song name??"} {
		if hints := extract(video.Comment{Text: text}); len(hints) != 0 {
			t.Errorf("Request %q should yield no hints, got %+v", text, hints)
		}
	}
}

func TestExtract_LongIDMentionStillProcessed(t *testing.T) {
	// Over 30 characters the request pattern no longer disqualifies the
	// comment, it may be an answer that happens to say "track".
	hints := extract(video.Comment{
		Text: "the track id is Fred again.. - Delilah pull me out of this",
	})
	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d", len(hints))
	}
}

func TestExtract_ServiceLinks(t *testing.T) {
	hints := extract(video.Comment{
		Text: "found it https://soundcloud.com/artist/track-name enjoy",
	})

	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d: %+v", len(hints), hints)
	}
	h := hints[0]
	if h.Type != TypeLink || h.Confidence != ConfidenceHigh {
		t.Errorf("Link hints are high confidence, got %s/%s", h.Type, h.Confidence)
	}
	if len(h.Links) != 1 || h.Links[0] != "https://soundcloud.com/artist/track-name" {
		t.Errorf("Unexpected links: %v", h.Links)
	}
}

func TestExtract_NonMusicLinkIgnored(t *testing.T) {
	if hints := extract(video.Comment{Text: "lol https://example.com/meme"}); len(hints) != 0 {
		t.Errorf("Non-music links should not produce hints, got %+v", hints)
	}
}

func TestExtract_StoplistRejectsGenericDash(t *testing.T) {
	for _, text := range []string{"this - is fire", "fire - banger", "sick - tune"} {
		if hints := extract(video.Comment{Text: text}); len(hints) != 0 {
			t.Errorf("Stoplisted capture %q should yield nothing, got %+v", text, hints)
		}
	}
}

func TestExtract_Paraphrase(t *testing.T) {
	hints := extract(video.Comment{Text: "this is Rhythm of the Night"})

	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d", len(hints))
	}
	h := hints[0]
	if h.Type != TypeDirectMention || h.Confidence != ConfidenceMedium {
		t.Errorf("Unexpected hint: %s/%s", h.Type, h.Confidence)
	}
	if h.PossibleTitle != "Rhythm of the Night" {
		t.Errorf("Unexpected title: %q", h.PossibleTitle)
	}
}

func TestExtract_QuotedOnlyWhenDashMissed(t *testing.T) {
	hints := extract(video.Comment{Text: `the one called "Levels" I think`})
	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d: %+v", len(hints), hints)
	}
	if hints[0].PossibleTitle != "Levels" {
		t.Errorf("Unexpected title: %q", hints[0].PossibleTitle)
	}

	// With a dash match present the quoted rule stays silent.
	hints = extract(video.Comment{Text: `Avicii - "Levels"`})
	for _, h := range hints {
		if h.PossibleTitle == "Levels" && h.PossibleArtist == "" {
			t.Errorf("Quoted rule should not fire after a dash match: %+v", hints)
		}
	}
}

func TestExtract_ByArtistOnlyWhenNothingElseMatched(t *testing.T) {
	hints := extract(video.Comment{Text: "pretty sure that one is by Bicep"})
	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d: %+v", len(hints), hints)
	}
	h := hints[0]
	if h.Confidence != ConfidenceLow {
		t.Errorf("by-artist hints are low confidence, got %s", h.Confidence)
	}
	if h.PossibleArtist != "Bicep" {
		t.Errorf("Unexpected artist: %q", h.PossibleArtist)
	}

	// A dash match suppresses the weaker by-artist rule.
	hints = extract(video.Comment{Text: "Bicep - Glue by Bicep"})
	if len(hints) != 1 {
		t.Errorf("Expected only the dash hint, got %+v", hints)
	}
}

func TestExtract_TimestampAttachesToExistingHint(t *testing.T) {
	hints := extract(video.Comment{Text: "Chris Stussy - Darkness at 12:45"})

	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d: %+v", len(hints), hints)
	}
	if hints[0].TimestampRef != "12:45" {
		t.Errorf("Timestamp should attach to the dash hint, got %q", hints[0].TimestampRef)
	}
}

func TestExtract_StandaloneTimestamp(t *testing.T) {
	hints := extract(video.Comment{Text: "the drop @ 1:02:45 omg"})

	if len(hints) != 1 {
		t.Fatalf("Expected 1 hint, got %d", len(hints))
	}
	h := hints[0]
	if h.Type != TypeTimestampRef || h.Confidence != ConfidenceLow {
		t.Errorf("Standalone timestamps are low-confidence timestamp_ref, got %s/%s", h.Type, h.Confidence)
	}
	if h.TimestampRef != "1:02:45" {
		t.Errorf("Unexpected timestamp: %q", h.TimestampRef)
	}
}

func TestExtract_OrderPreservedWithinThread(t *testing.T) {
	hints := extract(
		video.Comment{Text: "Artist One - First Track"},
		video.Comment{Text: "Artist Two - Second Track"},
	)

	if len(hints) != 2 {
		t.Fatalf("Expected 2 hints, got %d", len(hints))
	}
	if hints[0].PossibleArtist != "Artist One" || hints[1].PossibleArtist != "Artist Two" {
		t.Errorf("Thread order not preserved: %+v", hints)
	}
}

func TestDedupe(t *testing.T) {
	hints := []Hint{
		{PossibleArtist: "Bicep", PossibleTitle: "Glue", Confidence: ConfidenceMedium},
		{PossibleArtist: "bicep", PossibleTitle: "glue", Confidence: ConfidenceHigh},
		{PossibleArtist: "Other", PossibleTitle: "Track", Confidence: ConfidenceLow},
	}

	out := Dedupe(hints)
	if len(out) != 2 {
		t.Fatalf("Expected 2 hints after dedupe, got %d", len(out))
	}
	if out[0].Confidence != ConfidenceMedium {
		t.Error("Dedupe should keep the first occurrence")
	}
}

func TestDedupe_AllEmptyKeysNeverCollapse(t *testing.T) {
	hints := []Hint{
		{Type: TypeTimestampRef, TimestampRef: "0:45", Confidence: ConfidenceLow},
		{Type: TypeTimestampRef, TimestampRef: "1:30", Confidence: ConfidenceLow},
	}

	if out := Dedupe(hints); len(out) != 2 {
		t.Errorf("Timestamp-only hints must never collapse, got %d", len(out))
	}
}

func TestSortByConfidence(t *testing.T) {
	hints := []Hint{
		{PossibleTitle: "a", Confidence: ConfidenceLow},
		{PossibleTitle: "b", Confidence: ConfidenceHigh},
		{PossibleTitle: "c", Confidence: ConfidenceMedium},
		{PossibleTitle: "d", Confidence: ConfidenceHigh},
	}

	SortByConfidence(hints)

	got := []string{hints[0].PossibleTitle, hints[1].PossibleTitle, hints[2].PossibleTitle, hints[3].PossibleTitle}
	want := []string{"b", "d", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected stable order %v, got %v", want, got)
		}
	}
}

func TestFilterIDRelated(t *testing.T) {
	hints := []Hint{
		{PossibleTitle: "keep-reply", Confidence: ConfidenceMedium, IsReplyToIDRequest: true},
		{PossibleTitle: "keep-type", Type: TypeIDResponse, Confidence: ConfidenceMedium},
		{PossibleTitle: "keep-high", Type: TypeLink, Confidence: ConfidenceHigh},
		{PossibleTitle: "drop", Type: TypeDirectMention, Confidence: ConfidenceMedium},
	}

	out := FilterIDRelated(hints)
	if len(out) != 3 {
		t.Fatalf("Expected 3 hints, got %d: %+v", len(out), out)
	}
	for _, h := range out {
		if h.PossibleTitle == "drop" {
			t.Error("Medium top-level mention should be filtered out")
		}
	}
}
