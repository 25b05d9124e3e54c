package hints

// Hint types.
const (
	TypeIDResponse    = "id_response"
	TypeDirectMention = "direct_mention"
	TypeLink          = "link"
	TypeTimestampRef  = "timestamp_ref"
)

// Confidence levels, strongest first.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Hint is a confidence-scored guess at a track's identity mined from a
// single comment.
type Hint struct {
	Type               string
	Confidence         string
	CommentText        string
	CommentAuthor      string
	PossibleArtist     string
	PossibleTitle      string
	Links              []string
	TimestampRef       string
	IsReplyToIDRequest bool
}

func confidenceRank(c string) int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	default:
		return 2
	}
}
