package video

// Raw is the tagged union of per-platform scraper payloads. Each variant
// carries only the fields its platform's scraping actor actually returns;
// the normalizer is a total match over this union.
type Raw interface {
	Platform() Platform
}

// RawComment mirrors the nested comment shape shared by all scrapers.
type RawComment struct {
	Text    string       `json:"text"`
	User    string       `json:"user"`
	Replies []RawComment `json:"replies,omitempty"`
}

// RawTikTok is one TikTok post as returned by the TikTok scraping actor.
type RawTikTok struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"create_time"`
	ShareURL   string `json:"share_url"`
	Author     struct {
		UniqueID string `json:"unique_id"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Video struct {
		Duration     int    `json:"duration"`
		DownloadAddr string `json:"download_addr"`
		PlayAddr     string `json:"play_addr"`
	} `json:"video"`
	Music struct {
		Title    string `json:"title"`
		Duration int    `json:"duration"`
	} `json:"music"`
	Comments []RawComment `json:"comments,omitempty"`
}

func (RawTikTok) Platform() Platform { return PlatformTikTok }

// RawInstagram is one Instagram reel/post as returned by its scraping actor.
type RawInstagram struct {
	Shortcode        string  `json:"shortcode"`
	Caption          string  `json:"caption"`
	VideoDuration    float64 `json:"video_duration"`
	MediaDuration    float64 `json:"media_duration"`
	TakenAtTimestamp int64   `json:"taken_at_timestamp"`
	Owner            struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"owner"`
	VideoURL string       `json:"video_url"`
	Comments []RawComment `json:"comments,omitempty"`
}

func (RawInstagram) Platform() Platform { return PlatformInstagram }

// RawYouTube is one YouTube video as returned by the YouTube scraping actor.
type RawYouTube struct {
	VideoID       string       `json:"video_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	LengthSeconds int          `json:"length_seconds"`
	PublishedAt   int64        `json:"published_at"`
	ChannelName   string       `json:"channel_name"`
	ChannelID     string       `json:"channel_id"`
	Comments      []RawComment `json:"comments,omitempty"`
}

func (RawYouTube) Platform() Platform { return PlatformYouTube }

// RawSoundCloud is one SoundCloud upload, from the scraper or the RSS
// discovery source. Durations arrive in milliseconds from the API and in
// seconds from RSS; DurationSeconds wins when both are present.
type RawSoundCloud struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	DurationSeconds int          `json:"duration_seconds"`
	DurationMS      int          `json:"duration_ms"`
	CreatedAt       int64        `json:"created_at"`
	PermalinkURL    string       `json:"permalink_url"`
	StreamURL       string       `json:"stream_url"`
	User            struct {
		Username  string `json:"username"`
		Permalink string `json:"permalink"`
	} `json:"user"`
	Comments []RawComment `json:"comments,omitempty"`
}

func (RawSoundCloud) Platform() Platform { return PlatformSoundCloud }
