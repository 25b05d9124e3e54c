package catalog

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifySearcher queries the Spotify catalog using the client credentials
// flow. The oauth2 TokenSource owns the bearer token and refreshes it on
// expiry, so no token state lives outside the client.
type SpotifySearcher struct {
	client *spotify.Client
}

// NewSpotifySearcher returns nil when credentials are missing, which the
// Checker reports as a skipped check rather than an error.
func NewSpotifySearcher(ctx context.Context, clientID, clientSecret string) *SpotifySearcher {
	if clientID == "" || clientSecret == "" {
		return nil
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	httpClient := config.Client(ctx)
	return &SpotifySearcher{client: spotify.New(httpClient)}
}

func (s *SpotifySearcher) SearchTracks(ctx context.Context, query string, limit int) ([]candidate, error) {
	results, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}

	if results.Tracks == nil {
		return nil, nil
	}

	candidates := make([]candidate, 0, len(results.Tracks.Tracks))
	for _, track := range results.Tracks.Tracks {
		artist := ""
		if len(track.Artists) > 0 {
			artist = track.Artists[0].Name
		}
		candidates = append(candidates, candidate{
			Artist:          artist,
			Title:           track.Name,
			DurationSeconds: int(track.TimeDuration().Seconds()),
		})
	}

	return candidates, nil
}
