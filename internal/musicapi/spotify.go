package musicapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// SpotifyClient implements Client against the Spotify Web API using the
// client-credentials flow.
type SpotifyClient struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
}

// NewSpotifyClient creates a Spotify API client.
func NewSpotifyClient(clientID, clientSecret string) *SpotifyClient {
	return &SpotifyClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type spotifySearchResponse struct {
	Tracks *spotifyTracksPage `json:"tracks,omitempty"`
}

type spotifyTracksPage struct {
	Items []spotifyTrack `json:"items"`
}

type spotifyTrack struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Artists     []spotifySimpleArtist `json:"artists"`
	Album       *spotifyAlbum         `json:"album,omitempty"`
	DurationMS  int                   `json:"duration_ms"`
	ExternalIDs spotifyExternalIDs    `json:"external_ids"`
	PreviewURL  string                `json:"preview_url,omitempty"`
}

type spotifySimpleArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyExternalIDs struct {
	ISRC string `json:"isrc"`
}

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// authenticate obtains an access token from Spotify.
func (c *SpotifyClient) authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.tokenExpiry) {
		return nil
	}

	authString := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", "https://accounts.spotify.com/api/token", strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("create auth request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+authString)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("spotify auth failed: %s - %s", resp.Status, string(body))
	}

	var tokenResp spotifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return nil
}

// doRequest performs an authenticated request to the Spotify API.
func (c *SpotifyClient) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}

	c.mu.RLock()
	token := c.accessToken
	c.mu.RUnlock()

	apiURL := "https://api.spotify.com/v1/" + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("spotify api error: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// SearchTracks searches for tracks on Spotify.
func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	params := url.Values{
		"q":     []string{query},
		"type":  []string{"track"},
		"limit": []string{fmt.Sprintf("%d", limit)},
	}

	var result spotifySearchResponse
	if err := c.doRequest(ctx, "search", params, &result); err != nil {
		return nil, err
	}

	if result.Tracks == nil {
		return []Track{}, nil
	}

	tracks := make([]Track, 0, len(result.Tracks.Items))
	for _, st := range result.Tracks.Items {
		tracks = append(tracks, convertSpotifyTrack(st))
	}

	return tracks, nil
}

// GetTrack fetches a single track by its Spotify ID.
func (c *SpotifyClient) GetTrack(ctx context.Context, externalID string) (*Track, error) {
	var result spotifyTrack
	if err := c.doRequest(ctx, "tracks/"+url.PathEscape(externalID), nil, &result); err != nil {
		return nil, err
	}

	track := convertSpotifyTrack(result)
	return &track, nil
}

func convertSpotifyTrack(st spotifyTrack) Track {
	track := Track{
		ExternalID: st.ID,
		Provider:   ProviderSpotify,
		Title:      st.Name,
		DurationMS: st.DurationMS,
		ISRC:       st.ExternalIDs.ISRC,
		PreviewURL: st.PreviewURL,
	}

	artistNames := make([]string, 0, len(st.Artists))
	for _, artist := range st.Artists {
		artistNames = append(artistNames, artist.Name)
	}
	track.Artist = strings.Join(artistNames, ", ")

	if st.Album != nil {
		track.Album = st.Album.Name
		if len(st.Album.Images) > 0 {
			track.CoverURL = st.Album.Images[0].URL
		}
	}

	return track
}
