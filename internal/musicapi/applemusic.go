package musicapi

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AppleMusicClient implements Client against the Apple Music API.
type AppleMusicClient struct {
	keyID      string
	teamID     string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	tokenTime time.Time
}

// NewAppleMusicClient creates an Apple Music API client from a MusicKit
// key. privateKeyPEM is the PEM-encoded EC private key downloaded from the
// developer portal.
func NewAppleMusicClient(keyID, teamID, privateKeyPEM string) (*AppleMusicClient, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM block containing the key")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &AppleMusicClient{
		keyID:      keyID,
		teamID:     teamID,
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type appleMusicSearchResponse struct {
	Results struct {
		Songs *appleMusicSongsResults `json:"songs,omitempty"`
	} `json:"results"`
}

type appleMusicSongsResults struct {
	Data []appleMusicSong `json:"data"`
}

type appleMusicSong struct {
	ID         string                   `json:"id"`
	Type       string                   `json:"type"`
	Attributes appleMusicSongAttributes `json:"attributes"`
}

type appleMusicSongAttributes struct {
	Name             string              `json:"name"`
	ArtistName       string              `json:"artistName"`
	AlbumName        string              `json:"albumName"`
	DurationInMillis int                 `json:"durationInMillis"`
	ISRC             string              `json:"isrc"`
	Artwork          appleMusicArtwork   `json:"artwork"`
	Previews         []appleMusicPreview `json:"previews"`
	URL              string              `json:"url"`
}

type appleMusicArtwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type appleMusicPreview struct {
	URL string `json:"url"`
}

// generateToken creates a JWT for Apple Music API authentication. Developer
// tokens are valid for up to six months but we refresh every 12 hours.
func (c *AppleMusicClient) generateToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Since(c.tokenTime) < 12*time.Hour {
		return c.token, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.teamID,
		"iat": now.Unix(),
		"exp": now.Add(6 * 30 * 24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.keyID

	tokenString, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	c.token = tokenString
	c.tokenTime = now

	return tokenString, nil
}

// doRequest performs an authenticated request to the Apple Music API.
func (c *AppleMusicClient) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	token, err := c.generateToken()
	if err != nil {
		return err
	}

	apiURL := "https://api.music.apple.com/v1/" + endpoint
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
		return fmt.Errorf("apple music api error: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// SearchTracks searches for songs on Apple Music.
func (c *AppleMusicClient) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	params := url.Values{
		"term":  []string{query},
		"types": []string{"songs"},
		"limit": []string{fmt.Sprintf("%d", limit)},
	}

	var result appleMusicSearchResponse
	if err := c.doRequest(ctx, "catalog/us/search", params, &result); err != nil {
		return nil, err
	}

	if result.Results.Songs == nil {
		return []Track{}, nil
	}

	tracks := make([]Track, 0, len(result.Results.Songs.Data))
	for _, as := range result.Results.Songs.Data {
		tracks = append(tracks, convertAppleMusicSong(as))
	}

	return tracks, nil
}

// GetTrack fetches a single song by its Apple Music ID.
func (c *AppleMusicClient) GetTrack(ctx context.Context, externalID string) (*Track, error) {
	type songResponse struct {
		Data []appleMusicSong `json:"data"`
	}

	var result songResponse
	if err := c.doRequest(ctx, "catalog/us/songs/"+url.PathEscape(externalID), nil, &result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("track not found")
	}

	track := convertAppleMusicSong(result.Data[0])
	return &track, nil
}

func convertAppleMusicSong(as appleMusicSong) Track {
	previewURL := ""
	if len(as.Attributes.Previews) > 0 {
		previewURL = as.Attributes.Previews[0].URL
	}

	// Artwork URLs carry {w}x{h} placeholders.
	coverURL := strings.ReplaceAll(as.Attributes.Artwork.URL, "{w}", "600")
	coverURL = strings.ReplaceAll(coverURL, "{h}", "600")

	return Track{
		ExternalID: as.ID,
		Provider:   ProviderAppleMusic,
		Title:      as.Attributes.Name,
		Artist:     as.Attributes.ArtistName,
		Album:      as.Attributes.AlbumName,
		DurationMS: as.Attributes.DurationInMillis,
		ISRC:       as.Attributes.ISRC,
		CoverURL:   coverURL,
		PreviewURL: previewURL,
	}
}
