package main

import (
	"net/http"
	"strings"

	"vinylfeed/internal/app/memberships"
	"vinylfeed/internal/app/playlists"
	"vinylfeed/internal/app/tracks"
	"vinylfeed/internal/app/users"
	"vinylfeed/internal/httpapi"
	"vinylfeed/internal/logging"
	"vinylfeed/internal/middleware"
	"vinylfeed/internal/musicapi"
	"vinylfeed/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store) http.Handler {
	userSvc := users.New(dataStore)
	playlistSvc := playlists.New(dataStore)
	membershipSvc := memberships.New(dataStore)
	trackSvc := tracks.New(dataStore, newPlatformClient(cfg))

	server := httpapi.New(userSvc, trackSvc, playlistSvc, membershipSvc)

	// Recovery sits inside RequestLogging so recovered panics carry the
	// request ID and still show up in the access log as 500s.
	handler := server.Routes()
	handler = middleware.Recovery()(handler)
	handler = middleware.RequestLogging()(handler)

	return withCORS(cfg.AllowedOrigins, handler)
}

// newPlatformClient picks the external platform client based on which
// credentials are configured. Returns nil when none are.
func newPlatformClient(cfg Config) musicapi.Client {
	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		logging.Info("Spotify client initialized")
		return musicapi.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	}

	if cfg.AppleMusicKeyID != "" && cfg.AppleMusicTeamID != "" && cfg.AppleMusicPrivateKey != "" {
		client, err := musicapi.NewAppleMusicClient(cfg.AppleMusicKeyID, cfg.AppleMusicTeamID, cfg.AppleMusicPrivateKey)
		if err != nil {
			logging.Error(err, "Apple Music client setup failed, platform search disabled")
			return nil
		}
		logging.Info("Apple Music client initialized")
		return client
	}

	logging.Info("No platform credentials provided, platform search disabled")
	return nil
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, X-User-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
