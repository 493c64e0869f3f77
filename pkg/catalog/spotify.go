// Package catalog looks up released tracks on streaming platforms.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrDisabled = errors.New("catalog lookup is not configured")

type Match struct {
	TrackID     string   `json:"track_id"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	ReleaseDate string   `json:"release_date"`
	ISRC        string   `json:"isrc,omitempty"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url,omitempty"`
	Popularity  int      `json:"popularity"`
	Exact       bool     `json:"exact"`
}

type Searcher interface {
	SearchTrack(ctx context.Context, title, artist string) ([]Match, error)
}

type spotifySearcher struct {
	cfg   *clientcredentials.Config
	limit int

	mu    sync.Mutex
	token *oauth2.Token
}

// NewSpotify returns a Searcher using the client-credentials flow. Empty credentials
// yield a Searcher that always returns ErrDisabled.
func NewSpotify(clientID, clientSecret string) Searcher {
	if clientID == "" || clientSecret == "" {
		return disabled{}
	}
	return &spotifySearcher{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotify.TokenURL,
		},
		limit: 10,
	}
}

type disabled struct{}

func (disabled) SearchTrack(context.Context, string, string) ([]Match, error) {
	return nil, ErrDisabled
}

func (s *spotifySearcher) accessToken(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != nil && s.token.Expiry.After(time.Now().Add(30*time.Second)) {
		return s.token, nil
	}
	tok, err := s.cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w", err)
	}
	s.token = tok
	return tok, nil
}

func (s *spotifySearcher) SearchTrack(ctx context.Context, title, artist string) ([]Match, error) {
	tok, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	client := spotify.Authenticator{}.NewClient(tok)
	limit := s.limit
	results, err := client.SearchOpt(Query(title, artist), spotify.SearchTypeTrack, &spotify.Options{Limit: &limit})
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}
	matches := make([]Match, 0, len(results.Tracks.Tracks))
	for _, t := range results.Tracks.Tracks {
		m := Match{
			TrackID:     string(t.ID),
			Title:       t.Name,
			Album:       t.Album.Name,
			ReleaseDate: t.Album.ReleaseDate,
			ISRC:        t.ExternalIDs["isrc"],
			URL:         t.ExternalURLs["spotify"],
			Popularity:  t.Popularity,
		}
		for _, a := range t.Artists {
			m.Artists = append(m.Artists, a.Name)
		}
		if len(t.Album.Images) > 0 {
			m.ImageURL = t.Album.Images[0].URL
		}
		matches = append(matches, m)
	}
	return Rank(matches, title, artist), nil
}

// Query builds a field-filtered Spotify search string.
func Query(title, artist string) string {
	q := fmt.Sprintf("track:%q", strings.TrimSpace(title))
	if a := strings.TrimSpace(artist); a != "" {
		q += fmt.Sprintf(" artist:%q", a)
	}
	return q
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Rank flags exact title+artist matches and orders them first, then by popularity.
func Rank(matches []Match, title, artist string) []Match {
	wantTitle, wantArtist := normalize(title), normalize(artist)
	for i := range matches {
		if normalize(matches[i].Title) != wantTitle {
			continue
		}
		if wantArtist == "" {
			matches[i].Exact = true
			continue
		}
		for _, a := range matches[i].Artists {
			if normalize(a) == wantArtist {
				matches[i].Exact = true
				break
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Exact != matches[j].Exact {
			return matches[i].Exact
		}
		return matches[i].Popularity > matches[j].Popularity
	})
	return matches
}
