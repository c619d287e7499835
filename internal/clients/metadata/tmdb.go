package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type TMDBClient struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

type tmdbMovie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

type tmdbShow struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FirstAirDate string `json:"first_air_date"`
}

type tmdbStatus struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func NewTMDBClient(apiKey, baseURL, language string, timeout time.Duration) *TMDBClient {
	return &TMDBClient{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetMovie fetches /movie/{id} and keeps the title and release date.
func (t *TMDBClient) GetMovie(ctx context.Context, id string) (*MovieResult, error) {
	var movie tmdbMovie
	if err := t.get(ctx, "/movie/"+url.PathEscape(id), &movie); err != nil {
		return nil, fmt.Errorf("failed to fetch TMDB movie %s: %w", id, err)
	}

	resultID := id
	if movie.ID != 0 {
		resultID = formatID(movie.ID)
	}

	return &MovieResult{
		ID:          resultID,
		Title:       movie.Title,
		ReleaseDate: movie.ReleaseDate,
		ReleaseYear: ReleaseYear(movie.ReleaseDate),
	}, nil
}

// GetTVShow fetches /tv/{id} and keeps the name and first air date.
func (t *TMDBClient) GetTVShow(ctx context.Context, id string) (*TVShowResult, error) {
	var show tmdbShow
	if err := t.get(ctx, "/tv/"+url.PathEscape(id), &show); err != nil {
		return nil, fmt.Errorf("failed to fetch TMDB TV show %s: %w", id, err)
	}

	resultID := id
	if show.ID != 0 {
		resultID = formatID(show.ID)
	}

	return &TVShowResult{
		ID:           resultID,
		Name:         show.Name,
		FirstAirDate: show.FirstAirDate,
		ReleaseYear:  ReleaseYear(show.FirstAirDate),
	}, nil
}

// HealthCheck hits /configuration, the cheapest authenticated TMDB endpoint.
func (t *TMDBClient) HealthCheck(ctx context.Context) error {
	var discard json.RawMessage
	if err := t.get(ctx, "/configuration", &discard); err != nil {
		return fmt.Errorf("TMDB health check failed: %w", err)
	}
	return nil
}

func (t *TMDBClient) get(ctx context.Context, path string, dst interface{}) error {
	params := url.Values{}
	params.Add("api_key", t.apiKey)
	if t.language != "" {
		params.Add("language", t.language)
	}

	reqURL := fmt.Sprintf("%s%s?%s", t.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create TMDB request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach TMDB: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var status tmdbStatus
		_ = json.NewDecoder(resp.Body).Decode(&status)
		return &HTTPError{StatusCode: resp.StatusCode, Message: status.StatusMessage}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}
	return nil
}
