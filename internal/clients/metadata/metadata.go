package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Client is the interface for the metadata service. Every lookup is a single
// request keyed by the service's numeric id.
type Client interface {
	GetMovie(ctx context.Context, id string) (*MovieResult, error)
	GetTVShow(ctx context.Context, id string) (*TVShowResult, error)
	HealthCheck(ctx context.Context) error
}

// MovieResult is the slice of movie metadata the stream endpoints need.
type MovieResult struct {
	ID          string
	Title       string
	ReleaseDate string
	ReleaseYear *int
}

type TVShowResult struct {
	ID           string
	Name         string
	FirstAirDate string
	ReleaseYear  *int
}

var (
	ErrNotFound     = errors.New("metadata: not found")
	ErrUnauthorized = errors.New("metadata: invalid API key")
)

// HTTPError is returned for any other non-2xx answer from the metadata service.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("metadata: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("metadata: status %d", e.StatusCode)
}

var releaseDateLayouts = []string{"2006-01-02", time.RFC3339, "2006"}

// ReleaseYear extracts the calendar year from a release date. It returns nil
// when the date is empty or unparseable so the year serialises as null.
func ReleaseYear(date string) *int {
	if date == "" {
		return nil
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			year := t.Year()
			return &year
		}
	}
	return nil
}

// YearOrZero flattens an optional year for consumers that need a plain int.
func YearOrZero(year *int) int {
	if year == nil {
		return 0
	}
	return *year
}

func formatID(id int) string {
	return strconv.Itoa(id)
}
