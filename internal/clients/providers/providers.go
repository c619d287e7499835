// Package providers is the boundary to the provider library that does the
// actual scraping. flick treats the library as opaque: it hands over a media
// description and forwards whatever comes back.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// Client mirrors the three entry points of the provider library plus a little
// introspection of the runner hosting it.
type Client interface {
	// RunAll walks sources (and their embeds) until one yields a stream.
	// It returns nil, nil when no source had the media.
	RunAll(ctx context.Context, opts RunOptions) (*RunOutput, error)
	RunSourceScraper(ctx context.Context, opts SourceRunOptions) (*SourcererOutput, error)
	RunEmbedScraper(ctx context.Context, opts EmbedRunOptions) (*EmbedOutput, error)
	ListSources(ctx context.Context) ([]SourceInfo, error)
	HealthCheck(ctx context.Context) error
}

// ErrNotFound is the library's NotFoundError: the source does not carry the media.
var ErrNotFound = errors.New("providers: media not found")

// HTTPError is any other failure reported by the runner.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("providers: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("providers: status %d", e.StatusCode)
}

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

type MediaNumber struct {
	Number int    `json:"number"`
	TMDBID string `json:"tmdbId,omitempty"`
}

// Media describes what to scrape. Season and Episode are only set for shows.
type Media struct {
	Type        MediaType    `json:"type"`
	Title       string       `json:"title"`
	ReleaseYear int          `json:"releaseYear"`
	TMDBID      string       `json:"tmdbId"`
	IMDBID      string       `json:"imdbId,omitempty"`
	Season      *MediaNumber `json:"season,omitempty"`
	Episode     *MediaNumber `json:"episode,omitempty"`
}

type StreamType string

const (
	StreamTypeHLS  StreamType = "hls"
	StreamTypeFile StreamType = "file"
)

type StreamFile struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Caption struct {
	ID                  string `json:"id"`
	Language            string `json:"language"`
	URL                 string `json:"url"`
	Type                string `json:"type"`
	HasCorsRestrictions bool   `json:"hasCorsRestrictions"`
}

// Stream is either an HLS playlist or a set of progressive files keyed by quality.
type Stream struct {
	ID               string                `json:"id"`
	Type             StreamType            `json:"type"`
	Playlist         string                `json:"playlist,omitempty"`
	Qualities        map[string]StreamFile `json:"qualities,omitempty"`
	Flags            []string              `json:"flags"`
	Captions         []Caption             `json:"captions"`
	Headers          map[string]string     `json:"headers,omitempty"`
	PreferredHeaders map[string]string     `json:"preferredHeaders,omitempty"`
}

type Embed struct {
	EmbedID string `json:"embedId"`
	URL     string `json:"url"`
}

// SourcererOutput is what a single source scraper returns: direct streams,
// embeds that still need resolving, or both.
type SourcererOutput struct {
	Embeds []Embed  `json:"embeds"`
	Stream []Stream `json:"stream,omitempty"`
}

// Empty reports whether the source produced neither a stream nor an embed.
// A present but empty stream list still counts as a stream.
func (o *SourcererOutput) Empty() bool {
	return o == nil || (o.Stream == nil && len(o.Embeds) == 0)
}

type EmbedOutput struct {
	Stream []Stream `json:"stream"`
}

type RunOutput struct {
	SourceID string  `json:"sourceId"`
	EmbedID  string  `json:"embedId,omitempty"`
	Stream   *Stream `json:"stream"`
}

// HasPlaylist reports whether the output carries an HLS playlist URL.
func (o *RunOutput) HasPlaylist() bool {
	return o != nil && o.Stream != nil && o.Stream.Playlist != ""
}

type RunOptions struct {
	Media       Media
	SourceOrder []string
	EmbedOrder  []string
}

type SourceRunOptions struct {
	ID    string
	Media Media
}

type EmbedRunOptions struct {
	ID  string
	URL string
}

// SourceInfo describes one scraper registered in the library.
type SourceInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Rank       int      `json:"rank"`
	MediaTypes []string `json:"mediaTypes,omitempty"`
}
