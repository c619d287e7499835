package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"flick/internal/clients/metadata"
	"flick/internal/clients/providers"
	"flick/internal/config"
	"flick/internal/metrics"
	"flick/internal/utils"
)

const healthCheckTimeout = 15 * time.Second

// StreamResult is a metadata lookup paired with whatever runAll produced.
// Output is nil when no source had the media.
type StreamResult struct {
	Title       string
	ReleaseYear *int
	Output      *providers.RunOutput
}

// SourceStreams is one source's contribution to an all-sources scrape.
type SourceStreams struct {
	Source string             `json:"source"`
	Stream []providers.Stream `json:"stream"`
	Embeds []providers.Embed  `json:"embeds"`
}

type AllSourcesResult struct {
	Title       string
	ReleaseYear *int
	Streams     []SourceStreams
}

type ComponentStatus struct {
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type SystemStatus struct {
	Providers ComponentStatus `json:"providers"`
	Metadata  ComponentStatus `json:"metadata"`
}

type Manager struct {
	config         *config.Config
	metadataClient metadata.Client
	providerClient providers.Client
	metrics        *metrics.Metrics
	logger         *utils.Logger
	scheduler      *cron.Cron
	checks         sync.WaitGroup

	statusMu sync.RWMutex
	status   SystemStatus
}

// NewManager wires the TMDB client and the providers runner client from config.
func NewManager(cfg *config.Config, logger *utils.Logger, m *metrics.Metrics) *Manager {
	tmdb := metadata.NewTMDBClient(
		cfg.Metadata.TMDB.APIKey,
		cfg.Metadata.TMDB.BaseURL,
		cfg.Metadata.TMDB.Language,
		cfg.Metadata.TMDB.Timeout,
	)

	fetcher := providers.NewStandardFetcher(cfg.Providers.Timeout)
	runner := providers.NewRemoteClient(cfg.Providers.URL, cfg.Providers.Target, fetcher)

	return NewManagerWithClients(cfg, tmdb, runner, logger, m)
}

func NewManagerWithClients(cfg *config.Config, metadataClient metadata.Client, providerClient providers.Client, logger *utils.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		config:         cfg,
		metadataClient: metadataClient,
		providerClient: providerClient,
		metrics:        m,
		logger:         logger,
		scheduler:      cron.New(),
	}
}

// ScrapeEmbed resolves a single embed URL with the named embed scraper.
func (m *Manager) ScrapeEmbed(ctx context.Context, embedID, url string) (*providers.EmbedOutput, error) {
	m.logger.Debug("Running embed scraper", embedID, "for", url)
	return m.providerClient.RunEmbedScraper(ctx, providers.EmbedRunOptions{ID: embedID, URL: url})
}

// MovieStreams looks the movie up on TMDB and lets runAll pick the first
// working source from the configured movie source order.
func (m *Manager) MovieStreams(ctx context.Context, tmdbID string) (*StreamResult, error) {
	movie, err := m.getMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	output, err := m.providerClient.RunAll(ctx, providers.RunOptions{
		Media:       movieMedia(movie),
		SourceOrder: m.config.Providers.MovieSourceOrder,
	})
	if err != nil {
		return nil, err
	}

	return &StreamResult{Title: movie.Title, ReleaseYear: movie.ReleaseYear, Output: output}, nil
}

// MovieStreamsAllSources runs every configured source one after another.
// A failing source is logged and skipped; sources that return neither a
// stream nor an embed are left out of the result.
func (m *Manager) MovieStreamsAllSources(ctx context.Context, tmdbID string) (*AllSourcesResult, error) {
	m.logger.Info("Fetching movie details for ID:", tmdbID)
	movie, err := m.getMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	m.logger.Info(fmt.Sprintf("Movie details fetched: %s, Release Date: %s", movie.Title, movie.ReleaseDate))

	media := movieMedia(movie)
	streams := []SourceStreams{}

	for _, sourceID := range m.config.Providers.AllSources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.logger.Info("Scraping from source", sourceID)
		output, err := m.providerClient.RunSourceScraper(ctx, providers.SourceRunOptions{ID: sourceID, Media: media})
		if err != nil {
			if errors.Is(err, providers.ErrNotFound) {
				m.logger.Info("Source", sourceID, "doesn't have this media")
				m.metrics.RecordSourceScrape(sourceID, metrics.OutcomeNotFound)
			} else {
				m.logger.Error("Failed to scrape from source", sourceID, ":", err)
				m.metrics.RecordSourceScrape(sourceID, metrics.OutcomeError)
			}
			continue
		}
		m.logger.Info("Scraping successful for source", sourceID)

		if output.Empty() {
			m.logger.Info("No streams found from source", sourceID)
			m.metrics.RecordSourceScrape(sourceID, metrics.OutcomeEmpty)
			continue
		}

		m.metrics.RecordSourceScrape(sourceID, metrics.OutcomeFound)
		embeds := output.Embeds
		if embeds == nil {
			embeds = []providers.Embed{}
		}
		streams = append(streams, SourceStreams{
			Source: sourceID,
			Stream: output.Stream,
			Embeds: embeds,
		})
	}

	m.logger.Info("Scraping process completed")

	return &AllSourcesResult{Title: movie.Title, ReleaseYear: movie.ReleaseYear, Streams: streams}, nil
}

// TVStreams scrapes one episode with the library's default source order.
func (m *Manager) TVStreams(ctx context.Context, tmdbID string, season, episode int) (*StreamResult, error) {
	show, err := m.metadataClient.GetTVShow(ctx, tmdbID)
	m.metrics.RecordMetadataRequest("tv", err)
	if err != nil {
		return nil, err
	}

	media := providers.Media{
		Type:        providers.MediaTypeShow,
		Title:       show.Name,
		ReleaseYear: metadata.YearOrZero(show.ReleaseYear),
		TMDBID:      tmdbID,
		Season:      &providers.MediaNumber{Number: season},
		Episode:     &providers.MediaNumber{Number: episode},
	}

	output, err := m.providerClient.RunAll(ctx, providers.RunOptions{Media: media})
	if err != nil {
		return nil, err
	}

	return &StreamResult{Title: show.Name, ReleaseYear: show.ReleaseYear, Output: output}, nil
}

// ListSources reports the scrapers registered in the provider library.
func (m *Manager) ListSources(ctx context.Context) ([]providers.SourceInfo, error) {
	return m.providerClient.ListSources(ctx)
}

func (m *Manager) getMovie(ctx context.Context, tmdbID string) (*metadata.MovieResult, error) {
	movie, err := m.metadataClient.GetMovie(ctx, tmdbID)
	m.metrics.RecordMetadataRequest("movie", err)
	return movie, err
}

func movieMedia(movie *metadata.MovieResult) providers.Media {
	return providers.Media{
		Type:        providers.MediaTypeMovie,
		Title:       movie.Title,
		ReleaseYear: metadata.YearOrZero(movie.ReleaseYear),
		TMDBID:      movie.ID,
	}
}

func (m *Manager) StartScheduler() error {
	if _, err := m.scheduler.AddFunc(m.config.Scheduler.HealthCheck, m.checkHealth); err != nil {
		return fmt.Errorf("invalid health check schedule %q: %w", m.config.Scheduler.HealthCheck, err)
	}
	m.scheduler.Start()
	m.logger.Info("Scheduler started. Performing initial health check.")
	m.checks.Add(1)
	go func() {
		defer m.checks.Done()
		m.checkHealth()
	}()
	return nil
}

// Stop halts the scheduler and waits for running checks, the initial one included.
func (m *Manager) Stop() {
	if m.scheduler != nil {
		<-m.scheduler.Stop().Done()
	}
	m.checks.Wait()
}

func (m *Manager) GetSystemStatus() SystemStatus {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status
}

func (m *Manager) checkHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	now := time.Now()
	status := SystemStatus{
		Providers: componentStatus(m.providerClient.HealthCheck(ctx), now),
		Metadata:  componentStatus(m.metadataClient.HealthCheck(ctx), now),
	}

	if !status.Providers.OK {
		m.logger.Error("Providers runner health check failed:", status.Providers.Error)
	}
	if !status.Metadata.OK {
		m.logger.Error("Metadata health check failed:", status.Metadata.Error)
	}

	m.statusMu.Lock()
	m.status = status
	m.statusMu.Unlock()
}

func componentStatus(err error, checkedAt time.Time) ComponentStatus {
	if err != nil {
		return ComponentStatus{OK: false, Error: err.Error(), CheckedAt: checkedAt}
	}
	return ComponentStatus{OK: true, CheckedAt: checkedAt}
}
