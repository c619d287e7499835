package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"flick/internal/clients/providers"
	"flick/internal/core"
	"flick/internal/utils"

	"github.com/gorilla/mux"
)

const (
	movieLookupError = "Error fetching streams or movie details from TMDB"
	tvLookupError    = "Error fetching streams or TV show details from TMDB"
)

// Streamer is the part of core.Manager the HTTP layer drives.
type Streamer interface {
	ScrapeEmbed(ctx context.Context, embedID, url string) (*providers.EmbedOutput, error)
	MovieStreams(ctx context.Context, tmdbID string) (*core.StreamResult, error)
	MovieStreamsAllSources(ctx context.Context, tmdbID string) (*core.AllSourcesResult, error)
	TVStreams(ctx context.Context, tmdbID string, season, episode int) (*core.StreamResult, error)
	GetSystemStatus() core.SystemStatus
}

type APIHandler struct {
	streamer Streamer
	logger   *utils.Logger
}

type embedResponse struct {
	Streams *providers.EmbedOutput `json:"streams"`
}

type streamsResponse struct {
	Streams     interface{} `json:"streams"`
	Title       string      `json:"title"`
	ReleaseYear *int        `json:"releaseYear"`
}

// A helper function to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to respond with a JSON error
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func NewAPIHandler(streamer Streamer, logger *utils.Logger) *APIHandler {
	return &APIHandler{streamer: streamer, logger: logger}
}

// ScrapeEmbed resolves one embed. A failed resolve still answers 200 with null streams.
func (h *APIHandler) ScrapeEmbed(w http.ResponseWriter, r *http.Request) {
	embedID := r.URL.Query().Get("id")
	embedURL := r.URL.Query().Get("url")

	logger := requestLogger(r, h.logger)
	logger.Info("ID:", embedID)
	logger.Info("URL:", embedURL)

	output, err := h.streamer.ScrapeEmbed(r.Context(), embedID, embedURL)
	if err != nil {
		logger.Error("failed to scrape:", err)
		output = nil
	}

	respondJSON(w, http.StatusOK, embedResponse{Streams: output})
}

// GetMovieStreams returns the first playable stream for a movie.
func (h *APIHandler) GetMovieStreams(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.streamer.MovieStreams(r.Context(), id)
	if err != nil {
		requestLogger(r, h.logger).Error("Movie stream lookup failed for", id, ":", err)
		respondError(w, http.StatusInternalServerError, movieLookupError)
		return
	}

	if !result.Output.HasPlaylist() {
		respondError(w, http.StatusNotFound, "No stream found")
		return
	}

	respondJSON(w, http.StatusOK, streamsResponse{
		Streams:     result.Output,
		Title:       result.Title,
		ReleaseYear: result.ReleaseYear,
	})
}

// GetMovieStreamsAllSources returns what every configured source found for a movie.
func (h *APIHandler) GetMovieStreamsAllSources(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.streamer.MovieStreamsAllSources(r.Context(), id)
	if err != nil {
		requestLogger(r, h.logger).Error("Error:", err)
		respondError(w, http.StatusInternalServerError, movieLookupError)
		return
	}

	respondJSON(w, http.StatusOK, streamsResponse{
		Streams:     result.Streams,
		Title:       result.Title,
		ReleaseYear: result.ReleaseYear,
	})
}

// GetTVStreams returns a stream for one episode, selected with ?s=<season>&ep=<episode>.
// Season 0 holds specials.
func (h *APIHandler) GetTVStreams(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	season, errSeason := strconv.Atoi(r.URL.Query().Get("s"))
	episode, errEpisode := strconv.Atoi(r.URL.Query().Get("ep"))
	if errSeason != nil || errEpisode != nil || season < 0 || episode < 1 {
		respondError(w, http.StatusBadRequest, "Please provide a season (s) and episode (ep)")
		return
	}

	result, err := h.streamer.TVStreams(r.Context(), id, season, episode)
	if err != nil {
		requestLogger(r, h.logger).Error("TV stream lookup failed for", id, ":", err)
		respondError(w, http.StatusInternalServerError, tvLookupError)
		return
	}

	if result.Output == nil {
		respondError(w, http.StatusNotFound, "No stream found")
		return
	}

	respondJSON(w, http.StatusOK, streamsResponse{
		Streams:     result.Output,
		Title:       result.Title,
		ReleaseYear: result.ReleaseYear,
	})
}

func (h *APIHandler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.streamer.GetSystemStatus())
}

func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "flick"})
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		respondError(w, http.StatusBadRequest, "Please provide an ID")
		return "", false
	}
	return id, true
}
