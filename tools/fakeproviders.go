package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"flick/internal/clients/providers"
)

// knownSources mimics the runner's registry. Sources missing here answer 404.
var knownSources = []providers.SourceInfo{
	{ID: "superstream", Name: "Superstream", Type: "source", Rank: 300, MediaTypes: []string{"movie", "show"}},
	{ID: "zoechip", Name: "ZoeChip", Type: "source", Rank: 200, MediaTypes: []string{"movie", "show"}},
	{ID: "flixhq", Name: "FlixHQ", Type: "source", Rank: 100, MediaTypes: []string{"movie", "show"}},
	{ID: "upcloud", Name: "UpCloud", Type: "embed", Rank: 200},
}

type runRequest struct {
	ID     string          `json:"id"`
	URL    string          `json:"url"`
	Media  providers.Media `json:"media"`
	Target string          `json:"target"`
}

func main() {
	r := mux.NewRouter()
	r.HandleFunc("/run/all", runAllHandler).Methods("POST")
	r.HandleFunc("/run/source", runSourceHandler).Methods("POST")
	r.HandleFunc("/run/embed", runEmbedHandler).Methods("POST")
	r.HandleFunc("/sources", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, knownSources)
	}).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("GET")

	fmt.Println("Fake providers runner starting on :3080")
	fmt.Println("Media titles containing 'missing' find nothing.")
	log.Fatal(http.ListenAndServe(":3080", r))
}

func runAllHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	log.Printf("runAll: %s %q (%d) target=%s", req.Media.Type, req.Media.Title, req.Media.ReleaseYear, req.Target)

	if strings.Contains(strings.ToLower(req.Media.Title), "missing") {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, providers.RunOutput{
		SourceID: "flixhq",
		EmbedID:  "upcloud",
		Stream:   fakeStream(req.Media),
	})
}

func runSourceHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	log.Printf("runSource: %s for %q", req.ID, req.Media.Title)

	switch req.ID {
	case "superstream":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "superstream: upstream timed out"})
	case "zoechip":
		writeJSON(w, http.StatusOK, providers.SourcererOutput{
			Embeds: []providers.Embed{{EmbedID: "upcloud", URL: "https://upcloud.example/e/" + req.Media.TMDBID}},
		})
	case "flixhq":
		writeJSON(w, http.StatusOK, providers.SourcererOutput{
			Embeds: []providers.Embed{},
			Stream: []providers.Stream{*fakeStream(req.Media)},
		})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "source not found: " + req.ID})
	}
}

func runEmbedHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	log.Printf("runEmbed: %s %s", req.ID, req.URL)

	if req.ID != "upcloud" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "embed not found: " + req.ID})
		return
	}
	writeJSON(w, http.StatusOK, providers.EmbedOutput{
		Stream: []providers.Stream{*fakeStream(providers.Media{TMDBID: "embed"})},
	})
}

func fakeStream(media providers.Media) *providers.Stream {
	path := media.TMDBID
	if media.Season != nil && media.Episode != nil {
		path = fmt.Sprintf("%s/s%02de%02d", media.TMDBID, media.Season.Number, media.Episode.Number)
	}
	return &providers.Stream{
		ID:       "primary",
		Type:     providers.StreamTypeHLS,
		Playlist: "http://localhost:3080/hls/" + path + "/master.m3u8",
		Flags:    []string{"cors-allowed"},
		Captions: []providers.Caption{
			{ID: "en", Language: "en", URL: "http://localhost:3080/subs/" + path + "/en.vtt", Type: "vtt"},
		},
	}
}

func decode(w http.ResponseWriter, r *http.Request) (runRequest, bool) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
