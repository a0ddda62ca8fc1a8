package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"podpull/internal/registry"
)

const defaultEpisodeLimit = 50

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health, err := s.store.Health(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	podcasts, err := s.store.ListPodcasts(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recent, err := s.store.RecentErrors(ctx, 10)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := statusJSON{
		Health:       toHealthJSON(health),
		Stats:        make(map[string]int, len(stats)),
		Podcasts:     make([]podcastJSON, 0, len(podcasts)),
		RecentErrors: make([]episodeJSON, 0, len(recent)),
	}
	for status, count := range stats {
		out.Stats[string(status)] = count
	}
	for _, podcast := range podcasts {
		out.Podcasts = append(out.Podcasts, toPodcastJSON(podcast))
	}
	for _, episode := range recent {
		out.RecentErrors = append(out.RecentErrors, toEpisodeJSON(episode))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePodcasts(w http.ResponseWriter, r *http.Request) {
	podcasts, err := s.store.ListPodcasts(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]podcastJSON, 0, len(podcasts))
	for _, podcast := range podcasts {
		out = append(out, toPodcastJSON(podcast))
	}
	s.writeJSON(w, http.StatusOK, map[string][]podcastJSON{"podcasts": out})
}

func (s *Server) handlePodcastEpisodes(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetPodcastByID(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	episodes, err := s.store.ListByPodcast(r.Context(), id, s.queryLimit(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, toEpisodeListJSON(episodes))
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		raw = string(registry.StatusDiscovered)
	}
	status, ok := registry.ParseStatus(raw)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
		return
	}
	episodes, err := s.store.ListByStatus(r.Context(), status, s.queryLimit(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, toEpisodeListJSON(episodes))
}

func (s *Server) handleEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	episode, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toEpisodeJSON(episode))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	episode, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	switch episode.Status {
	case registry.StatusFailed:
		_, err = s.store.ResetFailed(ctx, id)
	case registry.StatusAbandoned:
		_, err = s.store.ResetAbandoned(ctx, id)
	default:
		s.writeError(w, http.StatusConflict,
			fmt.Sprintf("episode %d is %s, only failed or abandoned episodes can be retried", id, episode.Status))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	episode, err = s.store.GetByID(ctx, id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toEpisodeJSON(episode))
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}

func (s *Server) queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultEpisodeLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return defaultEpisodeLimit
	}
	return limit
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}
