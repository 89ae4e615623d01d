package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/validation"
)

type watchlistAddRequest struct {
	UserID  string `json:"userId" validate:"notblank"`
	MovieID int64  `json:"movieId" validate:"required,min=1"`
}

type watchlistEntryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MovieID   int64     `json:"movieId"`
	CreatedAt time.Time `json:"createdAt"`
}

type watchlistItemResponse struct {
	movieResponse
	EntryID string    `json:"entryId"`
	AddedAt time.Time `json:"addedAt"`
}

type watchlistResponse struct {
	Movies []watchlistItemResponse `json:"movies"`
}

func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req watchlistAddRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.respondErr(w, r, err)
		return
	}

	entry, err := s.svc.Watchlists.Add(r.Context(), req.UserID, req.MovieID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toWatchlistEntryResponse(entry))
}

func (s *Server) handleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Watchlists.Remove(r.Context(), chi.URLParam(r, "entryId"), r.URL.Query().Get("userId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Watchlists.List(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	resp := watchlistResponse{Movies: make([]watchlistItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Movies = append(resp.Movies, watchlistItemResponse{
			movieResponse: toMovieResponse(item.Movie),
			EntryID:       item.Entry.ID,
			AddedAt:       item.Entry.CreatedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func toWatchlistEntryResponse(e domain.WatchlistEntry) watchlistEntryResponse {
	return watchlistEntryResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		MovieID:   e.MovieID,
		CreatedAt: e.CreatedAt,
	}
}
