package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/service"
	"github.com/Clark-Hu/cinestream/internal/validation"
)

type movieResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Overview      string    `json:"overview"`
	Category      string    `json:"category"`
	ImageString   string    `json:"imageString"`
	YoutubeString string    `json:"youtubeString"`
	Age           int       `json:"age"`
	Duration      int       `json:"duration"`
	Release       int       `json:"release"`
	Rank          int       `json:"rank"`
	CreatedAt     time.Time `json:"createdAt"`
	WatchlistID   *string   `json:"watchlistId,omitempty"`
}

type paginationResponse struct {
	CurrentPage  int   `json:"currentPage"`
	TotalResults int64 `json:"totalResults"`
	TotalPages   int   `json:"totalPages"`
	Limit        int   `json:"limit"`
}

type moviePageResponse struct {
	Movies     []movieResponse    `json:"movies"`
	Pagination paginationResponse `json:"pagination"`
}

type movieListResponse struct {
	Movies []movieResponse `json:"movies"`
}

type movieCreateRequest struct {
	Title         string `json:"title" validate:"notblank"`
	Overview      string `json:"overview"`
	Category      string `json:"category"`
	ImageString   string `json:"imageString"`
	YoutubeString string `json:"youtubeString"`
	Age           int    `json:"age"`
	Duration      int    `json:"duration"`
	Release       int    `json:"release"`
	Rank          int    `json:"rank"`
}

func (s *Server) handleSearchMovies(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	res, err := s.svc.Catalog.Search(r.Context(), service.SearchParams{
		Query: r.URL.Query().Get("query"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if len(res.Movies) == 0 {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "No movies found", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, toMoviePageResponse(res))
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	res, err := s.svc.Catalog.List(r.Context(), service.ListParams{
		Category: r.URL.Query().Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMoviePageResponse(res))
}

func (s *Server) handleRecentMovies(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	entries, err := s.svc.Catalog.Recent(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	items := make([]movieResponse, 0, len(entries))
	for _, e := range entries {
		resp := toMovieResponse(e.Movie)
		resp.WatchlistID = e.WatchlistID
		items = append(items, resp)
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Movies: items})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseMovieID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	movie, err := s.svc.Catalog.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}

	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.respondErr(w, r, err)
		return
	}

	movie, inserted, err := s.svc.Catalog.Create(r.Context(), service.MovieInput{
		Title:         strings.TrimSpace(req.Title),
		Overview:      req.Overview,
		Category:      req.Category,
		ImageString:   req.ImageString,
		YoutubeString: req.YoutubeString,
		Age:           req.Age,
		Duration:      req.Duration,
		Release:       req.Release,
		Rank:          req.Rank,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	w.Header().Set("Location", fmt.Sprintf("/movies/%d", movie.ID))
	s.respondJSON(w, status, toMovieResponse(movie))
}

func toMoviePageResponse(res service.SearchResult) moviePageResponse {
	items := make([]movieResponse, 0, len(res.Movies))
	for _, m := range res.Movies {
		items = append(items, toMovieResponse(m))
	}
	return moviePageResponse{
		Movies: items,
		Pagination: paginationResponse{
			CurrentPage:  res.Pagination.Page,
			TotalResults: res.Pagination.Total,
			TotalPages:   res.Pagination.TotalPages,
			Limit:        res.Pagination.Limit,
		},
	}
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		ID:            movie.ID,
		Title:         movie.Title,
		Overview:      movie.Overview,
		Category:      movie.Category,
		ImageString:   movie.ImageString,
		YoutubeString: movie.YoutubeString,
		Age:           movie.Age,
		Duration:      movie.Duration,
		Release:       movie.Release,
		Rank:          movie.Rank,
		CreatedAt:     movie.CreatedAt,
	}
}
