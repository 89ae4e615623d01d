package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/validation"
)

type ratingRequest struct {
	UserID string `json:"userId" validate:"notblank"`
	Rating *int   `json:"rating" validate:"required"`
}

type userRatingResponse struct {
	Rating int `json:"rating"`
}

type averageRatingResponse struct {
	MovieID       int64    `json:"movieId"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int64    `json:"ratingCount"`
}

type submitRatingResponse struct {
	MovieID       int64    `json:"movieId"`
	Rating        int      `json:"rating"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int64    `json:"ratingCount"`
}

func (s *Server) handleGetUserRating(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseMovieID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	rating, err := s.svc.Ratings.GetUserRating(r.Context(), movieID, r.URL.Query().Get("userId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, userRatingResponse{Rating: rating})
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseMovieID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.respondErr(w, r, err)
		return
	}

	agg, err := s.svc.Ratings.SubmitRating(r.Context(), movieID, req.UserID, *req.Rating)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, submitRatingResponse{
		MovieID:       movieID,
		Rating:        *req.Rating,
		AverageRating: agg.Average,
		RatingCount:   agg.Count,
	})
}

func (s *Server) handleGetAverageRating(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseMovieID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	agg, err := s.svc.Ratings.GetAverageRating(r.Context(), movieID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toAverageRatingResponse(movieID, agg))
}

func toAverageRatingResponse(movieID int64, agg domain.AggregateRating) averageRatingResponse {
	return averageRatingResponse{
		MovieID:       movieID,
		AverageRating: agg.Average,
		RatingCount:   agg.Count,
	}
}
