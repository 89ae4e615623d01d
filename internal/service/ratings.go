package service

import (
	"context"
	"strings"

	"github.com/Clark-Hu/cinestream/internal/apperr"
	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/metrics"
	"github.com/Clark-Hu/cinestream/internal/repository"
)

const (
	MinRating = 1
	MaxRating = 5
)

// RatingService reads and writes per-user movie ratings. A user's rating is
// 0 (unrated) until the first submission; later submissions overwrite it.
type RatingService struct {
	store RatingStore
}

func NewRatingService(store RatingStore) *RatingService {
	return &RatingService{store: store}
}

// GetUserRating returns userID's rating of movieID, or 0 when unrated.
func (s *RatingService) GetUserRating(ctx context.Context, movieID int64, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperr.Invalid("userId is required")
	}
	if err := validMovieID(movieID); err != nil {
		return 0, err
	}
	value, err := s.store.ValueFor(ctx, movieID, userID)
	if err != nil {
		return 0, translate(err, errMovieNotFound)
	}
	return value, nil
}

// GetAverageRating returns the mean and count of all ratings of movieID.
// Average is nil when nobody has rated it.
func (s *RatingService) GetAverageRating(ctx context.Context, movieID int64) (domain.AggregateRating, error) {
	if err := validMovieID(movieID); err != nil {
		return domain.AggregateRating{}, err
	}
	agg, err := s.store.Aggregate(ctx, movieID)
	if err != nil {
		return domain.AggregateRating{}, translate(err, errMovieNotFound)
	}
	return agg, nil
}

// SubmitRating records userID's rating of movieID and returns the aggregate
// as of that write. Input is checked before the store is touched.
func (s *RatingService) SubmitRating(ctx context.Context, movieID int64, userID string, rating int) (domain.AggregateRating, error) {
	userID = strings.TrimSpace(userID)
	switch {
	case userID == "":
		metrics.RecordRatingSubmission("invalid")
		return domain.AggregateRating{}, apperr.Invalid("userId is required")
	case rating < MinRating || rating > MaxRating:
		metrics.RecordRatingSubmission("invalid")
		return domain.AggregateRating{}, apperr.Invalid("rating must be an integer between %d and %d", MinRating, MaxRating)
	}
	if err := validMovieID(movieID); err != nil {
		metrics.RecordRatingSubmission("invalid")
		return domain.AggregateRating{}, err
	}

	res, err := s.store.Submit(ctx, repository.RatingUpsertParams{
		MovieID: movieID,
		UserID:  userID,
		Value:   rating,
	})
	if err != nil {
		err = translate(err, errMovieNotFound)
		if apperr.IsCode(err, apperr.ENOTFOUND) {
			metrics.RecordRatingSubmission("not_found")
		} else {
			metrics.RecordRatingSubmission("error")
		}
		return domain.AggregateRating{}, err
	}
	metrics.RecordRatingSubmission("ok")
	return res.Aggregate, nil
}
