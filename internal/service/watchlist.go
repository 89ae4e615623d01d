package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Clark-Hu/cinestream/internal/apperr"
	"github.com/Clark-Hu/cinestream/internal/domain"
)

var errWatchlistNotFound = apperr.NotFound(apperr.KindWatchlistNotFound, "Watchlist entry not found.")

// WatchlistService manages each user's saved movies.
type WatchlistService struct {
	store WatchlistStore
}

func NewWatchlistService(store WatchlistStore) *WatchlistService {
	return &WatchlistService{store: store}
}

// Add saves movieID to userID's watchlist. Saving twice returns the
// existing entry.
func (s *WatchlistService) Add(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.WatchlistEntry{}, apperr.Invalid("userId is required")
	}
	if err := validMovieID(movieID); err != nil {
		return domain.WatchlistEntry{}, err
	}
	entry, _, err := s.store.Add(ctx, userID, movieID)
	if err != nil {
		return domain.WatchlistEntry{}, translate(err, nil)
	}
	return entry, nil
}

// Remove deletes one of userID's entries.
func (s *WatchlistService) Remove(ctx context.Context, entryID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperr.Invalid("userId is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(entryID))
	if err != nil {
		return apperr.Invalid("entryId must be a UUID")
	}
	if err := s.store.Remove(ctx, id, userID); err != nil {
		return translate(err, errWatchlistNotFound)
	}
	return nil
}

// List returns userID's saved movies, newest first.
func (s *WatchlistService) List(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Invalid("userId is required")
	}
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	return items, nil
}
