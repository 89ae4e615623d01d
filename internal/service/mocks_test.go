package service_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/repository"
)

type MockRatingStore struct {
	mock.Mock
}

func (m *MockRatingStore) ValueFor(ctx context.Context, movieID int64, userID string) (int, error) {
	args := m.Called(ctx, movieID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockRatingStore) Aggregate(ctx context.Context, movieID int64) (domain.AggregateRating, error) {
	args := m.Called(ctx, movieID)
	return args.Get(0).(domain.AggregateRating), args.Error(1)
}

func (m *MockRatingStore) Submit(ctx context.Context, params repository.RatingUpsertParams) (repository.RatingSubmission, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(repository.RatingSubmission), args.Error(1)
}

type MockMovieStore struct {
	mock.Mock
}

func (m *MockMovieStore) SearchByTitlePrefix(ctx context.Context, prefix string, limit, offset int) (repository.MoviePage, error) {
	args := m.Called(ctx, prefix, limit, offset)
	return args.Get(0).(repository.MoviePage), args.Error(1)
}

func (m *MockMovieStore) List(ctx context.Context, filters repository.MovieListFilters) (repository.MoviePage, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(repository.MoviePage), args.Error(1)
}

func (m *MockMovieStore) Recent(ctx context.Context, userID string, limit int) ([]domain.CatalogEntry, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.CatalogEntry), args.Error(1)
}

func (m *MockMovieStore) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Movie), args.Error(1)
}

func (m *MockMovieStore) Upsert(ctx context.Context, p repository.MovieUpsertParams) (domain.Movie, bool, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Movie), args.Bool(1), args.Error(2)
}

type MockWatchlistStore struct {
	mock.Mock
}

func (m *MockWatchlistStore) Add(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, bool, error) {
	args := m.Called(ctx, userID, movieID)
	return args.Get(0).(domain.WatchlistEntry), args.Bool(1), args.Error(2)
}

func (m *MockWatchlistStore) Remove(ctx context.Context, entryID uuid.UUID, userID string) error {
	args := m.Called(ctx, entryID, userID)
	return args.Error(0)
}

func (m *MockWatchlistStore) ListByUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.WatchlistItem), args.Error(1)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Upsert(ctx context.Context, id string, email *string) (domain.User, bool, error) {
	args := m.Called(ctx, id, email)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

func (m *MockUserStore) LinkAccount(ctx context.Context, userID, provider, providerAccountID string) error {
	return m.Called(ctx, userID, provider, providerAccountID).Error(0)
}

// memoryCache is an in-process SearchCache for exercising the cache path.
// Like the Redis cache, Invalidate moves to a new generation and leaves old
// entries behind.
type memoryCache struct {
	entries     map[string][]byte
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Lookup(_ context.Context, query string, page, limit int) ([]byte, string, bool) {
	key := fmt.Sprintf("%d|%s|%d|%d", c.invalidated, query, page, limit)
	v, ok := c.entries[key]
	return v, key, ok
}

func (c *memoryCache) Store(_ context.Context, key string, payload []byte) {
	c.entries[key] = payload
}

func (c *memoryCache) Invalidate(context.Context) {
	c.invalidated++
}
