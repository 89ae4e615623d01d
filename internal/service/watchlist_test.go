package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinestream/internal/apperr"
	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/repository"
	"github.com/Clark-Hu/cinestream/internal/service"
)

func TestWatchlistAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("should add entry", func(t *testing.T) {
		w := new(MockWatchlistStore)
		svc := service.NewWatchlistService(w)
		entry := domain.WatchlistEntry{ID: uuid.NewString(), UserID: "u1", MovieID: 2}
		w.On("Add", mock.Anything, "u1", int64(2)).Return(entry, true, nil).Once()

		got, err := svc.Add(ctx, "u1", 2)

		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("should map unknown movie", func(t *testing.T) {
		w := new(MockWatchlistStore)
		svc := service.NewWatchlistService(w)
		w.On("Add", mock.Anything, "u1", int64(2)).Return(domain.WatchlistEntry{}, false, repository.ErrMovieNotFound).Once()

		_, err := svc.Add(ctx, "u1", 2)

		assert.Equal(t, apperr.KindMovieNotFound, apperr.ErrorKind(err))
	})

	t.Run("should validate input", func(t *testing.T) {
		w := new(MockWatchlistStore)
		svc := service.NewWatchlistService(w)

		_, err := svc.Add(ctx, "", 2)
		assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))
		_, err = svc.Add(ctx, "u1", 0)
		assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))
		w.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWatchlistRemove(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("should remove owned entry", func(t *testing.T) {
		w := new(MockWatchlistStore)
		svc := service.NewWatchlistService(w)
		w.On("Remove", mock.Anything, id, "u1").Return(nil).Once()

		require.NoError(t, svc.Remove(ctx, id.String(), "u1"))
		w.AssertExpectations(t)
	})

	t.Run("should report missing entry", func(t *testing.T) {
		w := new(MockWatchlistStore)
		svc := service.NewWatchlistService(w)
		w.On("Remove", mock.Anything, id, "u1").Return(repository.ErrNotFound).Once()

		err := svc.Remove(ctx, id.String(), "u1")

		assert.Equal(t, apperr.KindWatchlistNotFound, apperr.ErrorKind(err))
	})

	t.Run("should reject malformed id", func(t *testing.T) {
		w := new(MockWatchlistStore)
		svc := service.NewWatchlistService(w)

		err := svc.Remove(ctx, "not-a-uuid", "u1")

		assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))
		w.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWatchlistList(t *testing.T) {
	w := new(MockWatchlistStore)
	svc := service.NewWatchlistService(w)
	items := []domain.WatchlistItem{{Movie: domain.Movie{ID: 1, Title: "Heat"}}}
	w.On("ListByUser", mock.Anything, "u1").Return(items, nil).Once()

	got, err := svc.List(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, items, got)

	_, err = svc.List(context.Background(), " ")
	assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))
}

func TestUserProvision(t *testing.T) {
	u := new(MockUserStore)
	svc := service.NewUserService(u)
	email := "a@example.com"
	u.On("Upsert", mock.Anything, "u1", &email).Return(domain.User{ID: "u1", Email: &email}, true, nil).Once()

	got, err := svc.Provision(context.Background(), service.UserInput{ID: "u1", Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	bad := "not-an-email"
	_, err = svc.Provision(context.Background(), service.UserInput{ID: "u2", Email: &bad})
	assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))
	_, err = svc.Provision(context.Background(), service.UserInput{ID: ""})
	assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))
	u.AssertExpectations(t)
}

func TestUserProvision_LinksProviderAccount(t *testing.T) {
	ctx := context.Background()
	u := new(MockUserStore)
	svc := service.NewUserService(u)
	u.On("Upsert", mock.Anything, "u1", (*string)(nil)).Return(domain.User{ID: "u1"}, false, nil).Twice()
	u.On("LinkAccount", mock.Anything, "u1", "github", "42").Return(nil).Once()

	got, err := svc.Provision(ctx, service.UserInput{ID: "u1", Provider: "github", ProviderAccountID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	// No provider, no link.
	_, err = svc.Provision(ctx, service.UserInput{ID: "u1"})
	require.NoError(t, err)

	_, err = svc.Provision(ctx, service.UserInput{ID: "u1", Provider: "github"})
	assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))
	_, err = svc.Provision(ctx, service.UserInput{ID: "u1", ProviderAccountID: "42"})
	assert.Equal(t, apperr.EINVALID, apperr.ErrorCode(err))

	u.AssertExpectations(t)
	u.AssertNumberOfCalls(t, "LinkAccount", 1)
}

func TestUserProvision_LinkUnknownUser(t *testing.T) {
	u := new(MockUserStore)
	svc := service.NewUserService(u)
	u.On("Upsert", mock.Anything, "u1", (*string)(nil)).Return(domain.User{ID: "u1"}, true, nil).Once()
	u.On("LinkAccount", mock.Anything, "u1", "github", "42").Return(repository.ErrUserNotFound).Once()

	_, err := svc.Provision(context.Background(), service.UserInput{ID: "u1", Provider: "github", ProviderAccountID: "42"})

	assert.Equal(t, apperr.ENOTFOUND, apperr.ErrorCode(err))
	u.AssertExpectations(t)
}
