package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresAbsoluteURL(t *testing.T) {
	_, err := New("/relative")
	require.Error(t, err)
}

func TestSubmitRatingRequest(t *testing.T) {
	var (
		gotPath string
		gotSeq  string
		gotID   string
		body    map[string]interface{}
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotSeq = r.Header.Get(sequenceHeader)
		gotID = r.Header.Get(requestIDHeader)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"movieId":7,"rating":4,"averageRating":3.5,"ratingCount":2}`))
	})

	res, err := c.SubmitRating(WithSequence(context.Background(), 9), 7, "u1", 4)
	require.NoError(t, err)

	assert.Equal(t, "POST /movies/7/user-rating", gotPath)
	assert.Equal(t, "9", gotSeq)
	_, err = uuid.Parse(gotID)
	assert.NoError(t, err, "request id should be a uuid")
	assert.Equal(t, "u1", body["userId"])
	assert.EqualValues(t, 4, body["rating"])

	assert.Equal(t, 4, res.Rating)
	assert.EqualValues(t, 2, res.RatingCount)
	require.NotNil(t, res.AverageRating)
	assert.InDelta(t, 3.5, *res.AverageRating, 1e-9)
}

func TestAdminTokenOnlyOnAdminRoutes(t *testing.T) {
	auth := map[string]string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth[r.URL.Path] = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/movies":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"title":"Heat"}`))
		default:
			_, _ = w.Write([]byte(`{"movieId":1,"averageRating":null,"ratingCount":0}`))
		}
	}, WithAdminToken("secret"))

	movie, err := c.CreateMovie(context.Background(), MovieInput{Title: "Heat"})
	require.NoError(t, err)
	assert.Equal(t, "Heat", movie.Title)

	agg, err := c.AverageRating(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, agg.AverageRating)

	assert.Equal(t, "Bearer secret", auth["/movies"])
	assert.Empty(t, auth["/movies/1/average-rating"])
}

func TestSearchMoviesQueryString(t *testing.T) {
	var raw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"movies":[{"id":3,"title":"Batman"}],"pagination":{"currentPage":2,"totalResults":11,"totalPages":2,"limit":10}}`))
	})

	page, err := c.SearchMovies(context.Background(), "bat man", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, "page=2&query=bat+man", raw)
	require.Len(t, page.Movies, 1)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestAPIErrorDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"User not found.","details":{"kind":"user-not-found"}}`))
	})

	_, err := c.SubmitRating(context.Background(), 1, "ghost", 3)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "user-not-found", apiErr.Kind)
}

func TestAPIErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetMovie(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestRemoveFromWatchlistNoContent(t *testing.T) {
	var target string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		target = r.Method + " " + r.URL.String()
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.RemoveFromWatchlist(context.Background(), "abc", "u1"))
	assert.Equal(t, "DELETE /watchlist/abc?userId=u1", target)
}
