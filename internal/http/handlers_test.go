package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinestream/internal/apperr"
	"github.com/Clark-Hu/cinestream/internal/config"
	"github.com/Clark-Hu/cinestream/internal/repository"
	"github.com/Clark-Hu/cinestream/internal/service"
	"github.com/Clark-Hu/cinestream/internal/store"
	"github.com/Clark-Hu/cinestream/internal/testdb"
)

func buildTestServer(tb testing.TB) *Server {
	tb.Helper()
	cfg := config.Config{
		Port:             "0",
		AuthToken:        "secret",
		ReadTimeoutSecs:  15,
		WriteTimeoutSecs: 15,
		IdleTimeoutSecs:  60,
	}

	pool := testdb.New(tb, "movies_test_handlers")
	repo := repository.NewWithPool(pool)
	return New(cfg, store.FromPool(pool), Services{
		Ratings:    service.NewRatingService(repo.Ratings),
		Catalog:    service.NewCatalogService(repo.Movies, nil),
		Watchlists: service.NewWatchlistService(repo.Watchlists),
		Users:      service.NewUserService(repo.Users),
	}, zerolog.Nop())
}

var admin = map[string]string{"Authorization": "Bearer secret"}

func mustStatus(t testing.TB, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}

func mustDecode(t testing.TB, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func createMovie(t testing.TB, srv *Server, title string) movieResponse {
	t.Helper()
	rec := serve(srv, http.MethodPost, "/movies", fmt.Sprintf(`{"title":%q,"category":"Action","release":2020}`, title), admin)
	if rec.Code != http.StatusCreated && rec.Code != http.StatusOK {
		t.Fatalf("create movie %q: status %d body=%s", title, rec.Code, rec.Body.String())
	}
	var movie movieResponse
	mustDecode(t, rec, &movie)
	return movie
}

func provisionUser(t testing.TB, srv *Server, id string) {
	t.Helper()
	rec := serve(srv, http.MethodPost, "/users", fmt.Sprintf(`{"id":%q}`, id), admin)
	mustStatus(t, rec, http.StatusOK)
}

func TestRatingFlow(t *testing.T) {
	srv := buildTestServer(t)
	movie := createMovie(t, srv, "Heat")
	provisionUser(t, srv, "u1")
	provisionUser(t, srv, "u2")
	provisionUser(t, srv, "u3")

	base := fmt.Sprintf("/movies/%d", movie.ID)

	rec := serve(srv, http.MethodGet, base+"/user-rating?userId=u1", "", nil)
	mustStatus(t, rec, http.StatusOK)
	var ur userRatingResponse
	mustDecode(t, rec, &ur)
	if ur.Rating != 0 {
		t.Fatalf("unrated movie returned %d", ur.Rating)
	}

	rec = serve(srv, http.MethodGet, base+"/average-rating", "", nil)
	mustStatus(t, rec, http.StatusOK)
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"averageRating":null`)) {
		t.Fatalf("expected null average, got %s", rec.Body.String())
	}

	for user, value := range map[string]int{"u1": 2, "u2": 4, "u3": 5} {
		rec = serve(srv, http.MethodPost, base+"/user-rating", fmt.Sprintf(`{"userId":%q,"rating":%d}`, user, value), nil)
		mustStatus(t, rec, http.StatusOK)
	}

	// Resubmitting the same value is a no-op on the aggregate.
	rec = serve(srv, http.MethodPost, base+"/user-rating", `{"userId":"u3","rating":5}`, nil)
	mustStatus(t, rec, http.StatusOK)
	var submitted submitRatingResponse
	mustDecode(t, rec, &submitted)
	if submitted.RatingCount != 3 || submitted.AverageRating == nil {
		t.Fatalf("unexpected submit response: %+v", submitted)
	}
	if d := *submitted.AverageRating - 11.0/3.0; d > 1e-4 || d < -1e-4 {
		t.Fatalf("average = %v, want 3.6667", *submitted.AverageRating)
	}

	rec = serve(srv, http.MethodGet, base+"/user-rating?userId=u2", "", nil)
	mustDecode(t, rec, &ur)
	if ur.Rating != 4 {
		t.Fatalf("user rating = %d, want 4", ur.Rating)
	}
}

func TestRatingErrors(t *testing.T) {
	srv := buildTestServer(t)
	movie := createMovie(t, srv, "Alien")
	provisionUser(t, srv, "u1")
	base := fmt.Sprintf("/movies/%d", movie.ID)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
		kind   string
	}{
		{"missing user on read", http.MethodGet, base + "/user-rating", "", http.StatusBadRequest, ""},
		{"rating too high", http.MethodPost, base + "/user-rating", `{"userId":"u1","rating":6}`, http.StatusBadRequest, ""},
		{"rating missing", http.MethodPost, base + "/user-rating", `{"userId":"u1"}`, http.StatusBadRequest, ""},
		{"fractional rating", http.MethodPost, base + "/user-rating", `{"userId":"u1","rating":3.5}`, http.StatusBadRequest, ""},
		{"blank user", http.MethodPost, base + "/user-rating", `{"userId":" ","rating":3}`, http.StatusBadRequest, ""},
		{"unknown user", http.MethodPost, base + "/user-rating", `{"userId":"ghost","rating":3}`, http.StatusNotFound, apperr.KindUserNotFound},
		{"unknown movie on write", http.MethodPost, "/movies/999999/user-rating", `{"userId":"u1","rating":3}`, http.StatusNotFound, apperr.KindMovieNotFound},
		{"unknown movie on read", http.MethodGet, "/movies/999999/user-rating?userId=u1", "", http.StatusNotFound, apperr.KindMovieNotFound},
		{"unknown movie average", http.MethodGet, "/movies/999999/average-rating", "", http.StatusNotFound, apperr.KindMovieNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(srv, tc.method, tc.target, tc.body, nil)
			mustStatus(t, rec, tc.status)
			if tc.kind != "" {
				if got := decodeError(t, rec).Details; got != tc.kind {
					t.Fatalf("kind = %v, want %s", got, tc.kind)
				}
			}
		})
	}

	rec := serve(srv, http.MethodGet, base+"/average-rating", "", nil)
	var avg averageRatingResponse
	mustDecode(t, rec, &avg)
	if avg.RatingCount != 0 {
		t.Fatalf("failed submissions wrote %d rows", avg.RatingCount)
	}
}

func TestSearchPagination(t *testing.T) {
	srv := buildTestServer(t)
	for i := 0; i < 25; i++ {
		createMovie(t, srv, fmt.Sprintf("Batman %02d", i))
	}
	createMovie(t, srv, "Combat Zone")

	rec := serve(srv, http.MethodGet, "/search-movies?query=bat&page=2&limit=10", "", nil)
	mustStatus(t, rec, http.StatusOK)
	var page moviePageResponse
	mustDecode(t, rec, &page)
	if len(page.Movies) != 10 {
		t.Fatalf("page size = %d, want 10", len(page.Movies))
	}
	if page.Pagination.TotalPages != 3 || page.Pagination.TotalResults != 25 || page.Pagination.CurrentPage != 2 {
		t.Fatalf("pagination = %+v", page.Pagination)
	}

	rec = serve(srv, http.MethodGet, "/search-movies?query=nothing", "", nil)
	mustStatus(t, rec, http.StatusNotFound)

	rec = serve(srv, http.MethodGet, "/search-movies?query=%25", "", nil)
	mustStatus(t, rec, http.StatusBadRequest)

	rec = serve(srv, http.MethodGet, "/movies?category=action&limit=5&page=6", "", nil)
	mustStatus(t, rec, http.StatusOK)
	mustDecode(t, rec, &page)
	if len(page.Movies) != 1 || page.Pagination.TotalResults != 26 {
		t.Fatalf("list page = %d movies, pagination %+v", len(page.Movies), page.Pagination)
	}
}

func TestWatchlistFlow(t *testing.T) {
	srv := buildTestServer(t)
	movie := createMovie(t, srv, "Arrival")
	provisionUser(t, srv, "alice")

	body := fmt.Sprintf(`{"userId":"alice","movieId":%d}`, movie.ID)
	rec := serve(srv, http.MethodPost, "/watchlist", body, nil)
	mustStatus(t, rec, http.StatusCreated)
	var entry watchlistEntryResponse
	mustDecode(t, rec, &entry)

	rec = serve(srv, http.MethodPost, "/watchlist", body, nil)
	mustStatus(t, rec, http.StatusCreated)
	var again watchlistEntryResponse
	mustDecode(t, rec, &again)
	if again.ID != entry.ID {
		t.Fatalf("re-adding created a new entry %s != %s", again.ID, entry.ID)
	}

	rec = serve(srv, http.MethodGet, "/users/alice/watchlist", "", nil)
	mustStatus(t, rec, http.StatusOK)
	var list watchlistResponse
	mustDecode(t, rec, &list)
	if len(list.Movies) != 1 || list.Movies[0].EntryID != entry.ID || list.Movies[0].Title != "Arrival" {
		t.Fatalf("watchlist = %+v", list)
	}

	rec = serve(srv, http.MethodGet, "/movies/recent?userId=alice", "", nil)
	mustStatus(t, rec, http.StatusOK)
	var recent movieListResponse
	mustDecode(t, rec, &recent)
	if len(recent.Movies) != 1 || recent.Movies[0].WatchlistID == nil || *recent.Movies[0].WatchlistID != entry.ID {
		t.Fatalf("recent = %+v", recent)
	}

	rec = serve(srv, http.MethodDelete, "/watchlist/"+entry.ID+"?userId=mallory", "", nil)
	mustStatus(t, rec, http.StatusNotFound)
	rec = serve(srv, http.MethodDelete, "/watchlist/"+entry.ID+"?userId=alice", "", nil)
	mustStatus(t, rec, http.StatusNoContent)
	rec = serve(srv, http.MethodDelete, "/watchlist/"+entry.ID+"?userId=alice", "", nil)
	mustStatus(t, rec, http.StatusNotFound)
}

func TestProvisionUserAuth(t *testing.T) {
	srv := buildTestServer(t)

	rec := serve(srv, http.MethodPost, "/users", `{"id":"u1"}`, nil)
	mustStatus(t, rec, http.StatusUnauthorized)

	rec = serve(srv, http.MethodPost, "/users", `{"id":"u1","email":"not-an-email"}`, admin)
	mustStatus(t, rec, http.StatusBadRequest)

	rec = serve(srv, http.MethodPost, "/users", `{"id":"u1","email":"u1@example.com"}`, admin)
	mustStatus(t, rec, http.StatusOK)
	var user userResponse
	mustDecode(t, rec, &user)
	if user.Email == nil || *user.Email != "u1@example.com" {
		t.Fatalf("user = %+v", user)
	}
}

func BenchmarkHandleSubmitRating(b *testing.B) {
	srv := buildTestServer(b)
	movie := createMovie(b, srv, "Benchmark Movie")
	provisionUser(b, srv, "bench")
	target := fmt.Sprintf("/movies/%d/user-rating", movie.ID)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := serve(srv, http.MethodPost, target, fmt.Sprintf(`{"userId":"bench","rating":%d}`, i%5+1), nil)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkHandleSearchMovies(b *testing.B) {
	srv := buildTestServer(b)
	for i := 0; i < 50; i++ {
		createMovie(b, srv, fmt.Sprintf("Bench %02d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := serve(srv, http.MethodGet, "/search-movies?query=bench&page=2", "", nil)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
