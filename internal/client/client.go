// Package client is a typed Go client for the cinestream HTTP API, plus the
// stateful views front ends build on top of it.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	sequenceHeader  = "X-Client-Sequence"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Kind    string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("cinestream: %d %s (%s): %s", e.Status, e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("cinestream: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsValidation reports whether err is a 400 from the API.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

type Movie struct {
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

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalResults int64 `json:"totalResults"`
	TotalPages   int   `json:"totalPages"`
	Limit        int   `json:"limit"`
}

type MoviePage struct {
	Movies     []Movie    `json:"movies"`
	Pagination Pagination `json:"pagination"`
}

// Aggregate is a movie's rating summary. Average is nil when unrated.
type Aggregate struct {
	MovieID       int64    `json:"movieId"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int64    `json:"ratingCount"`
}

// RatingResult is the response to a rating submission.
type RatingResult struct {
	Aggregate
	Rating int `json:"rating"`
}

type MovieInput struct {
	Title         string `json:"title"`
	Overview      string `json:"overview,omitempty"`
	Category      string `json:"category,omitempty"`
	ImageString   string `json:"imageString,omitempty"`
	YoutubeString string `json:"youtubeString,omitempty"`
	Age           int    `json:"age,omitempty"`
	Duration      int    `json:"duration,omitempty"`
	Release       int    `json:"release,omitempty"`
	Rank          int    `json:"rank,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type WatchlistEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MovieID   int64     `json:"movieId"`
	CreatedAt time.Time `json:"createdAt"`
}

type WatchlistItem struct {
	Movie
	EntryID string    `json:"entryId"`
	AddedAt time.Time `json:"addedAt"`
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAdminToken sets the bearer token sent on admin routes.
func WithAdminToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client talks to one cinestream API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

// New builds a Client for baseURL, which must be absolute.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api url must be absolute: %q", baseURL)
	}
	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type seqKey struct{}

// WithSequence tags requests made with ctx with a client sequence number.
func WithSequence(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, seqKey{}, seq)
}

func sequenceFrom(ctx context.Context) (uint64, bool) {
	seq, ok := ctx.Value(seqKey{}).(uint64)
	return seq, ok
}

func (c *Client) UserRating(ctx context.Context, movieID int64, userID string) (int, error) {
	var out struct {
		Rating int `json:"rating"`
	}
	q := url.Values{"userId": {userID}}
	err := c.do(ctx, http.MethodGet, moviePath(movieID, "user-rating"), q, nil, &out, false)
	return out.Rating, err
}

func (c *Client) SubmitRating(ctx context.Context, movieID int64, userID string, rating int) (RatingResult, error) {
	body := map[string]interface{}{"userId": userID, "rating": rating}
	var out RatingResult
	err := c.do(ctx, http.MethodPost, moviePath(movieID, "user-rating"), nil, body, &out, false)
	return out, err
}

func (c *Client) AverageRating(ctx context.Context, movieID int64) (Aggregate, error) {
	var out Aggregate
	err := c.do(ctx, http.MethodGet, moviePath(movieID, "average-rating"), nil, nil, &out, false)
	return out, err
}

// SearchMovies runs a title-prefix search. Zero matches come back as a
// not-found APIError.
func (c *Client) SearchMovies(ctx context.Context, query string, page, limit int) (MoviePage, error) {
	q := url.Values{"query": {query}}
	setPositive(q, "page", page)
	setPositive(q, "limit", limit)
	var out MoviePage
	err := c.do(ctx, http.MethodGet, "/search-movies", q, nil, &out, false)
	return out, err
}

func (c *Client) ListMovies(ctx context.Context, category string, page, limit int) (MoviePage, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	setPositive(q, "page", page)
	setPositive(q, "limit", limit)
	var out MoviePage
	err := c.do(ctx, http.MethodGet, "/movies", q, nil, &out, false)
	return out, err
}

func (c *Client) RecentMovies(ctx context.Context, userID string, limit int) ([]Movie, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("userId", userID)
	}
	setPositive(q, "limit", limit)
	var out struct {
		Movies []Movie `json:"movies"`
	}
	err := c.do(ctx, http.MethodGet, "/movies/recent", q, nil, &out, false)
	return out.Movies, err
}

func (c *Client) GetMovie(ctx context.Context, movieID int64) (Movie, error) {
	var out Movie
	err := c.do(ctx, http.MethodGet, moviePath(movieID, ""), nil, nil, &out, false)
	return out, err
}

func (c *Client) CreateMovie(ctx context.Context, in MovieInput) (Movie, error) {
	var out Movie
	err := c.do(ctx, http.MethodPost, "/movies", nil, in, &out, true)
	return out, err
}

func (c *Client) ProvisionUser(ctx context.Context, id string, email *string) (User, error) {
	body := map[string]interface{}{"id": id}
	if email != nil {
		body["email"] = *email
	}
	var out User
	err := c.do(ctx, http.MethodPost, "/users", nil, body, &out, true)
	return out, err
}

func (c *Client) AddToWatchlist(ctx context.Context, userID string, movieID int64) (WatchlistEntry, error) {
	body := map[string]interface{}{"userId": userID, "movieId": movieID}
	var out WatchlistEntry
	err := c.do(ctx, http.MethodPost, "/watchlist", nil, body, &out, false)
	return out, err
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, entryID, userID string) error {
	q := url.Values{"userId": {userID}}
	return c.do(ctx, http.MethodDelete, "/watchlist/"+url.PathEscape(entryID), q, nil, nil, false)
}

func (c *Client) Watchlist(ctx context.Context, userID string) ([]WatchlistItem, error) {
	var out struct {
		Movies []WatchlistItem `json:"movies"`
	}
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/watchlist", nil, nil, &out, false)
	return out.Movies, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, admin bool) error {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if seq, ok := sequenceFrom(ctx); ok {
		req.Header.Set(sequenceHeader, strconv.FormatUint(seq, 10))
	}
	if admin && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Kind string `json:"kind"`
		} `json:"details"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		apiErr.Kind = payload.Details.Kind
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func moviePath(movieID int64, sub string) string {
	p := "/movies/" + strconv.FormatInt(movieID, 10)
	if sub != "" {
		p += "/" + sub
	}
	return p
}

func setPositive(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}
