// Package catalogfeed pulls movie listings from the upstream catalog
// provider for ingestion.
package catalogfeed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinestream/internal/metrics"
)

// ErrNotFound is returned when upstream has no such page.
var ErrNotFound = errors.New("catalogfeed: not found")

// Entry is one upstream listing, normalized for ingestion.
type Entry struct {
	Title         string
	Overview      string
	Category      string
	ImageString   string
	YoutubeString string
	Age           int
	Duration      int
	Release       int
	Rank          int
}

// Page is one page of the upstream feed. NextPage is nil on the last page.
type Page struct {
	Entries  []Entry
	Skipped  int
	NextPage *int
}

// Client defines the contract for reading the upstream feed.
type Client interface {
	List(ctx context.Context, page int) (*Page, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient constructs a new HTTP-backed feed client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog feed url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog feed url must be absolute: %q", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger.With().Str("component", "catalogfeed").Logger(),
	}, nil
}

// List retrieves one page of the feed. Pages start at 1.
func (c *HTTPClient) List(ctx context.Context, page int) (*Page, error) {
	rel := &url.URL{Path: c.baseURL.Path + "/catalog"}
	q := rel.Query()
	q.Set("page", strconv.Itoa(page))
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordFeedPage("error")
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			metrics.RecordFeedPage("error")
			return nil, fmt.Errorf("decode catalog feed response: %w", err)
		}
		metrics.RecordFeedPage("ok")
		return convertToPage(payload), nil
	case http.StatusNotFound:
		metrics.RecordFeedPage("not_found")
		return nil, ErrNotFound
	default:
		metrics.RecordFeedPage("error")
		c.logger.Warn().Int("status", resp.StatusCode).Int("page", page).Msg("unexpected upstream status")
		return nil, fmt.Errorf("catalogfeed: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Movies   []apiMovie `json:"movies"`
	NextPage *int       `json:"nextPage"`
}

type apiMovie struct {
	Title         string  `json:"title"`
	Overview      *string `json:"overview"`
	Category      *string `json:"category"`
	ImageString   *string `json:"imageString"`
	YoutubeString *string `json:"youtubeString"`
	Age           *int    `json:"age"`
	Duration      *int    `json:"duration"`
	Release       *int    `json:"release"`
	Rank          *int    `json:"rank"`
}

func convertToPage(payload apiResponse) *Page {
	page := &Page{Entries: make([]Entry, 0, len(payload.Movies))}
	for _, m := range payload.Movies {
		entry, ok := convertToEntry(m)
		if !ok {
			page.Skipped++
			continue
		}
		page.Entries = append(page.Entries, entry)
	}
	if payload.NextPage != nil && *payload.NextPage > 0 {
		next := *payload.NextPage
		page.NextPage = &next
	}
	return page
}

// convertToEntry drops listings without a title and clamps negative numbers.
func convertToEntry(m apiMovie) (Entry, bool) {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		return Entry{}, false
	}
	return Entry{
		Title:         title,
		Overview:      derefString(m.Overview),
		Category:      strings.TrimSpace(derefString(m.Category)),
		ImageString:   derefString(m.ImageString),
		YoutubeString: derefString(m.YoutubeString),
		Age:           nonNegative(m.Age),
		Duration:      nonNegative(m.Duration),
		Release:       nonNegative(m.Release),
		Rank:          nonNegative(m.Rank),
	}, true
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func nonNegative(ptr *int) int {
	if ptr == nil || *ptr < 0 {
		return 0
	}
	return *ptr
}
