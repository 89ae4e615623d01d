package catalogfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/catalog" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"movies":[{"title":" Heat ","category":"Crime","release":1995,"duration":170},{"title":""}],"nextPage":2}`))
		case "2":
			_, _ = w.Write([]byte(`{"movies":[{"title":"Alien","age":-4}],"nextPage":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL+"/v1/", "secret", time.Second, zerolog.Nop())
	require.NoError(t, err)

	first, err := client.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, "Heat", first.Entries[0].Title)
	assert.Equal(t, 1995, first.Entries[0].Release)
	assert.Equal(t, 1, first.Skipped)
	require.NotNil(t, first.NextPage)
	assert.Equal(t, 2, *first.NextPage)

	second, err := client.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, second.NextPage)
	assert.Equal(t, 0, second.Entries[0].Age)

	_, err = client.List(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)

	bad, err := NewHTTPClient(srv.URL+"/v1", "wrong", time.Second, zerolog.Nop())
	require.NoError(t, err)
	_, err = bad.List(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient("catalog.local", "", time.Second, zerolog.Nop())
	assert.Error(t, err)
}

type stubClient struct {
	calls int
	err   error
}

func (s *stubClient) List(context.Context, int) (*Page, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Page{}, nil
}

func TestBreakerClientOpensAfterFailures(t *testing.T) {
	stub := &stubClient{err: errors.New("upstream down")}
	cfg := DefaultBreakerConfig()
	cfg.Name = "test-open"
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Hour
	b := NewBreakerClient(stub, cfg, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := b.List(context.Background(), 1)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.List(context.Background(), 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, stub.calls, "open breaker must not call upstream")
}

func TestBreakerClientIgnoresNotFound(t *testing.T) {
	stub := &stubClient{err: ErrNotFound}
	cfg := DefaultBreakerConfig()
	cfg.Name = "test-notfound"
	cfg.FailureThreshold = 2
	b := NewBreakerClient(stub, cfg, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := b.List(context.Background(), 1)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 5, stub.calls)
}
