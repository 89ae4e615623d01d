package client

import (
	"context"
	"sync"
)

// MovieLister is the subset of Client a CategoryBrowser needs.
type MovieLister interface {
	ListMovies(ctx context.Context, category string, page, limit int) (MoviePage, error)
}

// Selection is the browser's visible state. Loading is true between a
// selection and the arrival of its page.
type Selection struct {
	Category string
	Page     MoviePage
	Loading  bool
}

// CategoryBrowser tracks the selected category and its movies. Each screen
// owns its own browser; there is no shared selection.
type CategoryBrowser struct {
	api   MovieLister
	limit int

	seq Sequencer

	mu      sync.Mutex
	current Selection
}

func NewCategoryBrowser(api MovieLister, limit int) *CategoryBrowser {
	return &CategoryBrowser{api: api, limit: limit}
}

// Current returns the visible selection.
func (b *CategoryBrowser) Current() Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Select switches to category and loads its first page. An empty category
// lists everything. A result superseded by a newer selection is dropped.
func (b *CategoryBrowser) Select(ctx context.Context, category string) error {
	return b.load(ctx, category, 1)
}

// Page moves to page n of the current category.
func (b *CategoryBrowser) Page(ctx context.Context, n int) error {
	return b.load(ctx, b.Current().Category, n)
}

func (b *CategoryBrowser) load(ctx context.Context, category string, page int) error {
	seq := b.seq.Next()
	b.mu.Lock()
	b.current.Category = category
	b.current.Loading = true
	b.mu.Unlock()

	res, err := b.api.ListMovies(WithSequence(ctx, seq), category, page, b.limit)
	if err != nil {
		if b.seq.Latest(seq) {
			b.mu.Lock()
			b.current.Loading = false
			b.mu.Unlock()
		}
		return err
	}

	b.seq.ApplyLatest(seq, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.current = Selection{Category: category, Page: res}
	})
	return nil
}
