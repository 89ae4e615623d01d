package domain

import "time"

// Movie represents a catalog entry.
type Movie struct {
	ID            int64
	Title         string
	Overview      string
	Category      string
	ImageString   string
	YoutubeString string
	Age           int
	Duration      int
	Release       int
	Rank          int
	CreatedAt     time.Time
}

// CatalogEntry is a movie as seen by a particular user, carrying the user's
// watchlist entry id when the movie is on their watchlist.
type CatalogEntry struct {
	Movie
	WatchlistID *string
}
