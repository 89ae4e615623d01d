package domain

import "time"

// WatchlistEntry marks a movie as saved by a user.
type WatchlistEntry struct {
	ID        string
	UserID    string
	MovieID   int64
	CreatedAt time.Time
}

// WatchlistItem pairs an entry with its movie.
type WatchlistItem struct {
	Entry WatchlistEntry
	Movie Movie
}
