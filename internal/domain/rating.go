package domain

import "time"

// Rating represents a single user's rating for a movie.
type Rating struct {
	MovieID   int64
	UserID    string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AggregateRating is the mean of all ratings for a movie. Average is nil when
// the movie has no ratings.
type AggregateRating struct {
	MovieID int64
	Average *float64
	Count   int64
}
