package client

import (
	"context"
	"fmt"
	"sync"
)

// RatingAPI is the subset of Client a RatingView needs.
type RatingAPI interface {
	UserRating(ctx context.Context, movieID int64, userID string) (int, error)
	SubmitRating(ctx context.Context, movieID int64, userID string, rating int) (RatingResult, error)
	AverageRating(ctx context.Context, movieID int64) (Aggregate, error)
}

// RatingState is what a rating widget renders. Value is the tentative
// rating while Pending, otherwise the last confirmed one (0 when unrated).
type RatingState struct {
	Value   int
	Average *float64
	Count   int64
	Pending bool
}

// RatingView holds one user's rating of one movie. Rate applies the new
// value tentatively, persists it, then either confirms it together with the
// fresh aggregate or falls back to the last confirmed state.
type RatingView struct {
	api      RatingAPI
	movieID  int64
	userID   string
	onChange func(RatingState)

	seq Sequencer

	mu        sync.Mutex
	confirmed RatingState
	tentative *int
}

// NewRatingView builds a view. onChange, if set, is called with every new
// state while the view's lock is held, so it must not call back into the view.
func NewRatingView(api RatingAPI, movieID int64, userID string, onChange func(RatingState)) *RatingView {
	return &RatingView{api: api, movieID: movieID, userID: userID, onChange: onChange}
}

// State returns the current state.
func (v *RatingView) State() RatingState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

// Load fetches the user's rating and the aggregate.
func (v *RatingView) Load(ctx context.Context) error {
	seq := v.seq.Next()
	ctx = WithSequence(ctx, seq)

	value, err := v.api.UserRating(ctx, v.movieID, v.userID)
	if err != nil {
		return err
	}
	agg, err := v.api.AverageRating(ctx, v.movieID)
	if err != nil {
		return err
	}

	v.seq.Apply(seq, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.confirmed = RatingState{Value: value, Average: agg.AverageRating, Count: agg.RatingCount}
		v.notifyLocked()
	})
	return nil
}

// Rate submits value. A response that arrives after a newer request's
// response is dropped.
func (v *RatingView) Rate(ctx context.Context, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", value)
	}

	seq := v.seq.Next()
	v.mu.Lock()
	tentative := value
	v.tentative = &tentative
	v.notifyLocked()
	v.mu.Unlock()

	res, err := v.api.SubmitRating(WithSequence(ctx, seq), v.movieID, v.userID, value)
	if err != nil {
		// Only the newest request owns the tentative value.
		if v.seq.Latest(seq) {
			v.mu.Lock()
			v.tentative = nil
			v.notifyLocked()
			v.mu.Unlock()
		}
		return err
	}

	v.seq.Apply(seq, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.confirmed = RatingState{Value: res.Rating, Average: res.AverageRating, Count: res.RatingCount}
		if v.seq.issued == seq {
			v.tentative = nil
		}
		v.notifyLocked()
	})
	return nil
}

func (v *RatingView) stateLocked() RatingState {
	st := v.confirmed
	if v.tentative != nil {
		st.Value = *v.tentative
		st.Pending = true
	}
	return st
}

func (v *RatingView) notifyLocked() {
	if v.onChange != nil {
		v.onChange(v.stateLocked())
	}
}
