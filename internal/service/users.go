package service

import (
	"context"
	"strings"

	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/validation"
)

// UserInput registers a user issued by the identity provider. Provider and
// ProviderAccountID optionally link the provider's own account id.
type UserInput struct {
	ID                string  `json:"id" validate:"notblank,max=255"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Provider          string  `json:"provider,omitempty" validate:"required_with=ProviderAccountID,max=64"`
	ProviderAccountID string  `json:"providerAccountId,omitempty" validate:"required_with=Provider,max=255"`
}

// UserService provisions users. Sign-in itself happens at the identity
// provider; this only mirrors the ids ratings and watchlists refer to.
type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Provision creates the user or refreshes its email, then links the provider
// account when one is given. Linking an already linked account is a no-op.
func (s *UserService) Provision(ctx context.Context, in UserInput) (domain.User, error) {
	if err := validation.Struct(in); err != nil {
		return domain.User{}, err
	}
	user, _, err := s.store.Upsert(ctx, strings.TrimSpace(in.ID), in.Email)
	if err != nil {
		return domain.User{}, translate(err, nil)
	}
	if in.Provider == "" {
		return user, nil
	}
	if err := s.store.LinkAccount(ctx, user.ID, in.Provider, in.ProviderAccountID); err != nil {
		return domain.User{}, translate(err, nil)
	}
	return user, nil
}
