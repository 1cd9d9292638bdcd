package wishlist

import (
	"context"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/graphql"
)

type WishlistUseCase interface {
	List(ctx context.Context) ([]domain.WishlistEntry, error)
	Contains(ctx context.Context, packageID string) (bool, error)
	Add(ctx context.Context, packageID string) error
	Remove(ctx context.Context, packageID string) error
	Toggle(ctx context.Context, packageID string) (bool, error)
}

type Gateway interface {
	Query(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts ...gateway.QueryOption) error
	Mutate(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts gateway.MutateOptions) error
}

type Session interface {
	UserID() string
}

type WishlistService struct {
	gateway Gateway
	session Session
}

func NewWishlistService(gw Gateway, session Session) *WishlistService {
	return &WishlistService{gateway: gw, session: session}
}

// List backs the wishlist page, which always shows the server's current list.
func (s *WishlistService) List(ctx context.Context) ([]domain.WishlistEntry, error) {
	return s.list(ctx, gateway.WithFetchPolicy(gateway.NetworkOnly))
}

// Contains answers from the cached list when there is one, as the package
// detail view does.
func (s *WishlistService) Contains(ctx context.Context, packageID string) (bool, error) {
	entries, err := s.list(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Package != nil && e.Package.ID == packageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *WishlistService) list(ctx context.Context, opts ...gateway.QueryOption) ([]domain.WishlistEntry, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	var out struct {
		GetUserWishlist []domain.WishlistEntry `json:"getUserWishlist"`
	}
	if err := s.gateway.Query(ctx, graphql.GetUserWishlist, graphql.Variables{"userId": userID}, &out, opts...); err != nil {
		return nil, err
	}
	return out.GetUserWishlist, nil
}

func (s *WishlistService) Add(ctx context.Context, packageID string) error {
	return s.mutate(ctx, graphql.AddToWishlist, packageID)
}

func (s *WishlistService) Remove(ctx context.Context, packageID string) error {
	return s.mutate(ctx, graphql.RemoveFromWishlist, packageID)
}

// Toggle adds the package when it is not wishlisted and removes it
// otherwise. It reports whether the package is wishlisted afterwards.
func (s *WishlistService) Toggle(ctx context.Context, packageID string) (bool, error) {
	present, err := s.Contains(ctx, packageID)
	if err != nil {
		return false, err
	}
	if present {
		return false, s.Remove(ctx, packageID)
	}
	return true, s.Add(ctx, packageID)
}

func (s *WishlistService) mutate(ctx context.Context, op graphql.Operation, packageID string) error {
	userID, err := s.userID()
	if err != nil {
		return err
	}
	if packageID == "" {
		return gateway.NewValidationError("packageId", "is required")
	}
	listVars := graphql.Variables{"userId": userID}
	return s.gateway.Mutate(ctx, op, graphql.Variables{
		"userId":    userID,
		"packageId": packageID,
	}, nil, gateway.MutateOptions{
		RefetchQueries: []gateway.Refetch{{Op: graphql.GetUserWishlist, Vars: listVars}},
	})
}

func (s *WishlistService) userID() (string, error) {
	id := s.session.UserID()
	if id == "" {
		return "", gateway.NewValidationError("userId", "please login to use the wishlist")
	}
	return id, nil
}

var _ WishlistUseCase = (*WishlistService)(nil)
