package packages

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/filter"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/graphql"
)

const DefaultCurrency = "USD"

// imageLookups caps concurrent image searches while decorating a list.
const imageLookups = 4

var ErrPackageNotFound = errors.New("package not found")

type PackageUseCase interface {
	List(ctx context.Context, criteria filter.Criteria) ([]domain.TravelPackage, error)
	Search(ctx context.Context, search string) ([]domain.TravelPackage, error)
	Get(ctx context.Context, id, currency string) (*domain.TravelPackage, error)
	Add(ctx context.Context, input domain.PackageInput) (*domain.TravelPackage, error)
	Edit(ctx context.Context, id string, input domain.PackageInput) (*domain.TravelPackage, error)
	Delete(ctx context.Context, id string) error
}

type Gateway interface {
	Query(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts ...gateway.QueryOption) error
	Mutate(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts gateway.MutateOptions) error
}

type ImageLookup interface {
	ImageFor(ctx context.Context, destination string) (string, error)
}

type PackageService struct {
	gateway Gateway
	images  ImageLookup
	logger  *slog.Logger
}

type PackageServiceOption func(*PackageService)

func WithImages(images ImageLookup) PackageServiceOption {
	return func(s *PackageService) {
		s.images = images
	}
}

func WithLogger(logger *slog.Logger) PackageServiceOption {
	return func(s *PackageService) {
		s.logger = logger
	}
}

func NewPackageService(gw Gateway, opts ...PackageServiceOption) *PackageService {
	s := &PackageService{gateway: gw, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List fetches the whole catalogue and narrows it locally.
func (s *PackageService) List(ctx context.Context, criteria filter.Criteria) ([]domain.TravelPackage, error) {
	var out struct {
		GetAllPackages []domain.TravelPackage `json:"getAllPackages"`
	}
	if err := s.gateway.Query(ctx, graphql.GetAllPackages, nil, &out, gateway.WithFetchPolicy(gateway.NetworkOnly)); err != nil {
		return nil, err
	}
	packages := filter.Apply(out.GetAllPackages, criteria)
	s.decorate(ctx, packages)
	return packages, nil
}

// Search asks the backend to match; an empty search lists everything.
func (s *PackageService) Search(ctx context.Context, search string) ([]domain.TravelPackage, error) {
	var out struct {
		GetPackages []domain.TravelPackage `json:"getPackages"`
	}
	if err := s.gateway.Query(ctx, graphql.GetPackages, searchVars(search), &out); err != nil {
		return nil, err
	}
	return out.GetPackages, nil
}

// Get loads one package with prices in currency. The backend does the
// conversion.
func (s *PackageService) Get(ctx context.Context, id, currency string) (*domain.TravelPackage, error) {
	if id == "" {
		return nil, gateway.NewValidationError("id", "is required")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	var out struct {
		GetPackageByID *domain.TravelPackage `json:"getPackageById"`
	}
	err := s.gateway.Query(ctx, graphql.GetPackageByID, graphql.Variables{
		"id":       id,
		"currency": strings.ToUpper(currency),
	}, &out, gateway.WithFetchPolicy(gateway.NetworkOnly))
	if err != nil {
		return nil, err
	}
	if out.GetPackageByID == nil {
		return nil, ErrPackageNotFound
	}
	pkg := *out.GetPackageByID
	pkg.ImageURL = s.imageFor(ctx, pkg.Destination)
	return &pkg, nil
}

func (s *PackageService) Add(ctx context.Context, input domain.PackageInput) (*domain.TravelPackage, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	var out struct {
		AddTravelPackage domain.TravelPackage `json:"addTravelPackage"`
	}
	err := s.gateway.Mutate(ctx, graphql.AddTravelPackage, packageVars(input), &out, gateway.MutateOptions{
		RefetchQueries: catalogueRefetch(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("package added", "package_id", out.AddTravelPackage.ID)
	return &out.AddTravelPackage, nil
}

func (s *PackageService) Edit(ctx context.Context, id string, input domain.PackageInput) (*domain.TravelPackage, error) {
	if id == "" {
		return nil, gateway.NewValidationError("packageId", "is required")
	}
	if err := validate(input); err != nil {
		return nil, err
	}
	vars := packageVars(input)
	vars["packageId"] = id

	var out struct {
		EditTravelPackage domain.TravelPackage `json:"editTravelPackage"`
	}
	err := s.gateway.Mutate(ctx, graphql.EditTravelPackage, vars, &out, gateway.MutateOptions{
		RefetchQueries: catalogueRefetch(),
	})
	if err != nil {
		return nil, err
	}
	return &out.EditTravelPackage, nil
}

func (s *PackageService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return gateway.NewValidationError("packageId", "is required")
	}
	err := s.gateway.Mutate(ctx, graphql.DeleteTravelPackage, graphql.Variables{"packageId": id}, nil, gateway.MutateOptions{
		RefetchQueries: catalogueRefetch(),
	})
	if err != nil {
		return err
	}
	s.logger.Info("package deleted", "package_id", id)
	return nil
}

func (s *PackageService) decorate(ctx context.Context, packages []domain.TravelPackage) {
	if s.images == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageLookups)
	for i := range packages {
		g.Go(func() error {
			packages[i].ImageURL = s.imageFor(gctx, packages[i].Destination)
			return nil
		})
	}
	_ = g.Wait()
}

// imageFor treats every lookup failure as "no image".
func (s *PackageService) imageFor(ctx context.Context, destination string) string {
	if s.images == nil {
		return ""
	}
	url, err := s.images.ImageFor(ctx, destination)
	if err != nil {
		s.logger.Warn("image lookup failed", "destination", destination, "error", err)
		return ""
	}
	return url
}

func searchVars(search string) graphql.Variables {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil
	}
	return graphql.Variables{"search": search}
}

func catalogueRefetch() []gateway.Refetch {
	return []gateway.Refetch{
		{Op: graphql.GetPackages},
		{Op: graphql.GetAllPackages},
	}
}

func packageVars(input domain.PackageInput) graphql.Variables {
	return graphql.Variables{
		"title":        input.Title,
		"description":  input.Description,
		"price":        input.Price,
		"duration":     input.Duration,
		"destination":  input.Destination,
		"category":     input.Category,
		"availability": input.Availability,
	}
}

func validate(input domain.PackageInput) error {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return gateway.NewValidationError("title", "is required")
	case strings.TrimSpace(input.Destination) == "":
		return gateway.NewValidationError("destination", "is required")
	case input.Price < 0:
		return gateway.NewValidationError("price", "must not be negative")
	case input.Availability < 0:
		return gateway.NewValidationError("availability", "must not be negative")
	}
	return nil
}

var _ PackageUseCase = (*PackageService)(nil)
