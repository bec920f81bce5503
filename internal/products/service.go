package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/pagination"
)

// Service exposes the read side of the catalog.
type Service interface {
	List(ctx context.Context, filter Filter) (*ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Warehouses(ctx context.Context) ([]string, error)
	ProductTypes(ctx context.Context) ([]string, error)
	GOSTs(ctx context.Context) ([]string, error)
	SteelGrades(ctx context.Context) ([]string, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}

type service struct {
	repo *Repository
}

// NewService builds the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter Filter) (*ProductPage, error) {
	if filter.DiameterMin != nil && filter.DiameterMax != nil && filter.DiameterMin.GreaterThan(*filter.DiameterMax) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "diameter_min must not exceed diameter_max")
	}
	if filter.WallThicknessMin != nil && filter.WallThicknessMax != nil && filter.WallThicknessMin.GreaterThan(*filter.WallThicknessMax) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wall_thickness_min must not exceed wall_thickness_max")
	}
	filter.Page = filter.Page.Normalize()

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	page := pagination.NewPage(items, total, filter.Page)
	return &page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(p), nil
}

func (s *service) Warehouses(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "warehouse")
}

func (s *service) ProductTypes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "product_type")
}

func (s *service) GOSTs(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "gost")
}

func (s *service) SteelGrades(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "steel_grade")
}

func (s *service) distinct(ctx context.Context, column string) ([]string, error) {
	values, err := s.repo.DistinctValues(ctx, column)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list "+column+" values")
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (s *service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	var (
		out FilterOptions
		err error
	)
	if out.Warehouses, err = s.Warehouses(ctx); err != nil {
		return nil, err
	}
	if out.ProductTypes, err = s.ProductTypes(ctx); err != nil {
		return nil, err
	}
	if out.GOSTs, err = s.GOSTs(ctx); err != nil {
		return nil, err
	}
	if out.SteelGrades, err = s.SteelGrades(ctx); err != nil {
		return nil, err
	}
	ranges, err := s.repo.Ranges(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filter ranges")
	}
	out.DiameterMin = ranges.DiameterMin
	out.DiameterMax = ranges.DiameterMax
	out.WallThicknessMin = ranges.WallThicknessMin
	out.WallThicknessMax = ranges.WallThicknessMax
	return &out, nil
}
