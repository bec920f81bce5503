package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/pagination"
)

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func seedCatalog(t *testing.T, conn *gorm.DB) {
	t.Helper()
	rows := []struct {
		warehouse, kind, gost, grade, diameter, wall, tons string
	}{
		{"Yekaterinburg", "Seamless pipe", "GOST 8732-78", "20", "108", "4", "12"},
		{"Moscow", "Electric-welded pipe", "GOST 10704-91", "St3", "76", "3.5", "20"},
		{"Moscow", "Electric-welded pipe", "GOST 10704-91", "St3", "57", "3.5", "150"},
		{"Moscow", "Profile pipe", "GOST 30245-2003", "09G2S", "40", "2", "0"},
		{"Chelyabinsk", "Seamless pipe", "GOST 8732-78", "09G2S", "159", "6", "3"},
	}
	for _, r := range rows {
		dbtest.MustCreateProduct(t, conn, &models.Product{
			Warehouse:            r.warehouse,
			ProductType:          r.kind,
			GOST:                 r.gost,
			SteelGrade:           r.grade,
			Diameter:             decimal.RequireFromString(r.diameter),
			WallThickness:        decimal.RequireFromString(r.wall),
			PricePerTon:          decimal.NewFromInt(60000),
			WeightPerMeter:       decimal.RequireFromString("5"),
			AvailableStockTons:   decimal.RequireFromString(r.tons),
			AvailableStockMeters: decimal.RequireFromString(r.tons).Mul(decimal.NewFromInt(200)),
			LastPriceUpdate:      time.Now().UTC(),
		})
	}
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestListOnlyInStockOrderedByWarehouseTypeDiameter(t *testing.T) {
	svc, conn := newTestService(t)
	seedCatalog(t, conn)

	page, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), page.TotalCount)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Items, 4)

	got := make([]string, 0, len(page.Items))
	for _, it := range page.Items {
		got = append(got, it.Warehouse+"/"+it.Diameter.String())
	}
	assert.Equal(t, []string{"Chelyabinsk/159", "Moscow/57", "Moscow/76", "Yekaterinburg/108"}, got)
}

func TestListFilters(t *testing.T) {
	svc, conn := newTestService(t)
	seedCatalog(t, conn)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"warehouse substring", Filter{Warehouse: "mosc"}, 2},
		{"type substring", Filter{ProductType: "Seamless"}, 2},
		{"gost substring", Filter{GOST: "10704"}, 2},
		{"steel grade", Filter{SteelGrade: "09G2S"}, 1},
		{"diameter range", Filter{DiameterMin: dec("60"), DiameterMax: dec("110")}, 2},
		{"wall range", Filter{WallThicknessMin: dec("4")}, 2},
		{"no match", Filter{Warehouse: "Kazan"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, err := svc.List(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, page.TotalCount)
			assert.Len(t, page.Items, int(tc.want))
		})
	}
}

func TestListPaging(t *testing.T) {
	svc, conn := newTestService(t)
	seedCatalog(t, conn)

	page, err := svc.List(context.Background(), Filter{Page: pagination.Params{Page: 2, PageSize: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Yekaterinburg", page.Items[0].Warehouse)
}

func TestListRejectsInvertedRanges(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), Filter{DiameterMin: dec("100"), DiameterMax: dec("50")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGet(t *testing.T) {
	svc, conn := newTestService(t)
	p := dbtest.MustCreateProduct(t, conn, dbtest.DemoPipe())

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "TUBE-EW-57-3.5-ST3", *got.SKU)
	assert.True(t, got.WeightPerMeter.Equal(decimal.RequireFromString("4.74")))

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDistinctListsIncludeOutOfStock(t *testing.T) {
	svc, conn := newTestService(t)
	seedCatalog(t, conn)
	ctx := context.Background()

	warehouses, err := svc.Warehouses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chelyabinsk", "Moscow", "Yekaterinburg"}, warehouses)

	types, err := svc.ProductTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electric-welded pipe", "Profile pipe", "Seamless pipe"}, types)

	gosts, err := svc.GOSTs(ctx)
	require.NoError(t, err)
	assert.Len(t, gosts, 3)

	grades, err := svc.SteelGrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"09G2S", "20", "St3"}, grades)
}

func TestFilterOptions(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	empty, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Warehouses)
	assert.NotNil(t, empty.Warehouses)
	assert.False(t, empty.DiameterMin.Valid)

	seedCatalog(t, conn)
	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, opts.Warehouses, 3)
	require.True(t, opts.DiameterMin.Valid)
	assert.True(t, opts.DiameterMin.Decimal.Equal(decimal.NewFromInt(40)))
	assert.True(t, opts.DiameterMax.Decimal.Equal(decimal.NewFromInt(159)))
	assert.True(t, opts.WallThicknessMin.Decimal.Equal(decimal.NewFromInt(2)))
	assert.True(t, opts.WallThicknessMax.Decimal.Equal(decimal.NewFromInt(6)))
}
