package datasync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	product "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/metrics"
)

const (
	feedPrices       = "prices"
	feedStocks       = "stocks"
	feedNomenclature = "nomenclature"

	runProcessUpdates = "process_updates"
	runImport         = "initial_import"

	// DefaultWarehouse is assigned to imported products that have no remnant row.
	DefaultWarehouse = "Yekaterinburg"
)

var (
	thousand      = decimal.NewFromInt(1000)
	weightPlaces  = int32(3)
	errRunPending = pkgerrors.New(pkgerrors.CodeConflict, "sync is already running")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PriceUpdate replaces the price of the product with the SKU.
type PriceUpdate struct {
	SKU         string
	PricePerTon decimal.Decimal
	Timestamp   time.Time
}

// StockUpdate adds the deltas to the product's stock, clamping at zero.
type StockUpdate struct {
	SKU         string
	DeltaTons   decimal.Decimal
	DeltaMeters decimal.Decimal
	Timestamp   time.Time
}

// RunReport summarizes a scan of the updates directory.
type RunReport struct {
	PriceFiles    []string `json:"price_files"`
	StockFiles    []string `json:"stock_files"`
	PricesUpdated int      `json:"prices_updated"`
	StocksUpdated int      `json:"stocks_updated"`
}

// ImportReport summarizes the initial catalog import.
type ImportReport struct {
	Skipped    bool `json:"skipped"`
	Warehouses int  `json:"warehouses"`
	Products   int  `json:"products"`
	Prices     int  `json:"prices"`
	Remnants   int  `json:"remnants"`
}

// Service ingests price and stock feeds keyed by SKU.
type Service interface {
	UpdatePrice(ctx context.Context, update PriceUpdate) (int, error)
	UpdateStock(ctx context.Context, update StockUpdate) (int, error)
	SyncPrices(ctx context.Context, updates []PriceUpdate) (int, error)
	SyncStocks(ctx context.Context, updates []StockUpdate) (int, error)
	ProcessPriceFile(ctx context.Context, path string) (int, error)
	ProcessStockFile(ctx context.Context, path string) (int, error)
	ProcessAllUpdates(ctx context.Context) (*RunReport, error)
	ImportInitial(ctx context.Context) (*ImportReport, error)
}

// ServiceParams configure the sync service. Lock and Metrics are optional.
type ServiceParams struct {
	Products   *product.Repository
	Tx         txRunner
	Logger     *logger.Logger
	Lock       Lock
	Metrics    *metrics.SyncMetrics
	DataDir    string
	UpdatesDir string
	Now        func() time.Time
}

type service struct {
	products   *product.Repository
	tx         txRunner
	logg       *logger.Logger
	lock       Lock
	metrics    *metrics.SyncMetrics
	dataDir    string
	updatesDir string
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	m := params.Metrics
	if m == nil {
		m = metrics.NewSyncMetrics(nil)
	}
	return &service{
		products:   params.Products,
		tx:         params.Tx,
		logg:       params.Logger,
		lock:       params.Lock,
		metrics:    m,
		dataDir:    params.DataDir,
		updatesDir: params.UpdatesDir,
		now:        now,
	}, nil
}

func (s *service) UpdatePrice(ctx context.Context, update PriceUpdate) (int, error) {
	sku := strings.TrimSpace(update.SKU)
	if sku == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	at := update.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	rows, err := s.products.SetPriceBySKU(ctx, sku, update.PricePerTon, at.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update price")
	}
	if rows == 0 {
		return 0, nil
	}
	s.metrics.AddRows(feedPrices, 1)
	return 1, nil
}

func (s *service) UpdateStock(ctx context.Context, update StockUpdate) (int, error) {
	sku := strings.TrimSpace(update.SKU)
	if sku == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}

	updated := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		p, err := products.FindBySKUForUpdate(ctx, sku)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		applyStockDelta(p, update.DeltaTons, update.DeltaMeters)
		if err := products.Save(ctx, p); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save stock")
		}
		updated = 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.metrics.AddRows(feedStocks, updated)
	return updated, nil
}

func (s *service) SyncPrices(ctx context.Context, updates []PriceUpdate) (int, error) {
	total := 0
	for _, u := range updates {
		n, err := s.UpdatePrice(ctx, u)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *service) SyncStocks(ctx context.Context, updates []StockUpdate) (int, error) {
	total := 0
	for _, u := range updates {
		n, err := s.UpdateStock(ctx, u)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// ProcessPriceFile applies a price delta file. Each PriceT is added to the
// current price of the product PROD-<ID>.
func (s *service) ProcessPriceFile(ctx context.Context, path string) (int, error) {
	var feed priceFeed
	found, err := readFeed(path, &feed)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read price update file")
	}
	if !found {
		s.logg.Warn(s.logg.WithField(ctx, "file", path), "price update file not found")
		return 0, nil
	}

	at := s.now().UTC()
	updated := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		for _, row := range feed.ArrayOfPricesEl {
			p, err := products.FindBySKUForUpdate(ctx, SKUFor(row.ID))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			p.PricePerTon = p.PricePerTon.Add(row.PriceT)
			p.LastPriceUpdate = at
			if err := products.Save(ctx, p); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save price")
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.IncFiles(feedPrices)
	s.metrics.AddRows(feedPrices, updated)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"file": filepath.Base(path), "updated": updated}), "price updates applied")
	return updated, nil
}

// ProcessStockFile applies a remnant delta file with clamping and refreshes
// the weight per meter from the resulting stock ratio.
func (s *service) ProcessStockFile(ctx context.Context, path string) (int, error) {
	var feed remnantFeed
	found, err := readFeed(path, &feed)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read stock update file")
	}
	if !found {
		s.logg.Warn(s.logg.WithField(ctx, "file", path), "stock update file not found")
		return 0, nil
	}

	updated := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		for _, row := range feed.ArrayOfRemnantsEl {
			p, err := products.FindBySKUForUpdate(ctx, SKUFor(row.ID))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			applyStockDelta(p, row.InStockT, row.InStockM)
			if p.AvailableStockMeters.IsPositive() {
				p.WeightPerMeter = weightPerMeter(p.AvailableStockTons, p.AvailableStockMeters)
			}
			if err := products.Save(ctx, p); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save stock")
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.IncFiles(feedStocks)
	s.metrics.AddRows(feedStocks, updated)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"file": filepath.Base(path), "updated": updated}), "stock updates applied")
	return updated, nil
}

// ProcessAllUpdates applies every price update file and then every stock
// update file from the updates directory, each group in file name order.
// The first failing file aborts the run; files applied before it stay applied.
func (s *service) ProcessAllUpdates(ctx context.Context) (report *RunReport, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRun(runProcessUpdates, time.Since(start), err)
	}()

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, release())
	}()

	ctx = s.logg.WithField(ctx, "updates_dir", s.updatesDir)
	report = &RunReport{PriceFiles: []string{}, StockFiles: []string{}}
	if info, statErr := os.Stat(s.updatesDir); statErr != nil || !info.IsDir() {
		s.logg.Warn(ctx, "updates directory not found")
		return report, nil
	}

	priceFiles, err := matchFiles(s.updatesDir, priceUpdatePattern)
	if err != nil {
		return nil, err
	}
	stockFiles, err := matchFiles(s.updatesDir, stockUpdatePattern)
	if err != nil {
		return nil, err
	}

	for _, path := range priceFiles {
		n, err := s.ProcessPriceFile(ctx, path)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "file", filepath.Base(path)), "price update file failed", err)
			return nil, err
		}
		report.PriceFiles = append(report.PriceFiles, filepath.Base(path))
		report.PricesUpdated += n
	}
	for _, path := range stockFiles {
		n, err := s.ProcessStockFile(ctx, path)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "file", filepath.Base(path)), "stock update file failed", err)
			return nil, err
		}
		report.StockFiles = append(report.StockFiles, filepath.Base(path))
		report.StocksUpdated += n
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"price_files": len(report.PriceFiles),
		"stock_files": len(report.StockFiles),
	}), "all update files processed")
	return report, nil
}

// ImportInitial loads the catalog from the data directory when no product
// exists yet. Missing files are logged and contribute nothing.
func (s *service) ImportInitial(ctx context.Context) (report *ImportReport, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRun(runImport, time.Since(start), err)
	}()

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, release())
	}()

	ctx = s.logg.WithField(ctx, "data_dir", s.dataDir)
	count, err := s.products.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	if count > 0 {
		s.logg.Info(ctx, "catalog already populated, skipping initial import")
		return &ImportReport{Skipped: true}, nil
	}

	report = &ImportReport{}

	var stocks stockFeed
	if err := s.readDataFile(ctx, stocksFile, &stocks); err != nil {
		return nil, err
	}
	warehouses := make(map[string]string, len(stocks.ArrayOfStockEl))
	names := map[string]struct{}{}
	for _, st := range stocks.ArrayOfStockEl {
		warehouses[st.IDStock] = st.StockName
		names[st.StockName] = struct{}{}
	}
	report.Warehouses = len(names)

	var nomenclature nomenclatureFeed
	if err := s.readDataFile(ctx, nomenclatureFile, &nomenclature); err != nil {
		return nil, err
	}
	at := s.now().UTC()
	rows := make([]models.Product, 0, len(nomenclature.ArrayOfNomenclatureEl))
	bySKU := make(map[string]int, len(nomenclature.ArrayOfNomenclatureEl))
	for _, item := range nomenclature.ArrayOfNomenclatureEl {
		if item.Status != 1 {
			continue
		}
		sku := SKUFor(item.ID)
		if _, dup := bySKU[sku]; dup {
			continue
		}
		bySKU[sku] = len(rows)
		rows = append(rows, models.Product{
			Warehouse:            DefaultWarehouse,
			ProductType:          item.ProductionType,
			Diameter:             item.Diameter.Truncate(0),
			WallThickness:        item.PipeWallThickness,
			GOST:                 item.Gost,
			SteelGrade:           item.SteelGrade,
			PricePerTon:          decimal.Zero,
			WeightPerMeter:       decimal.Zero,
			AvailableStockTons:   decimal.Zero,
			AvailableStockMeters: decimal.Zero,
			SKU:                  &sku,
			LastPriceUpdate:      at,
		})
	}
	report.Products = len(rows)

	var prices priceFeed
	if err := s.readDataFile(ctx, pricesFile, &prices); err != nil {
		return nil, err
	}
	for _, row := range prices.ArrayOfPricesEl {
		if i, ok := bySKU[SKUFor(row.ID)]; ok {
			rows[i].PricePerTon = row.PriceT
			report.Prices++
		}
	}

	var remnants remnantFeed
	if err := s.readDataFile(ctx, remnantsFile, &remnants); err != nil {
		return nil, err
	}
	for _, row := range remnants.ArrayOfRemnantsEl {
		i, ok := bySKU[SKUFor(row.ID)]
		if !ok {
			continue
		}
		p := &rows[i]
		p.AvailableStockTons = row.InStockT
		p.AvailableStockMeters = row.InStockM
		if row.InStockM.IsPositive() {
			p.WeightPerMeter = weightPerMeter(row.InStockT, row.InStockM)
		}
		if name, ok := warehouses[row.IDStock]; ok {
			p.Warehouse = name
		}
		report.Remnants++
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.products.WithTx(tx).CreateBatch(ctx, rows)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert imported products")
	}

	s.metrics.AddRows(feedNomenclature, report.Products)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"warehouses": report.Warehouses,
		"products":   report.Products,
		"prices":     report.Prices,
		"remnants":   report.Remnants,
	}), "initial import completed")
	return report, nil
}

func (s *service) readDataFile(ctx context.Context, name string, v any) error {
	path := filepath.Join(s.dataDir, name)
	found, err := readFeed(path, v)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read "+name)
	}
	if !found {
		s.logg.Warn(s.logg.WithField(ctx, "file", path), "import file not found")
		return nil
	}
	s.metrics.IncFiles(strings.TrimSuffix(name, ".json"))
	return nil
}

// acquire takes the run lock when one is configured and returns its release.
func (s *service) acquire(ctx context.Context) (func() error, error) {
	if s.lock == nil {
		return func() error { return nil }, nil
	}
	token, ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sync lock")
	}
	if !ok {
		return nil, errRunPending
	}
	return func() error {
		if err := s.lock.Release(context.WithoutCancel(ctx), token); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release sync lock")
		}
		return nil
	}, nil
}

func matchFiles(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list update files")
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stat update file")
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyStockDelta(p *models.Product, deltaTons, deltaMeters decimal.Decimal) {
	p.AvailableStockTons = decimal.Max(p.AvailableStockTons.Add(deltaTons), decimal.Zero)
	p.AvailableStockMeters = decimal.Max(p.AvailableStockMeters.Add(deltaMeters), decimal.Zero)
}

// weightPerMeter returns kg per meter derived from a tons/meters pair.
func weightPerMeter(tons, meters decimal.Decimal) decimal.Decimal {
	return tons.Div(meters).Mul(thousand).Round(weightPlaces)
}
