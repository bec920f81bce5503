package datasync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

const skuPrefix = "PROD-"

// Feed file names in the data directory.
const (
	stocksFile       = "stocks.json"
	nomenclatureFile = "nomenclature.json"
	pricesFile       = "prices.json"
	remnantsFile     = "remnants.json"

	priceUpdatePattern = "prices_update_*.json"
	stockUpdatePattern = "remnants_update_*.json"
)

type stockFeed struct {
	ArrayOfStockEl []stockRow
}

type stockRow struct {
	IDStock   string
	Stock     string
	StockName string
}

type nomenclatureFeed struct {
	ArrayOfNomenclatureEl []nomenclatureRow
}

type nomenclatureRow struct {
	ID                string
	ProductionType    string
	Name              string
	Gost              string
	SteelGrade        string
	Diameter          decimal.Decimal
	PipeWallThickness decimal.Decimal
	Status            int
	Koef              decimal.Decimal
}

type priceFeed struct {
	ArrayOfPricesEl []priceRow
}

type priceRow struct {
	ID      string
	IDStock string
	PriceT  decimal.Decimal
}

type remnantFeed struct {
	ArrayOfRemnantsEl []remnantRow
}

type remnantRow struct {
	ID       string
	IDStock  string
	InStockT decimal.Decimal
	InStockM decimal.Decimal
}

// SKUFor maps a feed item id to the catalog SKU.
func SKUFor(feedID string) string {
	return skuPrefix + strings.TrimSpace(feedID)
}

// readFeed decodes the JSON file at path into v. A missing file reports
// found=false without an error.
func readFeed(path string, v any) (found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
