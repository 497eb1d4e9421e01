package ingest

import (
	"time"

	"github.com/angelmondragon/flowzz-ingest/pkg/enums"
)

// CategorySummary counts what one category harvest did.
type CategorySummary struct {
	Category enums.Category
	Pages    int
	Fetched  int
	Mapped   int
	Dropped  int
	Upserted int
	Failed   int
	// Err is the fetch failure that ended the category, if any.
	Err error
}

type CatalogSummary struct {
	Categories []CategorySummary
	Duration   time.Duration
}

// Upserted sums catalog rows written across categories.
func (c CatalogSummary) Upserted() int {
	total := 0
	for _, cat := range c.Categories {
		total += cat.Upserted
	}
	return total
}

// VendorSummary counts what the vendor fan-out did.
type VendorSummary struct {
	Keys        int
	Processed   int
	Succeeded   int
	Failed      int
	Exhausted   int
	RateLimited int
	Fetches     int
	Mapped      int
	Dropped     int
	Upserted    int
	StoreFailed int
	Tripped     bool
	Canceled    bool
	Duration    time.Duration
	// Err is set when the key snapshot could not be read.
	Err error
}

// Summary describes one full ingest run.
type Summary struct {
	RunID    string
	Skipped  bool
	// HeldBy is the run id that held the lock when this run was skipped.
	HeldBy   string
	Catalog  CatalogSummary
	Vendors  VendorSummary
	Duration time.Duration
}
