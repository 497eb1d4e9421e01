package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/angelmondragon/flowzz-ingest/pkg/config"
	"github.com/angelmondragon/flowzz-ingest/pkg/db/models"
	"github.com/angelmondragon/flowzz-ingest/pkg/enums"
	pkgerrors "github.com/angelmondragon/flowzz-ingest/pkg/errors"
	"github.com/angelmondragon/flowzz-ingest/pkg/flowzz"
	"github.com/angelmondragon/flowzz-ingest/pkg/logger"
	"github.com/angelmondragon/flowzz-ingest/pkg/metrics"
	"github.com/angelmondragon/flowzz-ingest/pkg/pagination"
)

const (
	phaseCatalog = "catalog"
	phaseVendors = "vendors"
)

// CatalogClient fetches listing pages.
type CatalogClient interface {
	FetchPage(ctx context.Context, category enums.Category, page, pageSize int) (*flowzz.PageResult, error)
}

// VendorClient fetches the vendor list of one catalog item.
type VendorClient interface {
	FetchVendors(ctx context.Context, catalogID int64) (*flowzz.VendorPageResult, error)
}

type CatalogStore interface {
	Upsert(ctx context.Context, record *models.CatalogRecord) error
	ListSourceIDs(ctx context.Context) ([]int64, error)
}

type VendorStore interface {
	Upsert(ctx context.Context, record *models.VendorRecord) error
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ServiceParams configure the ingest service.
type ServiceParams struct {
	Logger       *logger.Logger
	Catalog      CatalogClient
	Vendors      VendorClient
	CatalogStore CatalogStore
	VendorStore  VendorStore
	Config       config.IngestConfig
	Metrics      *metrics.IngestMetrics
	Lock         Lock
	Sleep        SleepFunc
}

// Service runs the two ingest phases: catalog harvest, then vendor fan-out.
// It is single-goroutine; do not call its methods concurrently.
type Service struct {
	logg         *logger.Logger
	catalog      CatalogClient
	vendors      VendorClient
	catalogStore CatalogStore
	vendorStore  VendorStore
	cfg          config.IngestConfig
	categories   []enums.Category
	metrics      *metrics.IngestMetrics
	lock         Lock
	sleep        SleepFunc
}

// NewService validates params and fills defaults.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil || params.Vendors == nil {
		return nil, fmt.Errorf("catalog and vendor clients required")
	}
	if params.CatalogStore == nil || params.VendorStore == nil {
		return nil, fmt.Errorf("catalog and vendor stores required")
	}

	cfg := params.Config
	if cfg.PageSize < 0 || cfg.PageSize > pagination.MaxPageSize {
		return nil, fmt.Errorf("page size %d out of range (1-%d)", cfg.PageSize, pagination.MaxPageSize)
	}
	cfg.PageSize = pagination.NormalizePageSize(cfg.PageSize)
	if cfg.MaxRetriesPerItem <= 0 {
		cfg.MaxRetriesPerItem = 3
	}
	if cfg.MaxConsecutiveRateLimits <= 0 {
		cfg.MaxConsecutiveRateLimits = 5
	}
	if cfg.PerItemDelay < 0 {
		cfg.PerItemDelay = 0
	}
	if cfg.RateLimitCooldown < 0 {
		cfg.RateLimitCooldown = 0
	}

	categories := []enums.Category{enums.CategoryFlowers, enums.CategoryExtracts}
	if len(cfg.Categories) > 0 {
		parsed, err := enums.ParseCategories(cfg.Categories)
		if err != nil {
			return nil, err
		}
		categories = parsed
	}

	lock := params.Lock
	if lock == nil {
		lock = NoopLock{}
	}
	sleep := params.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Service{
		logg:         params.Logger,
		catalog:      params.Catalog,
		vendors:      params.Vendors,
		catalogStore: params.CatalogStore,
		vendorStore:  params.VendorStore,
		cfg:          cfg,
		categories:   categories,
		metrics:      params.Metrics,
		lock:         lock,
		sleep:        sleep,
	}, nil
}

// Run executes one full ingest pass under the run lock. A run that finds the
// lock held is skipped, not failed. Phase 2 always follows Phase 1.
func (s *Service) Run(ctx context.Context) (summary *Summary, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	summary = &Summary{RunID: uuid.NewString()}
	ctx = s.logg.WithRunID(ctx, summary.RunID)

	locked, err := s.lock.Acquire(ctx, summary.RunID)
	if err != nil {
		return summary, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		summary.Skipped = true
		holder, holderErr := s.lock.Holder(ctx)
		if holderErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", holderErr.Error()), "could not read ingest lock holder")
		}
		summary.HeldBy = holder
		s.logg.Info(s.logg.WithField(ctx, "held_by", holder), "another ingest run holds the lock; skipping")
		return summary, nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release ingest lock", relErr)
			err = multierr.Append(err, fmt.Errorf("lock release: %w", relErr))
		}
	}()

	start := time.Now()
	s.logg.Info(ctx, "ingest run starting")

	summary.Catalog = s.HarvestCatalog(ctx)
	summary.Vendors = s.FanOutVendors(ctx)
	summary.Duration = time.Since(start)

	s.logSummary(ctx, summary)

	if summary.Vendors.Err != nil {
		err = multierr.Append(err, summary.Vendors.Err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = multierr.Append(err, ctxErr)
	}
	return summary, err
}

// HarvestCatalog walks every configured category page by page and upserts
// each mappable item.
func (s *Service) HarvestCatalog(ctx context.Context) CatalogSummary {
	start := time.Now()
	out := CatalogSummary{}
	for _, category := range s.categories {
		if ctx.Err() != nil {
			break
		}
		out.Categories = append(out.Categories, s.harvestCategory(ctx, category))
	}
	out.Duration = time.Since(start)
	s.metrics.ObservePhase(phaseCatalog, out.Duration)
	return out
}

func (s *Service) harvestCategory(ctx context.Context, category enums.Category) CategorySummary {
	ctx = s.logg.WithCategory(ctx, category.String())
	sum := CategorySummary{Category: category}
	s.logg.Info(ctx, "catalog harvest starting")

	for page := 1; ctx.Err() == nil; page++ {
		pageCtx := s.logg.WithField(ctx, "page", page)
		res, err := s.catalog.FetchPage(pageCtx, category, page, s.cfg.PageSize)
		if err != nil {
			s.metrics.IncFetch(metrics.EndpointCatalog, metrics.OutcomeFailure)
			s.logg.Error(pageCtx, "catalog page fetch failed; ending category", err)
			sum.Err = err
			break
		}
		s.metrics.IncFetch(metrics.EndpointCatalog, metrics.OutcomeSuccess)
		sum.Pages++

		if len(res.Items) == 0 {
			s.logg.Info(pageCtx, "catalog page empty; ending category")
			break
		}
		sum.Fetched += len(res.Items)
		pageCtx = s.logg.WithFields(pageCtx, map[string]any{
			"items":      len(res.Items),
			"page_count": res.PageCount,
		})
		s.logg.Info(pageCtx, "catalog page fetched")

		s.storeCatalogItems(pageCtx, category, res.Items, &sum)

		if (pagination.Meta{Page: res.Page, PageCount: res.PageCount}).Done(page) {
			break
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"pages":    sum.Pages,
		"fetched":  sum.Fetched,
		"upserted": sum.Upserted,
		"dropped":  sum.Dropped,
		"failed":   sum.Failed,
	}), "catalog harvest finished")
	return sum
}

func (s *Service) storeCatalogItems(ctx context.Context, category enums.Category, items []json.RawMessage, sum *CategorySummary) {
	dropped := 0
	for _, raw := range items {
		record := MapCatalog(raw, category)
		if record == nil {
			dropped++
			continue
		}
		sum.Mapped++
		if err := s.catalogStore.Upsert(ctx, record); err != nil {
			sum.Failed++
			s.metrics.IncStoreFailure(metrics.KindCatalog)
			s.logStoreFailure(s.logg.WithSourceID(ctx, record.SourceID), "catalog upsert failed", err)
			continue
		}
		sum.Upserted++
		s.metrics.IncUpserted(metrics.KindCatalog)
	}
	if dropped > 0 {
		sum.Dropped += dropped
		s.metrics.AddDropped(metrics.KindCatalog, dropped)
		s.logg.Warn(s.logg.WithField(ctx, "dropped", dropped), "catalog items without a usable id dropped")
	}
}

// vendorPass carries the mutable state of one fan-out: the consecutive
// rate-limit counter spans keys and resets only on a successful fetch.
type vendorPass struct {
	summary  VendorSummary
	strikes  int
	throttle *rate.Limiter
}

// FanOutVendors fetches vendors for every catalog key stored at the moment the
// phase starts. Sustained rate limiting trips a circuit breaker that ends the
// phase early.
func (s *Service) FanOutVendors(ctx context.Context) VendorSummary {
	start := time.Now()
	pass := &vendorPass{throttle: newThrottle(s.cfg.PerItemDelay)}
	s.fanOut(ctx, pass)
	pass.summary.Duration = time.Since(start)
	s.metrics.ObservePhase(phaseVendors, pass.summary.Duration)
	return pass.summary
}

func (s *Service) fanOut(ctx context.Context, pass *vendorPass) {
	ids, err := s.catalogStore.ListSourceIDs(ctx)
	if err != nil {
		s.logStoreFailure(ctx, "vendor phase could not read catalog keys", err)
		pass.summary.Err = err
		return
	}
	pass.summary.Keys = len(ids)
	s.logg.Info(s.logg.WithField(ctx, "keys", len(ids)), "vendor fan-out starting")

	for _, id := range ids {
		if ctx.Err() != nil {
			pass.summary.Canceled = true
			break
		}
		s.processVendorKey(s.logg.WithSourceID(ctx, id), id, pass)
		pass.summary.Processed++
		if pass.summary.Tripped || pass.summary.Canceled {
			break
		}
	}

	sum := pass.summary
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"keys":         sum.Keys,
		"processed":    sum.Processed,
		"succeeded":    sum.Succeeded,
		"failed":       sum.Failed,
		"exhausted":    sum.Exhausted,
		"rate_limited": sum.RateLimited,
		"upserted":     sum.Upserted,
		"tripped":      sum.Tripped,
	}), "vendor fan-out finished")
}

func (s *Service) processVendorKey(ctx context.Context, id int64, pass *vendorPass) {
	for attempt := 1; attempt <= s.cfg.MaxRetriesPerItem; attempt++ {
		pass.summary.Fetches++
		res, err := s.vendors.FetchVendors(ctx, id)
		switch {
		case err == nil:
			pass.strikes = 0
			pass.summary.Succeeded++
			s.metrics.IncFetch(metrics.EndpointVendors, metrics.OutcomeSuccess)
			s.storeVendors(ctx, res.Vendors, pass)
			return

		case flowzz.IsRateLimited(err):
			pass.strikes++
			pass.summary.RateLimited++
			s.metrics.IncFetch(metrics.EndpointVendors, metrics.OutcomeRateLimited)
			attemptCtx := s.logg.WithFields(ctx, map[string]any{
				"attempt": attempt,
				"strikes": pass.strikes,
			})
			if pass.strikes >= s.cfg.MaxConsecutiveRateLimits {
				pass.summary.Tripped = true
				s.metrics.IncCircuitBreakerTrip()
				s.logg.Error(attemptCtx, "too many consecutive rate limits; aborting vendor phase", err)
				return
			}
			s.logg.Warn(s.logg.WithField(attemptCtx, "cooldown", s.cfg.RateLimitCooldown.String()), "rate limited; cooling down")
			if sleepErr := s.sleep(ctx, s.cfg.RateLimitCooldown); sleepErr != nil {
				pass.summary.Canceled = true
				return
			}

		default:
			pass.summary.Failed++
			s.metrics.IncFetch(metrics.EndpointVendors, metrics.OutcomeFailure)
			s.logg.Error(ctx, "vendor fetch failed; moving to next key", err)
			return
		}
	}
	pass.summary.Exhausted++
	s.logg.Warn(ctx, "vendor retries exhausted; moving to next key")
}

func (s *Service) storeVendors(ctx context.Context, items []json.RawMessage, pass *vendorPass) {
	dropped, stored := 0, 0
	for _, raw := range items {
		record := MapVendor(raw)
		if record == nil {
			dropped++
			continue
		}
		pass.summary.Mapped++
		if err := pass.throttle.Wait(ctx); err != nil {
			pass.summary.Canceled = true
			return
		}
		if err := s.vendorStore.Upsert(ctx, record); err != nil {
			pass.summary.StoreFailed++
			s.metrics.IncStoreFailure(metrics.KindVendor)
			s.logStoreFailure(s.logg.WithField(ctx, "vendor", record.Name), "vendor upsert failed", err)
			continue
		}
		stored++
		pass.summary.Upserted++
		s.metrics.IncUpserted(metrics.KindVendor)
	}
	if dropped > 0 {
		pass.summary.Dropped += dropped
		s.metrics.AddDropped(metrics.KindVendor, dropped)
		s.logg.Warn(s.logg.WithField(ctx, "dropped", dropped), "nameless vendors dropped")
	}
	s.logg.Info(s.logg.WithField(ctx, "vendors", stored), "vendors stored")
}

func (s *Service) logStoreFailure(ctx context.Context, msg string, err error) {
	s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), msg, err)
}

func (s *Service) logSummary(ctx context.Context, summary *Summary) {
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"catalog_upserted": summary.Catalog.Upserted(),
		"vendor_upserted":  summary.Vendors.Upserted,
		"vendor_tripped":   summary.Vendors.Tripped,
		"duration_ms":      summary.Duration.Milliseconds(),
	}), "ingest run complete")
}

func newThrottle(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsCanceled reports whether err came from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
