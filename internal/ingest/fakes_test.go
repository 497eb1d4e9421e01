package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/flowzz-ingest/pkg/config"
	"github.com/angelmondragon/flowzz-ingest/pkg/db/models"
	"github.com/angelmondragon/flowzz-ingest/pkg/enums"
	pkgerrors "github.com/angelmondragon/flowzz-ingest/pkg/errors"
	"github.com/angelmondragon/flowzz-ingest/pkg/flowzz"
)

var errRateLimited = pkgerrors.New(pkgerrors.CodeRateLimit, "vendor price endpoint returned 429")

type pageCall struct {
	category enums.Category
	page     int
	size     int
}

type pageReply struct {
	res *flowzz.PageResult
	err error
}

type fakeCatalogClient struct {
	pages map[enums.Category][]pageReply
	calls []pageCall
}

func (f *fakeCatalogClient) FetchPage(_ context.Context, category enums.Category, page, size int) (*flowzz.PageResult, error) {
	f.calls = append(f.calls, pageCall{category: category, page: page, size: size})
	replies := f.pages[category]
	if page-1 >= len(replies) {
		return &flowzz.PageResult{Page: page, PageCount: page}, nil
	}
	r := replies[page-1]
	return r.res, r.err
}

func (f *fakeCatalogClient) callsFor(category enums.Category) int {
	n := 0
	for _, c := range f.calls {
		if c.category == category {
			n++
		}
	}
	return n
}

type vendorReply struct {
	res *flowzz.VendorPageResult
	err error
}

type fakeVendorClient struct {
	replies  map[int64][]vendorReply
	fallback vendorReply
	calls    []int64
}

func (f *fakeVendorClient) FetchVendors(_ context.Context, id int64) (*flowzz.VendorPageResult, error) {
	f.calls = append(f.calls, id)
	if queue := f.replies[id]; len(queue) > 0 {
		f.replies[id] = queue[1:]
		return queue[0].res, queue[0].err
	}
	if f.fallback.res == nil && f.fallback.err == nil {
		return &flowzz.VendorPageResult{}, nil
	}
	return f.fallback.res, f.fallback.err
}

type memCatalogStore struct {
	records map[int64]*models.CatalogRecord
	failOn  map[int64]bool
	listErr error
	upserts int
}

func newMemCatalogStore(ids ...int64) *memCatalogStore {
	s := &memCatalogStore{records: map[int64]*models.CatalogRecord{}, failOn: map[int64]bool{}}
	for _, id := range ids {
		s.records[id] = &models.CatalogRecord{SourceID: id}
	}
	return s
}

func (s *memCatalogStore) Upsert(_ context.Context, record *models.CatalogRecord) error {
	s.upserts++
	if s.failOn[record.SourceID] {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, fmt.Errorf("constraint violated"), "upsert catalog record")
	}
	s.records[record.SourceID] = record
	return nil
}

func (s *memCatalogStore) ListSourceIDs(context.Context) ([]int64, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	ids := make([]int64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memVendorStore struct {
	records map[string]*models.VendorRecord
	failOn  map[string]bool
	upserts int
}

func newMemVendorStore() *memVendorStore {
	return &memVendorStore{records: map[string]*models.VendorRecord{}, failOn: map[string]bool{}}
}

func (s *memVendorStore) Upsert(_ context.Context, record *models.VendorRecord) error {
	s.upserts++
	if s.failOn[record.Name] {
		return pkgerrors.New(pkgerrors.CodeStorage, "upsert vendor record")
	}
	s.records[record.Name] = record
	return nil
}

type sleepRecorder struct {
	calls []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

type fakeLock struct {
	holder     string
	acquireErr error
	runIDs     []string
	acquired   int
	released   int
}

func (f *fakeLock) Acquire(_ context.Context, runID string) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.holder != "" {
		return false, nil
	}
	f.holder = runID
	f.runIDs = append(f.runIDs, runID)
	f.acquired++
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.holder = ""
	f.released++
	return nil
}

func (f *fakeLock) Holder(context.Context) (string, error) {
	return f.holder, nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		PageSize:                 25,
		MaxConsecutiveRateLimits: 5,
		MaxRetriesPerItem:        3,
		RateLimitCooldown:        10 * time.Second,
		Categories:               []string{"flowers"},
	}
}

// catalogItems builds n listing items with ids starting at first.
func catalogItems(first, n int) []json.RawMessage {
	items := make([]json.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, json.RawMessage(fmt.Sprintf(`{"id":%d,"name":"Strain %d","thc":20}`, first+i, first+i)))
	}
	return items
}

func page(items []json.RawMessage, page, pageCount int) pageReply {
	return pageReply{res: &flowzz.PageResult{Items: items, Page: page, PageCount: pageCount}}
}

func vendorPage(payloads ...string) vendorReply {
	list := make([]json.RawMessage, 0, len(payloads))
	for _, p := range payloads {
		list = append(list, json.RawMessage(p))
	}
	return vendorReply{res: &flowzz.VendorPageResult{Vendors: list}}
}
