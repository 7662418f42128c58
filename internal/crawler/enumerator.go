package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/internal/marketplace"
)

// Fetcher is the marketplace surface the crawler consumes. Satisfied by
// *marketplace.Client.
type Fetcher interface {
	MaxPrice(ctx context.Context, shard, query string) (int64, error)
	CatalogPage(ctx context.Context, baseURL string, page int) ([]marketplace.CatalogProduct, error)
	BrandFilters(ctx context.Context, shard, query, priceRange string) ([]marketplace.BrandItem, error)
	CardDetails(ctx context.Context, ids string) ([]marketplace.Card, error)
}

// IDBatch is one `;`-joined article id list together with the category it was
// discovered under. The category travels with the ids so that normalized
// items can be attributed.
type IDBatch struct {
	CategoryID int64
	IDs        string
}

// CardBatch is one fetched card page attributed to its source category.
type CardBatch struct {
	CategoryID int64
	Cards      []marketplace.Card
}

// Enumerator discovers every article id reachable under a category and emits
// them as `;`-joined batches sized for the card-detail endpoint.
type Enumerator struct {
	fetcher Fetcher
	logger  *slog.Logger
	out     chan<- IDBatch
}

// NewEnumerator wires an enumerator to its output batch channel.
func NewEnumerator(fetcher Fetcher, out chan<- IDBatch, logger *slog.Logger) *Enumerator {
	return &Enumerator{
		fetcher: fetcher,
		logger:  logger,
		out:     out,
	}
}

// EnumerateCategory walks one category: it reads the category-wide price
// ceiling, then recursively partitions the price axis until every partition
// fits inside the page window.
func (e *Enumerator) EnumerateCategory(ctx context.Context, cat domain.Category) error {
	if !cat.Crawlable() {
		e.logger.DebugContext(ctx, "skipping non-crawlable category",
			slog.Int64("category_id", cat.ID),
			slog.String("name", cat.Name),
		)
		return nil
	}

	maxPrice, err := e.fetcher.MaxPrice(ctx, cat.ShardValue(), cat.QueryValue())
	if err != nil {
		return fmt.Errorf("price ceiling for category %d: %w", cat.ID, err)
	}

	e.logger.InfoContext(ctx, "enumerating category",
		slog.Int64("category_id", cat.ID),
		slog.String("name", cat.Name),
		slog.Int64("max_price", maxPrice),
	)

	if err := e.partition(ctx, cat, 0, maxPrice); err != nil {
		return fmt.Errorf("category %d: %w", cat.ID, err)
	}

	categoriesEnumerated.Inc()
	return nil
}

// partition handles one price interval [minPrice, maxPrice]. If the deepest
// page of the interval is still nearly full, results extend past the page
// window and the interval is split at a rounded midpoint. The midpoint is
// computed before deciding: when rounding leaves it within MinPriceRange of
// the lower bound, a price split would stall and the whole interval switches
// to brand partitioning instead. Otherwise the interval fits and its pages
// are traversed directly.
func (e *Enumerator) partition(ctx context.Context, cat domain.Category, minPrice, maxPrice int64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	priceRange := marketplace.PriceRange(minPrice, maxPrice)
	baseURL := marketplace.CatalogURL(cat.ShardValue(), cat.QueryValue(), priceRange)

	lastPage, err := e.fetcher.CatalogPage(ctx, baseURL+"&sort=popular", marketplace.MaxPage)
	if err != nil {
		return err
	}

	if len(lastPage) > marketplace.LastPageThreshold {
		mid := splitPrice(minPrice, maxPrice)
		if mid-minPrice < marketplace.MinPriceRange {
			return e.partitionByBrand(ctx, cat, priceRange)
		}
		if err := e.partition(ctx, cat, minPrice, mid); err != nil {
			return err
		}
		return e.partition(ctx, cat, mid, maxPrice)
	}

	return e.traversePages(ctx, cat.ID, baseURL)
}

// splitPrice picks the midpoint of a price interval, nudged up and rounded to
// the nearest ten thousand with ties going to the even multiple.
func splitPrice(minPrice, maxPrice int64) int64 {
	mid := float64(minPrice+maxPrice)/2 + 100
	return int64(math.RoundToEven(mid/10000)) * 10000
}

// partitionByBrand splits a saturated narrow price interval along the brand
// axis. Brands large enough to saturate a filter batch get their own query;
// the rest share batches of up to MaxBrandsInRequest.
func (e *Enumerator) partitionByBrand(ctx context.Context, cat domain.Category, priceRange string) error {
	brands, err := e.fetcher.BrandFilters(ctx, cat.ShardValue(), cat.QueryValue(), priceRange)
	if err != nil {
		return err
	}

	baseURL := marketplace.CatalogURL(cat.ShardValue(), cat.QueryValue(), priceRange)

	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		url := baseURL + "&fbrand=" + strings.Join(batch, ";")
		batch = batch[:0]
		return e.traversePages(ctx, cat.ID, url)
	}

	for _, brand := range brands {
		id := strconv.FormatInt(brand.ID, 10)
		if brand.Count > marketplace.MaxItemsInBrandsFilter {
			if err := e.traversePages(ctx, cat.ID, baseURL+"&fbrand="+id); err != nil {
				return err
			}
			continue
		}
		batch = append(batch, id)
		if len(batch) == marketplace.MaxBrandsInRequest {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

// traversePages walks every page of one effective query under each sort
// order and emits the union of the ids seen. Each sort order surfaces a
// different slice of the result set inside the page window, so the union
// recovers items a single order would miss.
func (e *Enumerator) traversePages(ctx context.Context, categoryID int64, baseURL string) error {
	seen := make(map[int64]struct{})

	for _, order := range marketplace.SortOrders {
		sortedURL := baseURL + "&sort=" + order
		for page := 1; page <= marketplace.MaxPage; page++ {
			products, err := e.fetcher.CatalogPage(ctx, sortedURL, page)
			if err != nil {
				return err
			}
			if len(products) == 0 {
				break
			}
			for _, p := range products {
				seen[p.ID] = struct{}{}
			}
		}
	}

	articlesDiscovered.Add(float64(len(seen)))
	return e.emit(ctx, categoryID, seen)
}

// emit flushes a discovered id set as `;`-joined batches of at most
// MaxItemsInRequest ids. Ids are ordered for deterministic batches.
func (e *Enumerator) emit(ctx context.Context, categoryID int64, seen map[int64]struct{}) error {
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for start := 0; start < len(ids); start += marketplace.MaxItemsInRequest {
		end := start + marketplace.MaxItemsInRequest
		if end > len(ids) {
			end = len(ids)
		}

		parts := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			parts = append(parts, strconv.FormatInt(id, 10))
		}

		select {
		case e.out <- IDBatch{CategoryID: categoryID, IDs: strings.Join(parts, ";")}:
			idBatchesEmitted.Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
