package marketplace

import "fmt"

// Upstream endpoints and query limits. These mirror the marketplace API
// contract and must not be tuned per deployment.
const (
	// MainMenuURL serves the full category tree.
	MainMenuURL = "https://static-basket-01.wb.ru/vol0/data/main-menu-ru-ru-v2.json"

	// BaseURL prefixes every catalog and filter request.
	BaseURL = "https://catalog.wb.ru/catalog/"

	// QueryParams is appended verbatim to every catalog request.
	QueryParams = "&appType=1&dest=-1029256,-102269,-1304596,-1281263"

	// CardURL prefixes card-detail requests; the `nm` parameter carries the
	// `;`-joined article ids.
	CardURL = "https://card.wb.ru/cards/detail?spp=30" + QueryParams + "&nm="

	// MaxPage is the deepest page the API exposes for one query.
	MaxPage = 100

	// LastPageThreshold: when page MaxPage holds more products than this, the
	// query likely has results beyond the page window and must be partitioned.
	LastPageThreshold = 95

	// MaxItemsInRequest caps the number of article ids in one card-detail
	// request.
	MaxItemsInRequest = 750

	// MaxItemsInBrandsFilter: a brand with more items than this gets its own
	// request instead of sharing a batch.
	MaxItemsInBrandsFilter = 500

	// MaxBrandsInRequest caps the number of brand ids in one fbrand filter.
	MaxBrandsInRequest = 20

	// MinPriceRange is the narrowest price interval worth splitting further.
	MinPriceRange = 20000

	// AttemptsCounter is the retry budget for one logical fetch.
	AttemptsCounter = 10

	// RequestLimit caps concurrent in-flight requests process-wide.
	RequestLimit = 200

	// WorkerCount is the per-stage worker pool size.
	WorkerCount = 100
)

// Sort orders traversed for every effective catalog query. Page windows
// differ per order, so their union recovers items past page MaxPage.
var SortOrders = []string{"popular", "pricedown", "priceup"}

// FilterURL builds the category filter endpoint used to read the price
// ceiling.
func FilterURL(shard, query string) string {
	return fmt.Sprintf("%s%s/v4/filters?%s%s", BaseURL, shard, query, QueryParams)
}

// BrandFilterURL builds the fbrand filter endpoint for one price range.
func BrandFilterURL(shard, query, priceRange string) string {
	return fmt.Sprintf("%s%s/v4/filters?filters=fbrand&%s%s%s", BaseURL, shard, query, QueryParams, priceRange)
}

// CatalogURL builds the base catalog listing URL for one price range. Page,
// sort, and fbrand suffixes are appended by the enumerator.
func CatalogURL(shard, query, priceRange string) string {
	return fmt.Sprintf("%s%s/catalog?%s&%s%s", BaseURL, shard, QueryParams, query, priceRange)
}

// PriceRange renders the priceU fragment for the half-open interval
// [min, max].
func PriceRange(min, max int64) string {
	return fmt.Sprintf("&priceU=%d;%d", min, max)
}

// CardDetailsURL builds the card-detail URL for a `;`-joined id list.
func CardDetailsURL(ids string) string {
	return CardURL + ids
}
