package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	categoriesEnumerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_categories_enumerated_total",
			Help: "Categories fully enumerated",
		},
	)

	articlesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_articles_discovered_total",
			Help: "Article ids discovered during enumeration, before cross-category dedup",
		},
	)

	idBatchesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_id_batches_emitted_total",
			Help: "Id batches handed to the card stage",
		},
	)

	cardsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_cards_fetched_total",
			Help: "Product cards fetched from the detail endpoint",
		},
	)

	emptyCardPages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_empty_card_pages_total",
			Help: "Card-detail responses that contained no products",
		},
	)

	cardsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_cards_deduplicated_total",
			Help: "Cards dropped because the article was already seen this crawl",
		},
	)

	snapshotsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_snapshots_persisted_total",
			Help: "Snapshots committed to the database",
		},
	)
)
