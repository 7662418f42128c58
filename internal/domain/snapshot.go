package domain

import "time"

// MultiColorID is the sentinel color id stored on an article that lists more
// than one color in its card payload. It is never a legitimate color id.
const MultiColorID int64 = 999999

// Brand is a reference entity created on first sight and never overwritten.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Color is a reference entity created on first sight and never overwritten.
type Color struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is the product group bundling articles that share one root id.
type Item struct {
	ID         int64 `json:"id"`
	CategoryID int64 `json:"category_id"`
	BrandID    int64 `json:"brand_id"`
}

// Article is a sellable SKU. ColorID is MultiColorID when the card lists
// several colors, the single color's id otherwise, and nil when the card
// lists none.
type Article struct {
	ID      int64  `json:"id"`
	ItemID  int64  `json:"item_id"`
	Name    string `json:"name"`
	ColorID *int64 `json:"color_id,omitempty"`
}

// Size is a reference entity identified by its name; the id is generated by
// the database.
type Size struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ArticleHistory is one price/stock snapshot of an article. Rows are always
// inserted, never updated; every row of one crawl carries the same timestamp.
type ArticleHistory struct {
	ID                int64     `json:"id"`
	ArticleID         int64     `json:"article_id"`
	Timestamp         time.Time `json:"timestamp"`
	PriceFull         *int64    `json:"price_full,omitempty"`
	PriceWithDiscount *int64    `json:"price_with_discount,omitempty"`
	Sale              *int64    `json:"sale,omitempty"`
	Rating            float64   `json:"rating"`
	Feedbacks         int64     `json:"feedbacks"`
	SumCount          int64     `json:"sum_count"`
}

// SizeCount is one observed size with its stock total for a snapshot.
type SizeCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// HistorySizeRelation links a history row to a size with the observed count.
type HistorySizeRelation struct {
	HistoryID int64 `json:"history_id"`
	SizeID    int64 `json:"size_id"`
	Count     int64 `json:"count"`
}

// Snapshot is one fully normalized card, ready for persistence: the reference
// entities to upsert plus the history row to insert.
type Snapshot struct {
	Brand   Brand
	Item    Item
	Article Article
	History ArticleHistory
	Colors  []Color
	Sizes   []SizeCount
}
