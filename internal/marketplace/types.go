package marketplace

// filtersResponse is the envelope of the v4/filters endpoint.
type filtersResponse struct {
	Data *struct {
		Filters []Filter `json:"filters"`
	} `json:"data"`
}

// Filter is one entry of the filters list. The priceU filter carries the
// category price ceiling; the fbrand filter carries brand items.
type Filter struct {
	Key       string      `json:"key"`
	MaxPriceU int64       `json:"maxPriceU"`
	Items     []BrandItem `json:"items"`
}

// BrandItem is one brand with its product count within the filtered range.
type BrandItem struct {
	ID    int64 `json:"id"`
	Count int64 `json:"count"`
}

// catalogResponse is the envelope of catalog listing pages.
type catalogResponse struct {
	Data *struct {
		Products []CatalogProduct `json:"products"`
	} `json:"data"`
}

// CatalogProduct is a listing entry; only the id is consumed.
type CatalogProduct struct {
	ID int64 `json:"id"`
}

// cardsResponse is the envelope of the card-detail endpoint.
type cardsResponse struct {
	Data *struct {
		Products []Card `json:"products"`
	} `json:"data"`
}

// Card is one product card as served by the detail endpoint. Rating and
// Feedbacks are pointers so that a present zero passes validation while a
// missing field fails it; Sale and prices are genuinely optional.
type Card struct {
	ID         int64      `json:"id" validate:"required"`
	Root       int64      `json:"root" validate:"required"`
	BrandID    int64      `json:"brandId" validate:"required"`
	Brand      string     `json:"brand" validate:"required"`
	Name       string     `json:"name" validate:"required"`
	Sale       *int64     `json:"sale"`
	PriceU     *int64     `json:"priceU"`
	SalePriceU *int64     `json:"salePriceU"`
	Rating     *float64   `json:"rating" validate:"required"`
	Feedbacks  *int64     `json:"feedbacks" validate:"required"`
	Colors     []CardColor `json:"colors"`
	Sizes      []CardSize  `json:"sizes"`
}

// CardColor is one color listed on a card.
type CardColor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CardSize is one size with its per-warehouse stocks.
type CardSize struct {
	Name   string      `json:"name"`
	Stocks []CardStock `json:"stocks"`
}

// CardStock is the quantity held at one warehouse.
type CardStock struct {
	Qty int64 `json:"qty"`
}

// MenuNode is one node of the main-menu category tree.
type MenuNode struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Parent  *int64     `json:"parent"`
	URL     string     `json:"url"`
	Shard   *string    `json:"shard"`
	Query   *string    `json:"query"`
	Landing bool       `json:"landing"`
	Childs  []MenuNode `json:"childs"`
}
