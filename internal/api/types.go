package api

import "encoding/json"

// SimplePriceResponse from GET /simple/price, keyed by asset id then by
// currency code or "last_updated_at".
type SimplePriceResponse map[string]map[string]json.Number

// ListingResponse from GET /generated/core/crypto/cryptos.json.
// Values are positional rows described by Fields.
type ListingResponse struct {
	Fields []string `json:"fields"`
	Values [][]any  `json:"values"`
}

// DetailResponse from GET /data-api/v3/cryptocurrency/detail/lite.
type DetailResponse struct {
	Data struct {
		ID         json.Number `json:"id"`
		Name       string      `json:"name"`
		Symbol     string      `json:"symbol"`
		Statistics Statistics  `json:"statistics"`
	} `json:"data"`
}

// Statistics holds the market figures of a single coin.
type Statistics struct {
	Price                    json.Number `json:"price"`
	PriceChangePercentage24h json.Number `json:"priceChangePercentage24h"`
	MarketCap                json.Number `json:"marketCap"`
}

// Detail field names as they appear in Statistics.
const (
	FieldPrice     = "price"
	FieldChange24h = "priceChangePercentage24h"
	FieldMarketCap = "marketCap"
)

// Fields returns the present statistics keyed by their JSON names.
// Absent or null figures are omitted.
func (s Statistics) Fields() map[string]string {
	out := make(map[string]string, 3)
	if s.Price != "" {
		out[FieldPrice] = s.Price.String()
	}
	if s.PriceChangePercentage24h != "" {
		out[FieldChange24h] = s.PriceChangePercentage24h.String()
	}
	if s.MarketCap != "" {
		out[FieldMarketCap] = s.MarketCap.String()
	}
	return out
}
