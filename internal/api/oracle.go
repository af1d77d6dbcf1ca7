package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/rickgao/coin-crawler/internal/model"
)

// GetSimplePrice fetches the latest quote of asset in currency, including
// the oracle's last-updated timestamp.
func (c *Client) GetSimplePrice(ctx context.Context, asset, currency string) (model.PricePoint, error) {
	query := url.Values{}
	query.Set("ids", asset)
	query.Set("vs_currencies", currency)
	query.Set("include_last_updated_at", "true")

	var resp SimplePriceResponse
	if err := c.get(ctx, "/simple/price", query, &resp); err != nil {
		return model.PricePoint{}, fmt.Errorf("get simple price %s: %w", asset, err)
	}

	return resp.Point(asset, currency)
}

// Point extracts a PricePoint for asset/currency from the response.
func (r SimplePriceResponse) Point(asset, currency string) (model.PricePoint, error) {
	quote, ok := r[asset]
	if !ok {
		return model.PricePoint{}, fmt.Errorf("simple price: asset %q missing from response", asset)
	}

	raw, ok := quote[currency]
	if !ok {
		return model.PricePoint{}, fmt.Errorf("simple price: %s/%s missing from response", asset, currency)
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("simple price: parse %s: %w", currency, err)
	}

	rawTS, ok := quote["last_updated_at"]
	if !ok {
		return model.PricePoint{}, fmt.Errorf("simple price: last_updated_at missing for %s", asset)
	}
	ts, err := rawTS.Int64()
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("simple price: parse last_updated_at: %w", err)
	}

	return model.NewPricePoint(ts, price), nil
}
