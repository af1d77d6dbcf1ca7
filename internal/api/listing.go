package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// GetListing fetches the full coin listing.
func (c *Client) GetListing(ctx context.Context) (*ListingResponse, error) {
	var resp ListingResponse
	if err := c.get(ctx, "/generated/core/crypto/cryptos.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &resp, nil
}

// GetDetail fetches market statistics for a single coin id.
func (c *Client) GetDetail(ctx context.Context, id string) (*Statistics, error) {
	query := url.Values{}
	query.Set("id", id)

	var resp DetailResponse
	if err := c.get(ctx, "/data-api/v3/cryptocurrency/detail/lite", query, &resp); err != nil {
		return nil, fmt.Errorf("get detail %s: %w", id, err)
	}
	return &resp.Data.Statistics, nil
}

// Rows zips Fields with the first limit Values. A limit <= 0 keeps every row.
// Values are rendered as strings; a row shorter than Fields simply lacks the
// trailing keys.
func (r *ListingResponse) Rows(limit int) []map[string]string {
	values := r.Values
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}

	rows := make([]map[string]string, 0, len(values))
	for _, v := range values {
		row := make(map[string]string, len(r.Fields))
		for i, field := range r.Fields {
			if i >= len(v) {
				break
			}
			row[field] = stringify(v[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// stringify renders a decoded JSON scalar the way it appeared on the wire.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}
