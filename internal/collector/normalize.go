package collector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rickgao/coin-crawler/internal/model"
)

// ErrMissingField is wrapped by every MissingFieldError.
var ErrMissingField = errors.New("missing field")

// MissingFieldError reports a source row lacking a required field.
type MissingFieldError struct {
	Source string // "table" or "listing"
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s row: missing field %q", e.Source, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Table header keys.
const (
	ColRank      = "#"
	ColName      = "Name"
	ColPrice     = "Price"
	ColChange24h = "24h %"
	ColMarketCap = "Market Cap"
)

// Listing and detail keys.
const (
	KeyID        = "id"
	KeyName      = "name"
	KeySymbol    = "symbol"
	KeyPrice     = "price"
	KeyChange24h = "priceChangePercentage24h"
	KeyMarketCap = "marketCap"
)

// NormalizeTableRow maps one rendered table row, keyed by header text, to a
// RankedEntry. The Name cell renders as "Full name\nSYMBOL".
func NormalizeTableRow(cells map[string]string) (model.RankedEntry, error) {
	get := lookup("table", cells)

	rawRank, err := get(ColRank)
	if err != nil {
		return model.RankedEntry{}, err
	}
	rank, err := strconv.Atoi(strings.TrimSpace(rawRank))
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("table row: rank %q: %w", rawRank, err)
	}

	name, err := get(ColName)
	if err != nil {
		return model.RankedEntry{}, err
	}
	parts := strings.Split(name, "\n")
	if len(parts) < 2 {
		return model.RankedEntry{}, &MissingFieldError{Source: "table", Field: ColName + " symbol"}
	}

	entry := model.RankedEntry{
		Rank:       rank,
		NameSymbol: strings.TrimSpace(parts[0]) + " " + strings.TrimSpace(parts[1]),
	}
	if entry.PriceUSD, err = get(ColPrice); err != nil {
		return model.RankedEntry{}, err
	}
	if entry.PctChange24h, err = get(ColChange24h); err != nil {
		return model.RankedEntry{}, err
	}
	if entry.MarketCapUSD, err = get(ColMarketCap); err != nil {
		return model.RankedEntry{}, err
	}
	return entry, nil
}

// NormalizeListingRow maps a listing row merged with its detail statistics
// to a RankedEntry. Rank is position+1; the feed's own rank is ignored.
func NormalizeListingRow(position int, raw map[string]string) (model.RankedEntry, error) {
	get := lookup("listing", raw)

	entry := model.RankedEntry{Rank: position + 1}

	name, err := get(KeyName)
	if err != nil {
		return model.RankedEntry{}, err
	}
	symbol, err := get(KeySymbol)
	if err != nil {
		return model.RankedEntry{}, err
	}
	entry.NameSymbol = name + " " + symbol

	if entry.PriceUSD, err = get(KeyPrice); err != nil {
		return model.RankedEntry{}, err
	}
	if entry.PctChange24h, err = get(KeyChange24h); err != nil {
		return model.RankedEntry{}, err
	}
	if entry.MarketCapUSD, err = get(KeyMarketCap); err != nil {
		return model.RankedEntry{}, err
	}
	return entry, nil
}

func lookup(source string, m map[string]string) func(string) (string, error) {
	return func(key string) (string, error) {
		v, ok := m[key]
		if !ok {
			return "", &MissingFieldError{Source: source, Field: key}
		}
		return v, nil
	}
}
