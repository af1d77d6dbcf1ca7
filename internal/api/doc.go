// Package api provides REST clients for the upstream price and listing APIs.
//
// Endpoints:
//   - Price oracle (CoinGecko v3): GET /simple/price
//   - Listing (CoinMarketCap static): GET /generated/core/crypto/cryptos.json
//   - Detail (CoinMarketCap data API): GET /data-api/v3/cryptocurrency/detail/lite
//
// Every non-2xx response surfaces as *APIError carrying the status code and
// the raw body.
package api
