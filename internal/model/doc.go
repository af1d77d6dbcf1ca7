// Package model defines shared data types used across the crawler.
//
// Conventions:
//   - Prices: shopspring decimal for values that feed arithmetic, string for
//     values that are only ever written out
//   - Timestamps: time.Time in UTC, truncated to the second
//   - Ranks: 1-based positions
package model
