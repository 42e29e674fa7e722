package models

import "github.com/shopspring/decimal"

func init() {
	// Persisted documents and API payloads carry prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundRating averages ratings to one decimal place, half away from zero.
func RoundRating(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(count)))
	return avg.Round(1).InexactFloat64()
}
