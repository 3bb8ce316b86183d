package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatNaira renders an amount in kobo as ₦ with two decimals.
func FormatNaira(kobo int64) string {
	return "₦" + decimal.New(kobo, -2).StringFixed(2)
}

// NextPaymentDate adds one billing interval to from. Unknown intervals count as monthly.
func NextPaymentDate(interval string, from time.Time) time.Time {
	switch strings.ToLower(strings.TrimSpace(interval)) {
	case "hourly":
		return from.Add(time.Hour)
	case "daily":
		return from.AddDate(0, 0, 1)
	case "weekly":
		return from.AddDate(0, 0, 7)
	case "quarterly":
		return from.AddDate(0, 3, 0)
	case "biannually":
		return from.AddDate(0, 6, 0)
	case "annually", "yearly":
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}
