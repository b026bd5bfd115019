// Package pricing computes order totals in exact decimal arithmetic.
package pricing

import (
	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Total sums price * quantity over the snapshotted items, rounded to cents.
func Total(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2)
}

// Matches reports whether a caller-supplied amount equals total to the cent.
func Matches(total decimal.Decimal, claimed float64) bool {
	return decimal.NewFromFloat(claimed).Round(2).Equal(total)
}

// Float converts a rounded total for storage on the order document.
func Float(total decimal.Decimal) float64 {
	f, _ := total.Float64()
	return f
}
