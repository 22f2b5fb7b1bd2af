// Package validation содержит функции валидации входных данных.
package validation

import "github.com/shopspring/decimal"

var maxPercent = decimal.NewFromInt(100)

// IsValidPercent проверяет, что процент налога или скидки лежит в диапазоне [0, 100].
func IsValidPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(maxPercent)
}

// IsValidPrice проверяет, что цена неотрицательна.
func IsValidPrice(p decimal.Decimal) bool {
	return !p.IsNegative()
}

// IsValidQuantity проверяет, что количество — положительное целое.
func IsValidQuantity(q int) bool {
	return q >= 1
}

// IsValidTableNumber проверяет, что номер столика — положительное целое.
func IsValidTableNumber(n int) bool {
	return n >= 1
}
