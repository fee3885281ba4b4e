package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatBRL formata um valor em reais no padrão pt-BR: "R$ 1.234,56".
// Usada em todas as métricas monetárias exibidas no dashboard.
func FormatBRL(value float64) string {
	cents := int64(math.Round(math.Abs(value) * 100))
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)

	sign := ""
	if value < 0 && cents > 0 {
		sign = "-"
	}
	return fmt.Sprintf("R$ %s%s,%02d", sign, strings.Join(parts, "."), frac)
}

// FormatCompactNumber abrevia números grandes para exibição:
// 1500 -> "1.5k", 2300000 -> "2.3M".
func FormatCompactNumber(value int64) string {
	switch {
	case value >= 1000000:
		return fmt.Sprintf("%.1fM", float64(value)/1000000)
	case value >= 1000:
		return fmt.Sprintf("%.1fk", float64(value)/1000)
	default:
		return fmt.Sprintf("%d", value)
	}
}
