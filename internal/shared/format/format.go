package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money возвращает сумму в формате "1.234.567,89" (разделители тысяч, запятая).
// Используется только для печати в CLI; в расчёты такие строки не возвращаются.
func Money(v decimal.Decimal) string {
	s := v.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	frac := "00"
	if len(parts) == 2 {
		frac = parts[1]
	}

	// Целая часть с разделителями тысяч
	var out []byte
	cnt := 0
	for i := len(intPart) - 1; i >= 0; i-- {
		out = append(out, intPart[i])
		cnt++
		if cnt%3 == 0 && i != 0 {
			out = append(out, '.')
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	res := string(out) + "," + frac
	if neg {
		res = "-" + res
	}
	return res
}

// Qty — количество монеты без хвостовых нулей, но минимум один знак после запятой.
func Qty(v decimal.Decimal) string {
	s := v.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
