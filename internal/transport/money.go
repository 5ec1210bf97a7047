package transport

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimal lists currencies whose minor unit is the major unit. idr is
// included because Midtrans amounts are whole rupiah.
var zeroDecimal = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "idr": {}, "jpy": {}, "kmf": {}, "krw": {},
	"mga": {}, "pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

func minorExponent(currency string) int32 {
	if _, ok := zeroDecimal[strings.ToLower(currency)]; ok {
		return 0
	}
	return 2
}

// FormatMinor renders an amount in minor units as a decimal string, e.g.
// 1250 usd -> "12.50".
func FormatMinor(amount int64, currency string) string {
	exp := minorExponent(currency)
	return decimal.New(amount, -exp).StringFixed(exp)
}
