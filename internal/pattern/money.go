package pattern

import (
	"regexp"
	"strconv"
	"strings"
)

var moneyRe = regexp.MustCompile(`([$£€])\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// currencyBySymbol maps the page's apparent currency symbol to an ISO code.
var currencyBySymbol = map[string]string{
	"$": "USD",
	"£": "GBP",
	"€": "EUR",
}

// ParseMoney finds the first money token in text and returns its ISO
// currency code and amount.
func ParseMoney(text string) (string, float64, bool) {
	m := moneyRe.FindStringSubmatch(text)
	if m == nil {
		return "", 0, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return "", 0, false
	}
	cur, ok := currencyBySymbol[m[1]]
	if !ok {
		cur = "USD"
	}
	return cur, amount, true
}

// CurrencyForSymbol maps a currency symbol to an ISO code, defaulting to USD.
func CurrencyForSymbol(sym string) string {
	if cur, ok := currencyBySymbol[sym]; ok {
		return cur
	}
	return "USD"
}
