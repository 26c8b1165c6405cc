package handlers

import (
	"fmt"
	"strings"
	"time"
)

// printHeader prints a title underlined with dashes.
func printHeader(title string) {
	fmt.Println()
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", len(title)))
}

// formatDate renders a date or "-" when unknown.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// formatPrice renders a registrar price or "-" when none was quoted.
func formatPrice(price float64, currency string) string {
	if price <= 0 {
		return "-"
	}
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
