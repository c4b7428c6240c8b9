package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatAmount renders a rupee amount with exactly two decimals, e.g. "480.00".
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", math.Round(amount*100)/100)
}

// FormatINR groups digits the Indian way (last three, then pairs) and
// prefixes the rupee sign. Example: 1234567.5 -> "₹12,34,567.50"
func FormatINR(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	parts := strings.SplitN(FormatAmount(amount), ".", 2)
	integerPart, decimalPart := parts[0], parts[1]

	if len(integerPart) > 3 {
		head, tail := integerPart[:len(integerPart)-3], integerPart[len(integerPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		integerPart = strings.Join(append(groups, tail), ",")
	}
	return sign + "₹" + integerPart + "." + decimalPart
}
