package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR renders an amount with Indian digit grouping, e.g. 1234567.89
// becomes "12,34,567.89". The last three integer digits form one group,
// every pair before that forms another.
func FormatINR(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	grouped := groupIndian(intPart)
	if neg {
		return "-" + grouped + "." + fracPart
	}
	return grouped + "." + fracPart
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

var (
	crore = decimal.NewFromInt(10000000)
	lakh  = decimal.NewFromInt(100000)
)

// CompactINR renders large amounts in lakh/crore shorthand: 12500000 becomes
// "1.25 Cr", 250000 becomes "2.50 L". Smaller amounts fall back to FormatINR.
func CompactINR(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.Cmp(crore) >= 0:
		return d.Div(crore).StringFixed(2) + " Cr"
	case abs.Cmp(lakh) >= 0:
		return d.Div(lakh).StringFixed(2) + " L"
	default:
		return FormatINR(d)
	}
}
