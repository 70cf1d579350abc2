// Package cli provides the command-line interface for the review tool.
package cli

import (
	"fmt"
	"strings"
	"time"

	"bybit-review/internal/metrics"
)

// FormatMoney formats an amount with thousands separators and two decimals.
// Amounts are already denominated in the account's settle currency (USDT
// for linear contracts), so no symbol is attached.
func FormatMoney(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	result := groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPnL formats a PnL amount with an explicit sign.
func FormatPnL(pnl float64) string {
	formatted := FormatMoney(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a fraction as a signed percentage.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value*100)
}

// FormatRate formats a [0,1] ratio as an unsigned percentage, "n/a" when
// the ratio is undefined.
func FormatRate(r metrics.Ratio) string {
	if !r.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", r.Value*100)
}

// FormatRatio formats a plain ratio, "undefined" when it has no value
// (e.g. profit factor with zero gross loss).
func FormatRatio(r metrics.Ratio) string {
	if !r.Valid {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatDate formats a date in the given location.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02-Jan-2006")
}

// FormatDateTime formats a datetime in the given location.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02-Jan-2006 15:04")
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
