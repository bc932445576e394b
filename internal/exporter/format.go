package exporter

import "fmt"

// formatFloat formats an index value for CSV output with exactly 2 decimal
// places, so 13.4 appears as 13.40.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats a frequency count for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}
