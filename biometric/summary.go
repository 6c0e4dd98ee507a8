package biometric

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/driftlens/core"
)

const (
	summaryHeading  = "### Biometric Delta Summary"
	significantText = "CLINICALLY SIGNIFICANT"
	normalText      = "within normal range"
)

// FormatSummary renders deltas as a markdown summary, one line per delta in
// input order. The output depends only on its input.
func FormatSummary(deltas []core.BiometricDelta) string {
	var b strings.Builder
	b.WriteString(summaryHeading)
	b.WriteString("\n\n")

	if len(deltas) == 0 {
		b.WriteString("No biometric data available.\n")
		return b.String()
	}

	for _, d := range deltas {
		status := normalText
		if d.Significant {
			status = significantText
		}
		fmt.Fprintf(&b, "- **%s**: acute avg %.2f %s vs baseline avg %.2f %s (delta: %.2f %s) - %s",
			d.Metric, d.AcuteMean, d.Unit, d.BaselineMean, d.Unit, d.Delta, d.Unit, status)
		if cp := d.Changepoint; cp != nil {
			fmt.Fprintf(&b, "; sustained shift %s from %s", cp.Direction, cp.Timestamp.Format(time.DateOnly))
		}
		b.WriteString("\n")
	}
	return b.String()
}
