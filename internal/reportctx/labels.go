package reportctx

import (
	"strconv"
	"time"

	"vulnsphere/internal/models"
)

// DateLayout is the long date form used throughout reports ("March 04, 2025").
const DateLayout = "January 02, 2006"

const notAvailable = "N/A"

// severityRank orders findings for reports, most severe first.
var severityRank = map[models.Severity]int{
	models.SeverityCritical:     5,
	models.SeverityHigh:         4,
	models.SeverityMedium:       3,
	models.SeverityLow:          2,
	models.SeverityInfo:         1,
	models.SeverityUnclassified: 0,
}

func SeverityRank(s models.Severity) int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// SeverityLabel is the display label with "Informational" shortened to "Info".
func SeverityLabel(s models.Severity) string {
	if s == models.SeverityInfo {
		return "Info"
	}
	return s.Label()
}

var buckets = []struct {
	key, label string
}{
	{"critical", "Critical"},
	{"high", "High"},
	{"medium", "Medium"},
	{"low", "Low"},
	{"info", "Info"},
}

// SeverityBucket maps a severity to its histogram key. Unclassified findings are
// counted as info so the buckets always add up to the total.
func SeverityBucket(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "critical"
	case models.SeverityHigh:
		return "high"
	case models.SeverityMedium:
		return "medium"
	case models.SeverityLow:
		return "low"
	}
	return "info"
}

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatCVSS(score *float64) string {
	if score == nil || *score == 0 {
		return notAvailable
	}
	return strconv.FormatFloat(*score, 'f', 1, 64)
}
