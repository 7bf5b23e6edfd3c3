package itop

import (
	"regexp"
	"strconv"
)

const maxPlausibleCount = 1_000_000

// countPatterns are tried in order; the first plausible capture wins.
var countPatterns = compileAll(
	`found[:\s]*(\d+)`,
	`(\d+)\s*found`,
	`(\d+)\s*objects?\s*found`,
	`found\s*(\d+)\s*objects?`,
	`(\d+)\s*objects?\s*returned`,
	`returned\s*(\d+)\s*objects?`,
	`(\d+)\s*results?`,
	`results?\s*[:\s]*(\d+)`,
	`total[:\s]*(\d+)`,
	`count[:\s]*(\d+)`,
	`(\d+)\s*records?`,
	`records?\s*[:\s]*(\d+)`,
	`(\d+)\s*entries`,
	`entries[:\s]*(\d+)`,
	`(\d+)`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// FindCount pulls a total out of a free-text remote status message such
// as "Found: 92".
func FindCount(message string) (int, bool) {
	if message == "" {
		return 0, false
	}
	for _, re := range countPatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 || n > maxPlausibleCount {
			continue
		}
		return n, true
	}
	return 0, false
}

// ExtractCount is FindCount with 0 for "no count found".
func ExtractCount(message string) int {
	n, _ := FindCount(message)
	return n
}
