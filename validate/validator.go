package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// periodSuffixRe extracts the YYYYMM suffix from a canonical dataset id like
// "user/opm-federal-accessions-202511".
var periodSuffixRe = regexp.MustCompile(`-(\d{6})$`)

// CompletenessError reports expected months with no published artifact. It is
// a hard precondition failure: downstream filtering must abort rather than
// silently analyze partial data.
type CompletenessError struct {
	Subject string // what was being validated, e.g. a category name
	Missing []string
}

func (e *CompletenessError) Error() string {
	return fmt.Sprintf("%s is missing %d month(s): %s",
		e.Subject, len(e.Missing), strings.Join(e.Missing, ", "))
}

// PeriodFromID returns the YYYYMM suffix of a published id, or "" when the id
// carries none.
func PeriodFromID(id string) string {
	m := periodSuffixRe.FindStringSubmatch(id)
	if m == nil {
		return ""
	}
	return m[1]
}

// Validate returns the expected months with no corresponding published id,
// sorted ascending. An empty result means the range is complete.
func Validate(publishedIDs, expectedMonths []string) []string {
	found := make(map[string]bool, len(publishedIDs))
	for _, id := range publishedIDs {
		if period := PeriodFromID(id); period != "" {
			found[period] = true
		}
	}

	var missing []string
	for _, month := range expectedMonths {
		if !found[month] {
			missing = append(missing, month)
		}
	}
	sort.Strings(missing)
	return missing
}
