package catalog

import (
	"fmt"
	"regexp"
	"strconv"

	"fedharvest/types"
)

// The portal has shipped two label formats over time. The legacy format is a
// raw filename stem, e.g. "accessions_202511_1_2026-01-09" (type, period,
// version ordinal, release date; the trailing two parts are sometimes absent).
// The display format is a human sentence, e.g. "Accessions data for November
// 2025". Both normalize to the same (category, period) identity.

var (
	legacyLabelRe  = regexp.MustCompile(`^([a-z]+)_(\d{6})(?:_(\d+))?(?:_(\d{4}-\d{2}-\d{2}))?$`)
	displayLabelRe = regexp.MustCompile(`^([A-Z][a-z]+) data (?:for|from) ([A-Z][a-z]+) (\d{4})$`)
)

var monthNumbers = map[string]string{
	"January": "01", "February": "02", "March": "03", "April": "04",
	"May": "05", "June": "06", "July": "07", "August": "08",
	"September": "09", "October": "10", "November": "11", "December": "12",
}

// UnrecognizedLabelError reports a catalog label that matches neither known
// format. The harvester records it as a per-item failure rather than guessing.
type UnrecognizedLabelError struct {
	Label string
}

func (e *UnrecognizedLabelError) Error() string {
	return fmt.Sprintf("unrecognized catalog label %q", e.Label)
}

// ParseLabel normalizes a raw catalog label into a SourceItem. It rejects
// labels whose type segment is not one of the known categories.
func ParseLabel(raw string) (types.SourceItem, error) {
	if m := legacyLabelRe.FindStringSubmatch(raw); m != nil {
		cat, err := types.ParseCategory(m[1])
		if err != nil {
			return types.SourceItem{}, &UnrecognizedLabelError{Label: raw}
		}
		version := 0
		if m[3] != "" {
			version, _ = strconv.Atoi(m[3])
		}
		return types.SourceItem{
			Category: cat,
			Period:   m[2],
			Version:  version,
			RawLabel: raw,
		}, nil
	}

	if m := displayLabelRe.FindStringSubmatch(raw); m != nil {
		cat, err := types.ParseCategory(m[1])
		if err != nil {
			return types.SourceItem{}, &UnrecognizedLabelError{Label: raw}
		}
		month, ok := monthNumbers[m[2]]
		if !ok {
			return types.SourceItem{}, &UnrecognizedLabelError{Label: raw}
		}
		return types.SourceItem{
			Category: cat,
			Period:   m[3] + month,
			RawLabel: raw,
		}, nil
	}

	return types.SourceItem{}, &UnrecognizedLabelError{Label: raw}
}
