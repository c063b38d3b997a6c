package subset

import (
	"strconv"

	"fedharvest/normalize"
)

// Column names in the published workforce tables.
const (
	agencyCodeColumn    = "agency_code"
	effectiveDateColumn = "personnel_action_effective_date_yyyymm"
	countColumn         = "count"
	dataTypeColumn      = "data_type"
)

// DropKey identifies one bucket of discarded records.
type DropKey struct {
	AgencyCode string
	DataType   string
}

// DroppedInfo accumulates how much delayed-reporting data fell outside the
// configured window.
type DroppedInfo struct {
	Records int
	Months  map[string]bool
}

// DroppedSummary tracks discarded records across the whole subset run.
type DroppedSummary map[DropKey]*DroppedInfo

func (d DroppedSummary) add(agencyCode, dataType, month string, records int) {
	key := DropKey{AgencyCode: agencyCode, DataType: dataType}
	info := d[key]
	if info == nil {
		info = &DroppedInfo{Months: make(map[string]bool)}
		d[key] = info
	}
	info.Records += records
	info.Months[month] = true
}

// FilterRows keeps rows belonging to the given agency codes whose effective
// date falls inside [startMonth, endMonth] (both YYYYMM, inclusive).
//
// The date filter is range-based: delayed reporting from prior years survives
// as long as it lands inside the window, regardless of which monthly file
// carried it. In-agency rows outside the window are counted into dropped.
// Tables without the effective-date column pass through date filtering
// untouched.
func FilterRows(t *normalize.Table, agencyCodes []string, dataType, startMonth, endMonth string, dropped DroppedSummary) *normalize.Table {
	agencyIdx := columnIndex(t.Columns, agencyCodeColumn)
	dateIdx := columnIndex(t.Columns, effectiveDateColumn)
	countIdx := columnIndex(t.Columns, countColumn)

	wanted := make(map[string]bool, len(agencyCodes))
	for _, code := range agencyCodes {
		wanted[code] = true
	}

	out := &normalize.Table{Columns: t.Columns}
	for _, row := range t.Rows {
		if agencyIdx < 0 || agencyIdx >= len(row) || !wanted[row[agencyIdx]] {
			continue
		}

		if dateIdx >= 0 && dateIdx < len(row) {
			month := row[dateIdx]
			if month < startMonth || month > endMonth {
				records := 1
				if countIdx >= 0 && countIdx < len(row) {
					if n, err := strconv.Atoi(row[countIdx]); err == nil {
						records = n
					}
				}
				dropped.add(row[agencyIdx], dataType, month, records)
				continue
			}
		}

		out.Rows = append(out.Rows, row)
	}
	return out
}

// TagDataType appends a data_type column so accessions and separations rows
// stay distinguishable after combining.
func TagDataType(t *normalize.Table, dataType string) *normalize.Table {
	out := &normalize.Table{Columns: append(append([]string{}, t.Columns...), dataTypeColumn)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append(append([]string{}, row...), dataType))
	}
	return out
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
