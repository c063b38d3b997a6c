package subset

import (
	"reflect"
	"testing"

	"fedharvest/normalize"
)

func workforceTable(rows ...[]string) *normalize.Table {
	return &normalize.Table{
		Columns: []string{"agency_code", "personnel_action_effective_date_yyyymm", "count"},
		Rows:    rows,
	}
}

func TestFilterRowsKeepsDelayedReportingInsideWindow(t *testing.T) {
	// A file for one month can carry corrections with much older effective
	// dates. Filtering is by effective date range, not by source file.
	table := workforceTable(
		[]string{"AG", "201503", "2"}, // delayed correction, in window
		[]string{"AG", "202001", "7"},
		[]string{"IN", "202001", "4"}, // wrong agency
		[]string{"AG", "201412", "1"}, // before window
	)

	dropped := make(DroppedSummary)
	out := FilterRows(table, []string{"AG"}, "accessions", "201501", "202512", dropped)

	want := [][]string{
		{"AG", "201503", "2"},
		{"AG", "202001", "7"},
	}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Errorf("got %v, want %v", out.Rows, want)
	}
}

func TestFilterRowsTracksDroppedRecordCounts(t *testing.T) {
	table := workforceTable(
		[]string{"AG", "201412", "5"},
		[]string{"AG", "201411", "3"},
		[]string{"AG", "202001", "1"},
	)

	dropped := make(DroppedSummary)
	FilterRows(table, []string{"AG"}, "separations", "201501", "202512", dropped)

	info := dropped[DropKey{AgencyCode: "AG", DataType: "separations"}]
	if info == nil {
		t.Fatal("expected dropped entry for AG/separations")
	}
	// Record counts come from the count column, not the row count.
	if info.Records != 8 {
		t.Errorf("expected 8 dropped records, got %d", info.Records)
	}
	if len(info.Months) != 2 || !info.Months["201412"] || !info.Months["201411"] {
		t.Errorf("unexpected dropped months %v", info.Months)
	}
}

func TestFilterRowsOutOfWindowOtherAgencyNotCounted(t *testing.T) {
	table := workforceTable([]string{"IN", "201001", "9"})

	dropped := make(DroppedSummary)
	out := FilterRows(table, []string{"AG"}, "accessions", "201501", "202512", dropped)

	if len(out.Rows) != 0 {
		t.Errorf("got %v", out.Rows)
	}
	// Dropped tracks delayed reporting for selected agencies only.
	if len(dropped) != 0 {
		t.Errorf("unexpected dropped entries: %v", dropped)
	}
}

func TestFilterRowsWithoutDateColumnPassesThrough(t *testing.T) {
	table := &normalize.Table{
		Columns: []string{"agency_code", "count"},
		Rows: [][]string{
			{"AG", "5"},
			{"IN", "3"},
		},
	}

	dropped := make(DroppedSummary)
	out := FilterRows(table, []string{"AG"}, "employment", "201501", "202512", dropped)

	if len(out.Rows) != 1 || out.Rows[0][0] != "AG" {
		t.Errorf("got %v", out.Rows)
	}
	if len(dropped) != 0 {
		t.Errorf("unexpected dropped entries: %v", dropped)
	}
}

func TestTagDataType(t *testing.T) {
	table := workforceTable([]string{"AG", "202001", "7"})

	out := TagDataType(table, "accessions")

	wantCols := []string{"agency_code", "personnel_action_effective_date_yyyymm", "count", "data_type"}
	if !reflect.DeepEqual(out.Columns, wantCols) {
		t.Errorf("columns %v", out.Columns)
	}
	if !reflect.DeepEqual(out.Rows[0], []string{"AG", "202001", "7", "accessions"}) {
		t.Errorf("row %v", out.Rows[0])
	}
	// Source table must not be mutated.
	if len(table.Columns) != 3 || len(table.Rows[0]) != 3 {
		t.Error("input table was modified")
	}
}
