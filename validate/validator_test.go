package validate

import (
	"reflect"
	"testing"
)

func TestExpectedMonthsCrossesYearBoundary(t *testing.T) {
	got := ExpectedMonths(YearMonth{2024, 11}, YearMonth{2025, 2})
	want := []string{"202411", "202412", "202501", "202502"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpectedMonthsSingleMonth(t *testing.T) {
	got := ExpectedMonths(YearMonth{2025, 6}, YearMonth{2025, 6})
	if !reflect.DeepEqual(got, []string{"202506"}) {
		t.Errorf("got %v", got)
	}
}

func TestExpectedMonthsEmptyWhenEndBeforeStart(t *testing.T) {
	if got := ExpectedMonths(YearMonth{2025, 6}, YearMonth{2025, 5}); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestValidateReportsMissingMonths(t *testing.T) {
	published := []string{
		"user/opm-federal-accessions-202501",
		"user/opm-federal-accessions-202503",
	}
	expected := []string{"202501", "202502", "202503"}

	missing := Validate(published, expected)
	if !reflect.DeepEqual(missing, []string{"202502"}) {
		t.Errorf("got %v, want [202502]", missing)
	}
}

func TestValidateCompleteRangeReturnsEmpty(t *testing.T) {
	published := []string{
		"user/opm-federal-accessions-202501",
		"user/opm-federal-accessions-202502",
		"user/opm-federal-accessions-202503",
	}
	expected := []string{"202501", "202502", "202503"}

	if missing := Validate(published, expected); len(missing) != 0 {
		t.Errorf("got %v, want empty", missing)
	}
}

func TestValidateIgnoresIDsWithoutPeriodSuffix(t *testing.T) {
	published := []string{"user/some-unrelated-dataset", "user/opm-federal-accessions-202501"}
	missing := Validate(published, []string{"202501"})
	if len(missing) != 0 {
		t.Errorf("got %v, want empty", missing)
	}
}

func TestPeriodFromID(t *testing.T) {
	if got := PeriodFromID("user/opm-federal-employment-202511"); got != "202511" {
		t.Errorf("got %q", got)
	}
	if got := PeriodFromID("user/no-suffix-here"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
