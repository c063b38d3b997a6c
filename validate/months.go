package validate

import "fmt"

// YearMonth is a calendar month used to bound an expected range.
type YearMonth struct {
	Year  int
	Month int
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%d%02d", ym.Year, ym.Month)
}

func (ym YearMonth) before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// ExpectedMonths returns every YYYYMM in the inclusive [start, end] range, in
// order. An end before start yields an empty set.
func ExpectedMonths(start, end YearMonth) []string {
	var months []string
	for ym := start; !end.before(ym); ym = ym.next() {
		months = append(months, ym.String())
	}
	return months
}
