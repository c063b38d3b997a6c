package catalog

import (
	"context"
	"errors"
	"fmt"

	"fedharvest/types"
)

// ErrFetchTimeout reports a download that did not complete within the
// configured bound. Wrapped by FetchError; check with errors.Is.
var ErrFetchTimeout = errors.New("fetch timed out")

// FilterError reports that the category/date filters could not be applied.
// The harvester treats the category as empty rather than failing the run.
type FilterError struct {
	Category types.Category
	Err      error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("applying filters for %s: %v", e.Category, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// FetchError reports a failed download of a single catalog item.
type FetchError struct {
	Position int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching item at position %d: %v", e.Position, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Session is a stateful cursor over the portal's paginated catalog listing.
//
// The underlying session holds mutable state (active filters, current page,
// any open download panel), so a Session must not be shared across goroutines;
// parallel category harvests need independent Session instances. Item
// positions are page-relative and reset to 0 whenever NextPage advances, so
// callers must re-enumerate Labels after every page change.
type Session interface {
	// ApplyFilters establishes the category and inclusive date-range filter
	// on the listing and returns the total matching item count. A count of
	// zero with a nil error means the category genuinely has no items.
	ApplyFilters(ctx context.Context, category types.Category, startDate, endDate string) (int, error)

	// Labels returns the raw label of every item on the current page, in
	// position order, without triggering any downloads.
	Labels(ctx context.Context) ([]string, error)

	// Fetch downloads the item at the given page-relative position and
	// returns its raw payload along with the server-suggested file name.
	// Any transient UI state opened by the interaction is closed before
	// Fetch returns, on every exit path.
	Fetch(ctx context.Context, position int) (data []byte, suggestedName string, err error)

	// NextPage advances the cursor. It returns false when the listing is on
	// its final page and the cursor did not move.
	NextPage(ctx context.Context) (bool, error)

	// Close releases the underlying session.
	Close() error
}
