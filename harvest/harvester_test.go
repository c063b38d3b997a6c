package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"fedharvest/catalog"
	"fedharvest/types"
)

const testPayload = "agency_code|count\nAG|5\nIN|3\n"

// fakeSession replays a scripted paginated listing.
type fakeSession struct {
	pages     [][]string
	page      int
	filterErr error
	fetchErr  map[string]error // label -> error

	fetchCalls map[string]int
	nextCalls  int
}

func newFakeSession(pages ...[]string) *fakeSession {
	return &fakeSession{
		pages:      pages,
		fetchErr:   make(map[string]error),
		fetchCalls: make(map[string]int),
	}
}

func (f *fakeSession) ApplyFilters(ctx context.Context, category types.Category, startDate, endDate string) (int, error) {
	if f.filterErr != nil {
		return 0, f.filterErr
	}
	total := 0
	for _, p := range f.pages {
		total += len(p)
	}
	return total, nil
}

func (f *fakeSession) Labels(ctx context.Context) ([]string, error) {
	if f.page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[f.page], nil
}

func (f *fakeSession) Fetch(ctx context.Context, position int) ([]byte, string, error) {
	label := f.pages[f.page][position]
	f.fetchCalls[label]++
	if err := f.fetchErr[label]; err != nil {
		return nil, "", err
	}
	return []byte(testPayload), label + ".csv", nil
}

func (f *fakeSession) NextPage(ctx context.Context) (bool, error) {
	f.nextCalls++
	if f.page >= len(f.pages)-1 {
		return false, nil
	}
	f.page++
	return true, nil
}

func (f *fakeSession) Close() error { return nil }

// fakePublisher stores artifacts in memory. afterPublish, when set, runs
// after each successful publish (used to inject cancellation).
type fakePublisher struct {
	published    map[string][]byte
	existsCalls  int
	afterPublish func()
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][]byte)}
}

func (f *fakePublisher) Exists(ctx context.Context, repoID string) (bool, error) {
	f.existsCalls++
	_, ok := f.published[repoID]
	return ok, nil
}

func (f *fakePublisher) Publish(ctx context.Context, repoID string, artifact []byte) error {
	f.published[repoID] = artifact
	if f.afterPublish != nil {
		f.afterPublish()
	}
	return nil
}

func testConfig() Config {
	return Config{
		Publisher:  "user",
		Namespace:  "opm-federal",
		StartDate:  "2021-01-01",
		EndDate:    "2025-11-30",
		Categories: []types.Category{types.Accessions},
	}
}

func TestHarvestVisitsEveryItemAcrossPagesExactlyOnce(t *testing.T) {
	session := newFakeSession(
		[]string{"accessions_202501_1_2025-02-09", "accessions_202502_1_2025-03-09"},
		[]string{"accessions_202503_1_2025-04-09", "accessions_202504_1_2025-05-09"},
		[]string{"accessions_202505_1_2025-06-09"},
	)
	pub := newFakePublisher()

	result, err := New(session, pub, nil, testConfig()).RunCategory(context.Background(), types.Accessions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Published) != 5 || len(result.Failed) != 0 {
		t.Fatalf("got %d published, %d failed", len(result.Published), len(result.Failed))
	}
	for label, n := range session.fetchCalls {
		if n != 1 {
			t.Errorf("%s fetched %d times", label, n)
		}
	}
	// Three pages: advance twice, then observe the disabled control once.
	if session.nextCalls != 3 {
		t.Errorf("expected 3 next-page checks, got %d", session.nextCalls)
	}
	if result.Published[0] != "user/opm-federal-accessions-202501" {
		t.Errorf("unexpected first id %q", result.Published[0])
	}
}

func TestSecondRunSkipsPublishedItemsWithoutFetching(t *testing.T) {
	pages := [][]string{
		{"accessions_202501_1_2025-02-09", "accessions_202502_1_2025-03-09"},
	}
	pub := newFakePublisher()

	first := newFakeSession(pages...)
	r1, err := New(first, pub, nil, testConfig()).RunCategory(context.Background(), types.Accessions)
	if err != nil {
		t.Fatal(err)
	}

	second := newFakeSession(pages...)
	r2, err := New(second, pub, nil, testConfig()).RunCategory(context.Background(), types.Accessions)
	if err != nil {
		t.Fatal(err)
	}

	if len(second.fetchCalls) != 0 {
		t.Errorf("second run fetched: %v", second.fetchCalls)
	}
	if len(r1.Published) != len(r2.Published) {
		t.Errorf("runs diverged: %v vs %v", r1.Published, r2.Published)
	}
	for i := range r1.Published {
		if r1.Published[i] != r2.Published[i] {
			t.Errorf("position %d: %q vs %q", i, r1.Published[i], r2.Published[i])
		}
	}
}

func TestFetchTimeoutDoesNotAbortCategory(t *testing.T) {
	session := newFakeSession([]string{
		"accessions_202501_1_2025-02-09",
		"accessions_202502_1_2025-03-09",
		"accessions_202503_1_2025-04-09",
	})
	session.fetchErr["accessions_202502_1_2025-03-09"] = &catalog.FetchError{Position: 1, Err: catalog.ErrFetchTimeout}
	pub := newFakePublisher()

	result, err := New(session, pub, nil, testConfig()).RunCategory(context.Background(), types.Accessions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Published) != 2 {
		t.Errorf("expected 2 published, got %v", result.Published)
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %v", result.Failed)
	}
	f := result.Failed[0]
	if f.Label != "accessions_202502_1_2025-03-09" {
		t.Errorf("wrong label %q", f.Label)
	}
	if !strings.Contains(f.Reason, "timed out") {
		t.Errorf("reason %q does not mention the timeout", f.Reason)
	}
	if len(f.Reason) > 60 {
		t.Errorf("reason not truncated: %d chars", len(f.Reason))
	}
}

func TestMalformedPayloadIsPerItemFailure(t *testing.T) {
	session := newFakeSession([]string{
		"accessions_202501_1_2025-02-09",
		"accessions_202502_1_2025-03-09",
	})
	session.pages[0][1] = "not a real label"
	pub := newFakePublisher()

	result, err := New(session, pub, nil, testConfig()).RunCategory(context.Background(), types.Accessions)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Published) != 1 || len(result.Failed) != 1 {
		t.Fatalf("got %v / %v", result.Published, result.Failed)
	}
	if !strings.Contains(result.Failed[0].Reason, "unrecognized") {
		t.Errorf("reason %q", result.Failed[0].Reason)
	}
}

func TestFilterFailureTreatsCategoryAsEmpty(t *testing.T) {
	session := newFakeSession([]string{"accessions_202501_1_2025-02-09"})
	session.filterErr = &catalog.FilterError{Category: types.Accessions, Err: errors.New("controls missing")}
	pub := newFakePublisher()

	result, err := New(session, pub, nil, testConfig()).RunCategory(context.Background(), types.Accessions)
	if err != nil {
		t.Fatalf("filter failure must not abort the run: %v", err)
	}
	if len(result.Published) != 0 || len(result.Failed) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if len(session.fetchCalls) != 0 {
		t.Error("nothing should be fetched when filtering fails")
	}
}

// Kill a run after k publishes, re-run to completion, and the final published
// set must match an uninterrupted run.
func TestInterruptedRunConvergesOnRerun(t *testing.T) {
	var labels []string
	for m := 1; m <= 5; m++ {
		labels = append(labels, fmt.Sprintf("accessions_20250%d_1_2025-06-09", m))
	}

	for k := 0; k <= len(labels); k++ {
		pub := newFakePublisher()
		ctx, cancel := context.WithCancel(context.Background())

		// Cancel the run context after k successful publishes.
		remaining := k
		pub.afterPublish = func() {
			remaining--
			if remaining <= 0 {
				cancel()
			}
		}
		if k == 0 {
			cancel()
		}

		_, err := New(newFakeSession(labels), pub, nil, testConfig()).RunCategory(ctx, types.Accessions)
		if k < len(labels) && !errors.Is(err, context.Canceled) {
			t.Fatalf("k=%d: expected cancellation, got %v", k, err)
		}
		cancel()
		pub.afterPublish = nil

		// Resume with a fresh session against the same store.
		result, err := New(newFakeSession(labels), pub, nil, testConfig()).RunCategory(context.Background(), types.Accessions)
		if err != nil {
			t.Fatalf("k=%d: resume failed: %v", k, err)
		}
		if len(result.Published) != len(labels) || len(pub.published) != len(labels) {
			t.Errorf("k=%d: converged to %d published (%d stored)", k, len(result.Published), len(pub.published))
		}
	}
}
