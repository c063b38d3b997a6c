package publish

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore scripts per-call failures and records what was uploaded.
type fakeStore struct {
	repos map[string][]string // repoID -> file paths

	uploadFailures int // fail this many UploadFile calls before succeeding
	uploadCalls    int
	createCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{repos: make(map[string][]string)}
}

func (f *fakeStore) RepoExists(ctx context.Context, repoID string) (bool, error) {
	_, ok := f.repos[repoID]
	return ok, nil
}

func (f *fakeStore) ListRepoFiles(ctx context.Context, repoID string) ([]string, error) {
	return f.repos[repoID], nil
}

func (f *fakeStore) CreateRepo(ctx context.Context, repoID string) error {
	f.createCalls++
	if _, ok := f.repos[repoID]; !ok {
		f.repos[repoID] = nil
	}
	return nil
}

func (f *fakeStore) UploadFile(ctx context.Context, repoID, path string, data []byte) error {
	f.uploadCalls++
	if f.uploadFailures > 0 {
		f.uploadFailures--
		return errors.New("simulated transient failure")
	}
	f.repos[repoID] = append(f.repos[repoID], path)
	return nil
}

func (f *fakeStore) ListDatasets(ctx context.Context, author, search string) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) DownloadFile(ctx context.Context, repoID, path string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func newTestPublisher(store Store) (*Publisher, *[]time.Duration) {
	p := NewPublisher(store, "data.parquet", RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second})
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, &slept
}

func TestPublishSucceedsOnThirdAttemptWithBackoff(t *testing.T) {
	store := newFakeStore()
	store.uploadFailures = 2
	p, slept := newTestPublisher(store)

	if err := p.Publish(context.Background(), "user/repo", []byte("x")); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if store.uploadCalls != 3 {
		t.Errorf("expected 3 upload attempts, got %d", store.uploadCalls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, *slept)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], (*slept)[i])
		}
	}
}

func TestPublishExhaustsRetriesWithoutFourthAttempt(t *testing.T) {
	store := newFakeStore()
	store.uploadFailures = 99
	p, _ := newTestPublisher(store)

	err := p.Publish(context.Background(), "user/repo", []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PublishError, got %T", err)
	}
	if pe.RepoID != "user/repo" || pe.Attempts != 3 {
		t.Errorf("unexpected PublishError: %+v", pe)
	}
	if pe.Unwrap() == nil {
		t.Error("expected underlying cause")
	}
	if store.uploadCalls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", store.uploadCalls)
	}
}

func TestExistsRequiresArtifactNotJustRepo(t *testing.T) {
	store := newFakeStore()
	p, _ := newTestPublisher(store)
	ctx := context.Background()

	// Absent repo.
	if ok, err := p.Exists(ctx, "user/repo"); err != nil || ok {
		t.Errorf("absent repo: got (%v, %v)", ok, err)
	}

	// Repo created but upload never happened (interrupted prior run):
	// must read as not published so a re-run resumes the upload.
	if err := store.CreateRepo(ctx, "user/repo"); err != nil {
		t.Fatal(err)
	}
	if ok, err := p.Exists(ctx, "user/repo"); err != nil || ok {
		t.Errorf("empty repo: got (%v, %v)", ok, err)
	}

	if err := p.Publish(ctx, "user/repo", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if ok, err := p.Exists(ctx, "user/repo"); err != nil || !ok {
		t.Errorf("published repo: got (%v, %v)", ok, err)
	}
}

func TestPublishIsIdempotentOverExistingRepo(t *testing.T) {
	store := newFakeStore()
	p, slept := newTestPublisher(store)
	ctx := context.Background()

	if err := p.Publish(ctx, "user/repo", []byte("x")); err != nil {
		t.Fatal(err)
	}
	// Publishing again over the existing repo must not error: create is
	// idempotent and the upload is a whole-file replace.
	if err := p.Publish(ctx, "user/repo", []byte("x")); err != nil {
		t.Fatalf("second publish failed: %v", err)
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected retries: %v", *slept)
	}
}
