package publish

import (
	"context"
	"fmt"
	"time"
)

// PublishError reports an upload whose retries were exhausted. It carries the
// destination id and the last underlying cause.
type PublishError struct {
	RepoID   string
	Attempts int
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing %s failed after %d attempts: %v", e.RepoID, e.Attempts, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// RetryPolicy bounds the publish retry loop. The delay before retry n
// (1-based) is BaseDelay << (n-1): with a 2s base, 2s then 4s then 8s.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << (attempt - 1)
}

// Publisher writes artifacts to a Store under their canonical repo id.
//
// Exists followed by Publish is not atomic across processes: two concurrent
// independent runs can both observe "absent" and both upload. Within a single
// run, at-most-once publication per id holds; the upload is a whole-file
// replace, so the worst cross-process outcome is a redundant identical commit.
type Publisher struct {
	store    Store
	fileName string
	policy   RetryPolicy

	// sleep is swapped for a recording fake in tests.
	sleep func(time.Duration)
}

// NewPublisher creates a Publisher that stores artifacts under fileName
// inside each destination repo.
func NewPublisher(store Store, fileName string, policy RetryPolicy) *Publisher {
	return &Publisher{
		store:    store,
		fileName: fileName,
		policy:   policy,
		sleep:    time.Sleep,
	}
}

// Exists reports whether the destination already holds a published artifact.
// A repo that exists but has no artifact file counts as not published, so a
// run interrupted between create and upload resumes cleanly.
func (p *Publisher) Exists(ctx context.Context, repoID string) (bool, error) {
	ok, err := p.store.RepoExists(ctx, repoID)
	if err != nil || !ok {
		return false, err
	}

	files, err := p.store.ListRepoFiles(ctx, repoID)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if f == p.fileName {
			return true, nil
		}
	}
	return false, nil
}

// Publish creates the destination repo if needed and uploads the artifact,
// retrying the whole sequence on failure per the retry policy. The final
// attempt's failure surfaces as a PublishError.
func (p *Publisher) Publish(ctx context.Context, repoID string, artifact []byte) error {
	var lastErr error
	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			p.sleep(p.policy.Delay(attempt - 1))
		}

		lastErr = p.publishOnce(ctx, repoID, artifact)
		if lastErr == nil {
			return nil
		}
	}
	return &PublishError{RepoID: repoID, Attempts: p.policy.MaxAttempts, Err: lastErr}
}

func (p *Publisher) publishOnce(ctx context.Context, repoID string, artifact []byte) error {
	if err := p.store.CreateRepo(ctx, repoID); err != nil {
		return fmt.Errorf("creating repo: %w", err)
	}
	if err := p.store.UploadFile(ctx, repoID, p.fileName, artifact); err != nil {
		return fmt.Errorf("uploading %s: %w", p.fileName, err)
	}
	return nil
}
