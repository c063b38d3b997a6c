package harvest

import (
	"context"
	"fmt"
	"log"
	"time"

	"fedharvest/catalog"
	"fedharvest/normalize"
	"fedharvest/types"
)

// maxReasonLen bounds the recorded cause for a failed item; full errors still
// go to the log.
const maxReasonLen = 60

// ArtifactPublisher is the publishing surface the harvester drives.
// Satisfied by *publish.Publisher.
type ArtifactPublisher interface {
	Exists(ctx context.Context, repoID string) (bool, error)
	Publish(ctx context.Context, repoID string, artifact []byte) error
}

// Config is the explicit per-run configuration. There is no ambient state:
// two harvesters with equal configs derive identical destination ids.
type Config struct {
	Publisher  string // publishing account name
	Namespace  string // canonical name prefix, e.g. "opm-federal"
	StartDate  string // inclusive, YYYY-MM-DD
	EndDate    string // inclusive, YYYY-MM-DD
	Categories []types.Category
}

// Harvester drives one portal session through the per-category harvest state
// machine: filter, list, then check/fetch/convert/publish each position, page
// by page. The session is stateful and non-shareable, so a Harvester runs
// strictly sequentially; parallel categories require separate sessions.
type Harvester struct {
	session   catalog.Session
	publisher ArtifactPublisher
	mirror    *Mirror // optional, best-effort
	cfg       Config
}

// New creates a Harvester. mirror may be nil.
func New(session catalog.Session, publisher ArtifactPublisher, mirror *Mirror, cfg Config) *Harvester {
	return &Harvester{
		session:   session,
		publisher: publisher,
		mirror:    mirror,
		cfg:       cfg,
	}
}

// Run harvests every configured category in order. Cancellation is honored
// between items: the in-flight item finishes its full retry sequence first,
// so the store is always left per-item consistent.
func (h *Harvester) Run(ctx context.Context) ([]*types.HarvestResult, error) {
	results := make([]*types.HarvestResult, 0, len(h.cfg.Categories))
	for _, cat := range h.cfg.Categories {
		result, err := h.RunCategory(ctx, cat)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// RunCategory executes one category pass and returns its result. Re-running
// the same category is safe: previously published periods are skipped via the
// exists check, so repeated runs converge on the same published set.
func (h *Harvester) RunCategory(ctx context.Context, category types.Category) (*types.HarvestResult, error) {
	result := &types.HarvestResult{Category: category}

	log.Printf("=== %s ===", category)
	started := time.Now()

	total, err := h.session.ApplyFilters(ctx, category, h.cfg.StartDate, h.cfg.EndDate)
	if err != nil {
		// Filter failure means we cannot see the listing; treat the
		// category as empty rather than failing the whole run.
		log.Printf("Filter failed for %s, treating as empty: %v", category, err)
		return result, nil
	}
	if total == 0 {
		log.Printf("No files found for %s, skipping", category)
		return result, nil
	}
	log.Printf("Found %d files for %s", total, category)

	processed := 0
	for page := 1; ; page++ {
		labels, err := h.session.Labels(ctx)
		if err != nil {
			return result, fmt.Errorf("listing page %d: %w", page, err)
		}

		for pos, label := range labels {
			// Stop signals are honored between items only; the item in
			// flight always completes its full fetch/publish sequence so
			// the store stays per-item consistent.
			if err := ctx.Err(); err != nil {
				log.Printf("Harvest cancelled after %d item(s)", processed)
				return result, err
			}
			h.processItem(context.WithoutCancel(ctx), result, pos, label)
			processed++
			log.Printf("  [%d/%d] done", processed, total)
		}

		more, err := h.session.NextPage(ctx)
		if err != nil {
			return result, fmt.Errorf("advancing past page %d: %w", page, err)
		}
		if !more {
			break
		}
	}

	log.Printf("%s complete in %s: %d published, %d failed",
		category, time.Since(started).Round(time.Second), len(result.Published), len(result.Failed))
	return result, nil
}

// processItem runs the per-item sequence. Every failure is downgraded to a
// recorded entry so one bad file never aborts the category pass. Retries live
// inside the publisher only; there is no cross-item retry.
func (h *Harvester) processItem(ctx context.Context, result *types.HarvestResult, position int, label string) {
	item, err := catalog.ParseLabel(label)
	if err != nil {
		h.recordFailure(result, label, err)
		return
	}

	repoID := types.RepoID(h.cfg.Publisher, h.cfg.Namespace, item.Category, item.Period)

	// Idempotency: check before paying the fetch cost. A re-run after a
	// crash skips everything already published.
	exists, err := h.publisher.Exists(ctx, repoID)
	if err != nil {
		h.recordFailure(result, label, err)
		return
	}
	if exists {
		log.Printf("  ✓ %s already published, skipping", repoID)
		result.Published = append(result.Published, repoID)
		return
	}

	raw, suggestedName, err := h.session.Fetch(ctx, position)
	if err != nil {
		h.recordFailure(result, label, err)
		return
	}
	log.Printf("  ↓ Downloaded %s (%.1f MB)", suggestedName, float64(len(raw))/(1024*1024))

	artifact, err := normalize.Normalize(raw)
	if err != nil {
		h.recordFailure(result, label, err)
		return
	}

	if err := h.publisher.Publish(ctx, repoID, artifact); err != nil {
		h.recordFailure(result, label, err)
		return
	}
	result.Published = append(result.Published, repoID)
	log.Printf("  ↑ Published %s (%.1f MB parquet)", repoID, float64(len(artifact))/(1024*1024))

	if h.mirror != nil {
		repoName := types.RepoName(h.cfg.Namespace, item.Category, item.Period)
		if err := h.mirror.Upload(ctx, repoName, artifact); err != nil {
			// Mirroring is best-effort and never counts against the item.
			log.Printf("  ⚠️ S3 mirror failed for %s: %v", repoName, err)
		}
	}
}

func (h *Harvester) recordFailure(result *types.HarvestResult, label string, err error) {
	reason := err.Error()
	if len(reason) > maxReasonLen {
		reason = reason[:maxReasonLen]
	}
	log.Printf("  ⚠️ Error on %q: %s", label, reason)
	result.Failed = append(result.Failed, types.FailedItem{Label: label, Reason: reason})
}
