package catalog

import (
	"errors"
	"testing"

	"fedharvest/types"
)

func TestParseLabelLegacyFormat(t *testing.T) {
	item, err := ParseLabel("accessions_202511_1_2026-01-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Category != types.Accessions {
		t.Errorf("expected Accessions, got %s", item.Category)
	}
	if item.Period != "202511" {
		t.Errorf("expected period 202511, got %s", item.Period)
	}
	if item.Version != 1 {
		t.Errorf("expected version 1, got %d", item.Version)
	}
}

func TestParseLabelLegacyWithoutVersion(t *testing.T) {
	item, err := ParseLabel("employment_202501")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Category != types.Employment || item.Period != "202501" {
		t.Errorf("got (%s, %s)", item.Category, item.Period)
	}
	if item.Version != 0 {
		t.Errorf("expected version 0, got %d", item.Version)
	}
}

func TestParseLabelDisplayFormat(t *testing.T) {
	for _, raw := range []string{
		"Accessions data for November 2025",
		"Accessions data from November 2025",
	} {
		item, err := ParseLabel(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if item.Category != types.Accessions || item.Period != "202511" {
			t.Errorf("%q: got (%s, %s)", raw, item.Category, item.Period)
		}
	}
}

// Both label formats for the same month must derive the identical
// destination id, or re-runs would re-publish under a second name.
func TestDerivedIDDeterministic(t *testing.T) {
	legacy, err := ParseLabel("accessions_202511_1_2026-01-09")
	if err != nil {
		t.Fatal(err)
	}
	display, err := ParseLabel("Accessions data for November 2025")
	if err != nil {
		t.Fatal(err)
	}

	a := types.RepoID("user", "opm-federal", legacy.Category, legacy.Period)
	b := types.RepoID("user", "opm-federal", display.Category, display.Period)
	if a != b {
		t.Errorf("ids diverge: %q vs %q", a, b)
	}
	if a != "user/opm-federal-accessions-202511" {
		t.Errorf("unexpected id %q", a)
	}
}

func TestParseLabelUnrecognized(t *testing.T) {
	for _, raw := range []string{
		"",
		"retirements_202511",         // unknown category
		"Retirements data for May 2025",
		"accessions-202511",          // wrong separator
		"accessions_20251",           // five digit period
		"completely unrelated label",
	} {
		_, err := ParseLabel(raw)
		if err == nil {
			t.Errorf("%q: expected error", raw)
			continue
		}
		var ule *UnrecognizedLabelError
		if !errors.As(err, &ule) {
			t.Errorf("%q: expected UnrecognizedLabelError, got %T", raw, err)
		}
	}
}
