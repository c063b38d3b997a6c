package types

import (
	"fmt"
	"strings"
)

// Category is one of the three workforce event types published by the portal.
type Category string

const (
	Accessions  Category = "Accessions"
	Separations Category = "Separations"
	Employment  Category = "Employment"
)

// AllCategories lists the categories in the order the portal presents them.
var AllCategories = []Category{Accessions, Separations, Employment}

// Lower returns the category spelled the way it appears in filenames and repo names.
func (c Category) Lower() string {
	return strings.ToLower(string(c))
}

// ParseCategory matches a user-supplied name against the known categories,
// case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (expected one of Accessions, Separations, Employment)", s)
}

// SourceItem identifies one monthly dataset visible in the portal catalog.
// Identity is (Category, Period); Version distinguishes re-releases of the
// same period in the source catalog but does not affect the destination id.
type SourceItem struct {
	Category Category
	Period   string // YYYYMM
	Version  int    // 0 when the label carries no version ordinal
	RawLabel string
}

// RepoName derives the canonical dataset name for a (category, period) pair,
// e.g. "opm-federal-accessions-202511". Both the harvester and the downstream
// subsetter must derive names through this function so they always agree.
func RepoName(namespace string, category Category, period string) string {
	return fmt.Sprintf("%s-%s-%s", namespace, category.Lower(), period)
}

// RepoID prefixes the canonical name with the publishing account,
// e.g. "abigailhaddad/opm-federal-accessions-202511".
func RepoID(publisher, namespace string, category Category, period string) string {
	return publisher + "/" + RepoName(namespace, category, period)
}

// FailedItem records one item that could not be published during a run.
type FailedItem struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// HarvestResult accumulates the outcome of one per-category harvest pass.
// Published holds destination ids in processing order, including items that
// were skipped because they already existed remotely. The result is owned by
// the harvester for the duration of the pass and never mutated afterward.
type HarvestResult struct {
	Category  Category     `json:"category"`
	Published []string     `json:"published"`
	Failed    []FailedItem `json:"failed"`
}
