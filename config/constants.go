package config

import (
	"time"

	"fedharvest/types"
)

// Portal Constants
const (
	// PortalURL is the public data downloads page the harvester drives.
	PortalURL = "https://data.opm.gov/explore-data/data/data-downloads"

	// PageSize is the rows-per-page setting requested after filtering.
	PageSize = 100

	// FetchTimeout bounds a single file download. Employment files run to
	// hundreds of MB, so this is generous but never infinite.
	FetchTimeout = 10 * time.Minute

	// SettleDelay is the pause after filter and pagination interactions,
	// giving the portal's listing time to re-render.
	SettleDelay = 2 * time.Second
)

// Publishing Constants
const (
	// DefaultPublisher is the account datasets are published under.
	DefaultPublisher = "abigailhaddad"

	// Namespace prefixes every canonical dataset name.
	Namespace = "opm-federal"

	// ArtifactFileName is the fixed file name inside every dataset repo.
	ArtifactFileName = "data.parquet"

	// MaxPublishAttempts is the total number of upload attempts per item.
	MaxPublishAttempts = 3

	// PublishBackoffBase is the delay before the first retry; each
	// subsequent retry doubles it (2s, 4s, 8s).
	PublishBackoffBase = 2 * time.Second
)

// Date Range Constants
const (
	// DefaultStartDate is the earliest portal date filtered by default.
	DefaultStartDate = "2021-01-01"

	// DefaultEndDate is the latest portal date filtered by default.
	DefaultEndDate = "2025-11-30"
)

// SizeEstimatesMB holds rough per-month CSV sizes used for the pre-run banner.
var SizeEstimatesMB = map[types.Category]int{
	types.Accessions:  6,
	types.Separations: 6,
	types.Employment:  780,
}
